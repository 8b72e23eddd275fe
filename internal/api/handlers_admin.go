package api

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"

	"github.com/JustinTDCT/TuneVault/internal/auth"
	"github.com/JustinTDCT/TuneVault/internal/httputil"
	"github.com/JustinTDCT/TuneVault/internal/models"
)

// ──────────────────── Admin endpoints ────────────────────

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	cacheStats, err := s.statsRepo.CacheStats()
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	jobStats, err := s.queue.Stats()
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	top, err := s.statsRepo.MostAccessedArtists(10)
	if err != nil {
		log.Printf("API: top artists: %v", err)
	}
	latest, err := s.bulkRepo.Latest()
	if err != nil {
		log.Printf("API: latest bulk refresh: %v", err)
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"version":           s.info.Version,
		"uptime_seconds":    int(time.Since(s.startedAt).Seconds()),
		"cache":             cacheStats,
		"jobs":              jobStats,
		"top_artists":       top,
		"bulk_refresh":      latest,
		"websocket_clients": s.wsHub.ClientCount(),
	})
}

// handleGetConfig returns the effective configuration with secrets reduced
// to presence flags.
func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	providers := map[string]interface{}{}
	for name, p := range s.cfg.Providers {
		providers[name] = map[string]interface{}{
			"enabled":     p.Enabled,
			"hasApiKey":   p.APIKey != "",
			"baseUrl":     p.BaseURL,
			"rateLimitMs": p.RateLimitMS,
		}
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"server": map[string]interface{}{
			"port":      s.cfg.Server.Port,
			"serverUrl": s.cfg.Server.ServerURL,
		},
		"cache": map[string]interface{}{
			"enabled": s.cfg.Cache.Enabled,
			"ttl":     s.cfg.Cache.TTLSeconds,
			"maxSize": s.cfg.Cache.MaxSize,
		},
		"metadata": map[string]interface{}{
			"fetchTypes": map[string]interface{}{
				"albumTypes":      s.cfg.Metadata.FetchTypes.AlbumTypes,
				"releaseStatuses": s.cfg.Metadata.FetchTypes.ReleaseStatuses,
			},
		},
		"refresh": map[string]interface{}{
			"artistTTL":           s.cfg.Refresh.ArtistTTLDays,
			"bulkRefreshInterval": s.cfg.Refresh.BulkRefreshDays,
		},
		"providers":   providers,
		"dataDir":     s.cfg.DataDir,
		"authEnabled": s.authService.Enabled(),
	})
}

// handleUpdateConfig persists dotted-key settings and folds them into the
// live configuration. Filter and refresh changes apply immediately;
// provider, server, and auth changes need a restart to rebuild adapters.
func (s *Server) handleUpdateConfig(w http.ResponseWriter, r *http.Request) {
	var req map[string]interface{}
	if err := httputil.ReadJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req) == 0 {
		httputil.WriteError(w, http.StatusBadRequest, "no settings provided")
		return
	}

	restartRequired := false
	updates := make(map[string]string, len(req))
	for key, value := range req {
		str := cast.ToString(value)
		if key == "auth.adminPassword" && str != "" {
			hashed, err := auth.HashPassword(str)
			if err != nil {
				httputil.WriteError(w, http.StatusInternalServerError, err.Error())
				return
			}
			str = hashed
		}
		for _, prefix := range []string{"providers.", "auth.", "server."} {
			if strings.HasPrefix(key, prefix) {
				restartRequired = true
			}
		}
		updates[key] = str
	}
	if err := s.settingsRepo.SetMany(updates); err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.cfg.MergeFromDB(s.db.DB)
	s.searchCache.Purge()
	log.Printf("API: updated %d setting(s)", len(req))
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":           "ok",
		"restart_required": restartRequired,
	})
}

func (s *Server) handleJobStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.queue.Stats()
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	httputil.WriteJSON(w, http.StatusOK, stats)
}

func (s *Server) handleRecentJobs(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50, 500)
	recent, err := s.jobRepo.ListRecent(limit)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{"jobs": recent})
}

func (s *Server) handleClearJobs(w http.ResponseWriter, r *http.Request) {
	n, err := s.jobRepo.ClearFinished()
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	log.Printf("API: cleared %d finished job(s)", n)
	httputil.WriteJSON(w, http.StatusOK, map[string]int64{"cleared": n})
}

// handleRefreshAll kicks off a full re-fetch of every artist in the
// background and returns immediately.
func (s *Server) handleRefreshAll(w http.ResponseWriter, r *http.Request) {
	running, err := s.bulkRepo.Running()
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if running {
		httputil.WriteError(w, http.StatusConflict, "a bulk refresh is already running")
		return
	}
	go func() {
		if _, err := s.fetch.RefreshAll(context.Background(), true); err != nil {
			log.Printf("API: bulk refresh: %v", err)
		}
	}()
	httputil.WriteJSON(w, http.StatusAccepted, map[string]string{"status": "started"})
}

func (s *Server) handleUIFetchArtist(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	jobID, err := s.queue.Enqueue(models.JobArtistFull, models.EntityArtist, id, models.PriorityInteractive)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	httputil.WriteJSON(w, http.StatusAccepted, map[string]string{"job_id": jobID.String(), "status": "queued"})
}

func (s *Server) handleUIFetchAlbum(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	jobID, err := s.queue.Enqueue(models.JobFetchAlbumFull, models.EntityAlbum, id, models.PriorityInteractive)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	httputil.WriteJSON(w, http.StatusAccepted, map[string]string{"job_id": jobID.String(), "status": "queued"})
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 200, 1000)
	lines := []string{}
	if s.logs != nil {
		lines = s.logs.Lines(limit)
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{"lines": lines})
}

func queryInt(r *http.Request, name string, def, max int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return def
	}
	if n > max {
		return max
	}
	return n
}

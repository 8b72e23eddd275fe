package api

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/JustinTDCT/TuneVault/internal/format"
	"github.com/JustinTDCT/TuneVault/internal/httputil"
	"github.com/JustinTDCT/TuneVault/internal/metadata"
)

// ──────────────────── Consumer endpoints ────────────────────

func (s *Server) handleGetArtist(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	// MBIDs are uuids; junk ids are rejected before they cost a
	// rate-limited upstream call.
	if _, err := uuid.Parse(id); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid artist mbid")
		return
	}
	artist, err := s.fetch.EnsureArtist(r.Context(), id)
	if err != nil {
		if metadata.IsNotFound(err) {
			httputil.WriteError(w, http.StatusNotFound, "artist not found")
			return
		}
		log.Printf("API: get artist %s: %v", id, err)
		httputil.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	out, err := s.formatter.FormatArtist(artist)
	if err != nil {
		log.Printf("API: format artist %s: %v", id, err)
		httputil.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetAlbum(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := uuid.Parse(id); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid album mbid")
		return
	}
	album, err := s.fetch.EnsureAlbum(r.Context(), id)
	if err != nil {
		if metadata.IsNotFound(err) {
			httputil.WriteError(w, http.StatusNotFound, "album not found")
			return
		}
		log.Printf("API: get album %s: %v", id, err)
		httputil.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	out, err := s.formatter.FormatAlbum(album)
	if err != nil {
		log.Printf("API: format album %s: %v", id, err)
		httputil.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

// handleSearch proxies search upstream and replays identical queries from
// the response cache while the entry is fresh.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("query"))
	if query == "" {
		httputil.WriteError(w, http.StatusBadRequest, "query is required")
		return
	}
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 100 {
			httputil.WriteError(w, http.StatusBadRequest, "limit must be between 1 and 100")
			return
		}
		limit = n
	}

	key := fmt.Sprintf("%s|%d", strings.ToLower(query), limit)
	if body, ok := s.searchCache.Get(key); ok {
		httputil.WriteRaw(w, http.StatusOK, body)
		return
	}

	hits, err := s.fetch.Search(r.Context(), query, limit)
	if err != nil {
		log.Printf("API: search %q: %v", query, err)
		httputil.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	results := make([]format.SearchResult, 0, len(hits))
	for _, hit := range hits {
		switch {
		case hit.Artist != nil:
			results = append(results, s.formatter.FormatArtistSearchResult(hit.Artist))
		case hit.Album != nil:
			results = append(results, s.formatter.FormatAlbumSearchResult(hit.Album))
		}
	}
	body, err := json.Marshal(results)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.searchCache.Set(key, body)
	httputil.WriteRaw(w, http.StatusOK, body)
}

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/JustinTDCT/TuneVault/internal/artwork"
	"github.com/JustinTDCT/TuneVault/internal/auth"
	"github.com/JustinTDCT/TuneVault/internal/cache"
	"github.com/JustinTDCT/TuneVault/internal/config"
	"github.com/JustinTDCT/TuneVault/internal/db"
	"github.com/JustinTDCT/TuneVault/internal/fetcher"
	"github.com/JustinTDCT/TuneVault/internal/format"
	"github.com/JustinTDCT/TuneVault/internal/httputil"
	"github.com/JustinTDCT/TuneVault/internal/jobs"
	"github.com/JustinTDCT/TuneVault/internal/logbuf"
	"github.com/JustinTDCT/TuneVault/internal/models"
	"github.com/JustinTDCT/TuneVault/internal/repository"
	"github.com/JustinTDCT/TuneVault/internal/version"
)

// Fetcher is the orchestrator surface the handlers call. Satisfied by
// *fetcher.Fetcher; handler tests substitute a stub.
type Fetcher interface {
	EnsureArtist(ctx context.Context, id string) (*models.Artist, error)
	EnsureAlbum(ctx context.Context, id string) (*models.ReleaseGroup, error)
	Search(ctx context.Context, query string, limit int) ([]fetcher.SearchHit, error)
	RefreshAll(ctx context.Context, all bool) (*models.BulkRefresh, error)
}

type Server struct {
	cfg         *config.Config
	db          *db.DB
	authService *auth.Service
	fetch       Fetcher
	formatter   *format.Formatter
	queue       *jobs.Queue
	store       *artwork.Store
	searchCache *cache.Cache
	logs        *logbuf.Buffer

	artistRepo   *repository.ArtistRepository
	albumRepo    *repository.AlbumRepository
	imageRepo    *repository.ImageRepository
	jobRepo      *repository.JobRepository
	settingsRepo *repository.SettingsRepository
	statsRepo    *repository.StatsRepository
	bulkRepo     *repository.BulkRefreshRepository

	wsHub     *WSHub
	router    *http.ServeMux
	info      version.Info
	startedAt time.Time
}

func NewServer(cfg *config.Config, database *db.DB, fetch Fetcher, formatter *format.Formatter,
	queue *jobs.Queue, store *artwork.Store, logs *logbuf.Buffer) *Server {
	s := &Server{
		cfg:         cfg,
		db:          database,
		authService: auth.NewService(cfg.Auth.AdminPassword, cfg.Auth.JWTSecret),
		fetch:       fetch,
		formatter:   formatter,
		queue:       queue,
		store:       store,
		searchCache: cache.New(cfg.Cache.Enabled, time.Duration(cfg.Cache.TTLSeconds)*time.Second, cfg.Cache.MaxSize),
		logs:        logs,

		artistRepo:   repository.NewArtistRepository(database.DB),
		albumRepo:    repository.NewAlbumRepository(database.DB),
		imageRepo:    repository.NewImageRepository(database.DB),
		jobRepo:      repository.NewJobRepository(database.DB),
		settingsRepo: repository.NewSettingsRepository(database.DB),
		statsRepo:    repository.NewStatsRepository(database.DB),
		bulkRepo:     repository.NewBulkRefreshRepository(database.DB),

		wsHub:     NewWSHub(),
		router:    http.NewServeMux(),
		info:      version.Load(),
		startedAt: time.Now(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) WSHub() *WSHub {
	return s.wsHub
}

func (s *Server) setupRoutes() {
	// Consumer surface. These responses are exact wire shapes with no
	// envelope; automation clients parse them field by field.
	s.router.HandleFunc("GET /artist/{id}", s.handleGetArtist)
	s.router.HandleFunc("GET /album/{id}", s.handleGetAlbum)
	s.router.HandleFunc("GET /search", s.handleSearch)
	s.router.HandleFunc("GET /health", s.handleHealth)

	// Cached artwork
	s.router.HandleFunc("GET /images/{entity_type}/{entity_id}/{file}", s.handleServeImage)

	// Admin. Mutating routes and logs sit behind the bearer guard; the
	// guard passes everything through until a password is configured.
	s.router.HandleFunc("POST /api/auth/login", s.authService.LoginHandler)
	s.router.HandleFunc("GET /api/ws", s.handleWebSocket)
	s.router.HandleFunc("GET /api/stats", s.handleStats)
	s.router.HandleFunc("GET /api/config", s.handleGetConfig)
	s.router.HandleFunc("POST /api/config", s.authService.RequireAuth(s.handleUpdateConfig))
	s.router.HandleFunc("GET /api/jobs/stats", s.handleJobStats)
	s.router.HandleFunc("GET /api/jobs/recent", s.handleRecentJobs)
	s.router.HandleFunc("POST /api/jobs/clear", s.authService.RequireAuth(s.handleClearJobs))
	s.router.HandleFunc("POST /api/refresh/all", s.authService.RequireAuth(s.handleRefreshAll))
	s.router.HandleFunc("POST /api/ui/fetch-artist/{id}", s.authService.RequireAuth(s.handleUIFetchArtist))
	s.router.HandleFunc("POST /api/ui/fetch-album/{id}", s.authService.RequireAuth(s.handleUIFetchAlbum))
	s.router.HandleFunc("POST /api/images/upload", s.authService.RequireAuth(s.handleUploadImage))
	s.router.HandleFunc("DELETE /api/images/{id}", s.authService.RequireAuth(s.handleDeleteImage))
	s.router.HandleFunc("GET /api/logs", s.authService.RequireAuth(s.handleLogs))
}

// ServeHTTP exposes the bare router, mainly for httptest in handler tests.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Handler returns the router wrapped in the global middleware; main mounts
// this on its http.Server.
func (s *Server) Handler() http.Handler {
	return s.corsMiddleware(s.router)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.db.Ping(); err != nil {
		httputil.WriteError(w, http.StatusServiceUnavailable, "database unreachable")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": s.info.Version})
}

// corsMiddleware handles CORS preflight and response headers globally.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Max-Age", "86400")
			w.Header().Set("Vary", "Origin")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

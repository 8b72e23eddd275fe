package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/JustinTDCT/TuneVault/internal/auth"
	"github.com/JustinTDCT/TuneVault/internal/cache"
	"github.com/JustinTDCT/TuneVault/internal/config"
	"github.com/JustinTDCT/TuneVault/internal/fetcher"
	"github.com/JustinTDCT/TuneVault/internal/format"
	"github.com/JustinTDCT/TuneVault/internal/jobs"
	"github.com/JustinTDCT/TuneVault/internal/metadata"
	"github.com/JustinTDCT/TuneVault/internal/models"
	"github.com/JustinTDCT/TuneVault/internal/version"
)

// ──────────────────── Stubs ────────────────────

type stubFetcher struct {
	mu          sync.Mutex
	artists     map[string]*models.Artist
	albums      map[string]*models.ReleaseGroup
	hits        []fetcher.SearchHit
	err         error
	searchCalls int
}

func (f *stubFetcher) EnsureArtist(ctx context.Context, id string) (*models.Artist, error) {
	if f.err != nil {
		return nil, f.err
	}
	a, ok := f.artists[id]
	if !ok {
		return nil, metadata.ErrNotFound
	}
	return a, nil
}

func (f *stubFetcher) EnsureAlbum(ctx context.Context, id string) (*models.ReleaseGroup, error) {
	if f.err != nil {
		return nil, f.err
	}
	rg, ok := f.albums[id]
	if !ok {
		return nil, metadata.ErrNotFound
	}
	return rg, nil
}

func (f *stubFetcher) Search(ctx context.Context, query string, limit int) ([]fetcher.SearchHit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searchCalls++
	if f.err != nil {
		return nil, f.err
	}
	return f.hits, nil
}

func (f *stubFetcher) RefreshAll(ctx context.Context, all bool) (*models.BulkRefresh, error) {
	return &models.BulkRefresh{Status: "completed"}, nil
}

func (f *stubFetcher) searches() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.searchCalls
}

// Formatter sources that always come back empty; the join logic itself is
// covered by the format package tests.

type noArtists struct{}

func (noArtists) FindArtistsByIDs(ids []string) (map[string]*models.Artist, error) {
	return map[string]*models.Artist{}, nil
}

type noAlbums struct{}

func (noAlbums) ListByArtist(artistID string) ([]*models.ReleaseGroup, error) { return nil, nil }

type noReleases struct{}

func (noReleases) ListByReleaseGroup(releaseGroupID string) ([]*models.Release, error) {
	return nil, nil
}

type noLinks struct{}

func (noLinks) ListByEntity(entityType models.EntityType, entityID string) ([]models.Link, error) {
	return nil, nil
}

func (noLinks) ListByEntityIDs(entityType models.EntityType, entityIDs []string) (map[string][]models.Link, error) {
	return map[string][]models.Link{}, nil
}

type noImages struct{}

func (noImages) ListByEntity(entityType models.EntityType, entityID string) ([]*models.Image, error) {
	return nil, nil
}

func (noImages) ListByEntityIDs(entityType models.EntityType, entityIDs []string) (map[string][]*models.Image, error) {
	return map[string][]*models.Image{}, nil
}

type stubJobStore struct {
	mu   sync.Mutex
	rows []*models.Job
}

func (s *stubJobStore) Enqueue(job *models.Job) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *job
	cp.ID = uuid.New()
	cp.Status = models.JobPending
	s.rows = append(s.rows, &cp)
	return cp.ID, nil
}

func (s *stubJobStore) Claim(jobTypes []string) (*models.Job, error)  { return nil, nil }
func (s *stubJobStore) Complete(id uuid.UUID) error                   { return nil }
func (s *stubJobStore) Fail(id uuid.UUID, errMsg string) error        { return nil }
func (s *stubJobStore) FailPermanent(id uuid.UUID, errMsg string) error { return nil }
func (s *stubJobStore) ResetStuck() (int64, error)                    { return 0, nil }
func (s *stubJobStore) Stats() (*models.JobStats, error)              { return &models.JobStats{}, nil }

func (s *stubJobStore) last() *models.Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.rows) == 0 {
		return nil
	}
	return s.rows[len(s.rows)-1]
}

// ──────────────────── Harness ────────────────────

func newTestServer(t *testing.T, password string, fetch Fetcher) (*Server, *stubJobStore) {
	t.Helper()
	cfg := &config.Config{}
	cfg.Server.Port = 5001
	cfg.Auth.AdminPassword = password
	cfg.Auth.JWTSecret = "test-secret"

	store := &stubJobStore{}
	s := &Server{
		cfg:         cfg,
		authService: auth.NewService(password, cfg.Auth.JWTSecret),
		fetch:       fetch,
		formatter:   format.New(cfg, noArtists{}, noAlbums{}, noReleases{}, noLinks{}, noImages{}),
		queue:       jobs.NewQueue(store),
		searchCache: cache.New(true, time.Minute, 100),
		wsHub:       NewWSHub(),
		router:      http.NewServeMux(),
		info:        version.Info{Version: "test"},
		startedAt:   time.Now(),
	}
	s.setupRoutes()
	return s, store
}

func do(s *Server, method, path, token string, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	// Decode from a copy so the recorder's body can still be read by
	// assertions that compare raw responses.
	if err := json.NewDecoder(bytes.NewReader(rec.Body.Bytes())).Decode(dst); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

// ──────────────────── Consumer endpoints ────────────────────

// Consumer ids must look like MBIDs (uuids) to get past validation.
const (
	artistMBID = "aaaaaaaa-1111-4111-8111-111111111111"
	albumMBID  = "bbbbbbbb-2222-4222-8222-222222222222"
	absentMBID = "eeeeeeee-4040-4444-8444-444444444444"
)

func TestGetArtistReturnsWireShape(t *testing.T) {
	fetch := &stubFetcher{artists: map[string]*models.Artist{
		artistMBID: {ID: artistMBID, Name: "Sable Coast", SortName: "Coast, Sable", Status: "active"},
	}}
	s, _ := newTestServer(t, "", fetch)

	rec := do(s, http.MethodGet, "/artist/"+artistMBID, "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body: %s)", rec.Code, rec.Body)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q", ct)
	}

	var out format.Artist
	decode(t, rec, &out)
	if out.ID != artistMBID || out.ArtistName != "Sable Coast" || out.SortName != "Coast, Sable" {
		t.Errorf("unexpected body: %+v", out)
	}
	if out.Links == nil || out.Images == nil {
		t.Error("empty collections must serialize as [], not null")
	}
}

func TestGetArtistNotFound(t *testing.T) {
	s, _ := newTestServer(t, "", &stubFetcher{})

	rec := do(s, http.MethodGet, "/artist/"+absentMBID, "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	var out map[string]string
	decode(t, rec, &out)
	if out["error"] != "artist not found" {
		t.Errorf("error = %q", out["error"])
	}
}

func TestGetArtistUpstreamFailure(t *testing.T) {
	s, _ := newTestServer(t, "", &stubFetcher{err: metadata.Transientf("musicbrainz: status 503")})

	rec := do(s, http.MethodGet, "/artist/"+artistMBID, "", nil)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}

func TestConsumerRejectsMalformedID(t *testing.T) {
	// err set: reaching the fetcher at all would turn the 400 into a 500
	s, _ := newTestServer(t, "", &stubFetcher{err: metadata.Transientf("must not be called")})

	for _, path := range []string{"/artist/not-a-uuid", "/album/12345"} {
		rec := do(s, http.MethodGet, path, "", nil)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400 (body: %s)", path, rec.Code, rec.Body)
		}
	}
}

func TestGetAlbumReturnsWireShape(t *testing.T) {
	primary := "Album"
	fetch := &stubFetcher{albums: map[string]*models.ReleaseGroup{
		albumMBID: {
			ID: albumMBID, Title: "First Light", PrimaryType: &primary,
			ArtistCredit: []models.ArtistCredit{{ArtistID: artistMBID, Name: "Sable Coast"}},
		},
	}}
	s, _ := newTestServer(t, "", fetch)

	rec := do(s, http.MethodGet, "/album/"+albumMBID, "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body: %s)", rec.Code, rec.Body)
	}
	var out format.Album
	decode(t, rec, &out)
	if out.ID != albumMBID || out.Title != "First Light" || out.Type != "Album" {
		t.Errorf("unexpected body: %+v", out)
	}
	if out.ArtistID != artistMBID {
		t.Errorf("artistid = %q, want %q", out.ArtistID, artistMBID)
	}
}

func TestGetAlbumNotFound(t *testing.T) {
	s, _ := newTestServer(t, "", &stubFetcher{})

	rec := do(s, http.MethodGet, "/album/"+absentMBID, "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	var out map[string]string
	decode(t, rec, &out)
	if out["error"] != "album not found" {
		t.Errorf("error = %q", out["error"])
	}
}

// ──────────────────── Search ────────────────────

func TestSearchRejectsBadInput(t *testing.T) {
	s, _ := newTestServer(t, "", &stubFetcher{})

	tests := []struct {
		name string
		path string
		want string
	}{
		{"missing query", "/search", "query is required"},
		{"blank query", "/search?query=%20%20", "query is required"},
		{"limit zero", "/search?query=sable&limit=0", "limit must be between 1 and 100"},
		{"limit too large", "/search?query=sable&limit=101", "limit must be between 1 and 100"},
		{"limit not a number", "/search?query=sable&limit=ten", "limit must be between 1 and 100"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(s, http.MethodGet, tt.path, "", nil)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			var out map[string]string
			decode(t, rec, &out)
			if out["error"] != tt.want {
				t.Errorf("error = %q, want %q", out["error"], tt.want)
			}
		})
	}
}

func TestSearchReplaysCachedResponse(t *testing.T) {
	fetch := &stubFetcher{hits: []fetcher.SearchHit{{
		Artist: &models.ArtistSearchResult{
			Artist: &models.Artist{ID: "artist-1", Name: "Sable Coast", Status: "active"},
			Score:  90,
		},
		Score: 90,
	}}}
	s, _ := newTestServer(t, "", fetch)

	first := do(s, http.MethodGet, "/search?query=Sable&limit=5", "", nil)
	if first.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body: %s)", first.Code, first.Body)
	}
	var results []format.SearchResult
	decode(t, first, &results)
	if len(results) != 1 || results[0].Artist == nil || results[0].Artist.ID != "artist-1" {
		t.Fatalf("unexpected results: %+v", results)
	}

	// identical query modulo case replays from the cache
	second := do(s, http.MethodGet, "/search?query=sable&limit=5", "", nil)
	if second.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", second.Code)
	}
	if first.Body.String() != second.Body.String() {
		t.Error("cached replay differs from the original response")
	}
	if n := fetch.searches(); n != 1 {
		t.Errorf("upstream searches = %d, want 1", n)
	}

	// a different limit is a different cache entry
	do(s, http.MethodGet, "/search?query=sable&limit=6", "", nil)
	if n := fetch.searches(); n != 2 {
		t.Errorf("upstream searches = %d, want 2", n)
	}
}

// ──────────────────── Admin guard ────────────────────

func TestAdminRoutesRequireToken(t *testing.T) {
	s, store := newTestServer(t, "s3cret", &stubFetcher{})

	t.Run("no token", func(t *testing.T) {
		rec := do(s, http.MethodPost, "/api/ui/fetch-artist/artist-1", "", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("garbage token", func(t *testing.T) {
		rec := do(s, http.MethodPost, "/api/ui/fetch-artist/artist-1", "not-a-jwt", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		rec := do(s, http.MethodPost, "/api/auth/login", "", strings.NewReader(`{"password":"wrong"}`))
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("login then fetch", func(t *testing.T) {
		rec := do(s, http.MethodPost, "/api/auth/login", "", strings.NewReader(`{"password":"s3cret"}`))
		if rec.Code != http.StatusOK {
			t.Fatalf("login status = %d, want 200 (body: %s)", rec.Code, rec.Body)
		}
		var login map[string]string
		decode(t, rec, &login)
		if login["token"] == "" {
			t.Fatal("no token in login response")
		}

		rec = do(s, http.MethodPost, "/api/ui/fetch-artist/artist-9", login["token"], nil)
		if rec.Code != http.StatusAccepted {
			t.Fatalf("status = %d, want 202 (body: %s)", rec.Code, rec.Body)
		}
		var out map[string]string
		decode(t, rec, &out)
		if out["status"] != "queued" || out["job_id"] == "" {
			t.Errorf("unexpected body: %v", out)
		}

		job := store.last()
		if job == nil {
			t.Fatal("no job enqueued")
		}
		if job.JobType != models.JobArtistFull || job.EntityID != "artist-9" {
			t.Errorf("job = %s/%s, want %s/artist-9", job.JobType, job.EntityID, models.JobArtistFull)
		}
		if job.Priority != models.PriorityInteractive {
			t.Errorf("priority = %d, want %d", job.Priority, models.PriorityInteractive)
		}
	})
}

func TestAdminOpenUntilPasswordConfigured(t *testing.T) {
	s, store := newTestServer(t, "", &stubFetcher{})

	rec := do(s, http.MethodPost, "/api/ui/fetch-album/album-1", "", nil)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202 (body: %s)", rec.Code, rec.Body)
	}
	job := store.last()
	if job == nil || job.JobType != models.JobFetchAlbumFull || job.EntityID != "album-1" {
		t.Fatalf("job = %+v, want %s for album-1", job, models.JobFetchAlbumFull)
	}
}

// ──────────────────── Middleware ────────────────────

func TestCORSPreflight(t *testing.T) {
	s, _ := newTestServer(t, "", &stubFetcher{})
	h := s.Handler()

	req := httptest.NewRequest(http.MethodOptions, "/artist/artist-1", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("allow-origin = %q", got)
	}
	if rec.Header().Get("Access-Control-Allow-Methods") == "" {
		t.Error("no allow-methods header on preflight")
	}
}

package fetcher

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/JustinTDCT/TuneVault/internal/config"
	"github.com/JustinTDCT/TuneVault/internal/metadata"
	"github.com/JustinTDCT/TuneVault/internal/models"
)

// Enqueuer is the slice of the job queue the orchestrator needs. Declared
// here so this package does not import the worker side.
type Enqueuer interface {
	Enqueue(jobType string, entityType models.EntityType, entityID string, priority int) (uuid.UUID, error)
}

// The store slices the orchestrator reads and writes. Declared on the
// consumer side so tests can substitute in-memory fakes; the concrete
// *repository.XxxRepository types satisfy them.

type ArtistStore interface {
	FindArtist(id string) (*models.Artist, error)
	FindArtistsByIDs(ids []string) (map[string]*models.Artist, error)
	UpsertArtist(a *models.Artist, isFullData bool) error
	TouchAccess(id string) error
	MarkFetchComplete(id string, releaseCount int, expires time.Time) error
	SetLastFetchAttempt(id string) error
	ListArtistIDs() ([]string, error)
	ListExpired(now time.Time, limit int) ([]*models.Artist, error)
}

type AlbumStore interface {
	FindReleaseGroup(id string) (*models.ReleaseGroup, error)
	UpsertReleaseGroup(rg *models.ReleaseGroup, linkedArtistID string, isFullData bool) error
	LinkArtistToReleaseGroup(artistID, releaseGroupID string, position int) error
	TouchAccess(id string) error
	ListIDsByArtist(artistID string) ([]string, error)
}

type ReleaseStore interface {
	UpsertRelease(rel *models.Release) error
	UpsertRecording(rec *models.Recording) error
	UpsertTrack(t *models.Track) error
	ListByReleaseGroup(releaseGroupID string) ([]*models.Release, error)
}

type LinkStore interface {
	UpsertLinks(links []models.Link) error
}

type BulkRefreshStore interface {
	Start() (*models.BulkRefresh, error)
	Finish(id uuid.UUID, status string, artistsRefreshed int) error
	Running() (bool, error)
}

// Fetcher is the read-through orchestrator: every consumer read goes through
// it, and it decides what must be fetched synchronously versus handed to the
// background pools. All external traffic for canonical data originates here
// or in the workers calling back into it.
type Fetcher struct {
	cfg      *config.Config
	registry *metadata.Registry
	artists  ArtistStore
	albums   AlbumStore
	releases ReleaseStore
	links    LinkStore
	bulk     BulkRefreshStore
	queue    Enqueuer

	group        singleflight.Group
	now          func() time.Time
	refreshLimit int
}

func New(cfg *config.Config, registry *metadata.Registry, artists ArtistStore,
	albums AlbumStore, releases ReleaseStore,
	links LinkStore, bulk BulkRefreshStore, queue Enqueuer) *Fetcher {
	return &Fetcher{
		cfg:          cfg,
		registry:     registry,
		artists:      artists,
		albums:       albums,
		releases:     releases,
		links:        links,
		bulk:         bulk,
		queue:        queue,
		now:          time.Now,
		refreshLimit: 2,
	}
}

// ──────────────────── Consumer entry points ────────────────────

// EnsureArtist returns the artist, fetching it from upstream on a miss and
// delta-refreshing it when its TTL has lapsed. Concurrent requests for the
// same artist collapse into one fetch.
func (f *Fetcher) EnsureArtist(ctx context.Context, id string) (*models.Artist, error) {
	v, err, _ := f.group.Do("artist:"+id, func() (interface{}, error) {
		return f.ensureArtist(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.Artist), nil
}

func (f *Fetcher) ensureArtist(ctx context.Context, id string) (*models.Artist, error) {
	artist, err := f.artists.FindArtist(id)
	if err != nil {
		return nil, err
	}
	canonical := f.registry.Canonical()

	// The canonical record never carries text, so whether an overview is
	// missing is a property of the stored row, not of what was just fetched.
	firstFetch := artist == nil
	overviewMissing := firstFetch || artist.Overview == nil
	fetched := false
	if firstFetch {
		if canonical == nil {
			return nil, fmt.Errorf("artist %s is not cached and no canonical provider is enabled", id)
		}
		artist, err = f.fetchArtistRecord(ctx, canonical, id)
		if err != nil {
			return nil, err
		}
		fetched = true
	} else if f.staleArtist(artist) && canonical != nil {
		// Stamp the attempt first so a refresh that keeps failing is
		// visible even though the cached row keeps being served.
		if err := f.artists.SetLastFetchAttempt(id); err != nil {
			log.Printf("Fetcher: stamp fetch attempt for %s: %v", id, err)
		}
		refreshed, err := f.fetchArtistRecord(ctx, canonical, id)
		if err != nil {
			// stale beats nothing: keep serving the cached row
			log.Printf("Fetcher: refresh artist %s: %v, serving cached copy", id, err)
		} else {
			artist = refreshed
			fetched = true
		}
	}

	// Enumeration runs until it fully lands once; a crash mid-catalog just
	// resumes here, fetching only what is still missing.
	if !artist.FetchComplete && canonical != nil {
		if err := f.syncAlbums(ctx, canonical, id); err != nil {
			if firstFetch {
				return nil, err
			}
			log.Printf("Fetcher: sync albums for %s: %v", id, err)
		}
	}

	f.enqueuePlan(models.EntityArtist, id,
		planEnrichment(models.EntityArtist, overviewMissing, fetched,
			f.registry.HasCapability(metadata.CapArtistText),
			f.registry.HasCapability(metadata.CapArtistImages)))

	if err := f.artists.TouchAccess(id); err != nil {
		log.Printf("Fetcher: touch artist %s: %v", id, err)
	}
	final, err := f.artists.FindArtist(id)
	if err != nil {
		return nil, err
	}
	if final == nil {
		return artist, nil
	}
	return final, nil
}

// EnsureAlbum returns the release group, cascading to its credited artist
// when that artist is unknown. An explicit album request bypasses the
// album-type filter for the group itself; the filter only gates release
// enumeration.
func (f *Fetcher) EnsureAlbum(ctx context.Context, id string) (*models.ReleaseGroup, error) {
	v, err, _ := f.group.Do("album:"+id, func() (interface{}, error) {
		return f.ensureAlbum(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.ReleaseGroup), nil
}

func (f *Fetcher) ensureAlbum(ctx context.Context, id string) (*models.ReleaseGroup, error) {
	rg, err := f.albums.FindReleaseGroup(id)
	if err != nil {
		return nil, err
	}
	overviewMissing := rg == nil || rg.Overview == nil
	canonical := f.registry.Canonical()

	if rg != nil && !f.staleAlbum(rg) {
		f.touchAlbum(id)
		return rg, nil
	}
	if canonical == nil {
		if rg != nil {
			f.touchAlbum(id)
			return rg, nil
		}
		return nil, fmt.Errorf("album %s is not cached and no canonical provider is enabled", id)
	}

	remote, err := canonical.GetReleaseGroup(ctx, id)
	if err != nil {
		if rg != nil {
			log.Printf("Fetcher: refresh album %s: %v, serving cached copy", id, err)
			f.touchAlbum(id)
			return rg, nil
		}
		return nil, err
	}

	// The credited artist must exist before the group row can be linked.
	artistID := remote.CreditedArtistID()
	if artistID != "" {
		cached, err := f.artists.FindArtist(artistID)
		if err != nil {
			return nil, err
		}
		if cached == nil {
			if _, err := f.EnsureArtist(ctx, artistID); err != nil {
				return nil, fmt.Errorf("fetch credited artist %s: %w", artistID, err)
			}
			// the artist's catalog enumeration may have landed this very album
			if again, err := f.albums.FindReleaseGroup(id); err != nil {
				return nil, err
			} else if again != nil && !f.staleAlbum(again) {
				f.planAlbum(id, again.Overview == nil, true)
				f.touchAlbum(id)
				return again, nil
			}
		}
	}

	remote.TTLExpiresAt = ptrTime(f.now().Add(f.artistTTL()))
	if err := f.albums.UpsertReleaseGroup(remote, artistID, true); err != nil {
		return nil, err
	}
	if err := f.links.UpsertLinks(remote.Links); err != nil {
		return nil, err
	}

	// A group outside the configured album types keeps its metadata row but
	// gets no release enumeration.
	if AlbumTypeWanted(remote.PrimaryType, remote.SecondaryTypes, f.albumTypes()) {
		if err := f.fetchReleases(ctx, canonical, id, true); err != nil {
			return nil, err
		}
	}

	f.planAlbum(id, overviewMissing, true)
	f.touchAlbum(id)
	final, err := f.albums.FindReleaseGroup(id)
	if err != nil {
		return nil, err
	}
	if final == nil {
		return remote, nil
	}
	return final, nil
}

// SearchHit is one flat entry of a search response; exactly one of Artist
// and Album is set.
type SearchHit struct {
	Artist *models.ArtistSearchResult
	Album  *models.AlbumSearchResult
	Score  int
}

// Search proxies artist and album search upstream and merges the results by
// score. Nothing is stored.
func (f *Fetcher) Search(ctx context.Context, query string, limit int) ([]SearchHit, error) {
	canonical := f.registry.Canonical()
	if canonical == nil {
		return nil, fmt.Errorf("no canonical provider is enabled")
	}
	if limit <= 0 {
		limit = 10
	}

	artists, err := canonical.SearchArtists(ctx, query, limit)
	if err != nil && !metadata.IsNotFound(err) {
		return nil, err
	}
	albums, err := canonical.SearchAlbums(ctx, query, limit)
	if err != nil && !metadata.IsNotFound(err) {
		return nil, err
	}

	hits := make([]SearchHit, 0, len(artists)+len(albums))
	for i := range artists {
		hits = append(hits, SearchHit{Artist: &artists[i], Score: artists[i].Score})
	}
	for i := range albums {
		hits = append(hits, SearchHit{Album: &albums[i], Score: albums[i].Score})
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// ──────────────────── Worker entry points ────────────────────

// FetchArtist fetches and upserts one artist record, nothing else.
func (f *Fetcher) FetchArtist(ctx context.Context, id string) error {
	canonical := f.registry.Canonical()
	if canonical == nil {
		return metadata.Permanentf("no canonical provider is enabled")
	}
	_, err := f.fetchArtistRecord(ctx, canonical, id)
	return err
}

// FetchArtistAlbums enumerates and stores the artist's catalog.
func (f *Fetcher) FetchArtistAlbums(ctx context.Context, id string) error {
	canonical := f.registry.Canonical()
	if canonical == nil {
		return metadata.Permanentf("no canonical provider is enabled")
	}
	return f.syncAlbums(ctx, canonical, id)
}

// FetchRelease fetches one release with tracks, cascading to the parent
// release group when it is missing.
func (f *Fetcher) FetchRelease(ctx context.Context, id string) error {
	canonical := f.registry.Canonical()
	if canonical == nil {
		return metadata.Permanentf("no canonical provider is enabled")
	}
	rel, err := canonical.GetRelease(ctx, id)
	if err != nil {
		return err
	}
	if err := f.ensureReleaseGroupRow(ctx, canonical, rel.ReleaseGroupID); err != nil {
		return err
	}
	return f.upsertReleaseDeep(rel)
}

// FetchAlbumFull backfills a release group: the releases the status filter
// skipped, plus any track-credited artists the store has never seen.
func (f *Fetcher) FetchAlbumFull(ctx context.Context, releaseGroupID string) error {
	canonical := f.registry.Canonical()
	if canonical == nil {
		return metadata.Permanentf("no canonical provider is enabled")
	}
	if err := f.ensureReleaseGroupRow(ctx, canonical, releaseGroupID); err != nil {
		return err
	}

	releases, err := canonical.GetReleasesByReleaseGroup(ctx, releaseGroupID)
	if err != nil {
		return err
	}
	for _, rel := range releases {
		if ReleaseStatusWanted(rel.Status, f.releaseStatuses()) {
			continue
		}
		if err := f.fetchReleaseDeep(ctx, canonical, rel.ID); err != nil {
			if metadata.IsNotFound(err) {
				continue
			}
			return err
		}
	}
	return f.fetchMissingTrackArtists(ctx, canonical, releaseGroupID)
}

// FetchArtistFull is the legacy composite: record plus full catalog plus
// enrichment enqueues. Also the unit of work for bulk refresh.
func (f *Fetcher) FetchArtistFull(ctx context.Context, id string) error {
	canonical := f.registry.Canonical()
	if canonical == nil {
		return metadata.Permanentf("no canonical provider is enabled")
	}
	stored, err := f.artists.FindArtist(id)
	if err != nil {
		return err
	}
	if _, err := f.fetchArtistRecord(ctx, canonical, id); err != nil {
		return err
	}
	if err := f.syncAlbums(ctx, canonical, id); err != nil {
		return err
	}
	f.enqueuePlan(models.EntityArtist, id,
		planEnrichment(models.EntityArtist, stored == nil || stored.Overview == nil, true,
			f.registry.HasCapability(metadata.CapArtistText),
			f.registry.HasCapability(metadata.CapArtistImages)))
	return nil
}

// ──────────────────── Bulk refresh ────────────────────

// RefreshAll re-fetches artists with bounded concurrency: every artist when
// all is set, otherwise only those past their TTL. Per-artist failures are
// logged and skipped; the adapter gate is the real upstream throttle.
func (f *Fetcher) RefreshAll(ctx context.Context, all bool) (*models.BulkRefresh, error) {
	canonical := f.registry.Canonical()
	if canonical == nil {
		return nil, fmt.Errorf("no canonical provider is enabled")
	}
	if f.bulk != nil {
		running, err := f.bulk.Running()
		if err != nil {
			return nil, err
		}
		if running {
			return nil, fmt.Errorf("a bulk refresh is already running")
		}
	}

	var ids []string
	if all {
		var err error
		ids, err = f.artists.ListArtistIDs()
		if err != nil {
			return nil, err
		}
	} else {
		expired, err := f.artists.ListExpired(f.now(), 1000)
		if err != nil {
			return nil, err
		}
		for _, a := range expired {
			ids = append(ids, a.ID)
		}
	}

	var run *models.BulkRefresh
	if f.bulk != nil {
		var err error
		run, err = f.bulk.Start()
		if err != nil {
			return nil, err
		}
	}
	log.Printf("Fetcher: bulk refresh of %d artist(s) starting", len(ids))

	var refreshed atomic.Int64
	g := new(errgroup.Group)
	g.SetLimit(f.refreshLimit)
	for _, id := range ids {
		g.Go(func() error {
			if err := f.FetchArtistFull(ctx, id); err != nil {
				log.Printf("Fetcher: bulk refresh artist %s: %v", id, err)
				return nil
			}
			refreshed.Add(1)
			return nil
		})
	}
	g.Wait()

	n := int(refreshed.Load())
	log.Printf("Fetcher: bulk refresh finished, %d/%d artist(s) refreshed", n, len(ids))
	if f.bulk != nil && run != nil {
		if err := f.bulk.Finish(run.ID, "completed", n); err != nil {
			return run, err
		}
		run.ArtistsRefreshed = n
		run.Status = "completed"
	}
	return run, nil
}

// ──────────────────── Fetch plumbing ────────────────────

func (f *Fetcher) fetchArtistRecord(ctx context.Context, canonical metadata.CanonicalScraper, id string) (*models.Artist, error) {
	remote, err := canonical.GetArtist(ctx, id)
	if err != nil {
		return nil, err
	}
	remote.TTLExpiresAt = ptrTime(f.now().Add(f.artistTTL()))
	if err := f.artists.UpsertArtist(remote, true); err != nil {
		return nil, err
	}
	if err := f.links.UpsertLinks(remote.Links); err != nil {
		return nil, err
	}
	return remote, nil
}

// syncAlbums reconciles the stored catalog against upstream: apply the
// album-type filter, fetch only groups the store has never seen, refresh
// every link position, then stamp the artist fetch-complete. A TTL refresh
// therefore costs one enumeration plus the new albums, never the full
// catalog again.
func (f *Fetcher) syncAlbums(ctx context.Context, canonical metadata.CanonicalScraper, artistID string) error {
	upstream, err := canonical.GetArtistAlbums(ctx, artistID)
	if err != nil {
		return err
	}
	wanted := make([]*models.ReleaseGroup, 0, len(upstream))
	for _, rg := range upstream {
		if AlbumTypeWanted(rg.PrimaryType, rg.SecondaryTypes, f.albumTypes()) {
			wanted = append(wanted, rg)
		}
	}

	storedIDs, err := f.albums.ListIDsByArtist(artistID)
	if err != nil {
		return err
	}
	have := make(map[string]bool, len(storedIDs))
	for _, id := range storedIDs {
		have[id] = true
	}

	for i, rg := range wanted {
		if !have[rg.ID] {
			if err := f.fetchAlbumCascade(ctx, canonical, rg.ID, artistID); err != nil {
				if metadata.IsNotFound(err) {
					log.Printf("Fetcher: album %s vanished upstream, skipping", rg.ID)
					continue
				}
				return err
			}
		}
		if err := f.albums.LinkArtistToReleaseGroup(artistID, rg.ID, i); err != nil {
			return err
		}
	}
	return f.artists.MarkFetchComplete(artistID, len(wanted), f.now().Add(f.artistTTL()))
}

// fetchAlbumCascade pulls one release group and its wanted releases.
func (f *Fetcher) fetchAlbumCascade(ctx context.Context, canonical metadata.CanonicalScraper, releaseGroupID, artistID string) error {
	rg, err := canonical.GetReleaseGroup(ctx, releaseGroupID)
	if err != nil {
		return err
	}
	rg.TTLExpiresAt = ptrTime(f.now().Add(f.artistTTL()))
	if err := f.albums.UpsertReleaseGroup(rg, artistID, true); err != nil {
		return err
	}
	if err := f.links.UpsertLinks(rg.Links); err != nil {
		return err
	}
	return f.fetchReleases(ctx, canonical, releaseGroupID, false)
}

// fetchReleases stores the wanted releases of a group. When backfill is set,
// skipped releases leave one fetch_album_full job behind to be picked up in
// the background.
func (f *Fetcher) fetchReleases(ctx context.Context, canonical metadata.CanonicalScraper, releaseGroupID string, backfill bool) error {
	releases, err := canonical.GetReleasesByReleaseGroup(ctx, releaseGroupID)
	if err != nil {
		return err
	}
	skipped := 0
	for _, rel := range releases {
		if !ReleaseStatusWanted(rel.Status, f.releaseStatuses()) {
			skipped++
			continue
		}
		if err := f.fetchReleaseDeep(ctx, canonical, rel.ID); err != nil {
			if metadata.IsNotFound(err) {
				continue
			}
			return err
		}
	}
	if backfill && skipped > 0 && f.queue != nil {
		if _, err := f.queue.Enqueue(models.JobFetchAlbumFull, models.EntityAlbum, releaseGroupID, models.PriorityBackfill); err != nil {
			log.Printf("Fetcher: enqueue backfill for %s: %v", releaseGroupID, err)
		}
	}
	return nil
}

func (f *Fetcher) fetchReleaseDeep(ctx context.Context, canonical metadata.CanonicalScraper, releaseID string) error {
	rel, err := canonical.GetRelease(ctx, releaseID)
	if err != nil {
		return err
	}
	return f.upsertReleaseDeep(rel)
}

// upsertReleaseDeep stores a release plus its recordings and tracks in
// foreign-key order.
func (f *Fetcher) upsertReleaseDeep(rel *models.Release) error {
	if err := f.releases.UpsertRelease(rel); err != nil {
		return err
	}
	for _, m := range rel.Media {
		for _, t := range m.Tracks {
			rec := &models.Recording{ID: t.RecordingID, Title: t.Title, LengthMS: t.LengthMS}
			if err := f.releases.UpsertRecording(rec); err != nil {
				return err
			}
			track := &models.Track{
				ID:           t.ID,
				ReleaseID:    rel.ID,
				RecordingID:  t.RecordingID,
				MediumNumber: m.Position,
				Position:     t.Position,
				Number:       t.Number,
				Title:        t.Title,
				LengthMS:     t.LengthMS,
				ArtistCredit: t.ArtistCredit,
			}
			if err := f.releases.UpsertTrack(track); err != nil {
				return err
			}
		}
	}
	return nil
}

// ensureReleaseGroupRow makes sure the parent group row exists before a
// release upsert, fetching just its metadata when it does not.
func (f *Fetcher) ensureReleaseGroupRow(ctx context.Context, canonical metadata.CanonicalScraper, releaseGroupID string) error {
	if releaseGroupID == "" {
		return metadata.Permanentf("release has no release group")
	}
	rg, err := f.albums.FindReleaseGroup(releaseGroupID)
	if err != nil {
		return err
	}
	if rg != nil {
		return nil
	}
	remote, err := canonical.GetReleaseGroup(ctx, releaseGroupID)
	if err != nil {
		return err
	}
	remote.TTLExpiresAt = ptrTime(f.now().Add(f.artistTTL()))
	if err := f.albums.UpsertReleaseGroup(remote, remote.CreditedArtistID(), true); err != nil {
		return err
	}
	return f.links.UpsertLinks(remote.Links)
}

// fetchMissingTrackArtists pulls records for artists credited on tracks but
// absent from the store. Credit-only artists get no catalog enumeration.
func (f *Fetcher) fetchMissingTrackArtists(ctx context.Context, canonical metadata.CanonicalScraper, releaseGroupID string) error {
	stored, err := f.releases.ListByReleaseGroup(releaseGroupID)
	if err != nil {
		return err
	}
	seen := make(map[string]bool)
	var ids []string
	for _, rel := range stored {
		for _, m := range rel.Media {
			for _, t := range m.Tracks {
				for _, c := range t.ArtistCredit {
					if c.ArtistID != "" && !seen[c.ArtistID] {
						seen[c.ArtistID] = true
						ids = append(ids, c.ArtistID)
					}
				}
			}
		}
	}
	if len(ids) == 0 {
		return nil
	}
	known, err := f.artists.FindArtistsByIDs(ids)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if _, ok := known[id]; ok {
			continue
		}
		if _, err := f.fetchArtistRecord(ctx, canonical, id); err != nil {
			if metadata.IsNotFound(err) {
				continue
			}
			return err
		}
	}
	return nil
}

// ──────────────────── Enrichment planning ────────────────────

type plannedJob struct {
	JobType  string
	Priority int
}

// planEnrichment decides which background jobs a read should leave behind.
// Text is only re-requested while the overview is missing; artwork URLs are
// re-verified whenever the record itself was (re)fetched.
func planEnrichment(entityType models.EntityType, overviewMissing, fetched, hasText, hasImages bool) []plannedJob {
	textJob, imageJob := models.JobFetchArtistText, models.JobFetchArtistImages
	if entityType == models.EntityAlbum {
		textJob, imageJob = models.JobFetchAlbumText, models.JobFetchAlbumImages
	}
	var jobs []plannedJob
	if overviewMissing && hasText {
		jobs = append(jobs, plannedJob{textJob, models.PriorityBackground})
	}
	if fetched && hasImages {
		jobs = append(jobs, plannedJob{imageJob, models.PriorityBackground})
	}
	return jobs
}

func (f *Fetcher) planAlbum(id string, overviewMissing, fetched bool) {
	f.enqueuePlan(models.EntityAlbum, id,
		planEnrichment(models.EntityAlbum, overviewMissing, fetched,
			f.registry.HasCapability(metadata.CapAlbumText),
			f.registry.HasCapability(metadata.CapAlbumImages)))
}

func (f *Fetcher) enqueuePlan(entityType models.EntityType, entityID string, jobs []plannedJob) {
	if f.queue == nil {
		return
	}
	for _, j := range jobs {
		if _, err := f.queue.Enqueue(j.JobType, entityType, entityID, j.Priority); err != nil {
			log.Printf("Fetcher: enqueue %s for %s: %v", j.JobType, entityID, err)
		}
	}
}

// ──────────────────── Small helpers ────────────────────

func (f *Fetcher) staleArtist(a *models.Artist) bool {
	return a.Stale(f.now(), f.artistTTL())
}

func (f *Fetcher) staleAlbum(rg *models.ReleaseGroup) bool {
	if rg.TTLExpiresAt == nil {
		return true
	}
	return rg.TTLExpiresAt.Before(f.now())
}

func (f *Fetcher) touchAlbum(id string) {
	if err := f.albums.TouchAccess(id); err != nil {
		log.Printf("Fetcher: touch album %s: %v", id, err)
	}
}

func (f *Fetcher) artistTTL() time.Duration {
	days := f.cfg.Refresh.ArtistTTLDays
	if days <= 0 {
		days = 30
	}
	return time.Duration(days) * 24 * time.Hour
}

func (f *Fetcher) albumTypes() []string {
	return f.cfg.Metadata.FetchTypes.AlbumTypes
}

func (f *Fetcher) releaseStatuses() []string {
	return f.cfg.Metadata.FetchTypes.ReleaseStatuses
}

func ptrTime(t time.Time) *time.Time {
	return &t
}

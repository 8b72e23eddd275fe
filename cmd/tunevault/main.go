package main

import (
	"context"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/JustinTDCT/TuneVault/internal/api"
	"github.com/JustinTDCT/TuneVault/internal/artwork"
	"github.com/JustinTDCT/TuneVault/internal/config"
	"github.com/JustinTDCT/TuneVault/internal/db"
	"github.com/JustinTDCT/TuneVault/internal/fetcher"
	"github.com/JustinTDCT/TuneVault/internal/format"
	"github.com/JustinTDCT/TuneVault/internal/jobs"
	"github.com/JustinTDCT/TuneVault/internal/logbuf"
	"github.com/JustinTDCT/TuneVault/internal/metadata"
	"github.com/JustinTDCT/TuneVault/internal/repository"
	"github.com/JustinTDCT/TuneVault/internal/scheduler"
	"github.com/JustinTDCT/TuneVault/internal/version"
)

func main() {
	logs := logbuf.New(500)
	log.SetOutput(io.MultiWriter(os.Stdout, logs))

	ver := version.Load()
	log.Printf("TuneVault %s starting...", ver.Version)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	database, err := db.Connect(cfg.Postgres.DSN())
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer database.Close()

	if err := db.Migrate(database); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	cfg.MergeFromDB(database.DB)
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	artistRepo := repository.NewArtistRepository(database.DB)
	albumRepo := repository.NewAlbumRepository(database.DB)
	releaseRepo := repository.NewReleaseRepository(database.DB)
	linkRepo := repository.NewLinkRepository(database.DB)
	imageRepo := repository.NewImageRepository(database.DB)
	jobRepo := repository.NewJobRepository(database.DB)
	bulkRepo := repository.NewBulkRefreshRepository(database.DB)

	ua := metadata.UserAgentFor(ver.Version)
	registry := buildRegistry(cfg, ua)

	queue := jobs.NewQueue(jobRepo)
	if err := queue.ResetStuck(); err != nil {
		log.Printf("reset stuck jobs: %v", err)
	}

	fetch := fetcher.New(cfg, registry, artistRepo, albumRepo, releaseRepo, linkRepo, bulkRepo, queue)
	jobs.RegisterHandlers(queue, fetch, registry, artistRepo, albumRepo, imageRepo)

	store := artwork.NewStore(cfg.DataDir)
	formatter := format.New(cfg, artistRepo, albumRepo, releaseRepo, linkRepo, imageRepo)

	srv := api.NewServer(cfg, database, fetch, formatter, queue, store, logs)
	queue.SetNotifier(srv.WSHub())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pools := jobs.NewPools(queue)
	for _, p := range pools {
		p.Start(ctx)
	}
	downloader := jobs.NewDownloader(queue, imageRepo, store, providerGates(cfg), ua)
	downloader.Start(ctx)

	sched := scheduler.New(cfg, fetch, queue, jobRepo, imageRepo, bulkRepo)
	sched.Start()

	httpServer := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Server.Port),
		Handler:      srv.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		log.Printf("listening on :%d", cfg.Server.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	httpServer.Shutdown(shutdownCtx)

	sched.Stop()
	downloader.Stop()
	for _, p := range pools {
		p.Stop()
	}
	// jobs cut off mid-run stay processing and are reset on the next boot
	log.Println("shutdown complete")
}

// buildRegistry wires the enabled providers. MusicBrainz is the canonical
// source; the rest contribute text and artwork.
func buildRegistry(cfg *config.Config, userAgent string) *metadata.Registry {
	registry := metadata.NewRegistry()

	if p := cfg.Provider("musicbrainz"); p.Enabled {
		// The official endpoint allows one request per second per client;
		// stay under it by default. A private mirror has no floor at all
		// unless one is configured.
		def := 2000 * time.Millisecond
		if p.BaseURL != "" && !strings.Contains(p.BaseURL, "musicbrainz.org") {
			def = 0
		}
		registry.Register(metadata.NewMusicBrainzScraper(p.BaseURL, rateInterval(p, def), userAgent))
		log.Printf("provider musicbrainz enabled (canonical)")
	} else {
		log.Printf("warning: no canonical provider enabled, serving cached data only")
	}
	if p := cfg.Provider("theaudiodb"); p.Enabled {
		registry.Register(metadata.NewAudioDBScraper(p.APIKey, p.BaseURL, rateInterval(p, time.Second)))
		log.Printf("provider theaudiodb enabled")
	}
	if p := cfg.Provider("fanarttv"); p.Enabled {
		if p.APIKey == "" {
			log.Printf("provider fanarttv enabled but has no API key, skipping")
		} else {
			registry.Register(metadata.NewFanartTVScraper(p.APIKey, p.BaseURL, rateInterval(p, 500*time.Millisecond)))
			log.Printf("provider fanarttv enabled")
		}
	}
	if p := cfg.Provider("coverartarchive"); p.Enabled {
		registry.Register(metadata.NewCAAScraper(p.BaseURL, rateInterval(p, time.Second)))
		log.Printf("provider coverartarchive enabled")
	}
	return registry
}

// providerGates gives the binary downloader one pacing gate per provider,
// keyed by scraper name and matching each provider's configured floor.
func providerGates(cfg *config.Config) map[string]*metadata.Gate {
	keys := map[string]string{
		"musicbrainz":     "musicbrainz",
		"theaudiodb":      "audiodb",
		"fanarttv":        "fanarttv",
		"coverartarchive": "coverartarchive",
	}
	gates := make(map[string]*metadata.Gate)
	for cfgName, scraperName := range keys {
		p := cfg.Provider(cfgName)
		gates[scraperName] = metadata.NewGate(rateInterval(p, time.Second))
	}
	return gates
}

func rateInterval(p config.ProviderConfig, def time.Duration) time.Duration {
	if p.RateLimitMS > 0 {
		return time.Duration(p.RateLimitMS) * time.Millisecond
	}
	return def
}

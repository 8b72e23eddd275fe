package config

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

type ServerConfig struct {
	Port      int    `yaml:"port"`
	ServerURL string `yaml:"serverUrl"`
}

type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	DB       string `yaml:"db"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslMode"`
}

func (p PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		p.Host, p.Port, p.DB, p.User, p.Password, p.SSLMode)
}

// CacheConfig controls the in-memory search-response cache; the persistent
// metadata cache lives in Postgres and is governed by RefreshConfig instead.
type CacheConfig struct {
	Enabled    bool `yaml:"enabled"`
	TTLSeconds int  `yaml:"ttl"`
	MaxSize    int  `yaml:"maxSize"`
}

type ProviderConfig struct {
	Enabled     bool   `yaml:"enabled"`
	APIKey      string `yaml:"apiKey"`
	BaseURL     string `yaml:"baseUrl"`
	RateLimitMS int    `yaml:"rateLimitMs"`
}

type FetchTypes struct {
	AlbumTypes      []string `yaml:"albumTypes"`
	ReleaseStatuses []string `yaml:"releaseStatuses"`
}

type MetadataConfig struct {
	FetchTypes FetchTypes `yaml:"fetchTypes"`
}

type RefreshConfig struct {
	ArtistTTLDays   int `yaml:"artistTTL"`
	BulkRefreshDays int `yaml:"bulkRefreshInterval"`
}

type AuthConfig struct {
	AdminPassword string `yaml:"adminPassword"`
	JWTSecret     string `yaml:"jwtSecret"`
}

type Config struct {
	Server    ServerConfig              `yaml:"server"`
	Postgres  PostgresConfig            `yaml:"postgres"`
	Cache     CacheConfig               `yaml:"cache"`
	Providers map[string]ProviderConfig `yaml:"providers"`
	Metadata  MetadataConfig            `yaml:"metadata"`
	Refresh   RefreshConfig             `yaml:"refresh"`
	Auth      AuthConfig                `yaml:"auth"`
	DataDir   string                    `yaml:"dataDir"`
}

// Load reads config.yaml (path overridable via CONFIG_PATH), applies
// environment overrides, and fills defaults. A missing file is not an
// error; the environment alone is a complete configuration.
func Load() (*Config, error) {
	cfg := &Config{Providers: map[string]ProviderConfig{}}

	path := env("CONFIG_PATH", "config.yaml")
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case os.IsNotExist(err):
		log.Printf("Config: %s not found, using environment and defaults", path)
	default:
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Server.Port = envInt("PORT", c.Server.Port)
	c.Server.ServerURL = env("SERVER_URL", c.Server.ServerURL)

	c.Postgres.Host = env("POSTGRES_HOST", c.Postgres.Host)
	c.Postgres.Port = envInt("POSTGRES_PORT", c.Postgres.Port)
	c.Postgres.DB = env("POSTGRES_DB", c.Postgres.DB)
	c.Postgres.User = env("POSTGRES_USER", c.Postgres.User)
	c.Postgres.Password = env("POSTGRES_PASSWORD", c.Postgres.Password)

	if v := os.Getenv("CACHE_ENABLED"); v != "" {
		c.Cache.Enabled = cast.ToBool(v)
	}
	c.Cache.TTLSeconds = envInt("CACHE_TTL", c.Cache.TTLSeconds)
	c.Cache.MaxSize = envInt("CACHE_MAX_SIZE", c.Cache.MaxSize)

	c.Refresh.ArtistTTLDays = envInt("ARTIST_TTL_DAYS", c.Refresh.ArtistTTLDays)
	c.Refresh.BulkRefreshDays = envInt("BULK_REFRESH_DAYS", c.Refresh.BulkRefreshDays)

	if v := os.Getenv("MUSICBRAINZ_URL"); v != "" {
		p := c.Providers["musicbrainz"]
		p.BaseURL = v
		p.Enabled = true
		c.Providers["musicbrainz"] = p
	}
	if v := os.Getenv("MUSICBRAINZ_RATE_LIMIT_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil {
			p := c.Providers["musicbrainz"]
			p.RateLimitMS = ms
			c.Providers["musicbrainz"] = p
		}
	}

	c.DataDir = env("DATA_DIR", c.DataDir)
	c.Auth.AdminPassword = env("ADMIN_PASSWORD", c.Auth.AdminPassword)
	c.Auth.JWTSecret = env("JWT_SECRET", c.Auth.JWTSecret)
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 5001
	}
	if c.Postgres.Host == "" {
		c.Postgres.Host = "localhost"
	}
	if c.Postgres.Port == 0 {
		c.Postgres.Port = 5432
	}
	if c.Postgres.DB == "" {
		c.Postgres.DB = "tunevault"
	}
	if c.Postgres.User == "" {
		c.Postgres.User = "tunevault"
	}
	if c.Postgres.SSLMode == "" {
		c.Postgres.SSLMode = "disable"
	}
	if c.Cache.TTLSeconds == 0 {
		c.Cache.TTLSeconds = 300
	}
	if c.Cache.MaxSize == 0 {
		c.Cache.MaxSize = 1000
	}
	if c.Refresh.ArtistTTLDays == 0 {
		c.Refresh.ArtistTTLDays = 30
	}
	if c.Refresh.BulkRefreshDays == 0 {
		c.Refresh.BulkRefreshDays = 7
	}
	if c.DataDir == "" {
		c.DataDir = "data"
	}
	if len(c.Metadata.FetchTypes.AlbumTypes) == 0 {
		c.Metadata.FetchTypes.AlbumTypes = []string{"Studio", "EP", "Single", "Live", "Compilation"}
	}
	if len(c.Metadata.FetchTypes.ReleaseStatuses) == 0 {
		c.Metadata.FetchTypes.ReleaseStatuses = []string{"Official"}
	}
	if _, ok := c.Providers["musicbrainz"]; !ok {
		c.Providers["musicbrainz"] = ProviderConfig{Enabled: true}
	}
	if c.Auth.JWTSecret == "" {
		c.Auth.JWTSecret = "change-me-in-production"
	}
}

// Provider returns the config block for a named provider; absent blocks
// come back zero-valued with Enabled=false.
func (c *Config) Provider(name string) ProviderConfig {
	return c.Providers[name]
}

func (c *Config) AuthEnabled() bool {
	return c.Auth.AdminPassword != ""
}

// MergeFromDB overlays runtime-editable settings persisted by the admin UI.
func (c *Config) MergeFromDB(db *sql.DB) {
	rows, err := db.Query("SELECT key, value FROM settings")
	if err != nil {
		log.Printf("Config: skipping DB merge: %v", err)
		return
	}
	defer rows.Close()

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			continue
		}
		switch key {
		case "server_url":
			c.Server.ServerURL = value
		case "album_types":
			c.Metadata.FetchTypes.AlbumTypes = splitCSV(value)
		case "release_statuses":
			c.Metadata.FetchTypes.ReleaseStatuses = splitCSV(value)
		case "artist_ttl_days":
			if v := cast.ToInt(value); v > 0 {
				c.Refresh.ArtistTTLDays = v
			}
		case "bulk_refresh_days":
			if v := cast.ToInt(value); v > 0 {
				c.Refresh.BulkRefreshDays = v
			}
		case "cache_enabled":
			c.Cache.Enabled = cast.ToBool(value)
		case "cache_ttl":
			if v := cast.ToInt(value); v > 0 {
				c.Cache.TTLSeconds = v
			}
		default:
			c.mergeSetting(key, value)
		}
	}
}

// mergeSetting folds a dotted admin-UI key into the config. Provider,
// server, and auth keys land here; anything unrecognized stays in the
// settings table untouched.
func (c *Config) mergeSetting(key, value string) {
	if parts := strings.Split(key, "."); len(parts) == 3 && parts[0] == "providers" {
		p := c.Providers[parts[1]]
		switch parts[2] {
		case "enabled":
			p.Enabled = cast.ToBool(value)
		case "apiKey":
			p.APIKey = value
		case "baseUrl":
			p.BaseURL = value
		case "rateLimitMs":
			p.RateLimitMS = cast.ToInt(value)
		default:
			return
		}
		if c.Providers == nil {
			c.Providers = map[string]ProviderConfig{}
		}
		c.Providers[parts[1]] = p
		return
	}
	switch key {
	case "auth.adminPassword":
		c.Auth.AdminPassword = value
	case "auth.jwtSecret":
		if value != "" {
			c.Auth.JWTSecret = value
		}
	case "server.serverUrl":
		c.Server.ServerURL = value
	case "server.port":
		if v := cast.ToInt(value); v >= 1 && v <= 65535 {
			c.Server.Port = v
		}
	}
}

func (c *Config) Validate() error {
	var problems []string
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		problems = append(problems, fmt.Sprintf("server.port %d out of range", c.Server.Port))
	}
	if c.Postgres.Host == "" {
		problems = append(problems, "postgres.host is required")
	}
	if c.Postgres.DB == "" {
		problems = append(problems, "postgres.db is required")
	}
	mb := c.Provider("musicbrainz")
	if !mb.Enabled {
		problems = append(problems, "providers.musicbrainz must be enabled (canonical provider)")
	}
	if c.Refresh.ArtistTTLDays < 1 {
		problems = append(problems, "refresh.artistTTL must be at least 1 day")
	}
	for name, p := range c.Providers {
		if p.RateLimitMS < 0 {
			problems = append(problems, fmt.Sprintf("providers.%s.rateLimitMs must not be negative", name))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration:\n  - %s", strings.Join(problems, "\n  - "))
	}
	return nil
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

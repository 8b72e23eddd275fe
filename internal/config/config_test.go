package config

import (
	"os"
	"path/filepath"
	"testing"
)

// loadClean runs Load with CONFIG_PATH aimed at a directory that has no
// config.yaml, so only environment and defaults apply.
func loadClean(t *testing.T) *Config {
	t.Helper()
	os.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "absent.yaml"))
	defer os.Unsetenv("CONFIG_PATH")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return cfg
}

func TestLoadDefaults(t *testing.T) {
	cfg := loadClean(t)

	if cfg.Server.Port != 5001 {
		t.Errorf("Port = %d, want 5001", cfg.Server.Port)
	}
	if cfg.Postgres.Host != "localhost" || cfg.Postgres.Port != 5432 {
		t.Errorf("postgres = %s:%d, want localhost:5432", cfg.Postgres.Host, cfg.Postgres.Port)
	}
	if cfg.Postgres.DB != "tunevault" || cfg.Postgres.User != "tunevault" {
		t.Errorf("postgres db/user = %s/%s", cfg.Postgres.DB, cfg.Postgres.User)
	}
	if !cfg.Provider("musicbrainz").Enabled {
		t.Error("musicbrainz should default to enabled")
	}
	if cfg.Provider("fanarttv").Enabled {
		t.Error("fanarttv should default to disabled")
	}
	want := []string{"Studio", "EP", "Single", "Live", "Compilation"}
	if len(cfg.Metadata.FetchTypes.AlbumTypes) != len(want) {
		t.Errorf("AlbumTypes = %v, want %v", cfg.Metadata.FetchTypes.AlbumTypes, want)
	}
	if len(cfg.Metadata.FetchTypes.ReleaseStatuses) != 1 || cfg.Metadata.FetchTypes.ReleaseStatuses[0] != "Official" {
		t.Errorf("ReleaseStatuses = %v, want [Official]", cfg.Metadata.FetchTypes.ReleaseStatuses)
	}
	if cfg.Refresh.ArtistTTLDays != 30 || cfg.Refresh.BulkRefreshDays != 7 {
		t.Errorf("refresh = %d/%d days, want 30/7", cfg.Refresh.ArtistTTLDays, cfg.Refresh.BulkRefreshDays)
	}
	if cfg.DataDir != "data" {
		t.Errorf("DataDir = %q, want data", cfg.DataDir)
	}
	if cfg.AuthEnabled() {
		t.Error("auth should be disabled without a password")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config failed validation: %v", err)
	}
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
server:
  port: 8080
  serverUrl: http://music.example.com
postgres:
  host: db.internal
  password: sekret
providers:
  musicbrainz:
    enabled: true
    baseUrl: http://mb-mirror:5000/ws/2
    rateLimitMs: 100
  fanarttv:
    enabled: true
    apiKey: fanart-key
metadata:
  fetchTypes:
    albumTypes: [Studio]
auth:
  adminPassword: hunter2
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	os.Setenv("CONFIG_PATH", path)
	defer os.Unsetenv("CONFIG_PATH")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Server.ServerURL != "http://music.example.com" {
		t.Errorf("ServerURL = %q", cfg.Server.ServerURL)
	}
	if cfg.Postgres.Host != "db.internal" || cfg.Postgres.Password != "sekret" {
		t.Errorf("postgres = %s/%s", cfg.Postgres.Host, cfg.Postgres.Password)
	}
	mb := cfg.Provider("musicbrainz")
	if mb.BaseURL != "http://mb-mirror:5000/ws/2" || mb.RateLimitMS != 100 {
		t.Errorf("musicbrainz = %+v", mb)
	}
	fa := cfg.Provider("fanarttv")
	if !fa.Enabled || fa.APIKey != "fanart-key" {
		t.Errorf("fanarttv = %+v", fa)
	}
	if len(cfg.Metadata.FetchTypes.AlbumTypes) != 1 || cfg.Metadata.FetchTypes.AlbumTypes[0] != "Studio" {
		t.Errorf("AlbumTypes = %v, want [Studio]", cfg.Metadata.FetchTypes.AlbumTypes)
	}
	if !cfg.AuthEnabled() {
		t.Error("auth should be enabled with a password set")
	}
	// Fields the file omits still get defaults.
	if cfg.Postgres.Port != 5432 {
		t.Errorf("postgres port = %d, want defaulted 5432", cfg.Postgres.Port)
	}
	if len(cfg.Metadata.FetchTypes.ReleaseStatuses) != 1 || cfg.Metadata.FetchTypes.ReleaseStatuses[0] != "Official" {
		t.Errorf("ReleaseStatuses = %v, want defaulted [Official]", cfg.Metadata.FetchTypes.ReleaseStatuses)
	}
}

func TestEnvOverridesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 8080\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	os.Setenv("CONFIG_PATH", path)
	os.Setenv("PORT", "9090")
	os.Setenv("MUSICBRAINZ_URL", "http://mirror:5000")
	os.Setenv("ADMIN_PASSWORD", "env-secret")
	defer func() {
		os.Unsetenv("CONFIG_PATH")
		os.Unsetenv("PORT")
		os.Unsetenv("MUSICBRAINZ_URL")
		os.Unsetenv("ADMIN_PASSWORD")
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Port = %d, want env override 9090", cfg.Server.Port)
	}
	mb := cfg.Provider("musicbrainz")
	if mb.BaseURL != "http://mirror:5000" || !mb.Enabled {
		t.Errorf("musicbrainz = %+v, want env URL and enabled", mb)
	}
	if cfg.Auth.AdminPassword != "env-secret" {
		t.Errorf("AdminPassword = %q", cfg.Auth.AdminPassword)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "defaults are valid",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "port out of range",
			mutate:  func(c *Config) { c.Server.Port = 70000 },
			wantErr: true,
		},
		{
			name:    "missing postgres host",
			mutate:  func(c *Config) { c.Postgres.Host = "" },
			wantErr: true,
		},
		{
			name: "canonical provider disabled",
			mutate: func(c *Config) {
				c.Providers["musicbrainz"] = ProviderConfig{Enabled: false}
			},
			wantErr: true,
		},
		{
			name:    "zero artist ttl",
			mutate:  func(c *Config) { c.Refresh.ArtistTTLDays = 0 },
			wantErr: true,
		},
		{
			name: "negative rate limit",
			mutate: func(c *Config) {
				c.Providers["theaudiodb"] = ProviderConfig{Enabled: true, RateLimitMS: -5}
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := loadClean(t)
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMergeSetting(t *testing.T) {
	base := func() *Config {
		return &Config{
			Providers: map[string]ProviderConfig{
				"fanarttv": {BaseURL: "https://webservice.fanart.tv/v3"},
			},
			Auth:   AuthConfig{JWTSecret: "original"},
			Server: ServerConfig{Port: 5001},
		}
	}

	t.Run("provider fields fold individually", func(t *testing.T) {
		cfg := base()
		cfg.mergeSetting("providers.fanarttv.enabled", "true")
		cfg.mergeSetting("providers.fanarttv.apiKey", "k123")
		cfg.mergeSetting("providers.fanarttv.rateLimitMs", "750")
		p := cfg.Providers["fanarttv"]
		if !p.Enabled || p.APIKey != "k123" || p.RateLimitMS != 750 {
			t.Errorf("provider not folded: %+v", p)
		}
		if p.BaseURL != "https://webservice.fanart.tv/v3" {
			t.Errorf("BaseURL clobbered: %q", p.BaseURL)
		}
	})

	t.Run("unknown provider gets an entry", func(t *testing.T) {
		cfg := base()
		cfg.mergeSetting("providers.theaudiodb.apiKey", "adb")
		if cfg.Providers["theaudiodb"].APIKey != "adb" {
			t.Errorf("entry not created: %+v", cfg.Providers["theaudiodb"])
		}
	})

	t.Run("nil provider map", func(t *testing.T) {
		cfg := &Config{}
		cfg.mergeSetting("providers.musicbrainz.baseUrl", "http://mb.local")
		if cfg.Providers["musicbrainz"].BaseURL != "http://mb.local" {
			t.Errorf("not folded: %+v", cfg.Providers)
		}
	})

	t.Run("auth and server keys", func(t *testing.T) {
		cfg := base()
		cfg.mergeSetting("auth.adminPassword", "$2a$10$somehash")
		cfg.mergeSetting("auth.jwtSecret", "")
		cfg.mergeSetting("server.serverUrl", "https://tunes.example.com")
		cfg.mergeSetting("server.port", "70000")
		if cfg.Auth.AdminPassword != "$2a$10$somehash" {
			t.Errorf("AdminPassword = %q", cfg.Auth.AdminPassword)
		}
		if cfg.Auth.JWTSecret != "original" {
			t.Errorf("empty jwtSecret should not clobber, got %q", cfg.Auth.JWTSecret)
		}
		if cfg.Server.ServerURL != "https://tunes.example.com" {
			t.Errorf("ServerURL = %q", cfg.Server.ServerURL)
		}
		if cfg.Server.Port != 5001 {
			t.Errorf("out-of-range port applied: %d", cfg.Server.Port)
		}
	})

	t.Run("unknown keys are ignored", func(t *testing.T) {
		cfg := base()
		cfg.mergeSetting("providers.fanarttv.bogus", "x")
		cfg.mergeSetting("totally.unknown", "x")
		if p := cfg.Providers["fanarttv"]; p.Enabled || p.APIKey != "" {
			t.Errorf("bogus key mutated provider: %+v", p)
		}
	})
}

func TestPostgresDSN(t *testing.T) {
	p := PostgresConfig{Host: "db", Port: 5433, DB: "tv", User: "u", Password: "p", SSLMode: "disable"}
	want := "host=db port=5433 dbname=tv user=u password=p sslmode=disable"
	if got := p.DSN(); got != want {
		t.Errorf("DSN = %q, want %q", got, want)
	}
}

func TestSplitCSV(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"Studio,EP,Single", []string{"Studio", "EP", "Single"}},
		{" Studio , EP ", []string{"Studio", "EP"}},
		{"Studio,,EP", []string{"Studio", "EP"}},
		{"", nil},
	}
	for _, tt := range tests {
		got := splitCSV(tt.input)
		if len(got) != len(tt.want) {
			t.Errorf("splitCSV(%q) = %v, want %v", tt.input, got, tt.want)
			continue
		}
		for i := range tt.want {
			if got[i] != tt.want[i] {
				t.Errorf("splitCSV(%q)[%d] = %q, want %q", tt.input, i, got[i], tt.want[i])
			}
		}
	}
}

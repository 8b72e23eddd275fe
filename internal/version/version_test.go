package version

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	t.Run("env override wins", func(t *testing.T) {
		t.Setenv("TUNEVAULT_VERSION", "1.2.3")
		if got := Load().Version; got != "1.2.3" {
			t.Fatalf("Version = %q, want %q", got, "1.2.3")
		}
	})

	t.Run("missing file falls back to dev", func(t *testing.T) {
		t.Setenv("TUNEVAULT_VERSION", "")
		t.Chdir(t.TempDir())
		if got := Load().Version; got != "dev" {
			t.Fatalf("Version = %q, want %q", got, "dev")
		}
	})

	t.Run("reads version.json", func(t *testing.T) {
		t.Setenv("TUNEVAULT_VERSION", "")
		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, "version.json"), []byte(`{"version":"2.0.1"}`), 0o644); err != nil {
			t.Fatal(err)
		}
		t.Chdir(dir)
		if got := Load().Version; got != "2.0.1" {
			t.Fatalf("Version = %q, want %q", got, "2.0.1")
		}
	})

	t.Run("empty version falls back to dev", func(t *testing.T) {
		t.Setenv("TUNEVAULT_VERSION", "")
		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, "version.json"), []byte(`{}`), 0o644); err != nil {
			t.Fatal(err)
		}
		t.Chdir(dir)
		if got := Load().Version; got != "dev" {
			t.Fatalf("Version = %q, want %q", got, "dev")
		}
	})
}

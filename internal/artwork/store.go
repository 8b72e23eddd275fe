package artwork

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/JustinTDCT/TuneVault/internal/models"
)

// Store owns the on-disk image tree:
// <root>/images/<entity_type>/<entity_id>/<cover_type>.<ext>
// The binary downloader is the only writer; the serving endpoint only reads.
type Store struct {
	root string
}

func NewStore(root string) *Store {
	if root == "" {
		root = "data"
	}
	return &Store{root: root}
}

// Save writes one image and returns the stored path. An existing file for
// the same slot is replaced, extension changes included.
func (s *Store) Save(entityType models.EntityType, entityID string, coverType models.CoverType,
	ext string, data []byte) (string, error) {

	dir := filepath.Join(s.root, "images", string(entityType), entityID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create image dir: %w", err)
	}
	if err := s.removeVariants(dir, string(coverType)); err != nil {
		return "", err
	}
	path := filepath.Join(dir, string(coverType)+"."+ext)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write image: %w", err)
	}
	return path, nil
}

// Remove deletes a stored image file. Paths outside the image tree are
// refused.
func (s *Store) Remove(path string) error {
	root, err := filepath.Abs(filepath.Join(s.root, "images"))
	if err != nil {
		return err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if !strings.HasPrefix(abs, root+string(filepath.Separator)) {
		return fmt.Errorf("path %q is outside the image tree", path)
	}
	if err := os.Remove(abs); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// FilePath returns where an image for the given slot would live.
func (s *Store) FilePath(entityType models.EntityType, entityID, file string) string {
	return filepath.Join(s.root, "images", string(entityType), entityID, file)
}

// removeVariants clears older files for the same cover type so a PNG
// replacing a JPG does not leave both behind.
func (s *Store) removeVariants(dir, coverType string) error {
	for _, ext := range []string{"jpg", "png", "webp", "gif"} {
		p := filepath.Join(dir, coverType+"."+ext)
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

// DetectExt picks the file extension from magic bytes, falling back to the
// reported content type. Empty means the payload is not a supported image.
func DetectExt(contentType string, data []byte) string {
	switch {
	case len(data) >= 3 && data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF:
		return "jpg"
	case len(data) >= 8 && bytes.Equal(data[:8], []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}):
		return "png"
	case bytes.HasPrefix(data, []byte("GIF87a")) || bytes.HasPrefix(data, []byte("GIF89a")):
		return "gif"
	case len(data) >= 12 && bytes.HasPrefix(data, []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP")):
		return "webp"
	}
	switch strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0])) {
	case "image/jpeg", "image/jpg":
		return "jpg"
	case "image/png":
		return "png"
	case "image/gif":
		return "gif"
	case "image/webp":
		return "webp"
	}
	return ""
}

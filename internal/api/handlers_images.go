package api

import (
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/JustinTDCT/TuneVault/internal/artwork"
	"github.com/JustinTDCT/TuneVault/internal/httputil"
	"github.com/JustinTDCT/TuneVault/internal/models"
)

const maxUploadBytes = 16 << 20

// ──────────────────── Artwork endpoints ────────────────────

func (s *Server) handleServeImage(w http.ResponseWriter, r *http.Request) {
	entityType, ok := parseEntityType(r.PathValue("entity_type"))
	if !ok {
		httputil.WriteError(w, http.StatusBadRequest, "unknown entity type")
		return
	}
	entityID := r.PathValue("entity_id")
	file := r.PathValue("file")
	if entityID == "" || file == "" ||
		entityID != filepath.Base(entityID) || file != filepath.Base(file) {
		httputil.WriteError(w, http.StatusBadRequest, "invalid image path")
		return
	}
	path := s.store.FilePath(entityType, entityID, file)
	if _, err := os.Stat(path); err != nil {
		httputil.WriteError(w, http.StatusNotFound, "image not found")
		return
	}
	w.Header().Set("Cache-Control", "public, max-age=86400")
	http.ServeFile(w, r, path)
}

// handleUploadImage stores a user-provided image for an entity slot. The
// row is flagged user_uploaded so provider discovery never replaces it.
func (s *Server) handleUploadImage(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	entityType, ok := parseEntityType(r.FormValue("entity_type"))
	if !ok {
		httputil.WriteError(w, http.StatusBadRequest, "unknown entity type")
		return
	}
	entityID := r.FormValue("entity_id")
	if entityID == "" || entityID != filepath.Base(entityID) {
		httputil.WriteError(w, http.StatusBadRequest, "entity_id is required")
		return
	}
	coverType, ok := parseCoverType(r.FormValue("cover_type"))
	if !ok {
		httputil.WriteError(w, http.StatusBadRequest, "unknown cover type")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if len(data) == 0 {
		httputil.WriteError(w, http.StatusBadRequest, "empty file")
		return
	}
	if len(data) > maxUploadBytes {
		httputil.WriteError(w, http.StatusBadRequest, "file too large")
		return
	}

	ext := artwork.DetectExt(header.Header.Get("Content-Type"), data)
	if ext == "" {
		httputil.WriteError(w, http.StatusBadRequest, "unsupported image type")
		return
	}

	path, err := s.store.Save(entityType, entityID, coverType, ext, data)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	img := &models.Image{
		ID:           uuid.New(),
		EntityType:   entityType,
		EntityID:     entityID,
		CoverType:    coverType,
		Provider:     "user",
		LocalPath:    &path,
		UserUploaded: true,
	}
	if err := s.imageRepo.InsertUserUpload(img); err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	log.Printf("API: uploaded %s image for %s %s", coverType, entityType, entityID)
	httputil.WriteJSON(w, http.StatusCreated, map[string]string{"id": img.ID.String(), "path": path})
}

func (s *Server) handleDeleteImage(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid image id")
		return
	}
	img, err := s.imageRepo.FindByID(id)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if img == nil {
		httputil.WriteError(w, http.StatusNotFound, "image not found")
		return
	}
	if img.LocalPath != nil {
		if err := s.store.Remove(*img.LocalPath); err != nil {
			log.Printf("API: remove image file: %v", err)
		}
	}
	if err := s.imageRepo.Delete(id); err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func parseEntityType(raw string) (models.EntityType, bool) {
	switch raw {
	case "artist":
		return models.EntityArtist, true
	case "album":
		return models.EntityAlbum, true
	}
	return "", false
}

func parseCoverType(raw string) (models.CoverType, bool) {
	if raw == "" {
		return models.CoverPoster, true
	}
	for _, ct := range []models.CoverType{
		models.CoverPoster, models.CoverBanner, models.CoverFanart, models.CoverLogo,
		models.CoverClearart, models.CoverThumb, models.CoverCover, models.CoverDisc,
	} {
		if string(ct) == raw {
			return ct, true
		}
	}
	return "", false
}

package repository

import (
	"database/sql"

	"github.com/lib/pq"

	"github.com/JustinTDCT/TuneVault/internal/models"
)

type LinkRepository struct {
	db *sql.DB
}

func NewLinkRepository(db *sql.DB) *LinkRepository {
	return &LinkRepository{db: db}
}

func (r *LinkRepository) UpsertLink(l *models.Link) error {
	_, err := r.db.Exec(`
		INSERT INTO links (entity_type, entity_id, link_type, url)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (entity_id, link_type, url) DO NOTHING`,
		l.EntityType, l.EntityID, l.LinkType, l.URL)
	return err
}

// UpsertLinks writes a batch of external links for one entity.
func (r *LinkRepository) UpsertLinks(links []models.Link) error {
	for i := range links {
		if err := r.UpsertLink(&links[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *LinkRepository) ListByEntity(entityType models.EntityType, entityID string) ([]models.Link, error) {
	query := `
		SELECT id, entity_type, entity_id, link_type, url
		FROM links
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY link_type ASC, url ASC`
	rows, err := r.db.Query(query, entityType, entityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var links []models.Link
	for rows.Next() {
		var l models.Link
		if err := rows.Scan(&l.ID, &l.EntityType, &l.EntityID, &l.LinkType, &l.URL); err != nil {
			return nil, err
		}
		links = append(links, l)
	}
	return links, rows.Err()
}

// ListByEntityIDs fetches links for many entities in one round trip, keyed by
// entity id, for batched response assembly.
func (r *LinkRepository) ListByEntityIDs(entityType models.EntityType, entityIDs []string) (map[string][]models.Link, error) {
	out := make(map[string][]models.Link, len(entityIDs))
	if len(entityIDs) == 0 {
		return out, nil
	}
	query := `
		SELECT id, entity_type, entity_id, link_type, url
		FROM links
		WHERE entity_type = $1 AND entity_id = ANY($2)
		ORDER BY entity_id ASC, link_type ASC, url ASC`
	rows, err := r.db.Query(query, entityType, pq.Array(entityIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var l models.Link
		if err := rows.Scan(&l.ID, &l.EntityType, &l.EntityID, &l.LinkType, &l.URL); err != nil {
			return nil, err
		}
		out[l.EntityID] = append(out[l.EntityID], l)
	}
	return out, rows.Err()
}

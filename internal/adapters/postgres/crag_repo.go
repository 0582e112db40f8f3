package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/cragtopo/internal/core/domain"
)

// CragRepo implements ports.CragRepository with pgx.
type CragRepo struct {
	db *DB
}

// NewCragRepo creates a new CragRepo.
func NewCragRepo(db *DB) *CragRepo {
	return &CragRepo{db: db}
}

const cragSelect = `
	SELECT id, slug, city_id, name, COALESCE(description, '{}'), lat, lon,
	       approach_minutes, photo, created_at, updated_at
	FROM crags`

const cragUpsert = `
	INSERT INTO crags (slug, city_id, name, description, lat, lon, approach_minutes, photo)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (slug) DO UPDATE
	SET city_id = EXCLUDED.city_id, name = EXCLUDED.name, description = EXCLUDED.description,
	    lat = EXCLUDED.lat, lon = EXCLUDED.lon, approach_minutes = EXCLUDED.approach_minutes,
	    photo = EXCLUDED.photo, updated_at = now()
	RETURNING id, created_at, updated_at`

func scanCrag(s scanner) (domain.Crag, error) {
	var c domain.Crag
	err := s.Scan(
		&c.ID, &c.Slug, &c.CityID, &c.Name, &c.Description,
		&c.Location.Lat, &c.Location.Lon,
		&c.ApproachMinutes, &c.Photo, &c.CreatedAt, &c.UpdatedAt,
	)
	return c, err
}

func cragArgs(c *domain.Crag) []any {
	return []any{c.Slug, c.CityID, c.Name, c.Description, c.Location.Lat, c.Location.Lon, c.ApproachMinutes, c.Photo}
}

// Upsert inserts or updates a crag by slug and sets its ID.
func (r *CragRepo) Upsert(ctx context.Context, c *domain.Crag) error {
	return r.db.Pool.QueryRow(ctx, cragUpsert, cragArgs(c)...).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
}

// UpsertBatch inserts many crags using pgx.Batch.
func (r *CragRepo) UpsertBatch(ctx context.Context, crags []domain.Crag) error {
	batch := &pgx.Batch{}
	for i := range crags {
		batch.Queue(cragUpsert, cragArgs(&crags[i])...)
	}
	br := r.db.Pool.SendBatch(ctx, batch)
	defer br.Close()
	for i := range crags {
		if err := br.QueryRow().Scan(&crags[i].ID, &crags[i].CreatedAt, &crags[i].UpdatedAt); err != nil {
			return fmt.Errorf("batch crag %s: %w", crags[i].Slug, err)
		}
	}
	return nil
}

// GetBySlug returns a crag by slug.
func (r *CragRepo) GetBySlug(ctx context.Context, slug string) (*domain.Crag, error) {
	c, err := scanCrag(r.db.Pool.QueryRow(ctx, cragSelect+` WHERE slug = $1`, slug))
	if err != nil {
		return nil, notFound(err, "crag "+slug)
	}
	return &c, nil
}

// GetByID returns a crag by UUID.
func (r *CragRepo) GetByID(ctx context.Context, id string) (*domain.Crag, error) {
	c, err := scanCrag(r.db.Pool.QueryRow(ctx, cragSelect+` WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, "crag "+id)
	}
	return &c, nil
}

// ListByCity returns the crags of a city ordered by slug.
func (r *CragRepo) ListByCity(ctx context.Context, cityID string) ([]domain.Crag, error) {
	rows, err := r.db.Pool.Query(ctx, cragSelect+` WHERE city_id = $1 ORDER BY slug`, cityID)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanCrag)
}

// ListInBounds returns crags inside a lat/lon box. Exact distance filtering is left to the caller.
func (r *CragRepo) ListInBounds(ctx context.Context, b domain.Bounds, limit int) ([]domain.Crag, error) {
	rows, err := r.db.Pool.Query(ctx, cragSelect+`
		WHERE lat BETWEEN $1 AND $2 AND lon BETWEEN $3 AND $4
		LIMIT $5
	`, b.MinLat, b.MaxLat, b.MinLon, b.MaxLon, limit)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanCrag)
}

// Search matches the query against the crag name in every language.
func (r *CragRepo) Search(ctx context.Context, query string, limit int) ([]domain.Crag, error) {
	rows, err := r.db.Pool.Query(ctx, cragSelect+`
		WHERE slug ILIKE '%' || $1 || '%'
		   OR EXISTS (SELECT 1 FROM jsonb_each_text(name) n WHERE n.value ILIKE '%' || $1 || '%')
		ORDER BY slug
		LIMIT $2
	`, query, limit)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanCrag)
}

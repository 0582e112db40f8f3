package postgres

import (
	"context"

	"github.com/samirrijal/cragtopo/internal/core/domain"
)

// CityRepo implements ports.CityRepository with pgx.
type CityRepo struct {
	db *DB
}

// NewCityRepo creates a new CityRepo.
func NewCityRepo(db *DB) *CityRepo {
	return &CityRepo{db: db}
}

const citySelect = `
	SELECT id, slug, name, country, lat, lon, created_at
	FROM cities`

func scanCity(s scanner) (domain.City, error) {
	var c domain.City
	err := s.Scan(&c.ID, &c.Slug, &c.Name, &c.Country, &c.Location.Lat, &c.Location.Lon, &c.CreatedAt)
	return c, err
}

// Upsert inserts or updates a city by slug and sets its ID.
func (r *CityRepo) Upsert(ctx context.Context, c *domain.City) error {
	return r.db.Pool.QueryRow(ctx, `
		INSERT INTO cities (slug, name, country, lat, lon)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (slug) DO UPDATE
		SET name = EXCLUDED.name, country = EXCLUDED.country,
		    lat = EXCLUDED.lat, lon = EXCLUDED.lon
		RETURNING id, created_at
	`, c.Slug, c.Name, c.Country, c.Location.Lat, c.Location.Lon).Scan(&c.ID, &c.CreatedAt)
}

// GetBySlug returns a city by slug.
func (r *CityRepo) GetBySlug(ctx context.Context, slug string) (*domain.City, error) {
	c, err := scanCity(r.db.Pool.QueryRow(ctx, citySelect+` WHERE slug = $1`, slug))
	if err != nil {
		return nil, notFound(err, "city "+slug)
	}
	return &c, nil
}

// List returns all cities ordered by slug.
func (r *CityRepo) List(ctx context.Context) ([]domain.City, error) {
	rows, err := r.db.Pool.Query(ctx, citySelect+` ORDER BY slug`)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanCity)
}

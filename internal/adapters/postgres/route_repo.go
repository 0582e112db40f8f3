package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/cragtopo/internal/core/domain"
)

// RouteRepo implements ports.RouteRepository with pgx.
type RouteRepo struct {
	db *DB
}

// NewRouteRepo creates a new RouteRepo.
func NewRouteRepo(db *DB) *RouteRepo {
	return &RouteRepo{db: db}
}

const routeColumns = `id, crag_id, slug, name, grade, COALESCE(description, '{}'), photo, topo_line, created_at, updated_at`

const routeUpsert = `
	INSERT INTO routes (crag_id, slug, name, grade, description, photo, topo_line)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (crag_id, slug) DO UPDATE
	SET name = EXCLUDED.name, grade = EXCLUDED.grade, description = EXCLUDED.description,
	    photo = EXCLUDED.photo, topo_line = EXCLUDED.topo_line, updated_at = now()
	RETURNING id, created_at, updated_at`

func scanRoute(s scanner) (domain.Route, error) {
	var r domain.Route
	err := s.Scan(
		&r.ID, &r.CragID, &r.Slug, &r.Name, &r.Grade, &r.Description,
		&r.Photo, &r.TopoLine, &r.CreatedAt, &r.UpdatedAt,
	)
	return r, err
}

func routeArgs(r *domain.Route) []any {
	line := r.TopoLine
	if line == nil {
		line = domain.TopoLine{}
	}
	return []any{r.CragID, r.Slug, r.Name, r.Grade, r.Description, r.Photo, line}
}

// Create inserts a new route and sets its ID.
func (r *RouteRepo) Create(ctx context.Context, route *domain.Route) error {
	err := r.db.Pool.QueryRow(ctx, `
		INSERT INTO routes (crag_id, slug, name, grade, description, photo, topo_line)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`, routeArgs(route)...).Scan(&route.ID, &route.CreatedAt, &route.UpdatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("route %s: %w", route.Slug, domain.ErrConflict)
	}
	return err
}

// UpsertBatch inserts or updates many routes in one round trip.
func (r *RouteRepo) UpsertBatch(ctx context.Context, routes []domain.Route) error {
	batch := &pgx.Batch{}
	for i := range routes {
		batch.Queue(routeUpsert, routeArgs(&routes[i])...)
	}
	br := r.db.Pool.SendBatch(ctx, batch)
	defer br.Close()
	for i := range routes {
		if err := br.QueryRow().Scan(&routes[i].ID, &routes[i].CreatedAt, &routes[i].UpdatedAt); err != nil {
			return fmt.Errorf("batch route %s: %w", routes[i].Slug, err)
		}
	}
	return nil
}

// GetByID returns a route by UUID.
func (r *RouteRepo) GetByID(ctx context.Context, id string) (*domain.Route, error) {
	route, err := scanRoute(r.db.Pool.QueryRow(ctx, `SELECT `+routeColumns+` FROM routes WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, "route "+id)
	}
	return &route, nil
}

// ListByCrag returns the routes of a crag ordered by name.
func (r *RouteRepo) ListByCrag(ctx context.Context, cragID string) ([]domain.Route, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT `+routeColumns+` FROM routes WHERE crag_id = $1 ORDER BY name, id`, cragID)
	if err != nil {
		return nil, err
	}
	return collect(rows, scanRoute)
}

// UpdateTopoLine replaces the whole topo line and returns the updated route.
func (r *RouteRepo) UpdateTopoLine(ctx context.Context, id string, line domain.TopoLine) (*domain.Route, error) {
	if line == nil {
		line = domain.TopoLine{}
	}
	route, err := scanRoute(r.db.Pool.QueryRow(ctx, `
		UPDATE routes SET topo_line = $2, updated_at = now()
		WHERE id = $1
		RETURNING `+routeColumns, id, line))
	if err != nil {
		return nil, notFound(err, "route "+id)
	}
	return &route, nil
}

// Delete removes a route.
func (r *RouteRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM routes WHERE id = $1`, id)
	if err != nil {
		return notFound(err, "route "+id)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("route %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

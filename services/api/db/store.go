package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/3rww/rainfall-api/services/api/reference"
)

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Store reads reference data from Postgres. It never writes.
type Store struct {
	pool *pgxpool.Pool
	q    querier
}

// New creates a Store backed by a pgx pool.
func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{pool: pool, q: pool}, nil
}

// Close releases the pool resources.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

const listPixelsSQL = `
    SELECT id
    FROM rainfall.pixels
    ORDER BY position, id
`

// ListPixels returns the pixel master list in position order, the order of
// the grid centroid file it is loaded from.
func (s *Store) ListPixels(ctx context.Context) ([]string, error) {
	rows, err := s.q.Query(ctx, listPixelsSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	pixels := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		pixels = append(pixels, id)
	}
	return pixels, rows.Err()
}

const listBasinPixelsSQL = `
    SELECT basin, pixel_id
    FROM rainfall.basin_pixels
    ORDER BY basin, position
`

// ListBasins returns basin name → pixel ids, each list in position order.
func (s *Store) ListBasins(ctx context.Context) (map[string][]string, error) {
	rows, err := s.q.Query(ctx, listBasinPixelsSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	basins := make(map[string][]string)
	for rows.Next() {
		var basin, pixel string
		if err := rows.Scan(&basin, &pixel); err != nil {
			return nil, err
		}
		basins[basin] = append(basins[basin], pixel)
	}
	return basins, rows.Err()
}

// LoadLookup builds a reference.Lookup from the database tables and the
// given grid documents.
func (s *Store) LoadLookup(ctx context.Context, grids map[reference.Geom][]byte) (*reference.Lookup, error) {
	pixels, err := s.ListPixels(ctx)
	if err != nil {
		return nil, fmt.Errorf("list pixels: %w", err)
	}
	basins, err := s.ListBasins(ctx)
	if err != nil {
		return nil, fmt.Errorf("list basins: %w", err)
	}
	return reference.New(basins, pixels, grids), nil
}

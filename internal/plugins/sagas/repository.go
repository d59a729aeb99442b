package sagas

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/keyxmakerx/loreline/internal/apperror"
	"github.com/keyxmakerx/loreline/internal/chronology"
)

// SagaRepository defines the data access contract for saga operations.
// All SQL lives in the concrete implementation -- no SQL leaks out.
type SagaRepository interface {
	Create(ctx context.Context, saga *Saga) error
	FindByID(ctx context.Context, id string) (*Saga, error)
	FindBySlug(ctx context.Context, slug string) (*Saga, error)
	List(ctx context.Context, opts ListOptions) ([]Saga, int, error)
	Update(ctx context.Context, saga *Saga) error
	Delete(ctx context.Context, id string) error
	SlugExists(ctx context.Context, slug string) (bool, error)
	CountAll(ctx context.Context) (int, error)
}

// sagaRepository implements SagaRepository with MariaDB queries.
type sagaRepository struct {
	db *sql.DB
}

// NewSagaRepository creates a new repository backed by the given DB pool.
func NewSagaRepository(db *sql.DB) SagaRepository {
	return &sagaRepository{db: db}
}

// Create inserts a new saga row.
func (r *sagaRepository) Create(ctx context.Context, saga *Saga) error {
	query := `INSERT INTO sagas (id, name, slug, description, calendar_kind, calendar_config, created_at, updated_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		saga.ID, saga.Name, saga.Slug, saga.Description,
		string(saga.CalendarKind), saga.CalendarConfig,
		saga.CreatedAt, saga.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting saga: %w", err)
	}
	return nil
}

// FindByID retrieves a saga by its UUID.
func (r *sagaRepository) FindByID(ctx context.Context, id string) (*Saga, error) {
	query := `SELECT id, name, slug, description, calendar_kind, calendar_config, created_at, updated_at
	          FROM sagas WHERE id = ?`

	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

// FindBySlug retrieves a saga by its URL slug.
func (r *sagaRepository) FindBySlug(ctx context.Context, slug string) (*Saga, error) {
	query := `SELECT id, name, slug, description, calendar_kind, calendar_config, created_at, updated_at
	          FROM sagas WHERE slug = ?`

	return r.scanOne(r.db.QueryRowContext(ctx, query, slug))
}

// scanOne scans a single saga row, mapping no-rows to a 404.
func (r *sagaRepository) scanOne(row *sql.Row) (*Saga, error) {
	s := &Saga{}
	var kind string
	err := row.Scan(
		&s.ID, &s.Name, &s.Slug, &s.Description,
		&kind, &s.CalendarConfig,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("saga not found")
	}
	if err != nil {
		return nil, fmt.Errorf("querying saga: %w", err)
	}
	s.CalendarKind = chronology.Kind(kind)
	return s, nil
}

// List returns sagas ordered by most recently updated, with the total count
// for pagination.
func (r *sagaRepository) List(ctx context.Context, opts ListOptions) ([]Saga, int, error) {
	countQuery := `SELECT COUNT(*) FROM sagas`
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting sagas: %w", err)
	}

	query := `SELECT id, name, slug, description, calendar_kind, calendar_config, created_at, updated_at
	          FROM sagas ORDER BY updated_at DESC LIMIT ? OFFSET ?`

	rows, err := r.db.QueryContext(ctx, query, opts.PerPage, opts.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("listing sagas: %w", err)
	}
	defer rows.Close()

	var sagas []Saga
	for rows.Next() {
		var s Saga
		var kind string
		if err := rows.Scan(
			&s.ID, &s.Name, &s.Slug, &s.Description,
			&kind, &s.CalendarConfig,
			&s.CreatedAt, &s.UpdatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("scanning saga row: %w", err)
		}
		s.CalendarKind = chronology.Kind(kind)
		sagas = append(sagas, s)
	}
	return sagas, total, rows.Err()
}

// Update modifies an existing saga's name, description, and calendar config.
func (r *sagaRepository) Update(ctx context.Context, saga *Saga) error {
	query := `UPDATE sagas SET name = ?, slug = ?, description = ?,
	          calendar_kind = ?, calendar_config = ?, updated_at = NOW()
	          WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query,
		saga.Name, saga.Slug, saga.Description,
		string(saga.CalendarKind), saga.CalendarConfig, saga.ID,
	)
	if err != nil {
		return fmt.Errorf("updating saga: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return apperror.NewNotFound("saga not found")
	}
	return nil
}

// Delete removes a saga. FK CASCADE handles timeline event cleanup.
func (r *sagaRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM sagas WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting saga: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return apperror.NewNotFound("saga not found")
	}
	return nil
}

// SlugExists returns true if a saga with the given slug already exists.
func (r *sagaRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM sagas WHERE slug = ?)`, slug,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking slug existence: %w", err)
	}
	return exists, nil
}

// CountAll returns the total number of sagas. Used for the health endpoint.
func (r *sagaRepository) CountAll(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sagas`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting sagas: %w", err)
	}
	return count, nil
}

package apikeys

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/keyxmakerx/loreline/internal/apperror"
)

// APIKeyRepository handles API key persistence.
type APIKeyRepository interface {
	Create(ctx context.Context, key *APIKey) error
	FindByID(ctx context.Context, id int) (*APIKey, error)
	FindByPrefix(ctx context.Context, prefix string) (*APIKey, error)
	List(ctx context.Context) ([]APIKey, error)
	UpdateActive(ctx context.Context, id int, active bool) error
	UpdateLastUsed(ctx context.Context, id int, ip string) error
	Delete(ctx context.Context, id int) error
	Count(ctx context.Context) (int, error)
}

// apiKeyRepository implements APIKeyRepository using MariaDB.
type apiKeyRepository struct {
	db *sql.DB
}

// NewAPIKeyRepository creates a new API key repository.
func NewAPIKeyRepository(db *sql.DB) APIKeyRepository {
	return &apiKeyRepository{db: db}
}

const apiKeyColumns = `id, name, key_prefix, key_hash, permission, rate_limit,
	is_active, last_used_at, last_used_ip, expires_at, created_at, updated_at`

// Create inserts a new API key and sets its generated ID.
func (r *apiKeyRepository) Create(ctx context.Context, key *APIKey) error {
	query := `INSERT INTO api_keys (name, key_prefix, key_hash, permission,
	          rate_limit, is_active, expires_at, created_at, updated_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?, NOW(), NOW())`

	result, err := r.db.ExecContext(ctx, query,
		key.Name, key.KeyPrefix, key.KeyHash, string(key.Permission),
		key.RateLimit, key.IsActive, key.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("inserting api key: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading api key id: %w", err)
	}
	key.ID = int(id)
	return nil
}

// FindByID retrieves an API key by ID.
func (r *apiKeyRepository) FindByID(ctx context.Context, id int) (*APIKey, error) {
	query := `SELECT ` + apiKeyColumns + ` FROM api_keys WHERE id = ?`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

// FindByPrefix retrieves an API key by its display prefix. The prefix column
// is unique, so at most one row matches.
func (r *apiKeyRepository) FindByPrefix(ctx context.Context, prefix string) (*APIKey, error) {
	query := `SELECT ` + apiKeyColumns + ` FROM api_keys WHERE key_prefix = ?`
	return r.scanOne(r.db.QueryRowContext(ctx, query, prefix))
}

// List returns all API keys, newest first.
func (r *apiKeyRepository) List(ctx context.Context) ([]APIKey, error) {
	query := `SELECT ` + apiKeyColumns + ` FROM api_keys ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing api keys: %w", err)
	}
	defer rows.Close()

	var keys []APIKey
	for rows.Next() {
		var k APIKey
		var perm string
		if err := rows.Scan(&k.ID, &k.Name, &k.KeyPrefix, &k.KeyHash, &perm,
			&k.RateLimit, &k.IsActive, &k.LastUsedAt, &k.LastUsedIP,
			&k.ExpiresAt, &k.CreatedAt, &k.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning api key: %w", err)
		}
		k.Permission = Permission(perm)
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// UpdateActive sets a key's active flag.
func (r *apiKeyRepository) UpdateActive(ctx context.Context, id int, active bool) error {
	query := `UPDATE api_keys SET is_active = ?, updated_at = NOW() WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, active, id)
	if err != nil {
		return fmt.Errorf("updating api key: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return apperror.NewNotFound("api key not found")
	}
	return nil
}

// UpdateLastUsed records when and from where a key was last used.
func (r *apiKeyRepository) UpdateLastUsed(ctx context.Context, id int, ip string) error {
	query := `UPDATE api_keys SET last_used_at = ?, last_used_ip = ? WHERE id = ?`

	if _, err := r.db.ExecContext(ctx, query, time.Now().UTC(), ip, id); err != nil {
		return fmt.Errorf("updating api key last used: %w", err)
	}
	return nil
}

// Delete removes an API key.
func (r *apiKeyRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM api_keys WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting api key: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return apperror.NewNotFound("api key not found")
	}
	return nil
}

// Count returns the number of registered API keys.
func (r *apiKeyRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM api_keys`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting api keys: %w", err)
	}
	return count, nil
}

// scanOne scans a single API key row, mapping sql.ErrNoRows to a not-found error.
func (r *apiKeyRepository) scanOne(row *sql.Row) (*APIKey, error) {
	var k APIKey
	var perm string
	err := row.Scan(&k.ID, &k.Name, &k.KeyPrefix, &k.KeyHash, &perm,
		&k.RateLimit, &k.IsActive, &k.LastUsedAt, &k.LastUsedIP,
		&k.ExpiresAt, &k.CreatedAt, &k.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("api key not found")
	}
	if err != nil {
		return nil, fmt.Errorf("scanning api key: %w", err)
	}
	k.Permission = Permission(perm)
	return &k, nil
}

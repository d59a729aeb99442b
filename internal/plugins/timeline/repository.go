package timeline

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/keyxmakerx/loreline/internal/apperror"
)

// TimelineRepository handles event persistence.
type TimelineRepository interface {
	Create(ctx context.Context, event *Event) error
	FindByID(ctx context.Context, id string) (*Event, error)
	List(ctx context.Context, sagaID string, filter EventFilter) ([]Event, int, error)
	Update(ctx context.Context, event *Event) error
	Delete(ctx context.Context, id string) error

	// Span returns the min/max timestamps and event count for a saga.
	// count == 0 means the saga has no events; min and max are then undefined.
	Span(ctx context.Context, sagaID string) (min, max int64, count int, err error)
}

// timelineRepository implements TimelineRepository using MariaDB.
type timelineRepository struct {
	db *sql.DB
}

// NewTimelineRepository creates a new timeline repository.
func NewTimelineRepository(db *sql.DB) TimelineRepository {
	return &timelineRepository{db: db}
}

const eventColumns = `id, saga_id, title, description, date_text, timestamp, created_at, updated_at`

// Create inserts a new timeline event.
func (r *timelineRepository) Create(ctx context.Context, event *Event) error {
	query := `INSERT INTO timeline_events (id, saga_id, title, description,
	          date_text, timestamp, created_at, updated_at)
	          VALUES (?, ?, ?, ?, ?, ?, NOW(), NOW())`

	_, err := r.db.ExecContext(ctx, query,
		event.ID, event.SagaID, event.Title, event.Description,
		event.DateText, event.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("inserting timeline event: %w", err)
	}
	return nil
}

// FindByID retrieves an event by ID.
func (r *timelineRepository) FindByID(ctx context.Context, id string) (*Event, error) {
	query := `SELECT ` + eventColumns + ` FROM timeline_events WHERE id = ?`

	var e Event
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&e.ID, &e.SagaID, &e.Title, &e.Description, &e.DateText,
		&e.Timestamp, &e.CreatedAt, &e.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.NewNotFound("event not found")
	}
	if err != nil {
		return nil, fmt.Errorf("finding event: %w", err)
	}
	return &e, nil
}

// List returns a saga's events filtered by timestamp range, ordered and
// paged, plus the total count matching the range.
func (r *timelineRepository) List(ctx context.Context, sagaID string, filter EventFilter) ([]Event, int, error) {
	where := `WHERE saga_id = ?`
	args := []any{sagaID}
	if filter.From != nil {
		where += ` AND timestamp >= ?`
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		where += ` AND timestamp <= ?`
		args = append(args, *filter.To)
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM timeline_events ` + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting events: %w", err)
	}

	order := `ASC`
	if filter.Sort == "desc" {
		order = `DESC`
	}
	query := `SELECT ` + eventColumns + ` FROM timeline_events ` + where +
		` ORDER BY timestamp ` + order + `, id ASC LIMIT ? OFFSET ?`
	args = append(args, filter.PerPage, filter.Offset())

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("listing events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.SagaID, &e.Title, &e.Description,
			&e.DateText, &e.Timestamp, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("scanning event: %w", err)
		}
		events = append(events, e)
	}
	return events, total, rows.Err()
}

// Update modifies an event's title, description, and date.
func (r *timelineRepository) Update(ctx context.Context, event *Event) error {
	query := `UPDATE timeline_events SET title = ?, description = ?,
	          date_text = ?, timestamp = ?, updated_at = NOW()
	          WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query,
		event.Title, event.Description, event.DateText, event.Timestamp, event.ID,
	)
	if err != nil {
		return fmt.Errorf("updating event: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return apperror.NewNotFound("event not found")
	}
	return nil
}

// Delete removes an event.
func (r *timelineRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM timeline_events WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting event: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return apperror.NewNotFound("event not found")
	}
	return nil
}

// Span returns the timeline's extent in one aggregate query.
func (r *timelineRepository) Span(ctx context.Context, sagaID string) (int64, int64, int, error) {
	query := `SELECT MIN(timestamp), MAX(timestamp), COUNT(*)
	          FROM timeline_events WHERE saga_id = ?`

	var minTS, maxTS sql.NullInt64
	var count int
	if err := r.db.QueryRowContext(ctx, query, sagaID).Scan(&minTS, &maxTS, &count); err != nil {
		return 0, 0, 0, fmt.Errorf("aggregating timeline span: %w", err)
	}
	return minTS.Int64, maxTS.Int64, count, nil
}

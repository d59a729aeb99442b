// Package timeline manages dated events inside a saga. Event dates are
// entered in the saga's native notation, normalized to timestamps on write,
// and rendered back to canon dates on read. List and span queries are served
// through a Redis cache.
package timeline

import (
	"context"
	"time"

	"github.com/keyxmakerx/loreline/internal/chronology"
)

// Event is a dated happening on a saga's timeline.
type Event struct {
	ID          string  `json:"id"`
	SagaID      string  `json:"saga_id"`
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`

	// DateText is the original native notation as entered, e.g. "32 BBY".
	DateText string `json:"date_text"`

	// Timestamp is the normalized position on the saga's linear axis.
	// It is the stored, sortable representation.
	Timestamp int64 `json:"timestamp"`

	// CanonDate is regenerated from Timestamp on every read. Display only,
	// never stored.
	CanonDate string `json:"canon_date"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Span summarizes the full extent of a saga's timeline.
type Span struct {
	Start       int64  `json:"start_timestamp"`
	End         int64  `json:"end_timestamp"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	Events      int    `json:"events"`
	Description string `json:"description"`
}

// EventFilter narrows and pages a timeline listing.
type EventFilter struct {
	From    *int64 // Inclusive lower timestamp bound.
	To      *int64 // Inclusive upper timestamp bound.
	Sort    string // "asc" (chronological) or "desc".
	Page    int
	PerPage int
}

// DefaultEventFilter returns the standard chronological first page.
func DefaultEventFilter() EventFilter {
	return EventFilter{Sort: "asc", Page: 1, PerPage: 50}
}

// Offset returns the SQL offset for the filter's page.
func (f EventFilter) Offset() int {
	return (f.Page - 1) * f.PerPage
}

// --- Cross-Plugin Interfaces ---

// SagaConverter resolves a saga's validated calendar config for date
// conversion. Avoids importing the sagas plugin's types directly.
// Implemented by sagas.SagaService.
type SagaConverter interface {
	Converter(ctx context.Context, sagaID string) (*chronology.Config, error)
}

// CreateEventRequest is the JSON body for creating a timeline event.
type CreateEventRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Date        string  `json:"date"`
}

// UpdateEventRequest is the JSON body for updating a timeline event.
type UpdateEventRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Date        string  `json:"date"`
}

// CreateEventInput is the validated input for creating an event.
type CreateEventInput struct {
	Title       string
	Description *string
	Date        string
}

// UpdateEventInput is the validated input for updating an event.
type UpdateEventInput struct {
	Title       string
	Description *string
	Date        string
}

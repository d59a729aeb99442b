// Package sagas manages sagas (fictional-universe containers) and their
// calendar configuration. A saga is the top-level organizational unit that
// scopes timeline events and date conversions. Each saga carries exactly one
// calendar config, validated on every write.
//
// This is a CORE plugin -- always enabled, cannot be disabled.
package sagas

import (
	"regexp"
	"strings"
	"time"

	"github.com/keyxmakerx/loreline/internal/chronology"
)

// --- Domain Models ---

// Saga represents a fictional universe with its own calendar system.
type Saga struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Slug        string  `json:"slug"`
	Description *string `json:"description,omitempty"`

	// CalendarKind selects the conversion rules for this saga's dates.
	CalendarKind chronology.Kind `json:"calendar_kind"`

	// CalendarConfig is the canonical JSON form of the calendar config,
	// exactly as stored in the calendar_config column.
	CalendarConfig string `json:"calendar_config"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DateConversion is the result of parsing or formatting a date. Timestamp is
// the canonical representation; CanonDate is how the saga's calendar would
// write it back out.
type DateConversion struct {
	Timestamp int64  `json:"timestamp"`
	CanonDate string `json:"canon_date"`
}

// --- Request DTOs (bound from HTTP requests) ---

// CreateSagaRequest holds the data for creating a saga. Either Preset or the
// CalendarKind/CalendarConfig pair must be provided.
type CreateSagaRequest struct {
	Name           string         `json:"name"`
	Description    string         `json:"description"`
	Preset         string         `json:"preset"`
	CalendarKind   string         `json:"calendar_kind"`
	CalendarConfig map[string]any `json:"calendar_config"`
}

// UpdateSagaRequest holds the data for updating a saga. An empty CalendarKind
// leaves the calendar untouched.
type UpdateSagaRequest struct {
	Name           string         `json:"name"`
	Description    string         `json:"description"`
	CalendarKind   string         `json:"calendar_kind"`
	CalendarConfig map[string]any `json:"calendar_config"`
}

// ParseDateRequest holds a date string to convert to a timestamp.
type ParseDateRequest struct {
	Date string `json:"date"`
}

// FormatDateRequest holds a timestamp to render in the saga's calendar.
type FormatDateRequest struct {
	Timestamp int64 `json:"timestamp"`
}

// SpanRequest holds two timestamps to describe the distance between.
type SpanRequest struct {
	Start int64 `json:"start_timestamp"`
	End   int64 `json:"end_timestamp"`
}

// --- Service Input DTOs ---

// CreateSagaInput is the validated input for creating a saga.
type CreateSagaInput struct {
	Name           string
	Description    string
	Preset         string
	CalendarKind   string
	CalendarConfig map[string]any
}

// UpdateSagaInput is the validated input for updating a saga.
type UpdateSagaInput struct {
	Name           string
	Description    string
	CalendarKind   string
	CalendarConfig map[string]any
}

// ListOptions holds pagination parameters for list queries.
type ListOptions struct {
	Page    int
	PerPage int
}

// DefaultListOptions returns sensible defaults for pagination.
func DefaultListOptions() ListOptions {
	return ListOptions{Page: 1, PerPage: 24}
}

// Offset returns the SQL OFFSET value for the current page.
func (o ListOptions) Offset() int {
	if o.Page < 1 {
		o.Page = 1
	}
	return (o.Page - 1) * o.PerPage
}

// --- Slug Generation ---

// slugPattern matches one or more non-alphanumeric characters for replacement.
var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify creates a URL-safe slug from a name. Lowercase, replace
// non-alphanumeric characters with hyphens, trim leading/trailing hyphens.
func Slugify(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = slugPattern.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		slug = "saga"
	}
	return slug
}

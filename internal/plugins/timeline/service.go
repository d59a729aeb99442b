package timeline

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/keyxmakerx/loreline/internal/apperror"
	"github.com/keyxmakerx/loreline/internal/chronology"
)

// TimelineService handles business logic for timeline events. Dates are
// normalized through the saga's calendar on write and rendered back on read.
type TimelineService interface {
	CreateEvent(ctx context.Context, sagaID string, input CreateEventInput) (*Event, error)
	GetEvent(ctx context.Context, eventID string) (*Event, error)
	ListEvents(ctx context.Context, sagaID string, filter EventFilter) ([]Event, int, error)
	UpdateEvent(ctx context.Context, eventID string, input UpdateEventInput) (*Event, error)
	DeleteEvent(ctx context.Context, eventID string) error

	// Span summarizes the saga's full timeline extent.
	Span(ctx context.Context, sagaID string) (*Span, error)
}

// timelineService implements TimelineService.
type timelineService struct {
	repo  TimelineRepository
	sagas SagaConverter
	cache *Cache
}

// NewTimelineService creates a new timeline service with the given
// dependencies.
func NewTimelineService(repo TimelineRepository, sagas SagaConverter, cache *Cache) TimelineService {
	return &timelineService{
		repo:  repo,
		sagas: sagas,
		cache: cache,
	}
}

// CreateEvent normalizes the event's native date through the saga's calendar
// and stores it. The original date text is preserved alongside the timestamp.
func (s *timelineService) CreateEvent(ctx context.Context, sagaID string, input CreateEventInput) (*Event, error) {
	title, desc, date, err := validateEventInput(input.Title, input.Description, input.Date)
	if err != nil {
		return nil, err
	}

	cfg, err := s.sagas.Converter(ctx, sagaID)
	if err != nil {
		return nil, err
	}

	ts, err := chronology.ToTimestamp(date, cfg)
	if err != nil {
		return nil, convertError(err)
	}

	now := time.Now().UTC()
	event := &Event{
		ID:          generateUUID(),
		SagaID:      sagaID,
		Title:       title,
		Description: desc,
		DateText:    date,
		Timestamp:   ts,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, event); err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("creating event: %w", err))
	}

	s.cache.Invalidate(ctx, sagaID)

	slog.Info("timeline event created",
		slog.String("event_id", event.ID),
		slog.String("saga_id", sagaID),
		slog.Int64("timestamp", ts),
	)

	event.CanonDate = chronology.ToCanonDate(ts, cfg)
	return event, nil
}

// GetEvent returns a single event with its canon date rendered.
func (s *timelineService) GetEvent(ctx context.Context, eventID string) (*Event, error) {
	event, err := s.repo.FindByID(ctx, eventID)
	if err != nil {
		return nil, err
	}

	cfg, err := s.sagas.Converter(ctx, event.SagaID)
	if err != nil {
		return nil, err
	}

	event.CanonDate = chronology.ToCanonDate(event.Timestamp, cfg)
	return event, nil
}

// ListEvents returns a filtered, ordered page of a saga's events plus the
// total count in range. Results come from the cache when fresh; canon dates
// are regenerated on every read so calendar config changes show immediately.
func (s *timelineService) ListEvents(ctx context.Context, sagaID string, filter EventFilter) ([]Event, int, error) {
	cfg, err := s.sagas.Converter(ctx, sagaID)
	if err != nil {
		return nil, 0, err
	}

	filter = clampFilter(filter)

	events, total, ok := s.cache.GetList(ctx, sagaID, filter)
	if !ok {
		events, total, err = s.repo.List(ctx, sagaID, filter)
		if err != nil {
			return nil, 0, apperror.NewInternal(fmt.Errorf("listing events: %w", err))
		}
		s.cache.SetList(ctx, sagaID, filter, events, total)
	}

	for i := range events {
		events[i].CanonDate = chronology.ToCanonDate(events[i].Timestamp, cfg)
	}
	return events, total, nil
}

// UpdateEvent revalidates and renormalizes an event. The date is always
// reparsed, so a calendar config change is picked up on the next edit.
func (s *timelineService) UpdateEvent(ctx context.Context, eventID string, input UpdateEventInput) (*Event, error) {
	event, err := s.repo.FindByID(ctx, eventID)
	if err != nil {
		return nil, err
	}

	title, desc, date, err := validateEventInput(input.Title, input.Description, input.Date)
	if err != nil {
		return nil, err
	}

	cfg, err := s.sagas.Converter(ctx, event.SagaID)
	if err != nil {
		return nil, err
	}

	ts, err := chronology.ToTimestamp(date, cfg)
	if err != nil {
		return nil, convertError(err)
	}

	event.Title = title
	event.Description = desc
	event.DateText = date
	event.Timestamp = ts

	if err := s.repo.Update(ctx, event); err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, event.SagaID)

	event.CanonDate = chronology.ToCanonDate(ts, cfg)
	return event, nil
}

// DeleteEvent removes an event and invalidates its saga's cached reads.
func (s *timelineService) DeleteEvent(ctx context.Context, eventID string) error {
	event, err := s.repo.FindByID(ctx, eventID)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, eventID); err != nil {
		return err
	}

	s.cache.Invalidate(ctx, event.SagaID)

	slog.Info("timeline event deleted",
		slog.String("event_id", eventID),
		slog.String("saga_id", event.SagaID),
	)
	return nil
}

// Span returns the saga's timeline extent: earliest and latest event, count,
// and a human-readable duration between them.
func (s *timelineService) Span(ctx context.Context, sagaID string) (*Span, error) {
	cfg, err := s.sagas.Converter(ctx, sagaID)
	if err != nil {
		return nil, err
	}

	minTS, maxTS, count, ok := s.cache.GetSpan(ctx, sagaID)
	if !ok {
		minTS, maxTS, count, err = s.repo.Span(ctx, sagaID)
		if err != nil {
			return nil, apperror.NewInternal(fmt.Errorf("aggregating span: %w", err))
		}
		s.cache.SetSpan(ctx, sagaID, minTS, maxTS, count)
	}

	if count == 0 {
		return nil, apperror.NewNotFound("saga has no timeline events")
	}

	return &Span{
		Start:       minTS,
		End:         maxTS,
		StartDate:   chronology.ToCanonDate(minTS, cfg),
		EndDate:     chronology.ToCanonDate(maxTS, cfg),
		Events:      count,
		Description: chronology.DescribeTimeSpan(minTS, maxTS),
	}, nil
}

// --- Helpers ---

// validateEventInput checks shared create/update constraints and returns the
// trimmed values.
func validateEventInput(title string, desc *string, date string) (string, *string, string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", nil, "", apperror.NewBadRequest("event title is required")
	}
	if len(title) > 200 {
		return "", nil, "", apperror.NewBadRequest("event title must be at most 200 characters")
	}

	if desc != nil {
		trimmed := strings.TrimSpace(*desc)
		if len(trimmed) > 5000 {
			return "", nil, "", apperror.NewBadRequest("description must be at most 5000 characters")
		}
		if trimmed == "" {
			desc = nil
		} else {
			desc = &trimmed
		}
	}

	date = strings.TrimSpace(date)
	if date == "" {
		return "", nil, "", apperror.NewBadRequest("event date is required")
	}

	return title, desc, date, nil
}

// clampFilter normalizes pagination and sort order.
func clampFilter(f EventFilter) EventFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PerPage < 1 || f.PerPage > 200 {
		f.PerPage = 50
	}
	if f.Sort != "desc" {
		f.Sort = "asc"
	}
	return f
}

// convertError maps chronology errors to client-safe API errors.
func convertError(err error) error {
	var cfgErr *chronology.ConfigError
	if errors.As(err, &cfgErr) {
		return apperror.NewValidation(cfgErr.Error())
	}
	var parseErr *chronology.ParseError
	if errors.As(err, &parseErr) {
		return apperror.NewValidation(parseErr.Error())
	}
	return apperror.NewInternal(err)
}

// generateUUID creates a new v4 UUID string using crypto/rand.
// Panics if the system entropy source fails, as this indicates a
// catastrophic system problem that would compromise all security.
func generateUUID() string {
	uuid := make([]byte, 16)
	if _, err := rand.Read(uuid); err != nil {
		panic("crypto/rand failed: " + err.Error())
	}
	uuid[6] = (uuid[6] & 0x0f) | 0x40 // Version 4
	uuid[8] = (uuid[8] & 0x3f) | 0x80 // Variant RFC 4122
	return fmt.Sprintf("%08x-%04x-%04x-%04x-%012x",
		uuid[0:4], uuid[4:6], uuid[6:8], uuid[8:10], uuid[10:16])
}

package sagas

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/keyxmakerx/loreline/internal/apperror"
	"github.com/keyxmakerx/loreline/internal/chronology"
	"github.com/keyxmakerx/loreline/internal/presets"
)

// SagaService handles business logic for saga operations. It owns slug
// generation, calendar config validation, and date conversion.
type SagaService interface {
	// Saga CRUD
	Create(ctx context.Context, input CreateSagaInput) (*Saga, error)
	GetByID(ctx context.Context, id string) (*Saga, error)
	GetBySlug(ctx context.Context, slug string) (*Saga, error)
	List(ctx context.Context, opts ListOptions) ([]Saga, int, error)
	Update(ctx context.Context, sagaID string, input UpdateSagaInput) (*Saga, error)
	Delete(ctx context.Context, sagaID string) error
	CountAll(ctx context.Context) (int, error)

	// Converter resolves a saga's stored calendar config into the validated
	// form the chronology package converts with. Used by the timeline plugin
	// to render event dates.
	Converter(ctx context.Context, sagaID string) (*chronology.Config, error)

	// Date conversion
	ParseDate(ctx context.Context, sagaID, dateText string) (*DateConversion, error)
	FormatDate(ctx context.Context, sagaID string, timestamp int64) (*DateConversion, error)
	DescribeSpan(ctx context.Context, sagaID string, start, end int64) (string, error)
}

// sagaService implements SagaService.
type sagaService struct {
	repo SagaRepository
}

// NewSagaService creates a new saga service with the given repository.
func NewSagaService(repo SagaRepository) SagaService {
	return &sagaService{repo: repo}
}

// --- Saga CRUD ---

// Create creates a new saga. The calendar config comes either from a named
// preset or from an explicit kind and config, and is stored in its canonical
// serialized form.
func (s *sagaService) Create(ctx context.Context, input CreateSagaInput) (*Saga, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperror.NewBadRequest("saga name is required")
	}
	if len(name) > 200 {
		return nil, apperror.NewBadRequest("saga name must be at most 200 characters")
	}

	desc := strings.TrimSpace(input.Description)
	if len(desc) > 5000 {
		return nil, apperror.NewBadRequest("description must be at most 5000 characters")
	}

	kind, cfg, err := s.resolveCalendar(input.Preset, input.CalendarKind, input.CalendarConfig)
	if err != nil {
		return nil, err
	}

	configJSON, err := cfg.MarshalConfig()
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("serializing calendar config: %w", err))
	}

	// Generate a unique slug from the name.
	slug, err := s.generateSlug(ctx, name)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("generating slug: %w", err))
	}

	now := time.Now().UTC()
	var descPtr *string
	if desc != "" {
		descPtr = &desc
	}

	saga := &Saga{
		ID:             generateUUID(),
		Name:           name,
		Slug:           slug,
		Description:    descPtr,
		CalendarKind:   kind,
		CalendarConfig: string(configJSON),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.repo.Create(ctx, saga); err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("creating saga: %w", err))
	}

	s.logConfigWarnings(saga.ID, cfg)

	slog.Info("saga created",
		slog.String("saga_id", saga.ID),
		slog.String("slug", saga.Slug),
		slog.String("calendar_kind", string(kind)),
	)

	return saga, nil
}

// GetByID retrieves a saga by ID.
func (s *sagaService) GetByID(ctx context.Context, id string) (*Saga, error) {
	return s.repo.FindByID(ctx, id)
}

// GetBySlug retrieves a saga by its URL slug.
func (s *sagaService) GetBySlug(ctx context.Context, slug string) (*Saga, error) {
	return s.repo.FindBySlug(ctx, slug)
}

// List returns sagas ordered by most recent activity.
func (s *sagaService) List(ctx context.Context, opts ListOptions) ([]Saga, int, error) {
	if opts.PerPage < 1 || opts.PerPage > 100 {
		opts.PerPage = 24
	}
	if opts.Page < 1 {
		opts.Page = 1
	}
	return s.repo.List(ctx, opts)
}

// Update modifies a saga's name, description, and optionally its calendar.
// An empty CalendarKind leaves the stored calendar untouched.
func (s *sagaService) Update(ctx context.Context, sagaID string, input UpdateSagaInput) (*Saga, error) {
	saga, err := s.repo.FindByID(ctx, sagaID)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperror.NewBadRequest("saga name is required")
	}
	if len(name) > 200 {
		return nil, apperror.NewBadRequest("saga name must be at most 200 characters")
	}

	desc := strings.TrimSpace(input.Description)
	if len(desc) > 5000 {
		return nil, apperror.NewBadRequest("description must be at most 5000 characters")
	}

	// Regenerate slug if name changed.
	if name != saga.Name {
		slug, err := s.generateSlug(ctx, name)
		if err != nil {
			return nil, apperror.NewInternal(fmt.Errorf("generating slug: %w", err))
		}
		saga.Slug = slug
	}

	saga.Name = name
	if desc != "" {
		saga.Description = &desc
	} else {
		saga.Description = nil
	}

	if input.CalendarKind != "" {
		kind, cfg, err := s.resolveCalendar("", input.CalendarKind, input.CalendarConfig)
		if err != nil {
			return nil, err
		}
		configJSON, err := cfg.MarshalConfig()
		if err != nil {
			return nil, apperror.NewInternal(fmt.Errorf("serializing calendar config: %w", err))
		}
		saga.CalendarKind = kind
		saga.CalendarConfig = string(configJSON)
		s.logConfigWarnings(saga.ID, cfg)
	}

	if err := s.repo.Update(ctx, saga); err != nil {
		return nil, err
	}

	return saga, nil
}

// Delete removes a saga and all its timeline events (via FK CASCADE).
func (s *sagaService) Delete(ctx context.Context, sagaID string) error {
	if err := s.repo.Delete(ctx, sagaID); err != nil {
		return err
	}

	slog.Info("saga deleted", slog.String("saga_id", sagaID))
	return nil
}

// CountAll returns the total number of sagas.
func (s *sagaService) CountAll(ctx context.Context) (int, error) {
	return s.repo.CountAll(ctx)
}

// --- Date Conversion ---

// Converter loads and validates the saga's calendar config. A stored config
// that no longer validates indicates a schema or code regression, surfaced
// as an internal error rather than a validation failure.
func (s *sagaService) Converter(ctx context.Context, sagaID string) (*chronology.Config, error) {
	saga, err := s.repo.FindByID(ctx, sagaID)
	if err != nil {
		return nil, err
	}

	var raw map[string]any
	if err := json.Unmarshal([]byte(saga.CalendarConfig), &raw); err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("parsing stored calendar config for saga %s: %w", sagaID, err))
	}

	cfg, err := chronology.ValidateConfig(raw, saga.CalendarKind)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("stored calendar config for saga %s is invalid: %w", sagaID, err))
	}
	return cfg, nil
}

// ParseDate converts a date string into a timestamp using the saga's
// calendar, and echoes back the canonical rendering of that timestamp.
func (s *sagaService) ParseDate(ctx context.Context, sagaID, dateText string) (*DateConversion, error) {
	if strings.TrimSpace(dateText) == "" {
		return nil, apperror.NewBadRequest("date is required")
	}

	cfg, err := s.Converter(ctx, sagaID)
	if err != nil {
		return nil, err
	}

	ts, err := chronology.ToTimestamp(dateText, cfg)
	if err != nil {
		return nil, convertError(err)
	}

	return &DateConversion{
		Timestamp: ts,
		CanonDate: chronology.ToCanonDate(ts, cfg),
	}, nil
}

// FormatDate renders a timestamp in the saga's calendar.
func (s *sagaService) FormatDate(ctx context.Context, sagaID string, timestamp int64) (*DateConversion, error) {
	cfg, err := s.Converter(ctx, sagaID)
	if err != nil {
		return nil, err
	}

	return &DateConversion{
		Timestamp: timestamp,
		CanonDate: chronology.ToCanonDate(timestamp, cfg),
	}, nil
}

// DescribeSpan returns a human-readable description of the span between two
// timestamps, e.g. "1 year, 1 month". The saga must exist even though the
// description itself is calendar-independent.
func (s *sagaService) DescribeSpan(ctx context.Context, sagaID string, start, end int64) (string, error) {
	if _, err := s.repo.FindByID(ctx, sagaID); err != nil {
		return "", err
	}
	return chronology.DescribeTimeSpan(start, end), nil
}

// --- Helpers ---

// resolveCalendar produces a validated calendar config from either a preset
// name or an explicit kind and raw config.
func (s *sagaService) resolveCalendar(preset, kindStr string, raw map[string]any) (chronology.Kind, *chronology.Config, error) {
	if preset != "" {
		p := presets.Find(preset)
		if p == nil {
			return "", nil, apperror.NewBadRequest(fmt.Sprintf("unknown preset: %s", preset))
		}
		cfg, err := chronology.ValidateConfig(p.Config, p.Kind)
		if err != nil {
			return "", nil, apperror.NewInternal(fmt.Errorf("preset %s does not validate: %w", preset, err))
		}
		return p.Kind, cfg, nil
	}

	kind, err := chronology.ParseKind(kindStr)
	if err != nil {
		return "", nil, convertError(err)
	}

	if raw == nil {
		raw = map[string]any{}
	}
	cfg, err := chronology.ValidateConfig(raw, kind)
	if err != nil {
		return "", nil, convertError(err)
	}
	return kind, cfg, nil
}

// logConfigWarnings surfaces non-fatal config diagnostics, such as
// overlapping age ranges, in the server log.
func (s *sagaService) logConfigWarnings(sagaID string, cfg *chronology.Config) {
	for _, w := range cfg.Warnings {
		slog.Warn("calendar config warning",
			slog.String("saga_id", sagaID),
			slog.String("warning", w),
		)
	}
}

// convertError maps chronology errors to client-safe API errors. Config and
// parse failures are the caller's input problem, reported as 422s with the
// underlying message intact.
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

// maxSlugAttempts caps slug deduplication iterations to prevent DoS from
// adversarial name collisions (e.g., creating "test", "test-2" ... "test-N").
const maxSlugAttempts = 100

// generateSlug creates a unique slug for a saga. If the base slug is taken,
// appends -2, -3, etc. After maxSlugAttempts, falls back to a random suffix.
func (s *sagaService) generateSlug(ctx context.Context, name string) (string, error) {
	base := Slugify(name)
	slug := base

	for i := 2; i < maxSlugAttempts+2; i++ {
		exists, err := s.repo.SlugExists(ctx, slug)
		if err != nil {
			return "", fmt.Errorf("checking slug: %w", err)
		}
		if !exists {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}

	// Fallback: append random suffix to guarantee uniqueness.
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating random slug suffix: %w", err)
	}
	return fmt.Sprintf("%s-%s", base, hex.EncodeToString(b)), nil
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

package sagas

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/keyxmakerx/loreline/internal/apperror"
	"github.com/keyxmakerx/loreline/internal/chronology"
)

// --- Mock Repository ---

// mockSagaRepo implements SagaRepository for testing.
type mockSagaRepo struct {
	createFn     func(ctx context.Context, saga *Saga) error
	findByIDFn   func(ctx context.Context, id string) (*Saga, error)
	findBySlugFn func(ctx context.Context, slug string) (*Saga, error)
	listFn       func(ctx context.Context, opts ListOptions) ([]Saga, int, error)
	updateFn     func(ctx context.Context, saga *Saga) error
	deleteFn     func(ctx context.Context, id string) error
	slugExistsFn func(ctx context.Context, slug string) (bool, error)
	countAllFn   func(ctx context.Context) (int, error)
}

func (m *mockSagaRepo) Create(ctx context.Context, saga *Saga) error {
	if m.createFn != nil {
		return m.createFn(ctx, saga)
	}
	return nil
}

func (m *mockSagaRepo) FindByID(ctx context.Context, id string) (*Saga, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, apperror.NewNotFound("saga not found")
}

func (m *mockSagaRepo) FindBySlug(ctx context.Context, slug string) (*Saga, error) {
	if m.findBySlugFn != nil {
		return m.findBySlugFn(ctx, slug)
	}
	return nil, apperror.NewNotFound("saga not found")
}

func (m *mockSagaRepo) List(ctx context.Context, opts ListOptions) ([]Saga, int, error) {
	if m.listFn != nil {
		return m.listFn(ctx, opts)
	}
	return nil, 0, nil
}

func (m *mockSagaRepo) Update(ctx context.Context, saga *Saga) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, saga)
	}
	return nil
}

func (m *mockSagaRepo) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

func (m *mockSagaRepo) SlugExists(ctx context.Context, slug string) (bool, error) {
	if m.slugExistsFn != nil {
		return m.slugExistsFn(ctx, slug)
	}
	return false, nil
}

func (m *mockSagaRepo) CountAll(ctx context.Context) (int, error) {
	if m.countAllFn != nil {
		return m.countAllFn(ctx)
	}
	return 0, nil
}

// --- Test Helpers ---

// assertAppError checks that err is an *apperror.AppError with the expected code.
func assertAppError(t *testing.T, err error, expectedCode int) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with code %d, got nil", expectedCode)
	}
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *apperror.AppError, got %T: %v", err, err)
	}
	if appErr.Code != expectedCode {
		t.Errorf("expected status %d, got %d (message: %s)", expectedCode, appErr.Code, appErr.Message)
	}
}

// testSaga returns a saga with an epoch-relative calendar anchored at zero.
func testSaga() *Saga {
	desc := "A long time ago"
	now := time.Now()
	return &Saga{
		ID:             "saga-1",
		Name:           "The Galaxy",
		Slug:           "the-galaxy",
		Description:    &desc,
		CalendarKind:   chronology.KindEpochRelative,
		CalendarConfig: `{"epoch_name":"AG","epoch_timestamp":0}`,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// repoWithSaga returns a mock repo serving the given saga by ID.
func repoWithSaga(saga *Saga) *mockSagaRepo {
	return &mockSagaRepo{
		findByIDFn: func(ctx context.Context, id string) (*Saga, error) {
			if id == saga.ID {
				return saga, nil
			}
			return nil, apperror.NewNotFound("saga not found")
		},
	}
}

// --- Create Tests ---

func TestCreateSaga_Success(t *testing.T) {
	var stored *Saga
	repo := &mockSagaRepo{
		createFn: func(ctx context.Context, saga *Saga) error {
			stored = saga
			return nil
		},
	}

	svc := NewSagaService(repo)
	saga, err := svc.Create(context.Background(), CreateSagaInput{
		Name:         "The Galaxy",
		Description:  "A long time ago",
		CalendarKind: "epoch_relative",
		CalendarConfig: map[string]any{
			"epoch_name":      "BBY",
			"epoch_timestamp": float64(0),
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if stored == nil {
		t.Fatal("expected saga to be stored")
	}
	if saga.ID == "" {
		t.Error("expected generated ID")
	}
	if saga.Slug != "the-galaxy" {
		t.Errorf("expected slug the-galaxy, got %s", saga.Slug)
	}
	if saga.CalendarKind != chronology.KindEpochRelative {
		t.Errorf("expected epoch_relative kind, got %s", saga.CalendarKind)
	}
	if saga.Description == nil || *saga.Description != "A long time ago" {
		t.Error("expected description to be set")
	}

	// Stored config must be the canonical serialized form.
	var cfg map[string]any
	if err := json.Unmarshal([]byte(saga.CalendarConfig), &cfg); err != nil {
		t.Fatalf("stored config is not valid JSON: %v", err)
	}
	if cfg["epoch_name"] != "BBY" {
		t.Errorf("expected epoch_name BBY in stored config, got %v", cfg["epoch_name"])
	}
}

func TestCreateSaga_EmptyName(t *testing.T) {
	svc := NewSagaService(&mockSagaRepo{})
	_, err := svc.Create(context.Background(), CreateSagaInput{
		Name:         "",
		CalendarKind: "absolute",
	})
	assertAppError(t, err, 400)
}

func TestCreateSaga_NameTooLong(t *testing.T) {
	svc := NewSagaService(&mockSagaRepo{})
	_, err := svc.Create(context.Background(), CreateSagaInput{
		Name:         strings.Repeat("x", 201),
		CalendarKind: "absolute",
	})
	assertAppError(t, err, 400)
}

func TestCreateSaga_DescriptionTooLong(t *testing.T) {
	svc := NewSagaService(&mockSagaRepo{})
	_, err := svc.Create(context.Background(), CreateSagaInput{
		Name:         "Test",
		Description:  strings.Repeat("x", 5001),
		CalendarKind: "absolute",
	})
	assertAppError(t, err, 400)
}

func TestCreateSaga_NameTrimming(t *testing.T) {
	var capturedName string
	repo := &mockSagaRepo{
		createFn: func(ctx context.Context, saga *Saga) error {
			capturedName = saga.Name
			return nil
		},
	}

	svc := NewSagaService(repo)
	_, err := svc.Create(context.Background(), CreateSagaInput{
		Name:         "  Middle-earth  ",
		CalendarKind: "absolute",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if capturedName != "Middle-earth" {
		t.Errorf("expected trimmed name, got %q", capturedName)
	}
}

func TestCreateSaga_FromPreset(t *testing.T) {
	var stored *Saga
	repo := &mockSagaRepo{
		createFn: func(ctx context.Context, saga *Saga) error {
			stored = saga
			return nil
		},
	}

	svc := NewSagaService(repo)
	_, err := svc.Create(context.Background(), CreateSagaInput{
		Name:   "Star Saga",
		Preset: "galactic-standard",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if stored.CalendarKind != chronology.KindEpochRelative {
		t.Errorf("expected epoch_relative from preset, got %s", stored.CalendarKind)
	}
	if !strings.Contains(stored.CalendarConfig, `"epoch_name"`) {
		t.Errorf("expected preset config to be stored, got %s", stored.CalendarConfig)
	}
}

func TestCreateSaga_UnknownPreset(t *testing.T) {
	svc := NewSagaService(&mockSagaRepo{})
	_, err := svc.Create(context.Background(), CreateSagaInput{
		Name:   "Test",
		Preset: "narnia",
	})
	assertAppError(t, err, 400)
}

func TestCreateSaga_UnknownCalendarKind(t *testing.T) {
	svc := NewSagaService(&mockSagaRepo{})
	_, err := svc.Create(context.Background(), CreateSagaInput{
		Name:         "Test",
		CalendarKind: "julian",
	})
	assertAppError(t, err, 422)
}

func TestCreateSaga_InvalidConfig(t *testing.T) {
	svc := NewSagaService(&mockSagaRepo{})
	// epoch_relative requires epoch_name and epoch_timestamp.
	_, err := svc.Create(context.Background(), CreateSagaInput{
		Name:           "Test",
		CalendarKind:   "epoch_relative",
		CalendarConfig: map[string]any{},
	})
	assertAppError(t, err, 422)
}

func TestCreateSaga_OverlappingAgesStillCreates(t *testing.T) {
	// Overlap is a warning, not an error.
	repo := &mockSagaRepo{}
	svc := NewSagaService(repo)
	_, err := svc.Create(context.Background(), CreateSagaInput{
		Name:         "Overlap World",
		CalendarKind: "age_based",
		CalendarConfig: map[string]any{
			"ages": []any{
				map[string]any{"name": "First Age", "start_timestamp": float64(0), "end_timestamp": float64(chronology.YearsToSeconds(100))},
				map[string]any{"name": "Second Age", "start_timestamp": float64(chronology.YearsToSeconds(50))},
			},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCreateSaga_SlugCollision(t *testing.T) {
	var stored *Saga
	repo := &mockSagaRepo{
		slugExistsFn: func(ctx context.Context, slug string) (bool, error) {
			return slug == "the-galaxy", nil
		},
		createFn: func(ctx context.Context, saga *Saga) error {
			stored = saga
			return nil
		},
	}

	svc := NewSagaService(repo)
	_, err := svc.Create(context.Background(), CreateSagaInput{
		Name:         "The Galaxy",
		CalendarKind: "absolute",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored.Slug != "the-galaxy-2" {
		t.Errorf("expected slug the-galaxy-2, got %s", stored.Slug)
	}
}

func TestCreateSaga_RepoError(t *testing.T) {
	repo := &mockSagaRepo{
		createFn: func(ctx context.Context, saga *Saga) error {
			return errors.New("db error")
		},
	}

	svc := NewSagaService(repo)
	_, err := svc.Create(context.Background(), CreateSagaInput{
		Name:         "Test",
		CalendarKind: "absolute",
	})
	assertAppError(t, err, 500)
}

// --- Update Tests ---

func TestUpdateSaga_Success(t *testing.T) {
	saga := testSaga()
	var updated *Saga
	repo := repoWithSaga(saga)
	repo.updateFn = func(ctx context.Context, s *Saga) error {
		updated = s
		return nil
	}

	svc := NewSagaService(repo)
	result, err := svc.Update(context.Background(), "saga-1", UpdateSagaInput{
		Name:        "The Galaxy, Remastered",
		Description: "Updated lore",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if updated == nil {
		t.Fatal("expected saga to be updated")
	}
	if result.Name != "The Galaxy, Remastered" {
		t.Errorf("expected updated name, got %s", result.Name)
	}
	// Name changed, so the slug regenerates.
	if result.Slug != "the-galaxy-remastered" {
		t.Errorf("expected regenerated slug, got %s", result.Slug)
	}
}

func TestUpdateSaga_KeepsSlugWhenNameUnchanged(t *testing.T) {
	saga := testSaga()
	repo := repoWithSaga(saga)
	repo.slugExistsFn = func(ctx context.Context, slug string) (bool, error) {
		t.Error("slug check should not run when name is unchanged")
		return false, nil
	}

	svc := NewSagaService(repo)
	result, err := svc.Update(context.Background(), "saga-1", UpdateSagaInput{
		Name: "The Galaxy",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Slug != "the-galaxy" {
		t.Errorf("expected original slug, got %s", result.Slug)
	}
}

func TestUpdateSaga_KeepsCalendarWhenKindEmpty(t *testing.T) {
	saga := testSaga()
	originalConfig := saga.CalendarConfig
	repo := repoWithSaga(saga)

	svc := NewSagaService(repo)
	result, err := svc.Update(context.Background(), "saga-1", UpdateSagaInput{
		Name: "The Galaxy",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.CalendarConfig != originalConfig {
		t.Errorf("expected calendar config untouched, got %s", result.CalendarConfig)
	}
	if result.CalendarKind != chronology.KindEpochRelative {
		t.Errorf("expected calendar kind untouched, got %s", result.CalendarKind)
	}
}

func TestUpdateSaga_ReplacesCalendar(t *testing.T) {
	saga := testSaga()
	repo := repoWithSaga(saga)

	svc := NewSagaService(repo)
	result, err := svc.Update(context.Background(), "saga-1", UpdateSagaInput{
		Name:         "The Galaxy",
		CalendarKind: "absolute",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.CalendarKind != chronology.KindAbsolute {
		t.Errorf("expected absolute kind, got %s", result.CalendarKind)
	}
}

func TestUpdateSaga_InvalidNewConfig(t *testing.T) {
	saga := testSaga()
	repo := repoWithSaga(saga)

	svc := NewSagaService(repo)
	_, err := svc.Update(context.Background(), "saga-1", UpdateSagaInput{
		Name:         "The Galaxy",
		CalendarKind: "age_based",
		// Missing "ages".
		CalendarConfig: map[string]any{},
	})
	assertAppError(t, err, 422)
}

func TestUpdateSaga_NotFound(t *testing.T) {
	svc := NewSagaService(&mockSagaRepo{})
	_, err := svc.Update(context.Background(), "nope", UpdateSagaInput{Name: "Test"})
	assertAppError(t, err, 404)
}

func TestUpdateSaga_EmptyName(t *testing.T) {
	saga := testSaga()
	svc := NewSagaService(repoWithSaga(saga))
	_, err := svc.Update(context.Background(), "saga-1", UpdateSagaInput{Name: "   "})
	assertAppError(t, err, 400)
}

// --- Delete Tests ---

func TestDeleteSaga(t *testing.T) {
	var deletedID string
	repo := &mockSagaRepo{
		deleteFn: func(ctx context.Context, id string) error {
			deletedID = id
			return nil
		},
	}

	svc := NewSagaService(repo)
	if err := svc.Delete(context.Background(), "saga-42"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deletedID != "saga-42" {
		t.Errorf("expected saga-42 deleted, got %s", deletedID)
	}
}

func TestDeleteSaga_NotFound(t *testing.T) {
	repo := &mockSagaRepo{
		deleteFn: func(ctx context.Context, id string) error {
			return apperror.NewNotFound("saga not found")
		},
	}

	svc := NewSagaService(repo)
	err := svc.Delete(context.Background(), "nope")
	assertAppError(t, err, 404)
}

// --- List Tests ---

func TestListSagas_ClampsPagination(t *testing.T) {
	var capturedOpts ListOptions
	repo := &mockSagaRepo{
		listFn: func(ctx context.Context, opts ListOptions) ([]Saga, int, error) {
			capturedOpts = opts
			return nil, 0, nil
		},
	}

	svc := NewSagaService(repo)
	_, _, err := svc.List(context.Background(), ListOptions{Page: -3, PerPage: 5000})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if capturedOpts.Page != 1 {
		t.Errorf("expected page clamped to 1, got %d", capturedOpts.Page)
	}
	if capturedOpts.PerPage != 24 {
		t.Errorf("expected per_page clamped to 24, got %d", capturedOpts.PerPage)
	}
}

// --- Converter Tests ---

func TestConverter_Success(t *testing.T) {
	saga := testSaga()
	svc := NewSagaService(repoWithSaga(saga))

	cfg, err := svc.Converter(context.Background(), "saga-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Kind != chronology.KindEpochRelative {
		t.Errorf("expected epoch_relative config, got %s", cfg.Kind)
	}
	if cfg.Epoch == nil || cfg.Epoch.Name != "AG" {
		t.Error("expected epoch name AG")
	}
}

func TestConverter_SagaNotFound(t *testing.T) {
	svc := NewSagaService(&mockSagaRepo{})
	_, err := svc.Converter(context.Background(), "nope")
	assertAppError(t, err, 404)
}

func TestConverter_CorruptStoredConfig(t *testing.T) {
	saga := testSaga()
	saga.CalendarConfig = "{not json"
	svc := NewSagaService(repoWithSaga(saga))

	_, err := svc.Converter(context.Background(), "saga-1")
	assertAppError(t, err, 500)
}

func TestConverter_StoredConfigFailsValidation(t *testing.T) {
	saga := testSaga()
	// Valid JSON, but missing required epoch fields.
	saga.CalendarConfig = `{}`
	svc := NewSagaService(repoWithSaga(saga))

	_, err := svc.Converter(context.Background(), "saga-1")
	assertAppError(t, err, 500)
}

// --- ParseDate Tests ---

func TestParseDate_Success(t *testing.T) {
	saga := testSaga()
	svc := NewSagaService(repoWithSaga(saga))

	conv, err := svc.ParseDate(context.Background(), "saga-1", "10,191 AG")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if conv.Timestamp != 10191*chronology.SecondsPerYear {
		t.Errorf("expected timestamp %d, got %d", int64(10191)*chronology.SecondsPerYear, conv.Timestamp)
	}
	if conv.CanonDate != "10191 AG" {
		t.Errorf("expected canon date 10191 AG, got %s", conv.CanonDate)
	}
}

func TestParseDate_BeforeEpoch(t *testing.T) {
	saga := testSaga()
	svc := NewSagaService(repoWithSaga(saga))

	conv, err := svc.ParseDate(context.Background(), "saga-1", "32 BBY")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if conv.Timestamp != -32*chronology.SecondsPerYear {
		t.Errorf("expected timestamp %d, got %d", int64(-32)*chronology.SecondsPerYear, conv.Timestamp)
	}
}

func TestParseDate_EmptyDate(t *testing.T) {
	saga := testSaga()
	svc := NewSagaService(repoWithSaga(saga))

	_, err := svc.ParseDate(context.Background(), "saga-1", "   ")
	assertAppError(t, err, 400)
}

func TestParseDate_Unparseable(t *testing.T) {
	saga := testSaga()
	svc := NewSagaService(repoWithSaga(saga))

	_, err := svc.ParseDate(context.Background(), "saga-1", "sometime around lunch")
	assertAppError(t, err, 422)
}

func TestParseDate_SagaNotFound(t *testing.T) {
	svc := NewSagaService(&mockSagaRepo{})
	_, err := svc.ParseDate(context.Background(), "nope", "10 AG")
	assertAppError(t, err, 404)
}

func TestParseDate_UnknownAge(t *testing.T) {
	saga := testSaga()
	saga.CalendarKind = chronology.KindAgeBased
	saga.CalendarConfig = `{"ages":[{"name":"Third Age","start_timestamp":0}]}`
	svc := NewSagaService(repoWithSaga(saga))

	_, err := svc.ParseDate(context.Background(), "saga-1", "Fourth Age, Year 1")
	assertAppError(t, err, 422)
}

// --- FormatDate Tests ---

func TestFormatDate_Success(t *testing.T) {
	saga := testSaga()
	svc := NewSagaService(repoWithSaga(saga))

	conv, err := svc.FormatDate(context.Background(), "saga-1", -32*chronology.SecondsPerYear)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if conv.CanonDate != "32 BAG" {
		t.Errorf("expected 32 BAG, got %s", conv.CanonDate)
	}
	if conv.Timestamp != -32*chronology.SecondsPerYear {
		t.Errorf("expected timestamp echoed back, got %d", conv.Timestamp)
	}
}

func TestFormatDate_SagaNotFound(t *testing.T) {
	svc := NewSagaService(&mockSagaRepo{})
	_, err := svc.FormatDate(context.Background(), "nope", 0)
	assertAppError(t, err, 404)
}

// --- DescribeSpan Tests ---

func TestDescribeSpan_Success(t *testing.T) {
	saga := testSaga()
	svc := NewSagaService(repoWithSaga(saga))

	desc, err := svc.DescribeSpan(context.Background(), "saga-1", 0, 400*chronology.SecondsPerDay)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if desc != "1 year, 1 month" {
		t.Errorf("expected 1 year, 1 month, got %q", desc)
	}
}

func TestDescribeSpan_SagaNotFound(t *testing.T) {
	svc := NewSagaService(&mockSagaRepo{})
	_, err := svc.DescribeSpan(context.Background(), "nope", 0, 100)
	assertAppError(t, err, 404)
}

// --- Slugify Tests ---

func TestSlugify(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"simple", "The Galaxy", "the-galaxy"},
		{"punctuation", "Dune: Part Two!", "dune-part-two"},
		{"unicode stripped", "Arrakis 🏜️ Deep Desert", "arrakis-deep-desert"},
		{"collapses dashes", "a  --  b", "a-b"},
		{"empty falls back", "!!!", "saga"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Slugify(tt.in); got != tt.want {
				t.Errorf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

package sagas

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/loreline/internal/apperror"
	"github.com/keyxmakerx/loreline/internal/chronology"
)

// SagaHandler serves saga REST endpoints. Authenticates via API keys.
type SagaHandler struct {
	svc SagaService
}

// NewSagaHandler creates a new saga handler.
func NewSagaHandler(svc SagaService) *SagaHandler {
	return &SagaHandler{svc: svc}
}

// --- Saga CRUD ---

// List returns a page of sagas.
// GET /api/v1/sagas?page=N&per_page=M
func (h *SagaHandler) List(c echo.Context) error {
	ctx := c.Request().Context()

	opts := DefaultListOptions()
	if page, err := strconv.Atoi(c.QueryParam("page")); err == nil && page > 0 {
		opts.Page = page
	}
	if perPage, err := strconv.Atoi(c.QueryParam("per_page")); err == nil && perPage > 0 {
		opts.PerPage = perPage
	}

	sagas, total, err := h.svc.List(ctx, opts)
	if err != nil {
		return echo.NewHTTPError(apperror.SafeCode(err), apperror.SafeMessage(err))
	}
	if sagas == nil {
		sagas = []Saga{}
	}

	return c.JSON(http.StatusOK, map[string]any{
		"data":     sagas,
		"total":    total,
		"page":     opts.Page,
		"per_page": opts.PerPage,
	})
}

// Get returns a single saga by ID.
// GET /api/v1/sagas/:id
func (h *SagaHandler) Get(c echo.Context) error {
	sagaID := c.Param("id")
	ctx := c.Request().Context()

	saga, err := h.svc.GetByID(ctx, sagaID)
	if err != nil {
		return echo.NewHTTPError(apperror.SafeCode(err), apperror.SafeMessage(err))
	}

	return c.JSON(http.StatusOK, saga)
}

// GetBySlug returns a single saga by its URL slug.
// GET /api/v1/sagas/slug/:slug
func (h *SagaHandler) GetBySlug(c echo.Context) error {
	slug := c.Param("slug")
	ctx := c.Request().Context()

	saga, err := h.svc.GetBySlug(ctx, slug)
	if err != nil {
		return echo.NewHTTPError(apperror.SafeCode(err), apperror.SafeMessage(err))
	}

	return c.JSON(http.StatusOK, saga)
}

// Create creates a new saga.
// POST /api/v1/sagas
func (h *SagaHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()

	var req CreateSagaRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	saga, err := h.svc.Create(ctx, CreateSagaInput{
		Name:           req.Name,
		Description:    req.Description,
		Preset:         req.Preset,
		CalendarKind:   req.CalendarKind,
		CalendarConfig: req.CalendarConfig,
	})
	if err != nil {
		return echo.NewHTTPError(apperror.SafeCode(err), apperror.SafeMessage(err))
	}

	return c.JSON(http.StatusCreated, saga)
}

// Update modifies an existing saga.
// PUT /api/v1/sagas/:id
func (h *SagaHandler) Update(c echo.Context) error {
	sagaID := c.Param("id")
	ctx := c.Request().Context()

	var req UpdateSagaRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	saga, err := h.svc.Update(ctx, sagaID, UpdateSagaInput{
		Name:           req.Name,
		Description:    req.Description,
		CalendarKind:   req.CalendarKind,
		CalendarConfig: req.CalendarConfig,
	})
	if err != nil {
		return echo.NewHTTPError(apperror.SafeCode(err), apperror.SafeMessage(err))
	}

	return c.JSON(http.StatusOK, saga)
}

// Delete removes a saga and its timeline events.
// DELETE /api/v1/sagas/:id
func (h *SagaHandler) Delete(c echo.Context) error {
	sagaID := c.Param("id")
	ctx := c.Request().Context()

	if err := h.svc.Delete(ctx, sagaID); err != nil {
		return echo.NewHTTPError(apperror.SafeCode(err), apperror.SafeMessage(err))
	}

	return c.NoContent(http.StatusNoContent)
}

// --- Date Conversion ---

// ParseDate converts a date string into a timestamp using the saga's calendar.
// POST /api/v1/sagas/:id/dates/parse
func (h *SagaHandler) ParseDate(c echo.Context) error {
	sagaID := c.Param("id")
	ctx := c.Request().Context()

	var req ParseDateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	conv, err := h.svc.ParseDate(ctx, sagaID, req.Date)
	if err != nil {
		return echo.NewHTTPError(apperror.SafeCode(err), apperror.SafeMessage(err))
	}

	return c.JSON(http.StatusOK, conv)
}

// FormatDate renders a timestamp in the saga's calendar.
// POST /api/v1/sagas/:id/dates/format
func (h *SagaHandler) FormatDate(c echo.Context) error {
	sagaID := c.Param("id")
	ctx := c.Request().Context()

	var req FormatDateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	conv, err := h.svc.FormatDate(ctx, sagaID, req.Timestamp)
	if err != nil {
		return echo.NewHTTPError(apperror.SafeCode(err), apperror.SafeMessage(err))
	}

	return c.JSON(http.StatusOK, conv)
}

// DescribeSpan returns a human-readable duration between two timestamps.
// POST /api/v1/sagas/:id/dates/span
func (h *SagaHandler) DescribeSpan(c echo.Context) error {
	sagaID := c.Param("id")
	ctx := c.Request().Context()

	var req SpanRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	desc, err := h.svc.DescribeSpan(ctx, sagaID, req.Start, req.End)
	if err != nil {
		return echo.NewHTTPError(apperror.SafeCode(err), apperror.SafeMessage(err))
	}

	seconds := req.End - req.Start
	return c.JSON(http.StatusOK, map[string]any{
		"start_timestamp": req.Start,
		"end_timestamp":   req.End,
		"seconds":         seconds,
		"description":     desc,
		"years":           chronology.YearsDifference(req.Start, req.End),
	})
}

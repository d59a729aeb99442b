package timeline

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/loreline/internal/apperror"
)

// TimelineHandler handles HTTP requests for timeline events.
type TimelineHandler struct {
	svc TimelineService
}

// NewTimelineHandler creates a new timeline handler.
func NewTimelineHandler(svc TimelineService) *TimelineHandler {
	return &TimelineHandler{svc: svc}
}

// List handles GET /sagas/:id/events
func (h *TimelineHandler) List(c echo.Context) error {
	filter := DefaultEventFilter()

	if v := c.QueryParam("from"); v != "" {
		ts, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid from timestamp")
		}
		filter.From = &ts
	}
	if v := c.QueryParam("to"); v != "" {
		ts, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid to timestamp")
		}
		filter.To = &ts
	}
	if v := c.QueryParam("sort"); v != "" {
		filter.Sort = v
	}
	if v := c.QueryParam("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			filter.Page = n
		}
	}
	if v := c.QueryParam("per_page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			filter.PerPage = n
		}
	}

	events, total, err := h.svc.ListEvents(c.Request().Context(), c.Param("id"), filter)
	if err != nil {
		return echo.NewHTTPError(apperror.SafeCode(err), apperror.SafeMessage(err))
	}

	if events == nil {
		events = []Event{}
	}

	return c.JSON(http.StatusOK, map[string]any{
		"data":     events,
		"total":    total,
		"page":     filter.Page,
		"per_page": filter.PerPage,
	})
}

// Create handles POST /sagas/:id/events
func (h *TimelineHandler) Create(c echo.Context) error {
	var req CreateEventRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	event, err := h.svc.CreateEvent(c.Request().Context(), c.Param("id"), CreateEventInput{
		Title:       req.Title,
		Description: req.Description,
		Date:        req.Date,
	})
	if err != nil {
		return echo.NewHTTPError(apperror.SafeCode(err), apperror.SafeMessage(err))
	}

	return c.JSON(http.StatusCreated, event)
}

// Span handles GET /sagas/:id/events/span
func (h *TimelineHandler) Span(c echo.Context) error {
	span, err := h.svc.Span(c.Request().Context(), c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(apperror.SafeCode(err), apperror.SafeMessage(err))
	}

	return c.JSON(http.StatusOK, span)
}

// Get handles GET /events/:eventID
func (h *TimelineHandler) Get(c echo.Context) error {
	event, err := h.svc.GetEvent(c.Request().Context(), c.Param("eventID"))
	if err != nil {
		return echo.NewHTTPError(apperror.SafeCode(err), apperror.SafeMessage(err))
	}

	return c.JSON(http.StatusOK, event)
}

// Update handles PUT /events/:eventID
func (h *TimelineHandler) Update(c echo.Context) error {
	var req UpdateEventRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	event, err := h.svc.UpdateEvent(c.Request().Context(), c.Param("eventID"), UpdateEventInput{
		Title:       req.Title,
		Description: req.Description,
		Date:        req.Date,
	})
	if err != nil {
		return echo.NewHTTPError(apperror.SafeCode(err), apperror.SafeMessage(err))
	}

	return c.JSON(http.StatusOK, event)
}

// Delete handles DELETE /events/:eventID
func (h *TimelineHandler) Delete(c echo.Context) error {
	if err := h.svc.DeleteEvent(c.Request().Context(), c.Param("eventID")); err != nil {
		return echo.NewHTTPError(apperror.SafeCode(err), apperror.SafeMessage(err))
	}

	return c.NoContent(http.StatusNoContent)
}

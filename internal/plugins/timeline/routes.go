package timeline

import (
	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/loreline/internal/plugins/apikeys"
)

// RegisterAPIRoutes registers timeline endpoints on the authenticated v1
// group. Event collections hang off their saga; single events are addressed
// top-level by ID.
func RegisterAPIRoutes(v1 *echo.Group, h *TimelineHandler) {
	read := apikeys.RequirePermission(apikeys.PermRead)
	write := apikeys.RequirePermission(apikeys.PermWrite)

	v1.GET("/sagas/:id/events", h.List, read)
	v1.POST("/sagas/:id/events", h.Create, write)
	v1.GET("/sagas/:id/events/span", h.Span, read)

	v1.GET("/events/:eventID", h.Get, read)
	v1.PUT("/events/:eventID", h.Update, write)
	v1.DELETE("/events/:eventID", h.Delete, write)
}

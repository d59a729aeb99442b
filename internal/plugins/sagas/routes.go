package sagas

import (
	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/loreline/internal/plugins/apikeys"
)

// RegisterAPIRoutes adds saga endpoints under /api/v1/. The group is expected
// to already carry API key authentication and rate limiting. Permission
// middleware enforces read/write access levels per route.
func RegisterAPIRoutes(v1 *echo.Group, h *SagaHandler) {
	// Read endpoints (require "read" permission).
	v1.GET("/sagas", h.List, apikeys.RequirePermission(apikeys.PermRead))
	v1.GET("/sagas/:id", h.Get, apikeys.RequirePermission(apikeys.PermRead))
	v1.GET("/sagas/slug/:slug", h.GetBySlug, apikeys.RequirePermission(apikeys.PermRead))

	// Write endpoints (require "write" permission).
	v1.POST("/sagas", h.Create, apikeys.RequirePermission(apikeys.PermWrite))
	v1.PUT("/sagas/:id", h.Update, apikeys.RequirePermission(apikeys.PermWrite))
	v1.DELETE("/sagas/:id", h.Delete, apikeys.RequirePermission(apikeys.PermWrite))

	// Date conversion endpoints. POST because date text arrives in the body,
	// but these are pure reads against the saga's calendar.
	v1.POST("/sagas/:id/dates/parse", h.ParseDate, apikeys.RequirePermission(apikeys.PermRead))
	v1.POST("/sagas/:id/dates/format", h.FormatDate, apikeys.RequirePermission(apikeys.PermRead))
	v1.POST("/sagas/:id/dates/span", h.DescribeSpan, apikeys.RequirePermission(apikeys.PermRead))
}

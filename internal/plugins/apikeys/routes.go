package apikeys

import (
	"github.com/labstack/echo/v4"
)

// RegisterAPIRoutes adds key management endpoints under /api/v1/. All routes
// require the "admin" permission level; only admin keys can mint or revoke
// other keys.
func RegisterAPIRoutes(v1 *echo.Group, h *KeyHandler) {
	keys := v1.Group("/keys", RequirePermission(PermAdmin))

	keys.GET("", h.List)
	keys.POST("", h.Create)
	keys.PUT("/:keyID/toggle", h.Toggle)
	keys.DELETE("/:keyID", h.Revoke)
}

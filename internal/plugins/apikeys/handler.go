package apikeys

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/loreline/internal/apperror"
)

// KeyHandler serves API key management endpoints.
type KeyHandler struct {
	svc APIKeyService
}

// NewKeyHandler creates a new key management handler.
func NewKeyHandler(svc APIKeyService) *KeyHandler {
	return &KeyHandler{svc: svc}
}

// List returns all registered API keys. Hashes are never included.
// GET /api/v1/keys
func (h *KeyHandler) List(c echo.Context) error {
	ctx := c.Request().Context()

	keys, err := h.svc.ListKeys(ctx)
	if err != nil {
		return echo.NewHTTPError(apperror.SafeCode(err), apperror.SafeMessage(err))
	}
	if keys == nil {
		keys = []APIKey{}
	}

	return c.JSON(http.StatusOK, map[string]any{
		"data":  keys,
		"total": len(keys),
	})
}

// Create generates a new API key. The response carries the plaintext key
// exactly once.
// POST /api/v1/keys
func (h *KeyHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()

	var req CreateKeyRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	result, err := h.svc.CreateKey(ctx, CreateAPIKeyInput{
		Name:       req.Name,
		Permission: Permission(req.Permission),
		RateLimit:  req.RateLimit,
		ExpiresAt:  req.ExpiresAt,
	})
	if err != nil {
		return echo.NewHTTPError(apperror.SafeCode(err), apperror.SafeMessage(err))
	}

	return c.JSON(http.StatusCreated, result)
}

// Toggle activates or deactivates a key based on its current state.
// PUT /api/v1/keys/:keyID/toggle
func (h *KeyHandler) Toggle(c echo.Context) error {
	keyID, err := strconv.Atoi(c.Param("keyID"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid key ID")
	}
	ctx := c.Request().Context()

	key, err := h.svc.GetKey(ctx, keyID)
	if err != nil {
		return echo.NewHTTPError(apperror.SafeCode(err), apperror.SafeMessage(err))
	}

	if key.IsActive {
		err = h.svc.DeactivateKey(ctx, keyID)
	} else {
		err = h.svc.ActivateKey(ctx, keyID)
	}
	if err != nil {
		return echo.NewHTTPError(apperror.SafeCode(err), apperror.SafeMessage(err))
	}

	return c.JSON(http.StatusOK, map[string]any{
		"id":        keyID,
		"is_active": !key.IsActive,
	})
}

// Revoke permanently deletes a key.
// DELETE /api/v1/keys/:keyID
func (h *KeyHandler) Revoke(c echo.Context) error {
	keyID, err := strconv.Atoi(c.Param("keyID"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid key ID")
	}
	ctx := c.Request().Context()

	if err := h.svc.RevokeKey(ctx, keyID); err != nil {
		return echo.NewHTTPError(apperror.SafeCode(err), apperror.SafeMessage(err))
	}

	return c.NoContent(http.StatusNoContent)
}

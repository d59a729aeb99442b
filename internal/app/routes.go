package app

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/loreline/internal/middleware"
	"github.com/keyxmakerx/loreline/internal/plugins/apikeys"
	"github.com/keyxmakerx/loreline/internal/plugins/sagas"
	"github.com/keyxmakerx/loreline/internal/plugins/timeline"
	"github.com/keyxmakerx/loreline/internal/presets"
)

// RegisterRoutes sets up all application routes. It builds each plugin's
// repository, service, and handler, then delegates to the plugin's route
// registration function.
//
// This is the single place where all routes are aggregated. When a new
// plugin is added, its routes are registered here.
func (a *App) RegisterRoutes() {
	e := a.Echo

	// --- Public Routes (no API key required) ---

	// Health check endpoint for Docker/Cosmos health monitoring. Pings both
	// backing stores so orchestrators restart the container when either is
	// unreachable.
	e.GET("/healthz", a.healthz)

	// Built-in calendar presets are public reference data, rate limited
	// per IP since there is no key to limit on.
	e.GET("/api/v1/presets", listPresets, middleware.RateLimit(60, time.Minute))

	// --- Plugin Construction ---

	keyRepo := apikeys.NewAPIKeyRepository(a.DB)
	keySvc := apikeys.NewAPIKeyService(keyRepo)
	keyHandler := apikeys.NewKeyHandler(keySvc)

	sagaRepo := sagas.NewSagaRepository(a.DB)
	sagaSvc := sagas.NewSagaService(sagaRepo)
	sagaHandler := sagas.NewSagaHandler(sagaSvc)

	timelineRepo := timeline.NewTimelineRepository(a.DB)
	timelineCache := timeline.NewCache(a.Redis, a.Config.Cache.TimelineTTL)
	timelineSvc := timeline.NewTimelineService(timelineRepo, sagaSvc, timelineCache)
	timelineHandler := timeline.NewTimelineHandler(timelineSvc)

	// --- API Routes ---
	// Everything under /api/v1 requires a valid API key and is rate limited
	// per key. Permission checks happen per route inside each plugin.
	v1 := e.Group("/api/v1",
		apikeys.RequireAPIKey(keySvc),
		apikeys.RateLimit(),
	)

	sagas.RegisterAPIRoutes(v1, sagaHandler)
	timeline.RegisterAPIRoutes(v1, timelineHandler)
	apikeys.RegisterAPIRoutes(v1, keyHandler)
}

// healthz reports readiness of the HTTP server and its backing stores.
func (a *App) healthz(c echo.Context) error {
	ctx := c.Request().Context()

	if err := a.DB.PingContext(ctx); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "degraded",
			"reason": "database unreachable",
		})
	}
	if err := a.Redis.Ping(ctx).Err(); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "degraded",
			"reason": "redis unreachable",
		})
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// listPresets returns the built-in calendar presets.
func listPresets(c echo.Context) error {
	all := presets.Registry()
	return c.JSON(http.StatusOK, map[string]any{
		"data":  all,
		"total": len(all),
	})
}

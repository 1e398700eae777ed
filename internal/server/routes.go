package server

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

// RegisterRoutes configures all API routes, middleware, and error handlers
func RegisterRoutes(e *echo.Echo, h *Handlers, cfg ServerConfig) {
	// Set custom error handler for consistent JSON responses
	e.HTTPErrorHandler = NotFoundJSON()

	// Apply global middleware
	e.Use(SetJSONContentType) // Ensure all responses are JSON
	e.Use(SetNoCacheHeaders)  // Prevent caching of API responses

	// Optional API key authentication
	if cfg.APIKey != "" {
		e.Use(middleware.KeyAuthWithConfig(middleware.KeyAuthConfig{
			KeyLookup: "header:X-API-Key",
			Validator: func(key string, c echo.Context) (bool, error) {
				return key == cfg.APIKey, nil
			},
		}))
	}

	// API v1 routes
	v1 := e.Group("/v1")
	v1.GET("/health", h.Health)                     // Health check endpoint
	v1.GET("/events/recent", h.RecentEvents)        // Recent liquidity events
	v1.GET("/events/:signature", h.Event)           // Single event by signature
	v1.GET("/prices/:mint", h.Price)                // Latest price for a mint

	// Trading session endpoints; mutations are rate limited since each
	// create or update can trigger a live trade.
	sessions := v1.Group("/sessions")
	sessions.GET("", h.SessionList)
	sessions.GET("/:id", h.SessionGet)

	mutations := v1.Group("/sessions")
	mutations.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(1), // 1 mutation per second
		Burst:     5,
		ExpiresIn: 2 * time.Minute,
	})))
	mutations.POST("", h.SessionCreate)
	mutations.PATCH("/:id", h.SessionUpdate)
	mutations.DELETE("/:id", h.SessionCancel)

	// Catch-all route for 404 responses
	e.RouteNotFound("/*", func(c echo.Context) error {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "not found", Code: http.StatusNotFound})
	})
}

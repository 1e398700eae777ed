package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"raydium-lp-sniper/internal/models"
	"raydium-lp-sniper/internal/sniper"
	"raydium-lp-sniper/internal/storage"
)

// EventCache is the Redis-backed read path for hot data. Optional; when nil
// the handlers fall back to the event store.
type EventCache interface {
	RecentEvents(ctx context.Context, limit int) ([]*models.LiquidityEvent, error)
	GetPrice(ctx context.Context, mint string) (float64, bool, error)
}

// Handlers contains all dependencies for API endpoint handlers
type Handlers struct {
	Cache    EventCache         // Redis-backed event cache (optional)
	Store    storage.EventStore // Authoritative event store
	Registry *sniper.Registry   // Live trading sessions (nil on read-only deployments)
	DevMode  bool               // Enable detailed error responses in development
	Logger   *logrus.Logger     // Structured logger
}

// err returns a standardized JSON error response
// In dev mode, includes additional error details for debugging
func (h *Handlers) err(c echo.Context, code int, msg string, details any) error {
	resp := ErrorResponse{Error: msg, Code: code}
	if h.DevMode && details != nil {
		resp.Details = details
	}
	return c.JSON(code, resp)
}

// withTimeout creates a context with timeout, defaulting to 10 seconds if duration <= 0
func (h *Handlers) withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = 10 * time.Second
	}
	return context.WithTimeout(ctx, d)
}

// Health returns a simple health check endpoint
func (h *Handlers) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{OK: true})
}

// RecentEvents returns the most recent liquidity events with optional limit
// parameter (default: 100, range: 1-200). Reads from cache when available,
// falling back to the event store.
func (h *Handlers) RecentEvents(c echo.Context) error {
	limitStr := c.QueryParam("limit")
	limit := 100
	if limitStr != "" {
		n, err := strconv.Atoi(limitStr)
		if err != nil {
			return h.err(c, http.StatusBadRequest, "invalid limit", map[string]any{"limit": "must be an integer"})
		}
		limit = n
	}
	if limit < 1 || limit > 200 {
		return h.err(c, http.StatusBadRequest, "invalid limit", map[string]any{"limit": "min 1 max 200"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if h.Cache != nil {
		items, err := h.Cache.RecentEvents(ctx, limit)
		if err == nil {
			return c.JSON(http.StatusOK, map[string]any{"items": items})
		}
		h.Logger.WithError(err).Warn("event cache unavailable, reading store")
	}

	items, err := h.Store.RecentEvents(ctx, limit)
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to get events", nil)
	}
	return c.JSON(http.StatusOK, map[string]any{"items": items})
}

// Event returns one stored liquidity event by transaction signature.
func (h *Handlers) Event(c echo.Context) error {
	signature := strings.TrimSpace(c.Param("signature"))
	if signature == "" {
		return h.err(c, http.StatusBadRequest, "invalid signature", nil)
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	event, err := h.Store.EventBySignature(ctx, signature)
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to get event", nil)
	}
	if event == nil {
		return h.err(c, http.StatusNotFound, "event not found", nil)
	}
	return c.JSON(http.StatusOK, event)
}

// Price returns the latest observed price for a token mint
func (h *Handlers) Price(c echo.Context) error {
	mint := strings.TrimSpace(c.Param("mint"))
	if mint == "" {
		return h.err(c, http.StatusBadRequest, "invalid mint", nil)
	}
	if h.Cache == nil {
		return h.err(c, http.StatusServiceUnavailable, "price cache unavailable", nil)
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	price, found, err := h.Cache.GetPrice(ctx, mint)
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to get price", nil)
	}
	if !found {
		return h.err(c, http.StatusNotFound, "no price recorded", nil)
	}
	return c.JSON(http.StatusOK, PriceResponse{Mint: mint, Price: price})
}

// SessionCreate opens a trading session for a mint and returns its handle.
// A failed entry buy still creates the session; the response carries 202
// so the caller knows the position is not open yet.
func (h *Handlers) SessionCreate(c echo.Context) error {
	if h.Registry == nil {
		return h.err(c, http.StatusServiceUnavailable, "trading disabled", nil)
	}

	var req SessionCreateRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}
	if strings.TrimSpace(req.Mint) == "" {
		return h.err(c, http.StatusBadRequest, "invalid mint", map[string]any{"mint": "required"})
	}

	sellTarget, err := parseSellTarget(req.SellTarget)
	if err != nil {
		return h.err(c, http.StatusBadRequest, "invalid sell_target", map[string]any{"sell_target": "must be a decimal"})
	}

	id, err := h.Registry.AddSession(c.Request().Context(), req.Mint, req.BuyAmount, sellTarget)
	if err != nil {
		if errors.Is(err, sniper.ErrTradeExecution) {
			info, infoErr := h.Registry.Session(id)
			if infoErr != nil {
				return h.err(c, http.StatusInternalServerError, "failed to create session", nil)
			}
			return c.JSON(http.StatusAccepted, SessionResponse{Session: info})
		}
		return h.err(c, http.StatusInternalServerError, "failed to create session", nil)
	}

	info, err := h.Registry.Session(id)
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to create session", nil)
	}
	return c.JSON(http.StatusCreated, SessionResponse{Session: info})
}

// SessionList returns all live sessions
func (h *Handlers) SessionList(c echo.Context) error {
	if h.Registry == nil {
		return h.err(c, http.StatusServiceUnavailable, "trading disabled", nil)
	}
	return c.JSON(http.StatusOK, SessionListResponse{Items: h.Registry.Sessions()})
}

// SessionGet returns one session by handle
func (h *Handlers) SessionGet(c echo.Context) error {
	if h.Registry == nil {
		return h.err(c, http.StatusServiceUnavailable, "trading disabled", nil)
	}

	info, err := h.Registry.Session(c.Param("id"))
	if err != nil {
		return h.sessionErr(c, err)
	}
	return c.JSON(http.StatusOK, SessionResponse{Session: info})
}

// SessionUpdate applies a partial update to a live session
func (h *Handlers) SessionUpdate(c echo.Context) error {
	if h.Registry == nil {
		return h.err(c, http.StatusServiceUnavailable, "trading disabled", nil)
	}

	var req SessionUpdateRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}

	id := c.Param("id")

	if req.SellTarget != nil {
		target, err := parseSellTarget(*req.SellTarget)
		if err != nil {
			return h.err(c, http.StatusBadRequest, "invalid sell_target", map[string]any{"sell_target": "must be a decimal"})
		}
		if err := h.Registry.SetSellTarget(id, target); err != nil {
			return h.sessionErr(c, err)
		}
	}

	if req.BuyAmount != nil {
		if err := h.Registry.SetBuyAmount(c.Request().Context(), id, *req.BuyAmount); err != nil {
			if errors.Is(err, sniper.ErrTradeExecution) {
				h.Logger.WithField("session", id).Warn("entry buy failed, session still watching")
			} else {
				return h.sessionErr(c, err)
			}
		}
	}

	info, err := h.Registry.Session(id)
	if err != nil {
		return h.sessionErr(c, err)
	}
	return c.JSON(http.StatusOK, SessionResponse{Session: info})
}

// SessionCancel stops and removes a session
func (h *Handlers) SessionCancel(c echo.Context) error {
	if h.Registry == nil {
		return h.err(c, http.StatusServiceUnavailable, "trading disabled", nil)
	}

	if err := h.Registry.Cancel(c.Param("id")); err != nil {
		return h.sessionErr(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handlers) sessionErr(c echo.Context, err error) error {
	switch {
	case errors.Is(err, sniper.ErrSessionNotFound):
		return h.err(c, http.StatusNotFound, "session not found", nil)
	case errors.Is(err, sniper.ErrSessionClosed):
		return h.err(c, http.StatusConflict, "session closed", nil)
	default:
		return h.err(c, http.StatusInternalServerError, "session operation failed", nil)
	}
}

func parseSellTarget(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

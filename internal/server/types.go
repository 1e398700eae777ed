package server

import "raydium-lp-sniper/internal/sniper"

// ErrorResponse represents a standardized error response format
type ErrorResponse struct {
	Error   string `json:"error"`             // Human-readable error message
	Code    int    `json:"code"`              // HTTP status code
	Details any    `json:"details,omitempty"` // Additional error details (dev mode only)
}

// HealthResponse represents the health check response
type HealthResponse struct {
	OK bool `json:"ok"` // Service health status
}

// PriceResponse represents the latest observed price for a token mint
type PriceResponse struct {
	Mint  string  `json:"mint"`  // Token mint address (base-58)
	Price float64 `json:"price"` // Latest observed price
}

// SessionCreateRequest represents a request to open a trading session
type SessionCreateRequest struct {
	Mint       string `json:"mint"`        // Token mint to trade
	BuyAmount  uint64 `json:"buy_amount"`  // Entry size in quote base units (0 = watch only)
	SellTarget string `json:"sell_target"` // Sell trigger price, decimal string ("" or "0" = never sell)
}

// SessionUpdateRequest represents a partial update to a live session
type SessionUpdateRequest struct {
	BuyAmount  *uint64 `json:"buy_amount,omitempty"`  // New entry size
	SellTarget *string `json:"sell_target,omitempty"` // New sell trigger price
}

// SessionResponse wraps one session view
type SessionResponse struct {
	Session *sniper.SessionInfo `json:"session"`
}

// SessionListResponse wraps the full session list
type SessionListResponse struct {
	Items []*sniper.SessionInfo `json:"items"`
}

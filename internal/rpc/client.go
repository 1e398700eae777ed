package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// ErrRetrieval marks lookup failures from the ledger RPC: transport errors,
// exhausted retries, and missing transactions. Callers decide whether to
// retry; the client itself only retries transient transport failures.
var ErrRetrieval = errors.New("ledger retrieval failed")

// Client is an HTTP client with retry, timeout and rate-limit support for
// Solana JSON-RPC.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	maxRetries   int
	retryBackoff time.Duration
	limiter      *rate.Limiter
	logger       *logrus.Logger
}

// ClientConfig holds configuration for the RPC client
type ClientConfig struct {
	BaseURL      string
	Timeout      time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
	// RequestsPerSecond throttles outgoing calls; public endpoints rate
	// limit aggressively. Zero disables throttling.
	RequestsPerSecond float64
	Logger            *logrus.Logger
}

// NewClient creates a new RPC client with retry support
func NewClient(cfg ClientConfig) *Client {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		baseURL:      cfg.BaseURL,
		maxRetries:   cfg.MaxRetries,
		retryBackoff: cfg.RetryBackoff,
		limiter:      limiter,
		logger:       cfg.Logger,
	}
}

// Call makes a JSON-RPC call with retry logic
func (c *Client) Call(ctx context.Context, method string, params interface{}, result interface{}) error {
	body := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  method,
		"params":  params,
	}

	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	var lastErr error
	backoff := c.retryBackoff

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			c.logger.WithFields(logrus.Fields{
				"attempt": attempt,
				"backoff": backoff,
				"method":  method,
			}).Debug("retrying RPC call")

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2 // exponential backoff
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		resp, err := c.doRequest(ctx, data)
		if err != nil {
			lastErr = err
			continue
		}

		if err := json.Unmarshal(resp, result); err != nil {
			return fmt.Errorf("failed to unmarshal response: %w", err)
		}

		return nil
	}

	return fmt.Errorf("%w: max retries exceeded: %v", ErrRetrieval, lastErr)
}

func (c *Client) doRequest(ctx context.Context, data []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL, bytes.NewBuffer(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("rate limited (429)")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	return body, nil
}

// GetSignaturesForAddress fetches transaction signatures for a program address
func (c *Client) GetSignaturesForAddress(ctx context.Context, address string, opts map[string]interface{}) (*SignaturesResponse, error) {
	params := []interface{}{address, opts}

	var result SignaturesResponse
	if err := c.Call(ctx, "getSignaturesForAddress", params, &result); err != nil {
		return nil, err
	}

	if result.Error != nil {
		return nil, fmt.Errorf("%w: %v", ErrRetrieval, result.Error)
	}

	return &result, nil
}

// GetTransaction fetches a confirmed transaction with its static account
// list and compiled instructions ("json" encoding keeps the raw indices the
// layout extractor binds against).
func (c *Client) GetTransaction(ctx context.Context, signature string) (*TransactionResult, error) {
	params := []interface{}{
		signature,
		map[string]interface{}{
			"encoding":                       "json",
			"commitment":                     "confirmed",
			"maxSupportedTransactionVersion": 0,
		},
	}

	var result TransactionResponse
	if err := c.Call(ctx, "getTransaction", params, &result); err != nil {
		return nil, err
	}

	if result.Error != nil {
		return nil, fmt.Errorf("%w: %v", ErrRetrieval, result.Error)
	}
	if result.Result == nil || result.Result.Transaction == nil {
		return nil, fmt.Errorf("%w: transaction %s not found", ErrRetrieval, signature)
	}

	return result.Result, nil
}

// GetBalance returns the lamport balance of an account.
func (c *Client) GetBalance(ctx context.Context, address string) (uint64, error) {
	params := []interface{}{address, map[string]interface{}{"commitment": "confirmed"}}

	var result BalanceResponse
	if err := c.Call(ctx, "getBalance", params, &result); err != nil {
		return 0, err
	}

	if result.Error != nil {
		return 0, fmt.Errorf("%w: %v", ErrRetrieval, result.Error)
	}

	return result.Result.Value, nil
}

// GetTokenAccountBalance returns the raw token amount held by an SPL token
// account, used by the vault price oracle.
func (c *Client) GetTokenAccountBalance(ctx context.Context, account string) (uint64, uint8, error) {
	params := []interface{}{account, map[string]interface{}{"commitment": "confirmed"}}

	var result TokenBalanceResponse
	if err := c.Call(ctx, "getTokenAccountBalance", params, &result); err != nil {
		return 0, 0, err
	}

	if result.Error != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrRetrieval, result.Error)
	}

	amount, err := strconv.ParseUint(result.Result.Value.Amount, 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid amount format: %w", err)
	}

	return amount, result.Result.Value.Decimals, nil
}

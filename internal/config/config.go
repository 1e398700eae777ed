package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"raydium-lp-sniper/internal/constants"
)

type Config struct {
	// RPC settings
	RPCUrl            string
	PollInterval      time.Duration
	RequestsPerSecond float64

	// Watched program
	ProgramID       string
	MinPoolAccounts int

	// Postgres settings
	PostgresDSN string

	// Redis settings
	RedisAddr string

	// ClickHouse settings
	ClickHouseDSN string

	// HTTP client settings
	HTTPTimeout  time.Duration
	MaxRetries   int
	RetryBackoff time.Duration

	// Stream provider: "rpc" polls, "ws" subscribes
	StreamProvider string
	WSUrl          string

	// API server settings
	APIAddr string
	APIKey  string
	DevMode bool

	// Sniper settings
	SessionPollInterval time.Duration
	AutoRegister        bool
	SnipeBuyAmount      uint64
	SnipeSellTarget     string
	WalletAddress       string
}

func Load() *Config {
	return &Config{
		// RPC
		RPCUrl:            getEnv("SOLANA_RPC_URL", "https://api.mainnet-beta.solana.com"),
		PollInterval:      getDurationEnv("POLL_INTERVAL", 10*time.Second),
		RequestsPerSecond: getFloatEnv("RPC_REQUESTS_PER_SECOND", 5),

		// Program
		ProgramID:       getEnv("RAYDIUM_AMM_PROGRAM_ID", constants.RaydiumAMMProgramID),
		MinPoolAccounts: getIntEnv("MIN_POOL_ACCOUNTS", constants.MinPoolAccounts),

		// Postgres
		PostgresDSN: getEnv("POSTGRES_DSN", ""),

		// Redis
		RedisAddr: getEnv("REDIS_ADDR", "localhost:6379"),

		// ClickHouse
		ClickHouseDSN: getEnv("CLICKHOUSE_DSN", ""),

		// HTTP
		HTTPTimeout:  getDurationEnv("HTTP_TIMEOUT", 30*time.Second),
		MaxRetries:   getIntEnv("MAX_RETRIES", 5),
		RetryBackoff: getDurationEnv("RETRY_BACKOFF", 2*time.Second),

		// Stream
		StreamProvider: getEnv("STREAM_PROVIDER", "rpc"),
		WSUrl:          getEnv("SOLANA_WS_URL", ""),

		// API
		APIAddr: getEnv("API_ADDR", ":8090"),
		APIKey:  getEnv("API_KEY", ""),
		DevMode: getBoolEnv("DEV_MODE", false),

		// Sniper
		SessionPollInterval: getDurationEnv("SESSION_POLL_INTERVAL", 60*time.Second),
		AutoRegister:        getBoolEnv("SNIPE_AUTO_REGISTER", false),
		SnipeBuyAmount:      getUint64Env("SNIPE_BUY_AMOUNT", 0),
		SnipeSellTarget:     getEnv("SNIPE_SELL_TARGET", ""),
		WalletAddress:       getEnv("WALLET_ADDRESS", ""),
	}
}

// Validate checks the loaded configuration for values that would fail at
// startup anyway, with a clearer message.
func (c *Config) Validate() error {
	if c.RPCUrl == "" {
		return fmt.Errorf("SOLANA_RPC_URL must not be empty")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("POLL_INTERVAL must be positive")
	}
	if c.SessionPollInterval <= 0 {
		return fmt.Errorf("SESSION_POLL_INTERVAL must be positive")
	}
	switch c.StreamProvider {
	case "rpc":
	case "ws":
		if c.WSUrl == "" {
			return fmt.Errorf("SOLANA_WS_URL required when STREAM_PROVIDER=ws")
		}
	default:
		return fmt.Errorf("STREAM_PROVIDER must be rpc or ws, got %q", c.StreamProvider)
	}
	if c.AutoRegister && c.SnipeBuyAmount == 0 {
		return fmt.Errorf("SNIPE_BUY_AMOUNT required when SNIPE_AUTO_REGISTER is set")
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getIntEnv(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getUint64Env(key string, defaultVal uint64) uint64 {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.ParseUint(val, 10, 64); err == nil {
			return i
		}
	}
	return defaultVal
}

func getFloatEnv(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getBoolEnv(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

func getDurationEnv(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

package constants

import "time"

// Raydium liquidity-pool v4 program
const (
	RaydiumAMMProgramID = "675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8"

	// Instruction discriminants for the v4 liquidity instructions
	AddLiquidityTag    uint8 = 3
	RemoveLiquidityTag uint8 = 4
)

// Account layout thresholds for pool-creation transactions
const (
	// MinPoolAccounts is the smallest static account list worth inspecting.
	MinPoolAccounts = 7
	// FullPoolAccounts is the complete v4 role count.
	FullPoolAccounts = 20
)

// LamportsPerSOL converts raw balances to SOL.
const LamportsPerSOL = 1_000_000_000

// Redis keys
const (
	RedisKeyRecentEvents    = "liquidity:recent"
	RedisKeyPricePrefix     = "price:"
	RedisKeyProcessedPrefix = "processed:"
)

// Redis Pub/Sub channels
const (
	PubSubChannelAll        = "liquidity:all"
	PubSubChannelPoolPrefix = "liquidity:pool:"
)

// Limits
const (
	MaxRecentEvents    = 100
	SignatureBatchSize = 25
	// ProcessedTTL bounds the Redis dedupe guard; the Postgres unique
	// constraint stays authoritative after expiry.
	ProcessedTTL = 24 * time.Hour
)

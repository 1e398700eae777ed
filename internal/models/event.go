package models

import "time"

// Liquidity event types
const (
	EventTypeAdd    = "add"
	EventTypeRemove = "remove"
)

// Fixed-side labels for add-liquidity events
const (
	FixedSideBase  = "base"
	FixedSideQuote = "quote"
)

// LiquidityEvent is the persisted record for one decoded liquidity
// instruction. Created once per qualifying transaction, immutable after
// insertion; the event store enforces uniqueness on Signature.
type LiquidityEvent struct {
	Signature      string        `json:"signature"`
	EventType      string        `json:"event_type"` // "add" | "remove"
	InstructionTag uint8         `json:"instruction_tag"`
	BaseAmountIn   uint64        `json:"base_amount_in,omitempty"`
	QuoteAmountIn  uint64        `json:"quote_amount_in,omitempty"`
	AmountIn       uint64        `json:"amount_in,omitempty"`
	FixedSide      string        `json:"fixed_side,omitempty"`
	LiquiditySOL   float64       `json:"liquidity_sol"`
	CapturedAt     time.Time     `json:"captured_at"`
	Pool           *PoolSnapshot `json:"pool,omitempty"`
}

// PoolSnapshot carries the 20 protocol roles of a v4 pool in canonical
// base-58 text form, the shape exchanged with collaborators and stored
// alongside the event.
type PoolSnapshot struct {
	ProgramID        string `json:"program_id"`
	AmmID            string `json:"amm_id"`
	AmmAuthority     string `json:"amm_authority"`
	AmmOpenOrders    string `json:"amm_open_orders"`
	LpMint           string `json:"lp_mint"`
	CoinMint         string `json:"coin_mint"`
	PcMint           string `json:"pc_mint"`
	CoinVault        string `json:"coin_vault"`
	PcVault          string `json:"pc_vault"`
	WithdrawQueue    string `json:"withdraw_queue"`
	AmmTargetOrders  string `json:"amm_target_orders"`
	PoolTempLp       string `json:"pool_temp_lp"`
	MarketProgramID  string `json:"market_program_id"`
	MarketID         string `json:"market_id"`
	UserWallet       string `json:"user_wallet"`
	UserCoinVault    string `json:"user_coin_vault"`
	UserPcVault      string `json:"user_pc_vault"`
	UserLpVault      string `json:"user_lp_vault"`
	AmmConfigID      string `json:"amm_config_id"`
	FeeDestinationID string `json:"fee_destination_id"`
}

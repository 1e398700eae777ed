package raydium

import (
	"fmt"

	"github.com/gagliardetto/solana-go"

	"raydium-lp-sniper/internal/models"
)

// Role names one protocol-defined account position in a pool-creation
// transaction's static account list.
type Role string

const (
	RoleProgramID        Role = "program_id"
	RoleAmmID            Role = "amm_id"
	RoleAmmAuthority     Role = "amm_authority"
	RoleAmmOpenOrders    Role = "amm_open_orders"
	RoleLpMint           Role = "lp_mint"
	RoleCoinMint         Role = "coin_mint"
	RolePcMint           Role = "pc_mint"
	RoleCoinVault        Role = "coin_vault"
	RolePcVault          Role = "pc_vault"
	RoleWithdrawQueue    Role = "withdraw_queue"
	RoleAmmTargetOrders  Role = "amm_target_orders"
	RolePoolTempLp       Role = "pool_temp_lp"
	RoleMarketProgramID  Role = "market_program_id"
	RoleMarketID         Role = "market_id"
	RoleUserWallet       Role = "user_wallet"
	RoleUserCoinVault    Role = "user_coin_vault"
	RoleUserPcVault      Role = "user_pc_vault"
	RoleUserLpVault      Role = "user_lp_vault"
	RoleAmmConfigID      Role = "amm_config_id"
	RoleFeeDestinationID Role = "fee_destination_id"
)

// Layout is a versioned positional account binding: role name to index in
// the static account list. Future protocol revisions add a new table
// instead of editing decode code.
type Layout struct {
	Version int
	Roles   map[Role]int
}

// Size is the number of accounts the layout requires.
func (l Layout) Size() int { return len(l.Roles) }

// LayoutV4 is the Raydium liquidity-pool v4 account order.
var LayoutV4 = Layout{
	Version: 4,
	Roles: map[Role]int{
		RoleProgramID:        0,
		RoleAmmID:            1,
		RoleAmmAuthority:     2,
		RoleAmmOpenOrders:    3,
		RoleLpMint:           4,
		RoleCoinMint:         5,
		RolePcMint:           6,
		RoleCoinVault:        7,
		RolePcVault:          8,
		RoleWithdrawQueue:    9,
		RoleAmmTargetOrders:  10,
		RolePoolTempLp:       11,
		RoleMarketProgramID:  12,
		RoleMarketID:         13,
		RoleUserWallet:       14,
		RoleUserCoinVault:    15,
		RoleUserPcVault:      16,
		RoleUserLpVault:      17,
		RoleAmmConfigID:      18,
		RoleFeeDestinationID: 19,
	},
}

// PoolAccounts is an immutable snapshot of the 20 protocol roles for one
// AMM pool. All roles must be present; a shorter account list is a decode
// failure, never a partial value.
type PoolAccounts struct {
	ProgramID        solana.PublicKey
	AmmID            solana.PublicKey
	AmmAuthority     solana.PublicKey
	AmmOpenOrders    solana.PublicKey
	LpMint           solana.PublicKey
	CoinMint         solana.PublicKey
	PcMint           solana.PublicKey
	CoinVault        solana.PublicKey
	PcVault          solana.PublicKey
	WithdrawQueue    solana.PublicKey
	AmmTargetOrders  solana.PublicKey
	PoolTempLp       solana.PublicKey
	MarketProgramID  solana.PublicKey
	MarketID         solana.PublicKey
	UserWallet       solana.PublicKey
	UserCoinVault    solana.PublicKey
	UserPcVault      solana.PublicKey
	UserLpVault      solana.PublicKey
	AmmConfigID      solana.PublicKey
	FeeDestinationID solana.PublicKey
}

// Bind assigns parsed account keys to named roles per the layout.
func (l Layout) Bind(keys []solana.PublicKey) (*PoolAccounts, error) {
	if len(keys) < l.Size() {
		return nil, fmt.Errorf("%w: layout v%d needs %d accounts, got %d",
			ErrInsufficientAccounts, l.Version, l.Size(), len(keys))
	}

	var pa PoolAccounts
	for role, idx := range l.Roles {
		key := keys[idx]
		switch role {
		case RoleProgramID:
			pa.ProgramID = key
		case RoleAmmID:
			pa.AmmID = key
		case RoleAmmAuthority:
			pa.AmmAuthority = key
		case RoleAmmOpenOrders:
			pa.AmmOpenOrders = key
		case RoleLpMint:
			pa.LpMint = key
		case RoleCoinMint:
			pa.CoinMint = key
		case RolePcMint:
			pa.PcMint = key
		case RoleCoinVault:
			pa.CoinVault = key
		case RolePcVault:
			pa.PcVault = key
		case RoleWithdrawQueue:
			pa.WithdrawQueue = key
		case RoleAmmTargetOrders:
			pa.AmmTargetOrders = key
		case RolePoolTempLp:
			pa.PoolTempLp = key
		case RoleMarketProgramID:
			pa.MarketProgramID = key
		case RoleMarketID:
			pa.MarketID = key
		case RoleUserWallet:
			pa.UserWallet = key
		case RoleUserCoinVault:
			pa.UserCoinVault = key
		case RoleUserPcVault:
			pa.UserPcVault = key
		case RoleUserLpVault:
			pa.UserLpVault = key
		case RoleAmmConfigID:
			pa.AmmConfigID = key
		case RoleFeeDestinationID:
			pa.FeeDestinationID = key
		}
	}

	return &pa, nil
}

// Snapshot converts the pool accounts to their canonical base-58 text form
// for persistence and API responses.
func (p *PoolAccounts) Snapshot() *models.PoolSnapshot {
	if p == nil {
		return nil
	}
	return &models.PoolSnapshot{
		ProgramID:        p.ProgramID.String(),
		AmmID:            p.AmmID.String(),
		AmmAuthority:     p.AmmAuthority.String(),
		AmmOpenOrders:    p.AmmOpenOrders.String(),
		LpMint:           p.LpMint.String(),
		CoinMint:         p.CoinMint.String(),
		PcMint:           p.PcMint.String(),
		CoinVault:        p.CoinVault.String(),
		PcVault:          p.PcVault.String(),
		WithdrawQueue:    p.WithdrawQueue.String(),
		AmmTargetOrders:  p.AmmTargetOrders.String(),
		PoolTempLp:       p.PoolTempLp.String(),
		MarketProgramID:  p.MarketProgramID.String(),
		MarketID:         p.MarketID.String(),
		UserWallet:       p.UserWallet.String(),
		UserCoinVault:    p.UserCoinVault.String(),
		UserPcVault:      p.UserPcVault.String(),
		UserLpVault:      p.UserLpVault.String(),
		AmmConfigID:      p.AmmConfigID.String(),
		FeeDestinationID: p.FeeDestinationID.String(),
	}
}

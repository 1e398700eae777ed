package raydium

import (
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// BuildSwapInstruction constructs a Raydium AMM v4 swap_base_in instruction
// against a bound pool.
func BuildSwapInstruction(
	pool *PoolAccounts,
	amountIn uint64,
	minAmountOut uint64,
	userAuthority solana.PublicKey,
	userTokenAccountIn solana.PublicKey,
	userTokenAccountOut solana.PublicKey,
) (solana.Instruction, error) {

	if pool == nil {
		return nil, fmt.Errorf("pool cannot be nil")
	}

	// Raydium AMM v4 swap account order:
	// 0. token_program
	// 1. amm_id
	// 2. amm_authority
	// 3. amm_open_orders
	// 4. amm_target_orders
	// 5. pool_coin_vault
	// 6. pool_pc_vault
	// 7. serum_program
	// 8. serum_market
	// 9. user_source
	// 10. user_destination
	// 11. user_owner (signer)
	accounts := []*solana.AccountMeta{
		{PublicKey: solana.TokenProgramID, IsWritable: false, IsSigner: false},
		{PublicKey: pool.AmmID, IsWritable: true, IsSigner: false},
		{PublicKey: pool.AmmAuthority, IsWritable: false, IsSigner: false},
		{PublicKey: pool.AmmOpenOrders, IsWritable: true, IsSigner: false},
		{PublicKey: pool.AmmTargetOrders, IsWritable: true, IsSigner: false},
		{PublicKey: pool.CoinVault, IsWritable: true, IsSigner: false},
		{PublicKey: pool.PcVault, IsWritable: true, IsSigner: false},
		{PublicKey: pool.MarketProgramID, IsWritable: false, IsSigner: false},
		{PublicKey: pool.MarketID, IsWritable: true, IsSigner: false},
		{PublicKey: userTokenAccountIn, IsWritable: true, IsSigner: false},
		{PublicKey: userTokenAccountOut, IsWritable: true, IsSigner: false},
		{PublicKey: userAuthority, IsWritable: false, IsSigner: true},
	}

	// Instruction data layout:
	// [0] = instruction discriminator (9 = swap_base_in)
	// [1:9] = amount_in (u64, little-endian)
	// [9:17] = minimum_amount_out (u64, little-endian)
	data := make([]byte, 17)
	data[0] = 9
	binary.LittleEndian.PutUint64(data[1:9], amountIn)
	binary.LittleEndian.PutUint64(data[9:17], minAmountOut)

	return solana.NewInstruction(
		pool.ProgramID,
		accounts,
		data,
	), nil
}

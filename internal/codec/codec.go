package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Decode/encode errors. All of them are local to a single instruction and
// never fatal to the callers feeding transactions through the pipeline.
var (
	ErrSchemaMismatch      = errors.New("buffer too short for instruction layout")
	ErrUnknownDiscriminant = errors.New("unknown instruction discriminant")
	ErrOutOfRange          = errors.New("field value out of range")
)

// FixedSide tells which leg of an add-liquidity deposit is fixed.
type FixedSide uint8

const (
	FixedSideBase  FixedSide = 0
	FixedSideQuote FixedSide = 1
)

func (s FixedSide) String() string {
	if s == FixedSideQuote {
		return "quote"
	}
	return "base"
}

// Instruction is a decoded liquidity instruction variant.
type Instruction interface {
	// Discriminant returns the leading tag byte of the wire form.
	Discriminant() uint8
}

// AddLiquidity mirrors the Raydium v4 deposit layout:
// [tag u8][baseAmountIn u64 le][quoteAmountIn u64 le][fixedSide u8].
type AddLiquidity struct {
	Tag           uint8
	BaseAmountIn  uint64
	QuoteAmountIn uint64
	FixedSide     FixedSide
}

func (a AddLiquidity) Discriminant() uint8 { return a.Tag }

// RemoveLiquidity mirrors the withdraw layout: [tag u8][amountIn u64 le].
type RemoveLiquidity struct {
	Tag      uint8
	AmountIn uint64
}

func (r RemoveLiquidity) Discriminant() uint8 { return r.Tag }

// Fixed layout sizes in bytes.
const (
	addLiquiditySize    = 1 + 8 + 8 + 1
	removeLiquiditySize = 1 + 8
)

// Codec maps discriminant bytes to fixed field layouts. The tags are
// configurable so a future protocol revision only needs new wiring, not a
// new decoder.
type Codec struct {
	addTag    uint8
	removeTag uint8
}

// NewCodec builds a codec for the given add/remove discriminants.
func NewCodec(addTag, removeTag uint8) *Codec {
	return &Codec{addTag: addTag, removeTag: removeTag}
}

// Decode parses a raw instruction payload into its typed variant.
func (c *Codec) Decode(data []byte) (Instruction, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrSchemaMismatch)
	}

	tag := data[0]
	switch tag {
	case c.addTag:
		if len(data) < addLiquiditySize {
			return nil, fmt.Errorf("%w: add liquidity needs %d bytes, got %d", ErrSchemaMismatch, addLiquiditySize, len(data))
		}
		side := data[17]
		if side > uint8(FixedSideQuote) {
			return nil, fmt.Errorf("%w: fixed side %d", ErrOutOfRange, side)
		}
		return AddLiquidity{
			Tag:           tag,
			BaseAmountIn:  binary.LittleEndian.Uint64(data[1:9]),
			QuoteAmountIn: binary.LittleEndian.Uint64(data[9:17]),
			FixedSide:     FixedSide(side),
		}, nil

	case c.removeTag:
		if len(data) < removeLiquiditySize {
			return nil, fmt.Errorf("%w: remove liquidity needs %d bytes, got %d", ErrSchemaMismatch, removeLiquiditySize, len(data))
		}
		return RemoveLiquidity{
			Tag:      tag,
			AmountIn: binary.LittleEndian.Uint64(data[1:9]),
		}, nil

	default:
		return nil, fmt.Errorf("%w: 0x%02x", ErrUnknownDiscriminant, tag)
	}
}

// Encode is the structural inverse of Decode.
func (c *Codec) Encode(ix Instruction) ([]byte, error) {
	switch v := ix.(type) {
	case AddLiquidity:
		if v.Tag != c.addTag {
			return nil, fmt.Errorf("%w: 0x%02x is not the add-liquidity tag", ErrUnknownDiscriminant, v.Tag)
		}
		if v.FixedSide > FixedSideQuote {
			return nil, fmt.Errorf("%w: fixed side %d", ErrOutOfRange, v.FixedSide)
		}
		data := make([]byte, addLiquiditySize)
		data[0] = v.Tag
		binary.LittleEndian.PutUint64(data[1:9], v.BaseAmountIn)
		binary.LittleEndian.PutUint64(data[9:17], v.QuoteAmountIn)
		data[17] = uint8(v.FixedSide)
		return data, nil

	case RemoveLiquidity:
		if v.Tag != c.removeTag {
			return nil, fmt.Errorf("%w: 0x%02x is not the remove-liquidity tag", ErrUnknownDiscriminant, v.Tag)
		}
		data := make([]byte, removeLiquiditySize)
		data[0] = v.Tag
		binary.LittleEndian.PutUint64(data[1:9], v.AmountIn)
		return data, nil

	default:
		return nil, fmt.Errorf("%w: unsupported variant %T", ErrUnknownDiscriminant, ix)
	}
}

package codec

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCodec() *Codec {
	return NewCodec(3, 4)
}

func TestCodec_DecodeAddLiquidity(t *testing.T) {
	// Worked example: tag 3, base 1_000_000, quote 2_000_000, fixed side base.
	data := make([]byte, 18)
	data[0] = 0x03
	binary.LittleEndian.PutUint64(data[1:9], 1_000_000)
	binary.LittleEndian.PutUint64(data[9:17], 2_000_000)
	data[17] = 0x00

	ix, err := testCodec().Decode(data)
	require.NoError(t, err)

	add, ok := ix.(AddLiquidity)
	require.True(t, ok, "expected AddLiquidity, got %T", ix)
	assert.Equal(t, uint8(3), add.Tag)
	assert.Equal(t, uint64(1_000_000), add.BaseAmountIn)
	assert.Equal(t, uint64(2_000_000), add.QuoteAmountIn)
	assert.Equal(t, FixedSideBase, add.FixedSide)
}

func TestCodec_RoundTrip(t *testing.T) {
	c := testCodec()

	cases := []Instruction{
		AddLiquidity{Tag: 3, BaseAmountIn: 1, QuoteAmountIn: 2, FixedSide: FixedSideQuote},
		AddLiquidity{Tag: 3, BaseAmountIn: 0, QuoteAmountIn: 0, FixedSide: FixedSideBase},
		AddLiquidity{Tag: 3, BaseAmountIn: ^uint64(0), QuoteAmountIn: ^uint64(0), FixedSide: FixedSideBase},
		RemoveLiquidity{Tag: 4, AmountIn: 123456789},
		RemoveLiquidity{Tag: 4, AmountIn: ^uint64(0)},
	}

	for _, want := range cases {
		data, err := c.Encode(want)
		require.NoError(t, err)

		got, err := c.Decode(data)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestCodec_ShortBuffer(t *testing.T) {
	c := testCodec()

	// Every strict prefix of a valid add-liquidity payload must fail with
	// a schema mismatch, never a panic or a partial value.
	full, err := c.Encode(AddLiquidity{Tag: 3, BaseAmountIn: 10, QuoteAmountIn: 20})
	require.NoError(t, err)

	for n := 1; n < len(full); n++ {
		_, err := c.Decode(full[:n])
		assert.ErrorIs(t, err, ErrSchemaMismatch, "prefix of length %d", n)
	}

	_, err = c.Decode(nil)
	assert.ErrorIs(t, err, ErrSchemaMismatch)

	_, err = c.Decode([]byte{0x04, 0x01})
	assert.ErrorIs(t, err, ErrSchemaMismatch)
}

func TestCodec_UnknownDiscriminant(t *testing.T) {
	data := make([]byte, 18)
	data[0] = 0x09

	_, err := testCodec().Decode(data)
	assert.ErrorIs(t, err, ErrUnknownDiscriminant)
}

func TestCodec_FixedSideRange(t *testing.T) {
	c := testCodec()

	data := make([]byte, 18)
	data[0] = 0x03
	data[17] = 0x02 // only {0,1} are legal

	_, err := c.Decode(data)
	assert.ErrorIs(t, err, ErrOutOfRange)

	_, err = c.Encode(AddLiquidity{Tag: 3, FixedSide: FixedSide(7)})
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestCodec_EncodeWrongTag(t *testing.T) {
	c := testCodec()

	_, err := c.Encode(AddLiquidity{Tag: 4})
	assert.ErrorIs(t, err, ErrUnknownDiscriminant)

	_, err = c.Encode(RemoveLiquidity{Tag: 3})
	assert.ErrorIs(t, err, ErrUnknownDiscriminant)
}

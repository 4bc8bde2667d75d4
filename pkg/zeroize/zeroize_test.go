package zeroize

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConsumeReturnsDataThenWipes(t *testing.T) {
	z := NewBytes32([32]byte{1, 2, 3})

	out, err := z.Consume()
	require.NoError(t, err)
	require.Equal(t, [32]byte{1, 2, 3}, out)

	_, err = z.Consume()
	require.ErrorIs(t, err, ErrConsumed)
}

func TestWipeIsIdempotentAndNilSafe(t *testing.T) {
	z := NewBytes32([32]byte{9, 9, 9})
	z.Wipe()
	z.Wipe()

	_, err := z.Consume()
	require.ErrorIs(t, err, ErrConsumed)

	var nilZ *Bytes32
	require.NotPanics(t, func() { nilZ.Wipe() })
}

func TestWipeBytesZeroesInPlace(t *testing.T) {
	b := []byte{1, 2, 3, 4}
	WipeBytes(b)
	require.Equal(t, []byte{0, 0, 0, 0}, b)
}

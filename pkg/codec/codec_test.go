package codec

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kzg-ceremony/sequencer/pkg/curve"
)

func TestEncodeG1Zero(t *testing.T) {
	var zero curve.G1Affine
	got := EncodeG1(zero)
	want := "c0" + hex.EncodeToString(make([]byte, 47))
	require.Equal(t, want, hex.EncodeToString(got[:]))
}

func TestEncodeG1Generator(t *testing.T) {
	got := EncodeG1(curve.G1Generator())
	want := "97f1d3a73197d7942695638c4fa9ac0fc3688c4f9774b905a14e3a3f171bac586c55e83ff97a1aeffb3af00adb22c6bb"
	require.Equal(t, want, hex.EncodeToString(got[:]))
}

func TestG1RoundTrip(t *testing.T) {
	p := curve.G1Generator()
	enc := EncodeG1(p)
	dec, err := DecodeG1(enc[:])
	require.NoError(t, err)
	require.True(t, p.Equal(dec))
}

func TestG2RoundTrip(t *testing.T) {
	p := curve.G2Generator()
	enc := EncodeG2(p)
	dec, err := DecodeG2(enc[:])
	require.NoError(t, err)
	require.True(t, p.Equal(dec))
}

func TestDecodeG1WrongLength(t *testing.T) {
	_, err := DecodeG1(make([]byte, 47))
	require.Error(t, err)
	var codecErr *Error
	require.ErrorAs(t, err, &codecErr)
	require.Equal(t, InvalidLength, codecErr.Kind)
}

func TestDecodeG1NotCompressed(t *testing.T) {
	buf := make([]byte, g1Size)
	_, err := DecodeG1(buf)
	require.Error(t, err)
	var codecErr *Error
	require.ErrorAs(t, err, &codecErr)
	require.Equal(t, NotCompressed, codecErr.Kind)
}

func TestDecodeG1InfinityMustBeCanonical(t *testing.T) {
	buf := make([]byte, g1Size)
	buf[0] = flagCompressed | flagInfinity
	buf[1] = 0x01 // a nonzero byte under an infinity flag is invalid
	_, err := DecodeG1(buf)
	require.Error(t, err)
	var codecErr *Error
	require.ErrorAs(t, err, &codecErr)
	require.Equal(t, InvalidInfinity, codecErr.Kind)
}

func TestDecodeG1InfinityRoundTrip(t *testing.T) {
	var zero curve.G1Affine
	enc := EncodeG1(zero)
	dec, err := DecodeG1(enc[:])
	require.NoError(t, err)
	require.True(t, dec.IsInfinity())
}

func TestDecodeG1PrimeFieldOverflow(t *testing.T) {
	buf := make([]byte, g1Size)
	for i := range buf {
		buf[i] = 0xff
	}
	buf[0] = flagCompressed | (buf[0] & flagMask)
	_, err := DecodeG1(buf)
	require.Error(t, err)
	var codecErr *Error
	require.ErrorAs(t, err, &codecErr)
	require.Equal(t, InvalidPrimeField, codecErr.Kind)
}

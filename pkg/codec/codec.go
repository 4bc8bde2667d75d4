// Package codec implements the ZCash-style compressed serialization of
// BLS12-381 G1/G2 points used on the wire: 48 bytes for G1, 96 bytes for G2,
// big-endian, with three flag bits packed into the top of the leading byte.
//
// decode intentionally performs its own flag and field-range validation
// ahead of calling into gnark-crypto's point reconstruction, so that each
// malformed-input class maps to a distinguishable error kind instead of one
// generic parse failure. Subgroup membership is NOT checked here — it is
// expensive, so callers that need it call curve's subgroup check explicitly.
package codec

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bls12-381/fp"

	"github.com/kzg-ceremony/sequencer/pkg/curve"
)

const (
	g1Size = 48
	g2Size = 96

	flagCompressed = 0x80
	flagInfinity   = 0x40
	flagGreatest   = 0x20
	flagMask       = 0x1f
)

// Kind identifies a decode failure's category, matching the bit-exact kinds
// the contribution engine propagates in receipts and error responses.
type Kind string

const (
	InvalidLength        Kind = "InvalidLength"
	MissingPrefix        Kind = "MissingPrefix"
	NotCompressed        Kind = "NotCompressed"
	InvalidInfinity      Kind = "InvalidInfinity"
	InvalidPrimeField    Kind = "InvalidPrimeField"
	InvalidExtensionField Kind = "InvalidExtensionField"
	InvalidXCoordinate   Kind = "InvalidXCoordinate"
	InvalidSubgroup      Kind = "InvalidSubgroup"
)

// Error is a codec failure carrying its stable Kind and, for prime-field
// range failures, the index of the offending component (0 for G1; 0 or 1
// for G2's two Fq2 limbs, high component first).
type Error struct {
	Kind  Kind
	Index int
}

func (e *Error) Error() string {
	if e.Kind == InvalidPrimeField {
		return fmt.Sprintf("codec: %s(%d)", e.Kind, e.Index)
	}
	return fmt.Sprintf("codec: %s", e.Kind)
}

func kindErr(k Kind) error          { return &Error{Kind: k} }
func primeFieldErr(i int) error     { return &Error{Kind: InvalidPrimeField, Index: i} }

var fpModulus = fp.Modulus()

// EncodeG1 writes p in the 48-byte compressed big-endian form with flag bits
// set in the leading byte.
func EncodeG1(p curve.G1Affine) [48]byte {
	var out [48]byte
	raw := p.RawBytes()
	copy(out[:], raw[:])
	out[0] |= flagCompressed
	if p.IsInfinity() {
		out[0] |= flagInfinity
	} else if p.GreatestY() {
		out[0] |= flagGreatest
	}
	return out
}

// EncodeG2 writes p in the 96-byte compressed big-endian form, high Fq2
// component (c1) first.
func EncodeG2(p curve.G2Affine) [96]byte {
	var out [96]byte
	raw := p.RawBytes()
	copy(out[:], raw[:])
	out[0] |= flagCompressed
	if p.IsInfinity() {
		out[0] |= flagInfinity
	} else if p.GreatestY() {
		out[0] |= flagGreatest
	}
	return out
}

// DecodeG1 parses a 48-byte compressed point, performing length, flag, and
// prime-field range checks explicitly before delegating curve-equation
// reconstruction to gnark-crypto.
func DecodeG1(b []byte) (curve.G1Affine, error) {
	if len(b) != g1Size {
		return curve.G1Affine{}, kindErr(InvalidLength)
	}
	buf := make([]byte, g1Size)
	copy(buf, b)

	compressed := buf[0]&flagCompressed != 0
	infinity := buf[0]&flagInfinity != 0
	greatest := buf[0]&flagGreatest != 0
	if !compressed {
		return curve.G1Affine{}, kindErr(NotCompressed)
	}

	masked := make([]byte, g1Size)
	copy(masked, buf)
	masked[0] &= flagMask

	x := new(big.Int).SetBytes(masked)
	if infinity {
		if greatest || x.Sign() != 0 {
			return curve.G1Affine{}, kindErr(InvalidInfinity)
		}
		return curve.G1Affine{}, nil
	}
	if x.Cmp(fpModulus) >= 0 {
		return curve.G1Affine{}, primeFieldErr(0)
	}

	p, err := curve.G1FromCompressed(buf)
	if err != nil {
		return curve.G1Affine{}, kindErr(InvalidXCoordinate)
	}
	return p, nil
}

// DecodeG2 parses a 96-byte compressed point; each Fq2 limb is
// range-checked independently (index 0 = high/c1 limb, index 1 = low/c0
// limb, matching wire order) before the curve-equation solve.
func DecodeG2(b []byte) (curve.G2Affine, error) {
	if len(b) != g2Size {
		return curve.G2Affine{}, kindErr(InvalidLength)
	}
	buf := make([]byte, g2Size)
	copy(buf, b)

	compressed := buf[0]&flagCompressed != 0
	infinity := buf[0]&flagInfinity != 0
	greatest := buf[0]&flagGreatest != 0
	if !compressed {
		return curve.G2Affine{}, kindErr(NotCompressed)
	}

	masked := make([]byte, g2Size)
	copy(masked, buf)
	masked[0] &= flagMask

	limbSize := g2Size / 2
	c1 := new(big.Int).SetBytes(masked[:limbSize])
	c0 := new(big.Int).SetBytes(masked[limbSize:])

	if infinity {
		if greatest || c1.Sign() != 0 || c0.Sign() != 0 {
			return curve.G2Affine{}, kindErr(InvalidInfinity)
		}
		return curve.G2Affine{}, nil
	}
	if c1.Cmp(fpModulus) >= 0 {
		return curve.G2Affine{}, primeFieldErr(0)
	}
	if c0.Cmp(fpModulus) >= 0 {
		return curve.G2Affine{}, primeFieldErr(1)
	}

	p, err := curve.G2FromCompressed(buf)
	if err != nil {
		return curve.G2Affine{}, kindErr(InvalidXCoordinate)
	}
	return p, nil
}

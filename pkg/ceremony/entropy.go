package ceremony

import (
	"encoding/binary"

	"golang.org/x/crypto/blake2b"

	"github.com/kzg-ceremony/sequencer/pkg/curve"
	"github.com/kzg-ceremony/sequencer/pkg/zeroize"
)

// domainExpand is a fixed domain-separation tag for the PRG used to expand
// a batch entropy into per-sub-contribution entropies.
const domainExpand = "kzg-ceremony-sequencer/entropy-expand/v1"

// ExpandEntropy derives k independent 32-byte entropies from a single
// 32-byte secret: output i is the unkeyed BLAKE2b-256 hash of a fixed
// domain tag, the secret, and the big-endian counter i. The derivation is reproducible given
// the same input, but the expanded values are never transmitted over the
// network — only the resulting contribution.
func ExpandEntropy(e *zeroize.Bytes32, k int) ([]*zeroize.Bytes32, error) {
	seed, err := e.Consume()
	if err != nil {
		return nil, err
	}
	defer zeroize.WipeBytes(seed[:])

	out := make([]*zeroize.Bytes32, k)
	for i := 0; i < k; i++ {
		h, err := blake2b.New256(nil)
		if err != nil {
			return nil, err
		}
		h.Write([]byte(domainExpand))
		h.Write(seed[:])
		var counter [8]byte
		binary.BigEndian.PutUint64(counter[:], uint64(i))
		h.Write(counter[:])

		sum := h.Sum(nil)
		var b32 [32]byte
		copy(b32[:], sum)
		zeroize.WipeBytes(sum)
		out[i] = zeroize.NewBytes32(b32)
	}
	return out, nil
}

// DeriveTau reduces a single sub-contribution entropy modulo r to obtain
// its scalar τ ∈ Fr directly, with no intermediate hash: two entropies that
// reduce to the same residue mod r must produce τ values that compare
// equal, and therefore identical contributions. It rejects the
// negligible-probability zero case explicitly rather than silently
// treating it as a valid (and catastrophic) contribution.
func DeriveTau(e *zeroize.Bytes32) (curve.Scalar, error) {
	raw, err := e.Consume()
	if err != nil {
		return curve.Scalar{}, err
	}
	defer zeroize.WipeBytes(raw[:])

	// curve.ScalarFromBytes already rejects the zero reduction; propagated
	// as-is since this is an internal derivation failure, not one of the
	// wire-facing error codes in errors.go (those describe a rejected
	// *contribution*, not a private derivation step that never reaches the
	// network).
	return curve.ScalarFromBytes(raw)
}

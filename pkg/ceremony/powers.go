package ceremony

import (
	"sync"

	"github.com/kzg-ceremony/sequencer/pkg/curve"
)

// Size is a sub-transcript's (n1, n2) shape: n1 ≥ n2 ≥ 2.
type Size struct {
	NumG1 int
	NumG2 int
}

// Validate enforces the size invariant from the data model.
func (s Size) Validate() error {
	if s.NumG2 < 2 || s.NumG1 < s.NumG2 {
		return newErrf(CodeUnexpectedNumG1Powers, "invalid size (%d, %d): require n1 >= n2 >= 2", s.NumG1, s.NumG2)
	}
	return nil
}

// PowersOfTau is an ordered sequence of G1 and G2 powers of a secret τ:
// G1[i] = τ^i·g1, G2[i] = τ^i·g2 for the same (unknown) τ, post-contribution.
type PowersOfTau struct {
	G1 []curve.G1Affine
	G2 []curve.G2Affine
}

// Identity builds the starting PowersOfTau for a fresh sub-transcript: every
// entry is the respective group's generator (τ = 1).
func Identity(s Size) PowersOfTau {
	g1 := make([]curve.G1Affine, s.NumG1)
	for i := range g1 {
		g1[i] = curve.G1Generator()
	}
	g2 := make([]curve.G2Affine, s.NumG2)
	for i := range g2 {
		g2[i] = curve.G2Generator()
	}
	return PowersOfTau{G1: g1, G2: g2}
}

// Contribution is a candidate update to a single sub-transcript: the new
// powers table plus the per-contribution public key τ·g2 proving knowledge
// of τ without revealing it. ECDSASignature is optional EIP-712 binding of
// the whole BatchContribution to an Ethereum identity.
type Contribution struct {
	Size           Size
	Powers         PowersOfTau
	PotPubkey      curve.G2Affine
	ECDSASignature *string
}

// Update applies secret scalar τ to prev, producing the next Contribution
// for one sub-transcript. Per spec: the powers table [τ^0..τ^(m-1)] is
// computed once (m = max(n1,n2)) in a zeroizing container, G1/G2 entries
// are each replaced by τ^i·prev[i], pot_pubkey is advanced by τ, results are
// batch-normalized to affine (gnark-crypto's ScalarMultiplication already
// returns affine results so no separate normalization pass is needed here),
// and the powers table plus τ are zeroized on every exit path.
func Update(prev PowersOfTau, prevPubkey curve.G2Affine, size Size, tau curve.Scalar) (Contribution, error) {
	if len(prev.G1) != size.NumG1 {
		return Contribution{}, newErrf(CodeInconsistentNumG1Powers, "have %d, want %d", len(prev.G1), size.NumG1)
	}
	if len(prev.G2) != size.NumG2 {
		return Contribution{}, newErrf(CodeInconsistentNumG2Powers, "have %d, want %d", len(prev.G2), size.NumG2)
	}

	m := size.NumG1
	if size.NumG2 > m {
		m = size.NumG2
	}
	powers := make([]curve.Scalar, m)
	powers[0] = curve.OneScalar()
	for i := 1; i < m; i++ {
		powers[i] = powers[i-1].Mul(tau)
	}
	defer func() {
		for i := range powers {
			powers[i].Zero()
		}
		tau.Zero()
	}()

	newG1 := make([]curve.G1Affine, size.NumG1)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < size.NumG1; i++ {
			newG1[i] = prev.G1[i].ScalarMul(powers[i])
		}
	}()

	newG2 := make([]curve.G2Affine, size.NumG2)
	go func() {
		defer wg.Done()
		for i := 0; i < size.NumG2; i++ {
			newG2[i] = prev.G2[i].ScalarMul(powers[i])
		}
	}()
	wg.Wait()

	newPubkey := prevPubkey.ScalarMul(tau)

	return Contribution{
		Size:      size,
		Powers:    PowersOfTau{G1: newG1, G2: newG2},
		PotPubkey: newPubkey,
	}, nil
}

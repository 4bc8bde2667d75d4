package ceremony

import (
	"github.com/kzg-ceremony/sequencer/pkg/curve"
)

// PrevState is the sub-transcript state a candidate Contribution is checked
// against: the sub-transcript's size (used for structural size checks) and
// the running product the chain must extend.
type PrevState struct {
	Size        Size
	PrevProduct curve.G1Affine // T.W.products.last()
	PrevPubkey  curve.G2Affine // T.W.pubkeys.last(); not read by Verify
}

// Verify runs all five checks from the contribution-engine's verify step
// against a single sub-contribution and reports the first failure. Random
// linear-combination coefficients are drawn fresh from a CSPRNG inside this
// call — never derived from the contribution under test, per the design
// note on verification soundness.
func Verify(c Contribution, prev PrevState) error {
	// 1. Structural.
	if len(c.Powers.G1) != prev.Size.NumG1 {
		return newErrf(CodeUnexpectedNumG1Powers, "have %d, want %d", len(c.Powers.G1), prev.Size.NumG1)
	}
	if len(c.Powers.G2) != prev.Size.NumG2 {
		return newErrf(CodeUnexpectedNumG2Powers, "have %d, want %d", len(c.Powers.G2), prev.Size.NumG2)
	}

	// 2. Validation: subgroup membership + pot_pubkey != infinity.
	if c.PotPubkey.IsInfinity() {
		return newErr(CodeZeroPubkey, "pot_pubkey is the identity")
	}
	if c.PotPubkey.Equal(curve.G2Generator()) {
		return newErr(CodeContributionNoEntropy, "pot_pubkey unchanged from g2")
	}
	ok, err := curve.CheckedSubgroupG2(c.PotPubkey)
	if err != nil {
		return err
	}
	if !ok {
		return newErr(CodeInvalidSubgroup, "pot_pubkey not in G2 subgroup")
	}
	for i, p := range c.Powers.G1 {
		ok, err := curve.CheckedSubgroupG1(p)
		if err != nil {
			return err
		}
		if !ok {
			return newErrf(CodeInvalidSubgroup, "g1[%d] not in subgroup", i)
		}
	}
	for i, p := range c.Powers.G2 {
		ok, err := curve.CheckedSubgroupG2(p)
		if err != nil {
			return err
		}
		if !ok {
			return newErrf(CodeInvalidSubgroup, "g2[%d] not in subgroup", i)
		}
	}

	if len(c.Powers.G1) < 2 {
		return newErr(CodeUnexpectedNumG1Powers, "need at least 2 G1 powers for chaining/consistency checks")
	}

	// 3. Chaining pairing: e(C.g1[1], g2) = e(prev_product, pot_pubkey).
	okChain, err := curve.PairingCheck(
		[]curve.G1Affine{c.Powers.G1[1], prev.PrevProduct},
		[]curve.G2Affine{curve.G2Generator(), c.PotPubkey.Neg()},
	)
	if err != nil {
		return err
	}
	if !okChain {
		return newErr(CodePubKeyPairingFailed, "chaining pairing check failed")
	}

	// 4. G1 consistency: random linear combination over g1[1..n1).
	n1 := len(c.Powers.G1)
	r1 := make([]curve.Scalar, n1-1)
	for i := range r1 {
		s, err := curve.RandomScalar()
		if err != nil {
			return err
		}
		r1[i] = s
	}
	lhsG1, err := curve.MultiExpG1(c.Powers.G1[1:], r1)
	if err != nil {
		return err
	}
	rhsG1, err := curve.MultiExpG1(c.Powers.G1[:n1-1], r1)
	if err != nil {
		return err
	}
	okG1, err := curve.PairingCheck(
		[]curve.G1Affine{lhsG1, rhsG1},
		[]curve.G2Affine{curve.G2Generator(), c.Powers.G2[1].Neg()},
	)
	if err != nil {
		return err
	}
	if !okG1 {
		return newErr(CodeG1PairingFailed, "g1 power progression check failed")
	}

	// 5. G2 consistency: e(Σ rᵢ·g1[i], g2) = e(g1, Σ rᵢ·g2[i]).
	n2 := len(c.Powers.G2)
	r2 := make([]curve.Scalar, n2)
	for i := range r2 {
		s, err := curve.RandomScalar()
		if err != nil {
			return err
		}
		r2[i] = s
	}
	lhsG2, err := curve.MultiExpG1(c.Powers.G1[:n2], r2)
	if err != nil {
		return err
	}
	rhsG2, err := curve.MultiExpG2(c.Powers.G2, r2)
	if err != nil {
		return err
	}
	okG2, err := curve.PairingCheck(
		[]curve.G1Affine{lhsG2, curve.G1Generator().Neg()},
		[]curve.G2Affine{curve.G2Generator(), rhsG2},
	)
	if err != nil {
		return err
	}
	if !okG2 {
		return newErr(CodeG2PairingFailed, "g2 consistency check failed")
	}

	return nil
}

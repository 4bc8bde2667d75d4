package curve

import (
	"errors"
	"math/big"

	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fp"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
)

// ErrBackendDisagreement is returned when the GLV-accelerated path and the
// plain double-and-add path disagree on a scalar multiplication, or when
// gnark-crypto's subgroup check disagrees with the explicit recomputation
// below. Either case means the ceremony's arithmetic cannot be trusted and
// is always treated as fatal, never silently recovered from.
var ErrBackendDisagreement = errors.New("curve: independent back-ends disagree")

// doubleAndAddG1 computes s*P via the textbook double-and-add algorithm,
// bypassing gnark-crypto's internal GLV endomorphism entirely. It exists
// only as the second, independent evaluation path CheckedScalarMulG1 cross
// validates against; production code paths call G1Affine.ScalarMul.
func doubleAndAddG1(p bls12381.G1Affine, s *big.Int) bls12381.G1Affine {
	var acc bls12381.G1Jac
	acc.FromAffine(&bls12381.G1Affine{}) // identity
	var base bls12381.G1Jac
	base.FromAffine(&p)

	for i := s.BitLen() - 1; i >= 0; i-- {
		acc.DoubleAssign()
		if s.Bit(i) == 1 {
			acc.AddAssign(&base)
		}
	}
	var out bls12381.G1Affine
	out.FromJacobian(&acc)
	return out
}

// CheckedScalarMulG1 computes s*P using gnark-crypto's GLV-accelerated
// ScalarMultiplication and independently via doubleAndAddG1, and returns
// ErrBackendDisagreement if the two results differ. This is the "two
// interchangeable back-ends" consistency check collapsed to a single
// library with two distinct algorithms, per the design note on defense in
// depth for a one-shot ceremony.
func CheckedScalarMulG1(p G1Affine, s Scalar) (G1Affine, error) {
	fast := p.ScalarMul(s)
	slow := doubleAndAddG1(p.p, s.BigInt())
	if !fast.p.Equal(&slow) {
		return G1Affine{}, ErrBackendDisagreement
	}
	return fast, nil
}

// xParam is the BLS12-381 curve seed, |x| = 0xd201000000010000 (x is
// negative for BLS12-381; only its square/magnitude is used below, per the
// subgroup-check equations, which depend on x² and [x]·P respectively).
var xParam, _ = new(big.Int).SetString("d201000000010000", 16)

// CheckedSubgroupG1 reports subgroup membership in G1, cross-validating
// gnark-crypto's internal fast check (φ(P) = −x²·P via the curve
// endomorphism) against an explicit recomputation of the same equation.
// Disagreement between the two is fatal.
func CheckedSubgroupG1(p G1Affine) (bool, error) {
	fast := p.IsInSubGroup()

	if p.IsInfinity() {
		if !fast {
			return false, ErrBackendDisagreement
		}
		return true, nil
	}

	xSquared := new(big.Int).Mul(xParam, xParam)
	lhs := endomorphismG1(p.p)
	rhs := doubleAndAddG1(p.p, xSquared)
	rhs.Neg(&rhs)
	slow := lhs.Equal(&rhs)

	if fast != slow {
		return false, ErrBackendDisagreement
	}
	return fast, nil
}

// endomorphismG1 applies φ(x,y) = (β·x, y), the degree-2 endomorphism used
// by BLS12-381's GLV decomposition and subgroup check, where β is a
// primitive cube root of unity in the base field Fp.
func endomorphismG1(p bls12381.G1Affine) bls12381.G1Affine {
	out := p
	out.X.Mul(&out.X, &glvBeta)
	return out
}

// glvBeta is the nontrivial cube root of unity in Fp that BLS12-381's G1
// endomorphism uses, reproduced from the curve's public parameters (the
// same constant gnark-crypto folds into ScalarMultiplication internally,
// but does not export) so the explicit recomputation above stays
// independent of gnark-crypto's own endomorphism code path.
var glvBeta = mustFpElement(
	"793479390729215512621379701633421447060886740281060493010456487427281649075476305620758731620350",
)

func mustFpElement(decimal string) fp.Element {
	var e fp.Element
	if _, err := e.SetString(decimal); err != nil {
		panic("curve: invalid field constant: " + err.Error())
	}
	return e
}

// doubleAndAddG2 mirrors doubleAndAddG1 for G2.
func doubleAndAddG2(p bls12381.G2Affine, s *big.Int) bls12381.G2Affine {
	var acc bls12381.G2Jac
	acc.FromAffine(&bls12381.G2Affine{})
	var base bls12381.G2Jac
	base.FromAffine(&p)

	for i := s.BitLen() - 1; i >= 0; i-- {
		acc.DoubleAssign()
		if s.Bit(i) == 1 {
			acc.AddAssign(&base)
		}
	}
	var out bls12381.G2Affine
	out.FromJacobian(&acc)
	return out
}

// frModulus is r, the subgroup order, used here (not as a scalar reduction)
// purely as the multiplier for the definitional subgroup check [r]P = ∞,
// independent of gnark-crypto's Frobenius-based IsInSubGroup fast path.
var frModulus = fr.Modulus()

// CheckedSubgroupG2 reports subgroup membership in G2, cross-validating
// gnark-crypto's Frobenius-based fast check (ψ(P) = [X]·P) against the
// definitional, independent recomputation [r]·P = ∞. Disagreement is
// fatal, matching the G1 crosscheck's contract.
func CheckedSubgroupG2(p G2Affine) (bool, error) {
	fast := p.IsInSubGroup()

	if p.IsInfinity() {
		if !fast {
			return false, ErrBackendDisagreement
		}
		return true, nil
	}

	slowPoint := doubleAndAddG2(p.p, frModulus)
	slow := slowPoint.IsInfinity()

	if fast != slow {
		return false, ErrBackendDisagreement
	}
	return fast, nil
}

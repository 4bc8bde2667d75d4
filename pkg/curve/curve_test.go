package curve

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScalarFromBytesRejectsZero(t *testing.T) {
	var zero [32]byte
	_, err := ScalarFromBytes(zero)
	require.ErrorIs(t, err, ErrZeroScalar)
}

func TestScalarMulIdentity(t *testing.T) {
	one := OneScalar()
	g := G1Generator()
	require.True(t, g.Equal(g.ScalarMul(one)))
}

func TestPairingCheckIdentityRelation(t *testing.T) {
	// e(g1, g2) = e(g1, g2) trivially holds; expressed as a product check
	// via negation: e(g1, g2) * e(-g1, g2) = 1.
	g1 := G1Generator()
	g2 := G2Generator()
	ok, err := PairingCheck([]G1Affine{g1, g1.Neg()}, []G2Affine{g2, g2})
	require.NoError(t, err)
	require.True(t, ok)
}

func TestPairingCheckFailsOnMismatch(t *testing.T) {
	g1 := G1Generator()
	g2 := G2Generator()
	two, err := ScalarFromBytes([32]byte{31: 2})
	require.NoError(t, err)
	ok, err := PairingCheck([]G1Affine{g1, g1.ScalarMul(two)}, []G2Affine{g2, g2})
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMultiExpG1MatchesScalarSum(t *testing.T) {
	g := G1Generator()
	two, err := ScalarFromBytes([32]byte{31: 2})
	require.NoError(t, err)
	three, err := ScalarFromBytes([32]byte{31: 3})
	require.NoError(t, err)

	got, err := MultiExpG1([]G1Affine{g, g}, []Scalar{two, three})
	require.NoError(t, err)

	five, err := ScalarFromBytes([32]byte{31: 5})
	require.NoError(t, err)
	want := g.ScalarMul(five)
	require.True(t, want.Equal(got))
}

func TestSubgroupGeneratorsAreMembers(t *testing.T) {
	ok1, err := CheckedSubgroupG1(G1Generator())
	require.NoError(t, err)
	require.True(t, ok1)

	ok2, err := CheckedSubgroupG2(G2Generator())
	require.NoError(t, err)
	require.True(t, ok2)
}

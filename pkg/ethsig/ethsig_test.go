package ethsig

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const testKeyHex = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"

func TestParseKeyHexAndAddress(t *testing.T) {
	key, err := ParseKeyHex(testKeyHex)
	require.NoError(t, err)
	require.NotEqual(t, "0x0000000000000000000000000000000000000000", key.Address().Hex())
}

func TestSignAndRecoverRoundTrip(t *testing.T) {
	key, err := ParseKeyHex(testKeyHex)
	require.NoError(t, err)

	td := ContributionTypedData(1, []string{"0xdead"}, []string{"0xbeef"})
	digest, err := Digest(td)
	require.NoError(t, err)

	sig, err := key.SignDigest(digest)
	require.NoError(t, err)

	recovered, err := RecoverAddress(digest, sig)
	require.NoError(t, err)
	require.Equal(t, key.Address(), recovered)
}

func TestRecoverAddressRejectsWrongLength(t *testing.T) {
	_, err := RecoverAddress([32]byte{}, []byte{1, 2, 3})
	require.Error(t, err)
}

func TestParseAddressRejectsMalformed(t *testing.T) {
	_, err := ParseAddress("not-an-address")
	require.Error(t, err)
}

func TestDigestIsDomainSeparatedByChainID(t *testing.T) {
	tdMainnet := ContributionTypedData(1, []string{"0xdead"}, []string{"0xbeef"})
	tdOther := ContributionTypedData(5, []string{"0xdead"}, []string{"0xbeef"})

	d1, err := Digest(tdMainnet)
	require.NoError(t, err)
	d2, err := Digest(tdOther)
	require.NoError(t, err)
	require.NotEqual(t, d1, d2)
}

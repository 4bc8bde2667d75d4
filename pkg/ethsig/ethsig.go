// Package ethsig binds a batch contribution to an Ethereum identity via an
// EIP-712 typed-data signature, and provides the sequencer's own ECDSA
// receipt co-signing. Both are thin wrappers over go-ethereum/crypto and
// signer/core/apitypes — no transaction signing or chain interaction lives
// here, unlike the teacher's fuller Ethereum client.
package ethsig

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// Key wraps a secp256k1 private key used to co-sign ceremony receipts.
type Key struct {
	priv *ecdsa.PrivateKey
}

// ParseKeyHex loads a hex-encoded ECDSA private key (with or without a "0x"
// prefix), matching the teacher's HexToECDSA convention.
func ParseKeyHex(hexKey string) (*Key, error) {
	priv, err := crypto.HexToECDSA(strings.TrimPrefix(hexKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("ethsig: failed to parse private key: %w", err)
	}
	return &Key{priv: priv}, nil
}

// Address returns the Ethereum address derived from the key.
func (k *Key) Address() common.Address {
	return crypto.PubkeyToAddress(k.priv.PublicKey)
}

// SignDigest produces a 65-byte recoverable ECDSA signature over a 32-byte
// digest (the digest is expected to already be an EIP-712 or keccak256 hash;
// this function never hashes its input itself).
func (k *Key) SignDigest(digest [32]byte) ([]byte, error) {
	sig, err := crypto.Sign(digest[:], k.priv)
	if err != nil {
		return nil, fmt.Errorf("ethsig: failed to sign digest: %w", err)
	}
	return sig, nil
}

// ContributionTypedData builds the EIP-712 typed-data structure the spec
// requires a contribution signature to cover: the pot_pubkeys and the
// powers of every sub-contribution in a BatchContribution, domain-separated
// by chain ID so a signature cannot be replayed across chains. The domain
// name and version are fixed, so instances on the same chain share a domain.
func ContributionTypedData(chainID int64, potPubkeysHex, powersHex []string) apitypes.TypedData {
	pubkeys := make([]interface{}, len(potPubkeysHex))
	for i, s := range potPubkeysHex {
		pubkeys[i] = s
	}
	powers := make([]interface{}, len(powersHex))
	for i, s := range powersHex {
		powers[i] = s
	}

	return apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": {
				{Name: "name", Type: "string"},
				{Name: "version", Type: "string"},
				{Name: "chainId", Type: "uint256"},
			},
			"Contribution": {
				{Name: "potPubkeys", Type: "string[]"},
				{Name: "powers", Type: "string[]"},
			},
		},
		PrimaryType: "Contribution",
		Domain: apitypes.TypedDataDomain{
			Name:    "kzg-ceremony-sequencer",
			Version: "1",
			ChainId: (*math.HexOrDecimal256)(big.NewInt(chainID)),
		},
		Message: apitypes.TypedDataMessage{
			"potPubkeys": pubkeys,
			"powers":     powers,
		},
	}
}

// Digest computes the EIP-712 hash of a typed-data structure that SignDigest
// / RecoverAddress operate on.
func Digest(td apitypes.TypedData) ([32]byte, error) {
	var out [32]byte
	hash, _, err := apitypes.TypedDataAndHash(td)
	if err != nil {
		return out, fmt.Errorf("ethsig: failed to hash typed data: %w", err)
	}
	copy(out[:], hash)
	return out, nil
}

// RecoverAddress recovers the Ethereum address that produced sig over
// digest. sig must be the 65-byte [R || S || V] form crypto.Sign produces;
// V is normalized to {0,1} internally as Ecrecover expects.
func RecoverAddress(digest [32]byte, sig []byte) (common.Address, error) {
	if len(sig) != 65 {
		return common.Address{}, fmt.Errorf("ethsig: signature must be 65 bytes, got %d", len(sig))
	}
	normalized := make([]byte, 65)
	copy(normalized, sig)
	if normalized[64] >= 27 {
		normalized[64] -= 27
	}
	pub, err := crypto.SigToPub(digest[:], normalized)
	if err != nil {
		return common.Address{}, fmt.Errorf("ethsig: failed to recover public key: %w", err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}

// ParseAddress accepts a 0x-prefixed hex Ethereum address, matching the
// "eth|0x..." identity convention from the coordination surface.
func ParseAddress(hexAddr string) (common.Address, error) {
	if !common.IsHexAddress(hexAddr) {
		return common.Address{}, fmt.Errorf("ethsig: not a valid Ethereum address: %q", hexAddr)
	}
	return common.HexToAddress(hexAddr), nil
}

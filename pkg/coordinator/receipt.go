package coordinator

import (
	"encoding/hex"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/kzg-ceremony/sequencer/pkg/codec"
	"github.com/kzg-ceremony/sequencer/pkg/transcript"
)

// Receipt is issued to a participant on a successful contribution: their
// identity, the resulting pot_pubkey per sub-contribution, and (if the
// sequencer holds a signing key) the sequencer's own ECDSA co-signature
// over the receipt.
type Receipt struct {
	Identity   string
	Witness    []string // hex-encoded pot_pubkey per sub-contribution
	Signature  string   // hex-encoded, empty if unsigned
}

func (c *Coordinator) buildReceipt(participantID string, contribution transcript.BatchContribution) Receipt {
	witness := make([]string, len(contribution.Contributions))
	for i, sub := range contribution.Contributions {
		b := codec.EncodeG2(sub.PotPubkey)
		witness[i] = "0x" + hex.EncodeToString(b[:])
	}

	r := Receipt{Identity: participantID, Witness: witness}
	if c.signerKey == nil {
		return r
	}

	digest := [32]byte(crypto.Keccak256Hash([]byte(receiptSigningPreimage(r))))
	sig, err := c.signerKey.SignDigest(digest)
	if err != nil {
		c.logger.Printf("failed to sign receipt for %s: %v", participantID, err)
		return r
	}
	r.Signature = "0x" + hex.EncodeToString(sig)
	return r
}

// receiptSigningPreimage builds a deterministic string to hash and sign:
// identity followed by every witness entry in order. Kept simple and
// explicit rather than reusing the contribution's own EIP-712 typed data,
// since the receipt is the sequencer's attestation, not the participant's.
func receiptSigningPreimage(r Receipt) string {
	s := r.Identity
	for _, w := range r.Witness {
		s += "|" + w
	}
	return s
}

// Package transcript implements the batch transcript state machine: an
// append-only set of (n1, n2)-sized sub-transcripts advanced atomically by
// verified contributions, plus its JSON wire format and file persistence.
package transcript

import (
	"sync"

	"github.com/kzg-ceremony/sequencer/pkg/ceremony"
	"github.com/kzg-ceremony/sequencer/pkg/curve"
)

// Witness is the append-only accumulator proving a sub-transcript's chain of
// custody: the running products (g1 followed by each accepted contribution's
// G1 power g1[1], used for the chaining pairing check) and the
// per-contribution pot_pubkey/signature history.
type Witness struct {
	RunningProducts []curve.G1Affine
	PotPubkeys      []curve.G2Affine
	BLSSignatures   []*string
}

// SubTranscript is one (n1,n2)-sized ceremony lane: its current size, its
// powers of tau, and the witness chain that verification extends.
type SubTranscript struct {
	Size    ceremony.Size
	Powers  ceremony.PowersOfTau
	Witness Witness
}

func newSubTranscript(size ceremony.Size) SubTranscript {
	return SubTranscript{
		Size:   size,
		Powers: ceremony.Identity(size),
		Witness: Witness{
			RunningProducts: []curve.G1Affine{curve.G1Generator()},
			PotPubkeys:      []curve.G2Affine{curve.G2Generator()},
			BLSSignatures:   nil,
		},
	}
}

// BatchTranscript is the sequencer's full persistent state: k independently
// sized sub-transcripts advanced in lockstep by the same ordered sequence of
// accepted contributors. Guarded by mu: readers (snapshots, HTTP streaming)
// take RLock, the single writer (verify_add) takes Lock.
type BatchTranscript struct {
	mu sync.RWMutex

	transcripts                []SubTranscript
	participantIDs              []string
	participantECDSASignatures []*string
}

// New constructs a BatchTranscript with every sub-transcript initialized to
// identity (pot_pubkey = g2, every power = the respective generator).
func New(sizes []ceremony.Size) (*BatchTranscript, error) {
	subs := make([]SubTranscript, len(sizes))
	for i, s := range sizes {
		if err := s.Validate(); err != nil {
			return nil, err
		}
		subs[i] = newSubTranscript(s)
	}
	return &BatchTranscript{transcripts: subs}, nil
}

// NumContributions returns the number of accepted contributions so far,
// equal across every sub-transcript by construction.
func (bt *BatchTranscript) NumContributions() int {
	bt.mu.RLock()
	defer bt.mu.RUnlock()
	return len(bt.participantIDs)
}

// BatchContribution is a snapshot handed to a contributor: the current
// powers of every sub-transcript, ready to have entropy applied.
type BatchContribution struct {
	Contributions  []ceremony.Contribution
	ECDSASignature *string
}

// Contribution snapshots the current state into a BatchContribution a
// client can apply entropy to. The snapshot is read-locked only; it does
// not block other readers.
func (bt *BatchTranscript) Contribution() BatchContribution {
	bt.mu.RLock()
	defer bt.mu.RUnlock()

	out := make([]ceremony.Contribution, len(bt.transcripts))
	for i, t := range bt.transcripts {
		out[i] = ceremony.Contribution{
			Size:      t.Size,
			Powers:    t.Powers,
			// Clients always start from g2: the snapshot they apply entropy
			// to is fresh, not the running cumulative pubkey.
			PotPubkey: curve.G2Generator(),
		}
	}
	return BatchContribution{Contributions: out}
}

// HexView renders a BatchContribution's pot_pubkeys and a representative
// power from each sub-contribution as the hex strings an EIP-712 identity
// binding signs over.
func (bc BatchContribution) HexView() (potPubkeysHex, powersHex []string) {
	potPubkeysHex = make([]string, len(bc.Contributions))
	powersHex = make([]string, len(bc.Contributions))
	for i, c := range bc.Contributions {
		potPubkeysHex[i] = encodeG2(c.PotPubkey)
		powersHex[i] = encodeG1(c.Powers.G1[len(c.Powers.G1)-1])
	}
	return potPubkeysHex, powersHex
}

// VerifyAdd verifies every sub-contribution against the current transcript
// state and, iff all pass, extends every sub-transcript in lockstep and
// appends the participant's identity and signature. The five-check
// verification (potentially slow, pairing-heavy) runs against an immutable
// snapshot taken under a read lock, so concurrent readers (NumContributions,
// Contribution, MarshalJSON) are never blocked by it; only the final
// mutation is taken under the write lock.
func (bt *BatchTranscript) VerifyAdd(contribution BatchContribution, participantID string, ecdsaSig *string) error {
	bt.mu.RLock()
	if len(contribution.Contributions) != len(bt.transcripts) {
		bt.mu.RUnlock()
		return newErrf(CodeUnexpectedNumContributions, "have %d, want %d", len(contribution.Contributions), len(bt.transcripts))
	}
	baseContributions := len(bt.participantIDs)
	prevStates := make([]ceremony.PrevState, len(bt.transcripts))
	for i, sub := range bt.transcripts {
		prevStates[i] = ceremony.PrevState{
			Size:        sub.Size,
			PrevProduct: sub.Witness.RunningProducts[len(sub.Witness.RunningProducts)-1],
			PrevPubkey:  sub.Witness.PotPubkeys[len(sub.Witness.PotPubkeys)-1],
		}
	}
	bt.mu.RUnlock()

	type verified struct {
		i         int
		newG1Last curve.G1Affine
	}
	results := make([]verified, len(prevStates))
	errs := make([]error, len(prevStates))

	var wg sync.WaitGroup
	wg.Add(len(prevStates))
	for i := range prevStates {
		i := i
		go func() {
			defer wg.Done()
			c := contribution.Contributions[i]
			if err := ceremony.Verify(c, prevStates[i]); err != nil {
				errs[i] = err
				return
			}
			results[i] = verified{i: i, newG1Last: c.Powers.G1[1]}
		}()
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return invalidCeremony(i, err)
		}
	}

	bt.mu.Lock()
	defer bt.mu.Unlock()

	// Another contribution was accepted while this one was being verified:
	// this one was checked against a superseded running product, so its
	// chaining pairing no longer holds against the current state.
	if len(bt.participantIDs) != baseContributions {
		return invalidCeremony(0, &ceremony.Error{Code: ceremony.CodePubKeyPairingFailed})
	}

	for i := range bt.transcripts {
		c := contribution.Contributions[i]
		t := &bt.transcripts[i]
		t.Powers = c.Powers
		t.Witness.RunningProducts = append(t.Witness.RunningProducts, results[i].newG1Last)
		t.Witness.PotPubkeys = append(t.Witness.PotPubkeys, c.PotPubkey)
		t.Witness.BLSSignatures = append(t.Witness.BLSSignatures, nil)
	}
	bt.participantIDs = append(bt.participantIDs, participantID)
	bt.participantECDSASignatures = append(bt.participantECDSASignatures, ecdsaSig)

	return nil
}

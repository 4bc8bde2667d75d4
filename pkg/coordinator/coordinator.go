// Package coordinator implements the ceremony coordinator (C5): the lobby,
// the single active-contributor slot, the compute-deadline timer, and
// receipt issuance, wired against a transcript.BatchTranscript.
package coordinator

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/kzg-ceremony/sequencer/pkg/ceremony"
	"github.com/kzg-ceremony/sequencer/pkg/ethsig"
	"github.com/kzg-ceremony/sequencer/pkg/transcript"
)

// ContributorStore is the durable uniqueness collaborator (pkg/storage):
// a participant identifier may complete a contribution at most once.
type ContributorStore interface {
	HasContributed(ctx context.Context, participantID string) (bool, error)
	MarkContributed(ctx context.Context, participantID string) error
}

// Config carries the coordinator's timing knobs, all durations per the
// concurrency model's "durations, not instants" requirement.
type Config struct {
	ComputeDeadline        time.Duration
	LobbyCheckinFrequency  time.Duration
	LobbyCheckinTolerance  time.Duration
	LobbyFlushInterval     time.Duration
	LobbyMaxSize           int
	TranscriptPath         string
	EthChainID             int64
}

// Coordinator ties the lobby, the active-contributor slot, the batch
// transcript, durable storage, and receipt signing together.
type Coordinator struct {
	cfg Config

	lobby  *LobbyState
	active *ActiveContributor

	transcript *transcript.BatchTranscript
	store      ContributorStore
	signerKey  *ethsig.Key

	logger *log.Logger

	stopCh chan struct{}
	doneCh chan struct{}
}

// New constructs a Coordinator. signerKey is the sequencer's own ECDSA key
// used to co-sign receipts (spec §4.5); it may be nil in which case
// receipts are issued unsigned.
func New(cfg Config, t *transcript.BatchTranscript, store ContributorStore, signerKey *ethsig.Key) *Coordinator {
	return &Coordinator{
		cfg:        cfg,
		lobby:      NewLobbyState(cfg.LobbyMaxSize),
		active:     &ActiveContributor{},
		transcript: t,
		store:      store,
		signerKey:  signerKey,
		logger:     log.New(log.Writer(), "[Coordinator] ", log.LstdFlags),
	}
}

// Register admits an authenticated participant into the lobby.
func (c *Coordinator) Register(sessionID, participantID string, now time.Time) error {
	return c.lobby.Register(sessionID, participantID, now)
}

// Status reports the lobby/contribution counters for /info/status.
type Status struct {
	LobbySize          int
	NumContributions   int
	SequencerAddress   string
}

func (c *Coordinator) Status() Status {
	addr := ""
	if c.signerKey != nil {
		addr = c.signerKey.Address().Hex()
	}
	return Status{
		LobbySize:        c.lobby.Size(),
		NumContributions: c.transcript.NumContributions(),
		SequencerAddress: addr,
	}
}

// TryContribute implements the lobby's try_contribute step: rate-limit,
// single-slot reservation, and snapshot issuance.
func (c *Coordinator) TryContribute(sessionID string, now time.Time) (transcript.BatchContribution, error) {
	session, ok := c.lobby.Get(sessionID)
	if !ok {
		return transcript.BatchContribution{}, newErr(CodeUnknownSessionID, sessionID)
	}

	// A session's first try_contribute after registering (LastCheckin still
	// equal to CreatedAt) is not rate limited; every call records a check-in.
	minGap := c.cfg.LobbyCheckinFrequency - c.cfg.LobbyCheckinTolerance
	checkedInBefore := session.LastCheckin.After(session.CreatedAt)
	if checkedInBefore && minGap > 0 && now.Sub(session.LastCheckin) < minGap {
		return transcript.BatchContribution{}, newErr(CodeRateLimited, sessionID)
	}
	if err := c.lobby.Checkin(sessionID, now); err != nil {
		return transcript.BatchContribution{}, err
	}

	if !c.active.TryOccupy(sessionID, now) {
		return transcript.BatchContribution{}, newErr(CodeAnotherContributionInProgress, "")
	}

	if _, ok := c.lobby.Take(sessionID); !ok {
		c.active.ClearIfHolds(sessionID)
		return transcript.BatchContribution{}, newErr(CodeUnknownSessionID, sessionID)
	}

	c.startDeadlineTimer(sessionID)

	return c.transcript.Contribution(), nil
}

// startDeadlineTimer schedules the compute-deadline cancellation signal: if
// the slot still holds sessionID once the deadline elapses, it is cleared
// and the session expires.
func (c *Coordinator) startDeadlineTimer(sessionID string) {
	go func() {
		timer := time.NewTimer(c.cfg.ComputeDeadline)
		defer timer.Stop()
		<-timer.C
		if c.active.ClearIfHolds(sessionID) {
			c.logger.Printf("compute deadline expired for session %s", sessionID)
		}
	}()
}

// Contribute implements the contribute step: turn ownership check, atomic
// verify_add, durable persistence, receipt issuance, and slot release.
func (c *Coordinator) Contribute(ctx context.Context, sessionID, participantID string, contribution transcript.BatchContribution, ecdsaSig *string) (Receipt, error) {
	if !c.active.Holds(sessionID) {
		return Receipt{}, newErr(CodeNotUsersTurn, sessionID)
	}

	alreadyDone, err := c.store.HasContributed(ctx, participantID)
	if err != nil {
		c.active.ClearIfHolds(sessionID)
		return Receipt{}, err
	}
	if alreadyDone {
		c.active.ClearIfHolds(sessionID)
		return Receipt{}, newErr(CodeUserAlreadyContributed, participantID)
	}

	if err := c.transcript.VerifyAdd(contribution, participantID, ecdsaSig); err != nil {
		c.active.ClearIfHolds(sessionID)
		return Receipt{}, err
	}

	if err := c.store.MarkContributed(ctx, participantID); err != nil {
		// The in-memory transcript already advanced; write-rename below is
		// skipped so the persisted file on disk still reflects the prior
		// state until storage recovers and a later SaveFile succeeds.
		c.active.ClearIfHolds(sessionID)
		return Receipt{}, err
	}

	c.logIdentityBinding(participantID, contribution, ecdsaSig)

	receipt := c.buildReceipt(participantID, contribution)

	if c.cfg.TranscriptPath != "" {
		if err := c.transcript.SaveFile(c.cfg.TranscriptPath); err != nil {
			c.active.ClearIfHolds(sessionID)
			return Receipt{}, err
		}
	}

	c.active.ClearIfHolds(sessionID)
	return receipt, nil
}

// logIdentityBinding checks an optional EIP-712 signature against an
// eth|0x... participant identity and logs whether it bound. Per spec, this
// never affects acceptance of the contribution itself: a missing or
// mismatched signature is simply unbound identity metadata.
func (c *Coordinator) logIdentityBinding(participantID string, contribution transcript.BatchContribution, ecdsaSig *string) {
	addrHex, ok := strings.CutPrefix(participantID, "eth|")
	if !ok || ecdsaSig == nil {
		return
	}
	claimed, err := ethsig.ParseAddress(addrHex)
	if err != nil {
		return
	}
	potPubkeysHex, powersHex := contribution.HexView()
	accepted, err := ceremony.BindECDSA(c.cfg.EthChainID, potPubkeysHex, powersHex, *ecdsaSig, claimed)
	if err != nil {
		c.logger.Printf("identity binding check errored for %s: %v", participantID, err)
		return
	}
	if !accepted {
		c.logger.Printf("identity binding signature did not match claimed address for %s", participantID)
	}
}

// Abort voluntarily releases the active-contributor slot for sessionID,
// implementing /contribute/abort.
func (c *Coordinator) Abort(sessionID string) {
	c.active.ClearIfHolds(sessionID)
}

// FlushLobby removes stale lobby sessions; intended to be called from a
// periodic ticker at cfg.LobbyFlushInterval.
func (c *Coordinator) FlushLobby(now time.Time) int {
	staleAfter := c.cfg.LobbyCheckinFrequency + c.cfg.LobbyCheckinTolerance
	return c.lobby.Flush(now, staleAfter)
}

// RunLobbyFlusher runs FlushLobby on cfg.LobbyFlushInterval until ctx is
// canceled, grounded on the teacher's ticker/stop/done scheduler loop.
func (c *Coordinator) RunLobbyFlusher(ctx context.Context) {
	c.stopCh = make(chan struct{})
	c.doneCh = make(chan struct{})
	defer close(c.doneCh)

	ticker := time.NewTicker(c.cfg.LobbyFlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.stopCh:
			return
		case now := <-ticker.C:
			if n := c.FlushLobby(now); n > 0 {
				c.logger.Printf("flushed %d stale lobby sessions", n)
			}
		}
	}
}

// StopLobbyFlusher signals RunLobbyFlusher to exit and waits for it to do
// so, mirroring the teacher's Stop/doneCh shutdown pattern.
func (c *Coordinator) StopLobbyFlusher() {
	if c.stopCh == nil {
		return
	}
	close(c.stopCh)
	<-c.doneCh
}

package coordinator

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kzg-ceremony/sequencer/pkg/ceremony"
	"github.com/kzg-ceremony/sequencer/pkg/transcript"
	"github.com/kzg-ceremony/sequencer/pkg/zeroize"
)

// fakeStore is an in-memory ContributorStore for tests, standing in for
// pkg/storage's Postgres-backed client.
type fakeStore struct {
	mu   sync.Mutex
	done map[string]bool
}

func newFakeStore() *fakeStore { return &fakeStore{done: make(map[string]bool)} }

func (f *fakeStore) HasContributed(ctx context.Context, participantID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.done[participantID], nil
}

func (f *fakeStore) MarkContributed(ctx context.Context, participantID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.done[participantID] = true
	return nil
}

func testConfig() Config {
	return Config{
		ComputeDeadline:       time.Hour,
		LobbyCheckinFrequency: 30 * time.Second,
		LobbyCheckinTolerance: 10 * time.Second,
		LobbyFlushInterval:    time.Minute,
		LobbyMaxSize:          10,
		EthChainID:            1,
	}
}

func applyEntropy(t *testing.T, snapshot transcript.BatchContribution, b byte) transcript.BatchContribution {
	t.Helper()
	out := make([]ceremony.Contribution, len(snapshot.Contributions))
	for i, c := range snapshot.Contributions {
		var raw [32]byte
		raw[31] = b
		raw[0] = byte(i) + 1
		tau, err := ceremony.DeriveTau(zeroize.NewBytes32(raw))
		require.NoError(t, err)
		updated, err := ceremony.Update(c.Powers, c.PotPubkey, c.Size, tau)
		require.NoError(t, err)
		out[i] = updated
	}
	return transcript.BatchContribution{Contributions: out}
}

func TestCoordinatorFullContributionFlow(t *testing.T) {
	bt, err := transcript.New([]ceremony.Size{{NumG1: 4, NumG2: 3}})
	require.NoError(t, err)
	coord := New(testConfig(), bt, newFakeStore(), nil)

	now := time.Now()
	require.NoError(t, coord.Register("session-1", "participant-1", now))

	snapshot, err := coord.TryContribute("session-1", now)
	require.NoError(t, err)

	contribution := applyEntropy(t, snapshot, 5)
	receipt, err := coord.Contribute(context.Background(), "session-1", "participant-1", contribution, nil)
	require.NoError(t, err)
	require.Equal(t, "participant-1", receipt.Identity)
	require.Empty(t, receipt.Signature) // no signer key configured

	require.Equal(t, 1, coord.Status().NumContributions)
}

func TestTryContributeRejectsUnknownSession(t *testing.T) {
	bt, err := transcript.New([]ceremony.Size{{NumG1: 4, NumG2: 3}})
	require.NoError(t, err)
	coord := New(testConfig(), bt, newFakeStore(), nil)

	_, err = coord.TryContribute("ghost-session", time.Now())
	var cerr *Error
	require.ErrorAs(t, err, &cerr)
	require.Equal(t, CodeUnknownSessionID, cerr.Code)
}

func TestTryContributeRejectsSecondConcurrentClaim(t *testing.T) {
	bt, err := transcript.New([]ceremony.Size{{NumG1: 4, NumG2: 3}})
	require.NoError(t, err)
	coord := New(testConfig(), bt, newFakeStore(), nil)

	now := time.Now()
	require.NoError(t, coord.Register("session-1", "participant-1", now))
	require.NoError(t, coord.Register("session-2", "participant-2", now))

	_, err = coord.TryContribute("session-1", now)
	require.NoError(t, err)

	_, err = coord.TryContribute("session-2", now)
	var cerr *Error
	require.ErrorAs(t, err, &cerr)
	require.Equal(t, CodeAnotherContributionInProgress, cerr.Code)
}

func TestContributeRejectsWhenNotHoldingTurn(t *testing.T) {
	bt, err := transcript.New([]ceremony.Size{{NumG1: 4, NumG2: 3}})
	require.NoError(t, err)
	coord := New(testConfig(), bt, newFakeStore(), nil)

	now := time.Now()
	require.NoError(t, coord.Register("session-1", "participant-1", now))

	_, err = coord.Contribute(context.Background(), "session-1", "participant-1", transcript.BatchContribution{}, nil)
	var cerr *Error
	require.ErrorAs(t, err, &cerr)
	require.Equal(t, CodeNotUsersTurn, cerr.Code)
}

func TestContributeRejectsAlreadyContributedParticipant(t *testing.T) {
	bt, err := transcript.New([]ceremony.Size{{NumG1: 4, NumG2: 3}})
	require.NoError(t, err)
	store := newFakeStore()
	coord := New(testConfig(), bt, store, nil)

	now := time.Now()
	require.NoError(t, coord.Register("session-1", "participant-1", now))
	snapshot, err := coord.TryContribute("session-1", now)
	require.NoError(t, err)

	require.NoError(t, store.MarkContributed(context.Background(), "participant-1"))

	contribution := applyEntropy(t, snapshot, 5)
	_, err = coord.Contribute(context.Background(), "session-1", "participant-1", contribution, nil)
	var cerr *Error
	require.ErrorAs(t, err, &cerr)
	require.Equal(t, CodeUserAlreadyContributed, cerr.Code)
}

func TestAbortReleasesSlot(t *testing.T) {
	bt, err := transcript.New([]ceremony.Size{{NumG1: 4, NumG2: 3}})
	require.NoError(t, err)
	coord := New(testConfig(), bt, newFakeStore(), nil)

	now := time.Now()
	require.NoError(t, coord.Register("session-1", "participant-1", now))
	_, err = coord.TryContribute("session-1", now)
	require.NoError(t, err)

	coord.Abort("session-1")

	require.NoError(t, coord.Register("session-2", "participant-2", now))
	_, err = coord.TryContribute("session-2", now)
	require.NoError(t, err)
}

func TestFlushLobbyRemovesStaleSessions(t *testing.T) {
	bt, err := transcript.New([]ceremony.Size{{NumG1: 4, NumG2: 3}})
	require.NoError(t, err)
	coord := New(testConfig(), bt, newFakeStore(), nil)

	now := time.Now()
	require.NoError(t, coord.Register("session-1", "participant-1", now))

	removed := coord.FlushLobby(now.Add(time.Hour))
	require.Equal(t, 1, removed)
	require.Equal(t, 0, coord.Status().LobbySize)
}

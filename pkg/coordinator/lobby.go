package coordinator

import (
	"sync"
	"time"
)

// SessionStatus is a session's position in the state machine from the
// coordinator design: Registered -> Active -> Completed/Expired.
type SessionStatus string

const (
	SessionRegistered SessionStatus = "registered"
	SessionActive     SessionStatus = "active"
	SessionCompleted  SessionStatus = "completed"
	SessionExpired    SessionStatus = "expired"
)

// Session is one participant's lobby entry: their claimed identity and the
// bookkeeping the lobby flusher and rate limiter need.
type Session struct {
	SessionID     string
	ParticipantID string
	Status        SessionStatus
	LastCheckin   time.Time
	CreatedAt     time.Time
}

// LobbyState maps session identifiers to participant metadata. Guarded by
// its own exclusive lock, released before any downstream async call (per
// the concurrency model, to avoid deadlocking against the compute-deadline
// task).
type LobbyState struct {
	mu       sync.Mutex
	sessions map[string]*Session
	maxSize  int
}

// NewLobbyState constructs an empty lobby with a capacity bound.
func NewLobbyState(maxSize int) *LobbyState {
	return &LobbyState{sessions: make(map[string]*Session), maxSize: maxSize}
}

// Register admits a newly authenticated participant, rejecting with
// LobbyIsFull once the lobby is at capacity.
func (l *LobbyState) Register(sessionID, participantID string, now time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if len(l.sessions) >= l.maxSize {
		return newErr(CodeLobbyIsFull, "lobby at capacity")
	}
	l.sessions[sessionID] = &Session{
		SessionID:     sessionID,
		ParticipantID: participantID,
		Status:        SessionRegistered,
		LastCheckin:   now,
		CreatedAt:     now,
	}
	return nil
}

// Checkin refreshes a session's last-checkin time, used by both the lobby
// try_contribute rate limit and the periodic flusher.
func (l *LobbyState) Checkin(sessionID string, now time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.sessions[sessionID]
	if !ok {
		return newErr(CodeUnknownSessionID, sessionID)
	}
	s.LastCheckin = now
	return nil
}

// Take removes a session from the lobby and returns it, for the atomic
// move into ActiveContributor. Returns false if absent.
func (l *LobbyState) Take(sessionID string) (*Session, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.sessions[sessionID]
	if !ok {
		return nil, false
	}
	delete(l.sessions, sessionID)
	return s, true
}

// Get returns a copy of the session metadata without removing it.
func (l *LobbyState) Get(sessionID string) (Session, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.sessions[sessionID]
	if !ok {
		return Session{}, false
	}
	return *s, true
}

// Size returns the number of sessions currently waiting in the lobby.
func (l *LobbyState) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.sessions)
}

// Flush removes sessions whose last check-in is older than staleAfter,
// implementing the periodic lobby flusher.
func (l *LobbyState) Flush(now time.Time, staleAfter time.Duration) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	removed := 0
	for id, s := range l.sessions {
		if now.Sub(s.LastCheckin) > staleAfter {
			delete(l.sessions, id)
			removed++
		}
	}
	return removed
}

// ActiveContributor is the single-slot (at most one) holder of the session
// currently computing a contribution.
type ActiveContributor struct {
	mu        sync.Mutex
	sessionID string
	occupied  bool
	fetchTime time.Time
}

// TryOccupy atomically claims the slot for sessionID if it is free.
func (a *ActiveContributor) TryOccupy(sessionID string, now time.Time) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.occupied {
		return false
	}
	a.occupied = true
	a.sessionID = sessionID
	a.fetchTime = now
	return true
}

// Holds reports whether sessionID currently holds the slot.
func (a *ActiveContributor) Holds(sessionID string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.occupied && a.sessionID == sessionID
}

// ClearIfHolds releases the slot only if sessionID is still the holder,
// the same guard the compute-deadline timer needs to avoid clearing a slot
// a newer session has since claimed.
func (a *ActiveContributor) ClearIfHolds(sessionID string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.occupied && a.sessionID == sessionID {
		a.occupied = false
		a.sessionID = ""
		return true
	}
	return false
}

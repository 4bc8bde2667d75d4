package coordinator

import "fmt"

// Code identifies a lobby/session-coordination rejection reason.
type Code string

const (
	CodeNotUsersTurn             Code = "NotUsersTurn"
	CodeUnknownSessionID         Code = "UnknownSessionId"
	CodeRateLimited              Code = "RateLimited"
	CodeLobbyIsFull              Code = "LobbyIsFull"
	CodeAnotherContributionInProgress Code = "AnotherContributionInProgress"
	CodeUserAlreadyContributed   Code = "UserAlreadyContributed"
	CodeUserCreatedAfterDeadline Code = "UserCreatedAfterDeadline"
)

// Error is a typed coordination error. Per spec, AnotherContributionInProgress
// is informative (the client is expected to retry), not fatal to the session.
type Error struct {
	Code Code
	msg  string
}

func (e *Error) Error() string {
	if e.msg != "" {
		return fmt.Sprintf("coordinator: %s: %s", e.Code, e.msg)
	}
	return fmt.Sprintf("coordinator: %s", e.Code)
}

func newErr(code Code, msg string) *Error { return &Error{Code: code, msg: msg} }

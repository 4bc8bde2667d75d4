package transcript

import "fmt"

// Code identifies a batch-level rejection reason, distinct from the
// per-sub-contribution ceremony.Code values that InvalidCeremony carries.
type Code string

const (
	CodeUnexpectedNumContributions Code = "UnexpectedNumContributions"
	CodeInvalidCeremony            Code = "InvalidCeremony"
)

// Error is a typed batch error. When Code is CodeInvalidCeremony, Index
// names which sub-transcript failed and SubError carries its ceremony.Error.
type Error struct {
	Code     Code
	Index    int
	SubError error
}

func (e *Error) Error() string {
	if e.Code == CodeInvalidCeremony {
		return fmt.Sprintf("transcript: invalid ceremony at sub-transcript %d: %v", e.Index, e.SubError)
	}
	return fmt.Sprintf("transcript: %s", e.Code)
}

func (e *Error) Unwrap() error { return e.SubError }

func newErrf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, SubError: fmt.Errorf(format, args...)}
}

func invalidCeremony(index int, err error) *Error {
	return &Error{Code: CodeInvalidCeremony, Index: index, SubError: err}
}

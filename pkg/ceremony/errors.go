package ceremony

import "fmt"

// Code is a stable error identifier. These strings appear verbatim in
// receipts, HTTP error bodies, and logs, so they are never renamed once
// shipped.
type Code string

const (
	CodeBigIntError            Code = "BigIntError"
	CodeNotCompressed          Code = "NotCompressed"
	CodeInvalidInfinity        Code = "InvalidInfinity"
	CodeInvalidPrimeField      Code = "InvalidPrimeField"
	CodeInvalidExtensionField  Code = "InvalidExtensionField"
	CodeInvalidXCoordinate     Code = "InvalidXCoordinate"
	CodeInvalidSubgroup        Code = "InvalidSubgroup"

	CodeUnexpectedNumG1Powers    Code = "UnexpectedNumG1Powers"
	CodeUnexpectedNumG2Powers    Code = "UnexpectedNumG2Powers"
	CodeInconsistentNumG1Powers  Code = "InconsistentNumG1Powers"
	CodeInconsistentNumG2Powers  Code = "InconsistentNumG2Powers"
	CodeUnsupportedMoreG2Powers  Code = "UnsupportedMoreG2Powers"

	CodePubKeyPairingFailed    Code = "PubKeyPairingFailed"
	CodeG1PairingFailed        Code = "G1PairingFailed"
	CodeG2PairingFailed        Code = "G2PairingFailed"
	CodeZeroPubkey             Code = "ZeroPubkey"
	CodeContributionNoEntropy  Code = "ContributionNoEntropy"
	CodeInvalidG1FirstValue    Code = "InvalidG1FirstValue"
	CodeInvalidG2FirstValue    Code = "InvalidG2FirstValue"
	CodeDuplicateG1            Code = "DuplicateG1"
	CodeDuplicateG2            Code = "DuplicateG2"
)

// Error is a typed ceremony error carrying a stable Code. The constructors
// in this package leave Index at 0; the failing sub-contribution's index is
// carried by the wrapping transcript.Error.
type Error struct {
	Code  Code
	Index int
	msg   string
}

func (e *Error) Error() string {
	if e.msg != "" {
		return fmt.Sprintf("ceremony: %s: %s", e.Code, e.msg)
	}
	return fmt.Sprintf("ceremony: %s", e.Code)
}

// Unwrap always returns nil: an Error wraps no underlying error. Callers
// match on it with errors.As and compare Code.
func (e *Error) Unwrap() error { return nil }

func newErr(code Code, msg string) *Error {
	return &Error{Code: code, msg: msg}
}

func newErrf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, msg: fmt.Sprintf(format, args...)}
}

// Package zeroize provides containers for secret byte material that erase
// it when it is consumed or explicitly wiped.
package zeroize

import "errors"

// ErrConsumed is returned when a Bytes32 is read after it has already been
// consumed (or wiped).
var ErrConsumed = errors.New("zeroize: secret already consumed")

// Bytes32 wraps a 32-byte secret (entropy, an intermediate scalar seed).
// Consume and Wipe zero the backing array. A Bytes32 that is dropped, or
// that a panic unwinds past, without either call having been made (for
// example through a defer) is not wiped.
//
// Bytes32 is non-copyable in spirit: callers must not copy the struct after
// construction, since a copy holds its own backing array and will not be
// wiped by the original's Wipe/Consume.
type Bytes32 struct {
	data      [32]byte
	consumed  bool
}

// NewBytes32 takes ownership of b (which MUST be exactly 32 bytes) and
// returns a container that will zero it out. The caller's own copy of b's
// backing array, if any, is not this container's concern.
func NewBytes32(b [32]byte) *Bytes32 {
	return &Bytes32{data: b}
}

// Consume returns a copy of the secret and wipes the container. A second
// call (reuse) returns ErrConsumed rather than stale or zeroed data, so
// double-consumption fails loudly instead of silently handing back zeros.
func (z *Bytes32) Consume() ([32]byte, error) {
	if z == nil || z.consumed {
		return [32]byte{}, ErrConsumed
	}
	out := z.data
	z.wipe()
	return out, nil
}

// Wipe erases the secret without returning it. Safe to call multiple times
// and safe to call via defer on every exit path (including panic).
func (z *Bytes32) Wipe() {
	if z == nil {
		return
	}
	z.wipe()
}

func (z *Bytes32) wipe() {
	for i := range z.data {
		z.data[i] = 0
	}
	z.consumed = true
}

// WipeBytes zeroes an arbitrary byte slice in place. Used for intermediate
// buffers (hash outputs, scalar byte representations) that are not wrapped
// in a Bytes32 but still must never survive past their use.
func WipeBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

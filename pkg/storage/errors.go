package storage

import "errors"

// ErrAlreadyContributed is returned by MarkContributed when the identifier
// already holds the uniqueness constraint's row.
var ErrAlreadyContributed = errors.New("storage: participant already contributed")

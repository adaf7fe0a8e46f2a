package ledger

import "errors"

// Error definitions. Storage and index failures surface as wal.ErrIO,
// wal.ErrCorrupted and index.ErrOrdering.
var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("batch not found")
)

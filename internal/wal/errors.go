package wal

import (
	"errors"
	"fmt"
)

var (
	// ErrIO is returned when the medium rejects a write. The entry is not
	// committed.
	ErrIO = errors.New("log write failed")

	// ErrCorrupted matches every *CorruptionError via errors.Is.
	ErrCorrupted = errors.New("corrupted log entry")

	ErrClosed = errors.New("log is closed")

	// ErrEntryTooLarge is returned when an entry encodes to more than the
	// largest frame Scan accepts. Nothing is written.
	ErrEntryTooLarge = errors.New("log entry too large")

	// ErrNotRecovered is returned by Append before Replay has run.
	ErrNotRecovered = errors.New("log has not been replayed")
)

// CorruptionError describes the first damaged frame found during a scan.
// Entries before Offset are intact.
type CorruptionError struct {
	Offset int64
	// Torn is set when the damage is confined to the final frame, which is
	// what a crash in the middle of an append leaves behind.
	Torn   bool
	Reason string
}

func (e *CorruptionError) Error() string {
	kind := "corrupted entry"
	if e.Torn {
		kind = "torn trailing entry"
	}
	return fmt.Sprintf("%s at offset %d: %s", kind, e.Offset, e.Reason)
}

func (e *CorruptionError) Is(target error) bool {
	return target == ErrCorrupted
}

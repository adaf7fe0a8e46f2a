package ledger

import (
	"errors"
	"fmt"
	"log"

	"go-inventory-ledger/internal/index"
	"go-inventory-ledger/internal/wal"
)

// RecoveryPolicy decides what happens when replay finds a damaged entry that
// is not a torn final write.
type RecoveryPolicy int

const (
	// RecoverStrict aborts startup.
	RecoverStrict RecoveryPolicy = iota
	// RecoverTruncate drops the damaged entry and everything after it.
	RecoverTruncate
)

func ParseRecoveryPolicy(s string) (RecoveryPolicy, error) {
	switch s {
	case "", "strict":
		return RecoverStrict, nil
	case "truncate":
		return RecoverTruncate, nil
	}
	return RecoverStrict, fmt.Errorf("unknown recovery policy %q", s)
}

// Config configures an Engine.
type Config struct {
	Path     string
	SyncMode wal.SyncMode
	Recovery RecoveryPolicy
}

// Open opens the log at cfg.Path, replays it and rebuilds the index. No
// other operation can reach the engine before Open returns.
//
// A torn trailing entry is always discarded: it is the signature of a crash
// mid-append and was never acknowledged. Other damage aborts startup unless
// cfg.Recovery is RecoverTruncate.
func Open(cfg Config) (*Engine, error) {
	store, err := wal.Open(cfg.Path, wal.Config{SyncMode: cfg.SyncMode})
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}

	entries, err := store.Replay()
	if err != nil {
		var ce *wal.CorruptionError
		if !errors.As(err, &ce) {
			store.Close()
			return nil, fmt.Errorf("replay log: %w", err)
		}
		if !ce.Torn && cfg.Recovery != RecoverTruncate {
			store.Close()
			return nil, fmt.Errorf("replay log: %w", err)
		}

		log.Printf("ledger: %v; truncating log after %d intact entries", ce, len(entries))
		if err := store.Truncate(ce.Offset); err != nil {
			store.Close()
			return nil, err
		}
	}

	ix := index.New()
	ix.Rebuild(entries)
	log.Printf("ledger: replayed %d entries into %d batches from %s", len(entries), ix.Len(), cfg.Path)

	return newEngine(store, ix), nil
}

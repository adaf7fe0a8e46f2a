package ledger

import (
	"fmt"
	"log"

	"go-inventory-ledger/internal/index"
	"go-inventory-ledger/internal/model"
)

// Correction replaces the local state of one key with a merged record. The
// record keeps the version it won with; it is not renumbered.
type Correction struct {
	Operation model.Operation
	Record    model.Record
}

// Planner computes corrections against a consistent local view.
type Planner func(local []model.Record) ([]Correction, error)

// ApplyCorrections runs plan with ordinary mutations held off and commits
// the corrections it returns as one batch. These are administrative
// overrides: the one-step version rule does not apply, but a correction may
// never lower a key's version. A correction at the current version replaces
// the record (a tie the planner broke in the remote's favor).
func (e *Engine) ApplyCorrections(source string, plan Planner) ([]model.LogEntry, error) {
	e.barrier.Lock()
	defer e.barrier.Unlock()

	corrections, err := plan(e.index.List())
	if err != nil {
		return nil, err
	}
	if len(corrections) == 0 {
		return nil, nil
	}

	now := e.now()
	entries := make([]model.LogEntry, 0, len(corrections))
	for _, c := range corrections {
		if !c.Operation.Valid() {
			return nil, fmt.Errorf("%w: unknown operation %q", ErrValidation, c.Operation)
		}
		if current, ok := e.index.Get(c.Record.Key); ok && c.Record.Version < current.Version {
			return nil, fmt.Errorf("%w: correction for %s at version %d is behind version %d",
				index.ErrOrdering, c.Record.Key, c.Record.Version, current.Version)
		}
		entries = append(entries, model.LogEntry{
			Operation:  c.Operation,
			Key:        c.Record.Key,
			Version:    c.Record.Version,
			Payload:    c.Record,
			Override:   true,
			Source:     source,
			RecordedAt: now,
		})
	}

	if err := e.store.AppendBatch(entries); err != nil {
		return nil, err
	}

	for _, entry := range entries {
		if err := e.index.Override(entry); err != nil {
			log.Printf("reconcile: %v", err)
			e.rebuildLocked()
			return nil, err
		}
		log.Printf("reconcile: override %s %s -> v%d (qty %d, tombstone %t) from %s",
			entry.Operation, entry.Key, entry.Version, entry.Payload.Quantity, entry.Payload.Tombstone, source)
	}
	return entries, nil
}

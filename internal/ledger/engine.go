// Package ledger is the only writer of the inventory log. It validates
// mutations, appends them durably and applies them to the index, so the log
// and the index never disagree about a committed mutation.
package ledger

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"go-inventory-ledger/internal/index"
	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/wal"
)

// Change is the outcome of a mutation. Applied is false only when the
// request was already satisfied (tombstoning a tombstoned batch); Entry then
// carries the current record with a zero sequence.
type Change struct {
	Entry   model.LogEntry
	Applied bool
}

func (c Change) Record() model.Record {
	return c.Entry.Payload
}

// Engine owns the log and the index for one ledger instance.
//
// Mutations on one key are serialized by a per-key lock; mutations on
// different keys only meet inside the log's append. Reconciliation takes the
// barrier exclusively, which drains in-flight mutations and holds new ones.
type Engine struct {
	store   *wal.Log
	index   *index.Index
	locks   *keyLocks
	barrier sync.RWMutex
	now     func() time.Time
}

func newEngine(store *wal.Log, ix *index.Index) *Engine {
	return &Engine{
		store: store,
		index: ix,
		locks: newKeyLocks(),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Create adds a batch, or recreates one that was tombstoned. The version
// continues from the key's previous history.
func (e *Engine) Create(key, name string, quantity int, expiry string) (Change, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return Change{}, fmt.Errorf("%w: batch id is required", ErrValidation)
	}
	if utf8.RuneCountInString(key) > model.MaxKeyLength {
		return Change{}, fmt.Errorf("%w: batch id is longer than %d characters", ErrValidation, model.MaxKeyLength)
	}
	if strings.TrimSpace(name) == "" {
		return Change{}, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if utf8.RuneCountInString(name) > model.MaxNameLength {
		return Change{}, fmt.Errorf("%w: name is longer than %d characters", ErrValidation, model.MaxNameLength)
	}
	if quantity < 1 {
		return Change{}, fmt.Errorf("%w: quantity must be at least 1", ErrValidation)
	}
	exp, err := model.ParseExpiry(expiry)
	if err != nil {
		return Change{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	return e.mutate(key, func(current model.Record, exists bool) (*model.LogEntry, error) {
		if exists && current.Live() {
			return nil, fmt.Errorf("%w: batch %s already exists", ErrValidation, key)
		}
		return &model.LogEntry{
			Operation: model.OpCreate,
			Key:       key,
			Version:   current.Version + 1,
			Payload: model.Record{
				Name:     name,
				Quantity: quantity,
				Expiry:   exp,
			},
		}, nil
	})
}

// Adjust sets a batch's quantity. Zero is a tombstone; a positive quantity on
// a tombstoned batch restocks it as a CREATE keeping its name and expiry.
func (e *Engine) Adjust(key string, quantity int) (Change, error) {
	return e.mutate(key, func(current model.Record, exists bool) (*model.LogEntry, error) {
		if !exists {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		if quantity == 0 {
			return tombstoneEntry(key, current), nil
		}
		if quantity < 0 {
			return nil, fmt.Errorf("%w: quantity cannot be negative", ErrValidation)
		}

		payload := current
		payload.Quantity = quantity
		op := model.OpAdjust
		if current.Tombstone {
			// Tombstones merged from a peer may carry no name or expiry.
			if current.Name == "" || current.Expiry.IsZero() {
				return nil, fmt.Errorf("%w: batch %s has no name or expiry on record, add it again to restock", ErrValidation, key)
			}
			payload.Tombstone = false
			op = model.OpCreate
		}
		return &model.LogEntry{
			Operation: op,
			Key:       key,
			Version:   current.Version + 1,
			Payload:   payload,
		}, nil
	})
}

// Tombstone deletes a batch logically. Deleting an already deleted batch
// succeeds without writing anything.
func (e *Engine) Tombstone(key string) (Change, error) {
	return e.mutate(key, func(current model.Record, exists bool) (*model.LogEntry, error) {
		if !exists {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return tombstoneEntry(key, current), nil
	})
}

// tombstoneEntry returns nil when the record is already tombstoned.
func tombstoneEntry(key string, current model.Record) *model.LogEntry {
	if current.Tombstone {
		return nil
	}
	payload := current
	payload.Quantity = 0
	payload.Tombstone = true
	return &model.LogEntry{
		Operation: model.OpTombstone,
		Key:       key,
		Version:   current.Version + 1,
		Payload:   payload,
	}
}

// mutate runs plan under the key lock and commits the entry it returns. A nil
// entry with a nil error is a no-op.
func (e *Engine) mutate(key string, plan func(current model.Record, exists bool) (*model.LogEntry, error)) (Change, error) {
	e.barrier.RLock()
	unlock := e.locks.Lock(key)

	change, err := e.mutateLocked(key, plan)

	unlock()
	e.barrier.RUnlock()

	if errors.Is(err, index.ErrOrdering) {
		e.resync()
	}
	return change, err
}

func (e *Engine) mutateLocked(key string, plan func(current model.Record, exists bool) (*model.LogEntry, error)) (Change, error) {
	current, exists := e.index.Get(key)
	entry, err := plan(current, exists)
	if err != nil {
		return Change{}, err
	}
	if entry == nil {
		return Change{Entry: model.LogEntry{Operation: model.OpTombstone, Key: key, Version: current.Version, Payload: current}}, nil
	}

	entry.Payload.Key = key
	entry.Payload.Version = entry.Version
	entry.RecordedAt = e.now()

	if _, err := e.store.Append(entry); err != nil {
		return Change{}, err
	}
	if err := e.index.Apply(*entry); err != nil {
		log.Printf("ledger: %v", err)
		return Change{}, err
	}
	return Change{Entry: *entry, Applied: true}, nil
}

// resync rebuilds the index from the log after an ordering failure. The log
// is authoritative.
func (e *Engine) resync() {
	e.barrier.Lock()
	defer e.barrier.Unlock()
	e.rebuildLocked()
}

func (e *Engine) rebuildLocked() error {
	result, err := wal.Scan(e.store.Path())
	if result == nil {
		log.Printf("ledger: index rebuild failed: %v", err)
		return err
	}
	if err != nil {
		log.Printf("ledger: index rebuild stopped early: %v", err)
	}
	e.index.Rebuild(result.Entries)
	return err
}

// Rebuild discards the index and replays the whole log into it.
func (e *Engine) Rebuild() error {
	e.barrier.Lock()
	defer e.barrier.Unlock()
	return e.rebuildLocked()
}

// Get returns the record for key, tombstoned or not.
func (e *Engine) Get(key string) (model.Record, bool) {
	return e.index.Get(key)
}

// List returns every known record, tombstones included.
func (e *Engine) List() []model.Record {
	return e.index.List()
}

// Active returns live records only.
func (e *Engine) Active() []model.Record {
	return e.index.Active()
}

// Sequence returns the last committed log sequence.
func (e *Engine) Sequence() uint64 {
	return e.store.Sequence()
}

// Close waits for in-flight mutations, then syncs and closes the log.
func (e *Engine) Close() error {
	e.barrier.Lock()
	defer e.barrier.Unlock()
	return e.store.Close()
}

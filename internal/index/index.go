// Package index holds the materialized view of the ledger: the current
// record for every key ever written, tombstones included.
package index

import (
	"errors"
	"fmt"
	"sync"

	"go-inventory-ledger/internal/model"
)

// ErrOrdering is returned when an entry would skip or reuse a version.
var ErrOrdering = errors.New("out-of-order index apply")

// Index maps record keys to their current state. It is a disposable cache:
// Rebuild over the full log always reproduces the same contents.
type Index struct {
	mu      sync.RWMutex
	records map[string]model.Record
	order   []string
}

func New() *Index {
	return &Index{records: make(map[string]model.Record)}
}

// Get returns the record for key, tombstoned or not.
func (ix *Index) Get(key string) (model.Record, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	r, ok := ix.records[key]
	return r, ok
}

// List returns every record, tombstones included, in order of first creation.
func (ix *Index) List() []model.Record {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	out := make([]model.Record, 0, len(ix.order))
	for _, key := range ix.order {
		out = append(out, ix.records[key])
	}
	return out
}

// Active returns live records only, in order of first creation.
func (ix *Index) Active() []model.Record {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	out := make([]model.Record, 0, len(ix.order))
	for _, key := range ix.order {
		if r := ix.records[key]; r.Live() {
			out = append(out, r)
		}
	}
	return out
}

// Len returns the number of known keys, tombstones included.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.records)
}

// Apply installs a committed entry produced by a normal mutation. The entry
// version must be exactly one past the key's current version.
func (ix *Index) Apply(entry model.LogEntry) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	current := ix.records[entry.Key].Version
	if entry.Version != current+1 {
		return fmt.Errorf("%w: key %s at version %d, entry version %d", ErrOrdering, entry.Key, current, entry.Version)
	}
	ix.set(entry)
	return nil
}

// Override installs an entry written by reconciliation. It may jump ahead
// any number of versions, or replace a record at the same version when a
// tie was broken in the entry's favor, but never goes backwards.
func (ix *Index) Override(entry model.LogEntry) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if current, ok := ix.records[entry.Key]; ok && entry.Version < current.Version {
		return fmt.Errorf("%w: override of key %s to version %d, already at %d", ErrOrdering, entry.Key, entry.Version, current.Version)
	}
	ix.set(entry)
	return nil
}

// Rebuild discards the current contents and replays entries in order. Replay
// is authoritative: for each key the highest version seen wins, without the
// one-step check Apply enforces. At equal versions the later entry wins,
// matching what Override did when the entry was first written.
func (ix *Index) Rebuild(entries []model.LogEntry) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	ix.records = make(map[string]model.Record, len(ix.records))
	ix.order = ix.order[:0]

	for _, entry := range entries {
		if current, ok := ix.records[entry.Key]; ok && entry.Version < current.Version {
			continue
		}
		ix.set(entry)
	}
}

func (ix *Index) set(entry model.LogEntry) {
	if _, ok := ix.records[entry.Key]; !ok {
		ix.order = append(ix.order, entry.Key)
	}
	r := entry.Payload
	r.Key = entry.Key
	r.Version = entry.Version
	ix.records[entry.Key] = r
}

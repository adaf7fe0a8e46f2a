package reconcile

import (
	"fmt"
	"log"
	"strings"
	"unicode/utf8"

	"go-inventory-ledger/internal/ledger"
	"go-inventory-ledger/internal/model"
)

// Result summarizes one reconciliation pass.
type Result struct {
	Source     string
	Received   int
	Created    int
	Adjusted   int
	Tombstoned int
	Entries    []model.LogEntry
}

// Changed returns the number of corrections applied.
func (r Result) Changed() int {
	return r.Created + r.Adjusted + r.Tombstoned
}

// Reconciler applies peer snapshots to an engine.
type Reconciler struct {
	engine *ledger.Engine
}

func New(engine *ledger.Engine) *Reconciler {
	return &Reconciler{engine: engine}
}

// Reconcile validates remote, plans the merge against a consistent view of
// the local index and commits the corrections as one batch. Nothing is
// written when validation fails.
func (rc *Reconciler) Reconcile(source string, remote []model.Record) (Result, error) {
	result := Result{Source: source, Received: len(remote)}

	normalized := make([]model.Record, 0, len(remote))
	for _, r := range remote {
		valid, err := Validate(r)
		if err != nil {
			return result, err
		}
		normalized = append(normalized, valid)
	}

	entries, err := rc.engine.ApplyCorrections(source, func(local []model.Record) ([]ledger.Correction, error) {
		return Plan(local, normalized), nil
	})
	if err != nil {
		return result, err
	}

	result.Entries = entries
	for _, entry := range entries {
		switch entry.Operation {
		case model.OpCreate:
			result.Created++
		case model.OpAdjust:
			result.Adjusted++
		case model.OpTombstone:
			result.Tombstoned++
		}
	}
	log.Printf("reconcile: %d records from %s, %d corrections", result.Received, source, result.Changed())
	return result, nil
}

// Validate checks a remote record and normalizes the quantity/tombstone
// pairing: zero quantity implies tombstone and a tombstone has no quantity.
func Validate(r model.Record) (model.Record, error) {
	r.Key = strings.TrimSpace(r.Key)
	if r.Key == "" {
		return r, fmt.Errorf("%w: remote record without batch id", ledger.ErrValidation)
	}
	if utf8.RuneCountInString(r.Key) > model.MaxKeyLength {
		return r, fmt.Errorf("%w: remote batch id is longer than %d characters", ledger.ErrValidation, model.MaxKeyLength)
	}
	if utf8.RuneCountInString(r.Name) > model.MaxNameLength {
		return r, fmt.Errorf("%w: remote record %s name is longer than %d characters", ledger.ErrValidation, r.Key, model.MaxNameLength)
	}
	if r.Quantity < 0 {
		return r, fmt.Errorf("%w: remote record %s has negative quantity", ledger.ErrValidation, r.Key)
	}
	if r.Version == 0 {
		return r, fmt.Errorf("%w: remote record %s has no version", ledger.ErrValidation, r.Key)
	}
	if r.Quantity == 0 {
		r.Tombstone = true
	}
	if r.Tombstone {
		r.Quantity = 0
		return r, nil
	}
	if r.Expiry.IsZero() {
		return r, fmt.Errorf("%w: remote record %s has no expiry", ledger.ErrValidation, r.Key)
	}
	return r, nil
}

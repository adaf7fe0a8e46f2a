// Package reconcile merges a peer's inventory snapshot into the local ledger.
//
// The merge is a per-key join: the higher version wins, a tombstone wins a
// tie, and any remaining tie is broken by comparing a canonical encoding of
// the two records. Join is commutative, associative and idempotent, so peers
// exchanging snapshots pairwise in any order converge on the same state.
package reconcile

import (
	"fmt"
	"sort"

	"go-inventory-ledger/internal/ledger"
	"go-inventory-ledger/internal/model"
)

// Join returns the winning state between two records for the same key.
func Join(a, b model.Record) model.Record {
	if a.Version != b.Version {
		if a.Version > b.Version {
			return a
		}
		return b
	}
	if a.Tombstone != b.Tombstone {
		if a.Tombstone {
			return a
		}
		return b
	}
	if a.Equal(b) || canonical(a) >= canonical(b) {
		return a
	}
	return b
}

// canonical is the tie-break key for equal-version records. Only reachable
// when two nodes assigned the same version to different content.
func canonical(r model.Record) string {
	return fmt.Sprintf("%s\x00%d\x00%s\x00%t", r.Name, r.Quantity, r.Expiry, r.Tombstone)
}

// Plan returns the corrections that bring local to Join(local, remote) for
// every key, sorted by key. Keys only present locally are left alone; keys
// only present remotely are adopted with their remote version.
func Plan(local, remote []model.Record) []ledger.Correction {
	localByKey := make(map[string]model.Record, len(local))
	for _, r := range local {
		localByKey[r.Key] = r
	}

	winners := make(map[string]model.Record, len(remote))
	for _, r := range remote {
		if prev, ok := winners[r.Key]; ok {
			r = Join(prev, r)
		}
		winners[r.Key] = r
	}

	keys := make([]string, 0, len(winners))
	for key := range winners {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var corrections []ledger.Correction
	for _, key := range keys {
		current, exists := localByKey[key]
		winner := winners[key]
		if exists {
			winner = Join(current, winner)
			if winner.Equal(current) {
				continue
			}
		}
		corrections = append(corrections, ledger.Correction{
			Operation: operationFor(current, exists, winner),
			Record:    winner,
		})
	}
	return corrections
}

func operationFor(current model.Record, exists bool, winner model.Record) model.Operation {
	switch {
	case winner.Tombstone:
		return model.OpTombstone
	case !exists || current.Tombstone:
		return model.OpCreate
	default:
		return model.OpAdjust
	}
}

// MergeSnapshots folds any number of snapshots into one by joining per key.
// The result is sorted by key.
func MergeSnapshots(snapshots ...[]model.Record) []model.Record {
	merged := make(map[string]model.Record)
	for _, snapshot := range snapshots {
		for _, r := range snapshot {
			if prev, ok := merged[r.Key]; ok {
				r = Join(prev, r)
			}
			merged[r.Key] = r
		}
	}

	out := make([]model.Record, 0, len(merged))
	for _, r := range merged {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

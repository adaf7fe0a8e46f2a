package model

import "time"

type Operation string

const (
	OpCreate    Operation = "CREATE"
	OpAdjust    Operation = "ADJUST"
	OpTombstone Operation = "TOMBSTONE"
)

func (op Operation) Valid() bool {
	switch op {
	case OpCreate, OpAdjust, OpTombstone:
		return true
	}
	return false
}

// LogEntry is the unit of durability. Payload carries the full record as it
// stands after the operation, so replay never needs the previous state.
type LogEntry struct {
	Sequence   uint64    `json:"seq"`
	Operation  Operation `json:"op"`
	Key        string    `json:"key"`
	Version    uint64    `json:"version"`
	Payload    Record    `json:"payload"`
	Override   bool      `json:"override,omitempty"` // written by reconciliation
	Source     string    `json:"source,omitempty"`
	RecordedAt time.Time `json:"ts"`
}

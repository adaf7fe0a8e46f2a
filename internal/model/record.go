package model

const (
	StatusInStock  = "In Stock"
	StatusDepleted = "Depleted"
)

// Field limits shared by the gateway and the ledger. They keep every log
// entry well under the log's frame limit.
const (
	MaxKeyLength  = 100
	MaxNameLength = 255
)

// Record is the materialized state of one inventory batch.
type Record struct {
	Key       string `json:"key"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	Expiry    Expiry `json:"expiry"`
	Version   uint64 `json:"version"`
	Tombstone bool   `json:"tombstone"`
}

// Live reports whether the record denotes an existing, non-deleted batch.
func (r Record) Live() bool {
	return !r.Tombstone
}

func (r Record) Status() string {
	if r.Tombstone || r.Quantity <= 0 {
		return StatusDepleted
	}
	return StatusInStock
}

// Equal compares every field, version included.
func (r Record) Equal(other Record) bool {
	return r == other
}

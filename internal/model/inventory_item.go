package model

// InventoryItem is the wire shape used by /view_all, /snapshot and /sync.
type InventoryItem struct {
	BatchID string      `json:"batch_id" validate:"required,batchid"`
	Details ItemDetails `json:"details"`
}

type ItemDetails struct {
	Name      string `json:"name" validate:"max=255"`
	Qty       int    `json:"qty" validate:"gte=0"`
	Expiry    string `json:"expiry" validate:"omitempty,yearmonth"`
	Version   uint64 `json:"version"`
	Tombstone bool   `json:"tombstone"`
	Status    string `json:"status,omitempty"`
}

func NewInventoryItem(r Record) InventoryItem {
	return InventoryItem{
		BatchID: r.Key,
		Details: ItemDetails{
			Name:      r.Name,
			Qty:       r.Quantity,
			Expiry:    r.Expiry.String(),
			Version:   r.Version,
			Tombstone: r.Tombstone,
			Status:    r.Status(),
		},
	}
}

func NewInventoryItems(records []Record) []InventoryItem {
	items := make([]InventoryItem, 0, len(records))
	for _, r := range records {
		items = append(items, NewInventoryItem(r))
	}
	return items
}

// ToRecord converts a peer item into a Record. Items sent without a version
// (older clients never sent one) count as version 1. A zero quantity implies
// a tombstone and a tombstone implies a zero quantity.
func (i InventoryItem) ToRecord() (Record, error) {
	var expiry Expiry
	if i.Details.Expiry != "" {
		parsed, err := ParseExpiry(i.Details.Expiry)
		if err != nil {
			return Record{}, err
		}
		expiry = parsed
	}

	r := Record{
		Key:       i.BatchID,
		Name:      i.Details.Name,
		Quantity:  i.Details.Qty,
		Expiry:    expiry,
		Version:   i.Details.Version,
		Tombstone: i.Details.Tombstone || i.Details.Qty == 0,
	}
	if r.Version == 0 {
		r.Version = 1
	}
	if r.Tombstone {
		r.Quantity = 0
	}
	return r, nil
}

// SnapshotResponse is the body of GET /api/snapshot: every record the node
// knows, tombstones included.
type SnapshotResponse struct {
	Success   bool            `json:"success"`
	NodeID    string          `json:"node_id,omitempty"`
	Sequence  uint64          `json:"sequence"`
	Inventory []InventoryItem `json:"inventory"`
	Message   string          `json:"message,omitempty"`
}

package model

// Request bodies accepted by the gateway. Each endpoint binds exactly one of
// these and validates it before anything reaches the ledger.

type AddBatchRequest struct {
	BatchID string `json:"batch_id" validate:"required,batchid"`
	MedName string `json:"med_name" validate:"required,max=255"`
	Qty     int    `json:"qty" validate:"gte=1"`
	Expiry  string `json:"expiry" validate:"required,yearmonth"`
}

type UpdateBatchRequest struct {
	BatchID string `json:"batch_id" validate:"required,batchid"`
	NewQty  *int   `json:"new_qty" validate:"required,gte=0"`
}

type DeleteBatchRequest struct {
	BatchID string `json:"batch_id" validate:"required,batchid"`
}

type SearchRequest struct {
	QueryID string `json:"query_id" validate:"required"`
}

// SyncRequest either pushes a snapshot (Inventory set, possibly empty) or
// asks the node to pull one from a peer (TargetIP or Peer).
type SyncRequest struct {
	Inventory []InventoryItem `json:"inventory" validate:"omitempty,dive"`
	TargetIP  string          `json:"target_ip"`
	Peer      string          `json:"peer"`
}

// IsPush reports whether the request carries a snapshot.
func (r SyncRequest) IsPush() bool {
	return r.Inventory != nil
}

// PeerAddress returns the peer to pull from; Peer wins over TargetIP.
func (r SyncRequest) PeerAddress() string {
	if r.Peer != "" {
		return r.Peer
	}
	return r.TargetIP
}

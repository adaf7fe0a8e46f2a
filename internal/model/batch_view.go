package model

import "time"

// BatchView mirrors the current state of one batch for reporting queries.
// It is rebuilt from the ledger and never read back into it.
type BatchView struct {
	BatchID   string    `gorm:"type:varchar(100);primaryKey" json:"batch_id"`
	Name      string    `gorm:"type:varchar(255)" json:"name"`
	Quantity  int       `gorm:"default:0" json:"quantity"`
	Expiry    string    `gorm:"type:varchar(7);index" json:"expiry"`
	Version   uint64    `json:"version"`
	Tombstone bool      `gorm:"index" json:"tombstone"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewBatchView(r Record) BatchView {
	return BatchView{
		BatchID:   r.Key,
		Name:      r.Name,
		Quantity:  r.Quantity,
		Expiry:    r.Expiry.String(),
		Version:   r.Version,
		Tombstone: r.Tombstone,
	}
}

package model

// SyncRun records the outcome of one reconciliation pass.
type SyncRun struct {
	BaseModel
	NodeID     string `gorm:"type:varchar(64);index" json:"node_id"`
	Source     string `gorm:"type:varchar(255)" json:"source"`
	Received   int    `json:"received"`
	Created    int    `json:"created"`
	Adjusted   int    `json:"adjusted"`
	Tombstoned int    `json:"tombstoned"`
	Success    bool   `json:"success"`
	Error      string `gorm:"type:text" json:"error,omitempty"`
}

package repository

import (
	"go-inventory-ledger/internal/model"

	"gorm.io/gorm"
)

// AutoMigrate creates the projection tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&model.BatchView{}, &model.SyncRun{})
}

package repository

import (
	"go-inventory-ledger/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BatchViewRepository interface {
	Upsert(view *model.BatchView) error
	ReplaceAll(views []model.BatchView) error
	FindAll() ([]model.BatchView, error)
	FindByID(batchID string) (*model.BatchView, error)
	GetStats(lowStockThreshold int, expiringBefore string) (*InventoryStats, error)
}

// InventoryStats feeds the dashboard overview.
type InventoryStats struct {
	Total        int64 `json:"total"`
	LowStock     int64 `json:"low_stock"`
	ExpiringSoon int64 `json:"expiring_soon"`
}

type batchViewRepo struct {
	db *gorm.DB
}

func NewBatchViewRepo(db *gorm.DB) BatchViewRepository {
	return &batchViewRepo{db}
}

// Upsert writes view unless the stored row already carries a newer version.
// Mirror writes from concurrent requests may arrive out of order.
func (r *batchViewRepo) Upsert(view *model.BatchView) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "batch_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "quantity", "expiry", "version", "tombstone", "updated_at"}),
		Where: clause.Where{Exprs: []clause.Expression{
			clause.Expr{SQL: "batch_views.version <= excluded.version"},
		}},
	}).Create(view).Error
}

// ReplaceAll reseeds the mirror, e.g. after the ledger was rebuilt at startup.
func (r *batchViewRepo) ReplaceAll(views []model.BatchView) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&model.BatchView{}).Error; err != nil {
			return err
		}
		if len(views) == 0 {
			return nil
		}
		return tx.CreateInBatches(views, 200).Error
	})
}

func (r *batchViewRepo) FindAll() ([]model.BatchView, error) {
	var views []model.BatchView
	err := r.db.Order("batch_id ASC").Find(&views).Error
	return views, err
}

func (r *batchViewRepo) FindByID(batchID string) (*model.BatchView, error) {
	var view model.BatchView
	err := r.db.First(&view, "batch_id = ?", batchID).Error
	return &view, err
}

// GetStats counts live batches. expiringBefore is a YYYY-MM bound; the
// format sorts lexicographically in month order.
func (r *batchViewRepo) GetStats(lowStockThreshold int, expiringBefore string) (*InventoryStats, error) {
	var stats InventoryStats
	live := func() *gorm.DB {
		return r.db.Model(&model.BatchView{}).Where("tombstone = ?", false)
	}

	if err := live().Count(&stats.Total).Error; err != nil {
		return nil, err
	}
	if err := live().Where("quantity < ?", lowStockThreshold).Count(&stats.LowStock).Error; err != nil {
		return nil, err
	}
	if err := live().Where("expiry <> '' AND expiry < ?", expiringBefore).Count(&stats.ExpiringSoon).Error; err != nil {
		return nil, err
	}
	return &stats, nil
}

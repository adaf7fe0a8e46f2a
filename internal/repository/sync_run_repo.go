package repository

import (
	"go-inventory-ledger/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SyncRunRepository interface {
	Create(run *model.SyncRun) error
	FindRecent(limit int) ([]model.SyncRun, error)
	FindByID(id uuid.UUID) (*model.SyncRun, error)
}

type syncRunRepo struct {
	db *gorm.DB
}

func NewSyncRunRepo(db *gorm.DB) SyncRunRepository {
	return &syncRunRepo{db}
}

func (r *syncRunRepo) Create(run *model.SyncRun) error {
	return r.db.Create(run).Error
}

func (r *syncRunRepo) FindRecent(limit int) ([]model.SyncRun, error) {
	var runs []model.SyncRun
	err := r.db.Order("created_at DESC").Limit(limit).Find(&runs).Error
	return runs, err
}

func (r *syncRunRepo) FindByID(id uuid.UUID) (*model.SyncRun, error) {
	var run model.SyncRun
	err := r.db.First(&run, "id = ?", id).Error
	return &run, err
}

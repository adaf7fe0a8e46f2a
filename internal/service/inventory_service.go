package service

import (
	"fmt"
	"strings"

	"go-inventory-ledger/internal/ledger"
	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/repository"
	"go-inventory-ledger/internal/ws"
)

// MutationResult is what the gateway reports back for add, update and delete.
type MutationResult struct {
	Message string
	Batch   model.InventoryItem
	Applied bool
}

type InventoryService interface {
	AddBatch(req *model.AddBatchRequest) (*MutationResult, error)
	UpdateBatch(req *model.UpdateBatchRequest) (*MutationResult, error)
	DeleteBatch(req *model.DeleteBatchRequest) (*MutationResult, error)
	GetActiveBatches() []model.InventoryItem
	SearchBatch(req *model.SearchRequest) (*model.InventoryItem, error)
	GetSnapshot() *model.SnapshotResponse
}

type inventoryService struct {
	engine *ledger.Engine
	nodeID string
	fanout
}

func NewInventoryService(engine *ledger.Engine, hub Publisher, views repository.BatchViewRepository, nodeID string) InventoryService {
	return &inventoryService{
		engine: engine,
		nodeID: nodeID,
		fanout: fanout{hub: hub, views: views},
	}
}

func (s *inventoryService) AddBatch(req *model.AddBatchRequest) (*MutationResult, error) {
	req.BatchID = strings.TrimSpace(req.BatchID)
	if err := validationError(req); err != nil {
		return nil, err
	}

	change, err := s.engine.Create(req.BatchID, strings.TrimSpace(req.MedName), req.Qty, req.Expiry)
	if err != nil {
		return nil, err
	}

	message := fmt.Sprintf("Batch %s anchored.", req.BatchID)
	s.committed(ws.ActionBatchCreated, message, "", change.Entry)
	return &MutationResult{Message: message, Batch: model.NewInventoryItem(change.Record()), Applied: true}, nil
}

// UpdateBatch sets a batch's quantity; zero empties and tombstones it, and a
// positive quantity on an emptied batch restocks it.
func (s *inventoryService) UpdateBatch(req *model.UpdateBatchRequest) (*MutationResult, error) {
	req.BatchID = strings.TrimSpace(req.BatchID)
	if err := validationError(req); err != nil {
		return nil, err
	}

	change, err := s.engine.Adjust(req.BatchID, *req.NewQty)
	if err != nil {
		return nil, err
	}

	action := ws.ActionBatchAdjusted
	message := fmt.Sprintf("Batch %s updated to %d.", req.BatchID, *req.NewQty)
	if change.Entry.Operation == model.OpCreate {
		action = ws.ActionBatchCreated
	}
	if change.Record().Tombstone {
		action = ws.ActionBatchDeleted
		message = fmt.Sprintf("Batch %s is empty.", req.BatchID)
	}
	if change.Applied {
		s.committed(action, message, "", change.Entry)
	}
	return &MutationResult{Message: message, Batch: model.NewInventoryItem(change.Record()), Applied: change.Applied}, nil
}

func (s *inventoryService) DeleteBatch(req *model.DeleteBatchRequest) (*MutationResult, error) {
	req.BatchID = strings.TrimSpace(req.BatchID)
	if err := validationError(req); err != nil {
		return nil, err
	}

	change, err := s.engine.Tombstone(req.BatchID)
	if err != nil {
		return nil, err
	}

	if !change.Applied {
		return &MutationResult{
			Message: fmt.Sprintf("Batch %s was already deleted.", req.BatchID),
			Batch:   model.NewInventoryItem(change.Record()),
		}, nil
	}

	message := fmt.Sprintf("Batch %s deleted.", req.BatchID)
	s.committed(ws.ActionBatchDeleted, message, "", change.Entry)
	return &MutationResult{Message: message, Batch: model.NewInventoryItem(change.Record()), Applied: true}, nil
}

// GetActiveBatches lists live batches in creation order.
func (s *inventoryService) GetActiveBatches() []model.InventoryItem {
	return model.NewInventoryItems(s.engine.Active())
}

// SearchBatch finds a batch by id, deleted batches included.
func (s *inventoryService) SearchBatch(req *model.SearchRequest) (*model.InventoryItem, error) {
	req.QueryID = strings.TrimSpace(req.QueryID)
	if err := validationError(req); err != nil {
		return nil, err
	}

	record, ok := s.engine.Get(req.QueryID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ledger.ErrNotFound, req.QueryID)
	}
	item := model.NewInventoryItem(record)
	return &item, nil
}

// GetSnapshot returns every record, tombstones included, for a peer to merge.
func (s *inventoryService) GetSnapshot() *model.SnapshotResponse {
	return &model.SnapshotResponse{
		Success:   true,
		NodeID:    s.nodeID,
		Sequence:  s.engine.Sequence(),
		Inventory: model.NewInventoryItems(s.engine.List()),
	}
}

package service

import (
	"errors"
	"fmt"
	"log"

	"go-inventory-ledger/internal/ledger"
	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/repository"
	"go-inventory-ledger/internal/ws"
	"go-inventory-ledger/pkg/validator"
)

// ErrProjectionDisabled is returned by queries that need the reporting
// database when none is configured.
var ErrProjectionDisabled = errors.New("reporting database not configured")

// Publisher receives committed changes for live clients. *ws.Hub implements it.
type Publisher interface {
	Publish(event ws.Event)
}

// fanout pushes committed entries to the optional projection and to live
// clients. Neither is a source of truth, so failures are only logged.
type fanout struct {
	hub   Publisher
	views repository.BatchViewRepository
}

func (f *fanout) committed(action, message, source string, entries ...model.LogEntry) {
	for _, entry := range entries {
		if f.views != nil {
			view := model.NewBatchView(entry.Payload)
			if err := f.views.Upsert(&view); err != nil {
				log.Printf("projection: upsert %s v%d: %v", entry.Key, entry.Version, err)
			}
		}
		if f.hub != nil {
			item := model.NewInventoryItem(entry.Payload)
			f.hub.Publish(ws.Event{
				Action:   action,
				Batch:    &item,
				Sequence: entry.Sequence,
				Source:   source,
				Message:  message,
			})
		}
	}
}

func (f *fanout) announce(event ws.Event) {
	if f.hub != nil {
		f.hub.Publish(event)
	}
}

// ReseedProjection replaces the projection with the engine's current state.
// It runs once at startup, after the index has been rebuilt from the log.
func ReseedProjection(engine *ledger.Engine, views repository.BatchViewRepository) error {
	if views == nil {
		return nil
	}
	records := engine.List()
	batch := make([]model.BatchView, 0, len(records))
	for _, r := range records {
		batch = append(batch, model.NewBatchView(r))
	}
	if err := views.ReplaceAll(batch); err != nil {
		return fmt.Errorf("reseed projection: %w", err)
	}
	log.Printf("projection: reseeded %d batches", len(batch))
	return nil
}

func validationError(req interface{}) error {
	if msg := validator.FirstError(req); msg != "" {
		return fmt.Errorf("%w: %s", ledger.ErrValidation, msg)
	}
	return nil
}

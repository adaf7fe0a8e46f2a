package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"go-inventory-ledger/internal/config"
	"go-inventory-ledger/internal/ledger"
	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/peer"
	"go-inventory-ledger/internal/reconcile"
	"go-inventory-ledger/internal/repository"
	"go-inventory-ledger/internal/ws"
)

// SyncSummary reports one reconciliation pass to the caller.
type SyncSummary struct {
	Source     string `json:"source"`
	Received   int    `json:"received"`
	Created    int    `json:"created"`
	Adjusted   int    `json:"adjusted"`
	Tombstoned int    `json:"tombstoned"`
	Message    string `json:"message"`
}

// SnapshotFetcher downloads a peer's snapshot. *peer.Client implements it.
type SnapshotFetcher interface {
	FetchSnapshot(ctx context.Context, address string) ([]model.Record, error)
}

type SyncService interface {
	// Sync dispatches on the request variant: a pushed snapshot or a pull
	// from a peer. origin names the pushing client in the sync history.
	Sync(ctx context.Context, req *model.SyncRequest, origin string) (*SyncSummary, error)
	PushSnapshot(origin string, items []model.InventoryItem) (*SyncSummary, error)
	PullFromPeer(ctx context.Context, peerName string) (*SyncSummary, error)
	GetHistory(limit int) ([]model.SyncRun, error)
}

type syncService struct {
	reconciler *reconcile.Reconciler
	fetcher    SnapshotFetcher
	peers      config.Peers
	runs       repository.SyncRunRepository
	nodeID     string
	fanout
}

func NewSyncService(
	reconciler *reconcile.Reconciler,
	fetcher SnapshotFetcher,
	peers config.Peers,
	hub Publisher,
	views repository.BatchViewRepository,
	runs repository.SyncRunRepository,
	nodeID string,
) SyncService {
	return &syncService{
		reconciler: reconciler,
		fetcher:    fetcher,
		peers:      peers,
		runs:       runs,
		nodeID:     nodeID,
		fanout:     fanout{hub: hub, views: views},
	}
}

func (s *syncService) Sync(ctx context.Context, req *model.SyncRequest, origin string) (*SyncSummary, error) {
	if req.IsPush() {
		return s.PushSnapshot(origin, req.Inventory)
	}
	if address := strings.TrimSpace(req.PeerAddress()); address != "" {
		return s.PullFromPeer(ctx, address)
	}
	return nil, fmt.Errorf("%w: provide an inventory snapshot or a target_ip/peer to pull from", ledger.ErrValidation)
}

func (s *syncService) PushSnapshot(origin string, items []model.InventoryItem) (*SyncSummary, error) {
	source := "push"
	if origin != "" {
		source = "push:" + origin
	}

	remote, err := itemsToRecords(items)
	if err != nil {
		s.recordRun(source, len(items), reconcile.Result{}, err)
		return nil, err
	}
	return s.reconcile(source, remote)
}

// PullFromPeer fetches the peer's snapshot before touching the ledger, so a
// slow peer never holds up local mutations.
func (s *syncService) PullFromPeer(ctx context.Context, peerName string) (*SyncSummary, error) {
	address := s.peers.Resolve(peerName)

	remote, err := s.fetcher.FetchSnapshot(ctx, address)
	if err != nil {
		log.Printf("sync: pull from %s failed: %v", address, err)
		s.recordRun(address, 0, reconcile.Result{}, err)
		return nil, err
	}
	return s.reconcile(address, remote)
}

func (s *syncService) reconcile(source string, remote []model.Record) (*SyncSummary, error) {
	result, err := s.reconciler.Reconcile(source, remote)
	s.recordRun(source, len(remote), result, err)
	if err != nil {
		return nil, err
	}

	summary := &SyncSummary{
		Source:     source,
		Received:   result.Received,
		Created:    result.Created,
		Adjusted:   result.Adjusted,
		Tombstoned: result.Tombstoned,
	}
	if result.Changed() == 0 {
		summary.Message = fmt.Sprintf("Already in sync with %s (%d records checked).", source, result.Received)
	} else {
		summary.Message = fmt.Sprintf("Synced %d records from %s: %d added, %d updated, %d deleted.",
			result.Received, source, result.Created, result.Adjusted, result.Tombstoned)
	}

	s.committed(ws.ActionBatchReconciled, fmt.Sprintf("Batch reconciled from %s.", source), source, result.Entries...)
	s.announce(ws.Event{Action: ws.ActionSyncCompleted, Source: source, Message: summary.Message})
	return summary, nil
}

func (s *syncService) recordRun(source string, received int, result reconcile.Result, syncErr error) {
	if s.runs == nil {
		return
	}
	run := &model.SyncRun{
		NodeID:     s.nodeID,
		Source:     source,
		Received:   received,
		Created:    result.Created,
		Adjusted:   result.Adjusted,
		Tombstoned: result.Tombstoned,
		Success:    syncErr == nil,
	}
	if syncErr != nil {
		run.Error = syncErr.Error()
	}
	if err := s.runs.Create(run); err != nil {
		log.Printf("projection: record sync run from %s: %v", source, err)
	}
}

func (s *syncService) GetHistory(limit int) ([]model.SyncRun, error) {
	if s.runs == nil {
		return nil, ErrProjectionDisabled
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.runs.FindRecent(limit)
}

func itemsToRecords(items []model.InventoryItem) ([]model.Record, error) {
	records := make([]model.Record, 0, len(items))
	for i := range items {
		if err := validationError(&items[i]); err != nil {
			return nil, fmt.Errorf("inventory[%d]: %w", i, err)
		}
		r, err := items[i].ToRecord()
		if err != nil {
			return nil, fmt.Errorf("%w: inventory[%d] (%s): %v", ledger.ErrValidation, i, items[i].BatchID, err)
		}
		records = append(records, r)
	}
	return records, nil
}

var _ SnapshotFetcher = (*peer.Client)(nil)

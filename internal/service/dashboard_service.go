package service

import (
	"time"

	"go-inventory-ledger/internal/ledger"
	"go-inventory-ledger/internal/repository"
)

// NodeStatus answers GET /api/status.
type NodeStatus struct {
	Status   string `json:"status"`
	Message  string `json:"message"`
	NodeID   string `json:"node_id"`
	Records  int    `json:"records"`
	Active   int    `json:"active"`
	Sequence uint64 `json:"sequence"`
}

type StatsConfig struct {
	LowStockThreshold   int
	ExpiryWarningMonths int
}

type DashboardService interface {
	GetStatus() *NodeStatus
	GetStats() (*repository.InventoryStats, error)
}

type dashboardService struct {
	engine *ledger.Engine
	views  repository.BatchViewRepository
	nodeID string
	cfg    StatsConfig
	now    func() time.Time
}

func NewDashboardService(engine *ledger.Engine, views repository.BatchViewRepository, nodeID string, cfg StatsConfig) DashboardService {
	return &dashboardService{
		engine: engine,
		views:  views,
		nodeID: nodeID,
		cfg:    cfg,
		now:    time.Now,
	}
}

func (s *dashboardService) GetStatus() *NodeStatus {
	return &NodeStatus{
		Status:   "online",
		Message:  "Anchor Engine is Running",
		NodeID:   s.nodeID,
		Records:  len(s.engine.List()),
		Active:   len(s.engine.Active()),
		Sequence: s.engine.Sequence(),
	}
}

// GetStats counts live batches, those under the low stock threshold and
// those expired or expiring within the warning window. The projection
// answers when configured; otherwise the index is scanned.
func (s *dashboardService) GetStats() (*repository.InventoryStats, error) {
	now := s.now().UTC()
	if s.views != nil {
		return s.views.GetStats(s.cfg.LowStockThreshold, expiringBefore(now, s.cfg.ExpiryWarningMonths))
	}

	var stats repository.InventoryStats
	for _, r := range s.engine.Active() {
		stats.Total++
		if r.Quantity < s.cfg.LowStockThreshold {
			stats.LowStock++
		}
		if r.Expiry.ExpiresWithin(now, s.cfg.ExpiryWarningMonths) {
			stats.ExpiringSoon++
		}
	}
	return &stats, nil
}

// expiringBefore returns the first YYYY-MM month that is not expiring soon:
// a month counts when it starts before now plus the warning window.
func expiringBefore(now time.Time, months int) string {
	cutoff := now.AddDate(0, months, 0)
	bound := time.Date(cutoff.Year(), cutoff.Month(), 1, 0, 0, 0, 0, time.UTC)
	if cutoff.After(bound) {
		bound = bound.AddDate(0, 1, 0)
	}
	return bound.Format("2006-01")
}

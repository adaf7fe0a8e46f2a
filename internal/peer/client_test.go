package peer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-inventory-ledger/internal/model"
)

func snapshotServer(t *testing.T, status int, body any, delay time.Duration) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, SnapshotPath, r.URL.Path)
		time.Sleep(delay)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestBaseURL(t *testing.T) {
	assert.Equal(t, "http://10.0.0.5:3000", BaseURL("10.0.0.5:3000"))
	assert.Equal(t, "https://clinic-b.local", BaseURL(" https://clinic-b.local/ "))
}

func TestFetchSnapshot(t *testing.T) {
	srv := snapshotServer(t, http.StatusOK, model.SnapshotResponse{
		Success: true,
		NodeID:  "node-b",
		Inventory: []model.InventoryItem{
			{BatchID: "B-003", Details: model.ItemDetails{Name: "Insulin", Qty: 10, Expiry: "2026-04", Version: 3}},
			{BatchID: "B-004", Details: model.ItemDetails{Name: "Heparin", Qty: 0, Expiry: "2025-01"}},
		},
	}, 0)

	records, err := NewClient(time.Second).FetchSnapshot(context.Background(), srv.URL)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "B-003", records[0].Key)
	assert.Equal(t, uint64(3), records[0].Version)
	assert.Equal(t, 10, records[0].Quantity)

	assert.True(t, records[1].Tombstone)
	assert.Equal(t, uint64(1), records[1].Version, "missing version counts as 1")
}

func TestFetchSnapshot_ErrorStatus(t *testing.T) {
	srv := snapshotServer(t, http.StatusInternalServerError, model.SnapshotResponse{Message: "boom"}, 0)

	_, err := NewClient(time.Second).FetchSnapshot(context.Background(), srv.URL)
	assert.ErrorIs(t, err, ErrFetch)
}

func TestFetchSnapshot_MalformedItem(t *testing.T) {
	srv := snapshotServer(t, http.StatusOK, model.SnapshotResponse{
		Success:   true,
		Inventory: []model.InventoryItem{{BatchID: "B-1", Details: model.ItemDetails{Qty: 1, Expiry: "soon"}}},
	}, 0)

	_, err := NewClient(time.Second).FetchSnapshot(context.Background(), srv.URL)
	assert.ErrorIs(t, err, ErrFetch)
}

func TestFetchSnapshot_Timeout(t *testing.T) {
	srv := snapshotServer(t, http.StatusOK, model.SnapshotResponse{Success: true}, 300*time.Millisecond)

	start := time.Now()
	_, err := NewClient(50 * time.Millisecond).FetchSnapshot(context.Background(), srv.URL)
	assert.ErrorIs(t, err, ErrFetch)
	assert.Less(t, time.Since(start), 250*time.Millisecond)
}

func TestFetchSnapshot_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewClient(time.Second).FetchSnapshot(ctx, "127.0.0.1:1")
	assert.ErrorIs(t, err, ErrFetch)
}

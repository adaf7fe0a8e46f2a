package ledger

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-inventory-ledger/internal/index"
	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/wal"
)

func openTestEngine(t *testing.T, path string) *Engine {
	t.Helper()
	e, err := Open(Config{Path: path, SyncMode: wal.SyncNone})
	require.NoError(t, err)
	t.Cleanup(func() { e.Close() })
	return e
}

func newTestEngine(t *testing.T) (*Engine, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ledger.wal")
	return openTestEngine(t, path), path
}

func TestEngine_CreateAdjustTombstoneScenario(t *testing.T) {
	e, _ := newTestEngine(t)

	change, err := e.Create("B-001", "Amoxicillin", 50, "2025-12")
	require.NoError(t, err)
	assert.True(t, change.Applied)
	assert.Equal(t, model.OpCreate, change.Entry.Operation)
	assert.Equal(t, uint64(1), change.Record().Version)

	change, err = e.Adjust("B-001", 40)
	require.NoError(t, err)
	assert.Equal(t, model.OpAdjust, change.Entry.Operation)

	r, ok := e.Get("B-001")
	require.True(t, ok)
	assert.Equal(t, 40, r.Quantity)
	assert.Equal(t, uint64(2), r.Version)
	assert.Equal(t, "Amoxicillin", r.Name)
	assert.Equal(t, "2025-12", r.Expiry.String())

	change, err = e.Adjust("B-001", 0)
	require.NoError(t, err)
	assert.Equal(t, model.OpTombstone, change.Entry.Operation)

	r, _ = e.Get("B-001")
	assert.True(t, r.Tombstone)
	assert.Equal(t, 0, r.Quantity)
	assert.Equal(t, uint64(3), r.Version)
	assert.Empty(t, e.Active())
	assert.Len(t, e.List(), 1)
}

func TestEngine_CreateValidation(t *testing.T) {
	e, _ := newTestEngine(t)

	tests := []struct {
		name   string
		key    string
		med    string
		qty    int
		expiry string
	}{
		{"zero quantity", "B-001", "Ibuprofen", 0, "2025-01"},
		{"negative quantity", "B-001", "Ibuprofen", -3, "2025-01"},
		{"malformed expiry", "B-001", "Ibuprofen", 5, "12/2025"},
		{"month out of range", "B-001", "Ibuprofen", 5, "2025-13"},
		{"empty key", "  ", "Ibuprofen", 5, "2025-01"},
		{"empty name", "B-001", "", 5, "2025-01"},
		{"name too long", "B-001", strings.Repeat("n", model.MaxNameLength+1), 5, "2025-01"},
		{"name far past the frame limit", "B-001", strings.Repeat("n", 2<<20), 5, "2025-01"},
		{"key too long", strings.Repeat("k", model.MaxKeyLength+1), "Ibuprofen", 5, "2025-01"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Create(tt.key, tt.med, tt.qty, tt.expiry)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
	assert.Equal(t, uint64(0), e.Sequence())

	_, err := e.Create("B-001", "Ibuprofen", 5, "2025-01")
	require.NoError(t, err)
	_, err = e.Create("B-001", "Ibuprofen", 7, "2025-01")
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, uint64(1), e.Sequence())
}

func TestEngine_RecreateContinuesVersion(t *testing.T) {
	e, _ := newTestEngine(t)

	_, err := e.Create("B-001", "Cetirizine", 10, "2026-02")
	require.NoError(t, err)
	_, err = e.Tombstone("B-001")
	require.NoError(t, err)

	change, err := e.Create("B-001", "Cetirizine", 30, "2027-02")
	require.NoError(t, err)
	assert.Equal(t, uint64(3), change.Record().Version)
	assert.False(t, change.Record().Tombstone)
	assert.Len(t, e.Active(), 1)
}

func TestEngine_AdjustErrors(t *testing.T) {
	e, _ := newTestEngine(t)

	_, err := e.Adjust("missing", 5)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = e.Adjust("missing", 0)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = e.Create("B-001", "Insulin", 10, "2025-06")
	require.NoError(t, err)
	_, err = e.Adjust("B-001", -1)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = e.Tombstone("B-001")
	require.NoError(t, err)
	_, err = e.Adjust("B-001", -2)
	assert.ErrorIs(t, err, ErrValidation)

	// A tombstone with nothing to restore cannot be restocked.
	_, err = e.ApplyCorrections("peer-a", func([]model.Record) ([]Correction, error) {
		return []Correction{{Operation: model.OpTombstone, Record: model.Record{Key: "B-009", Tombstone: true, Version: 4}}}, nil
	})
	require.NoError(t, err)
	seq := e.Sequence()
	_, err = e.Adjust("B-009", 3)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, seq, e.Sequence())
}

func TestEngine_AdjustRestocksTombstone(t *testing.T) {
	e, path := newTestEngine(t)

	_, err := e.Create("B-001", "Insulin", 10, "2025-06")
	require.NoError(t, err)
	_, err = e.Adjust("B-001", 0)
	require.NoError(t, err)

	change, err := e.Adjust("B-001", 4)
	require.NoError(t, err)
	assert.True(t, change.Applied)
	assert.Equal(t, model.OpCreate, change.Entry.Operation)

	r := change.Record()
	assert.Equal(t, uint64(3), r.Version)
	assert.Equal(t, 4, r.Quantity)
	assert.False(t, r.Tombstone)
	assert.Equal(t, "Insulin", r.Name)
	assert.Equal(t, "2025-06", r.Expiry.String())
	assert.Len(t, e.Active(), 1)

	before := e.List()
	require.NoError(t, e.Close())
	reopened := openTestEngine(t, path)
	assert.Equal(t, before, reopened.List())
}

func TestEngine_TombstoneIsIdempotent(t *testing.T) {
	e, _ := newTestEngine(t)

	_, err := e.Tombstone("B-404")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = e.Create("B-001", "Insulin", 10, "2025-06")
	require.NoError(t, err)

	change, err := e.Tombstone("B-001")
	require.NoError(t, err)
	assert.True(t, change.Applied)
	seq := e.Sequence()

	change, err = e.Tombstone("B-001")
	require.NoError(t, err)
	assert.False(t, change.Applied)
	assert.Equal(t, uint64(2), change.Record().Version)
	assert.Equal(t, seq, e.Sequence())

	change, err = e.Adjust("B-001", 0)
	require.NoError(t, err)
	assert.False(t, change.Applied)
	assert.Equal(t, seq, e.Sequence())
}

func TestEngine_ReplayReproducesIndex(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.wal")
	e, err := Open(Config{Path: path, SyncMode: wal.SyncNone})
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		key := fmt.Sprintf("B-%03d", i%7)
		switch i % 4 {
		case 0:
			e.Create(key, "Batch "+key, i+1, "2026-01")
		case 1:
			e.Adjust(key, i*3)
		case 2:
			e.Tombstone(key)
		case 3:
			e.Adjust(key, 0)
		}
	}

	live := e.List()
	require.NotEmpty(t, live)

	require.NoError(t, e.Rebuild())
	assert.Equal(t, live, e.List())
	require.NoError(t, e.Close())

	reopened := openTestEngine(t, path)
	assert.Equal(t, live, reopened.List())

	for _, r := range reopened.List() {
		assert.GreaterOrEqual(t, r.Quantity, 0)
		if r.Quantity == 0 {
			assert.True(t, r.Tombstone, "zero quantity must be tombstoned: %s", r.Key)
		}
	}
}

func TestEngine_ConcurrentAdjustDistinctKeys(t *testing.T) {
	e, _ := newTestEngine(t)
	_, err := e.Create("A", "Alpha", 1, "2026-01")
	require.NoError(t, err)
	_, err = e.Create("B", "Beta", 1, "2026-01")
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, 200)
	for i := 0; i < 100; i++ {
		for _, key := range []string{"A", "B"} {
			wg.Add(1)
			go func(key string, qty int) {
				defer wg.Done()
				if _, err := e.Adjust(key, qty); err != nil {
					errs <- err
				}
			}(key, i+1)
		}
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("adjust failed: %v", err)
	}

	a, _ := e.Get("A")
	b, _ := e.Get("B")
	assert.Equal(t, uint64(101), a.Version)
	assert.Equal(t, uint64(101), b.Version)
	assert.Equal(t, uint64(202), e.Sequence())
}

func TestEngine_ConcurrentAdjustSameKeyNoLostUpdate(t *testing.T) {
	e, path := newTestEngine(t)
	_, err := e.Create("B-001", "Saline", 1, "2026-01")
	require.NoError(t, err)

	const writers = 50
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(qty int) {
			defer wg.Done()
			_, err := e.Adjust("B-001", qty)
			assert.NoError(t, err)
		}(i + 1)
	}
	wg.Wait()

	r, _ := e.Get("B-001")
	assert.Equal(t, uint64(writers+1), r.Version)

	result, err := wal.Scan(path)
	require.NoError(t, err)
	require.Len(t, result.Entries, writers+1)
	for i, entry := range result.Entries {
		assert.Equal(t, uint64(i+1), entry.Version, "versions must be gapless in log order")
	}
	assert.Equal(t, result.Entries[writers].Payload.Quantity, r.Quantity)
}

func TestOpen_DiscardsTornTail(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.wal")
	e, err := Open(Config{Path: path, SyncMode: wal.SyncNone})
	require.NoError(t, err)
	_, err = e.Create("B-001", "Amoxicillin", 50, "2025-12")
	require.NoError(t, err)
	require.NoError(t, e.Close())

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.Write([]byte{0xde, 0xad, 0xbe, 0xef, 0xff, 0x00})
	require.NoError(t, err)
	require.NoError(t, f.Close())

	reopened := openTestEngine(t, path)
	r, ok := reopened.Get("B-001")
	require.True(t, ok)
	assert.Equal(t, 50, r.Quantity)

	_, err = reopened.Adjust("B-001", 45)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), reopened.Sequence())
}

func TestOpen_CorruptionPolicy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.wal")
	e, err := Open(Config{Path: path, SyncMode: wal.SyncNone})
	require.NoError(t, err)
	_, err = e.Create("B-001", "Amoxicillin", 50, "2025-12")
	require.NoError(t, err)
	_, err = e.Create("B-002", "Ibuprofen", 20, "2026-01")
	require.NoError(t, err)
	require.NoError(t, e.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	data[10] ^= 0xFF
	require.NoError(t, os.WriteFile(path, data, 0o644))

	_, err = Open(Config{Path: path, SyncMode: wal.SyncNone})
	require.Error(t, err)
	assert.True(t, errors.Is(err, wal.ErrCorrupted))

	recovered, err := Open(Config{Path: path, SyncMode: wal.SyncNone, Recovery: RecoverTruncate})
	require.NoError(t, err)
	defer recovered.Close()
	assert.Empty(t, recovered.List())
}

func TestApplyCorrections(t *testing.T) {
	e, path := newTestEngine(t)
	_, err := e.Create("B-001", "Amoxicillin", 50, "2025-12")
	require.NoError(t, err)

	entries, err := e.ApplyCorrections("peer-a", func(local []model.Record) ([]Correction, error) {
		require.Len(t, local, 1)
		return []Correction{
			{Operation: model.OpAdjust, Record: model.Record{Key: "B-001", Name: "Amoxicillin", Quantity: 12, Expiry: local[0].Expiry, Version: 6}},
			{Operation: model.OpCreate, Record: model.Record{Key: "B-003", Name: "Insulin", Quantity: 10, Expiry: local[0].Expiry, Version: 2}},
		}, nil
	})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.True(t, entries[0].Override)
	assert.Equal(t, "peer-a", entries[0].Source)

	r, _ := e.Get("B-001")
	assert.Equal(t, uint64(6), r.Version)
	r, _ = e.Get("B-003")
	assert.Equal(t, uint64(2), r.Version)

	// Ordinary mutations continue from the adopted version.
	change, err := e.Adjust("B-003", 9)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), change.Record().Version)

	seq := e.Sequence()
	_, err = e.ApplyCorrections("peer-a", func([]model.Record) ([]Correction, error) {
		return []Correction{{Operation: model.OpAdjust, Record: model.Record{Key: "B-001", Quantity: 1, Version: 5}}}, nil
	})
	assert.ErrorIs(t, err, index.ErrOrdering)
	assert.Equal(t, seq, e.Sequence())

	before := e.List()
	require.NoError(t, e.Close())
	reopened := openTestEngine(t, path)
	assert.Equal(t, before, reopened.List())
}

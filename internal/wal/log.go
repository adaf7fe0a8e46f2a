package wal

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go-inventory-ledger/internal/model"
)

// SyncMode determines when appends are synced to disk.
type SyncMode int

const (
	// SyncAlways - fsync after every append (default, committed means durable)
	SyncAlways SyncMode = iota
	// SyncNone - leave flushing to the OS (tests, benchmarks)
	SyncNone
)

// ParseSyncMode accepts "always" and "none".
func ParseSyncMode(s string) (SyncMode, error) {
	switch s {
	case "", "always":
		return SyncAlways, nil
	case "none":
		return SyncNone, nil
	}
	return SyncAlways, fmt.Errorf("unknown sync mode %q", s)
}

// Config configures Log behavior.
type Config struct {
	SyncMode SyncMode
}

func DefaultConfig() Config {
	return Config{SyncMode: SyncAlways}
}

// Log is the durable, append-only store of ledger entries. Appends are
// serialized; the critical section covers only the write, the optional fsync
// and the sequence bump.
type Log struct {
	mu        sync.Mutex
	file      *os.File
	path      string
	size      int64
	seq       uint64
	syncMode  SyncMode
	recovered bool
	closed    bool
}

// Open opens or creates the log file at path. Replay must be called before
// the first append.
func Open(path string, config Config) (*Log, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}

	return &Log{
		file:     file,
		path:     path,
		size:     info.Size(),
		syncMode: config.SyncMode,
	}, nil
}

// Replay returns every intact entry in append order and positions the log
// for appending after the last of them. Damage is reported as a
// *CorruptionError alongside the entries preceding it; the damaged bytes stay
// on disk until Truncate is called.
func (l *Log) Replay() ([]model.LogEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil, ErrClosed
	}

	result, err := Scan(l.path)
	if result == nil {
		return nil, err
	}

	if n := len(result.Entries); n > 0 {
		l.seq = result.Entries[n-1].Sequence
	}
	if err == nil {
		l.recovered = true
	}
	return result.Entries, err
}

// Truncate cuts the file at offset, discarding everything after it, and marks
// the log ready for appends.
func (l *Log) Truncate(offset int64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return ErrClosed
	}
	if err := l.file.Truncate(offset); err != nil {
		return fmt.Errorf("%w: truncate: %v", ErrIO, err)
	}
	if err := l.file.Sync(); err != nil {
		return fmt.Errorf("%w: sync: %v", ErrIO, err)
	}
	l.size = offset
	l.recovered = true
	return nil
}

// Append assigns the next sequence number to entry and writes it. It returns
// only after the frame is fully written (and synced under SyncAlways). On
// failure nothing is committed and entry.Sequence is left at zero.
func (l *Log) Append(entry *model.LogEntry) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.writable(); err != nil {
		return 0, err
	}

	entry.Sequence = l.seq + 1
	frame, err := encodeFrame(entry)
	if err != nil {
		entry.Sequence = 0
		return 0, err
	}

	if err := l.write(frame); err != nil {
		entry.Sequence = 0
		return 0, err
	}

	l.seq = entry.Sequence
	return l.seq, nil
}

// AppendBatch writes entries with consecutive sequence numbers using a single
// write and a single sync. Either every entry is committed or none is.
func (l *Log) AppendBatch(entries []model.LogEntry) error {
	if len(entries) == 0 {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.writable(); err != nil {
		return err
	}

	var buf []byte
	for i := range entries {
		entries[i].Sequence = l.seq + uint64(i) + 1
		frame, err := encodeFrame(&entries[i])
		if err != nil {
			resetSequences(entries)
			return err
		}
		buf = append(buf, frame...)
	}

	if err := l.write(buf); err != nil {
		resetSequences(entries)
		return err
	}

	l.seq = entries[len(entries)-1].Sequence
	return nil
}

func resetSequences(entries []model.LogEntry) {
	for i := range entries {
		entries[i].Sequence = 0
	}
}

func (l *Log) writable() error {
	if l.closed {
		return ErrClosed
	}
	if !l.recovered {
		return ErrNotRecovered
	}
	return nil
}

// write appends buf and rolls the file back to its previous size if any step
// fails, so a rejected write never leaves a partial frame behind.
func (l *Log) write(buf []byte) error {
	if _, err := l.file.Write(buf); err != nil {
		l.rollback()
		return fmt.Errorf("%w: %v", ErrIO, err)
	}

	if l.syncMode == SyncAlways {
		if err := l.file.Sync(); err != nil {
			l.rollback()
			return fmt.Errorf("%w: sync: %v", ErrIO, err)
		}
	}

	l.size += int64(len(buf))
	return nil
}

func (l *Log) rollback() {
	_ = l.file.Truncate(l.size)
}

// Sequence returns the last committed sequence number.
func (l *Log) Sequence() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.seq
}

// Size returns the current log file size.
func (l *Log) Size() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.size
}

func (l *Log) Path() string {
	return l.path
}

// Close syncs and closes the log file. Calling Close twice is a no-op.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true

	syncErr := l.file.Sync()
	if err := l.file.Close(); err != nil {
		return err
	}
	return syncErr
}

package wal

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"os"

	"go-inventory-ledger/internal/model"
)

const (
	headerSize = 8
	// maxFrameSize bounds a single entry; a larger length is garbage.
	maxFrameSize = 1 << 20
)

func encodeFrame(entry *model.LogEntry) ([]byte, error) {
	data, err := json.Marshal(entry)
	if err != nil {
		return nil, fmt.Errorf("%w: encode: %v", ErrIO, err)
	}
	if len(data) > maxFrameSize {
		return nil, fmt.Errorf("%w: %s is %d bytes, limit %d", ErrEntryTooLarge, entry.Key, len(data), maxFrameSize)
	}

	buf := make([]byte, headerSize+len(data))
	binary.LittleEndian.PutUint32(buf[0:], crc32.ChecksumIEEE(data))
	binary.LittleEndian.PutUint32(buf[4:], uint32(len(data)))
	copy(buf[headerSize:], data)
	return buf, nil
}

// ScanResult is the outcome of reading a log file from the start.
type ScanResult struct {
	Entries []model.LogEntry
	// ValidSize is the byte offset just past the last intact frame.
	ValidSize int64
	FileSize  int64
}

// Scan reads every intact entry of the log at path in append order. When
// damage is found it returns the entries before it together with a
// *CorruptionError. A missing file is an empty log.
func Scan(path string) (*ScanResult, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &ScanResult{}, nil
		}
		return nil, err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, err
	}

	result := &ScanResult{FileSize: info.Size()}
	reader := bufio.NewReader(file)
	header := make([]byte, headerSize)
	var offset int64
	var lastSeq uint64

	corrupt := func(torn bool, reason string) (*ScanResult, error) {
		result.ValidSize = offset
		return result, &CorruptionError{Offset: offset, Torn: torn, Reason: reason}
	}

	for {
		if _, err := io.ReadFull(reader, header); err != nil {
			if err == io.EOF {
				break
			}
			if errors.Is(err, io.ErrUnexpectedEOF) {
				return corrupt(true, "incomplete header")
			}
			return nil, err
		}

		checksum := binary.LittleEndian.Uint32(header[0:])
		length := binary.LittleEndian.Uint32(header[4:])
		frameEnd := offset + headerSize + int64(length)
		trailing := frameEnd >= result.FileSize

		if length == 0 || length > maxFrameSize {
			return corrupt(trailing, "invalid frame length")
		}

		data := make([]byte, length)
		if _, err := io.ReadFull(reader, data); err != nil {
			if err == io.EOF || errors.Is(err, io.ErrUnexpectedEOF) {
				return corrupt(true, "incomplete payload")
			}
			return nil, err
		}

		if crc32.ChecksumIEEE(data) != checksum {
			return corrupt(trailing, "checksum mismatch")
		}

		var entry model.LogEntry
		if err := json.Unmarshal(data, &entry); err != nil {
			return corrupt(trailing, "undecodable payload")
		}
		if entry.Sequence <= lastSeq || !entry.Operation.Valid() || entry.Key == "" {
			return corrupt(false, "invalid entry")
		}

		lastSeq = entry.Sequence
		result.Entries = append(result.Entries, entry)
		offset = frameEnd
	}

	result.ValidSize = offset
	return result, nil
}

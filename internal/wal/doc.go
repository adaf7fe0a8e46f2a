// Package wal implements the append-only ledger log.
//
// Every mutation is framed and appended to a single file before it becomes
// visible in the index. On restart the file is scanned from the beginning and
// the index is rebuilt from the decoded entries.
//
// Frame format (little endian):
//
//	┌────────────┬────────────┬──────────────────────────┐
//	│ crc32 (4B) │ length (4B)│ JSON-encoded LogEntry     │
//	└────────────┴────────────┴──────────────────────────┘
//
// The checksum covers the JSON payload only. A frame that ends before its
// declared length is a torn write from a crash mid-append.
package wal

// Package peer fetches inventory snapshots from other ledger nodes.
package peer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"go-inventory-ledger/internal/model"
)

// ErrFetch covers every way a snapshot fetch can fail: unreachable peer,
// timeout, error status or an unusable body.
var ErrFetch = errors.New("peer snapshot fetch failed")

const (
	SnapshotPath   = "/api/snapshot"
	DefaultTimeout = 5 * time.Second
)

type Client struct {
	timeout time.Duration
}

func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{timeout: timeout}
}

// BaseURL turns an operator-supplied address ("10.0.0.5:3000" or a full URL)
// into a base URL without a trailing slash.
func BaseURL(address string) string {
	address = strings.TrimRight(strings.TrimSpace(address), "/")
	if !strings.Contains(address, "://") {
		address = "http://" + address
	}
	return address
}

// FetchSnapshot downloads the peer's full snapshot. The request is bounded by
// the client timeout or the context deadline, whichever is sooner.
func (c *Client) FetchSnapshot(ctx context.Context, address string) ([]model.Record, error) {
	if strings.TrimSpace(address) == "" {
		return nil, fmt.Errorf("%w: empty peer address", ErrFetch)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}

	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}

	url := BaseURL(address) + SnapshotPath
	agent := fiber.Get(url)
	agent.Timeout(timeout)

	var resp model.SnapshotResponse
	code, _, errs := agent.Struct(&resp)
	if len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s: %v", ErrFetch, url, errs[0])
	}
	if code != fiber.StatusOK || !resp.Success {
		return nil, fmt.Errorf("%w: %s: status %d %s", ErrFetch, url, code, resp.Message)
	}

	records := make([]model.Record, 0, len(resp.Inventory))
	for _, item := range resp.Inventory {
		r, err := item.ToRecord()
		if err != nil {
			return nil, fmt.Errorf("%w: %s: batch %s: %v", ErrFetch, url, item.BatchID, err)
		}
		records = append(records, r)
	}
	return records, nil
}

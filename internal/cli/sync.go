package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"go-inventory-ledger/internal/config"
	"go-inventory-ledger/internal/ledger"
	"go-inventory-ledger/internal/peer"
	"go-inventory-ledger/internal/reconcile"
	"go-inventory-ledger/internal/wal"
)

type SyncOptions struct {
	*RootOptions
	Peer      string
	PeersFile string
	Timeout   time.Duration
	Truncate  bool
}

type SyncResult struct {
	Source     string `json:"source"`
	Received   int    `json:"received"`
	Created    int    `json:"created"`
	Adjusted   int    `json:"adjusted"`
	Tombstoned int    `json:"tombstoned"`
	Sequence   uint64 `json:"sequence"`
}

func NewSyncCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SyncOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Pull a peer's snapshot and merge it into a stopped node's log",
		Long: `Fetch GET <peer>/api/snapshot and merge it into the local log with the
same rules the running server uses for POST /api/sync.

Examples:
  ledgerctl sync --log data/ledger.wal --peer 10.0.0.12:3000
  ledgerctl sync --peer clinic-b --peers-file peers.yaml`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Peer, "peer", "", "peer address or name from --peers-file (required)")
	_ = cmd.MarkFlagRequired("peer")
	cmd.Flags().StringVar(&opts.PeersFile, "peers-file", "", "YAML file mapping peer names to addresses")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", peer.DefaultTimeout, "snapshot fetch timeout")
	cmd.Flags().BoolVar(&opts.Truncate, "truncate", false, "truncate a damaged log instead of refusing to open it")

	return cmd
}

func runSync(opts *SyncOptions, cmd *cobra.Command) error {
	address := opts.Peer
	if opts.PeersFile != "" {
		peers, err := config.LoadPeers(opts.PeersFile)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to load peers", err)
		}
		address = peers.Resolve(opts.Peer)
	}

	ctx, cancel := context.WithTimeout(context.Background(), opts.Timeout)
	defer cancel()
	remote, err := peer.NewClient(opts.Timeout).FetchSnapshot(ctx, address)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to fetch snapshot", err)
	}

	recovery := ledger.RecoverStrict
	if opts.Truncate {
		recovery = ledger.RecoverTruncate
	}
	engine, err := ledger.Open(ledger.Config{Path: opts.LogPath, SyncMode: wal.SyncAlways, Recovery: recovery})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open ledger", err)
	}
	defer engine.Close()

	res, err := reconcile.New(engine).Reconcile(address, remote)
	if err != nil {
		return WrapExitError(ExitFailure, "reconcile failed", err)
	}

	result := SyncResult{
		Source:     address,
		Received:   res.Received,
		Created:    res.Created,
		Adjusted:   res.Adjusted,
		Tombstoned: res.Tombstoned,
		Sequence:   engine.Sequence(),
	}

	out := cmd.OutOrStdout()
	if opts.Format == "json" {
		return writeJSON(out, result)
	}
	fmt.Fprintf(out, "merged %d records from %s: %d created, %d adjusted, %d tombstoned (sequence %d)\n",
		result.Received, result.Source, result.Created, result.Adjusted, result.Tombstoned, result.Sequence)
	return nil
}

package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/wal"
)

func NewDumpCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "dump",
		Short: "Print log entries in log order",
		Long: `Print every intact entry of the log, oldest first. With --format json
each entry is written as one JSON document per line.

Examples:
  ledgerctl dump --log data/ledger.wal
  ledgerctl dump --log data/ledger.wal --format json | jq .`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDump(rootOpts, cmd)
		},
	}
}

func runDump(opts *RootOptions, cmd *cobra.Command) error {
	scan, err := wal.Scan(opts.LogPath)
	if scan == nil {
		return WrapExitError(ExitCommandError, "failed to read log", err)
	}
	var damage *wal.CorruptionError
	if err != nil && !errors.As(err, &damage) {
		return WrapExitError(ExitCommandError, "failed to read log", err)
	}

	out := cmd.OutOrStdout()
	if opts.Format == "json" {
		enc := json.NewEncoder(out)
		for i := range scan.Entries {
			if err := enc.Encode(&scan.Entries[i]); err != nil {
				return WrapExitError(ExitCommandError, "failed to write output", err)
			}
		}
	} else {
		for _, entry := range scan.Entries {
			writeEntry(out, entry)
		}
	}

	if damage != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", damage)
		return WrapExitError(ExitFailure, "log is damaged", damage)
	}
	return nil
}

func writeEntry(w io.Writer, e model.LogEntry) {
	expiry := e.Payload.Expiry.String()
	if expiry == "" {
		expiry = "-"
	}
	fmt.Fprintf(w, "%06d %s %-9s %-10s v%d qty=%d expiry=%s name=%q",
		e.Sequence, e.RecordedAt.UTC().Format(time.RFC3339), e.Operation, e.Key,
		e.Version, e.Payload.Quantity, expiry, e.Payload.Name)
	if e.Payload.Tombstone {
		fmt.Fprint(w, " tombstone")
	}
	if e.Override {
		fmt.Fprintf(w, " override:%s", e.Source)
	}
	fmt.Fprintln(w)
}

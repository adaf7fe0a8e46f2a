// Package cli implements ledgerctl, the operator tool for inspecting and
// repairing a ledger log while the node is stopped.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	LogPath string
	Format  string // "json" | "text"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	defaultLog := os.Getenv("LEDGER_PATH")
	if defaultLog == "" {
		defaultLog = "data/ledger.wal"
	}

	cmd := &cobra.Command{
		Use:   "ledgerctl",
		Short: "Inspect, repair and reconcile an inventory ledger log",
		Long: `ledgerctl works directly on a ledger log file. Run it only while the
API server that owns the log is stopped.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.LogPath, "log", defaultLog, "path to the ledger log (env LEDGER_PATH)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewVerifyCommand(opts))
	cmd.AddCommand(NewDumpCommand(opts))
	cmd.AddCommand(NewRepairCommand(opts))
	cmd.AddCommand(NewSyncCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

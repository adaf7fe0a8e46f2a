package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"go-inventory-ledger/internal/wal"
)

type RepairOptions struct {
	*RootOptions
	DryRun bool
}

func NewRepairCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RepairOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "repair",
		Short: "Truncate the log at its first damaged frame",
		Long: `Cut the log at the first damaged frame so the node can start under the
strict recovery policy. Every entry after the damage is lost; run
"ledgerctl sync" against a peer afterwards to recover them.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRepair(opts, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "report what would be truncated without writing")

	return cmd
}

func runRepair(opts *RepairOptions, cmd *cobra.Command) error {
	result, damage, err := scanLog(opts.LogPath)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if damage == nil {
		fmt.Fprintf(out, "%s is intact (%d entries), nothing to repair\n", opts.LogPath, result.Entries)
		return nil
	}

	dropped := result.Size - damage.Offset
	if opts.DryRun {
		fmt.Fprintf(out, "would truncate %s at offset %d, dropping %d bytes (%s)\n", opts.LogPath, damage.Offset, dropped, damage.Reason)
		return nil
	}

	store, err := wal.Open(opts.LogPath, wal.DefaultConfig())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open log", err)
	}
	defer store.Close()

	if err := store.Truncate(damage.Offset); err != nil {
		return WrapExitError(ExitFailure, "failed to truncate log", err)
	}
	fmt.Fprintf(out, "truncated %s at offset %d, dropped %d bytes (%s); %d entries kept\n",
		opts.LogPath, damage.Offset, dropped, damage.Reason, result.Entries)
	return nil
}

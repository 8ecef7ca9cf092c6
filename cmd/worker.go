package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/bnema/rewards-cli/internal/adapters/process"
	"github.com/spf13/cobra"
)

// newWorkerCmd is the entry point the primary re-executes in cluster mode.
// The chunk arrives on stdin and the chunk report leaves as JSON on stdout,
// which belongs to the primary. Failed accounts do not change the exit code.
func newWorkerCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:    "worker",
		Short:  "Process one chunk of accounts sent by the primary on stdin",
		Hidden: true,
		Args:   cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			spec, err := process.DecodeMessage(cmd.InOrStdin())
			if err != nil {
				return err
			}
			if err := app.load(cmd); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger := app.logger.With("run_id", spec.RunID, "worker", spec.Index, "pid", os.Getpid())
			report := app.runner.WithLogger(logger).Run(ctx, spec.Chunk)
			report.WorkerIndex = spec.Index

			return report.WriteJSON(cmd.OutOrStdout())
		},
	}
}

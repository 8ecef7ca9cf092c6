package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/bnema/rewards-cli/internal/adapters/render/summary"
	"github.com/bnema/rewards-cli/internal/application"
	"github.com/bnema/rewards-cli/internal/domain"
	"github.com/spf13/cobra"
)

func newRunCmd(app *app) *cobra.Command {
	var (
		schedule   string
		clusters   int
		asJSON     bool
		dryRun     bool
		maskEmails bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the desktop and mobile tasks for every account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := app.load(cmd); err != nil {
				return err
			}

			if !cmd.Flags().Changed("clusters") {
				clusters = app.settings.Clusters
			}
			if clusters < 1 {
				return errors.New("--clusters must be at least 1")
			}
			if !cmd.Flags().Changed("schedule") {
				schedule = app.settings.Schedule
			}

			if dryRun {
				return writeChunkPlan(cmd, app, clusters, asJSON, maskEmails)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			dispatcher := app.dispatcher(clusters)
			runOnce := func(ctx context.Context) error {
				report, err := dispatcher.Run(ctx)
				if err != nil {
					return err
				}
				return writeDispatchOutput(cmd, app, report, asJSON, maskEmails)
			}

			if strings.TrimSpace(schedule) == "" {
				return runOnce(ctx)
			}
			return application.NewScheduler(schedule, runOnce, app.logger).Run(ctx)
		},
	}

	cmd.Flags().StringVar(&schedule, "schedule", "", "Cron expression; run now and then on every tick until interrupted")
	cmd.Flags().IntVar(&clusters, "clusters", 1, "Number of worker processes (1 runs in process)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the run report as JSON")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print how accounts would be split across workers and exit")
	cmd.Flags().BoolVar(&maskEmails, "mask-emails", false, "Hide the local part of account emails in output")

	return cmd
}

func writeDispatchOutput(cmd *cobra.Command, app *app, report application.DispatchReport, asJSON, maskEmails bool) error {
	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	return writeSummary(cmd, app, summary.FromDispatch(report), maskEmails)
}

func writeSummary(cmd *cobra.Command, app *app, run summary.Run, maskEmails bool) error {
	rendered, err := app.renderSummary(run, summary.RenderOptions{MaskEmails: maskEmails})
	if err != nil {
		return fmt.Errorf("render summary: %w", err)
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
	return err
}

type chunkPlan struct {
	Worker   int      `json:"worker"`
	Accounts []string `json:"accounts"`
}

func writeChunkPlan(cmd *cobra.Command, app *app, clusters int, asJSON, maskEmails bool) error {
	accounts, err := app.accounts.ListAccounts(cmd.Context())
	if err != nil {
		return err
	}

	chunks := domain.ChunkAccounts(accounts, clusters)
	plan := make([]chunkPlan, 0, len(chunks))
	for index, chunk := range chunks {
		emails := make([]string, 0, len(chunk))
		for _, account := range chunk {
			if maskEmails {
				emails = append(emails, account.MaskedEmail())
				continue
			}
			emails = append(emails, account.Email)
		}
		plan = append(plan, chunkPlan{Worker: index, Accounts: emails})
	}

	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(plan)
	}

	for _, entry := range plan {
		accountsLabel := strings.Join(entry.Accounts, ", ")
		if accountsLabel == "" {
			accountsLabel = "(idle)"
		}
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "worker %d\t%d\t%s\n", entry.Worker, len(entry.Accounts), accountsLabel); err != nil {
			return err
		}
	}

	return nil
}

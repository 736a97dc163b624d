package main

import (
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/leadmail/internal/workflow"
)

var (
	enrichLimit         int
	enrichManualApprove bool
	applyLimit          int
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Generate, apply and prune enrichment audits",
}

var enrichRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Generate candidate emails for leads without one",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx, "enrich")
		if err != nil {
			return err
		}
		defer env.Close()

		res, err := env.Workflow.Enrich(ctx, workflow.EnrichOptions{
			Limit:         enrichLimit,
			ManualApprove: enrichManualApprove,
		})
		if res != nil {
			_ = printJSON(res)
		}
		return eris.Wrap(err, "enrich run")
	},
}

var enrichApplyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Write approved candidates onto leads",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx, "enrich")
		if err != nil {
			return err
		}
		defer env.Close()

		res, err := env.Workflow.Apply(ctx, applyLimit)
		if res != nil {
			_ = printJSON(res)
		}
		return eris.Wrap(err, "enrich apply")
	},
}

var enrichCleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete applied audits past the retention window",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "enrich")
		if err != nil {
			return err
		}
		defer env.Close()

		n, err := env.Workflow.Cleanup(ctx)
		if err != nil {
			return err
		}
		return printJSON(map[string]int{"deleted": n})
	},
}

func init() {
	enrichRunCmd.Flags().IntVar(&enrichLimit, "limit", 0, "max leads to enrich (default from config)")
	enrichRunCmd.Flags().BoolVar(&enrichManualApprove, "manual-approve", false, "create every audit as approved")
	enrichApplyCmd.Flags().IntVar(&applyLimit, "limit", 0, "max audits to apply (default from config)")

	enrichCmd.AddCommand(enrichRunCmd, enrichApplyCmd, enrichCleanupCmd)
	rootCmd.AddCommand(enrichCmd)
}

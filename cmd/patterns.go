package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var patternsCmd = &cobra.Command{
	Use:   "patterns",
	Short: "Inspect and maintain learned company patterns",
}

var patternsGetCmd = &cobra.Command{
	Use:   "get <company>",
	Short: "Show the stored pattern for a company",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "store")
		if err != nil {
			return err
		}
		defer env.Close()

		p, src, err := env.Cache.Get(ctx, args[0])
		if err != nil {
			return err
		}
		if p == nil {
			return eris.Errorf("no pattern for %q", args[0])
		}
		return printJSON(map[string]any{"pattern": p, "source": src})
	},
}

var patternsDeleteCmd = &cobra.Command{
	Use:   "delete <company>",
	Short: "Delete the stored pattern for a company",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "store")
		if err != nil {
			return err
		}
		defer env.Close()

		deleted, err := env.Cache.Delete(ctx, args[0])
		if err != nil {
			return err
		}
		zap.L().Info("pattern delete", zap.String("company", args[0]), zap.Bool("deleted", deleted))
		return printJSON(map[string]any{"company": args[0], "deleted": deleted})
	},
}

var patternsRebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Recompute every pattern from audits and peer emails",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "store")
		if err != nil {
			return err
		}
		defer env.Close()

		res, err := env.Rebuilder.Rebuild(ctx)
		if err != nil {
			return err
		}
		return printJSON(res)
	},
}

func init() {
	patternsCmd.AddCommand(patternsGetCmd, patternsDeleteCmd, patternsRebuildCmd)
	rootCmd.AddCommand(patternsCmd)
}

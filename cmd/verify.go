package main

import (
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var (
	verifyLimit       int
	verifyStatusEmail string
	verifyCheckEmail  string
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check email deliverability over MX and SMTP",
}

var verifyRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Verify a batch of lead emails",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx, "verify")
		if err != nil {
			return err
		}
		defer env.Close()

		res, err := env.Verifier.Run(ctx, verifyLimit)
		if res != nil {
			_ = printJSON(res)
		}
		return eris.Wrap(err, "verify run")
	},
}

var verifyCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify one address without recording the result",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "verify")
		if err != nil {
			return err
		}
		defer env.Close()

		return printJSON(env.Verifier.VerifyAddress(ctx, verifyCheckEmail))
	},
}

var verifyStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the latest verification for an address",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "store")
		if err != nil {
			return err
		}
		defer env.Close()

		st, err := env.Verifier.Status(ctx, verifyStatusEmail)
		if err != nil {
			return err
		}
		return printJSON(st)
	},
}

func init() {
	verifyRunCmd.Flags().IntVar(&verifyLimit, "limit", 0, "max leads to verify (default from config)")
	verifyCheckCmd.Flags().StringVar(&verifyCheckEmail, "email", "", "address to check (required)")
	_ = verifyCheckCmd.MarkFlagRequired("email")
	verifyStatusCmd.Flags().StringVar(&verifyStatusEmail, "email", "", "address to look up (required)")
	_ = verifyStatusCmd.MarkFlagRequired("email")

	verifyCmd.AddCommand(verifyRunCmd, verifyCheckCmd, verifyStatusCmd)
	rootCmd.AddCommand(verifyCmd)
}

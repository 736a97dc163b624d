package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var (
	generateName    string
	generateCompany string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a candidate email for a name at a company",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "enrich")
		if err != nil {
			return err
		}
		defer env.Close()

		gen, err := env.Generator.Generate(ctx, generateName, generateCompany)
		if err != nil {
			return eris.Wrap(err, "generate")
		}
		return printJSON(gen)
	},
}

func init() {
	generateCmd.Flags().StringVar(&generateName, "name", "", "full name (required)")
	generateCmd.Flags().StringVar(&generateCompany, "company", "", "company name (required)")
	_ = generateCmd.MarkFlagRequired("name")
	_ = generateCmd.MarkFlagRequired("company")
	rootCmd.AddCommand(generateCmd)
}

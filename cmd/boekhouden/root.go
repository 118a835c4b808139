package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "boekhouden",
		Short:         "Bookkeeping for a Belgian self-employed practice",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	root.CompletionOptions.DisableDefaultCmd = true

	root.PersistentFlags().StringVar(&a.configDir, "config-dir", "", "directory with settings.yaml, categories.yaml, rules.yaml and accounts.yaml")
	root.PersistentFlags().IntVarP(&a.year, "year", "y", 0, "fiscal year (default: all years, or the configured year for reports and assets)")

	root.AddCommand(
		newImportCmd(a),
		newCategorizeCmd(a),
		newListCmd(a),
		newAssignCmd(a),
		newMatchesCmd(a),
		newRulesCmd(a),
		newBootstrapCmd(a),
		newCategoriesCmd(a),
		newAssetsCmd(a),
		newReportCmd(a),
		newHashPasswordCmd(),
	)
	return root
}

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"boekhouden/internal/services"
)

func newImportCmd(a *app) *cobra.Command {
	var force, dryRun bool

	cmd := &cobra.Command{
		Use:   "import FILE...",
		Short: "Import Belfius CSV statements",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			opts := services.ImportOptions{FiscalYear: a.year, Force: force, DryRun: dryRun}

			for _, path := range args {
				f, err := os.Open(path)
				if err != nil {
					return err
				}
				session, err := a.imports.ImportCSV(cmd.Context(), filepath.Base(path), f, opts)
				f.Close()
				if err != nil {
					return fmt.Errorf("import %s: %w", path, err)
				}

				if !dryRun {
					a.record(services.AuditImport, "import_session", session.ID, map[string]interface{}{
						"file":     session.SourceFile,
						"imported": session.TransactionsImported,
						"skipped":  session.TransactionsSkipped,
						"excluded": session.TransactionsExcluded,
						"errors":   len(session.Errors),
					})
				}

				printOK(out, "%s: %d imported, %d skipped, %d excluded",
					session.SourceFile, session.TransactionsImported,
					session.TransactionsSkipped, session.TransactionsExcluded)
				for _, e := range session.Errors {
					printWarning(out, "line %d: %s", e.Line, e.Message)
				}
			}
			if dryRun {
				printWarning(out, "dry run, nothing saved")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite bank fields of transactions already imported")
	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "show what would be imported without saving")
	return cmd
}

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"boekhouden/internal/report"
)

func newReportCmd(a *app) *cobra.Command {
	var excelPath, pdfPath string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the profit and loss statement of the fiscal year",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			year := a.fiscalYear()

			r, err := a.reports.Generate(ctx, year)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprint(out, report.FormatConsole(r))

			if excelPath != "" {
				if err := writeFile(excelPath, func(w io.Writer) error {
					return a.reports.WriteExcel(ctx, year, w)
				}); err != nil {
					return err
				}
				printOK(out, "Excel report written to %s", excelPath)
			}
			if pdfPath != "" {
				if err := writeFile(pdfPath, func(w io.Writer) error {
					return a.reports.WritePDF(ctx, year, w)
				}); err != nil {
					return err
				}
				printOK(out, "PDF report written to %s", pdfPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&excelPath, "excel", "", "also write the workbook to this path")
	cmd.Flags().StringVar(&pdfPath, "pdf", "", "also write the PDF to this path")
	return cmd
}

// writeFile removes the file again when render fails.
func writeFile(path string, render func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := render(f); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}


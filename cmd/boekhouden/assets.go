package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	apperrors "boekhouden/internal/errors"
	"boekhouden/internal/report"
	"boekhouden/internal/services"
)

var assetHeaders = []string{"ID", "Name", "Purchased", "Amount", "Years", "Annual", "Book value", "Status"}

func assetRow(v services.AssetView) []string {
	return []string{
		v.ID,
		truncate(v.Name, 40),
		v.PurchaseDate.Format(dateLayout),
		report.FormatAmount(v.PurchaseAmount),
		strconv.Itoa(v.DepreciationYears),
		report.FormatAmount(v.AnnualDepreciation),
		report.FormatAmount(v.BookValue),
		string(v.Status),
	}
}

func newAssetsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assets",
		Short: "Maintain the depreciation register",
	}
	cmd.AddCommand(
		newAssetsListCmd(a),
		newAssetsAddCmd(a),
		newAssetsDisposeCmd(a),
		newAssetsImportCmd(a),
	)
	return cmd
}

func newAssetsListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List assets with their book value at the end of the year",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			year := a.fiscalYear()
			views, err := a.assets.ListAssets(year)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printTitle(out, fmt.Sprintf("Assets %d", year))
			rows := make([][]string, 0, len(views))
			for _, v := range views {
				rows = append(rows, assetRow(v))
			}
			printTable(out, assetHeaders, rows)
			return nil
		},
	}
}

func newAssetsAddCmd(a *app) *cobra.Command {
	var (
		date   string
		amount string
		years  int
		notes  string
	)

	cmd := &cobra.Command{
		Use:   "add NAME",
		Short: "Register an asset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			purchased, err := parseDate(date)
			if err != nil {
				return err
			}
			value, err := decimal.NewFromString(amount)
			if err != nil {
				return apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid amount: "+amount)
			}

			asset, err := a.assets.AddAsset(services.AssetInput{
				Name:              args[0],
				PurchaseDate:      purchased,
				PurchaseAmount:    value,
				DepreciationYears: years,
				Notes:             notes,
			})
			if err != nil {
				return err
			}
			a.record(services.AuditAssetAdd, "asset", asset.ID, map[string]interface{}{
				"name":   asset.Name,
				"amount": asset.PurchaseAmount.String(),
				"years":  asset.DepreciationYears,
			})
			printOK(cmd.OutOrStdout(), "asset %s registered, %s per year", asset.ID, report.FormatEUR(asset.AnnualDepreciation().Round(2)))
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "purchase date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&amount, "amount", "", "purchase amount, e.g. 1299.00")
	cmd.Flags().IntVar(&years, "years", 3, "depreciation period in years (1-10)")
	cmd.Flags().StringVar(&notes, "notes", "", "free-text notes")
	_ = cmd.MarkFlagRequired("date")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func newAssetsDisposeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "dispose ASSET-ID DATE",
		Short: "Record the sale or scrapping of an asset",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			disposed, err := parseDate(args[1])
			if err != nil {
				return err
			}
			asset, err := a.assets.DisposeAsset(args[0], disposed)
			if err != nil {
				return err
			}
			a.record(services.AuditAssetDispose, "asset", asset.ID, map[string]interface{}{
				"disposal_date": disposed.Format(dateLayout),
			})
			printOK(cmd.OutOrStdout(), "asset %s disposed on %s", asset.ID, disposed.Format(dateLayout))
			return nil
		},
	}
}

func newAssetsImportCmd(a *app) *cobra.Command {
	var sheet string

	cmd := &cobra.Command{
		Use:   "import WORKBOOK",
		Short: "Import the depreciation rows of a bookkeeping workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			res, err := a.assets.ImportFromExcel(f, sheet, a.fiscalYear())
			if err != nil {
				return err
			}
			a.record(services.AuditAssetImport, "asset", "", map[string]interface{}{
				"file":     args[0],
				"imported": len(res.Imported),
				"skipped":  res.Skipped,
			})

			out := cmd.OutOrStdout()
			rows := make([][]string, 0, len(res.Imported))
			for _, asset := range res.Imported {
				rows = append(rows, []string{asset.ID, asset.Name, asset.PurchaseDate.Format(dateLayout),
					report.FormatAmount(asset.PurchaseAmount), strconv.Itoa(asset.DepreciationYears)})
			}
			printTable(out, []string{"ID", "Name", "Purchased", "Amount", "Years"}, rows)
			printOK(out, "%d imported, %d skipped", len(res.Imported), res.Skipped)
			return nil
		},
	}

	cmd.Flags().StringVar(&sheet, "sheet", "", "sheet name (default: the result sheet)")
	return cmd
}


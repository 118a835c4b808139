package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	apperrors "boekhouden/internal/errors"
	"boekhouden/internal/models"
	"boekhouden/internal/pagination"
	"boekhouden/internal/report"
	"boekhouden/internal/services"
)

func newListCmd(a *app) *cobra.Command {
	var (
		category      string
		uncategorized bool
		private       bool
		excluded      bool
		search        string
		page, size    int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List transactions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter := services.TransactionFilter{
				Uncategorized:   uncategorized,
				Private:         private,
				Search:          search,
				IncludeExcluded: excluded,
			}
			if a.year != 0 {
				filter.Year = &a.year
			}
			if category != "" {
				filter.Category = &category
			}

			res, err := a.transactions.ListTransactions(filter, pagination.PageRequest{Page: page, PageSize: size})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			rows := make([][]string, 0, len(res.Data))
			for _, tx := range res.Data {
				rows = append(rows, transactionRow(tx))
			}
			printTable(out, []string{"ID", "Date", "Amount", "Counterparty", "Category", "Rule"}, rows)
			fmt.Fprintln(out, mutedStyle.Render(fmt.Sprintf("page %d of %d, %d transactions", res.Page, res.TotalPages, res.TotalItems)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&category, "category", "c", "", "only this category")
	cmd.Flags().BoolVar(&uncategorized, "uncategorized", false, "only transactions without category")
	cmd.Flags().BoolVar(&private, "private", false, "only private expenses paid from the business account")
	cmd.Flags().BoolVar(&excluded, "include-excluded", false, "also list excluded rows such as Mastercard settlements")
	cmd.Flags().StringVarP(&search, "search", "s", "", "search counterparty, description and communication")
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&size, "page-size", 50, "transactions per page")
	return cmd
}

func transactionRow(tx models.Transaction) []string {
	category := models.Deref(tx.Category)
	if tx.IsManualOverride {
		category += " *"
	}
	if tx.IsTherapeutic {
		category += " (T)"
	}
	name := models.Deref(tx.CounterpartyName)
	if name == "" {
		name = models.Deref(tx.Description)
	}
	return []string{
		tx.ID,
		tx.BookingDate.Format(dateLayout),
		report.FormatAmount(tx.Amount),
		truncate(name, 40),
		category,
		models.Deref(tx.MatchedRuleID),
	}
}

func newAssignCmd(a *app) *cobra.Command {
	var therapeutic string

	cmd := &cobra.Command{
		Use:   "assign TRANSACTION-ID CATEGORY",
		Short: "Set the category of a transaction by hand",
		Long:  "Set the category of a transaction by hand. Use the category \"-\" to clear a manual category.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, category := args[0], args[1]

			var (
				tx  *models.Transaction
				err error
			)
			if category == "-" {
				tx, err = a.transactions.ClearCategory(id)
			} else {
				var flag *bool
				if therapeutic != "" {
					v, perr := strconv.ParseBool(therapeutic)
					if perr != nil {
						return apperrors.WithMessage(apperrors.ErrInvalidInput, "--therapeutic expects true or false")
					}
					flag = &v
				}
				tx, err = a.transactions.AssignCategory(id, category, flag)
			}
			if err != nil {
				return err
			}

			if category == "-" {
				a.record(services.AuditClearCategory, "transaction", tx.ID, nil)
			} else {
				a.record(services.AuditAssignCategory, "transaction", tx.ID, map[string]interface{}{
					"category":    models.Deref(tx.Category),
					"therapeutic": tx.IsTherapeutic,
				})
			}
			printTable(cmd.OutOrStdout(), []string{"ID", "Date", "Amount", "Counterparty", "Category", "Rule"},
				[][]string{transactionRow(*tx)})
			return nil
		},
	}

	cmd.Flags().StringVar(&therapeutic, "therapeutic", "", "mark revenue as therapeutic (true/false)")
	return cmd
}

// parseDate accepts YYYY-MM-DD and the Belgian DD/MM/YYYY.
func parseDate(s string) (time.Time, error) {
	for _, layout := range []string{dateLayout, "02/01/2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, apperrors.WithMessage(apperrors.ErrInvalidInput, fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", s))
}

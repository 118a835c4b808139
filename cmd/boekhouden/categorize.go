package main

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"boekhouden/internal/models"
	"boekhouden/internal/services"
)

func newCategorizeCmd(a *app) *cobra.Command {
	var all, dryRun bool

	cmd := &cobra.Command{
		Use:   "categorize",
		Short: "Apply the rules to uncategorized transactions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()

			res, err := a.categorization.Categorize(cmd.Context(), a.year, all, dryRun)
			if err != nil {
				return err
			}
			if !dryRun {
				a.record(services.AuditCategorize, "transaction", "", map[string]interface{}{
					"year":          a.year,
					"all":           all,
					"categorized":   res.Categorized,
					"uncategorized": res.Uncategorized,
				})
			}

			if dryRun {
				printTitle(out, "Categorization (dry run)")
			} else {
				printTitle(out, "Categorization")
			}
			fmt.Fprintf(out, "categorized:   %d\n", res.Categorized)
			fmt.Fprintf(out, "uncategorized: %d\n", res.Uncategorized)
			fmt.Fprintf(out, "skipped:       %d\n", res.Skipped)
			fmt.Fprintf(out, "maatschap:     %d\n", res.MaatschapCount)
			fmt.Fprintf(out, "standard:      %d\n", res.StandardCount)

			ids := make([]string, 0, len(res.RulesApplied))
			for id := range res.RulesApplied {
				ids = append(ids, id)
			}
			sort.Strings(ids)
			rows := make([][]string, 0, len(ids))
			for _, id := range ids {
				rows = append(rows, []string{id, strconv.Itoa(res.RulesApplied[id])})
			}
			fmt.Fprintln(out)
			printTable(out, []string{"Rule", "Applied"}, rows)

			if dryRun && len(res.Changes) > 0 {
				rows = rows[:0]
				for _, c := range res.Changes {
					rows = append(rows, []string{
						c.TransactionID,
						models.Deref(c.OldCategory),
						c.NewCategory,
						c.RuleID,
					})
				}
				fmt.Fprintln(out)
				printTable(out, []string{"Transaction", "From", "To", "Rule"}, rows)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "re-evaluate categorized transactions, including manual overrides")
	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "show the changes without saving them")
	return cmd
}

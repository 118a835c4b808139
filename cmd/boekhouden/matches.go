package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	apperrors "boekhouden/internal/errors"
	"boekhouden/internal/models"
	"boekhouden/internal/pagination"
	"boekhouden/internal/report"
	"boekhouden/internal/services"
)

func newMatchesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "matches",
		Short: "Reconcile private expenses with their reimbursements",
	}
	cmd.AddCommand(
		newMatchesRunCmd(a),
		newMatchesListCmd(a),
		newMatchesCreateCmd(a),
		newMatchesAcceptCmd(a),
		newMatchesRejectCmd(a),
	)
	return cmd
}

func newMatchesRunCmd(a *app) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Pair unmatched private expenses with reimbursements",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			run, err := a.matches.Run(cmd.Context(), a.year, dryRun)
			if err != nil {
				return err
			}
			if !dryRun {
				a.record(services.AuditMatchRun, "match", "", map[string]interface{}{
					"year":     a.year,
					"accepted": len(run.Accepted),
					"pending":  run.Pending,
				})
			}

			out := cmd.OutOrStdout()
			printTitle(out, "Reconciliation")
			rows := make([][]string, 0, len(run.Accepted))
			for _, d := range run.Accepted {
				rows = append(rows, []string{d.ExpenseID, d.ReimbursementID, strconv.FormatFloat(d.Score, 'f', 2, 64)})
			}
			printTable(out, []string{"Expense", "Reimbursement", "Score"}, rows)

			for _, amb := range run.Ambiguous {
				printWarning(out, "%s (%s) has %d candidates", amb.Expense.ID, report.FormatAmount(amb.Expense.Amount), len(amb.Candidates))
				for _, c := range amb.Candidates {
					fmt.Fprintf(out, "    %s  %s  score %.2f\n", c.Reimbursement.ID, report.FormatAmount(c.Reimbursement.Amount), c.Score)
				}
			}

			fmt.Fprintf(out, "accepted %d, ambiguous %d, pending %d, unmatched expenses %d, unmatched reimbursements %d\n",
				len(run.Accepted), len(run.Ambiguous), run.Pending, run.UnmatchedExpenses, run.UnmatchedReimbursements)
			if dryRun {
				fmt.Fprintln(out, mutedStyle.Render("dry run, nothing saved"))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "show the pairs without saving them")
	return cmd
}

func newMatchesListCmd(a *app) *cobra.Command {
	var (
		status     string
		page, size int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List match decisions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var filter *models.MatchStatus
			if status != "" {
				s := models.MatchStatus(status)
				switch s {
				case models.MatchStatusAuto, models.MatchStatusManual, models.MatchStatusRejected, models.MatchStatusPending:
				default:
					return apperrors.WithMessage(apperrors.ErrInvalidInput, "unknown status: "+status)
				}
				filter = &s
			}

			res, err := a.matches.List(filter, pagination.PageRequest{Page: page, PageSize: size})
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(res.Data))
			for _, d := range res.Data {
				rows = append(rows, decisionRow(d))
			}
			out := cmd.OutOrStdout()
			printTable(out, decisionHeaders, rows)
			fmt.Fprintln(out, mutedStyle.Render(fmt.Sprintf("page %d of %d, %d decisions", res.Page, res.TotalPages, res.TotalItems)))
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "auto, manual, rejected or pending")
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().IntVar(&size, "page-size", 50, "decisions per page")
	return cmd
}

func decisionRow(d models.MatchDecision) []string {
	amount := ""
	if d.Expense != nil {
		amount = report.FormatAmount(d.Expense.Amount)
	}
	return []string{
		d.ID,
		string(d.Status),
		d.ExpenseID,
		d.ReimbursementID,
		amount,
		strconv.FormatFloat(d.Score, 'f', 2, 64),
		truncate(d.Note, 30),
	}
}

var decisionHeaders = []string{"ID", "Status", "Expense", "Reimbursement", "Amount", "Score", "Note"}

func newMatchesCreateCmd(a *app) *cobra.Command {
	var note string

	cmd := &cobra.Command{
		Use:   "create EXPENSE-ID REIMBURSEMENT-ID",
		Short: "Pair an expense with its reimbursement by hand",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.matches.Create(args[0], args[1], note)
			if err != nil {
				return err
			}
			a.record(services.AuditMatchCreate, "match", d.ID, map[string]interface{}{
				"expense_id":       d.ExpenseID,
				"reimbursement_id": d.ReimbursementID,
			})
			printTable(cmd.OutOrStdout(), decisionHeaders, [][]string{decisionRow(*d)})
			return nil
		},
	}

	cmd.Flags().StringVar(&note, "note", "", "free-text note")
	return cmd
}

func newMatchesAcceptCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "accept DECISION-ID",
		Short: "Accept a pending match",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := a.matches.Accept(args[0])
			if err != nil {
				return err
			}
			a.record(services.AuditMatchAccept, "match", d.ID, nil)
			printTable(cmd.OutOrStdout(), decisionHeaders, [][]string{decisionRow(*d)})
			return nil
		},
	}
}

func newMatchesRejectCmd(a *app) *cobra.Command {
	var note string

	cmd := &cobra.Command{
		Use:   "reject DECISION-ID | reject EXPENSE-ID REIMBURSEMENT-ID",
		Short: "Reject a match so it is never proposed again",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				d   *models.MatchDecision
				err error
			)
			if len(args) == 2 {
				d, err = a.matches.RejectPair(args[0], args[1], note)
			} else {
				d, err = a.matches.Reject(args[0], note)
			}
			if err != nil {
				return err
			}
			a.record(services.AuditMatchReject, "match", d.ID, map[string]interface{}{"note": note})
			printTable(cmd.OutOrStdout(), decisionHeaders, [][]string{decisionRow(*d)})
			return nil
		},
	}

	cmd.Flags().StringVar(&note, "note", "", "reason for the rejection")
	return cmd
}

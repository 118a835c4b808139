package main

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	apperrors "boekhouden/internal/errors"
	"boekhouden/internal/models"
	"boekhouden/internal/services"
)

var ruleHeaders = []string{"ID", "Priority", "Field", "Type", "Pattern", "Category", "Source", "Enabled"}

func ruleRow(r models.CategoryRule) []string {
	category := r.TargetCategory
	if r.IsTherapeutic != nil && *r.IsTherapeutic {
		category += " (T)"
	}
	enabled := "yes"
	if !r.Enabled {
		enabled = "no"
	}
	return []string{
		r.ID,
		strconv.Itoa(r.Priority),
		string(r.MatchField),
		string(r.PatternType),
		truncate(r.Pattern, 40),
		category,
		string(r.Source),
		enabled,
	}
}

func newRulesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:         "rules",
		Short:       "Maintain the categorization rules in rules.yaml",
		Annotations: map[string]string{skipDB: ""},
	}
	cmd.AddCommand(
		newRulesListCmd(a),
		newRulesAddCmd(a),
		newRulesDisableCmd(a),
		newRulesTestCmd(a),
	)
	return cmd
}

func newRulesListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:         "list",
		Short:       "List all rules",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipDB: "", skipRuleCheck: ""},
		RunE: func(cmd *cobra.Command, _ []string) error {
			list := a.rules.ListRules()
			rows := make([][]string, 0, len(list))
			for _, r := range list {
				rows = append(rows, ruleRow(r))
			}
			printTable(cmd.OutOrStdout(), ruleHeaders, rows)
			return nil
		},
	}
}

func newRulesAddCmd(a *app) *cobra.Command {
	var (
		rule        models.CategoryRule
		patternType string
		matchField  string
		therapeutic bool
	)

	cmd := &cobra.Command{
		Use:         "add PATTERN CATEGORY",
		Short:       "Add a rule",
		Args:        cobra.ExactArgs(2),
		Annotations: map[string]string{skipDB: ""},
		RunE: func(cmd *cobra.Command, args []string) error {
			rule.Pattern = args[0]
			rule.TargetCategory = args[1]
			rule.PatternType = models.PatternType(patternType)
			rule.MatchField = models.MatchField(matchField)
			if cmd.Flags().Changed("therapeutic") {
				rule.IsTherapeutic = &therapeutic
			}

			added, err := a.rules.AddRule(rule)
			if err != nil {
				return err
			}
			printOK(cmd.OutOrStdout(), "rule %s added", added.ID)
			printTable(cmd.OutOrStdout(), ruleHeaders, [][]string{ruleRow(*added)})
			return nil
		},
	}

	cmd.Flags().StringVar(&rule.ID, "id", "", "rule id (default: next rule-NNN)")
	cmd.Flags().StringVar(&patternType, "type", string(models.PatternTypeContains), "exact, prefix, contains or regex")
	cmd.Flags().StringVar(&matchField, "field", string(models.MatchFieldCounterpartyName), "counterparty_name, description or counterparty_iban")
	cmd.Flags().IntVar(&rule.Priority, "priority", 100, "lower values are evaluated first")
	cmd.Flags().BoolVar(&therapeutic, "therapeutic", false, "mark matching revenue as therapeutic")
	cmd.Flags().StringVar(&rule.Notes, "notes", "", "free-text notes")
	return cmd
}

func newRulesDisableCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:         "disable RULE-ID",
		Short:       "Disable a rule without removing it",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{skipDB: "", skipRuleCheck: ""},
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := a.rules.DisableRule(args[0])
			if err != nil {
				return err
			}
			printOK(cmd.OutOrStdout(), "rule %s disabled", r.ID)
			return nil
		},
	}
}

func newRulesTestCmd(a *app) *cobra.Command {
	var (
		field       string
		accountType string
	)

	cmd := &cobra.Command{
		Use:         "test VALUE",
		Short:       "Show which rules match a sample value",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{skipDB: ""},
		RunE: func(cmd *cobra.Command, args []string) error {
			at := models.AccountType(accountType)
			if at != models.AccountTypeStandard && at != models.AccountTypeMaatschap {
				return apperrors.WithMessage(apperrors.ErrInvalidInput, "unknown account type: "+accountType)
			}

			matches, err := a.rules.TestRule(models.MatchField(field), args[0], at)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			rows := make([][]string, 0, len(matches))
			for _, m := range matches {
				row := ruleRow(m.Rule)
				if m.Selected {
					row[0] = "> " + row[0]
				}
				rows = append(rows, row)
			}
			printTable(out, ruleHeaders, rows)
			return nil
		},
	}

	cmd.Flags().StringVar(&field, "field", string(models.MatchFieldCounterpartyName), "field the value belongs to")
	cmd.Flags().StringVar(&accountType, "account-type", string(models.AccountTypeStandard), "standard or maatschap")
	return cmd
}

func newBootstrapCmd(a *app) *cobra.Command {
	var opts services.BootstrapOptions

	cmd := &cobra.Command{
		Use:         "bootstrap WORKBOOK...",
		Short:       "Extract counterparty rules from earlier years' workbooks",
		Args:        cobra.MinimumNArgs(1),
		Annotations: map[string]string{skipDB: ""},
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := a.rules.Bootstrap(args, opts)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printTitle(out, "Extracted rules")
			rows := make([][]string, 0, len(res.Rules))
			for _, r := range res.Rules {
				rows = append(rows, ruleRow(r))
			}
			printTable(out, ruleHeaders, rows)

			for _, amb := range res.Ambiguous {
				cats := make([]string, 0, len(amb.Categories))
				for c, n := range amb.Categories {
					cats = append(cats, fmt.Sprintf("%s=%d", c, n))
				}
				sort.Strings(cats)
				printWarning(out, "%s is ambiguous over %d rows: %v", amb.Pattern, amb.Total, cats)
			}
			labels := make([]string, 0, len(res.Unresolved))
			for label := range res.Unresolved {
				labels = append(labels, label)
			}
			sort.Strings(labels)
			for _, label := range labels {
				printWarning(out, "category label %q (%d rows) matches no category", label, res.Unresolved[label])
			}

			if opts.DryRun {
				fmt.Fprintln(out, mutedStyle.Render("dry run, rules.yaml unchanged"))
				return nil
			}
			printOK(out, "%d rules added, %d already covered", res.Added, res.Skipped)
			return nil
		},
	}

	cmd.Flags().IntVar(&opts.MinOccurrences, "min-occurrences", 0, "minimum rows per counterparty (default 2)")
	cmd.Flags().BoolVarP(&opts.DryRun, "dry-run", "n", false, "show the rules without saving them")
	return cmd
}

func newCategoriesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:         "categories",
		Short:       "List the configured categories",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipDB: ""},
		RunE: func(cmd *cobra.Command, _ []string) error {
			list := a.categories.ListCategories()
			rows := make([][]string, 0, len(list))
			for _, c := range list {
				deductible := "no"
				if c.TaxDeductible {
					deductible = strconv.Itoa(c.DeductibilityPct) + "%"
				}
				rows = append(rows, []string{c.ID, c.Name, string(c.Type), deductible})
			}
			printTable(cmd.OutOrStdout(), []string{"ID", "Name", "Type", "Deductible"}, rows)
			return nil
		},
	}
}

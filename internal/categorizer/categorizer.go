// Package categorizer assigns categories to transactions using a rule set.
//
// Categorization is a pure function of its inputs: transactions are copied,
// never mutated, and identical inputs always produce identical results.
package categorizer

import (
	"boekhouden/internal/models"
	"boekhouden/internal/rules"
)

// Options controls a categorization pass.
type Options struct {
	// All re-evaluates transactions that already carry a category,
	// including manual overrides. A transaction no rule matches keeps its
	// current category.
	All bool
	// Locked holds ids of transactions in an active match. They keep their
	// category even with All and count as skipped.
	Locked map[string]bool
}

// Change records one transaction whose categorization changed.
type Change struct {
	TransactionID string  `json:"transaction_id"`
	OldCategory   *string `json:"old_category"`
	NewCategory   string  `json:"new_category"`
	RuleID        string  `json:"rule_id"`
	Therapeutic   bool    `json:"therapeutic"`
}

// Result summarises a pass. Transactions holds the updated copies in input
// order.
type Result struct {
	Transactions   []models.Transaction `json:"-"`
	Categorized    int                  `json:"categorized"`
	Uncategorized  int                  `json:"uncategorized"`
	Skipped        int                  `json:"skipped"`
	RulesApplied   map[string]int       `json:"rules_applied"`
	MaatschapCount int                  `json:"maatschap_count"`
	StandardCount  int                  `json:"standard_count"`
	Changes        []Change             `json:"changes"`
}

// Categorizer applies a rule set with the account-aware two-phase strategy.
type Categorizer struct {
	rules    *rules.RuleSet
	accounts map[string]models.AccountType
}

// New creates a Categorizer. Accounts are indexed by normalized IBAN.
func New(rs *rules.RuleSet, accounts []models.Account) *Categorizer {
	idx := make(map[string]models.AccountType, len(accounts))
	for _, a := range accounts {
		idx[a.NormalizedIBAN()] = a.AccountType
	}
	return &Categorizer{rules: rs, accounts: idx}
}

// AccountType resolves the type of the account a transaction was booked on.
// Unknown accounts are standard.
func (c *Categorizer) AccountType(tx *models.Transaction) models.AccountType {
	if tx.OwnAccount == nil {
		return models.AccountTypeStandard
	}
	if t, ok := c.accounts[models.NormalizeIBAN(*tx.OwnAccount)]; ok {
		return t
	}
	return models.AccountTypeStandard
}

// Match returns the rule that would categorize tx, or nil. Partnership
// accounts try description rules first and stop at the first hit; standard
// accounts only ever consult counterparty rules.
func (c *Categorizer) Match(tx *models.Transaction) *rules.Rule {
	if c.AccountType(tx) == models.AccountTypeMaatschap {
		if r := rules.FirstMatch(tx, c.rules.DescriptionRules()); r != nil {
			return r
		}
	}
	return rules.FirstMatch(tx, c.rules.CounterpartyRules())
}

// Categorize runs one pass over txs.
func (c *Categorizer) Categorize(txs []models.Transaction, opts Options) Result {
	res := Result{
		Transactions: make([]models.Transaction, len(txs)),
		RulesApplied: make(map[string]int),
	}
	copy(res.Transactions, txs)

	for i := range res.Transactions {
		tx := &res.Transactions[i]

		if tx.IsExcluded {
			res.Skipped++
			continue
		}

		if c.AccountType(tx) == models.AccountTypeMaatschap {
			res.MaatschapCount++
		} else {
			res.StandardCount++
		}

		if !opts.All && (tx.IsCategorized() || tx.IsManualOverride) {
			continue
		}
		if opts.Locked[tx.ID] {
			res.Skipped++
			continue
		}

		r := c.Match(tx)
		if r == nil {
			if !tx.IsCategorized() {
				res.Uncategorized++
			}
			continue
		}

		c.apply(tx, r, &res)
	}

	return res
}

func (c *Categorizer) apply(tx *models.Transaction, r *rules.Rule, res *Result) {
	therapeutic := c.therapeutic(tx, r)

	unchanged := tx.HasCategory(r.TargetCategory) &&
		tx.MatchedRuleID != nil && *tx.MatchedRuleID == r.ID &&
		tx.IsTherapeutic == therapeutic && !tx.IsManualOverride

	res.Categorized++
	res.RulesApplied[r.ID]++

	if unchanged {
		return
	}

	res.Changes = append(res.Changes, Change{
		TransactionID: tx.ID,
		OldCategory:   tx.Category,
		NewCategory:   r.TargetCategory,
		RuleID:        r.ID,
		Therapeutic:   therapeutic,
	})

	category := r.TargetCategory
	ruleID := r.ID
	tx.Category = &category
	tx.MatchedRuleID = &ruleID
	tx.IsManualOverride = false
	tx.IsTherapeutic = therapeutic
}

// therapeutic is the flag tx carries after r is applied. Only revenue is
// ever therapeutic; a rule without a flag keeps the current one.
func (c *Categorizer) therapeutic(tx *models.Transaction, r *rules.Rule) bool {
	if r.TargetCategory != c.rules.RevenueCategory() {
		return false
	}
	if r.IsTherapeutic != nil {
		return *r.IsTherapeutic
	}
	return tx.IsTherapeutic
}

package reconcile

import (
	"errors"
	"sort"

	"boekhouden/internal/models"
)

// Errors returned when a pairing violates the matching invariants.
var (
	ErrAlreadyMatched    = errors.New("transaction is already part of an active match")
	ErrPairRejected      = errors.New("pair was rejected earlier")
	ErrNotPrivateExpense = errors.New("pair must be a negative and a positive private expense")
)

// DefaultThreshold is the minimum score for a candidate to qualify.
const DefaultThreshold = 50

// Candidate is a reimbursement that qualifies for an expense.
type Candidate struct {
	Reimbursement models.Transaction `json:"reimbursement"`
	Score         float64            `json:"score"`
	Breakdown     Breakdown          `json:"breakdown"`
}

// Ambiguous is an expense with qualifying candidates that could not be
// paired automatically. Candidates are sorted by descending score.
type Ambiguous struct {
	Expense    models.Transaction `json:"expense"`
	Candidates []Candidate        `json:"candidates"`
}

// Result of one reconciliation run.
type Result struct {
	Accepted                []models.MatchDecision `json:"accepted"`
	Ambiguous               []Ambiguous            `json:"ambiguous"`
	UnmatchedExpenses       int                    `json:"unmatched_expenses"`
	UnmatchedReimbursements int                    `json:"unmatched_reimbursements"`
}

// Engine selects automatic matches among unmatched private expenses.
type Engine struct {
	scorer    *Scorer
	threshold float64
	category  string
}

// NewEngine creates an Engine for transactions in privateCategory.
func NewEngine(scorer *Scorer, threshold float64, privateCategory string) *Engine {
	return &Engine{scorer: scorer, threshold: threshold, category: privateCategory}
}

// Scorer returns the engine's scorer.
func (e *Engine) Scorer() *Scorer { return e.scorer }

type pairKey struct{ expense, reimbursement string }

type ledger struct {
	active   map[string]bool
	rejected map[pairKey]bool
}

func newLedger(decisions []models.MatchDecision) ledger {
	l := ledger{active: map[string]bool{}, rejected: map[pairKey]bool{}}
	for _, d := range decisions {
		switch {
		case d.Status.IsActive():
			l.active[d.ExpenseID] = true
			l.active[d.ReimbursementID] = true
		case d.Status == models.MatchStatusRejected:
			l.rejected[pairKey{d.ExpenseID, d.ReimbursementID}] = true
		}
	}
	return l
}

func (e *Engine) isPrivate(tx *models.Transaction) bool {
	return !tx.IsExcluded && tx.HasCategory(e.category)
}

// Run proposes matches for every unmatched private expense in txs.
// Transactions already in an active decision and pairs that were rejected
// are never considered, so a second run over the same data yields nothing
// new.
//
// A pair (E, R) is accepted only when R is E's single qualifying candidate
// and no other expense has R as its single candidate. Any other expense
// with qualifying candidates is reported as ambiguous, minus the
// reimbursements accepted in this run.
func (e *Engine) Run(txs []models.Transaction, decisions []models.MatchDecision) Result {
	l := newLedger(decisions)

	var expenses, reimbursements []models.Transaction
	for i := range txs {
		tx := txs[i]
		if !e.isPrivate(&tx) || l.active[tx.ID] {
			continue
		}
		switch {
		case tx.IsExpense():
			expenses = append(expenses, tx)
		case tx.IsIncome():
			reimbursements = append(reimbursements, tx)
		}
	}
	sortByDate(expenses)
	sortByDate(reimbursements)

	qualifying := make([][]Candidate, len(expenses))
	for i := range expenses {
		for j := range reimbursements {
			if l.rejected[pairKey{expenses[i].ID, reimbursements[j].ID}] {
				continue
			}
			b := e.scorer.Explain(&expenses[i], &reimbursements[j])
			if b.Total() < e.threshold {
				continue
			}
			qualifying[i] = append(qualifying[i], Candidate{
				Reimbursement: reimbursements[j],
				Score:         b.Total(),
				Breakdown:     b,
			})
		}
	}

	// Only expenses with a single candidate claim it; an expense with
	// several candidates does not block another expense's unique match.
	claims := make(map[string]int, len(reimbursements))
	for _, cands := range qualifying {
		if len(cands) == 1 {
			claims[cands[0].Reimbursement.ID]++
		}
	}

	var res Result
	matched := make(map[string]bool)
	for i, cands := range qualifying {
		if len(cands) == 1 && claims[cands[0].Reimbursement.ID] == 1 {
			res.Accepted = append(res.Accepted, models.MatchDecision{
				ExpenseID:       expenses[i].ID,
				ReimbursementID: cands[0].Reimbursement.ID,
				Score:           cands[0].Score,
				Status:          models.MatchStatusAuto,
			})
			matched[cands[0].Reimbursement.ID] = true
		}
	}

	for i, cands := range qualifying {
		if len(cands) == 1 && matched[cands[0].Reimbursement.ID] {
			continue
		}
		res.UnmatchedExpenses++

		open := cands[:0:0]
		for _, c := range cands {
			if !matched[c.Reimbursement.ID] {
				open = append(open, c)
			}
		}
		if len(open) == 0 {
			continue
		}
		sort.SliceStable(open, func(a, b int) bool {
			if open[a].Score != open[b].Score {
				return open[a].Score > open[b].Score
			}
			return open[a].Reimbursement.ID < open[b].Reimbursement.ID
		})
		res.Ambiguous = append(res.Ambiguous, Ambiguous{Expense: expenses[i], Candidates: open})
	}
	res.UnmatchedReimbursements = len(reimbursements) - len(matched)

	return res
}

// ValidatePair checks that expense and reimbursement may be linked by a
// new active decision. Score is not consulted: an explicit pairing always
// wins over the heuristic. A previously rejected pair is refused unless
// allowRejected is set.
func (e *Engine) ValidatePair(expense, reimbursement *models.Transaction, decisions []models.MatchDecision, allowRejected bool) error {
	if expense.ID == reimbursement.ID ||
		!e.isPrivate(expense) || !e.isPrivate(reimbursement) ||
		!expense.IsExpense() || !reimbursement.IsIncome() {
		return ErrNotPrivateExpense
	}

	l := newLedger(decisions)
	if l.active[expense.ID] || l.active[reimbursement.ID] {
		return ErrAlreadyMatched
	}
	if !allowRejected && l.rejected[pairKey{expense.ID, reimbursement.ID}] {
		return ErrPairRejected
	}
	return nil
}

func sortByDate(txs []models.Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		if !txs[i].BookingDate.Equal(txs[j].BookingDate) {
			return txs[i].BookingDate.Before(txs[j].BookingDate)
		}
		return txs[i].ID < txs[j].ID
	})
}

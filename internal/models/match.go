package models

// MatchStatus is the state of a reconciliation decision.
type MatchStatus string

const (
	MatchStatusAuto     MatchStatus = "auto"
	MatchStatusManual   MatchStatus = "manual"
	MatchStatusRejected MatchStatus = "rejected"
	MatchStatusPending  MatchStatus = "pending"
)

// IsActive reports whether the decision links both transactions.
func (s MatchStatus) IsActive() bool {
	return s == MatchStatusAuto || s == MatchStatusManual
}

// MatchDecision pairs a private expense (negative) with its reimbursement
// (positive). Active and rejected decisions persist across runs; pending
// ones are regenerated by every reconciliation run.
type MatchDecision struct {
	Base
	ExpenseID       string      `gorm:"not null;index" json:"expense_id"`
	ReimbursementID string      `gorm:"not null;index" json:"reimbursement_id"`
	Score           float64     `gorm:"not null;default:0" json:"score"`
	Status          MatchStatus `gorm:"not null;index" json:"status"`
	Note            string      `json:"note,omitempty"`

	Expense       *Transaction `gorm:"foreignKey:ExpenseID" json:"expense,omitempty"`
	Reimbursement *Transaction `gorm:"foreignKey:ReimbursementID" json:"reimbursement,omitempty"`
}

package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ExpenseKind distinguishes a shared cost from a direct settlement.
type ExpenseKind string

const (
	Split    ExpenseKind = "SPLIT"
	Transfer ExpenseKind = "TRANSFER"
)

// Expense represents a recorded payment event awaiting participant confirmation.
// FinalizedAt is set exactly once by the settlement transaction and never
// cleared afterwards.
type Expense struct {
	ExpenseID          string          `json:"expenseID"` // Primary Key (UUID)
	GroupID            string          `json:"groupID"`
	PayerID            string          `json:"payerID"`
	PayeeID            *string         `json:"payeeID,omitempty"` // Transfers only
	Kind               ExpenseKind     `json:"kind"`
	Amount             decimal.Decimal `json:"amount"`
	Description        string          `json:"description"`
	AcceptanceDeadline time.Time       `json:"acceptanceDeadline"`
	FinalizedAt        *time.Time      `json:"finalizedAt,omitempty"`
	AuditFields
}

// IsFinalized reports whether the expense has been settled.
func (e Expense) IsFinalized() bool {
	return e.FinalizedAt != nil
}

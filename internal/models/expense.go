package models

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

// Expense is the storage representation of a recorded payment event.
type Expense struct {
	ExpenseID          string          `json:"expenseID"` // Primary Key (UUID)
	GroupID            string          `json:"groupID"`
	PayerID            string          `json:"payerID"`
	PayeeID            *string         `json:"payeeID,omitempty"` // Nullable, transfers only
	Kind               ExpenseKind     `json:"kind"`
	Amount             decimal.Decimal `json:"amount"`
	Description        string          `json:"description"`
	AcceptanceDeadline time.Time       `json:"acceptanceDeadline"`
	FinalizedAt        *time.Time      `json:"finalizedAt,omitempty"` // Set once, never cleared
	AuditFields
}

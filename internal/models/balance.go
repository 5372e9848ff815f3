package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// BalanceEdge is the storage representation of a directed pairwise debt.
// Primary key is (group_id, debtor_id, creditor_id) with debtor != creditor.
type BalanceEdge struct {
	GroupID       string          `json:"groupID"`
	DebtorID      string          `json:"debtorID"`
	CreditorID    string          `json:"creditorID"`
	Amount        decimal.Decimal `json:"amount"`
	LastUpdatedAt time.Time       `json:"lastUpdatedAt"`
}

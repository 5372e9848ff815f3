package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BalanceEdge is a directed, persistent record of how much one member owes
// another within a group. Edges come in complementary pairs: whenever the
// (debtor, creditor) edge moves by delta, the (creditor, debtor) edge moves
// by -delta in the same transaction. A zero amount is a valid value; edges
// are never deleted.
type BalanceEdge struct {
	GroupID       string          `json:"groupID"`
	DebtorID      string          `json:"debtorID"`
	CreditorID    string          `json:"creditorID"`
	Amount        decimal.Decimal `json:"amount"`
	LastUpdatedAt time.Time       `json:"lastUpdatedAt"`
}

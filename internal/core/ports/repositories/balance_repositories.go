package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/wesplit/wesplit_app/internal/core/domain"
)

// BalanceReader defines read operations for balance-edge data
type BalanceReader interface {
	// ListBalancesByGroupID retrieves all balance edges of a group.
	ListBalancesByGroupID(ctx context.Context, groupID string) ([]domain.BalanceEdge, error)
}

// BalanceWriter defines write operations for balance-edge data
type BalanceWriter interface {
	// AdjustBalance atomically adds delta to the (debtor, creditor) edge and
	// -delta to the complementary (creditor, debtor) edge, creating both at
	// zero if absent. Must only be called from within a settlement
	// transaction; storage failures propagate to the caller unretried.
	AdjustBalance(ctx context.Context, tx pgx.Tx, groupID, debtorID, creditorID string, delta decimal.Decimal) error
}

// BalanceRepositoryFacade combines all balance-related repository interfaces
type BalanceRepositoryFacade interface {
	BalanceReader
	BalanceWriter
}

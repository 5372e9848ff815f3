package pgsql

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/wesplit/wesplit_app/internal/apperrors"
	"github.com/wesplit/wesplit_app/internal/core/domain"
	portsrepo "github.com/wesplit/wesplit_app/internal/core/ports/repositories"
	"github.com/wesplit/wesplit_app/internal/models"
	"github.com/wesplit/wesplit_app/internal/utils/mapping"
)

type PgxBalanceRepository struct {
	BaseRepository
}

// NewBalanceRepository creates a new repository for balance-edge data.
func NewBalanceRepository(pool *pgxpool.Pool) portsrepo.BalanceRepositoryFacade {
	return &PgxBalanceRepository{BaseRepository: BaseRepository{Pool: pool}}
}

// Ensure PgxBalanceRepository implements portsrepo.BalanceRepositoryFacade
var _ portsrepo.BalanceRepositoryFacade = (*PgxBalanceRepository)(nil)

// AdjustBalance adds delta to the (debtor, creditor) edge and -delta to the
// complementary (creditor, debtor) edge, creating edges lazily at zero.
// Both upserts run in the caller's transaction so the pair can never diverge.
func (r *PgxBalanceRepository) AdjustBalance(ctx context.Context, tx pgx.Tx, groupID, debtorID, creditorID string, delta decimal.Decimal) error {
	if debtorID == creditorID {
		return apperrors.NewAppError(400, "balance edge debtor and creditor must differ", nil)
	}

	query := `
		INSERT INTO balance_edges (group_id, debtor_id, creditor_id, amount, last_updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (group_id, debtor_id, creditor_id)
		DO UPDATE SET amount = balance_edges.amount + EXCLUDED.amount, last_updated_at = EXCLUDED.last_updated_at;
	`
	now := time.Now().UTC()

	batch := &pgx.Batch{}
	batch.Queue(query, groupID, debtorID, creditorID, delta, now)
	batch.Queue(query, groupID, creditorID, debtorID, delta.Neg(), now)

	br := tx.SendBatch(ctx, batch)
	if err := br.Close(); err != nil {
		return apperrors.NewAppError(500, "failed to adjust balance edge "+debtorID+"->"+creditorID, err)
	}
	return nil
}

// ListBalancesByGroupID retrieves all balance edges of a group.
func (r *PgxBalanceRepository) ListBalancesByGroupID(ctx context.Context, groupID string) ([]domain.BalanceEdge, error) {
	query := `
		SELECT group_id, debtor_id, creditor_id, amount, last_updated_at
		FROM balance_edges
		WHERE group_id = $1
		ORDER BY debtor_id, creditor_id;
	`
	rows, err := r.Pool.Query(ctx, query, groupID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query balance edges for group "+groupID, err)
	}
	defer rows.Close()

	edges := []domain.BalanceEdge{}
	for rows.Next() {
		var m models.BalanceEdge
		if err := rows.Scan(&m.GroupID, &m.DebtorID, &m.CreditorID, &m.Amount, &m.LastUpdatedAt); err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan balance edge row for group "+groupID, err)
		}
		edges = append(edges, mapping.ToDomainBalanceEdge(m))
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating balance edge rows for group "+groupID, err)
	}

	return edges, nil
}

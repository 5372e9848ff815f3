package pgsql

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/wesplit/wesplit_app/internal/apperrors"
	"github.com/wesplit/wesplit_app/internal/core/domain"
	portsrepo "github.com/wesplit/wesplit_app/internal/core/ports/repositories"
	"github.com/wesplit/wesplit_app/internal/models"
	"github.com/wesplit/wesplit_app/internal/utils/mapping"
)

type PgxExpenseRepository struct {
	BaseRepository
}

// NewExpenseRepository creates a new repository for expense data.
func NewExpenseRepository(pool *pgxpool.Pool) portsrepo.ExpenseRepositoryWithTx {
	return &PgxExpenseRepository{BaseRepository: BaseRepository{Pool: pool}}
}

// Ensure PgxExpenseRepository implements portsrepo.ExpenseRepositoryWithTx
var _ portsrepo.ExpenseRepositoryWithTx = (*PgxExpenseRepository)(nil)

const expenseColumns = `expense_id, group_id, payer_id, payee_id, kind, amount, description, acceptance_deadline, finalized_at, created_at, created_by, last_updated_at, last_updated_by`

func scanExpense(row pgx.Row) (*models.Expense, error) {
	var m models.Expense
	err := row.Scan(
		&m.ExpenseID,
		&m.GroupID,
		&m.PayerID,
		&m.PayeeID,
		&m.Kind,
		&m.Amount,
		&m.Description,
		&m.AcceptanceDeadline,
		&m.FinalizedAt,
		&m.CreatedAt,
		&m.CreatedBy,
		&m.LastUpdatedAt,
		&m.LastUpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// SaveExpense persists a new expense and its initial participant rows within a DB transaction.
func (r *PgxExpenseRepository) SaveExpense(ctx context.Context, expense domain.Expense, participants []domain.Participant) error {
	tx, err := r.Begin(ctx)
	if err != nil {
		return err
	}
	// Ignored if the transaction commits first.
	defer r.Rollback(ctx, tx)

	modelExpense := mapping.ToModelExpense(expense)
	expenseQuery := `
		INSERT INTO expenses (` + expenseColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13);
	`
	_, err = tx.Exec(ctx, expenseQuery,
		modelExpense.ExpenseID,
		modelExpense.GroupID,
		modelExpense.PayerID,
		modelExpense.PayeeID,
		modelExpense.Kind,
		modelExpense.Amount,
		modelExpense.Description,
		modelExpense.AcceptanceDeadline,
		modelExpense.FinalizedAt,
		modelExpense.CreatedAt,
		modelExpense.CreatedBy,
		modelExpense.LastUpdatedAt,
		modelExpense.LastUpdatedBy,
	)
	if err != nil {
		return apperrors.NewAppError(500, "failed to insert expense "+modelExpense.ExpenseID, err)
	}

	batch := &pgx.Batch{}
	participantQuery := `
		INSERT INTO participants (expense_id, member_id, status, invited_at, responded_at)
		VALUES ($1, $2, $3, $4, $5);
	`
	for _, p := range participants {
		modelP := mapping.ToModelParticipant(p)
		batch.Queue(participantQuery,
			modelP.ExpenseID,
			modelP.MemberID,
			modelP.Status,
			modelP.InvitedAt,
			modelP.RespondedAt,
		)
	}

	br := tx.SendBatch(ctx, batch)
	if err := br.Close(); err != nil {
		return apperrors.NewAppError(500, "failed to insert participants for expense "+modelExpense.ExpenseID, err)
	}

	return r.Commit(ctx, tx)
}

// FindExpenseByID retrieves an expense by its ID.
func (r *PgxExpenseRepository) FindExpenseByID(ctx context.Context, expenseID string) (*domain.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE expense_id = $1;`

	m, err := scanExpense(r.Pool.QueryRow(ctx, query, expenseID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to find expense by ID "+expenseID, err)
	}

	domainExpense := mapping.ToDomainExpense(*m)
	return &domainExpense, nil
}

// FindExpenseByIDForUpdate retrieves the expense row and locks it for the
// duration of the transaction. Concurrent settlement triggers block here and
// re-observe finalized_at once the lock is granted.
func (r *PgxExpenseRepository) FindExpenseByIDForUpdate(ctx context.Context, tx pgx.Tx, expenseID string) (*domain.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE expense_id = $1 FOR UPDATE;`

	m, err := scanExpense(tx.QueryRow(ctx, query, expenseID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, apperrors.NewAppError(500, "failed to lock expense "+expenseID, err)
	}

	domainExpense := mapping.ToDomainExpense(*m)
	return &domainExpense, nil
}

// MarkFinalized sets finalized_at on an expense. The WHERE guard on
// finalized_at keeps the column write-once even if a caller misbehaves.
func (r *PgxExpenseRepository) MarkFinalized(ctx context.Context, tx pgx.Tx, expenseID string, finalizedAt time.Time, updatedBy string) error {
	query := `
		UPDATE expenses
		SET finalized_at = $2, last_updated_at = $2, last_updated_by = $3
		WHERE expense_id = $1 AND finalized_at IS NULL;
	`
	tag, err := tx.Exec(ctx, query, expenseID, finalizedAt, updatedBy)
	if err != nil {
		return apperrors.NewAppError(500, "failed to mark expense finalized "+expenseID, err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrDuplicate
	}
	return nil
}

// ListUnfinalizedExpenses retrieves all expenses with finalized_at still null.
func (r *PgxExpenseRepository) ListUnfinalizedExpenses(ctx context.Context) ([]domain.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE finalized_at IS NULL ORDER BY acceptance_deadline;`

	rows, err := r.Pool.Query(ctx, query)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query unfinalized expenses", err)
	}
	defer rows.Close()

	expenses := []domain.Expense{}
	for rows.Next() {
		m, err := scanExpense(rows)
		if err != nil {
			return nil, apperrors.NewAppError(500, "failed to scan expense row", err)
		}
		expenses = append(expenses, mapping.ToDomainExpense(*m))
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewAppError(500, "error iterating expense rows", err)
	}

	return expenses, nil
}

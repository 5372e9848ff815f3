package repositories

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/wesplit/wesplit_app/internal/core/domain"
)

// ExpenseReader defines read operations for expense data
type ExpenseReader interface {
	// FindExpenseByID retrieves a specific expense by its unique identifier.
	FindExpenseByID(ctx context.Context, expenseID string) (*domain.Expense, error)

	// ListUnfinalizedExpenses retrieves every expense whose finalized_at is
	// still null. Used by the scheduler's recovery pass on process start.
	ListUnfinalizedExpenses(ctx context.Context) ([]domain.Expense, error)
}

// ExpenseWriter defines write operations for expense data
type ExpenseWriter interface {
	// SaveExpense persists a new expense together with its initial participant
	// rows in a single transaction.
	SaveExpense(ctx context.Context, expense domain.Expense, participants []domain.Participant) error

	// FindExpenseByIDForUpdate retrieves the expense row and locks it for the
	// duration of tx. This lock is the single serialization point for
	// settlement: every vote, timer and recovery trigger contends on it.
	FindExpenseByIDForUpdate(ctx context.Context, tx pgx.Tx, expenseID string) (*domain.Expense, error)

	// MarkFinalized sets finalized_at within tx. Must only be called while the
	// caller holds the row lock and has verified finalized_at is still null.
	MarkFinalized(ctx context.Context, tx pgx.Tx, expenseID string, finalizedAt time.Time, updatedBy string) error
}

// ExpenseRepositoryFacade combines all expense-related repository interfaces
type ExpenseRepositoryFacade interface {
	ExpenseReader
	ExpenseWriter
}

// ExpenseRepositoryWithTx extends ExpenseRepositoryFacade with transaction capabilities
type ExpenseRepositoryWithTx interface {
	ExpenseRepositoryFacade
	TransactionManager
}

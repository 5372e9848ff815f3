package services

import (
	"context"

	"github.com/wesplit/wesplit_app/internal/core/domain"
	"github.com/wesplit/wesplit_app/internal/dto"
)

// SettlementOutcome describes what a settlement invocation did.
type SettlementOutcome struct {
	ExpenseID string
	GroupID   string
	// Finalized is true when this invocation performed the settlement.
	Finalized bool
	// AlreadyFinalized is true when a previous invocation had already settled
	// the expense; the call degraded to an idempotent no-op.
	AlreadyFinalized bool
}

// ExpenseReaderSvc defines read operations for expense data
type ExpenseReaderSvc interface {
	// GetExpense retrieves an expense together with its participant rows.
	GetExpense(ctx context.Context, expenseID string) (*domain.Expense, []domain.Participant, error)

	// ListPendingInvites retrieves the member's currently-pending invites,
	// replayed as the first events of a freshly connected stream.
	ListPendingInvites(ctx context.Context, memberID string) ([]domain.Participant, error)
}

// ExpenseWriterSvc defines the expense-creation entry point.
type ExpenseWriterSvc interface {
	// CreateExpense persists a new expense with its invited participants,
	// arms the finalization timer and notifies invited members.
	CreateExpense(ctx context.Context, req dto.CreateExpenseRequest, creatorMemberID string) (*domain.Expense, error)
}

// ResponderSvc defines the vote endpoint.
type ResponderSvc interface {
	// Respond records a member's accept/decline vote. When the vote empties
	// the pending set, settlement runs within the same transaction.
	Respond(ctx context.Context, expenseID, memberID string, vote domain.ParticipantStatus) (*dto.RespondResponse, error)
}

// SettlerSvc defines the settlement transaction trigger used by the
// scheduler and the recovery drain.
type SettlerSvc interface {
	// Settle applies the one-time financial outcome of an expense. force is
	// true only for deadline-driven triggers; it lets settlement proceed with
	// votes still pending.
	Settle(ctx context.Context, expenseID string, force bool) (*SettlementOutcome, error)
}

// SettlementSvcFacade combines all expense settlement operations.
type SettlementSvcFacade interface {
	ExpenseReaderSvc
	ExpenseWriterSvc
	ResponderSvc
	SettlerSvc
}

// BalanceSvcFacade exposes read access to a group's balance edges.
type BalanceSvcFacade interface {
	ListGroupBalances(ctx context.Context, groupID string) ([]domain.BalanceEdge, error)
}

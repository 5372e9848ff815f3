package repositories

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/wesplit/wesplit_app/internal/core/domain"
)

// ParticipantReader defines read operations for participant data
type ParticipantReader interface {
	// FindParticipantsByExpenseID retrieves all participant rows for an expense.
	FindParticipantsByExpenseID(ctx context.Context, expenseID string) ([]domain.Participant, error)

	// ListPendingInvitesForMember retrieves the member's currently-pending
	// invites across all open expenses. Feeds the backlog replay of a freshly
	// connected event stream.
	ListPendingInvitesForMember(ctx context.Context, memberID string) ([]domain.Participant, error)
}

// ParticipantWriter defines write operations for participant data.
// All tx-taking methods must run under the expense row lock held by the
// enclosing settlement or respond transaction.
type ParticipantWriter interface {
	// TryRespond transitions the participant from PENDING to the given
	// terminal status. Returns false (and no error) when the participant is
	// already in a terminal state; the conditional update is the guard that
	// makes concurrent identical votes and vote-vs-timeout races safe.
	TryRespond(ctx context.Context, tx pgx.Tx, expenseID, memberID string, status domain.ParticipantStatus, respondedAt time.Time) (bool, error)

	// CountPending returns the number of still-undecided participants.
	CountPending(ctx context.Context, tx pgx.Tx, expenseID string) (int, error)

	// CountAccepted returns the number of participants who accepted.
	CountAccepted(ctx context.Context, tx pgx.Tx, expenseID string) (int, error)

	// FindParticipantsByExpenseIDTx retrieves participant rows within tx.
	FindParticipantsByExpenseIDTx(ctx context.Context, tx pgx.Tx, expenseID string) ([]domain.Participant, error)
}

// ParticipantRepositoryFacade combines all participant-related repository interfaces
type ParticipantRepositoryFacade interface {
	ParticipantReader
	ParticipantWriter
}

package pgsql

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/wesplit/wesplit_app/internal/apperrors"
	"github.com/wesplit/wesplit_app/internal/core/domain"
	portsrepo "github.com/wesplit/wesplit_app/internal/core/ports/repositories"
	"github.com/wesplit/wesplit_app/internal/models"
	"github.com/wesplit/wesplit_app/internal/utils/mapping"
)

type PgxParticipantRepository struct {
	BaseRepository
}

// NewParticipantRepository creates a new repository for participant data.
func NewParticipantRepository(pool *pgxpool.Pool) portsrepo.ParticipantRepositoryFacade {
	return &PgxParticipantRepository{BaseRepository: BaseRepository{Pool: pool}}
}

// Ensure PgxParticipantRepository implements portsrepo.ParticipantRepositoryFacade
var _ portsrepo.ParticipantRepositoryFacade = (*PgxParticipantRepository)(nil)

// TryRespond transitions a participant from PENDING to the given terminal
// status. The status guard in the WHERE clause is the concurrency check: a
// second identical vote, or a vote racing a timeout, affects zero rows and
// reports false without error.
func (r *PgxParticipantRepository) TryRespond(ctx context.Context, tx pgx.Tx, expenseID, memberID string, status domain.ParticipantStatus, respondedAt time.Time) (bool, error) {
	query := `
		UPDATE participants
		SET status = $3, responded_at = $4
		WHERE expense_id = $1 AND member_id = $2 AND status = 'PENDING';
	`
	tag, err := tx.Exec(ctx, query, expenseID, memberID, status, respondedAt)
	if err != nil {
		return false, apperrors.NewAppError(500, "failed to record response for expense "+expenseID, err)
	}
	return tag.RowsAffected() == 1, nil
}

// CountPending returns the number of still-undecided participants of an expense.
func (r *PgxParticipantRepository) CountPending(ctx context.Context, tx pgx.Tx, expenseID string) (int, error) {
	return r.countByStatus(ctx, tx, expenseID, domain.ParticipantPending)
}

// CountAccepted returns the number of participants who accepted an expense.
func (r *PgxParticipantRepository) CountAccepted(ctx context.Context, tx pgx.Tx, expenseID string) (int, error) {
	return r.countByStatus(ctx, tx, expenseID, domain.ParticipantAccepted)
}

func (r *PgxParticipantRepository) countByStatus(ctx context.Context, tx pgx.Tx, expenseID string, status domain.ParticipantStatus) (int, error) {
	query := `SELECT COUNT(*) FROM participants WHERE expense_id = $1 AND status = $2;`

	var count int
	if err := tx.QueryRow(ctx, query, expenseID, status).Scan(&count); err != nil {
		return 0, apperrors.NewAppError(500, "failed to count participants for expense "+expenseID, err)
	}
	return count, nil
}

const participantColumns = `expense_id, member_id, status, invited_at, responded_at`

func scanParticipants(rows pgx.Rows) ([]models.Participant, error) {
	defer rows.Close()

	participants := []models.Participant{}
	for rows.Next() {
		var p models.Participant
		if err := rows.Scan(&p.ExpenseID, &p.MemberID, &p.Status, &p.InvitedAt, &p.RespondedAt); err != nil {
			return nil, err
		}
		participants = append(participants, p)
	}
	return participants, rows.Err()
}

// FindParticipantsByExpenseID retrieves all participant rows for an expense.
func (r *PgxParticipantRepository) FindParticipantsByExpenseID(ctx context.Context, expenseID string) ([]domain.Participant, error) {
	query := `SELECT ` + participantColumns + ` FROM participants WHERE expense_id = $1 ORDER BY member_id;`

	rows, err := r.Pool.Query(ctx, query, expenseID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query participants for expense "+expenseID, err)
	}
	ms, err := scanParticipants(rows)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to scan participant rows for expense "+expenseID, err)
	}
	return mapping.ToDomainParticipantSlice(ms), nil
}

// FindParticipantsByExpenseIDTx retrieves participant rows within the given transaction.
func (r *PgxParticipantRepository) FindParticipantsByExpenseIDTx(ctx context.Context, tx pgx.Tx, expenseID string) ([]domain.Participant, error) {
	query := `SELECT ` + participantColumns + ` FROM participants WHERE expense_id = $1 ORDER BY member_id;`

	rows, err := tx.Query(ctx, query, expenseID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query participants for expense "+expenseID, err)
	}
	ms, err := scanParticipants(rows)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to scan participant rows for expense "+expenseID, err)
	}
	return mapping.ToDomainParticipantSlice(ms), nil
}

// ListPendingInvitesForMember retrieves the member's pending invites on
// expenses that have not yet been finalized.
func (r *PgxParticipantRepository) ListPendingInvitesForMember(ctx context.Context, memberID string) ([]domain.Participant, error) {
	query := `
		SELECT p.expense_id, p.member_id, p.status, p.invited_at, p.responded_at
		FROM participants p
		JOIN expenses e ON p.expense_id = e.expense_id
		WHERE p.member_id = $1 AND p.status = 'PENDING' AND e.finalized_at IS NULL
		ORDER BY p.invited_at;
	`
	rows, err := r.Pool.Query(ctx, query, memberID)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to query pending invites for member "+memberID, err)
	}
	ms, err := scanParticipants(rows)
	if err != nil {
		return nil, apperrors.NewAppError(500, "failed to scan pending invite rows for member "+memberID, err)
	}
	return mapping.ToDomainParticipantSlice(ms), nil
}

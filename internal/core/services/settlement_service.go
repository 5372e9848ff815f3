package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/wesplit/wesplit_app/internal/apperrors"
	"github.com/wesplit/wesplit_app/internal/core/domain"
	portsrepo "github.com/wesplit/wesplit_app/internal/core/ports/repositories"
	portssvc "github.com/wesplit/wesplit_app/internal/core/ports/services"
	"github.com/wesplit/wesplit_app/internal/dto"
	"github.com/wesplit/wesplit_app/internal/middleware"
	"github.com/wesplit/wesplit_app/internal/utils/splitmath"
)

var (
	// ErrExpenseNotReady is returned when settlement is invoked with votes
	// still pending and force was not set.
	ErrExpenseNotReady = errors.New("expense still has pending votes")
	// ErrNoAcceptedParticipants is the business failure of a SPLIT settlement
	// with zero acceptances. The expense stays open for manual resolution.
	ErrNoAcceptedParticipants = errors.New("no participant accepted the expense")
	// ErrPayeeRequired is returned when a TRANSFER expense lacks a payee.
	ErrPayeeRequired = errors.New("transfer expense requires a payee")
	// ErrDeadlineNotFuture is returned when an expense is created with an
	// acceptance deadline that already passed.
	ErrDeadlineNotFuture = errors.New("acceptance deadline must be in the future")
	// ErrAmountNegative is returned for negative expense amounts.
	ErrAmountNegative = errors.New("expense amount must not be negative")
)

// settlementService implements expense creation, the vote endpoint and the
// at-most-once settlement transaction.
type settlementService struct {
	expenseRepo     portsrepo.ExpenseRepositoryWithTx
	participantRepo portsrepo.ParticipantRepositoryFacade
	balanceRepo     portsrepo.BalanceRepositoryFacade
	events          portssvc.EventPublisherSvc
	scheduler       portssvc.SchedulerSvcFacade
	now             func() time.Time
}

// SettlementOption configures optional settlement service dependencies.
type SettlementOption func(*settlementService)

// WithClock overrides the time source, mainly for tests.
func WithClock(now func() time.Time) SettlementOption {
	return func(s *settlementService) { s.now = now }
}

// NewSettlementService creates a new SettlementService.
func NewSettlementService(
	expenseRepo portsrepo.ExpenseRepositoryWithTx,
	participantRepo portsrepo.ParticipantRepositoryFacade,
	balanceRepo portsrepo.BalanceRepositoryFacade,
	events portssvc.EventPublisherSvc,
	opts ...SettlementOption,
) *SettlementService {
	s := &settlementService{
		expenseRepo:     expenseRepo,
		participantRepo: participantRepo,
		balanceRepo:     balanceRepo,
		events:          events,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return &SettlementService{s}
}

// SettlementService is the exported wrapper around settlementService.
type SettlementService struct {
	*settlementService
}

// AttachScheduler wires the finalization scheduler in after construction.
// The scheduler itself depends on this service's Settle, so the container
// closes the cycle with this setter.
func (s *SettlementService) AttachScheduler(scheduler portssvc.SchedulerSvcFacade) {
	s.scheduler = scheduler
}

// Ensure the service implements the facade
var _ portssvc.SettlementSvcFacade = (*SettlementService)(nil)

// CreateExpense validates and persists a new expense with its invited
// participants, arms its finalization timer and notifies invitees.
func (s *settlementService) CreateExpense(ctx context.Context, req dto.CreateExpenseRequest, creatorMemberID string) (*domain.Expense, error) {
	logger := middleware.GetLoggerFromCtx(ctx)
	now := s.now().UTC()

	kind := domain.ExpenseKind(req.Kind)
	if kind != domain.Split && kind != domain.Transfer {
		return nil, apperrors.ErrValidation
	}
	if req.Amount.IsNegative() {
		return nil, ErrAmountNegative
	}
	if !req.AcceptanceDeadline.After(now) {
		return nil, ErrDeadlineNotFuture
	}
	if kind == domain.Transfer && (req.PayeeID == nil || *req.PayeeID == "") {
		return nil, ErrPayeeRequired
	}

	expense := domain.Expense{
		ExpenseID:          uuid.NewString(),
		GroupID:            req.GroupID,
		PayerID:            creatorMemberID,
		PayeeID:            req.PayeeID,
		Kind:               kind,
		Amount:             req.Amount,
		Description:        req.Description,
		AcceptanceDeadline: req.AcceptanceDeadline.UTC(),
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     creatorMemberID,
			LastUpdatedAt: now,
			LastUpdatedBy: creatorMemberID,
		},
	}

	seen := make(map[string]struct{}, len(req.ParticipantIDs))
	participants := make([]domain.Participant, 0, len(req.ParticipantIDs))
	for _, memberID := range req.ParticipantIDs {
		if memberID == "" {
			return nil, apperrors.ErrValidation
		}
		if _, dup := seen[memberID]; dup {
			continue
		}
		seen[memberID] = struct{}{}
		participants = append(participants, domain.Participant{
			ExpenseID: expense.ExpenseID,
			MemberID:  memberID,
			Status:    domain.ParticipantPending,
			InvitedAt: now,
		})
	}
	if len(participants) == 0 {
		return nil, apperrors.ErrValidation
	}

	if err := s.expenseRepo.SaveExpense(ctx, expense, participants); err != nil {
		logger.Error("Failed to save expense", slog.String("expense_id", expense.ExpenseID), slog.String("error", err.Error()))
		return nil, err
	}

	if s.scheduler != nil {
		s.scheduler.Schedule(expense.ExpenseID, expense.AcceptanceDeadline)
	}

	for _, p := range participants {
		if p.MemberID == expense.PayerID {
			continue
		}
		s.events.Publish(p.MemberID, domain.UserEvent{
			Kind:       domain.EventPendingInvite,
			ExpenseID:  expense.ExpenseID,
			GroupID:    expense.GroupID,
			Amount:     expense.Amount,
			OccurredAt: now,
		})
	}
	if kind == domain.Transfer && *expense.PayeeID != expense.PayerID {
		s.events.Publish(*expense.PayeeID, domain.UserEvent{
			Kind:       domain.EventTransferNotice,
			ExpenseID:  expense.ExpenseID,
			GroupID:    expense.GroupID,
			Amount:     expense.Amount,
			OccurredAt: now,
		})
	}

	logger.Info("Expense created",
		slog.String("expense_id", expense.ExpenseID),
		slog.String("kind", string(kind)),
		slog.Int("participants", len(participants)),
	)
	return &expense, nil
}

// GetExpense retrieves an expense together with its participant rows.
func (s *settlementService) GetExpense(ctx context.Context, expenseID string) (*domain.Expense, []domain.Participant, error) {
	expense, err := s.expenseRepo.FindExpenseByID(ctx, expenseID)
	if err != nil {
		return nil, nil, err
	}
	participants, err := s.participantRepo.FindParticipantsByExpenseID(ctx, expenseID)
	if err != nil {
		return nil, nil, err
	}
	return expense, participants, nil
}

// ListPendingInvites retrieves the member's pending invites on open expenses.
func (s *settlementService) ListPendingInvites(ctx context.Context, memberID string) ([]domain.Participant, error) {
	return s.participantRepo.ListPendingInvitesForMember(ctx, memberID)
}

// Respond records a member's vote. The whole flow runs in one transaction
// holding the expense row lock; when the vote empties the pending set the
// settlement decision is applied before the transaction commits.
func (s *settlementService) Respond(ctx context.Context, expenseID, memberID string, vote domain.ParticipantStatus) (*dto.RespondResponse, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if vote != domain.ParticipantAccepted && vote != domain.ParticipantDeclined {
		return nil, apperrors.ErrValidation
	}

	tx, err := s.expenseRepo.Begin(ctx)
	if err != nil {
		return nil, err
	}
	// Ignored once the transaction commits.
	defer s.expenseRepo.Rollback(ctx, tx)

	expense, err := s.expenseRepo.FindExpenseByIDForUpdate(ctx, tx, expenseID)
	if err != nil {
		return nil, err
	}

	if expense.IsFinalized() {
		// A concurrent trigger settled the expense first; report success.
		return &dto.RespondResponse{
			Result:    dto.RespondAlreadyFinalized,
			ExpenseID: expense.ExpenseID,
			GroupID:   expense.GroupID,
			Finalized: true,
		}, nil
	}

	now := s.now().UTC()
	recorded, err := s.participantRepo.TryRespond(ctx, tx, expenseID, memberID, vote, now)
	if err != nil {
		return nil, err
	}
	if !recorded {
		// Either the member was never invited or they already voted.
		participants, err := s.participantRepo.FindParticipantsByExpenseIDTx(ctx, tx, expenseID)
		if err != nil {
			return nil, err
		}
		for _, p := range participants {
			if p.MemberID == memberID {
				return &dto.RespondResponse{
					Result:    dto.RespondAlreadyResponded,
					ExpenseID: expense.ExpenseID,
					GroupID:   expense.GroupID,
				}, nil
			}
		}
		return nil, apperrors.ErrNotFound
	}

	result := dto.RespondRecorded
	var settledParticipants []domain.Participant

	pending, err := s.participantRepo.CountPending(ctx, tx, expenseID)
	if err != nil {
		return nil, err
	}
	if pending == 0 {
		settledParticipants, err = s.settleLocked(ctx, tx, expense, false)
		switch {
		case err == nil:
			result = dto.RespondFinalized
		case errors.Is(err, ErrNoAcceptedParticipants):
			// Keep the vote: the decline itself is valid even though the
			// expense cannot settle. The ledger was not touched.
			logger.Warn("Last vote left expense without acceptances; expense stays open",
				slog.String("expense_id", expenseID))
		default:
			return nil, err
		}
	}

	if err := s.expenseRepo.Commit(ctx, tx); err != nil {
		return nil, err
	}

	// Events only after commit; delivery failures never reach the caller.
	s.publishVoteRecorded(expense, memberID, vote, now)
	if result == dto.RespondFinalized {
		if s.scheduler != nil {
			s.scheduler.Cancel(expenseID)
		}
		s.publishFinalized(expense, settledParticipants, now)
	}

	return &dto.RespondResponse{
		Result:    result,
		ExpenseID: expense.ExpenseID,
		GroupID:   expense.GroupID,
		Finalized: result == dto.RespondFinalized,
	}, nil
}

// Settle applies the one-time financial outcome of an expense. It is invoked
// by the deadline timer and the recovery drain (force=true). Concurrent
// invocations serialize on the expense row lock; all but the first observe
// finalized_at already set and degrade to no-ops.
func (s *settlementService) Settle(ctx context.Context, expenseID string, force bool) (*portssvc.SettlementOutcome, error) {
	tx, err := s.expenseRepo.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer s.expenseRepo.Rollback(ctx, tx)

	expense, err := s.expenseRepo.FindExpenseByIDForUpdate(ctx, tx, expenseID)
	if err != nil {
		return nil, err
	}

	outcome := &portssvc.SettlementOutcome{ExpenseID: expense.ExpenseID, GroupID: expense.GroupID}

	if expense.IsFinalized() {
		outcome.AlreadyFinalized = true
		return outcome, nil
	}

	participants, err := s.settleLocked(ctx, tx, expense, force)
	if err != nil {
		return nil, err
	}

	if err := s.expenseRepo.Commit(ctx, tx); err != nil {
		return nil, err
	}

	outcome.Finalized = true
	s.publishFinalized(expense, participants, s.now().UTC())
	return outcome, nil
}

// settleLocked decides and applies the expense outcome. Preconditions: tx
// holds the expense row lock and finalized_at is still null. On any error the
// caller must roll back so the ledger is never partially mutated.
func (s *settlementService) settleLocked(ctx context.Context, tx pgx.Tx, expense *domain.Expense, force bool) ([]domain.Participant, error) {
	pending, err := s.participantRepo.CountPending(ctx, tx, expense.ExpenseID)
	if err != nil {
		return nil, err
	}
	if pending > 0 && !force {
		return nil, ErrExpenseNotReady
	}

	participants, err := s.participantRepo.FindParticipantsByExpenseIDTx(ctx, tx, expense.ExpenseID)
	if err != nil {
		return nil, err
	}

	switch expense.Kind {
	case domain.Split:
		accepted, err := s.participantRepo.CountAccepted(ctx, tx, expense.ExpenseID)
		if err != nil {
			return nil, err
		}
		if accepted == 0 {
			return nil, ErrNoAcceptedParticipants
		}
		// A single acceptor owes nobody; with more, each accepted non-payer
		// member owes the payer one share. Truncation residue stays with the
		// payer so the charged shares plus the payer's own portion always
		// reconstruct the amount.
		if accepted > 1 {
			shares, err := splitmath.EqualShares(expense.Amount, accepted)
			if err != nil {
				return nil, err
			}
			for _, p := range participants {
				if p.Status != domain.ParticipantAccepted || p.MemberID == expense.PayerID {
					continue
				}
				if err := s.balanceRepo.AdjustBalance(ctx, tx, expense.GroupID, p.MemberID, expense.PayerID, shares.PerMember); err != nil {
					return nil, err
				}
			}
		}
	case domain.Transfer:
		if expense.PayeeID == nil {
			return nil, ErrPayeeRequired
		}
		// The payer already settled the amount toward the payee, so the
		// payee's accumulated debt toward the payer decreases.
		if err := s.balanceRepo.AdjustBalance(ctx, tx, expense.GroupID, *expense.PayeeID, expense.PayerID, expense.Amount.Neg()); err != nil {
			return nil, err
		}
	default:
		return nil, apperrors.ErrValidation
	}

	finalizedAt := s.now().UTC()
	if err := s.expenseRepo.MarkFinalized(ctx, tx, expense.ExpenseID, finalizedAt, expense.PayerID); err != nil {
		return nil, err
	}
	expense.FinalizedAt = &finalizedAt

	return participants, nil
}

func (s *settlementService) publishVoteRecorded(expense *domain.Expense, voterID string, vote domain.ParticipantStatus, at time.Time) {
	event := domain.UserEvent{
		Kind:       domain.EventVoteRecorded,
		ExpenseID:  expense.ExpenseID,
		GroupID:    expense.GroupID,
		MemberID:   voterID,
		Vote:       string(vote),
		OccurredAt: at,
	}
	s.events.Publish(expense.PayerID, event)
	s.events.Publish(voterID, event)
}

func (s *settlementService) publishFinalized(expense *domain.Expense, participants []domain.Participant, at time.Time) {
	event := domain.UserEvent{
		Kind:       domain.EventFinalized,
		ExpenseID:  expense.ExpenseID,
		GroupID:    expense.GroupID,
		Amount:     expense.Amount,
		OccurredAt: at,
	}
	for _, p := range participants {
		if p.MemberID == expense.PayerID || p.Status == domain.ParticipantRemoved {
			continue
		}
		s.events.Publish(p.MemberID, event)
	}
	s.events.Publish(expense.PayerID, event)
}

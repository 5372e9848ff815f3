package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/wesplit/wesplit_app/internal/apperrors"
	"github.com/wesplit/wesplit_app/internal/core/domain"
	"github.com/wesplit/wesplit_app/internal/core/services"
	"github.com/wesplit/wesplit_app/internal/dto"
)

// MockExpenseRepository is a mock type for the ExpenseRepositoryWithTx interface
type MockExpenseRepository struct {
	mock.Mock
}

func (m *MockExpenseRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(pgx.Tx), args.Error(1)
}

func (m *MockExpenseRepository) Commit(ctx context.Context, tx pgx.Tx) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockExpenseRepository) Rollback(ctx context.Context, tx pgx.Tx) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockExpenseRepository) SaveExpense(ctx context.Context, expense domain.Expense, participants []domain.Participant) error {
	args := m.Called(ctx, expense, participants)
	return args.Error(0)
}

func (m *MockExpenseRepository) FindExpenseByID(ctx context.Context, expenseID string) (*domain.Expense, error) {
	args := m.Called(ctx, expenseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Expense), args.Error(1)
}

func (m *MockExpenseRepository) FindExpenseByIDForUpdate(ctx context.Context, tx pgx.Tx, expenseID string) (*domain.Expense, error) {
	args := m.Called(ctx, tx, expenseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Expense), args.Error(1)
}

func (m *MockExpenseRepository) MarkFinalized(ctx context.Context, tx pgx.Tx, expenseID string, finalizedAt time.Time, updatedBy string) error {
	args := m.Called(ctx, tx, expenseID, finalizedAt, updatedBy)
	return args.Error(0)
}

func (m *MockExpenseRepository) ListUnfinalizedExpenses(ctx context.Context) ([]domain.Expense, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Expense), args.Error(1)
}

// MockParticipantRepository is a mock type for the ParticipantRepositoryFacade interface
type MockParticipantRepository struct {
	mock.Mock
}

func (m *MockParticipantRepository) TryRespond(ctx context.Context, tx pgx.Tx, expenseID, memberID string, status domain.ParticipantStatus, respondedAt time.Time) (bool, error) {
	args := m.Called(ctx, tx, expenseID, memberID, status, respondedAt)
	return args.Bool(0), args.Error(1)
}

func (m *MockParticipantRepository) CountPending(ctx context.Context, tx pgx.Tx, expenseID string) (int, error) {
	args := m.Called(ctx, tx, expenseID)
	return args.Int(0), args.Error(1)
}

func (m *MockParticipantRepository) CountAccepted(ctx context.Context, tx pgx.Tx, expenseID string) (int, error) {
	args := m.Called(ctx, tx, expenseID)
	return args.Int(0), args.Error(1)
}

func (m *MockParticipantRepository) FindParticipantsByExpenseID(ctx context.Context, expenseID string) ([]domain.Participant, error) {
	args := m.Called(ctx, expenseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Participant), args.Error(1)
}

func (m *MockParticipantRepository) FindParticipantsByExpenseIDTx(ctx context.Context, tx pgx.Tx, expenseID string) ([]domain.Participant, error) {
	args := m.Called(ctx, tx, expenseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Participant), args.Error(1)
}

func (m *MockParticipantRepository) ListPendingInvitesForMember(ctx context.Context, memberID string) ([]domain.Participant, error) {
	args := m.Called(ctx, memberID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Participant), args.Error(1)
}

// MockBalanceRepository is a mock type for the BalanceRepositoryFacade interface
type MockBalanceRepository struct {
	mock.Mock
}

func (m *MockBalanceRepository) AdjustBalance(ctx context.Context, tx pgx.Tx, groupID, debtorID, creditorID string, delta decimal.Decimal) error {
	args := m.Called(ctx, tx, groupID, debtorID, creditorID, delta)
	return args.Error(0)
}

func (m *MockBalanceRepository) ListBalancesByGroupID(ctx context.Context, groupID string) ([]domain.BalanceEdge, error) {
	args := m.Called(ctx, groupID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.BalanceEdge), args.Error(1)
}

// MockEventPublisher is a mock type for the EventPublisherSvc interface
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(userID string, event domain.UserEvent) {
	m.Called(userID, event)
}

// MockScheduler is a mock type for the SchedulerSvcFacade interface
type MockScheduler struct {
	mock.Mock
}

func (m *MockScheduler) Schedule(expenseID string, deadline time.Time) {
	m.Called(expenseID, deadline)
}

func (m *MockScheduler) Cancel(expenseID string) {
	m.Called(expenseID)
}

func (m *MockScheduler) Recover(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockScheduler) Shutdown() {
	m.Called()
}

// --- Test Suite Setup ---

type SettlementServiceTestSuite struct {
	suite.Suite
	mockExpenseRepo     *MockExpenseRepository
	mockParticipantRepo *MockParticipantRepository
	mockBalanceRepo     *MockBalanceRepository
	mockEvents          *MockEventPublisher
	mockScheduler       *MockScheduler
	service             *services.SettlementService
	now                 time.Time
}

func (suite *SettlementServiceTestSuite) SetupTest() {
	suite.mockExpenseRepo = new(MockExpenseRepository)
	suite.mockParticipantRepo = new(MockParticipantRepository)
	suite.mockBalanceRepo = new(MockBalanceRepository)
	suite.mockEvents = new(MockEventPublisher)
	suite.mockScheduler = new(MockScheduler)
	suite.now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	suite.service = services.NewSettlementService(
		suite.mockExpenseRepo,
		suite.mockParticipantRepo,
		suite.mockBalanceRepo,
		suite.mockEvents,
		services.WithClock(func() time.Time { return suite.now }),
	)
	suite.service.AttachScheduler(suite.mockScheduler)
}

// expectTransaction arms the Begin/Commit/Rollback expectations shared by most
// respond and settle tests. Rollback always runs once via defer; after a
// successful commit it is a no-op.
func (suite *SettlementServiceTestSuite) expectTransaction(commits bool) {
	suite.mockExpenseRepo.On("Begin", mock.Anything).Return(nil, nil).Once()
	suite.mockExpenseRepo.On("Rollback", mock.Anything, mock.Anything).Return(nil)
	if commits {
		suite.mockExpenseRepo.On("Commit", mock.Anything, mock.Anything).Return(nil).Once()
	}
}

func decimalEq(expected string) interface{} {
	want := decimal.RequireFromString(expected)
	return mock.MatchedBy(func(d decimal.Decimal) bool { return d.Equal(want) })
}

func openSplitExpense(payerID string) *domain.Expense {
	return &domain.Expense{
		ExpenseID:          uuid.NewString(),
		GroupID:            uuid.NewString(),
		PayerID:            payerID,
		Kind:               domain.Split,
		Amount:             decimal.RequireFromString("30.00"),
		Description:        "Dinner",
		AcceptanceDeadline: time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC),
	}
}

// --- CreateExpense ---

func (suite *SettlementServiceTestSuite) TestCreateExpense_Success() {
	ctx := context.Background()
	payerID := uuid.NewString()
	memberA := uuid.NewString()
	memberB := uuid.NewString()
	req := dto.CreateExpenseRequest{
		GroupID:            uuid.NewString(),
		Kind:               "SPLIT",
		Amount:             decimal.RequireFromString("30.00"),
		Description:        "Dinner",
		AcceptanceDeadline: suite.now.Add(24 * time.Hour),
		// memberA appears twice; the duplicate must collapse to one invite.
		ParticipantIDs: []string{memberA, memberB, memberA},
	}

	suite.mockExpenseRepo.On("SaveExpense", ctx, mock.AnythingOfType("domain.Expense"), mock.AnythingOfType("[]domain.Participant")).Return(nil).Once()
	suite.mockScheduler.On("Schedule", mock.AnythingOfType("string"), req.AcceptanceDeadline.UTC()).Return().Once()
	suite.mockEvents.On("Publish", memberA, mock.AnythingOfType("domain.UserEvent")).Return().Once()
	suite.mockEvents.On("Publish", memberB, mock.AnythingOfType("domain.UserEvent")).Return().Once()

	expense, err := suite.service.CreateExpense(ctx, req, payerID)

	suite.Require().NoError(err)
	suite.Require().NotNil(expense)
	suite.NotEmpty(expense.ExpenseID)
	suite.Equal(payerID, expense.PayerID)
	suite.Equal(domain.Split, expense.Kind)
	suite.Nil(expense.FinalizedAt)
	suite.Equal(payerID, expense.CreatedBy)
	suite.Equal(suite.now, expense.CreatedAt)

	savedParticipants := suite.mockExpenseRepo.Calls[0].Arguments.Get(2).([]domain.Participant)
	suite.Require().Len(savedParticipants, 2)
	for _, p := range savedParticipants {
		suite.Equal(domain.ParticipantPending, p.Status)
		suite.Equal(expense.ExpenseID, p.ExpenseID)
	}

	suite.mockExpenseRepo.AssertExpectations(suite.T())
	suite.mockScheduler.AssertExpectations(suite.T())
	suite.mockEvents.AssertExpectations(suite.T())
}

func (suite *SettlementServiceTestSuite) TestCreateExpense_DeadlineInPast() {
	ctx := context.Background()
	req := dto.CreateExpenseRequest{
		GroupID:            uuid.NewString(),
		Kind:               "SPLIT",
		Amount:             decimal.RequireFromString("10.00"),
		AcceptanceDeadline: suite.now.Add(-time.Minute),
		ParticipantIDs:     []string{uuid.NewString()},
	}

	expense, err := suite.service.CreateExpense(ctx, req, uuid.NewString())

	suite.Require().Error(err)
	suite.Nil(expense)
	suite.ErrorIs(err, services.ErrDeadlineNotFuture)
	suite.mockExpenseRepo.AssertNotCalled(suite.T(), "SaveExpense", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *SettlementServiceTestSuite) TestCreateExpense_NegativeAmount() {
	ctx := context.Background()
	req := dto.CreateExpenseRequest{
		GroupID:            uuid.NewString(),
		Kind:               "SPLIT",
		Amount:             decimal.RequireFromString("-1.00"),
		AcceptanceDeadline: suite.now.Add(time.Hour),
		ParticipantIDs:     []string{uuid.NewString()},
	}

	expense, err := suite.service.CreateExpense(ctx, req, uuid.NewString())

	suite.Require().Error(err)
	suite.Nil(expense)
	suite.ErrorIs(err, services.ErrAmountNegative)
}

func (suite *SettlementServiceTestSuite) TestCreateExpense_TransferRequiresPayee() {
	ctx := context.Background()
	req := dto.CreateExpenseRequest{
		GroupID:            uuid.NewString(),
		Kind:               "TRANSFER",
		Amount:             decimal.RequireFromString("25.00"),
		AcceptanceDeadline: suite.now.Add(time.Hour),
		ParticipantIDs:     []string{uuid.NewString()},
	}

	expense, err := suite.service.CreateExpense(ctx, req, uuid.NewString())

	suite.Require().Error(err)
	suite.Nil(expense)
	suite.ErrorIs(err, services.ErrPayeeRequired)
}

// --- Respond ---

func (suite *SettlementServiceTestSuite) TestRespond_VoteRecordedExpenseStaysOpen() {
	ctx := context.Background()
	payerID := uuid.NewString()
	voterID := uuid.NewString()
	expense := openSplitExpense(payerID)

	suite.expectTransaction(true)
	suite.mockExpenseRepo.On("FindExpenseByIDForUpdate", ctx, mock.Anything, expense.ExpenseID).Return(expense, nil).Once()
	suite.mockParticipantRepo.On("TryRespond", ctx, mock.Anything, expense.ExpenseID, voterID, domain.ParticipantAccepted, suite.now).Return(true, nil).Once()
	suite.mockParticipantRepo.On("CountPending", ctx, mock.Anything, expense.ExpenseID).Return(1, nil).Once()
	suite.mockEvents.On("Publish", payerID, mock.AnythingOfType("domain.UserEvent")).Return().Once()
	suite.mockEvents.On("Publish", voterID, mock.AnythingOfType("domain.UserEvent")).Return().Once()

	resp, err := suite.service.Respond(ctx, expense.ExpenseID, voterID, domain.ParticipantAccepted)

	suite.Require().NoError(err)
	suite.Require().NotNil(resp)
	suite.Equal(dto.RespondRecorded, resp.Result)
	suite.False(resp.Finalized)

	suite.mockScheduler.AssertNotCalled(suite.T(), "Cancel", mock.Anything)
	suite.mockExpenseRepo.AssertExpectations(suite.T())
	suite.mockParticipantRepo.AssertExpectations(suite.T())
	suite.mockEvents.AssertExpectations(suite.T())
}

func (suite *SettlementServiceTestSuite) TestRespond_LastVoteSettlesSplit() {
	ctx := context.Background()
	payerID := uuid.NewString()
	memberA := uuid.NewString()
	memberB := uuid.NewString()
	expense := openSplitExpense(payerID)
	participants := []domain.Participant{
		{ExpenseID: expense.ExpenseID, MemberID: memberA, Status: domain.ParticipantAccepted},
		{ExpenseID: expense.ExpenseID, MemberID: memberB, Status: domain.ParticipantAccepted},
	}

	suite.expectTransaction(true)
	suite.mockExpenseRepo.On("FindExpenseByIDForUpdate", ctx, mock.Anything, expense.ExpenseID).Return(expense, nil).Once()
	suite.mockParticipantRepo.On("TryRespond", ctx, mock.Anything, expense.ExpenseID, memberB, domain.ParticipantAccepted, suite.now).Return(true, nil).Once()
	suite.mockParticipantRepo.On("CountPending", ctx, mock.Anything, expense.ExpenseID).Return(0, nil).Twice()
	suite.mockParticipantRepo.On("FindParticipantsByExpenseIDTx", ctx, mock.Anything, expense.ExpenseID).Return(participants, nil).Once()
	suite.mockParticipantRepo.On("CountAccepted", ctx, mock.Anything, expense.ExpenseID).Return(2, nil).Once()
	// 30.00 split between two acceptors: each owes the payer 15.00.
	suite.mockBalanceRepo.On("AdjustBalance", ctx, mock.Anything, expense.GroupID, memberA, payerID, decimalEq("15.00")).Return(nil).Once()
	suite.mockBalanceRepo.On("AdjustBalance", ctx, mock.Anything, expense.GroupID, memberB, payerID, decimalEq("15.00")).Return(nil).Once()
	suite.mockExpenseRepo.On("MarkFinalized", ctx, mock.Anything, expense.ExpenseID, suite.now, payerID).Return(nil).Once()
	suite.mockScheduler.On("Cancel", expense.ExpenseID).Return().Once()
	suite.mockEvents.On("Publish", mock.AnythingOfType("string"), mock.AnythingOfType("domain.UserEvent")).Return()

	resp, err := suite.service.Respond(ctx, expense.ExpenseID, memberB, domain.ParticipantAccepted)

	suite.Require().NoError(err)
	suite.Require().NotNil(resp)
	suite.Equal(dto.RespondFinalized, resp.Result)
	suite.True(resp.Finalized)

	suite.mockExpenseRepo.AssertExpectations(suite.T())
	suite.mockParticipantRepo.AssertExpectations(suite.T())
	suite.mockBalanceRepo.AssertExpectations(suite.T())
	suite.mockScheduler.AssertExpectations(suite.T())
}

func (suite *SettlementServiceTestSuite) TestRespond_AlreadyFinalizedIsNoOp() {
	ctx := context.Background()
	payerID := uuid.NewString()
	voterID := uuid.NewString()
	expense := openSplitExpense(payerID)
	finalizedAt := suite.now.Add(-time.Hour)
	expense.FinalizedAt = &finalizedAt

	suite.expectTransaction(false)
	suite.mockExpenseRepo.On("FindExpenseByIDForUpdate", ctx, mock.Anything, expense.ExpenseID).Return(expense, nil).Once()

	resp, err := suite.service.Respond(ctx, expense.ExpenseID, voterID, domain.ParticipantDeclined)

	suite.Require().NoError(err)
	suite.Require().NotNil(resp)
	suite.Equal(dto.RespondAlreadyFinalized, resp.Result)
	suite.True(resp.Finalized)

	suite.mockParticipantRepo.AssertNotCalled(suite.T(), "TryRespond", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	suite.mockExpenseRepo.AssertNotCalled(suite.T(), "Commit", mock.Anything, mock.Anything)
	suite.mockEvents.AssertNotCalled(suite.T(), "Publish", mock.Anything, mock.Anything)
}

func (suite *SettlementServiceTestSuite) TestRespond_SecondVoteReportsAlreadyResponded() {
	ctx := context.Background()
	payerID := uuid.NewString()
	voterID := uuid.NewString()
	expense := openSplitExpense(payerID)
	respondedAt := suite.now.Add(-time.Minute)
	participants := []domain.Participant{
		{ExpenseID: expense.ExpenseID, MemberID: voterID, Status: domain.ParticipantAccepted, RespondedAt: &respondedAt},
	}

	suite.expectTransaction(false)
	suite.mockExpenseRepo.On("FindExpenseByIDForUpdate", ctx, mock.Anything, expense.ExpenseID).Return(expense, nil).Once()
	suite.mockParticipantRepo.On("TryRespond", ctx, mock.Anything, expense.ExpenseID, voterID, domain.ParticipantDeclined, suite.now).Return(false, nil).Once()
	suite.mockParticipantRepo.On("FindParticipantsByExpenseIDTx", ctx, mock.Anything, expense.ExpenseID).Return(participants, nil).Once()

	resp, err := suite.service.Respond(ctx, expense.ExpenseID, voterID, domain.ParticipantDeclined)

	suite.Require().NoError(err)
	suite.Require().NotNil(resp)
	suite.Equal(dto.RespondAlreadyResponded, resp.Result)
	suite.False(resp.Finalized)
}

func (suite *SettlementServiceTestSuite) TestRespond_UninvitedMemberNotFound() {
	ctx := context.Background()
	expense := openSplitExpense(uuid.NewString())
	strangerID := uuid.NewString()

	suite.expectTransaction(false)
	suite.mockExpenseRepo.On("FindExpenseByIDForUpdate", ctx, mock.Anything, expense.ExpenseID).Return(expense, nil).Once()
	suite.mockParticipantRepo.On("TryRespond", ctx, mock.Anything, expense.ExpenseID, strangerID, domain.ParticipantAccepted, suite.now).Return(false, nil).Once()
	suite.mockParticipantRepo.On("FindParticipantsByExpenseIDTx", ctx, mock.Anything, expense.ExpenseID).Return([]domain.Participant{}, nil).Once()

	resp, err := suite.service.Respond(ctx, expense.ExpenseID, strangerID, domain.ParticipantAccepted)

	suite.Require().Error(err)
	suite.Nil(resp)
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func (suite *SettlementServiceTestSuite) TestRespond_LastVoteAllDeclinedKeepsExpenseOpen() {
	ctx := context.Background()
	payerID := uuid.NewString()
	voterID := uuid.NewString()
	expense := openSplitExpense(payerID)
	participants := []domain.Participant{
		{ExpenseID: expense.ExpenseID, MemberID: voterID, Status: domain.ParticipantDeclined},
	}

	suite.expectTransaction(true)
	suite.mockExpenseRepo.On("FindExpenseByIDForUpdate", ctx, mock.Anything, expense.ExpenseID).Return(expense, nil).Once()
	suite.mockParticipantRepo.On("TryRespond", ctx, mock.Anything, expense.ExpenseID, voterID, domain.ParticipantDeclined, suite.now).Return(true, nil).Once()
	suite.mockParticipantRepo.On("CountPending", ctx, mock.Anything, expense.ExpenseID).Return(0, nil).Twice()
	suite.mockParticipantRepo.On("FindParticipantsByExpenseIDTx", ctx, mock.Anything, expense.ExpenseID).Return(participants, nil).Once()
	suite.mockParticipantRepo.On("CountAccepted", ctx, mock.Anything, expense.ExpenseID).Return(0, nil).Once()
	suite.mockEvents.On("Publish", mock.AnythingOfType("string"), mock.AnythingOfType("domain.UserEvent")).Return()

	resp, err := suite.service.Respond(ctx, expense.ExpenseID, voterID, domain.ParticipantDeclined)

	// The decline commits even though the expense cannot settle.
	suite.Require().NoError(err)
	suite.Require().NotNil(resp)
	suite.Equal(dto.RespondRecorded, resp.Result)
	suite.False(resp.Finalized)

	suite.mockBalanceRepo.AssertNotCalled(suite.T(), "AdjustBalance", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	suite.mockExpenseRepo.AssertNotCalled(suite.T(), "MarkFinalized", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	suite.mockScheduler.AssertNotCalled(suite.T(), "Cancel", mock.Anything)
	suite.mockExpenseRepo.AssertExpectations(suite.T())
}

// --- Settle ---

func (suite *SettlementServiceTestSuite) TestSettle_AlreadyFinalizedIsIdempotent() {
	ctx := context.Background()
	expense := openSplitExpense(uuid.NewString())
	finalizedAt := suite.now.Add(-time.Hour)
	expense.FinalizedAt = &finalizedAt

	suite.expectTransaction(false)
	suite.mockExpenseRepo.On("FindExpenseByIDForUpdate", ctx, mock.Anything, expense.ExpenseID).Return(expense, nil).Once()

	outcome, err := suite.service.Settle(ctx, expense.ExpenseID, true)

	suite.Require().NoError(err)
	suite.Require().NotNil(outcome)
	suite.True(outcome.AlreadyFinalized)
	suite.False(outcome.Finalized)

	suite.mockBalanceRepo.AssertNotCalled(suite.T(), "AdjustBalance", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	suite.mockExpenseRepo.AssertNotCalled(suite.T(), "MarkFinalized", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	suite.mockEvents.AssertNotCalled(suite.T(), "Publish", mock.Anything, mock.Anything)
}

func (suite *SettlementServiceTestSuite) TestSettle_PendingVotesWithoutForce() {
	ctx := context.Background()
	expense := openSplitExpense(uuid.NewString())

	suite.expectTransaction(false)
	suite.mockExpenseRepo.On("FindExpenseByIDForUpdate", ctx, mock.Anything, expense.ExpenseID).Return(expense, nil).Once()
	suite.mockParticipantRepo.On("CountPending", ctx, mock.Anything, expense.ExpenseID).Return(2, nil).Once()

	outcome, err := suite.service.Settle(ctx, expense.ExpenseID, false)

	suite.Require().Error(err)
	suite.Nil(outcome)
	suite.ErrorIs(err, services.ErrExpenseNotReady)
	suite.mockExpenseRepo.AssertNotCalled(suite.T(), "Commit", mock.Anything, mock.Anything)
}

func (suite *SettlementServiceTestSuite) TestSettle_SplitWithUnevenShares() {
	ctx := context.Background()
	payerID := uuid.NewString()
	memberA := uuid.NewString()
	memberB := uuid.NewString()
	expense := openSplitExpense(payerID)
	expense.Amount = decimal.RequireFromString("10.00")
	participants := []domain.Participant{
		{ExpenseID: expense.ExpenseID, MemberID: memberA, Status: domain.ParticipantAccepted},
		{ExpenseID: expense.ExpenseID, MemberID: memberB, Status: domain.ParticipantAccepted},
		{ExpenseID: expense.ExpenseID, MemberID: payerID, Status: domain.ParticipantAccepted},
	}

	suite.expectTransaction(true)
	suite.mockExpenseRepo.On("FindExpenseByIDForUpdate", ctx, mock.Anything, expense.ExpenseID).Return(expense, nil).Once()
	suite.mockParticipantRepo.On("CountPending", ctx, mock.Anything, expense.ExpenseID).Return(0, nil).Once()
	suite.mockParticipantRepo.On("FindParticipantsByExpenseIDTx", ctx, mock.Anything, expense.ExpenseID).Return(participants, nil).Once()
	suite.mockParticipantRepo.On("CountAccepted", ctx, mock.Anything, expense.ExpenseID).Return(3, nil).Once()
	// 10.00 / 3 truncates to 3.33 per member; the 0.01 residue stays with the
	// payer, who gets no edge of their own.
	suite.mockBalanceRepo.On("AdjustBalance", ctx, mock.Anything, expense.GroupID, memberA, payerID, decimalEq("3.33")).Return(nil).Once()
	suite.mockBalanceRepo.On("AdjustBalance", ctx, mock.Anything, expense.GroupID, memberB, payerID, decimalEq("3.33")).Return(nil).Once()
	suite.mockExpenseRepo.On("MarkFinalized", ctx, mock.Anything, expense.ExpenseID, suite.now, payerID).Return(nil).Once()
	suite.mockEvents.On("Publish", mock.AnythingOfType("string"), mock.AnythingOfType("domain.UserEvent")).Return()

	outcome, err := suite.service.Settle(ctx, expense.ExpenseID, true)

	suite.Require().NoError(err)
	suite.Require().NotNil(outcome)
	suite.True(outcome.Finalized)
	suite.False(outcome.AlreadyFinalized)

	suite.mockBalanceRepo.AssertExpectations(suite.T())
	suite.mockExpenseRepo.AssertExpectations(suite.T())
}

func (suite *SettlementServiceTestSuite) TestSettle_ForcedWithZeroAcceptancesLeavesExpenseOpen() {
	ctx := context.Background()
	payerID := uuid.NewString()
	expense := openSplitExpense(payerID)
	// Nobody responded before the deadline; the timer fires with force.
	participants := []domain.Participant{
		{ExpenseID: expense.ExpenseID, MemberID: uuid.NewString(), Status: domain.ParticipantPending},
		{ExpenseID: expense.ExpenseID, MemberID: uuid.NewString(), Status: domain.ParticipantPending},
		{ExpenseID: expense.ExpenseID, MemberID: uuid.NewString(), Status: domain.ParticipantPending},
	}

	suite.expectTransaction(false)
	suite.mockExpenseRepo.On("FindExpenseByIDForUpdate", ctx, mock.Anything, expense.ExpenseID).Return(expense, nil).Once()
	suite.mockParticipantRepo.On("CountPending", ctx, mock.Anything, expense.ExpenseID).Return(3, nil).Once()
	suite.mockParticipantRepo.On("FindParticipantsByExpenseIDTx", ctx, mock.Anything, expense.ExpenseID).Return(participants, nil).Once()
	suite.mockParticipantRepo.On("CountAccepted", ctx, mock.Anything, expense.ExpenseID).Return(0, nil).Once()

	outcome, err := suite.service.Settle(ctx, expense.ExpenseID, true)

	suite.Require().Error(err)
	suite.Nil(outcome)
	suite.ErrorIs(err, services.ErrNoAcceptedParticipants)
	suite.Nil(expense.FinalizedAt)

	suite.mockExpenseRepo.AssertNotCalled(suite.T(), "Commit", mock.Anything, mock.Anything)
	suite.mockExpenseRepo.AssertNotCalled(suite.T(), "MarkFinalized", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	suite.mockBalanceRepo.AssertNotCalled(suite.T(), "AdjustBalance", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	suite.mockEvents.AssertNotCalled(suite.T(), "Publish", mock.Anything, mock.Anything)
}

func (suite *SettlementServiceTestSuite) TestSettle_SingleAcceptorWritesNoEdges() {
	ctx := context.Background()
	payerID := uuid.NewString()
	memberA := uuid.NewString()
	expense := openSplitExpense(payerID)
	participants := []domain.Participant{
		{ExpenseID: expense.ExpenseID, MemberID: memberA, Status: domain.ParticipantAccepted},
		{ExpenseID: expense.ExpenseID, MemberID: uuid.NewString(), Status: domain.ParticipantDeclined},
	}

	suite.expectTransaction(true)
	suite.mockExpenseRepo.On("FindExpenseByIDForUpdate", ctx, mock.Anything, expense.ExpenseID).Return(expense, nil).Once()
	suite.mockParticipantRepo.On("CountPending", ctx, mock.Anything, expense.ExpenseID).Return(0, nil).Once()
	suite.mockParticipantRepo.On("FindParticipantsByExpenseIDTx", ctx, mock.Anything, expense.ExpenseID).Return(participants, nil).Once()
	suite.mockParticipantRepo.On("CountAccepted", ctx, mock.Anything, expense.ExpenseID).Return(1, nil).Once()
	suite.mockExpenseRepo.On("MarkFinalized", ctx, mock.Anything, expense.ExpenseID, suite.now, payerID).Return(nil).Once()
	suite.mockEvents.On("Publish", mock.AnythingOfType("string"), mock.AnythingOfType("domain.UserEvent")).Return()

	outcome, err := suite.service.Settle(ctx, expense.ExpenseID, true)

	suite.Require().NoError(err)
	suite.True(outcome.Finalized)
	suite.mockBalanceRepo.AssertNotCalled(suite.T(), "AdjustBalance", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	suite.mockExpenseRepo.AssertExpectations(suite.T())
}

func (suite *SettlementServiceTestSuite) TestSettle_TransferReducesPayeeDebt() {
	ctx := context.Background()
	payerID := uuid.NewString()
	payeeID := uuid.NewString()
	expense := &domain.Expense{
		ExpenseID:          uuid.NewString(),
		GroupID:            uuid.NewString(),
		PayerID:            payerID,
		PayeeID:            &payeeID,
		Kind:               domain.Transfer,
		Amount:             decimal.RequireFromString("25.00"),
		AcceptanceDeadline: suite.now.Add(time.Hour),
	}
	participants := []domain.Participant{
		{ExpenseID: expense.ExpenseID, MemberID: payeeID, Status: domain.ParticipantAccepted},
	}

	suite.expectTransaction(true)
	suite.mockExpenseRepo.On("FindExpenseByIDForUpdate", ctx, mock.Anything, expense.ExpenseID).Return(expense, nil).Once()
	suite.mockParticipantRepo.On("CountPending", ctx, mock.Anything, expense.ExpenseID).Return(0, nil).Once()
	suite.mockParticipantRepo.On("FindParticipantsByExpenseIDTx", ctx, mock.Anything, expense.ExpenseID).Return(participants, nil).Once()
	// The transfer lowers what the payee is owed by the payer.
	suite.mockBalanceRepo.On("AdjustBalance", ctx, mock.Anything, expense.GroupID, payeeID, payerID, decimalEq("-25.00")).Return(nil).Once()
	suite.mockExpenseRepo.On("MarkFinalized", ctx, mock.Anything, expense.ExpenseID, suite.now, payerID).Return(nil).Once()
	suite.mockEvents.On("Publish", mock.AnythingOfType("string"), mock.AnythingOfType("domain.UserEvent")).Return()

	outcome, err := suite.service.Settle(ctx, expense.ExpenseID, true)

	suite.Require().NoError(err)
	suite.True(outcome.Finalized)
	suite.mockBalanceRepo.AssertExpectations(suite.T())
	suite.mockParticipantRepo.AssertNotCalled(suite.T(), "CountAccepted", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *SettlementServiceTestSuite) TestSettle_NotFound() {
	ctx := context.Background()
	expenseID := uuid.NewString()

	suite.expectTransaction(false)
	suite.mockExpenseRepo.On("FindExpenseByIDForUpdate", ctx, mock.Anything, expenseID).Return(nil, apperrors.ErrNotFound).Once()

	outcome, err := suite.service.Settle(ctx, expenseID, true)

	suite.Require().Error(err)
	suite.Nil(outcome)
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

// --- GetExpense ---

func (suite *SettlementServiceTestSuite) TestGetExpense_Success() {
	ctx := context.Background()
	expense := openSplitExpense(uuid.NewString())
	participants := []domain.Participant{
		{ExpenseID: expense.ExpenseID, MemberID: uuid.NewString(), Status: domain.ParticipantPending},
	}

	suite.mockExpenseRepo.On("FindExpenseByID", ctx, expense.ExpenseID).Return(expense, nil).Once()
	suite.mockParticipantRepo.On("FindParticipantsByExpenseID", ctx, expense.ExpenseID).Return(participants, nil).Once()

	got, gotParticipants, err := suite.service.GetExpense(ctx, expense.ExpenseID)

	suite.Require().NoError(err)
	suite.Equal(expense, got)
	suite.Equal(participants, gotParticipants)
}

func (suite *SettlementServiceTestSuite) TestGetExpense_NotFound() {
	ctx := context.Background()
	expenseID := uuid.NewString()

	suite.mockExpenseRepo.On("FindExpenseByID", ctx, expenseID).Return(nil, apperrors.ErrNotFound).Once()

	got, gotParticipants, err := suite.service.GetExpense(ctx, expenseID)

	suite.Require().Error(err)
	suite.Nil(got)
	suite.Nil(gotParticipants)
	suite.ErrorIs(err, apperrors.ErrNotFound)
}

func TestSettlementServiceTestSuite(t *testing.T) {
	suite.Run(t, new(SettlementServiceTestSuite))
}

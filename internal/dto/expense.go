package dto

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/wesplit/wesplit_app/internal/core/domain"
)

// CreateExpenseRequest defines the payload for recording a new expense.
// The authenticated caller becomes the payer.
type CreateExpenseRequest struct {
	GroupID            string          `json:"groupID" binding:"required"`
	Kind               string          `json:"kind" binding:"required,oneof=SPLIT TRANSFER"`
	Amount             decimal.Decimal `json:"amount" binding:"required"`
	Description        string          `json:"description"`
	PayeeID            *string         `json:"payeeID,omitempty"` // Required for TRANSFER
	AcceptanceDeadline time.Time       `json:"acceptanceDeadline" binding:"required"`
	ParticipantIDs     []string        `json:"participantIDs" binding:"required,min=1"`
}

// ParticipantResponse defines the data returned for one participant row.
type ParticipantResponse struct {
	MemberID    string     `json:"memberID"`
	Status      string     `json:"status"`
	InvitedAt   time.Time  `json:"invitedAt"`
	RespondedAt *time.Time `json:"respondedAt,omitempty"`
}

// ExpenseResponse defines the data returned for an expense.
type ExpenseResponse struct {
	ExpenseID          string                `json:"expenseID"`
	GroupID            string                `json:"groupID"`
	PayerID            string                `json:"payerID"`
	PayeeID            *string               `json:"payeeID,omitempty"`
	Kind               string                `json:"kind"`
	Amount             decimal.Decimal       `json:"amount"`
	Description        string                `json:"description"`
	AcceptanceDeadline time.Time             `json:"acceptanceDeadline"`
	FinalizedAt        *time.Time            `json:"finalizedAt,omitempty"`
	Participants       []ParticipantResponse `json:"participants,omitempty"`
}

// ToExpenseResponse converts a domain.Expense and its participants to an ExpenseResponse DTO.
func ToExpenseResponse(e *domain.Expense, participants []domain.Participant) ExpenseResponse {
	resp := ExpenseResponse{
		ExpenseID:          e.ExpenseID,
		GroupID:            e.GroupID,
		PayerID:            e.PayerID,
		PayeeID:            e.PayeeID,
		Kind:               string(e.Kind),
		Amount:             e.Amount,
		Description:        e.Description,
		AcceptanceDeadline: e.AcceptanceDeadline,
		FinalizedAt:        e.FinalizedAt,
	}
	for _, p := range participants {
		resp.Participants = append(resp.Participants, ParticipantResponse{
			MemberID:    p.MemberID,
			Status:      string(p.Status),
			InvitedAt:   p.InvitedAt,
			RespondedAt: p.RespondedAt,
		})
	}
	return resp
}

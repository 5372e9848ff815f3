package domain

import "time"

// ParticipantStatus indicates the vote state of an invited member.
// PENDING is the only non-terminal state; once a participant leaves it,
// the status never transitions again.
type ParticipantStatus string

const (
	ParticipantPending  ParticipantStatus = "PENDING"
	ParticipantAccepted ParticipantStatus = "ACCEPTED"
	ParticipantDeclined ParticipantStatus = "DECLINED"
	ParticipantRemoved  ParticipantStatus = "REMOVED"
)

// Participant represents a group member invited to vote on an expense.
// Identity is the (ExpenseID, MemberID) pair. RespondedAt is null iff the
// status is PENDING.
type Participant struct {
	ExpenseID   string            `json:"expenseID"`
	MemberID    string            `json:"memberID"`
	Status      ParticipantStatus `json:"status"`
	InvitedAt   time.Time         `json:"invitedAt"`
	RespondedAt *time.Time        `json:"respondedAt,omitempty"`
}

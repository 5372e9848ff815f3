package models

import "time"

// ParticipantStatus indicates the vote state of an invited member.
type ParticipantStatus string

const (
	ParticipantPending  ParticipantStatus = "PENDING"
	ParticipantAccepted ParticipantStatus = "ACCEPTED"
	ParticipantDeclined ParticipantStatus = "DECLINED"
	ParticipantRemoved  ParticipantStatus = "REMOVED"
)

// Participant is the storage representation of an invited member's vote row.
// Primary key is (expense_id, member_id).
type Participant struct {
	ExpenseID   string            `json:"expenseID"`
	MemberID    string            `json:"memberID"`
	Status      ParticipantStatus `json:"status"`
	InvitedAt   time.Time         `json:"invitedAt"`
	RespondedAt *time.Time        `json:"respondedAt,omitempty"` // Null iff status is PENDING
}

package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EventKind tags the UserEvent payload union. Stream serialization must
// switch exhaustively over these values.
type EventKind string

const (
	EventHeartbeat      EventKind = "HEARTBEAT"
	EventBacklogReplay  EventKind = "BACKLOG_REPLAY"
	EventPendingInvite  EventKind = "PENDING_INVITE"
	EventVoteRecorded   EventKind = "VOTE_RECORDED"
	EventTransferNotice EventKind = "TRANSFER_NOTICE"
	EventFinalized      EventKind = "FINALIZED"
)

// UserEvent is a transient lifecycle notification pushed to a single user's
// connected clients. Events are not persisted; a client that is offline when
// an event is published must catch up through the pending-invite backlog.
type UserEvent struct {
	Kind       EventKind       `json:"kind"`
	ExpenseID  string          `json:"expenseID,omitempty"`
	GroupID    string          `json:"groupID,omitempty"`
	MemberID   string          `json:"memberID,omitempty"` // Voter for VOTE_RECORDED
	Amount     decimal.Decimal `json:"amount,omitempty"`
	Vote       string          `json:"vote,omitempty"`
	OccurredAt time.Time       `json:"occurredAt"`
}

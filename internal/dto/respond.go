package dto

// RespondRequest defines the payload for a member's vote on an expense.
type RespondRequest struct {
	Vote string `json:"vote" binding:"required,oneof=ACCEPTED DECLINED"`
}

// RespondResult enumerates the possible outcomes of a vote call.
type RespondResult string

const (
	// RespondRecorded means the vote was stored and the expense is still open.
	RespondRecorded RespondResult = "RECORDED"
	// RespondFinalized means the vote was stored and it was the last pending
	// one, so the expense settled within the same transaction.
	RespondFinalized RespondResult = "FINALIZED"
	// RespondAlreadyFinalized means the expense had already settled; the vote
	// is an idempotent no-op.
	RespondAlreadyFinalized RespondResult = "ALREADY_FINALIZED"
	// RespondAlreadyResponded means this member had already voted; the new
	// vote is ignored.
	RespondAlreadyResponded RespondResult = "ALREADY_RESPONDED"
)

// RespondResponse defines the data returned from the respond endpoint.
type RespondResponse struct {
	Result    RespondResult `json:"result"`
	ExpenseID string        `json:"expenseID"`
	GroupID   string        `json:"groupID,omitempty"`
	Finalized bool          `json:"finalized"`
}

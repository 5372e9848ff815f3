package handlers

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wesplit/wesplit_app/internal/core/domain"
	portssvc "github.com/wesplit/wesplit_app/internal/core/ports/services"
	"github.com/wesplit/wesplit_app/internal/middleware"
)

type EventStreamHandler struct {
	settlementSvc     portssvc.SettlementSvcFacade
	events            portssvc.EventSubscriberSvc
	heartbeatInterval time.Duration
}

func NewEventStreamHandler(settlementSvc portssvc.SettlementSvcFacade, events portssvc.EventSubscriberSvc, heartbeatInterval time.Duration) *EventStreamHandler {
	return &EventStreamHandler{
		settlementSvc:     settlementSvc,
		events:            events,
		heartbeatInterval: heartbeatInterval,
	}
}

// RegisterEventRoutes wires the per-user event stream into the v1 group.
func RegisterEventRoutes(v1 *gin.RouterGroup, settlementSvc portssvc.SettlementSvcFacade, events portssvc.EventSubscriberSvc, heartbeatInterval time.Duration) {
	handler := NewEventStreamHandler(settlementSvc, events, heartbeatInterval)
	v1.GET("/events", handler.Stream)
}

// Stream serves the authenticated member's personal event stream over SSE.
// Order: one-shot backlog replay of pending invites, then live events;
// heartbeats interleave independently to keep the transport alive.
func (h *EventStreamHandler) Stream(c *gin.Context) {
	memberID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Member ID not found in token"})
		return
	}

	// Subscribe before the backlog query so no live event published during
	// the replay is lost; the buffered channel holds them until the loop.
	live, cancel := h.events.Subscribe(memberID)
	defer cancel()

	backlog, err := h.settlementSvc.ListPendingInvites(c.Request.Context(), memberID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	now := time.Now().UTC()
	for _, invite := range backlog {
		name, payload := serializeUserEvent(domain.UserEvent{
			Kind:       domain.EventBacklogReplay,
			ExpenseID:  invite.ExpenseID,
			OccurredAt: now,
		})
		c.SSEvent(name, payload)
	}
	c.Writer.Flush()

	heartbeat := time.NewTicker(h.heartbeatInterval)
	defer heartbeat.Stop()
	clientGone := c.Request.Context().Done()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-clientGone:
			return false
		case event, open := <-live:
			if !open {
				return false
			}
			name, payload := serializeUserEvent(event)
			c.SSEvent(name, payload)
			return true
		case <-heartbeat.C:
			name, payload := serializeUserEvent(domain.UserEvent{
				Kind:       domain.EventHeartbeat,
				OccurredAt: time.Now().UTC(),
			})
			c.SSEvent(name, payload)
			return true
		}
	})
}

// serializeUserEvent maps the event union onto an SSE event name and JSON
// payload. The switch is exhaustive over domain.EventKind.
func serializeUserEvent(event domain.UserEvent) (string, any) {
	switch event.Kind {
	case domain.EventHeartbeat:
		return "heartbeat", gin.H{"at": event.OccurredAt}
	case domain.EventBacklogReplay:
		return "backlog", gin.H{"expenseID": event.ExpenseID, "at": event.OccurredAt}
	case domain.EventPendingInvite:
		return "invite", gin.H{"expenseID": event.ExpenseID, "groupID": event.GroupID, "amount": event.Amount, "at": event.OccurredAt}
	case domain.EventVoteRecorded:
		return "vote", gin.H{"expenseID": event.ExpenseID, "groupID": event.GroupID, "memberID": event.MemberID, "vote": event.Vote, "at": event.OccurredAt}
	case domain.EventTransferNotice:
		return "transfer", gin.H{"expenseID": event.ExpenseID, "groupID": event.GroupID, "amount": event.Amount, "at": event.OccurredAt}
	case domain.EventFinalized:
		return "finalized", gin.H{"expenseID": event.ExpenseID, "groupID": event.GroupID, "amount": event.Amount, "at": event.OccurredAt}
	default:
		return "message", gin.H{"at": event.OccurredAt}
	}
}

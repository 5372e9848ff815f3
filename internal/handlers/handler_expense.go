package handlers

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wesplit/wesplit_app/internal/apperrors"
	"github.com/wesplit/wesplit_app/internal/core/domain"
	portssvc "github.com/wesplit/wesplit_app/internal/core/ports/services"
	"github.com/wesplit/wesplit_app/internal/core/services"
	"github.com/wesplit/wesplit_app/internal/dto"
	"github.com/wesplit/wesplit_app/internal/middleware"
)

type ExpenseHandler struct {
	settlementSvc     portssvc.SettlementSvcFacade
	countdownInterval time.Duration
}

func NewExpenseHandler(settlementSvc portssvc.SettlementSvcFacade, countdownInterval time.Duration) *ExpenseHandler {
	return &ExpenseHandler{
		settlementSvc:     settlementSvc,
		countdownInterval: countdownInterval,
	}
}

// RegisterExpenseRoutes wires the expense endpoints into the v1 group.
func RegisterExpenseRoutes(v1 *gin.RouterGroup, settlementSvc portssvc.SettlementSvcFacade, countdownInterval time.Duration) {
	handler := NewExpenseHandler(settlementSvc, countdownInterval)

	expenses := v1.Group("/expenses")
	{
		expenses.POST("/", handler.CreateExpense)
		expenses.GET("/:expenseID", handler.GetExpense)
		expenses.POST("/:expenseID/respond", handler.Respond)
		expenses.GET("/:expenseID/countdown", handler.Countdown)
	}
}

// CreateExpense records a new expense; the authenticated member is the payer.
func (h *ExpenseHandler) CreateExpense(c *gin.Context) {
	memberID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Member ID not found in token"})
		return
	}

	var req dto.CreateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	expense, err := h.settlementSvc.CreateExpense(c.Request.Context(), req, memberID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToExpenseResponse(expense, nil))
}

// GetExpense retrieves an expense and its participant statuses.
func (h *ExpenseHandler) GetExpense(c *gin.Context) {
	expenseID := c.Param("expenseID")

	expense, participants, err := h.settlementSvc.GetExpense(c.Request.Context(), expenseID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToExpenseResponse(expense, participants))
}

// Respond records the authenticated member's accept/decline vote.
func (h *ExpenseHandler) Respond(c *gin.Context) {
	memberID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Member ID not found in token"})
		return
	}
	expenseID := c.Param("expenseID")

	var req dto.RespondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.settlementSvc.Respond(c.Request.Context(), expenseID, memberID, domain.ParticipantStatus(req.Vote))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Countdown streams the expense's remaining acceptance window as
// server-sent events, one tick per interval, ending with a terminal
// "finalized" event once settlement lands.
func (h *ExpenseHandler) Countdown(c *gin.Context) {
	expenseID := c.Param("expenseID")

	expense, _, err := h.settlementSvc.GetExpense(c.Request.Context(), expenseID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	if expense.IsFinalized() {
		c.SSEvent("finalized", gin.H{"expenseID": expenseID, "finalizedAt": expense.FinalizedAt})
		return
	}

	ticker := time.NewTicker(h.countdownInterval)
	defer ticker.Stop()
	clientGone := c.Request.Context().Done()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-clientGone:
			return false
		case <-ticker.C:
			current, _, err := h.settlementSvc.GetExpense(c.Request.Context(), expenseID)
			if err != nil {
				return false
			}
			if current.IsFinalized() {
				c.SSEvent("finalized", gin.H{"expenseID": expenseID, "finalizedAt": current.FinalizedAt})
				return false
			}
			remaining := time.Until(current.AcceptanceDeadline)
			if remaining < 0 {
				remaining = 0
			}
			c.SSEvent("countdown", gin.H{"expenseID": expenseID, "secondsRemaining": int64(remaining.Seconds())})
			return true
		}
	})
}

// respondWithError maps service errors onto HTTP statuses.
func respondWithError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Expense not found"})
	case errors.Is(err, apperrors.ErrValidation),
		errors.Is(err, services.ErrPayeeRequired),
		errors.Is(err, services.ErrDeadlineNotFuture),
		errors.Is(err, services.ErrAmountNegative):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrNoAcceptedParticipants):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		middleware.GetLoggerFromCtx(c.Request.Context()).Error("Request failed", "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

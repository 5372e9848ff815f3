package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	portssvc "github.com/wesplit/wesplit_app/internal/core/ports/services"
	"github.com/wesplit/wesplit_app/internal/dto"
)

type BalanceHandler struct {
	balanceSvc portssvc.BalanceSvcFacade
}

func NewBalanceHandler(balanceSvc portssvc.BalanceSvcFacade) *BalanceHandler {
	return &BalanceHandler{balanceSvc: balanceSvc}
}

// RegisterBalanceRoutes wires the balance query endpoint into the v1 group.
func RegisterBalanceRoutes(v1 *gin.RouterGroup, balanceSvc portssvc.BalanceSvcFacade) {
	handler := NewBalanceHandler(balanceSvc)
	v1.GET("/groups/:groupID/balances", handler.ListGroupBalances)
}

// ListGroupBalances returns all directed debt edges of a group.
func (h *BalanceHandler) ListGroupBalances(c *gin.Context) {
	groupID := c.Param("groupID")

	edges, err := h.balanceSvc.ListGroupBalances(c.Request.Context(), groupID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToGroupBalancesResponse(groupID, edges))
}

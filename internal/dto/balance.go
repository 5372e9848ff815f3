package dto

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/wesplit/wesplit_app/internal/core/domain"
)

// BalanceEdgeResponse defines the data returned for one directed debt edge.
type BalanceEdgeResponse struct {
	DebtorID      string          `json:"debtorID"`
	CreditorID    string          `json:"creditorID"`
	Amount        decimal.Decimal `json:"amount"`
	LastUpdatedAt time.Time       `json:"lastUpdatedAt"`
}

// GroupBalancesResponse defines the combined response for a group's balances.
type GroupBalancesResponse struct {
	GroupID string                `json:"groupID"`
	Edges   []BalanceEdgeResponse `json:"edges"`
}

// ToGroupBalancesResponse converts domain balance edges to the response DTO.
func ToGroupBalancesResponse(groupID string, edges []domain.BalanceEdge) GroupBalancesResponse {
	resp := GroupBalancesResponse{GroupID: groupID}
	for _, e := range edges {
		resp.Edges = append(resp.Edges, BalanceEdgeResponse{
			DebtorID:      e.DebtorID,
			CreditorID:    e.CreditorID,
			Amount:        e.Amount,
			LastUpdatedAt: e.LastUpdatedAt,
		})
	}
	return resp
}

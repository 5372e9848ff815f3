package services

import (
	"context"

	"github.com/wesplit/wesplit_app/internal/core/domain"
	portsrepo "github.com/wesplit/wesplit_app/internal/core/ports/repositories"
	portssvc "github.com/wesplit/wesplit_app/internal/core/ports/services"
)

// balanceService exposes read access to a group's balance edges. All writes
// go through the settlement transaction; there is no direct mutation API.
type balanceService struct {
	balanceRepo portsrepo.BalanceReader
}

// NewBalanceService creates a new BalanceService.
func NewBalanceService(balanceRepo portsrepo.BalanceReader) portssvc.BalanceSvcFacade {
	return &balanceService{balanceRepo: balanceRepo}
}

var _ portssvc.BalanceSvcFacade = (*balanceService)(nil)

// ListGroupBalances retrieves all directed debt edges of a group.
func (s *balanceService) ListGroupBalances(ctx context.Context, groupID string) ([]domain.BalanceEdge, error) {
	return s.balanceRepo.ListBalancesByGroupID(ctx, groupID)
}

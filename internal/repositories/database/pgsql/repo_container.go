package pgsql

import (
	"github.com/jackc/pgx/v5/pgxpool"
	portsrepo "github.com/wesplit/wesplit_app/internal/core/ports/repositories"
)

func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		ExpenseRepo:     NewExpenseRepository(dbPool),
		ParticipantRepo: NewParticipantRepository(dbPool),
		BalanceRepo:     NewBalanceRepository(dbPool),
	}
}

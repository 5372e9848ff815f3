package services

import (
	"log/slog"

	portsrepo "github.com/wesplit/wesplit_app/internal/core/ports/repositories"
	portssvc "github.com/wesplit/wesplit_app/internal/core/ports/services"
	"github.com/wesplit/wesplit_app/internal/platform/config"
)

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider, logger *slog.Logger) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	// The bus has no dependencies and everything publishes through it.
	container.Events = NewUserEventBus(logger)

	// Settlement and the scheduler depend on each other: the scheduler fires
	// settlement at deadlines, settlement arms timers on expense creation.
	// Build settlement first, then close the cycle with AttachScheduler.
	settlement := NewSettlementService(
		repos.ExpenseRepo,
		repos.ParticipantRepo,
		repos.BalanceRepo,
		container.Events,
	)
	schedulerCfg := SchedulerConfig{
		MinDelay:     cfg.SchedulerMinDelay,
		JitterMax:    cfg.SchedulerJitterMax,
		DrainWorkers: cfg.DrainWorkers,
		DrainPacing:  cfg.DrainPacing,
	}
	container.Scheduler = NewFinalizationScheduler(settlement, repos.ExpenseRepo, schedulerCfg, logger)
	settlement.AttachScheduler(container.Scheduler)
	container.Settlement = settlement

	container.Balance = NewBalanceService(repos.BalanceRepo)

	return container
}

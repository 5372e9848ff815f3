package services

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	portsrepo "github.com/wesplit/wesplit_app/internal/core/ports/repositories"
	portssvc "github.com/wesplit/wesplit_app/internal/core/ports/services"
)

// SchedulerConfig bounds the scheduler's timing behavior.
type SchedulerConfig struct {
	// MinDelay is the floor applied to every computed timer delay.
	MinDelay time.Duration
	// JitterMax bounds the random jitter added to each delay so that
	// expenses created in the same instant do not fire in lockstep.
	JitterMax time.Duration
	// DrainWorkers is the number of concurrent workers draining overdue
	// expenses during recovery.
	DrainWorkers int
	// DrainPacing is the delay between items handed to the drain workers,
	// keeping a restart with many overdue expenses from saturating the
	// storage pool.
	DrainPacing time.Duration
}

// DefaultSchedulerConfig returns the production defaults.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		MinDelay:     time.Second,
		JitterMax:    time.Second,
		DrainWorkers: 4,
		DrainPacing:  100 * time.Millisecond,
	}
}

// armedTimer pairs a timer with the generation it was armed under. The
// generation lets a fired callback tell whether the map entry is still its
// own or belongs to a replacement armed in the meantime.
type armedTimer struct {
	timer *time.Timer
	gen   uint64
}

// finalizationScheduler owns one timer per open expense. Timer expiry invokes
// forced settlement; the expense row lock makes a timer racing a last vote
// harmless.
type finalizationScheduler struct {
	settler     portssvc.SettlerSvc
	expenseRepo portsrepo.ExpenseReader
	cfg         SchedulerConfig
	logger      *slog.Logger

	mu      sync.Mutex
	timers  map[string]*armedTimer
	gen     uint64
	stopped bool
	wg      sync.WaitGroup
}

// NewFinalizationScheduler creates a scheduler. Recover must be called once
// after construction to re-arm timers for expenses persisted before the last
// process stop.
func NewFinalizationScheduler(settler portssvc.SettlerSvc, expenseRepo portsrepo.ExpenseReader, cfg SchedulerConfig, logger *slog.Logger) portssvc.SchedulerSvcFacade {
	if cfg.DrainWorkers <= 0 {
		cfg.DrainWorkers = 1
	}
	return &finalizationScheduler{
		settler:     settler,
		expenseRepo: expenseRepo,
		cfg:         cfg,
		logger:      logger,
		timers:      make(map[string]*armedTimer),
	}
}

// Ensure finalizationScheduler implements the facade
var _ portssvc.SchedulerSvcFacade = (*finalizationScheduler)(nil)

// Schedule arms a timer for the expense, replacing any existing one.
func (f *finalizationScheduler) Schedule(expenseID string, deadline time.Time) {
	delay := time.Until(deadline)
	if delay < f.cfg.MinDelay {
		delay = f.cfg.MinDelay
	}
	if f.cfg.JitterMax > 0 {
		delay += time.Duration(rand.Int63n(int64(f.cfg.JitterMax)))
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.stopped {
		return
	}
	if existing, ok := f.timers[expenseID]; ok {
		if existing.timer.Stop() {
			f.wg.Done()
		}
	}
	f.gen++
	gen := f.gen
	entry := &armedTimer{gen: gen}
	f.wg.Add(1)
	entry.timer = time.AfterFunc(delay, func() {
		defer f.wg.Done()
		f.fire(expenseID, gen)
	})
	f.timers[expenseID] = entry

	f.logger.Debug("Finalization timer armed",
		slog.String("expense_id", expenseID),
		slog.Duration("delay", delay),
	)
}

// Cancel clears any armed timer for the expense.
func (f *finalizationScheduler) Cancel(expenseID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if entry, ok := f.timers[expenseID]; ok {
		if entry.timer.Stop() {
			f.wg.Done()
		}
		delete(f.timers, expenseID)
	}
}

// fire runs the forced settlement for one expired timer. Failures are logged
// and the expense stays open; the scheduler does not re-arm on its own.
// The generation check keeps a fired callback from removing the entry of a
// replacement timer armed while the callback was waiting on the lock; the
// replacement must stay reachable for Cancel and Shutdown.
func (f *finalizationScheduler) fire(expenseID string, gen uint64) {
	f.mu.Lock()
	if entry, ok := f.timers[expenseID]; ok && entry.gen == gen {
		delete(f.timers, expenseID)
	}
	f.mu.Unlock()

	outcome, err := f.settler.Settle(context.Background(), expenseID, true)
	if err != nil {
		f.logger.Error("Deadline settlement failed",
			slog.String("expense_id", expenseID),
			slog.String("error", err.Error()),
		)
		return
	}
	if outcome.AlreadyFinalized {
		f.logger.Debug("Deadline fired on already finalized expense", slog.String("expense_id", expenseID))
		return
	}
	f.logger.Info("Expense finalized by deadline", slog.String("expense_id", expenseID))
}

// Recover queries all unfinalized expenses on process start. Future deadlines
// are scheduled normally; elapsed ones are drained immediately with bounded
// concurrency and pacing.
func (f *finalizationScheduler) Recover(ctx context.Context) error {
	expenses, err := f.expenseRepo.ListUnfinalizedExpenses(ctx)
	if err != nil {
		return err
	}

	now := time.Now()
	overdue := make([]string, 0, len(expenses))
	for _, e := range expenses {
		if e.AcceptanceDeadline.After(now) {
			f.Schedule(e.ExpenseID, e.AcceptanceDeadline)
		} else {
			overdue = append(overdue, e.ExpenseID)
		}
	}

	f.logger.Info("Scheduler recovery",
		slog.Int("scheduled", len(expenses)-len(overdue)),
		slog.Int("overdue", len(overdue)),
	)

	if len(overdue) == 0 {
		return nil
	}

	queue := make(chan string)
	var workers sync.WaitGroup
	for i := 0; i < f.cfg.DrainWorkers; i++ {
		workers.Add(1)
		go func() {
			defer workers.Done()
			for expenseID := range queue {
				f.drainOne(ctx, expenseID)
			}
		}()
	}

	for _, expenseID := range overdue {
		select {
		case queue <- expenseID:
		case <-ctx.Done():
			close(queue)
			workers.Wait()
			return ctx.Err()
		}
		if f.cfg.DrainPacing > 0 {
			time.Sleep(f.cfg.DrainPacing)
		}
	}
	close(queue)
	workers.Wait()
	return nil
}

// drainOne settles a single overdue expense; failures are logged per item and
// never abort the rest of the drain.
func (f *finalizationScheduler) drainOne(ctx context.Context, expenseID string) {
	outcome, err := f.settler.Settle(ctx, expenseID, true)
	if err != nil {
		if errors.Is(err, ErrNoAcceptedParticipants) {
			f.logger.Warn("Overdue expense has no acceptances; left open", slog.String("expense_id", expenseID))
			return
		}
		f.logger.Error("Recovery settlement failed",
			slog.String("expense_id", expenseID),
			slog.String("error", err.Error()),
		)
		return
	}
	if outcome.Finalized {
		f.logger.Info("Overdue expense finalized on recovery", slog.String("expense_id", expenseID))
	}
}

// Shutdown stops all armed timers and waits for in-flight settlement
// callbacks to complete. In-flight settlements are never interrupted.
func (f *finalizationScheduler) Shutdown() {
	f.mu.Lock()
	f.stopped = true
	for expenseID, entry := range f.timers {
		if entry.timer.Stop() {
			f.wg.Done()
		}
		delete(f.timers, expenseID)
	}
	f.mu.Unlock()

	f.wg.Wait()
}

package services

import (
	"context"
	"time"
)

// SchedulerSvcFacade owns one timer per open expense and fires forced
// settlement when an acceptance deadline passes.
type SchedulerSvcFacade interface {
	// Schedule arms (or re-arms) the finalization timer for an expense.
	// An existing timer for the same expense is cancelled first.
	Schedule(expenseID string, deadline time.Time)

	// Cancel clears any armed timer for the expense.
	Cancel(expenseID string)

	// Recover scans storage for unfinalized expenses: future deadlines are
	// scheduled normally, elapsed ones are drained with bounded concurrency.
	Recover(ctx context.Context) error

	// Shutdown cancels all armed timers and waits for in-flight settlement
	// triggers to complete.
	Shutdown()
}

// Package scheduler runs the periodic ledger maintenance jobs.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"fintrack/internal/logger"
)

// BudgetRoller rolls expired recurring budgets into their current period.
type BudgetRoller interface {
	RollOverExpiredBudgets(ctx context.Context) (int, error)
}

// Scheduler wraps a cron runner.
type Scheduler struct {
	cron    *cron.Cron
	timeout time.Duration
}

// New creates a Scheduler. Each job run is bounded by timeout.
func New(timeout time.Duration) *Scheduler {
	return &Scheduler{
		cron:    cron.New(cron.WithChain(cron.Recover(cronLogger{}), cron.SkipIfStillRunning(cronLogger{}))),
		timeout: timeout,
	}
}

// ScheduleBudgetRollover registers the rollover job on spec. An empty spec
// registers nothing.
func (s *Scheduler) ScheduleBudgetRollover(spec string, roller BudgetRoller) error {
	if spec == "" {
		logger.Get().Infow("budget rollover disabled")
		return nil
	}
	if _, err := s.cron.AddFunc(spec, func() { s.RunBudgetRollover(roller) }); err != nil {
		return fmt.Errorf("schedule budget rollover %q: %w", spec, err)
	}
	logger.Get().Infow("budget rollover scheduled", "schedule", spec)
	return nil
}

// RunBudgetRollover runs one rollover pass and logs the outcome.
func (s *Scheduler) RunBudgetRollover(roller BudgetRoller) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	rolled, err := roller.RollOverExpiredBudgets(ctx)
	if err != nil {
		logger.Get().Errorw("budget rollover failed", "error", err)
		return
	}
	logger.Get().Infow("budget rollover finished", "rolled", rolled)
}

// Entries reports the number of registered jobs.
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}

// Start runs the scheduler in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the scheduler and waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) error {
	select {
	case <-s.cron.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// cronLogger routes cron's own diagnostics to the application logger.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...any) {
	logger.Get().Debugw(msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...any) {
	logger.Get().Errorw(msg, append(keysAndValues, "error", err)...)
}

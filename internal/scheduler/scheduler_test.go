package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/logger"
)

func init() {
	logger.Init("test")
}

type stubRoller struct {
	calls int
	err   error
}

func (r *stubRoller) RollOverExpiredBudgets(ctx context.Context) (int, error) {
	r.calls++
	if _, ok := ctx.Deadline(); !ok {
		return 0, errors.New("missing deadline")
	}
	return 2, r.err
}

func TestScheduleBudgetRollover(t *testing.T) {
	t.Run("valid_schedule", func(t *testing.T) {
		s := New(time.Second)
		require.NoError(t, s.ScheduleBudgetRollover("@daily", &stubRoller{}))
		assert.Equal(t, 1, s.Entries())
	})

	t.Run("empty_disables", func(t *testing.T) {
		s := New(time.Second)
		require.NoError(t, s.ScheduleBudgetRollover("", &stubRoller{}))
		assert.Zero(t, s.Entries())
	})

	t.Run("invalid_schedule", func(t *testing.T) {
		s := New(time.Second)
		assert.Error(t, s.ScheduleBudgetRollover("every tuesday", &stubRoller{}))
	})
}

func TestRunBudgetRollover(t *testing.T) {
	s := New(time.Second)

	roller := &stubRoller{}
	s.RunBudgetRollover(roller)
	assert.Equal(t, 1, roller.calls)

	failing := &stubRoller{err: errors.New("db down")}
	s.RunBudgetRollover(failing)
	assert.Equal(t, 1, failing.calls)
}

func TestStartStop(t *testing.T) {
	s := New(time.Second)
	s.Start()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, s.Stop(ctx))
}

package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Pruner deletes stored records older than a cutoff.
type Pruner interface {
	Prune(ctx context.Context, before time.Time) (int64, error)
}

// Sweeper drops idle state and reports how many entries it removed.
// security.RateLimiter satisfies it.
type Sweeper interface {
	Sweep() int
}

// HistoryPruneJob removes history records older than Retention.
type HistoryPruneJob struct {
	Store        Pruner
	Retention    time.Duration
	Logger       *slog.Logger
	ScheduleExpr string // empty = default "17 * * * *"

	now func() time.Time
}

var _ Job = (*HistoryPruneJob)(nil)

// Name implements Job.
func (j *HistoryPruneJob) Name() string { return "history_prune" }

// Schedule implements Job.
func (j *HistoryPruneJob) Schedule() string {
	if j.ScheduleExpr != "" {
		return j.ScheduleExpr
	}
	return "17 * * * *"
}

// Run deletes every record older than now minus Retention. A zero
// Retention keeps everything.
func (j *HistoryPruneJob) Run(ctx context.Context) error {
	if ctx.Err() != nil {
		return fmt.Errorf("cron: history prune cancelled: %w", ctx.Err())
	}
	if j.Retention <= 0 {
		return nil
	}
	now := time.Now
	if j.now != nil {
		now = j.now
	}
	pruned, err := j.Store.Prune(ctx, now().Add(-j.Retention))
	if err != nil {
		return fmt.Errorf("cron: history prune: %w", err)
	}
	if pruned > 0 {
		j.Logger.Info("cron: pruned history records", "count", pruned, "retention", j.Retention)
	}
	return nil
}

// RateLimitSweepJob forgets senders with no recent activity.
type RateLimitSweepJob struct {
	Limiter      Sweeper
	Logger       *slog.Logger
	ScheduleExpr string // empty = default "*/5 * * * *"
}

var _ Job = (*RateLimitSweepJob)(nil)

// Name implements Job.
func (j *RateLimitSweepJob) Name() string { return "ratelimit_sweep" }

// Schedule implements Job.
func (j *RateLimitSweepJob) Schedule() string {
	if j.ScheduleExpr != "" {
		return j.ScheduleExpr
	}
	return "*/5 * * * *"
}

// Run sweeps the limiter.
func (j *RateLimitSweepJob) Run(_ context.Context) error {
	if n := j.Limiter.Sweep(); n > 0 {
		j.Logger.Debug("cron: swept idle rate limit keys", "count", n)
	}
	return nil
}

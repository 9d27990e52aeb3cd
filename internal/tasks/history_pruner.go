package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"aviation_calculator/internal/database"
)

// HistoryPruner deletes calculations older than the retention period. It
// implements scheduler.Task.
type HistoryPruner struct {
	repo      database.CalculationRepository
	retention time.Duration
	interval  time.Duration
	now       func() time.Time
}

func NewHistoryPruner(repo database.CalculationRepository, retention, interval time.Duration) *HistoryPruner {
	return &HistoryPruner{
		repo:      repo,
		retention: retention,
		interval:  interval,
		now:       time.Now,
	}
}

func (p *HistoryPruner) Run(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	cutoff := p.now().Add(-p.retention)
	deleted, err := p.repo.DeleteOlderThan(cutoff)
	if err != nil {
		return fmt.Errorf("failed to prune history: %w", err)
	}
	if deleted > 0 {
		slog.Info("Pruned calculation history", "deleted", deleted, "cutoff", cutoff.Format(time.RFC3339))
	}
	return nil
}

func (p *HistoryPruner) Interval() time.Duration {
	return p.interval
}

func (p *HistoryPruner) Name() string {
	return "history_pruner"
}

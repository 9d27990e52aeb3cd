package tasks

import (
	"context"
	"log/slog"
	"time"

	"aviation_calculator/internal/database"
	"aviation_calculator/internal/models"
)

// CalculationCollector collects calculation records and commits them to the database in batches
type CalculationCollector struct {
	repo          database.CalculationRepository
	records       <-chan *models.Calculation
	batchSize     int           // maximum number of records in a batch before committing to database
	flushInterval time.Duration // time to flush batch even if not full
}

// Default batch size is 100 records and flush interval is 1 second
func NewCalculationCollector(repo database.CalculationRepository, records <-chan *models.Calculation) *CalculationCollector {
	return NewCalculationCollectorWithConfig(repo, records, 100, 1*time.Second)
}

// NewCalculationCollectorWithConfig creates a collector with custom batch settings
func NewCalculationCollectorWithConfig(repo database.CalculationRepository, records <-chan *models.Calculation, batchSize int, flushInterval time.Duration) *CalculationCollector {
	return &CalculationCollector{
		repo:          repo,
		records:       records,
		batchSize:     batchSize,
		flushInterval: flushInterval,
	}
}

// Start collects records and writes them to the database in batches.
// It blocks until the context is cancelled or the record channel is closed,
// flushing whatever is pending before it returns.
func (c *CalculationCollector) Start(ctx context.Context) error {
	batch := make([]*models.Calculation, 0, c.batchSize)

	flushBatch := func() {
		if len(batch) == 0 {
			return
		}
		if err := c.repo.InsertBatch(batch); err != nil {
			slog.Error("Error inserting batch of calculations", "batch_size", len(batch), "error", err)
		} else {
			slog.Debug("Inserted batch of calculations", "batch_size", len(batch))
		}
		batch = batch[:0]
	}

	ticker := time.NewTicker(c.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			flushBatch()
			return ctx.Err()

		case <-ticker.C:
			flushBatch()

		case rec, ok := <-c.records:
			if !ok {
				flushBatch()
				return nil
			}
			if rec == nil {
				continue
			}

			batch = append(batch, rec)

			slog.Debug("Added calculation to batch",
				"id", rec.ID,
				"source", rec.Source,
				"engine", rec.Engine,
				"failed", rec.Failed(),
				"current_batch_size", len(batch),
				"max_batch_size", c.batchSize,
			)

			if len(batch) >= c.batchSize {
				flushBatch()
			}
		}
	}
}

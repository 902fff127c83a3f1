// Package jobs schedules and executes scrape runs: a scheduler enqueues due
// stores, a worker pool drains the queue running scrape and reconciliation.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pricecart/pricecart/internal/models"
	"github.com/pricecart/pricecart/internal/queue"
)

// StoreDirectory is the store-configuration surface the job layer reads.
type StoreDirectory interface {
	ActiveStores(ctx context.Context) ([]models.Store, error)
	StoreByID(ctx context.Context, id int64) (*models.Store, error)
}

// Scheduler periodically enqueues a scrape job for every active store whose
// interval has elapsed. The queue deduplicates by store, so a slow run never
// stacks up repeat jobs.
type Scheduler struct {
	stores   StoreDirectory
	queue    queue.Queue
	interval time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

func NewScheduler(stores StoreDirectory, q queue.Queue, interval time.Duration) *Scheduler {
	return &Scheduler{
		stores:   stores,
		queue:    q,
		interval: interval,
		logger:   slog.Default().With("component", "scheduler"),
		now:      time.Now,
	}
}

// Start ticks until ctx is cancelled. The first pass runs immediately.
func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info("starting scheduler", "interval", s.interval)

	if err := s.EnqueueDue(ctx); err != nil {
		s.logger.Error("failed to enqueue due stores on startup", "error", err)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := s.EnqueueDue(ctx); err != nil {
				s.logger.Error("failed to enqueue due stores", "error", err)
			}
		}
	}
}

// EnqueueDue pushes a job for every active store whose scrape interval has
// elapsed.
func (s *Scheduler) EnqueueDue(ctx context.Context) error {
	stores, err := s.stores.ActiveStores(ctx)
	if err != nil {
		return fmt.Errorf("failed to list active stores: %w", err)
	}

	now := s.now().UTC()
	enqueued := 0
	for _, store := range stores {
		if !store.Due(now) {
			continue
		}
		if err := s.queue.Push(newJob(store, 0)); err != nil {
			return fmt.Errorf("failed to enqueue store %d: %w", store.ID, err)
		}
		enqueued++
	}

	if enqueued > 0 {
		s.logger.Info("enqueued due stores", "count", enqueued)
	}
	return nil
}

// Trigger enqueues an on-demand run for one store ahead of scheduled work.
func (s *Scheduler) Trigger(store models.Store) error {
	return s.queue.Push(newJob(store, 1))
}

func newJob(store models.Store, priority int) *models.ScrapeJob {
	return &models.ScrapeJob{
		ID:        uuid.New().String(),
		StoreID:   store.ID,
		ScraperID: store.ScraperID,
		Priority:  priority,
		CreatedAt: time.Now().UTC(),
	}
}

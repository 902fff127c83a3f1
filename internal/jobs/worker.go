package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pricecart/pricecart/internal/browser"
	"github.com/pricecart/pricecart/internal/models"
	"github.com/pricecart/pricecart/internal/queue"
	"github.com/pricecart/pricecart/internal/scraper"
)

// RunFunc executes one scrape run for a store. Swappable for tests.
type RunFunc func(ctx context.Context, store models.Store) (*models.RunReport, error)

// ProcessFunc reconciles one run. Swappable for tests.
type ProcessFunc func(ctx context.Context, storeID int64, report *models.RunReport) (*models.ProcessStats, error)

// ScrapeRunner builds a strategy for the store and drives one orchestrator
// run with a bounded timeout.
func ScrapeRunner(browserOpts *browser.Options, runTimeout time.Duration) RunFunc {
	return func(ctx context.Context, store models.Store) (*models.RunReport, error) {
		strategy, err := scraper.New(store.ScraperID)
		if err != nil {
			return nil, err
		}

		runCtx, cancel := context.WithTimeout(ctx, runTimeout)
		defer cancel()

		return scraper.NewOrchestrator(strategy, store.ID, browserOpts).Run(runCtx)
	}
}

// Pool drains the job queue with a fixed number of workers. Stores run in
// parallel across workers; one store's run stays sequential inside a worker.
type Pool struct {
	queue   queue.Queue
	stores  StoreDirectory
	run     RunFunc
	process ProcessFunc
	workers int
	logger  *slog.Logger
}

func NewPool(q queue.Queue, stores StoreDirectory, run RunFunc, process ProcessFunc, workers int) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{
		queue:   q,
		stores:  stores,
		run:     run,
		process: process,
		workers: workers,
		logger:  slog.Default().With("component", "worker"),
	}
}

// Start blocks until ctx is cancelled or the queue closes.
func (p *Pool) Start(ctx context.Context) error {
	p.logger.Info("starting workers", "count", p.workers)

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < p.workers; i++ {
		worker := i
		g.Go(func() error {
			return p.loop(ctx, worker)
		})
	}
	return g.Wait()
}

func (p *Pool) loop(ctx context.Context, worker int) error {
	for {
		job, err := p.queue.Pop(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, queue.ErrQueueClosed) {
				p.logger.Info("worker stopped", "worker", worker)
				return nil
			}
			return err
		}

		if err := p.execute(ctx, job); err != nil {
			p.logger.Error("job failed",
				"worker", worker,
				"job_id", job.ID,
				"store_id", job.StoreID,
				"error", err)
		}
	}
}

// execute runs one store end to end: scrape, then reconcile. A run with zero
// valid records still reconciles (an empty run updates store counters only).
func (p *Pool) execute(ctx context.Context, job *models.ScrapeJob) error {
	store, err := p.stores.StoreByID(ctx, job.StoreID)
	if err != nil {
		return fmt.Errorf("failed to load store %d: %w", job.StoreID, err)
	}
	if store == nil || !store.IsActive {
		p.logger.Warn("skipping job for missing or inactive store", "store_id", job.StoreID)
		return nil
	}

	report, runErr := p.run(ctx, *store)
	if runErr != nil && errors.Is(runErr, context.Canceled) {
		return runErr
	}
	if report == nil {
		// The run never started (no strategy, for example). Reconcile the
		// empty failed run anyway so the store's failure counters move.
		report = &models.RunReport{StoreID: store.ID}
		if runErr != nil {
			report.Errors = append(report.Errors, runErr.Error())
		}
	}

	p.logger.Info("scrape run finished",
		"store_id", store.ID,
		"run_id", report.RunID,
		"success", report.Success,
		"records", report.RecordCount)

	stats, procErr := p.process(ctx, store.ID, report)
	if procErr != nil {
		return fmt.Errorf("reconciliation failed for store %d: %w", store.ID, procErr)
	}

	p.logger.Info("reconciliation finished",
		"store_id", store.ID,
		"created", stats.ProductsCreated,
		"updated", stats.ProductsUpdated,
		"prices_added", stats.PricesAdded,
		"prices_updated", stats.PricesUpdated)

	return runErr
}

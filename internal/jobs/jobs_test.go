package jobs

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pricecart/pricecart/internal/models"
	"github.com/pricecart/pricecart/internal/queue"
)

type fakeDirectory struct {
	stores []models.Store
}

func (f *fakeDirectory) ActiveStores(ctx context.Context) ([]models.Store, error) {
	var active []models.Store
	for _, s := range f.stores {
		if s.IsActive {
			active = append(active, s)
		}
	}
	return active, nil
}

func (f *fakeDirectory) StoreByID(ctx context.Context, id int64) (*models.Store, error) {
	for _, s := range f.stores {
		if s.ID == id {
			cp := s
			return &cp, nil
		}
	}
	return nil, nil
}

func TestSchedulerEnqueuesOnlyDueStores(t *testing.T) {
	now := time.Now().UTC()
	recent := now.Add(-1 * time.Hour)
	stale := now.Add(-13 * time.Hour)

	dir := &fakeDirectory{stores: []models.Store{
		{ID: 1, ScraperID: "spinneys", IsActive: true, ScrapeIntervalHours: 12, LastScrapedAt: &stale},
		{ID: 2, ScraperID: "gourmet", IsActive: true, ScrapeIntervalHours: 12, LastScrapedAt: &recent},
		{ID: 3, ScraperID: "breadfast", IsActive: true, ScrapeIntervalHours: 12},
		{ID: 4, ScraperID: "spinneys", IsActive: false, ScrapeIntervalHours: 12},
	}}

	q := queue.NewInMemoryQueue()
	defer q.Close()

	s := NewScheduler(dir, q, time.Minute)
	s.now = func() time.Time { return now }

	require.NoError(t, s.EnqueueDue(context.Background()))

	assert.Equal(t, 2, q.Size(), "stale store and never-scraped store are due")
}

func TestSchedulerTriggerHasPriority(t *testing.T) {
	q := queue.NewInMemoryQueue()
	defer q.Close()

	dir := &fakeDirectory{stores: []models.Store{
		{ID: 1, ScraperID: "spinneys", IsActive: true, ScrapeIntervalHours: 12},
	}}
	s := NewScheduler(dir, q, time.Minute)

	require.NoError(t, s.EnqueueDue(context.Background()))
	require.NoError(t, s.Trigger(models.Store{ID: 9, ScraperID: "gourmet"}))

	first, err := q.Pop(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(9), first.StoreID, "on-demand trigger jumps the queue")
}

func TestPoolExecutesJobs(t *testing.T) {
	dir := &fakeDirectory{stores: []models.Store{
		{ID: 1, ScraperID: "spinneys", IsActive: true},
		{ID: 2, ScraperID: "gourmet", IsActive: true},
	}}

	var mu sync.Mutex
	ran := make(map[int64]int)
	processed := make(map[int64]int)

	run := func(ctx context.Context, store models.Store) (*models.RunReport, error) {
		mu.Lock()
		ran[store.ID]++
		mu.Unlock()
		return &models.RunReport{
			RunID:   "run",
			StoreID: store.ID,
			Success: true,
			Records: []models.ScrapedRecord{{Name: "Tomato 1kg", Price: 20, IsAvailable: true}},
		}, nil
	}
	process := func(ctx context.Context, storeID int64, report *models.RunReport) (*models.ProcessStats, error) {
		mu.Lock()
		processed[storeID] += len(report.Records)
		mu.Unlock()
		return &models.ProcessStats{TotalScraped: len(report.Records)}, nil
	}

	q := queue.NewInMemoryQueue()
	pool := NewPool(q, dir, run, process, 2)

	ctx, cancel := context.WithCancel(context.Background())
	doneCh := make(chan error, 1)
	go func() { doneCh <- pool.Start(ctx) }()

	require.NoError(t, q.Push(&models.ScrapeJob{ID: "a", StoreID: 1, ScraperID: "spinneys"}))
	require.NoError(t, q.Push(&models.ScrapeJob{ID: "b", StoreID: 2, ScraperID: "gourmet"}))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return ran[1] == 1 && ran[2] == 1 && processed[1] == 1 && processed[2] == 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-doneCh)
}

func TestPoolReconcilesFailedRun(t *testing.T) {
	dir := &fakeDirectory{stores: []models.Store{
		{ID: 1, ScraperID: "spinneys", IsActive: true},
	}}

	run := func(ctx context.Context, store models.Store) (*models.RunReport, error) {
		return nil, assert.AnError
	}

	var got *models.RunReport
	process := func(ctx context.Context, storeID int64, report *models.RunReport) (*models.ProcessStats, error) {
		got = report
		return &models.ProcessStats{}, nil
	}

	q := queue.NewInMemoryQueue()
	pool := NewPool(q, dir, run, process, 1)

	err := pool.execute(context.Background(), &models.ScrapeJob{ID: "a", StoreID: 1})
	require.Error(t, err)

	require.NotNil(t, got, "a dead run must still reach reconciliation for store accounting")
	assert.False(t, got.Success)
	assert.NotEmpty(t, got.Errors)
}

func TestPoolSkipsInactiveStore(t *testing.T) {
	dir := &fakeDirectory{stores: []models.Store{
		{ID: 1, ScraperID: "spinneys", IsActive: false},
	}}

	var mu sync.Mutex
	runs := 0
	run := func(ctx context.Context, store models.Store) (*models.RunReport, error) {
		mu.Lock()
		runs++
		mu.Unlock()
		return &models.RunReport{}, nil
	}
	process := func(ctx context.Context, storeID int64, report *models.RunReport) (*models.ProcessStats, error) {
		return &models.ProcessStats{}, nil
	}

	q := queue.NewInMemoryQueue()
	pool := NewPool(q, dir, run, process, 1)

	require.NoError(t, q.Push(&models.ScrapeJob{ID: "a", StoreID: 1}))
	require.NoError(t, pool.execute(context.Background(), &models.ScrapeJob{ID: "a", StoreID: 1}))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 0, runs, "inactive store must not be scraped")
}

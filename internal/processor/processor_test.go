package processor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pricecart/pricecart/internal/models"
)

// fakeRepo is an in-memory Repository/Catalog double. InTx snapshots state
// and restores it when the callback fails, mirroring a rollback.
type fakeRepo struct {
	products  []models.Product
	prices    map[int64]*models.PriceRecord
	history   []models.PriceHistoryEntry
	events    []fakeEvent
	nextID    int64
	statCalls []bool

	failCreate bool
}

type fakeEvent struct {
	Type    string
	Payload any
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{prices: make(map[int64]*models.PriceRecord), nextID: 1}
}

func (f *fakeRepo) InTx(ctx context.Context, fn func(Catalog) error) error {
	products := append([]models.Product(nil), f.products...)
	prices := make(map[int64]*models.PriceRecord, len(f.prices))
	for k, v := range f.prices {
		cp := *v
		prices[k] = &cp
	}
	history := append([]models.PriceHistoryEntry(nil), f.history...)
	events := append([]fakeEvent(nil), f.events...)
	nextID := f.nextID

	if err := fn(f); err != nil {
		f.products, f.prices, f.history, f.events, f.nextID = products, prices, history, events, nextID
		return err
	}
	return nil
}

func (f *fakeRepo) UpdateStoreStats(ctx context.Context, storeID int64, success bool, at time.Time) error {
	f.statCalls = append(f.statCalls, success)
	return nil
}

func (f *fakeRepo) ProductsByStore(ctx context.Context, storeID int64) ([]models.Product, error) {
	var out []models.Product
	for _, p := range f.products {
		if p.StoreID == storeID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeRepo) CreateProduct(ctx context.Context, product *models.Product) error {
	if f.failCreate {
		return assert.AnError
	}
	product.ID = f.nextID
	f.nextID++
	f.products = append(f.products, *product)
	return nil
}

func (f *fakeRepo) UpdateProduct(ctx context.Context, product *models.Product) error {
	for i := range f.products {
		if f.products[i].ID == product.ID {
			f.products[i] = *product
			return nil
		}
	}
	return assert.AnError
}

func (f *fakeRepo) CurrentPrice(ctx context.Context, productID, storeID int64) (*models.PriceRecord, error) {
	if price, ok := f.prices[productID]; ok {
		cp := *price
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeRepo) SavePrice(ctx context.Context, price *models.PriceRecord) error {
	cp := *price
	f.prices[price.ProductID] = &cp
	return nil
}

func (f *fakeRepo) AppendHistory(ctx context.Context, entry *models.PriceHistoryEntry) error {
	f.history = append(f.history, *entry)
	return nil
}

func (f *fakeRepo) AppendEvent(ctx context.Context, eventType string, payload any) error {
	f.events = append(f.events, fakeEvent{Type: eventType, Payload: payload})
	return nil
}

func newTestProcessor(repo *fakeRepo, now time.Time) *Processor {
	p := New(repo)
	p.now = func() time.Time { return now }
	return p
}

// run wraps records in a successful orchestrator report.
func run(records ...models.ScrapedRecord) *models.RunReport {
	return &models.RunReport{
		StoreID:     1,
		Success:     true,
		Records:     records,
		RecordCount: len(records),
	}
}

func record(name string, price float64) models.ScrapedRecord {
	return models.ScrapedRecord{
		Name:        name,
		Price:       price,
		Category:    models.CategoryVegetables,
		IsAvailable: true,
	}
}

func TestProcessCreatesProductsAndPrices(t *testing.T) {
	repo := newFakeRepo()
	p := newTestProcessor(repo, time.Now())

	stats, err := p.Process(context.Background(), 1, run(
		record("Fresh Tomatoes 1kg", 20.00),
		record("Cucumber 500g", 12.50),
	))
	require.NoError(t, err)

	assert.Equal(t, 2, stats.ProductsCreated)
	assert.Equal(t, 2, stats.PricesAdded)
	assert.Equal(t, 0, stats.PricesUpdated)
	assert.Empty(t, stats.Errors)
	assert.Len(t, repo.products, 2)
	assert.Len(t, repo.history, 0, "first sighting has nothing to supersede")

	require.Len(t, repo.events, 2)
	assert.Equal(t, EventProductCreated, repo.events[0].Type)

	require.Len(t, repo.statCalls, 1)
	assert.True(t, repo.statCalls[0])
}

func TestProcessIsIdempotent(t *testing.T) {
	repo := newFakeRepo()
	now := time.Now()
	p := newTestProcessor(repo, now)
	_, err := p.Process(context.Background(), 1, run(record("Fresh Tomatoes 1kg", 20.00)))
	require.NoError(t, err)

	stats, err := p.Process(context.Background(), 1, run(record("Fresh Tomatoes 1kg", 20.00)))
	require.NoError(t, err)

	assert.Equal(t, 0, stats.ProductsCreated, "second pass must match, not create")
	assert.Equal(t, 0, stats.PricesAdded)
	assert.Equal(t, 0, stats.PricesUpdated, "unchanged observation inside the freshness window is a no-op")
	assert.Len(t, repo.products, 1)
	assert.Len(t, repo.history, 0)
}

func TestDedupCollapsesSameNameAndPrice(t *testing.T) {
	repo := newFakeRepo()
	p := newTestProcessor(repo, time.Now())

	stats, err := p.Process(context.Background(), 1, run(
		record("Tomato 1kg", 20),
		record("tomato 1kg", 20),
		record("Tomato 1kg", 21),
	))
	require.NoError(t, err)

	assert.Equal(t, 1, stats.DuplicatesRemoved)
	assert.Equal(t, 3, stats.TotalScraped)
}

func TestPriceUpdateThreshold(t *testing.T) {
	now := time.Now()

	t.Run("small change within freshness window is a no-op", func(t *testing.T) {
		repo := newFakeRepo()
		p := newTestProcessor(repo, now)
		_, err := p.Process(context.Background(), 1, run(record("Tomato 1kg", 20.00)))
		require.NoError(t, err)

		stats, err := p.Process(context.Background(), 1, run(record("Tomato 1kg", 20.50)))
		require.NoError(t, err)

		assert.Equal(t, 0, stats.PricesUpdated)
		assert.Equal(t, 20.00, repo.prices[1].Price)
		assert.Empty(t, repo.history)
	})

	t.Run("7.5% change supersedes and emits history", func(t *testing.T) {
		repo := newFakeRepo()
		p := newTestProcessor(repo, now)
		_, err := p.Process(context.Background(), 1, run(record("Tomato 1kg", 20.00)))
		require.NoError(t, err)

		stats, err := p.Process(context.Background(), 1, run(record("Tomato 1kg", 21.50)))
		require.NoError(t, err)

		assert.Equal(t, 1, stats.PricesUpdated)
		assert.Equal(t, 21.50, repo.prices[1].Price)

		require.Len(t, repo.history, 1)
		entry := repo.history[0]
		assert.Equal(t, models.ChangeIncrease, entry.ChangeType)
		assert.InDelta(t, 1.50, entry.ChangeAmount, 0.0001)
		assert.InDelta(t, 7.5, entry.ChangePercentage, 0.0001)
		assert.Equal(t, 20.00, entry.Price, "history snapshots the superseded record")

		require.Len(t, repo.events, 2)
		assert.Equal(t, EventPriceChanged, repo.events[1].Type)
	})

	t.Run("stale record is superseded regardless of delta", func(t *testing.T) {
		repo := newFakeRepo()
		p := newTestProcessor(repo, now)
		_, err := p.Process(context.Background(), 1, run(record("Tomato 1kg", 20.00)))
		require.NoError(t, err)

		repo.prices[1].ScrapedAt = now.Add(-25 * time.Hour)

		stats, err := p.Process(context.Background(), 1, run(record("Tomato 1kg", 20.00)))
		require.NoError(t, err)

		assert.Equal(t, 1, stats.PricesUpdated)
		require.Len(t, repo.history, 1)
		assert.Equal(t, models.ChangeStable, repo.history[0].ChangeType)
	})
}

func TestAvailabilityTransitionIsNew(t *testing.T) {
	repo := newFakeRepo()
	now := time.Now()
	p := newTestProcessor(repo, now)

	unavailable := record("Tomato 1kg", 20.00)
	unavailable.IsAvailable = false
	_, err := p.Process(context.Background(), 1, run(unavailable))
	require.NoError(t, err)

	back := record("Tomato 1kg", 25.00)
	stats, err := p.Process(context.Background(), 1, run(back))
	require.NoError(t, err)

	assert.Equal(t, 1, stats.PricesUpdated)
	require.Len(t, repo.history, 1)
	assert.Equal(t, models.ChangeNew, repo.history[0].ChangeType, "reappearance wins over the 25% increase")
}

func TestUnavailableWinsPrecedence(t *testing.T) {
	repo := newFakeRepo()
	p := newTestProcessor(repo, time.Now())

	_, err := p.Process(context.Background(), 1, run(record("Tomato 1kg", 20.00)))
	require.NoError(t, err)

	gone := record("Tomato 1kg", 10.00)
	gone.IsAvailable = false
	_, err = p.Process(context.Background(), 1, run(gone))
	require.NoError(t, err)

	require.Len(t, repo.history, 1)
	assert.Equal(t, models.ChangeUnavailable, repo.history[0].ChangeType)
}

func TestMatchByExternalIDBeatsName(t *testing.T) {
	repo := newFakeRepo()
	p := newTestProcessor(repo, time.Now())

	first := record("Tomato 1kg", 20.00)
	first.ExternalID = "111"
	_, err := p.Process(context.Background(), 1, run(first))
	require.NoError(t, err)

	renamed := record("Fresh Red Tomato Pack 1kg", 30.00)
	renamed.ExternalID = "111"
	stats, err := p.Process(context.Background(), 1, run(renamed))
	require.NoError(t, err)

	assert.Equal(t, 0, stats.ProductsCreated, "external id matches despite the different name")
	assert.Len(t, repo.products, 1)
}

func TestFuzzyMatching(t *testing.T) {
	repo := newFakeRepo()
	p := newTestProcessor(repo, time.Now())

	_, err := p.Process(context.Background(), 1, run(record("Cherry Tomatoes 500g", 35.00)))
	require.NoError(t, err)

	similar := record("Cherry Tomato 500 g", 40.00)
	stats, err := p.Process(context.Background(), 1, run(similar))
	require.NoError(t, err)
	assert.Equal(t, 0, stats.ProductsCreated, "near-identical name must fuzzy-match")

	different := record("Beef Tomatoes 1kg", 28.00)
	stats, err = p.Process(context.Background(), 1, run(different))
	require.NoError(t, err)
	assert.Equal(t, 1, stats.ProductsCreated, "a different product must not fuzzy-match")
}

func TestMergeFillsOnlyEmptyFields(t *testing.T) {
	product := &models.Product{
		ID:       1,
		Name:     "Tomato 1kg",
		Brand:    "Green Land",
		Category: models.CategoryVegetables,
	}
	rec := &models.ScrapedRecord{
		Name:       "Tomato 1kg",
		Price:      20,
		Brand:      "Other Brand",
		ImageURL:   "https://example.com/tomato.jpg",
		ExternalID: "42",
	}

	changed := merge(product, rec)

	assert.True(t, changed)
	assert.Equal(t, "Green Land", product.Brand, "populated fields are never overwritten")
	assert.Equal(t, "https://example.com/tomato.jpg", product.ImageURL)
	assert.Equal(t, "42", product.ExternalID)
}

func TestDiscountSelfCorrection(t *testing.T) {
	repo := newFakeRepo()
	p := newTestProcessor(repo, time.Now())

	bogus := record("Tomato 1kg", 30.00)
	lower := 25.00
	bogus.OriginalPrice = &lower
	bogus.IsDiscounted = true

	_, err := p.Process(context.Background(), 1, run(bogus))
	require.NoError(t, err)

	price := repo.prices[1]
	require.NotNil(t, price)
	assert.Nil(t, price.OriginalPrice, "original price below current price is silently cleared")
	assert.False(t, price.IsDiscounted)
	assert.Nil(t, price.DiscountPercentage)
}

func TestClassifierAssignsCategoryWithoutHint(t *testing.T) {
	repo := newFakeRepo()
	p := newTestProcessor(repo, time.Now())

	rec := models.ScrapedRecord{Name: "Almarai Full Fat Milk 1L", Price: 52.95, IsAvailable: true}
	_, err := p.Process(context.Background(), 1, run(rec))
	require.NoError(t, err)

	require.Len(t, repo.products, 1)
	assert.Equal(t, models.CategoryDairy, repo.products[0].Category)
}

func TestPersistenceFailureRollsBackAndCountsFailed(t *testing.T) {
	repo := newFakeRepo()
	repo.failCreate = true
	p := newTestProcessor(repo, time.Now())

	stats, err := p.Process(context.Background(), 1, run(record("Tomato 1kg", 20.00)))
	require.Error(t, err)

	assert.NotEmpty(t, stats.Errors)
	assert.Empty(t, repo.products, "failed run leaves no partial writes")
	assert.Empty(t, repo.prices)

	require.Len(t, repo.statCalls, 1)
	assert.False(t, repo.statCalls[0], "failed run still increments the failed counter")
}

func TestFailedRunCountsAgainstStore(t *testing.T) {
	repo := newFakeRepo()
	p := newTestProcessor(repo, time.Now())

	dead := &models.RunReport{
		StoreID: 1,
		Success: false,
		Errors:  []string{"session setup failed"},
	}
	stats, err := p.Process(context.Background(), 1, dead)
	require.NoError(t, err)

	assert.Equal(t, 0, stats.ProductsCreated)
	require.Len(t, repo.statCalls, 1)
	assert.False(t, repo.statCalls[0], "a dead run must not reset the failure streak")
}

func TestInvalidRecordsAreCountedNotFatal(t *testing.T) {
	repo := newFakeRepo()
	p := newTestProcessor(repo, time.Now())

	stats, err := p.Process(context.Background(), 1, run(
		models.ScrapedRecord{Name: "", Price: 20, IsAvailable: true},
		models.ScrapedRecord{Name: "Tomato 1kg", Price: 0, IsAvailable: true},
		record("Cucumber 500g", 12.50),
	))
	require.NoError(t, err)

	assert.Equal(t, 2, stats.InvalidRecords)
	assert.Equal(t, 1, stats.ProductsCreated)
}

// Package processor reconciles the scraped records of one store run against
// the catalog: deduplication, product matching, non-destructive enrichment,
// price-update gating and price-history emission.
package processor

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/pricecart/pricecart/internal/classifier"
	"github.com/pricecart/pricecart/internal/extract"
	"github.com/pricecart/pricecart/internal/models"
)

const (
	// priceUpdateThreshold is the relative price change that forces a
	// supersede even inside the freshness window.
	priceUpdateThreshold = 0.05
	// maxPriceAge bounds how stale a current price record may be before any
	// fresh observation supersedes it.
	maxPriceAge = 24 * time.Hour
	// fuzzyMatchThreshold is the minimum token-set similarity for matching a
	// record to an existing product by name.
	fuzzyMatchThreshold = 0.8
	// historyChangeFloor is the relative change below which a superseded
	// price is recorded as stable.
	historyChangeFloor = 1.0
)

// Catalog is the transaction-scoped persistence surface the processor
// mutates. Lookups return nil without an error when no row exists.
type Catalog interface {
	ProductsByStore(ctx context.Context, storeID int64) ([]models.Product, error)
	CreateProduct(ctx context.Context, product *models.Product) error
	UpdateProduct(ctx context.Context, product *models.Product) error
	CurrentPrice(ctx context.Context, productID, storeID int64) (*models.PriceRecord, error)
	SavePrice(ctx context.Context, price *models.PriceRecord) error
	AppendHistory(ctx context.Context, entry *models.PriceHistoryEntry) error
	AppendEvent(ctx context.Context, eventType string, payload any) error
}

// Repository runs catalog work transactionally and keeps the per-store scrape
// counters, which are updated outside the reconciliation transaction so a
// failed run still counts.
type Repository interface {
	InTx(ctx context.Context, fn func(Catalog) error) error
	UpdateStoreStats(ctx context.Context, storeID int64, success bool, at time.Time) error
}

type Processor struct {
	repo   Repository
	logger *slog.Logger
	now    func() time.Time
}

func New(repo Repository) *Processor {
	return &Processor{
		repo:   repo,
		logger: slog.Default().With("component", "processor"),
		now:    time.Now,
	}
}

// Process reconciles one store run. All catalog mutations commit in one
// transaction; on a persistence failure the whole run rolls back, the store's
// failed counter is still incremented and the error is returned. A run the
// orchestrator marked failed updates the store counters as a failure even when
// reconciliation itself succeeds, so dead stores accumulate consecutive
// failures and cross the offline threshold.
func (p *Processor) Process(ctx context.Context, storeID int64, report *models.RunReport) (*models.ProcessStats, error) {
	records := report.Records
	stats := &models.ProcessStats{TotalScraped: len(records)}

	valid := make([]models.ScrapedRecord, 0, len(records))
	for i := range records {
		records[i].Normalize()
		if !records[i].Valid() {
			stats.InvalidRecords++
			continue
		}
		valid = append(valid, records[i])
	}

	deduped := dedupe(valid, stats)

	err := p.repo.InTx(ctx, func(cat Catalog) error {
		index, err := newProductIndex(ctx, cat, storeID)
		if err != nil {
			return fmt.Errorf("failed to load store catalog: %w", err)
		}

		for i := range deduped {
			if err := p.reconcile(ctx, cat, index, storeID, &deduped[i], stats); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		stats.Errors = append(stats.Errors, err.Error())
	}

	success := report.Success && err == nil && len(stats.Errors) == 0
	if statsErr := p.repo.UpdateStoreStats(ctx, storeID, success, p.now().UTC()); statsErr != nil {
		p.logger.Error("failed to update store stats", "store_id", storeID, "error", statsErr)
		stats.Errors = append(stats.Errors, statsErr.Error())
	}

	p.logger.Info("processing finished",
		"store_id", storeID,
		"scraped", stats.TotalScraped,
		"created", stats.ProductsCreated,
		"updated", stats.ProductsUpdated,
		"prices_added", stats.PricesAdded,
		"prices_updated", stats.PricesUpdated,
		"duplicates", stats.DuplicatesRemoved,
		"invalid", stats.InvalidRecords,
		"errors", len(stats.Errors))

	return stats, err
}

// dedupe collapses records sharing (normalized name, rounded price) to the
// first occurrence. Listing pages repeat items in recommendation widgets, so
// same-key repeats are noise, not signal.
func dedupe(records []models.ScrapedRecord, stats *models.ProcessStats) []models.ScrapedRecord {
	seen := make(map[string]struct{}, len(records))
	out := make([]models.ScrapedRecord, 0, len(records))
	for _, rec := range records {
		key := fmt.Sprintf("%s|%.2f", extract.NormalizeName(rec.Name), rec.Price)
		if _, dup := seen[key]; dup {
			stats.DuplicatesRemoved++
			continue
		}
		seen[key] = struct{}{}
		out = append(out, rec)
	}
	return out
}

func (p *Processor) reconcile(ctx context.Context, cat Catalog, index *productIndex, storeID int64, rec *models.ScrapedRecord, stats *models.ProcessStats) error {
	product := index.match(rec)

	if product == nil {
		product = p.newProduct(storeID, rec)
		if err := cat.CreateProduct(ctx, product); err != nil {
			return fmt.Errorf("failed to create product %q: %w", rec.Name, err)
		}
		if err := cat.AppendEvent(ctx, EventProductCreated, ProductCreatedEvent{
			ProductID: product.ID,
			StoreID:   storeID,
			Name:      product.Name,
			Category:  product.Category,
		}); err != nil {
			return fmt.Errorf("failed to append product event: %w", err)
		}
		index.add(product)
		stats.ProductsCreated++
	} else if merge(product, rec) {
		if err := cat.UpdateProduct(ctx, product); err != nil {
			return fmt.Errorf("failed to update product %d: %w", product.ID, err)
		}
		stats.ProductsUpdated++
	}

	current, err := cat.CurrentPrice(ctx, product.ID, storeID)
	if err != nil {
		return fmt.Errorf("failed to load current price for product %d: %w", product.ID, err)
	}

	now := p.now().UTC()
	if !p.shouldUpdatePrice(current, rec, now) {
		return nil
	}

	next := newPriceRecord(product.ID, storeID, rec, now)
	if err := cat.SavePrice(ctx, next); err != nil {
		return fmt.Errorf("failed to save price for product %d: %w", product.ID, err)
	}

	if current == nil {
		stats.PricesAdded++
		return nil
	}
	stats.PricesUpdated++

	entry := historyEntry(current, next, now)
	if err := cat.AppendHistory(ctx, entry); err != nil {
		return fmt.Errorf("failed to append price history for product %d: %w", product.ID, err)
	}
	if err := cat.AppendEvent(ctx, EventPriceChanged, PriceChangedEvent{
		ProductID:        product.ID,
		StoreID:          storeID,
		OldPrice:         current.Price,
		NewPrice:         next.Price,
		ChangeType:       entry.ChangeType,
		ChangePercentage: entry.ChangePercentage,
	}); err != nil {
		return fmt.Errorf("failed to append price event: %w", err)
	}
	return nil
}

func (p *Processor) newProduct(storeID int64, rec *models.ScrapedRecord) *models.Product {
	now := p.now().UTC()
	return &models.Product{
		StoreID:     storeID,
		ExternalID:  rec.ExternalID,
		Name:        rec.Name,
		Category:    categoryFor(rec),
		Subcategory: rec.Subcategory,
		Brand:       rec.Brand,
		Unit:        rec.WeightUnit,
		Weight:      rec.WeightValue,
		Description: rec.Description,
		ImageURL:    rec.ImageURL,
		Keywords:    strings.Join(rec.Keywords, ","),
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// categoryFor uses the record's scraped category when it carries a confident
// hint, otherwise asks the classifier.
func categoryFor(rec *models.ScrapedRecord) models.Category {
	if rec.Category != "" && rec.Category != models.CategoryUnknown && rec.Category.Valid() {
		return rec.Category
	}
	return classifier.Classify(rec.Name, rec.Description, rec.Brand, "").Category
}

// merge fills the product's empty fields from the record. Populated fields
// are never overwritten. Returns whether anything changed.
func merge(product *models.Product, rec *models.ScrapedRecord) bool {
	changed := false

	if product.ExternalID == "" && rec.ExternalID != "" {
		product.ExternalID = rec.ExternalID
		changed = true
	}
	if (product.Category == "" || product.Category == models.CategoryUnknown) && rec.Category != "" && rec.Category != models.CategoryUnknown {
		product.Category = rec.Category
		changed = true
	}
	if product.Subcategory == "" && rec.Subcategory != "" {
		product.Subcategory = rec.Subcategory
		changed = true
	}
	if product.Brand == "" && rec.Brand != "" {
		product.Brand = rec.Brand
		changed = true
	}
	if product.Unit == "" && rec.WeightUnit != "" {
		product.Unit = rec.WeightUnit
		changed = true
	}
	if product.Weight == nil && rec.WeightValue != nil {
		product.Weight = rec.WeightValue
		changed = true
	}
	if product.Description == "" && rec.Description != "" {
		product.Description = rec.Description
		changed = true
	}
	if product.ImageURL == "" && rec.ImageURL != "" {
		product.ImageURL = rec.ImageURL
		changed = true
	}
	if product.Keywords == "" && len(rec.Keywords) > 0 {
		product.Keywords = strings.Join(rec.Keywords, ",")
		changed = true
	}

	return changed
}

// shouldUpdatePrice decides whether the incoming observation supersedes the
// current record. Observations inside the freshness window with a small price
// delta and unchanged flags are no-ops.
func (p *Processor) shouldUpdatePrice(current *models.PriceRecord, rec *models.ScrapedRecord, now time.Time) bool {
	if current == nil {
		return true
	}
	if now.Sub(current.ScrapedAt) > maxPriceAge {
		return true
	}
	if current.Price > 0 {
		change := (rec.Price - current.Price) / current.Price
		if change < 0 {
			change = -change
		}
		if change >= priceUpdateThreshold {
			return true
		}
	}
	if current.IsAvailable != rec.IsAvailable {
		return true
	}
	if current.IsDiscounted != rec.IsDiscounted {
		return true
	}
	return false
}

func newPriceRecord(productID, storeID int64, rec *models.ScrapedRecord, now time.Time) *models.PriceRecord {
	return &models.PriceRecord{
		ProductID:          productID,
		StoreID:            storeID,
		Price:              rec.Price,
		OriginalPrice:      rec.OriginalPrice,
		PricePerUnit:       rec.PricePerUnit,
		DiscountPercentage: rec.DiscountPercentage,
		PackSize:           rec.PackSize,
		PackUnit:           rec.PackUnit,
		WeightValue:        rec.WeightValue,
		WeightUnit:         rec.WeightUnit,
		IsAvailable:        rec.IsAvailable,
		IsDiscounted:       rec.IsDiscounted,
		IsOnSale:           rec.IsOnSale,
		SourceURL:          rec.SourceURL,
		ImageURL:           rec.ImageURL,
		ScrapedAt:          now,
	}
}

// historyEntry snapshots the superseded record and derives the delta against
// its successor.
func historyEntry(old, next *models.PriceRecord, now time.Time) *models.PriceHistoryEntry {
	amount := next.Price - old.Price
	percentage := 0.0
	if old.Price > 0 {
		percentage = amount / old.Price * 100
	}

	return &models.PriceHistoryEntry{
		ProductID:          old.ProductID,
		StoreID:            old.StoreID,
		Price:              old.Price,
		OriginalPrice:      old.OriginalPrice,
		PricePerUnit:       old.PricePerUnit,
		DiscountPercentage: old.DiscountPercentage,
		PackSize:           old.PackSize,
		PackUnit:           old.PackUnit,
		IsAvailable:        old.IsAvailable,
		IsDiscounted:       old.IsDiscounted,
		ChangeType:         changeType(old, next, percentage),
		ChangeAmount:       amount,
		ChangePercentage:   percentage,
		RecordedAt:         now,
	}
}

// changeType precedence: unavailable beats everything, a reappearance is new
// regardless of the price delta, then the 1% floor splits movement from
// stable.
func changeType(old, next *models.PriceRecord, percentage float64) models.ChangeType {
	switch {
	case !next.IsAvailable:
		return models.ChangeUnavailable
	case !old.IsAvailable:
		return models.ChangeNew
	case percentage >= historyChangeFloor:
		return models.ChangeIncrease
	case percentage <= -historyChangeFloor:
		return models.ChangeDecrease
	default:
		return models.ChangeStable
	}
}

// productIndex is the per-run view of a store's products: exact lookups by
// external id and normalized name plus an ordered slice for fuzzy matching.
// Created products join the index so repeats within one run match.
type productIndex struct {
	byExternalID map[string]*models.Product
	byName       map[string]*models.Product
	ordered      []*models.Product
}

func newProductIndex(ctx context.Context, cat Catalog, storeID int64) (*productIndex, error) {
	products, err := cat.ProductsByStore(ctx, storeID)
	if err != nil {
		return nil, err
	}
	sort.Slice(products, func(i, j int) bool { return products[i].ID < products[j].ID })

	index := &productIndex{
		byExternalID: make(map[string]*models.Product, len(products)),
		byName:       make(map[string]*models.Product, len(products)),
	}
	for i := range products {
		index.add(&products[i])
	}
	return index, nil
}

func (idx *productIndex) add(product *models.Product) {
	if product.ExternalID != "" {
		idx.byExternalID[product.ExternalID] = product
	}
	normalized := extract.NormalizeName(product.Name)
	if _, exists := idx.byName[normalized]; !exists {
		idx.byName[normalized] = product
	}
	idx.ordered = append(idx.ordered, product)
}

// match applies the strict priority order: external id, exact normalized
// name, then token-set similarity against every product in id order.
func (idx *productIndex) match(rec *models.ScrapedRecord) *models.Product {
	if rec.ExternalID != "" {
		if product, ok := idx.byExternalID[rec.ExternalID]; ok {
			return product
		}
	}

	normalized := extract.NormalizeName(rec.Name)
	if product, ok := idx.byName[normalized]; ok {
		return product
	}

	for _, product := range idx.ordered {
		if extract.Jaccard(normalized, extract.NormalizeName(product.Name)) >= fuzzyMatchThreshold {
			return product
		}
	}
	return nil
}

package models

import (
	"time"
)

// Category is the flat product taxonomy shared by the catalog and the
// classifier.
type Category string

const (
	CategoryVegetables   Category = "vegetables"
	CategoryFruits       Category = "fruits"
	CategoryMeat         Category = "meat"
	CategoryDairy        Category = "dairy"
	CategoryBakery       Category = "bakery"
	CategoryBeverages    Category = "beverages"
	CategoryPantry       Category = "pantry"
	CategorySnacks       Category = "snacks"
	CategoryFrozen       Category = "frozen"
	CategoryHousehold    Category = "household"
	CategoryPersonalCare Category = "personal-care"
	CategoryBabyCare     Category = "baby-care"
	CategoryHealth       Category = "health"
	CategoryPet          Category = "pet"
	CategoryUnknown      Category = "unknown"
)

// AllCategories lists every assignable category, unknown last.
func AllCategories() []Category {
	return []Category{
		CategoryVegetables, CategoryFruits, CategoryMeat, CategoryDairy,
		CategoryBakery, CategoryBeverages, CategoryPantry, CategorySnacks,
		CategoryFrozen, CategoryHousehold, CategoryPersonalCare,
		CategoryBabyCare, CategoryHealth, CategoryPet, CategoryUnknown,
	}
}

func (c Category) Valid() bool {
	for _, known := range AllCategories() {
		if c == known {
			return true
		}
	}
	return false
}

// ScrapedRecord is the normalized output of one listing-element extraction.
// It is ephemeral: records are reconciled into Product/PriceRecord rows and
// then discarded.
type ScrapedRecord struct {
	Name               string   `json:"name"`
	Price              float64  `json:"price"`
	OriginalPrice      *float64 `json:"original_price,omitempty"`
	PricePerUnit       *float64 `json:"price_per_unit,omitempty"`
	PackSize           string   `json:"pack_size,omitempty"`
	PackUnit           string   `json:"pack_unit,omitempty"`
	WeightValue        *float64 `json:"weight_value,omitempty"`
	WeightUnit         string   `json:"weight_unit,omitempty"`
	Brand              string   `json:"brand,omitempty"`
	Category           Category `json:"category,omitempty"`
	Subcategory        string   `json:"subcategory,omitempty"`
	Description        string   `json:"description,omitempty"`
	ImageURL           string   `json:"image_url,omitempty"`
	SourceURL          string   `json:"source_url,omitempty"`
	ExternalID         string   `json:"external_id,omitempty"`
	IsAvailable        bool     `json:"is_available"`
	IsDiscounted       bool     `json:"is_discounted"`
	IsOnSale           bool     `json:"is_on_sale"`
	DiscountPercentage *float64 `json:"discount_percentage,omitempty"`
	Keywords           []string `json:"keywords,omitempty"`
}

// Normalize applies the silent self-corrections a record gets before
// validation: an original price below the current price is dropped (and the
// discount flags cleared with it), and the discount percentage is derived
// when an original price survives.
func (r *ScrapedRecord) Normalize() {
	if r.OriginalPrice != nil && *r.OriginalPrice < r.Price {
		r.OriginalPrice = nil
		r.DiscountPercentage = nil
		r.IsDiscounted = false
	}
	if r.OriginalPrice != nil && *r.OriginalPrice > 0 && r.DiscountPercentage == nil {
		pct := (*r.OriginalPrice - r.Price) / *r.OriginalPrice * 100
		r.DiscountPercentage = &pct
		r.IsDiscounted = pct > 0
	}
}

// Valid reports whether the record carries the required fields. Callers must
// Normalize first.
func (r *ScrapedRecord) Valid() bool {
	if r.Name == "" {
		return false
	}
	return r.Price > 0
}

// Product is a durable catalog entity, scoped to one store and identified by
// external id when the site assigns one, otherwise by fuzzy name match.
type Product struct {
	ID          int64     `json:"id"`
	StoreID     int64     `json:"store_id"`
	ExternalID  string    `json:"external_id,omitempty"`
	Name        string    `json:"name"`
	Category    Category  `json:"category"`
	Subcategory string    `json:"subcategory,omitempty"`
	Brand       string    `json:"brand,omitempty"`
	Unit        string    `json:"unit,omitempty"`
	Weight      *float64  `json:"weight,omitempty"`
	Description string    `json:"description,omitempty"`
	ImageURL    string    `json:"image_url,omitempty"`
	Keywords    string    `json:"keywords,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// PriceRecord is the current known price/availability state for a
// (product, store) pair. At most one current record exists per pair;
// superseding it always appends a PriceHistoryEntry first.
type PriceRecord struct {
	ID                 int64     `json:"id"`
	ProductID          int64     `json:"product_id"`
	StoreID            int64     `json:"store_id"`
	Price              float64   `json:"price"`
	OriginalPrice      *float64  `json:"original_price,omitempty"`
	PricePerUnit       *float64  `json:"price_per_unit,omitempty"`
	DiscountPercentage *float64  `json:"discount_percentage,omitempty"`
	PackSize           string    `json:"pack_size,omitempty"`
	PackUnit           string    `json:"pack_unit,omitempty"`
	WeightValue        *float64  `json:"weight_value,omitempty"`
	WeightUnit         string    `json:"weight_unit,omitempty"`
	IsAvailable        bool      `json:"is_available"`
	IsDiscounted       bool      `json:"is_discounted"`
	IsOnSale           bool      `json:"is_on_sale"`
	SourceURL          string    `json:"source_url,omitempty"`
	ImageURL           string    `json:"image_url,omitempty"`
	ScrapedAt          time.Time `json:"scraped_at"`
}

// ChangeType classifies a price-history transition.
type ChangeType string

const (
	ChangeIncrease    ChangeType = "increase"
	ChangeDecrease    ChangeType = "decrease"
	ChangeNew         ChangeType = "new"
	ChangeUnavailable ChangeType = "unavailable"
	ChangeStable      ChangeType = "stable"
)

// PriceHistoryEntry is an immutable snapshot of a PriceRecord taken at the
// moment it is superseded, plus the derived delta against its successor.
type PriceHistoryEntry struct {
	ID                 int64      `json:"id"`
	ProductID          int64      `json:"product_id"`
	StoreID            int64      `json:"store_id"`
	Price              float64    `json:"price"`
	OriginalPrice      *float64   `json:"original_price,omitempty"`
	PricePerUnit       *float64   `json:"price_per_unit,omitempty"`
	DiscountPercentage *float64   `json:"discount_percentage,omitempty"`
	PackSize           string     `json:"pack_size,omitempty"`
	PackUnit           string     `json:"pack_unit,omitempty"`
	IsAvailable        bool       `json:"is_available"`
	IsDiscounted       bool       `json:"is_discounted"`
	ChangeType         ChangeType `json:"change_type"`
	ChangeAmount       float64    `json:"change_amount"`
	ChangePercentage   float64    `json:"change_percentage"`
	RecordedAt         time.Time  `json:"recorded_at"`
}

// Store is the per-site configuration and scrape bookkeeping consumed from
// the CRUD layer.
type Store struct {
	ID                  int64      `json:"id"`
	Name                string     `json:"name"`
	ScraperID           string     `json:"scraper_id"`
	BaseURL             string     `json:"base_url"`
	IsActive            bool       `json:"is_active"`
	ScrapeIntervalHours int        `json:"scrape_interval_hours"`
	LastScrapedAt       *time.Time `json:"last_scraped_at,omitempty"`
	TotalScrapes        int        `json:"total_scrapes"`
	FailedScrapes       int        `json:"failed_scrapes"`
	ConsecutiveFailures int        `json:"consecutive_failures"`
	SuccessRate         float64    `json:"success_rate"`
}

// OfflineThreshold is the number of consecutive failed runs after which a
// store is surfaced as offline.
const OfflineThreshold = 3

func (s *Store) Offline() bool {
	return s.ConsecutiveFailures >= OfflineThreshold
}

// Due reports whether the store's scrape interval has elapsed.
func (s *Store) Due(now time.Time) bool {
	if !s.IsActive {
		return false
	}
	if s.LastScrapedAt == nil {
		return true
	}
	interval := time.Duration(s.ScrapeIntervalHours) * time.Hour
	return now.Sub(*s.LastScrapedAt) >= interval
}

// RunReport is the aggregate result of one orchestrator run for one store.
type RunReport struct {
	RunID           string          `json:"run_id"`
	StoreID         int64           `json:"store_id"`
	Success         bool            `json:"success"`
	Records         []ScrapedRecord `json:"-"`
	RecordCount     int             `json:"record_count"`
	InvalidDropped  int             `json:"invalid_dropped"`
	Errors          []string        `json:"errors,omitempty"`
	PagesScraped    int             `json:"pages_scraped"`
	DurationSeconds float64         `json:"duration_seconds"`
	StartedAt       time.Time       `json:"started_at"`
}

// ProcessStats summarizes one Data Processor run for one store.
type ProcessStats struct {
	TotalScraped      int      `json:"total_scraped"`
	ProductsCreated   int      `json:"products_created"`
	ProductsUpdated   int      `json:"products_updated"`
	PricesAdded       int      `json:"prices_added"`
	PricesUpdated     int      `json:"prices_updated"`
	DuplicatesRemoved int      `json:"duplicates_removed"`
	InvalidRecords    int      `json:"invalid_records"`
	Errors            []string `json:"errors,omitempty"`
}

// ScrapeJob is one unit of scheduler work: run one store end to end.
type ScrapeJob struct {
	ID        string    `json:"id"`
	StoreID   int64     `json:"store_id"`
	ScraperID string    `json:"scraper_id"`
	Priority  int       `json:"priority"`
	Retries   int       `json:"retries"`
	CreatedAt time.Time `json:"created_at"`
}

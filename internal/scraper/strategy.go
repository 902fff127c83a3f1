// Package scraper holds the per-store scraping strategies and the
// orchestrator that drives one strategy across its category targets.
package scraper

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pricecart/pricecart/internal/extract"
	"github.com/pricecart/pricecart/internal/models"
)

// CategoryTarget is one category page a strategy scrapes, with the taxonomy
// category the page maps to.
type CategoryTarget struct {
	URL      string
	Category models.Category
}

// Pagination describes how a store exposes listings beyond the first
// viewport. Rounds are capped to keep lazy-load handling bounded.
type Pagination struct {
	MaxRounds int
	// LoadMoreSelectors are click targets tried after each scroll, in order.
	LoadMoreSelectors []string
}

// Strategy is the per-store capability set. Selector candidates, category
// maps and brand lists are strategy data, not code branches; the orchestrator
// supplies all navigation and pagination mechanics.
type Strategy interface {
	Name() string
	BaseURL() string
	ListCategoryTargets() []CategoryTarget
	// GridSelectors are the listing-grid candidates, tried in order.
	GridSelectors() []string
	Pagination() Pagination
	// ExtractFromElement maps one grid element to a record. A nil return
	// means the element is not a usable listing; it is skipped, not an
	// error.
	ExtractFromElement(element *goquery.Selection, target CategoryTarget) *models.ScrapedRecord
}

// listingSelectors are comma-separated CSS selector lists for the fields of
// one listing element, shared by all concrete strategies.
type listingSelectors struct {
	Title         string
	Price         string
	OriginalPrice string
	Link          string
	Image         string
	OutOfStock    string
	SaleBadge     string
}

// extractListing is the shared element-to-record mapping. It returns nil
// when the required fields (name, positive price) cannot be extracted.
func extractListing(element *goquery.Selection, baseURL string, selectors listingSelectors, brands []string, target CategoryTarget) *models.ScrapedRecord {
	name := extract.CleanText(element.Find(selectors.Title).First().Text())
	if name == "" {
		return nil
	}

	price := extract.CleanPrice(element.Find(selectors.Price).First().Text())
	if price <= 0 {
		return nil
	}

	var originalPrice *float64
	if selectors.OriginalPrice != "" {
		if op := extract.CleanPrice(element.Find(selectors.OriginalPrice).First().Text()); op > price {
			originalPrice = &op
		}
	}

	sourceURL := ""
	if href, ok := element.Find(selectors.Link).First().Attr("href"); ok {
		sourceURL = extract.AbsoluteURL(baseURL, href)
	}

	imageURL := ""
	if img := element.Find(selectors.Image).First(); img.Length() > 0 {
		src, ok := img.Attr("src")
		if !ok || src == "" {
			src, _ = img.Attr("data-src")
		}
		imageURL = extract.AbsoluteURL(baseURL, src)
	}

	isAvailable := element.Find(selectors.OutOfStock).Length() == 0
	isOnSale := selectors.SaleBadge != "" && element.Find(selectors.SaleBadge).Length() > 0

	weightValue, weightUnit := extract.ParseWeight(name)
	var weightPtr *float64
	var pricePerUnit *float64
	if weightUnit != "" {
		weightPtr = &weightValue
		if ppu := extract.PricePerStandardUnit(price, weightValue, weightUnit); ppu > 0 {
			pricePerUnit = &ppu
		}
	}

	record := &models.ScrapedRecord{
		Name:          name,
		Price:         price,
		OriginalPrice: originalPrice,
		PricePerUnit:  pricePerUnit,
		WeightValue:   weightPtr,
		WeightUnit:    weightUnit,
		Brand:         matchBrand(name, brands),
		Category:      target.Category,
		ImageURL:      imageURL,
		SourceURL:     sourceURL,
		ExternalID:    extract.ExternalID(sourceURL),
		IsAvailable:   isAvailable,
		IsDiscounted:  originalPrice != nil,
		IsOnSale:      isOnSale,
		Keywords:      extract.Keywords(name),
	}
	record.Normalize()
	return record
}

// matchBrand finds the first known brand contained in the product name.
func matchBrand(name string, brands []string) string {
	upper := strings.ToUpper(name)
	for _, brand := range brands {
		if strings.Contains(upper, strings.ToUpper(brand)) {
			return brand
		}
	}
	return ""
}

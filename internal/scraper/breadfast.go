package scraper

import (
	"github.com/PuerkitoBio/goquery"

	"github.com/pricecart/pricecart/internal/extract"
	"github.com/pricecart/pricecart/internal/models"
)

// BreadfastStrategy scrapes breadfast.com category pages, which combine
// scrolling with an explicit load-more button.
type BreadfastStrategy struct {
	baseURL   string
	selectors listingSelectors
	brands    []string
}

func NewBreadfastStrategy() *BreadfastStrategy {
	return &BreadfastStrategy{
		baseURL: "https://www.breadfast.com/",
		selectors: listingSelectors{
			Title:         "[data-testid=\"product-name\"], .product-name, h4",
			Price:         "[data-testid=\"product-price\"], .product-price, .price",
			OriginalPrice: ".original-price, .old-price, s",
			Link:          "a",
			Image:         "img",
			OutOfStock:    ".out-of-stock, [data-testid=\"out-of-stock\"]",
			SaleBadge:     ".discount-badge, .offer-badge",
		},
		brands: []string{
			"Breadfast", "Almarai", "Juhayna", "Domty", "Dina Farms",
			"Molto", "Hohos", "Rich Bake", "Beyti", "Edita",
		},
	}
}

func (b *BreadfastStrategy) Name() string    { return "breadfast" }
func (b *BreadfastStrategy) BaseURL() string { return b.baseURL }

func (b *BreadfastStrategy) ListCategoryTargets() []CategoryTarget {
	paths := []struct {
		path     string
		category models.Category
	}{
		{"/categories/bakery", models.CategoryBakery},
		{"/categories/dairy", models.CategoryDairy},
		{"/categories/fruits-vegetables", models.CategoryVegetables},
		{"/categories/beverages", models.CategoryBeverages},
		{"/categories/snacks", models.CategorySnacks},
		{"/categories/pantry", models.CategoryPantry},
		{"/categories/household", models.CategoryHousehold},
		{"/categories/personal-care", models.CategoryPersonalCare},
	}

	targets := make([]CategoryTarget, 0, len(paths))
	for _, p := range paths {
		targets = append(targets, CategoryTarget{
			URL:      extract.AbsoluteURL(b.baseURL, p.path),
			Category: p.category,
		})
	}
	return targets
}

func (b *BreadfastStrategy) GridSelectors() []string {
	return []string{"[data-testid=\"product-card\"]", ".product-card", ".product-item"}
}

func (b *BreadfastStrategy) Pagination() Pagination {
	return Pagination{
		MaxRounds:         3,
		LoadMoreSelectors: []string{".load-more", "[data-testid=\"load-more\"]", ".show-more"},
	}
}

func (b *BreadfastStrategy) ExtractFromElement(element *goquery.Selection, target CategoryTarget) *models.ScrapedRecord {
	return extractListing(element, b.baseURL, b.selectors, b.brands, target)
}

package scraper

import (
	"github.com/PuerkitoBio/goquery"

	"github.com/pricecart/pricecart/internal/extract"
	"github.com/pricecart/pricecart/internal/models"
)

// GourmetStrategy scrapes gourmetegypt.com collection pages, which use
// infinite scroll without a load-more control.
type GourmetStrategy struct {
	baseURL   string
	selectors listingSelectors
	brands    []string
}

func NewGourmetStrategy() *GourmetStrategy {
	return &GourmetStrategy{
		baseURL: "https://gourmetegypt.com/",
		selectors: listingSelectors{
			Title:         ".product-title, .product-name, h3",
			Price:         ".price, .product-price, .price-current",
			OriginalPrice: ".price-original, .was-price, .compare-price",
			Link:          "a",
			Image:         "img",
			OutOfStock:    ".out-of-stock, .sold-out, .unavailable",
			SaleBadge:     ".sale, .discount, .offer",
		},
		brands: []string{
			"Gourmet", "Almarai", "Juhayna", "Domty", "Lactel",
			"Heinz", "Barilla", "Lavazza", "President", "Puck",
		},
	}
}

func (g *GourmetStrategy) Name() string    { return "gourmet" }
func (g *GourmetStrategy) BaseURL() string { return g.baseURL }

func (g *GourmetStrategy) ListCategoryTargets() []CategoryTarget {
	paths := []struct {
		path     string
		category models.Category
	}{
		{"/collections/fresh-vegetables", models.CategoryVegetables},
		{"/collections/fresh-fruits", models.CategoryFruits},
		{"/collections/dairy-eggs", models.CategoryDairy},
		{"/collections/meat-poultry", models.CategoryMeat},
		{"/collections/bakery", models.CategoryBakery},
		{"/collections/pantry-essentials", models.CategoryPantry},
		{"/collections/beverages", models.CategoryBeverages},
		{"/collections/frozen-foods", models.CategoryFrozen},
	}

	targets := make([]CategoryTarget, 0, len(paths))
	for _, p := range paths {
		targets = append(targets, CategoryTarget{
			URL:      extract.AbsoluteURL(g.baseURL, p.path),
			Category: p.category,
		})
	}
	return targets
}

func (g *GourmetStrategy) GridSelectors() []string {
	return []string{".product-item", ".product-card"}
}

func (g *GourmetStrategy) Pagination() Pagination {
	return Pagination{MaxRounds: 5}
}

func (g *GourmetStrategy) ExtractFromElement(element *goquery.Selection, target CategoryTarget) *models.ScrapedRecord {
	return extractListing(element, g.baseURL, g.selectors, g.brands, target)
}

package scraper

import (
	"github.com/PuerkitoBio/goquery"

	"github.com/pricecart/pricecart/internal/extract"
	"github.com/pricecart/pricecart/internal/models"
)

// SpinneysStrategy scrapes spinneys.com category pages. Listings load behind
// a "view more" button, so pagination clicks through a few rounds.
type SpinneysStrategy struct {
	baseURL   string
	selectors listingSelectors
	brands    []string
}

func NewSpinneysStrategy() *SpinneysStrategy {
	return &SpinneysStrategy{
		baseURL: "https://www.spinneys.com/",
		selectors: listingSelectors{
			Title:         ".product-name, .product-title, h3",
			Price:         ".price, .current-price, .product-price",
			OriginalPrice: ".old-price, .was-price, .compare-price",
			Link:          "a",
			Image:         "img",
			OutOfStock:    ".out-of-stock, .unavailable, .sold-out",
			SaleBadge:     ".sale, .discount, .offer, .special",
		},
		brands: []string{
			"Spinneys", "Almarai", "Juhayna", "Domty", "Beyti", "Nada",
			"Americana", "McCain", "Green Land", "Panda", "Molto",
			"Heinz", "Kelloggs", "Nestle", "Ariel",
		},
	}
}

func (s *SpinneysStrategy) Name() string    { return "spinneys" }
func (s *SpinneysStrategy) BaseURL() string { return s.baseURL }

func (s *SpinneysStrategy) ListCategoryTargets() []CategoryTarget {
	paths := []struct {
		path     string
		category models.Category
	}{
		{"/egypt/fruits-vegetables", models.CategoryVegetables},
		{"/egypt/meat-poultry-seafood", models.CategoryMeat},
		{"/egypt/dairy-products-eggs", models.CategoryDairy},
		{"/egypt/bread-bakery", models.CategoryBakery},
		{"/egypt/beverages-juices", models.CategoryBeverages},
		{"/egypt/chips-nuts-snacks", models.CategorySnacks},
		{"/egypt/frozen-food", models.CategoryFrozen},
		{"/egypt/cleaning-household", models.CategoryHousehold},
	}

	targets := make([]CategoryTarget, 0, len(paths))
	for _, p := range paths {
		targets = append(targets, CategoryTarget{
			URL:      extract.AbsoluteURL(s.baseURL, p.path),
			Category: p.category,
		})
	}
	return targets
}

func (s *SpinneysStrategy) GridSelectors() []string {
	return []string{".product-item", ".product-card", ".grid-item"}
}

func (s *SpinneysStrategy) Pagination() Pagination {
	return Pagination{
		MaxRounds:         4,
		LoadMoreSelectors: []string{".view-more", ".load-more", ".show-more"},
	}
}

func (s *SpinneysStrategy) ExtractFromElement(element *goquery.Selection, target CategoryTarget) *models.ScrapedRecord {
	return extractListing(element, s.baseURL, s.selectors, s.brands, target)
}

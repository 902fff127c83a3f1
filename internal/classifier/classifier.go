// Package classifier assigns a taxonomy category to a product from its name,
// description, brand and the store's own category label. It is stateless and
// deterministic: identical inputs always yield identical output.
package classifier

import (
	"regexp"
	"sort"
	"strings"

	"github.com/antzucaro/matchr"
	"github.com/samber/lo"

	"github.com/pricecart/pricecart/internal/models"
)

// Result carries the winning category and a confidence in [0, 1].
type Result struct {
	Category   models.Category
	Confidence float64
}

// Signal weights. Keyword evidence dominates, brand evidence short-circuits
// entirely above brandShortCircuit.
const (
	weightKeywords = 0.4
	weightPatterns = 0.3
	weightContext  = 0.2
	weightBrand    = 0.1

	brandShortCircuit = 0.8
	storeHintFloor    = 0.7
	signalFloor       = 0.3
)

// Classify scores name (and optional description, brand and store category
// hint) against four independent signals and returns the highest weighted
// candidate, subject to per-category exclusion vetoes.
func Classify(name, description, brand, storeCategory string) Result {
	if name == "" {
		return Result{Category: models.CategoryUnknown}
	}

	parts := []string{strings.ToLower(name)}
	if description != "" {
		parts = append(parts, strings.ToLower(description))
	}
	if brand != "" {
		parts = append(parts, strings.ToLower(brand))
	}
	if storeCategory != "" {
		parts = append(parts, strings.ToLower(storeCategory))
	}
	text := strings.Join(parts, " ")

	// Many listings carry the brand only as the leading token of the name.
	if brand == "" {
		for _, word := range strings.Fields(strings.ToLower(name)) {
			if _, ok := brandCategories[word]; ok {
				brand = word
				break
			}
		}
	}

	if brand != "" {
		if r := classifyByBrand(strings.ToLower(brand)); r.Confidence > brandShortCircuit {
			return r
		}
	}

	if storeCategory != "" {
		if r := classifyByStoreCategory(strings.ToLower(storeCategory)); r.Confidence > storeHintFloor {
			return r
		}
	}

	candidates := map[models.Category]float64{}
	accumulate := func(r Result, weight float64) {
		if r.Confidence > signalFloor && r.Category != models.CategoryUnknown {
			candidates[r.Category] += r.Confidence * weight
		}
	}

	accumulate(classifyByKeywords(text), weightKeywords)
	accumulate(classifyByUnitPatterns(text), weightPatterns)
	accumulate(classifyByContext(text), weightContext)
	if brand != "" {
		accumulate(classifyByBrand(strings.ToLower(brand)), weightBrand)
	}

	ranked := rank(candidates)
	if len(ranked) == 0 {
		return Result{Category: models.CategoryUnknown}
	}

	best := ranked[0]
	if excluded(text, best.Category) {
		if len(ranked) > 1 {
			return ranked[1]
		}
		return Result{Category: models.CategoryUnknown}
	}
	best.Confidence = lo.Min([]float64{best.Confidence, 1.0})
	return best
}

// rank orders candidates by score, breaking ties by category name so map
// iteration order never leaks into the result.
func rank(candidates map[models.Category]float64) []Result {
	results := make([]Result, 0, len(candidates))
	for category, score := range candidates {
		results = append(results, Result{Category: category, Confidence: score})
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Confidence != results[j].Confidence {
			return results[i].Confidence > results[j].Confidence
		}
		return results[i].Category < results[j].Category
	})
	return results
}

func classifyByBrand(brand string) Result {
	brand = strings.TrimSpace(brand)
	if category, ok := brandCategories[brand]; ok {
		return Result{Category: category, Confidence: 0.9}
	}

	// Partial brand matching catches "Almarai Co." style variants.
	best := Result{Category: models.CategoryUnknown}
	for _, known := range brandNames {
		if strings.Contains(brand, known) || strings.Contains(known, brand) {
			similarity := matchr.JaroWinkler(brand, known, false)
			if similarity > 0.8 {
				score := 0.8 * similarity
				if score > best.Confidence {
					best = Result{Category: brandCategories[known], Confidence: score}
				}
			}
		}
	}
	return best
}

func classifyByStoreCategory(storeCategory string) Result {
	storeCategory = strings.TrimSpace(storeCategory)
	if category, ok := storeCategoryMap[storeCategory]; ok {
		return Result{Category: category, Confidence: 0.8}
	}
	for _, label := range storeCategoryLabels {
		if strings.Contains(storeCategory, label) || strings.Contains(label, storeCategory) {
			return Result{Category: storeCategoryMap[label], Confidence: 0.7}
		}
	}
	return Result{Category: models.CategoryUnknown}
}

func classifyByKeywords(text string) Result {
	words := strings.Fields(text)

	scores := map[models.Category]float64{}
	for _, category := range keywordCategories {
		keywords := categoryKeywords[category]

		// Exact pass. Single keywords must match a whole token so "salt"
		// does not fire inside "salted"; phrases match as substrings.
		matched := map[string]bool{}
		for keyword, weight := range keywords {
			if strings.Contains(keyword, " ") {
				if strings.Contains(text, keyword) {
					scores[category] += weight
					matched[keyword] = true
				}
				continue
			}
			if lo.Contains(words, keyword) {
				scores[category] += weight
				matched[keyword] = true
			}
		}

		// Fuzzy pass absorbs plural and spelling drift. A keyword that is
		// just another form of one already matched must not score twice.
		for keyword, weight := range keywords {
			if matched[keyword] || coveredByMatch(keyword, matched) {
				continue
			}
			for _, word := range words {
				if len(word) > 2 && matchr.JaroWinkler(keyword, word, false) > 0.93 {
					scores[category] += weight * 0.6
					break
				}
			}
		}
	}
	return normalizedBest(scores)
}

func coveredByMatch(keyword string, matched map[string]bool) bool {
	for m := range matched {
		if strings.Contains(keyword, m) || strings.Contains(m, keyword) {
			return true
		}
	}
	return false
}

func classifyByUnitPatterns(text string) Result {
	scores := map[models.Category]float64{}
	for _, category := range unitPatternCategories {
		for _, pattern := range unitPatterns[category] {
			if matches := pattern.FindAllStringIndex(text, -1); matches != nil {
				scores[category] += float64(len(matches)) * 0.5
			}
		}
	}
	return normalizedBest(scores)
}

var (
	volumeRe    = regexp.MustCompile(`\d+\s*(ml|l|liter|litre)\b`)
	massRe      = regexp.MustCompile(`\d+\s*(kg|g|gram|lb|pound)\b`)
	packagingRe = regexp.MustCompile(`\b(bottle|jar|can|pack|bag)\b`)
	freshnessRe = regexp.MustCompile(`\b(fresh|organic|natural|farm)\b`)
	prepRe      = regexp.MustCompile(`\b(frozen|canned|dried|baked)\b`)
)

func classifyByContext(text string) Result {
	scores := map[models.Category]float64{}

	if volumeRe.MatchString(text) {
		scores[models.CategoryBeverages] += 0.3
		scores[models.CategoryDairy] += 0.2
	}
	if massRe.MatchString(text) {
		scores[models.CategoryMeat] += 0.3
		scores[models.CategoryVegetables] += 0.2
		scores[models.CategoryPantry] += 0.2
	}
	if packagingRe.MatchString(text) {
		scores[models.CategoryPantry] += 0.2
		scores[models.CategoryBeverages] += 0.1
	}
	if freshnessRe.MatchString(text) {
		scores[models.CategoryVegetables] += 0.3
		scores[models.CategoryFruits] += 0.3
		scores[models.CategoryMeat] += 0.2
	}
	if prepRe.MatchString(text) {
		scores[models.CategoryFrozen] += 0.4
		scores[models.CategoryPantry] += 0.2
	}

	best := normalizedBestRaw(scores)
	return best
}

// normalizedBest scales the winning score by the maximum so the result is a
// relative confidence in [0, 1].
func normalizedBest(scores map[models.Category]float64) Result {
	if len(scores) == 0 {
		return Result{Category: models.CategoryUnknown}
	}
	max := 0.0
	for _, score := range scores {
		if score > max {
			max = score
		}
	}
	if max == 0 {
		return Result{Category: models.CategoryUnknown}
	}
	normalized := make(map[models.Category]float64, len(scores))
	for category, score := range scores {
		normalized[category] = score / max
	}
	return rank(normalized)[0]
}

func normalizedBestRaw(scores map[models.Category]float64) Result {
	if len(scores) == 0 {
		return Result{Category: models.CategoryUnknown}
	}
	return rank(scores)[0]
}

func excluded(text string, category models.Category) bool {
	patterns, ok := exclusionPatterns[category]
	if !ok {
		return false
	}
	for _, pattern := range patterns {
		if pattern.MatchString(text) {
			return true
		}
	}
	return false
}

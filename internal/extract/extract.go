// Package extract holds the pure extraction primitives shared by every site
// strategy: price-text normalization, weight/unit parsing, URL resolution and
// text cleaning. No I/O happens here.
package extract

import (
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/antzucaro/matchr"
)

var (
	priceCharsRe  = regexp.MustCompile(`[^\d.,]`)
	weightRe      = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(kg|kilogram|g|gram|l|liter|litre|ml|milliliter|oz|lb|pound)s?\b`)
	externalIDRes = []*regexp.Regexp{
		regexp.MustCompile(`/products?/(\d+)`),
		regexp.MustCompile(`/item/(\d+)`),
		regexp.MustCompile(`[?&]id=(\d+)`),
		regexp.MustCompile(`/(\d+)/?$`),
	}
	wordRe = regexp.MustCompile(`[^\w]+`)
)

var unitAliases = map[string]string{
	"kilogram":   "kg",
	"gram":       "g",
	"liter":      "l",
	"litre":      "l",
	"milliliter": "ml",
	"pound":      "lb",
}

// CleanPrice parses free-form price text ("EGP 1,299.50", "45,50") into a
// float rounded to two decimals. Unparseable input yields 0, which callers
// treat as "no price".
func CleanPrice(text string) float64 {
	cleaned := priceCharsRe.ReplaceAllString(strings.TrimSpace(text), "")
	if cleaned == "" {
		return 0
	}

	switch {
	case strings.Contains(cleaned, ",") && strings.Contains(cleaned, "."):
		// Both separators present: the last one is the decimal point.
		if strings.LastIndex(cleaned, ",") > strings.LastIndex(cleaned, ".") {
			cleaned = strings.ReplaceAll(cleaned, ".", "")
			cleaned = strings.Replace(cleaned, ",", ".", 1)
		} else {
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		}
	case strings.Count(cleaned, ",") == 1:
		// A single comma followed by at most two digits is a decimal
		// separator, otherwise thousands.
		parts := strings.SplitN(cleaned, ",", 2)
		if len(parts[1]) <= 2 {
			cleaned = parts[0] + "." + parts[1]
		} else {
			cleaned = parts[0] + parts[1]
		}
	default:
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	}

	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return math.Round(value*100) / 100
}

// CleanText collapses whitespace and trims the input.
func CleanText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// ParseWeight extracts the first weight/volume token from text, returning
// the value and a normalized unit. Returns (0, "") when none is present.
func ParseWeight(text string) (float64, string) {
	match := weightRe.FindStringSubmatch(strings.ToLower(text))
	if match == nil {
		return 0, ""
	}
	value, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return 0, ""
	}
	unit := match[2]
	if normalized, ok := unitAliases[unit]; ok {
		unit = normalized
	}
	return value, unit
}

// PricePerStandardUnit converts a listing price into price per kg (mass) or
// per litre (volume). Unknown units return 0.
func PricePerStandardUnit(price, weightValue float64, weightUnit string) float64 {
	if price <= 0 || weightValue <= 0 {
		return 0
	}

	var standard float64
	switch weightUnit {
	case "kg", "l":
		standard = weightValue
	case "g", "ml":
		standard = weightValue / 1000
	case "lb":
		standard = weightValue * 0.453592
	case "oz":
		standard = weightValue * 0.0283495
	default:
		return 0
	}
	if standard <= 0 {
		return 0
	}
	return math.Round(price/standard*100) / 100
}

// AbsoluteURL resolves href against base, passing absolute URLs through
// unchanged. Unresolvable input yields "".
func AbsoluteURL(base, href string) string {
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return baseURL.ResolveReference(ref).String()
}

// ExternalID pulls a site-assigned numeric product id out of a listing URL.
func ExternalID(rawURL string) string {
	if rawURL == "" {
		return ""
	}
	for _, re := range externalIDRes {
		if match := re.FindStringSubmatch(rawURL); match != nil {
			return match[1]
		}
	}
	return ""
}

var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "or": {}, "with": {}, "from": {}, "per": {}, "pack": {},
}

// Keywords tokenizes a product name into search keywords: lowercase words of
// three or more letters, stop words and bare numbers dropped, capped at ten.
func Keywords(name string) []string {
	if name == "" {
		return nil
	}
	var keywords []string
	for _, word := range wordRe.Split(strings.ToLower(name), -1) {
		if len(word) <= 2 {
			continue
		}
		if _, stop := stopWords[word]; stop {
			continue
		}
		if _, err := strconv.Atoi(word); err == nil {
			continue
		}
		keywords = append(keywords, word)
		if len(keywords) == 10 {
			break
		}
	}
	return keywords
}

var (
	unitTokenRe   = regexp.MustCompile(`\b(pack|pcs|pieces|kg|g|ml|l)\b`)
	punctRe       = regexp.MustCompile(`[^\w\s]`)
	digitLetterRe = regexp.MustCompile(`(\d)([a-z])`)
)

// NormalizeName produces the canonical comparison form of a product name:
// lowercase, glued quantity suffixes split ("500g" -> "500 g"), unit/pack
// tokens and punctuation stripped, whitespace collapsed. Both deduplication
// and fuzzy matching key off this form.
func NormalizeName(name string) string {
	normalized := strings.ToLower(CleanText(name))
	normalized = digitLetterRe.ReplaceAllString(normalized, "$1 $2")
	normalized = unitTokenRe.ReplaceAllString(normalized, "")
	normalized = punctRe.ReplaceAllString(normalized, "")
	return CleanText(normalized)
}

// tokenSimilarityFloor is the JaroWinkler score at which two tokens count as
// the same word, absorbing singular/plural and minor spelling drift.
const tokenSimilarityFloor = 0.9

// Jaccard computes token-set similarity between two normalized names.
// Tokens count as shared when equal or near-equal under JaroWinkler.
func Jaccard(a, b string) float64 {
	tokensA := strings.Fields(a)
	tokensB := strings.Fields(b)
	if len(tokensA) == 0 || len(tokensB) == 0 {
		return 0
	}

	matchedB := make([]bool, len(tokensB))
	intersection := 0
	for _, tokenA := range tokensA {
		for j, tokenB := range tokensB {
			if matchedB[j] {
				continue
			}
			if tokenA == tokenB || matchr.JaroWinkler(tokenA, tokenB, false) >= tokenSimilarityFloor {
				matchedB[j] = true
				intersection++
				break
			}
		}
	}

	union := len(tokensA) + len(tokensB) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

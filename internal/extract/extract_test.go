package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanPrice(t *testing.T) {
	tests := []struct {
		input    string
		expected float64
	}{
		{"EGP 24.99", 24.99},
		{"1,299.50", 1299.50},
		{"45,50", 45.50},
		{"1.234,56", 1234.56},
		{"  20 ", 20},
		{"free", 0},
		{"", 0},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, CleanPrice(tt.input))
		})
	}
}

func TestCleanText(t *testing.T) {
	assert.Equal(t, "Fresh Tomatoes 1kg", CleanText("  Fresh \n Tomatoes\t1kg "))
	assert.Equal(t, "", CleanText("   "))
}

func TestParseWeight(t *testing.T) {
	tests := []struct {
		input        string
		expectedVal  float64
		expectedUnit string
	}{
		{"Cherry Tomatoes 500g", 500, "g"},
		{"Milk 1.5 Liter", 1.5, "l"},
		{"Rice 5 kg bag", 5, "kg"},
		{"Water 600ml", 600, "ml"},
		{"Ground Beef 1 lb", 1, "lb"},
		{"Bananas", 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			value, unit := ParseWeight(tt.input)
			assert.Equal(t, tt.expectedVal, value)
			assert.Equal(t, tt.expectedUnit, unit)
		})
	}
}

func TestPricePerStandardUnit(t *testing.T) {
	assert.Equal(t, 40.0, PricePerStandardUnit(20, 500, "g"))
	assert.Equal(t, 10.0, PricePerStandardUnit(20, 2, "kg"))
	assert.Equal(t, 30.0, PricePerStandardUnit(15, 500, "ml"))
	assert.Equal(t, 0.0, PricePerStandardUnit(15, 2, "bunch"))
	assert.Equal(t, 0.0, PricePerStandardUnit(0, 2, "kg"))
}

func TestAbsoluteURL(t *testing.T) {
	base := "https://gourmetegypt.com/"

	assert.Equal(t, "https://gourmetegypt.com/collections/dairy", AbsoluteURL(base, "/collections/dairy"))
	assert.Equal(t, "https://cdn.example.com/x.jpg", AbsoluteURL(base, "https://cdn.example.com/x.jpg"))
	assert.Equal(t, "", AbsoluteURL(base, ""))
}

func TestExternalID(t *testing.T) {
	tests := []struct {
		url      string
		expected string
	}{
		{"https://example.com/products/12345", "12345"},
		{"https://example.com/item/678", "678"},
		{"https://example.com/p?id=42", "42"},
		{"https://example.com/catalog/991/", "991"},
		{"https://example.com/about", ""},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, ExternalID(tt.url), tt.url)
	}
}

func TestKeywords(t *testing.T) {
	keywords := Keywords("Fresh Cherry Tomatoes 500 Pack, from the farm")
	assert.Equal(t, []string{"fresh", "cherry", "tomatoes", "farm"}, keywords)

	assert.Nil(t, Keywords(""))

	long := Keywords("alpha bravo charlie delta echo foxtrot golf hotel india juliet kilo lima")
	assert.Len(t, long, 10)
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "tomato 1", NormalizeName("Tomato 1kg"))
	assert.Equal(t, NormalizeName("Tomato 1kg"), NormalizeName("tomato  1KG"))
	assert.Equal(t, "cherry tomatoes 500", NormalizeName("Cherry Tomatoes, 500g"))
	assert.Equal(t, "cherry tomato 500", NormalizeName("cherry tomato 500 g"))
}

func TestJaccard(t *testing.T) {
	a := NormalizeName("cherry tomatoes 500g")
	b := NormalizeName("cherry tomatoes 500 g")
	assert.GreaterOrEqual(t, Jaccard(a, b), 0.8)

	c := NormalizeName("cherry tomatoes")
	d := NormalizeName("beef tomatoes")
	assert.Less(t, Jaccard(c, d), 0.8)

	assert.Equal(t, 0.0, Jaccard("", "tomato"))
	assert.Equal(t, 1.0, Jaccard("tomato fresh", "fresh tomato"))
}

package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pricecart/pricecart/internal/models"
)

func TestClassifyBrandShortCircuit(t *testing.T) {
	result := Classify("Almarai Full Fat Milk 1L", "", "Almarai", "")

	assert.Equal(t, models.CategoryDairy, result.Category)
	assert.Greater(t, result.Confidence, 0.8)
}

func TestClassifyBrandFromName(t *testing.T) {
	// Brand not passed separately, only embedded in the name.
	result := Classify("Almarai Full Fat Milk 1L", "", "", "")

	assert.Equal(t, models.CategoryDairy, result.Category)
	assert.Greater(t, result.Confidence, 0.8)
}

func TestClassifyDeterminism(t *testing.T) {
	first := Classify("Almarai Full Fat Milk 1L", "", "", "")
	for i := 0; i < 50; i++ {
		again := Classify("Almarai Full Fat Milk 1L", "", "", "")
		assert.Equal(t, first, again)
	}
}

func TestClassifyByKeywords(t *testing.T) {
	tests := []struct {
		name     string
		expected models.Category
	}{
		{"Fresh Tomatoes Bunch", models.CategoryVegetables},
		{"Red Apples 1kg", models.CategoryFruits},
		{"Chicken Breast Fillet", models.CategoryMeat},
		{"Baladi Bread Pack", models.CategoryBakery},
		{"Orange Juice 1L", models.CategoryBeverages},
		{"Basmati Rice 5kg", models.CategoryPantry},
		{"Salted Potato Chips", models.CategorySnacks},
		{"Vanilla Ice Cream Tub", models.CategoryFrozen},
		{"Laundry Detergent Powder", models.CategoryHousehold},
		{"Anti-Dandruff Shampoo", models.CategoryPersonalCare},
		{"Baby Diapers Size 4", models.CategoryBabyCare},
		{"Vitamin C Tablets", models.CategoryHealth},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Classify(tt.name, "", "", "")
			assert.Equal(t, tt.expected, result.Category)
			assert.Greater(t, result.Confidence, 0.0)
		})
	}
}

func TestKeywordVariantsScoreOnce(t *testing.T) {
	// Singular and plural forms of one noun are one signal; the
	// product-type word still decides the category.
	assert.Equal(t, models.CategoryBeverages, classifyByKeywords("orange juice 1l").Category)
	assert.Equal(t, models.CategorySnacks, classifyByKeywords("salted potato chips").Category)
}

func TestClassifyArabicKeywords(t *testing.T) {
	tests := []struct {
		name     string
		expected models.Category
	}{
		{"طماطم بلدي طازة", models.CategoryVegetables},
		{"عصير مانجو", models.CategoryBeverages},
		{"جبنة رومي", models.CategoryDairy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Classify(tt.name, "", "", "")
			assert.Equal(t, tt.expected, result.Category)
		})
	}
}

func TestClassifyStoreCategoryHint(t *testing.T) {
	result := Classify("Mixed Basket", "", "", "dairy")
	assert.Equal(t, models.CategoryDairy, result.Category)
	assert.GreaterOrEqual(t, result.Confidence, 0.7)
}

func TestStoreHintPartialMatchDoesNotShortCircuit(t *testing.T) {
	// A truncated store label only partially matches a known label. That
	// weak hint must not pre-empt the weighted signals.
	result := Classify("Chocolate Wafers Pack", "", "", "dair")
	assert.Equal(t, models.CategorySnacks, result.Category)
}

func TestClassifyExclusionVeto(t *testing.T) {
	// "chicken" scores meat, but soap in the text vetoes a meat result.
	result := Classify("Chicken scented soap bar", "", "", "")
	assert.NotEqual(t, models.CategoryMeat, result.Category)
}

func TestClassifyUnknown(t *testing.T) {
	assert.Equal(t, models.CategoryUnknown, Classify("", "", "", "").Category)
	assert.Equal(t, models.CategoryUnknown, Classify("zzqx", "", "", "").Category)
}

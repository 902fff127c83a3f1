package scraper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFactory(t *testing.T) {
	for _, id := range Identifiers() {
		strategy, err := New(id)
		require.NoError(t, err)
		assert.Equal(t, id, strategy.Name())
	}

	_, err := New("carrefour")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownScraper)
}

func TestIdentifiersSorted(t *testing.T) {
	assert.Equal(t, []string{"breadfast", "gourmet", "spinneys"}, Identifiers())
}

package scraper

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownScraper is returned when no strategy exists for an identifier.
var ErrUnknownScraper = errors.New("unknown scraper identifier")

var strategies = map[string]func() Strategy{
	"spinneys":  func() Strategy { return NewSpinneysStrategy() },
	"gourmet":   func() Strategy { return NewGourmetStrategy() },
	"breadfast": func() Strategy { return NewBreadfastStrategy() },
}

// New builds the strategy for the given store identifier.
func New(identifier string) (Strategy, error) {
	build, ok := strategies[identifier]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownScraper, identifier)
	}
	return build(), nil
}

// Identifiers returns the supported store identifiers in sorted order.
func Identifiers() []string {
	ids := make([]string, 0, len(strategies))
	for id := range strategies {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

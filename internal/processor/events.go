package processor

import "github.com/pricecart/pricecart/internal/models"

// Outbox event types emitted during reconciliation. The relay publishes them
// to the message stream after the transaction commits.
const (
	EventProductCreated = "product.created"
	EventPriceChanged   = "price.changed"
)

type ProductCreatedEvent struct {
	ProductID int64           `json:"product_id"`
	StoreID   int64           `json:"store_id"`
	Name      string          `json:"name"`
	Category  models.Category `json:"category"`
}

type PriceChangedEvent struct {
	ProductID        int64             `json:"product_id"`
	StoreID          int64             `json:"store_id"`
	OldPrice         float64           `json:"old_price"`
	NewPrice         float64           `json:"new_price"`
	ChangeType       models.ChangeType `json:"change_type"`
	ChangePercentage float64           `json:"change_percentage"`
}

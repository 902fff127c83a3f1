package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/pricecart/pricecart/internal/models"
	"github.com/pricecart/pricecart/internal/processor"
)

// CatalogRepo is the pgx-backed implementation of the processor's
// persistence surface. One reconciliation run maps to one transaction.
type CatalogRepo struct {
	db *DB
}

func NewCatalogRepo(db *DB) *CatalogRepo {
	return &CatalogRepo{db: db}
}

// InTx runs fn against a transaction-scoped catalog view.
func (r *CatalogRepo) InTx(ctx context.Context, fn func(processor.Catalog) error) error {
	return r.db.WithTx(ctx, func(tx pgx.Tx) error {
		return fn(&txCatalog{tx: tx})
	})
}

// UpdateStoreStats bumps the store's scrape counters outside the
// reconciliation transaction so a rolled-back run still counts as failed.
func (r *CatalogRepo) UpdateStoreStats(ctx context.Context, storeID int64, success bool, at time.Time) error {
	query := `
		UPDATE stores SET
			total_scrapes = total_scrapes + 1,
			failed_scrapes = failed_scrapes + CASE WHEN $2 THEN 0 ELSE 1 END,
			consecutive_failures = CASE WHEN $2 THEN 0 ELSE consecutive_failures + 1 END,
			last_scraped_at = $3,
			success_rate = (total_scrapes + 1 - failed_scrapes - CASE WHEN $2 THEN 0 ELSE 1 END)::float / (total_scrapes + 1)
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, storeID, success, at)
	if err != nil {
		return fmt.Errorf("failed to update store stats: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("store not found: %d", storeID)
	}
	return nil
}

// txCatalog scopes catalog reads and writes to one transaction.
type txCatalog struct {
	tx pgx.Tx
}

const productColumns = `id, store_id, external_id, name, category, subcategory, brand,
	unit, weight, description, image_url, keywords, is_active, created_at, updated_at`

func (c *txCatalog) ProductsByStore(ctx context.Context, storeID int64) ([]models.Product, error) {
	query := `SELECT ` + productColumns + `
		FROM products
		WHERE store_id = $1 AND is_active
		ORDER BY id`

	rows, err := c.tx.Query(ctx, query, storeID)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		var p models.Product
		if err := scanProduct(rows, &p); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating products: %w", err)
	}
	return products, nil
}

func scanProduct(row pgx.Row, p *models.Product) error {
	return row.Scan(
		&p.ID, &p.StoreID, &p.ExternalID, &p.Name, &p.Category, &p.Subcategory,
		&p.Brand, &p.Unit, &p.Weight, &p.Description, &p.ImageURL, &p.Keywords,
		&p.IsActive, &p.CreatedAt, &p.UpdatedAt,
	)
}

func (c *txCatalog) CreateProduct(ctx context.Context, p *models.Product) error {
	query := `
		INSERT INTO products (
			store_id, external_id, name, category, subcategory, brand,
			unit, weight, description, image_url, keywords, is_active,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id`

	err := c.tx.QueryRow(ctx, query,
		p.StoreID, p.ExternalID, p.Name, p.Category, p.Subcategory, p.Brand,
		p.Unit, p.Weight, p.Description, p.ImageURL, p.Keywords, p.IsActive,
		p.CreatedAt, p.UpdatedAt,
	).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("failed to insert product: %w", err)
	}
	return nil
}

func (c *txCatalog) UpdateProduct(ctx context.Context, p *models.Product) error {
	query := `
		UPDATE products SET
			external_id = $2,
			category = $3,
			subcategory = $4,
			brand = $5,
			unit = $6,
			weight = $7,
			description = $8,
			image_url = $9,
			keywords = $10,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $1`

	tag, err := c.tx.Exec(ctx, query,
		p.ID, p.ExternalID, p.Category, p.Subcategory, p.Brand,
		p.Unit, p.Weight, p.Description, p.ImageURL, p.Keywords,
	)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("product not found: %d", p.ID)
	}
	return nil
}

func (c *txCatalog) CurrentPrice(ctx context.Context, productID, storeID int64) (*models.PriceRecord, error) {
	query := `
		SELECT id, product_id, store_id, price, original_price, price_per_unit,
			discount_percentage, pack_size, pack_unit, weight_value, weight_unit,
			is_available, is_discounted, is_on_sale, source_url, image_url, scraped_at
		FROM prices
		WHERE product_id = $1 AND store_id = $2`

	var p models.PriceRecord
	err := c.tx.QueryRow(ctx, query, productID, storeID).Scan(
		&p.ID, &p.ProductID, &p.StoreID, &p.Price, &p.OriginalPrice, &p.PricePerUnit,
		&p.DiscountPercentage, &p.PackSize, &p.PackUnit, &p.WeightValue, &p.WeightUnit,
		&p.IsAvailable, &p.IsDiscounted, &p.IsOnSale, &p.SourceURL, &p.ImageURL, &p.ScrapedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query current price: %w", err)
	}
	return &p, nil
}

// SavePrice upserts the single current price row per (product, store) pair.
func (c *txCatalog) SavePrice(ctx context.Context, p *models.PriceRecord) error {
	query := `
		INSERT INTO prices (
			product_id, store_id, price, original_price, price_per_unit,
			discount_percentage, pack_size, pack_unit, weight_value, weight_unit,
			is_available, is_discounted, is_on_sale, source_url, image_url, scraped_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (product_id, store_id) DO UPDATE SET
			price = EXCLUDED.price,
			original_price = EXCLUDED.original_price,
			price_per_unit = EXCLUDED.price_per_unit,
			discount_percentage = EXCLUDED.discount_percentage,
			pack_size = EXCLUDED.pack_size,
			pack_unit = EXCLUDED.pack_unit,
			weight_value = EXCLUDED.weight_value,
			weight_unit = EXCLUDED.weight_unit,
			is_available = EXCLUDED.is_available,
			is_discounted = EXCLUDED.is_discounted,
			is_on_sale = EXCLUDED.is_on_sale,
			source_url = EXCLUDED.source_url,
			image_url = EXCLUDED.image_url,
			scraped_at = EXCLUDED.scraped_at
		RETURNING id`

	err := c.tx.QueryRow(ctx, query,
		p.ProductID, p.StoreID, p.Price, p.OriginalPrice, p.PricePerUnit,
		p.DiscountPercentage, p.PackSize, p.PackUnit, p.WeightValue, p.WeightUnit,
		p.IsAvailable, p.IsDiscounted, p.IsOnSale, p.SourceURL, p.ImageURL, p.ScrapedAt,
	).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("failed to save price: %w", err)
	}
	return nil
}

func (c *txCatalog) AppendHistory(ctx context.Context, e *models.PriceHistoryEntry) error {
	query := `
		INSERT INTO price_history (
			product_id, store_id, price, original_price, price_per_unit,
			discount_percentage, pack_size, pack_unit, is_available, is_discounted,
			change_type, change_amount, change_percentage, recorded_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id`

	err := c.tx.QueryRow(ctx, query,
		e.ProductID, e.StoreID, e.Price, e.OriginalPrice, e.PricePerUnit,
		e.DiscountPercentage, e.PackSize, e.PackUnit, e.IsAvailable, e.IsDiscounted,
		e.ChangeType, e.ChangeAmount, e.ChangePercentage, e.RecordedAt,
	).Scan(&e.ID)
	if err != nil {
		return fmt.Errorf("failed to append price history: %w", err)
	}
	return nil
}

// AppendEvent stages an outbox event inside the reconciliation transaction
// so it commits or rolls back with the catalog mutations it describes.
func (c *txCatalog) AppendEvent(ctx context.Context, eventType string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}
	event := &OutboxEvent{
		EventType: eventType,
		Payload:   raw,
	}
	return insertOutboxEvent(ctx, c.tx, event)
}

package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/pricecart/pricecart/internal/models"
)

const storeColumns = `id, name, scraper_id, base_url, is_active, scrape_interval_hours,
	last_scraped_at, total_scrapes, failed_scrapes, consecutive_failures, success_rate`

// ActiveStores returns every store enabled for scraping.
func (db *DB) ActiveStores(ctx context.Context) ([]models.Store, error) {
	query := `SELECT ` + storeColumns + ` FROM stores WHERE is_active ORDER BY id`

	rows, err := db.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query stores: %w", err)
	}
	defer rows.Close()

	var stores []models.Store
	for rows.Next() {
		var s models.Store
		if err := scanStore(rows, &s); err != nil {
			return nil, fmt.Errorf("failed to scan store: %w", err)
		}
		stores = append(stores, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating stores: %w", err)
	}
	return stores, nil
}

// StoreByID returns nil without an error when the store does not exist.
func (db *DB) StoreByID(ctx context.Context, id int64) (*models.Store, error) {
	query := `SELECT ` + storeColumns + ` FROM stores WHERE id = $1`

	var s models.Store
	err := scanStore(db.pool.QueryRow(ctx, query, id), &s)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query store: %w", err)
	}
	return &s, nil
}

func scanStore(row pgx.Row, s *models.Store) error {
	return row.Scan(
		&s.ID, &s.Name, &s.ScraperID, &s.BaseURL, &s.IsActive, &s.ScrapeIntervalHours,
		&s.LastScrapedAt, &s.TotalScrapes, &s.FailedScrapes, &s.ConsecutiveFailures,
		&s.SuccessRate,
	)
}

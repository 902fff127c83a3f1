package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Retention prunes rows past their useful life: price history beyond the
// retention window, outbox events that already reached the stream, and
// products with no sighting inside the window, which are soft-deactivated
// (never deleted, history still references them).
type Retention struct {
	db     *DB
	window time.Duration
	logger *slog.Logger
}

func NewRetention(db *DB, window time.Duration) *Retention {
	return &Retention{
		db:     db,
		window: window,
		logger: slog.Default().With("component", "retention"),
	}
}

// Run performs one cleanup pass.
func (r *Retention) Run(ctx context.Context) error {
	cutoff := time.Now().UTC().Add(-r.window)

	historyTag, err := r.db.Exec(ctx,
		`DELETE FROM price_history WHERE recorded_at < $1`, cutoff)
	if err != nil {
		return fmt.Errorf("failed to delete old price history: %w", err)
	}

	outboxTag, err := r.db.Exec(ctx,
		`DELETE FROM outbox_events WHERE status = $1 AND processed_at < $2`,
		OutboxStatusProcessed, cutoff)
	if err != nil {
		return fmt.Errorf("failed to delete processed outbox events: %w", err)
	}

	productTag, err := r.db.Exec(ctx, `
		UPDATE products p SET is_active = false, updated_at = CURRENT_TIMESTAMP
		WHERE p.is_active
			AND NOT EXISTS (
				SELECT 1 FROM prices pr
				WHERE pr.product_id = p.id AND pr.scraped_at >= $1
			)`, cutoff)
	if err != nil {
		return fmt.Errorf("failed to deactivate stale products: %w", err)
	}

	r.logger.Info("retention cleanup finished",
		"cutoff", cutoff,
		"history_deleted", historyTag.RowsAffected(),
		"outbox_deleted", outboxTag.RowsAffected(),
		"products_deactivated", productTag.RowsAffected())
	return nil
}

// Start runs cleanup passes on the given interval until ctx is cancelled.
func (r *Retention) Start(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := r.Run(ctx); err != nil {
				r.logger.Error("retention cleanup failed", "error", err)
			}
		}
	}
}

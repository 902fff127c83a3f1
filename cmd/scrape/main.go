// Command scrape runs one store end to end from the command line: scrape,
// reconcile, print the stats. Useful for testing a strategy against the live
// site without the server.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/pricecart/pricecart/internal/browser"
	"github.com/pricecart/pricecart/internal/config"
	"github.com/pricecart/pricecart/internal/database"
	"github.com/pricecart/pricecart/internal/processor"
	"github.com/pricecart/pricecart/internal/scraper"
)

func main() {
	storeID := flag.Int64("store", 0, "store id to scrape")
	scraperID := flag.String("scraper", "", "scraper identifier (overrides the store's configured one)")
	dryRun := flag.Bool("dry-run", false, "scrape only, skip reconciliation")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, *storeID, *scraperID, *dryRun); err != nil {
		logger.Error("scrape failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, storeID int64, scraperID string, dryRun bool) error {
	if !dryRun && storeID == 0 {
		return fmt.Errorf("-store is required unless -dry-run is set")
	}

	var db *database.DB
	if !dryRun {
		var err error
		db, err = database.New(ctx, database.Config{
			Host:        cfg.Database.Host,
			Port:        cfg.Database.Port,
			User:        cfg.Database.User,
			Password:    cfg.Database.Password,
			Database:    cfg.Database.Database,
			MaxConns:    cfg.Database.MaxConns,
			MinConns:    cfg.Database.MinConns,
			MaxConnLife: cfg.Database.MaxConnLife,
			MaxConnIdle: cfg.Database.MaxConnIdle,
		})
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()

		if scraperID == "" {
			store, err := db.StoreByID(ctx, storeID)
			if err != nil {
				return err
			}
			if store == nil {
				return fmt.Errorf("store %d not found", storeID)
			}
			scraperID = store.ScraperID
		}
	}
	if scraperID == "" {
		return fmt.Errorf("-scraper is required in dry-run mode")
	}

	strategy, err := scraper.New(scraperID)
	if err != nil {
		return err
	}

	opts := browser.DefaultOptions()
	opts.Headless = cfg.Browser.Headless
	opts.Timeout = cfg.Browser.Timeout

	report, err := scraper.NewOrchestrator(strategy, storeID, opts).Run(ctx)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return err
	}

	if dryRun {
		return nil
	}

	stats, err := processor.New(database.NewCatalogRepo(db)).Process(ctx, storeID, report)
	if err != nil {
		return err
	}
	return enc.Encode(stats)
}

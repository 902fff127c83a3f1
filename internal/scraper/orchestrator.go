package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"github.com/playwright-community/playwright-go"

	"github.com/pricecart/pricecart/internal/browser"
	"github.com/pricecart/pricecart/internal/models"
)

const (
	navigationRetries  = 2
	gridWaitTimeout    = 10 * time.Second
	scrollSettleDelay  = 2 * time.Second
	loadMoreClickDelay = 1500 * time.Millisecond
	scrollScript       = "window.scrollTo(0, document.body.scrollHeight)"
	scrollHeightScript = "document.body.scrollHeight"
)

// Orchestrator drives one strategy through a complete scraping run: one
// browser session, every category target, pagination, extraction and
// validation. Strategies contribute only selectors and field mapping.
type Orchestrator struct {
	strategy    Strategy
	storeID     int64
	browserOpts *browser.Options
	logger      *slog.Logger
}

func NewOrchestrator(strategy Strategy, storeID int64, browserOpts *browser.Options) *Orchestrator {
	return &Orchestrator{
		strategy:    strategy,
		storeID:     storeID,
		browserOpts: browserOpts,
		logger:      slog.Default().With("component", "orchestrator", "store", strategy.Name()),
	}
}

// Run executes one complete scraping run. A session setup failure is fatal;
// per-target failures are recorded in the report and the run continues with
// the remaining targets. Success means at least one valid record survived.
func (o *Orchestrator) Run(ctx context.Context) (*models.RunReport, error) {
	report := &models.RunReport{
		RunID:     uuid.New().String(),
		StoreID:   o.storeID,
		StartedAt: time.Now().UTC(),
	}

	session, err := browser.NewSession(o.browserOpts)
	if err != nil {
		report.Errors = append(report.Errors, err.Error())
		report.DurationSeconds = time.Since(report.StartedAt).Seconds()
		return report, fmt.Errorf("run %s: %w", report.RunID, err)
	}
	defer func() {
		if cerr := session.Close(); cerr != nil {
			o.logger.Warn("session close failed", "run_id", report.RunID, "error", cerr)
		}
	}()

	targets := o.strategy.ListCategoryTargets()
	o.logger.Info("starting run", "run_id", report.RunID, "targets", len(targets))

	for _, target := range targets {
		select {
		case <-ctx.Done():
			report.Errors = append(report.Errors, ctx.Err().Error())
			report.DurationSeconds = time.Since(report.StartedAt).Seconds()
			return report, ctx.Err()
		default:
		}

		records, err := o.scrapeTarget(ctx, session, target)
		if err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", target.URL, err))
			o.logger.Warn("target failed", "run_id", report.RunID, "url", target.URL, "error", err)
			continue
		}
		report.PagesScraped++

		for _, rec := range records {
			if !rec.Valid() {
				report.InvalidDropped++
				continue
			}
			report.Records = append(report.Records, rec)
		}
	}

	report.RecordCount = len(report.Records)
	report.Success = report.RecordCount > 0
	report.DurationSeconds = time.Since(report.StartedAt).Seconds()

	o.logger.Info("run finished",
		"run_id", report.RunID,
		"success", report.Success,
		"records", report.RecordCount,
		"invalid_dropped", report.InvalidDropped,
		"pages", report.PagesScraped,
		"errors", len(report.Errors),
		"duration_seconds", report.DurationSeconds)

	return report, nil
}

func (o *Orchestrator) scrapeTarget(ctx context.Context, session *browser.Session, target CategoryTarget) ([]models.ScrapedRecord, error) {
	page, err := session.NewPage()
	if err != nil {
		return nil, err
	}
	defer page.Close()

	if err := session.Navigate(ctx, page, target.URL, navigationRetries); err != nil {
		return nil, err
	}

	gridSelector, err := o.waitForGrid(page)
	if err != nil {
		return nil, err
	}

	if err := o.paginate(ctx, page); err != nil {
		// Pagination failures are not fatal: extract what loaded.
		o.logger.Warn("pagination stopped early", "url", target.URL, "error", err)
	}

	html, err := page.Content()
	if err != nil {
		return nil, fmt.Errorf("failed to read page content: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page content: %w", err)
	}

	var records []models.ScrapedRecord
	doc.Find(gridSelector).Each(func(_ int, sel *goquery.Selection) {
		if rec := o.strategy.ExtractFromElement(sel, target); rec != nil {
			records = append(records, *rec)
		}
	})

	o.logger.Debug("target extracted", "url", target.URL, "category", target.Category, "records", len(records))
	return records, nil
}

// waitForGrid tries the strategy's grid selector candidates in order and
// returns the first one that appears. A page where no candidate matches is
// reported as a failed target, not a failed run.
func (o *Orchestrator) waitForGrid(page playwright.Page) (string, error) {
	for _, selector := range o.strategy.GridSelectors() {
		_, err := page.WaitForSelector(selector, playwright.PageWaitForSelectorOptions{
			Timeout: playwright.Float(float64(gridWaitTimeout.Milliseconds())),
			State:   playwright.WaitForSelectorStateAttached,
		})
		if err == nil {
			return selector, nil
		}
	}
	return "", errors.New("no listing grid found on page")
}

// paginate scrolls to the bottom, clicks any load-more control the strategy
// declares and repeats until the page stops growing or the round cap is hit.
func (o *Orchestrator) paginate(ctx context.Context, page playwright.Page) error {
	pagination := o.strategy.Pagination()
	lastHeight := o.scrollHeight(page)

	for round := 0; round < pagination.MaxRounds; round++ {
		if _, err := page.Evaluate(scrollScript); err != nil {
			return fmt.Errorf("scroll failed: %w", err)
		}
		if err := sleepCtx(ctx, scrollSettleDelay); err != nil {
			return err
		}

		if clicked := o.clickLoadMore(page, pagination.LoadMoreSelectors); clicked {
			if err := sleepCtx(ctx, loadMoreClickDelay); err != nil {
				return err
			}
		}

		height := o.scrollHeight(page)
		if height <= lastHeight {
			return nil
		}
		lastHeight = height
	}
	return nil
}

func (o *Orchestrator) clickLoadMore(page playwright.Page, selectors []string) bool {
	for _, selector := range selectors {
		loc := page.Locator(selector)
		count, err := loc.Count()
		if err != nil || count == 0 {
			continue
		}
		if err := loc.First().Click(playwright.LocatorClickOptions{
			Timeout: playwright.Float(3000),
		}); err != nil {
			o.logger.Debug("load-more click failed", "selector", selector, "error", err)
			continue
		}
		return true
	}
	return false
}

func (o *Orchestrator) scrollHeight(page playwright.Page) int {
	result, err := page.Evaluate(scrollHeightScript)
	if err != nil {
		return 0
	}
	switch v := result.(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return 0
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// Package browser owns the browser-automation session used by one scraping
// run: navigation with retry and backoff, failure classification, request
// throttling and guaranteed teardown.
package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"
)

var (
	ErrSessionSetup      = errors.New("browser session setup failed")
	ErrNavigationTimeout = errors.New("navigation timed out")
	ErrNavigationFailed  = errors.New("navigation failed")
	ErrHTTPStatus        = errors.New("navigation returned error status")
)

// Session wraps one playwright browser context. One session serves one
// scraping run and must be closed on every exit path.
type Session struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext
	opts    *Options
	logger  *slog.Logger
}

type Options struct {
	Headless       bool
	Timeout        time.Duration
	UserAgent      string
	ViewportWidth  int
	ViewportHeight int
	Locale         string
	TimezoneID     string
	// DelayMin/DelayMax bound the jittered throttle delay inserted after
	// every successful navigation.
	DelayMin time.Duration
	DelayMax time.Duration
	// RetryBaseDelay seeds the exponential backoff between navigation
	// attempts (base * 2^attempt).
	RetryBaseDelay time.Duration
}

func DefaultOptions() *Options {
	return &Options{
		Headless:       true,
		Timeout:        30 * time.Second,
		UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		ViewportWidth:  1920,
		ViewportHeight: 1080,
		Locale:         "en-US",
		TimezoneID:     "Africa/Cairo",
		DelayMin:       1 * time.Second,
		DelayMax:       3 * time.Second,
		RetryBaseDelay: 1 * time.Second,
	}
}

// NewSession starts playwright, launches the browser and creates a context.
// Partially initialized resources are torn down before returning an error.
func NewSession(opts *Options) (*Session, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to start playwright: %v", ErrSessionSetup, err)
	}

	launchOpts := playwright.BrowserTypeLaunchOptions{
		Headless: &opts.Headless,
		Args: []string{
			"--disable-blink-features=AutomationControlled",
			"--disable-dev-shm-usage",
			"--no-sandbox",
		},
	}

	b, err := pw.Chromium.Launch(launchOpts)
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("%w: failed to launch browser: %v", ErrSessionSetup, err)
	}

	ctx, err := b.NewContext(playwright.BrowserNewContextOptions{
		UserAgent:  &opts.UserAgent,
		Locale:     &opts.Locale,
		TimezoneId: &opts.TimezoneID,
		Viewport: &playwright.Size{
			Width:  opts.ViewportWidth,
			Height: opts.ViewportHeight,
		},
	})
	if err != nil {
		b.Close()
		pw.Stop()
		return nil, fmt.Errorf("%w: failed to create browser context: %v", ErrSessionSetup, err)
	}

	return &Session{
		pw:      pw,
		browser: b,
		context: ctx,
		opts:    opts,
		logger:  slog.Default().With("component", "browser"),
	}, nil
}

func (s *Session) NewPage() (playwright.Page, error) {
	page, err := s.context.NewPage()
	if err != nil {
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	page.SetDefaultTimeout(float64(s.opts.Timeout.Milliseconds()))
	return page, nil
}

// Close tears down context, browser and the playwright driver, collecting
// errors rather than stopping at the first.
func (s *Session) Close() error {
	var errs []error

	if s.context != nil {
		if err := s.context.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close context: %w", err))
		}
	}
	if s.browser != nil {
		if err := s.browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close browser: %w", err))
		}
	}
	if s.pw != nil {
		if err := s.pw.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop playwright: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during close: %v", errs)
	}
	return nil
}

// Navigate drives page to url, retrying timeouts, navigation errors and
// error statuses with exponential backoff up to maxRetries. The returned
// error wraps one of the package sentinels so callers can classify the
// failure. After a successful navigation a jittered delay throttles the
// request rate.
func (s *Session) Navigate(ctx context.Context, page playwright.Page, url string, maxRetries int) error {
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			backoff := s.opts.RetryBaseDelay * time.Duration(1<<(attempt-1))
			s.logger.Info("retrying navigation", "url", url, "attempt", attempt+1, "backoff", backoff)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		resp, err := page.Goto(url, playwright.PageGotoOptions{
			WaitUntil: playwright.WaitUntilStateDomcontentloaded,
			Timeout:   playwright.Float(float64(s.opts.Timeout.Milliseconds())),
		})
		if err != nil {
			lastErr = classifyNavError(err)
			s.logger.Warn("navigation attempt failed", "url", url, "attempt", attempt+1, "error", err)
			continue
		}
		if resp != nil && resp.Status() >= 400 {
			lastErr = fmt.Errorf("%w: HTTP %d", ErrHTTPStatus, resp.Status())
			s.logger.Warn("navigation returned error status", "url", url, "status", resp.Status())
			continue
		}

		if err := s.throttle(ctx); err != nil {
			return err
		}
		return nil
	}

	return fmt.Errorf("navigation to %s failed after %d attempts: %w", url, maxRetries+1, lastErr)
}

// throttle sleeps for a random duration in [DelayMin, DelayMax].
func (s *Session) throttle(ctx context.Context) error {
	span := s.opts.DelayMax - s.opts.DelayMin
	delay := s.opts.DelayMin
	if span > 0 {
		delay += time.Duration(rand.Int63n(int64(span)))
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(delay):
		return nil
	}
}

func classifyNavError(err error) error {
	var pwErr *playwright.Error
	if errors.As(err, &pwErr) && pwErr.Name == "TimeoutError" {
		return fmt.Errorf("%w: %v", ErrNavigationTimeout, err)
	}
	if strings.Contains(err.Error(), "Timeout") {
		return fmt.Errorf("%w: %v", ErrNavigationTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrNavigationFailed, err)
}

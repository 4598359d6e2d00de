package scraper

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"bankscli/internal/config"
	apperrors "bankscli/internal/errors"
)

// BrowserFetcher renders the page in headless Chrome and returns the final DOM
type BrowserFetcher struct {
	URL          string
	WaitSelector string
	Headless     bool
	UserAgent    string
	Timeout      time.Duration
	logger       *slog.Logger
}

// NewBrowserFetcher creates a chromedp-backed fetcher
func NewBrowserFetcher(cfg config.SourceConfig, logger *slog.Logger) *BrowserFetcher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = config.DefaultHTTPTimeout
	}
	return &BrowserFetcher{
		URL:          cfg.Location,
		WaitSelector: cfg.WaitSelector,
		Headless:     cfg.Headless,
		UserAgent:    cfg.UserAgent,
		Timeout:      timeout,
		logger:       logger,
	}
}

// Fetch navigates to the URL, waits for the table and returns outerHTML
func (f *BrowserFetcher) Fetch(ctx context.Context) (io.ReadCloser, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", f.Headless),
	)
	if f.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(f.UserAgent))
	}

	allocCtx, cancel := chromedp.NewExecAllocator(ctx, opts...)
	defer cancel()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	browserCtx, cancelTimeout := context.WithTimeout(browserCtx, f.Timeout)
	defer cancelTimeout()

	var html string
	start := time.Now()
	if err := chromedp.Run(browserCtx, f.tasks(&html)); err != nil {
		return nil, apperrors.NewNetworkError(fmt.Sprintf("render %s", f.URL), err)
	}

	f.logger.InfoContext(ctx, "document rendered",
		slog.String("url", f.URL),
		slog.Int("bytes", len(html)),
		slog.Duration("duration", time.Since(start)))

	return io.NopCloser(strings.NewReader(html)), nil
}

func (f *BrowserFetcher) tasks(html *string) chromedp.Tasks {
	tasks := chromedp.Tasks{chromedp.Navigate(f.URL)}
	if f.WaitSelector != "" {
		tasks = append(tasks, chromedp.WaitReady(f.WaitSelector, chromedp.ByQuery))
	}
	return append(tasks, chromedp.Evaluate(`document.documentElement.outerHTML`, html))
}

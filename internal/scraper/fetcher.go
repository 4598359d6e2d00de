// Package scraper retrieves the HTML document holding the bank ranking.
// Sources are a local file, a plain HTTP GET, or a headless Chrome session
// for pages that build the table client side. No source retries.
package scraper

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"bankscli/internal/config"
	apperrors "bankscli/internal/errors"
)

// Fetcher returns the raw document. The caller closes the reader.
type Fetcher interface {
	Fetch(ctx context.Context) (io.ReadCloser, error)
}

// New picks the fetcher for cfg.Kind
func New(cfg config.SourceConfig, logger *slog.Logger) (Fetcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "scraper"), slog.String("source_kind", cfg.Kind))

	switch strings.ToLower(cfg.Kind) {
	case "file":
		return &FileFetcher{Path: cfg.Location}, nil
	case "http", "":
		return NewHTTPFetcher(cfg, logger), nil
	case "browser":
		return NewBrowserFetcher(cfg, logger), nil
	default:
		return nil, apperrors.NewConfigError(fmt.Sprintf("unknown source kind %q", cfg.Kind), nil)
	}
}

// FileFetcher reads a document saved on disk
type FileFetcher struct {
	Path string
}

// Fetch opens the file
func (f *FileFetcher) Fetch(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	file, err := os.Open(f.Path)
	if err != nil {
		return nil, fmt.Errorf("open document %s: %w", f.Path, err)
	}
	return file, nil
}

// HTTPFetcher downloads the document with a single GET
type HTTPFetcher struct {
	URL       string
	UserAgent string
	Client    *http.Client
	logger    *slog.Logger
}

// NewHTTPFetcher creates an HTTP fetcher with the configured timeout
func NewHTTPFetcher(cfg config.SourceConfig, logger *slog.Logger) *HTTPFetcher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = config.DefaultHTTPTimeout
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = config.DefaultUserAgent
	}
	return &HTTPFetcher{
		URL:       cfg.Location,
		UserAgent: userAgent,
		Client:    &http.Client{Timeout: timeout},
		logger:    logger,
	}
}

// Fetch performs the request. Any non-2xx status is an error.
func (f *HTTPFetcher) Fetch(ctx context.Context) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL, nil)
	if err != nil {
		return nil, apperrors.NewNetworkError("build request", err)
	}
	req.Header.Set("User-Agent", f.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	start := time.Now()
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, apperrors.NewNetworkError(fmt.Sprintf("GET %s", f.URL), err)
	}

	f.logger.InfoContext(ctx, "document fetched",
		slog.String("url", f.URL),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, apperrors.NewNetworkError(fmt.Sprintf("GET %s: unexpected status %s", f.URL, resp.Status), nil).
			WithContext("status", resp.StatusCode)
	}
	return resp.Body, nil
}

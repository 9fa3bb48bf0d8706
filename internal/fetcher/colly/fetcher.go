// Package collyfetcher implements catalog.Fetcher using gocolly.
package collyfetcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/JakeFAU/termdex/internal/catalog"
	"github.com/JakeFAU/termdex/internal/metrics"
)

const (
	defaultUserAgent = "termdex"
	defaultTimeout   = 15 * time.Second
	defaultTries     = 3
)

// Config controls collector behavior.
type Config struct {
	UserAgent string
	Timeout   time.Duration
	// Tries is the total number of attempts per URL, not the number of retries.
	Tries int
}

// Fetcher implements catalog.Fetcher using the Colly collector.
type Fetcher struct {
	cfg           Config
	baseCollector *colly.Collector
	logger        *zap.Logger

	// do performs one GET and returns the body. Swapped out in tests.
	do func(ctx context.Context, url string) ([]byte, error)
}

// New builds a Fetcher.
func New(cfg Config, logger *zap.Logger) *Fetcher {
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.Tries <= 0 {
		cfg.Tries = defaultTries
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	// Retries revisit the same URL, and the remote API has no robots.txt worth honoring.
	c := colly.NewCollector(
		colly.Async(false),
		colly.AllowURLRevisit(),
		colly.IgnoreRobotsTxt(),
		colly.UserAgent(cfg.UserAgent),
	)
	c.WithTransport(newHTTPTransport())
	// The timeout lives on the shared backend client, so it is set once here rather than per clone.
	c.SetRequestTimeout(cfg.Timeout)

	f := &Fetcher{
		cfg:           cfg,
		baseCollector: c,
		logger:        logger.Named("fetcher"),
	}
	f.do = f.visit
	return f
}

// Fetch GETs url and decodes the JSON body, making up to cfg.Tries attempts
// back to back. When every attempt fails the error of the last one is returned.
func (f *Fetcher) Fetch(ctx context.Context, url string) (catalog.RawRecord, error) {
	var lastErr error
	for attempt := 1; attempt <= f.cfg.Tries; attempt++ {
		if err := ctx.Err(); err != nil {
			return catalog.RawRecord{}, fmt.Errorf("fetch %s canceled: %w", url, err)
		}
		rec, err := f.attempt(ctx, url)
		if err == nil {
			metrics.ObserveFetch("success")
			return rec, nil
		}
		if ctx.Err() != nil {
			return catalog.RawRecord{}, fmt.Errorf("fetch %s canceled: %w", url, ctx.Err())
		}
		lastErr = err
		metrics.ObserveFetchAttemptFailure()
		f.logger.Warn("fetch attempt failed",
			zap.Int("attempt", attempt),
			zap.String("url", url),
			zap.Error(err),
		)
	}
	metrics.ObserveFetch("failure")
	return catalog.RawRecord{}, fmt.Errorf("%w: %s after %d tries: %w", catalog.ErrFetch, url, f.cfg.Tries, lastErr)
}

func (f *Fetcher) attempt(ctx context.Context, url string) (catalog.RawRecord, error) {
	body, err := f.do(ctx, url)
	if err != nil {
		return catalog.RawRecord{}, err
	}
	var rec catalog.RawRecord
	if err := json.Unmarshal(body, &rec); err != nil {
		return catalog.RawRecord{}, fmt.Errorf("decode %s: %w", url, err)
	}
	return rec, nil
}

func (f *Fetcher) visit(ctx context.Context, url string) ([]byte, error) {
	var (
		body     []byte
		status   int
		fetchErr error
	)
	collector := f.baseCollector.Clone()
	collector.Context = ctx
	collector.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
		body = append([]byte(nil), r.Body...)
	})
	collector.OnError(func(r *colly.Response, err error) {
		if r != nil {
			status = r.StatusCode
		}
		fetchErr = err
	})

	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(url)
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("colly fetch canceled: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return nil, fmt.Errorf("colly visit failed: %w", err)
		}
		if fetchErr != nil {
			return nil, fmt.Errorf("colly response failed: %w", fetchErr)
		}
	}
	if status < http.StatusOK || status >= http.StatusMultipleChoices {
		return nil, &StatusError{URL: url, StatusCode: status}
	}
	if len(body) == 0 {
		return nil, errors.New("empty response body")
	}
	return body, nil
}

// StatusError reports a non-2xx response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.StatusCode, e.URL)
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   16,
		IdleConnTimeout:       90 * time.Second,
	}
}

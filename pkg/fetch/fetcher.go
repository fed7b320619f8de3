// Package fetch performs the page GETs of a resolution: it applies the
// header context, enforces per-call timeouts and retries a failed https
// request once over plain http.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"dlhd-resolver/pkg/headers"
	"dlhd-resolver/pkg/interfaces"
	"dlhd-resolver/pkg/logging"
	"dlhd-resolver/pkg/metrics"
	"dlhd-resolver/pkg/types"
	"dlhd-resolver/pkg/urlutil"
)

// maxBodySize caps how much of a page is read.
const maxBodySize = 16 << 20

// Fetcher issues GET requests through an HTTP client.
type Fetcher struct {
	client  interfaces.HTTPClient
	timeout time.Duration
	log     *logging.Logger
}

// New creates a Fetcher. defaultTimeout applies when Get is called with a
// zero timeout.
func New(client interfaces.HTTPClient, defaultTimeout time.Duration, log *logging.Logger) *Fetcher {
	if defaultTimeout <= 0 {
		defaultTimeout = 30 * time.Second
	}
	return &Fetcher{
		client:  client,
		timeout: defaultTimeout,
		log:     log.WithComponent("fetch"),
	}
}

// Get fetches rawURL. A non-blank referer is applied to hc first. HTTP
// error statuses are returned as pages, not errors. On a connection
// failure or timeout against an https URL the same request is retried
// once over http; if that fails too a *types.TransportError is returned.
// A canceled ctx is never retried.
func (f *Fetcher) Get(ctx context.Context, hc *headers.Context, rawURL, referer string, timeout time.Duration) (*types.Page, error) {
	hc.Apply(referer)
	if timeout <= 0 {
		timeout = f.timeout
	}

	page, err := f.do(ctx, hc, rawURL, timeout)
	if err == nil {
		metrics.Fetches.WithLabelValues("ok").Inc()
		return page, nil
	}
	if !errors.As(err, new(*transportFailure)) {
		metrics.Fetches.WithLabelValues("failed").Inc()
		return nil, err
	}
	if ctx.Err() != nil {
		metrics.Fetches.WithLabelValues("failed").Inc()
		return nil, &types.TransportError{URL: rawURL, Err: errors.Unwrap(err)}
	}

	failedURL := rawURL
	if downgraded, ok := urlutil.DowngradeToHTTP(rawURL); ok {
		f.log.Debug("https fetch failed, retrying over http", "url", rawURL, "error", err)
		page, err = f.do(ctx, hc, downgraded, timeout)
		if err == nil {
			metrics.Fetches.WithLabelValues("downgraded").Inc()
			return page, nil
		}
		failedURL = downgraded
	}

	metrics.Fetches.WithLabelValues("failed").Inc()
	return nil, &types.TransportError{URL: failedURL, Err: errors.Unwrap(err)}
}

// transportFailure marks errors that may be retried over http.
type transportFailure struct {
	err error
}

func (e *transportFailure) Error() string { return e.err.Error() }

func (e *transportFailure) Unwrap() error { return e.err }

func (f *Fetcher) do(ctx context.Context, hc *headers.Context, rawURL string, timeout time.Duration) (*types.Page, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", rawURL, err)
	}
	req.Header = hc.Header()

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &transportFailure{err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, &transportFailure{err: fmt.Errorf("reading body: %w", err)}
	}

	f.log.WithDuration(time.Since(start)).Debug("fetched page",
		"url", rawURL,
		"status", resp.StatusCode,
		"length", len(body),
	)

	return &types.Page{
		URL:        rawURL,
		StatusCode: resp.StatusCode,
		Body:       string(body),
	}, nil
}

var _ interfaces.PageFetcher = (*Fetcher)(nil)

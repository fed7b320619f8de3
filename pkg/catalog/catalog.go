// Package catalog scrapes the site's channel list and event schedule and
// maps event titles to stream references. Results are cached in memory
// for a configurable TTL.
package catalog

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"dlhd-resolver/pkg/headers"
	"dlhd-resolver/pkg/interfaces"
	"dlhd-resolver/pkg/logging"
	"dlhd-resolver/pkg/metrics"
	"dlhd-resolver/pkg/types"
)

const (
	channelsPath = "/24-7-channels.php"
	schedulePath = "/index.php"
)

// Options configures a Catalog.
type Options struct {
	PrimaryURL   string
	LegacyURL    string
	UserAgent    string
	FetchTimeout time.Duration
	TTL          time.Duration
	MaxEntries   int
}

// Catalog serves channels and schedule events.
type Catalog struct {
	fetcher  interfaces.PageFetcher
	opts     Options
	channels *expirable.LRU[string, []types.Channel]
	events   *expirable.LRU[string, []types.Event]
	log      *logging.Logger
}

// New creates a Catalog.
func New(fetcher interfaces.PageFetcher, opts Options, log *logging.Logger) *Catalog {
	opts.PrimaryURL = strings.TrimRight(opts.PrimaryURL, "/")
	opts.LegacyURL = strings.TrimRight(opts.LegacyURL, "/")
	if opts.TTL <= 0 {
		opts.TTL = 30 * time.Minute
	}
	if opts.MaxEntries <= 0 {
		opts.MaxEntries = 64
	}

	return &Catalog{
		fetcher:  fetcher,
		opts:     opts,
		channels: expirable.NewLRU[string, []types.Channel](opts.MaxEntries, nil, opts.TTL),
		events:   expirable.NewLRU[string, []types.Event](opts.MaxEntries, nil, opts.TTL),
		log:      log.WithComponent("catalog"),
	}
}

// Channels returns the 24/7 channel list. When the current card layout
// yields nothing, the older link-list layout is tried on the legacy
// domain.
func (c *Catalog) Channels(ctx context.Context) ([]types.Channel, error) {
	key := c.opts.PrimaryURL + channelsPath
	if cached, ok := c.channels.Get(key); ok {
		metrics.CatalogRequests.WithLabelValues("channels", "hit").Inc()
		return cached, nil
	}
	metrics.CatalogRequests.WithLabelValues("channels", "miss").Inc()

	channels, err := c.fetchChannels(ctx)
	if err != nil {
		return nil, err
	}
	c.channels.Add(key, channels)
	c.log.Info("loaded channels", "count", len(channels))
	return channels, nil
}

func (c *Catalog) fetchChannels(ctx context.Context) ([]types.Channel, error) {
	body, err := c.get(ctx, c.opts.PrimaryURL+channelsPath)
	if err == nil {
		channels, perr := parseChannels(body)
		if perr == nil && len(channels) > 0 {
			return channels, nil
		}
		err = perr
	}
	c.log.WithError(err).Warn("channel cards unavailable, trying legacy layout")

	legacy := c.opts.LegacyURL
	if legacy == "" {
		legacy = c.opts.PrimaryURL
	}
	body, err = c.get(ctx, legacy+channelsPath)
	if err != nil {
		return nil, fmt.Errorf("fetching legacy channel list: %w", err)
	}
	return parseLegacyChannels(body)
}

// Schedule returns every scheduled event, in page order.
func (c *Catalog) Schedule(ctx context.Context) ([]types.Event, error) {
	key := c.opts.PrimaryURL + schedulePath
	if cached, ok := c.events.Get(key); ok {
		metrics.CatalogRequests.WithLabelValues("schedule", "hit").Inc()
		return cached, nil
	}
	metrics.CatalogRequests.WithLabelValues("schedule", "miss").Inc()

	body, err := c.get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("fetching schedule: %w", err)
	}
	events, err := parseSchedule(body)
	if err != nil {
		return nil, err
	}
	c.events.Add(key, events)
	c.log.Info("loaded schedule", "events", len(events))
	return events, nil
}

// Refresh drops every cached result.
func (c *Catalog) Refresh() {
	c.channels.Purge()
	c.events.Purge()
}

func (c *Catalog) get(ctx context.Context, rawURL string) (string, error) {
	hc := headers.New(c.opts.UserAgent, c.opts.PrimaryURL)
	page, err := c.fetcher.Get(ctx, hc, rawURL, "", c.opts.FetchTimeout)
	if err != nil {
		return "", err
	}
	if page.StatusCode >= http.StatusBadRequest {
		return "", fmt.Errorf("%s returned status %d", rawURL, page.StatusCode)
	}
	return page.Body, nil
}

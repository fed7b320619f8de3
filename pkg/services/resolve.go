package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/ratelimit"

	"dlhd-resolver/pkg/logging"
	"dlhd-resolver/pkg/types"
)

// DefaultLabel names links that were not reached through a channel.
const DefaultLabel = "DaddyLive"

var (
	// ErrNoLinks is returned when a reference could not be resolved.
	ErrNoLinks = errors.New("no links available")

	// ErrInvalidLinkList is returned for a malformed [[title, link]] list.
	ErrInvalidLinkList = errors.New("invalid link list")
)

// Resolver resolves one stream reference.
type Resolver interface {
	Resolve(ctx context.Context, ref string) (*types.Resolution, error)
}

// EventMatcher maps an event title to channel stream references.
type EventMatcher interface {
	MatchLinks(ctx context.Context, title string) ([]types.StreamPair, error)
}

// ResolveOptions configures a ResolveService.
type ResolveOptions struct {
	PrimaryURL string
	UserAgent  string
	Workers    int
	Rate       int // resolves started per second
}

// ResolveService turns references, event titles and link lists into
// playback links.
type ResolveService struct {
	resolver Resolver
	events   EventMatcher
	pool     *ants.Pool
	limiter  ratelimit.Limiter
	opts     ResolveOptions
	log      *logging.Logger
}

// NewResolveService creates a resolve service with a worker pool of
// opts.Workers goroutines.
func NewResolveService(resolver Resolver, events EventMatcher, opts ResolveOptions, log *logging.Logger) (*ResolveService, error) {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	pool, err := ants.NewPool(opts.Workers)
	if err != nil {
		return nil, fmt.Errorf("creating resolve pool: %w", err)
	}

	limiter := ratelimit.NewUnlimited()
	if opts.Rate > 0 {
		limiter = ratelimit.New(opts.Rate)
	}

	return &ResolveService{
		resolver: resolver,
		events:   events,
		pool:     pool,
		limiter:  limiter,
		opts:     opts,
		log:      log.WithComponent("resolve-service"),
	}, nil
}

// ResolveReference resolves ref into a playback link labelled label.
func (s *ResolveService) ResolveReference(ctx context.Context, label, ref string) (*types.PlaybackLink, error) {
	res, err := s.resolver.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}
	if !res.Resolved() {
		return nil, ErrNoLinks
	}
	if label == "" {
		label = DefaultLabel
	}
	return s.playbackLink(label, res.Link), nil
}

// ResolveEvent resolves every channel of the events matching title.
// Channels that fail to resolve are left out; the rest keep schedule
// order.
func (s *ResolveService) ResolveEvent(ctx context.Context, title string) ([]types.PlaybackLink, error) {
	pairs, err := s.events.MatchLinks(ctx, title)
	if err != nil {
		return nil, err
	}
	return s.resolvePairs(ctx, pairs), nil
}

// ResolveInput accepts the same inputs as a player's link loader: a JSON
// list of [title, link] pairs, a site path or URL, or an event title.
func (s *ResolveService) ResolveInput(ctx context.Context, data string) ([]types.PlaybackLink, error) {
	data = strings.TrimSpace(data)
	switch {
	case data == "":
		return nil, types.ErrBlankReference

	case strings.HasPrefix(data, "[["):
		pairs, err := parsePairs(data)
		if err != nil {
			return nil, err
		}
		return s.resolvePairs(ctx, pairs), nil

	case strings.HasPrefix(data, "/") || strings.HasPrefix(strings.ToLower(data), "http"):
		link, err := s.ResolveReference(ctx, DefaultLabel, data)
		if errors.Is(err, ErrNoLinks) {
			return []types.PlaybackLink{}, nil
		}
		if err != nil {
			return nil, err
		}
		return []types.PlaybackLink{*link}, nil

	default:
		return s.ResolveEvent(ctx, data)
	}
}

// Close releases the worker pool.
func (s *ResolveService) Close() {
	s.pool.Release()
}

func (s *ResolveService) resolvePairs(ctx context.Context, pairs []types.StreamPair) []types.PlaybackLink {
	results := make([]*types.PlaybackLink, len(pairs))

	var wg sync.WaitGroup
	for i, pair := range pairs {
		wg.Add(1)
		err := s.pool.Submit(func() {
			defer wg.Done()
			if ctx.Err() != nil {
				return
			}
			s.limiter.Take()

			link, err := s.ResolveReference(ctx, pair.Label, pair.Reference)
			if err != nil {
				s.log.WithReference(pair.Reference).WithError(err).Debug("channel not resolved", "label", pair.Label)
				return
			}
			results[i] = link
		})
		if err != nil {
			wg.Done()
			s.log.WithError(err).Warn("failed to submit resolve task", "reference", pair.Reference)
		}
	}
	wg.Wait()

	links := make([]types.PlaybackLink, 0, len(pairs))
	for _, link := range results {
		if link != nil {
			links = append(links, *link)
		}
	}
	return links
}

// playbackLink fills in the headers most players need without
// overriding what the strategy chose.
func (s *ResolveService) playbackLink(label string, link *types.ResolvedLink) *types.PlaybackLink {
	h := link.Headers.Clone()
	h.SetIfAbsent("User-Agent", s.opts.UserAgent)
	h.SetIfAbsent("Referer", strings.TrimRight(s.opts.PrimaryURL, "/")+"/")
	referer, _ := h.Get("Referer")
	h.SetIfAbsent("Origin", referer)
	h.SetIfAbsent("Connection", "Keep-Alive")

	out := types.ResolvedLink{PlaylistURL: link.PlaylistURL, Headers: h, Strategy: link.Strategy}
	return &types.PlaybackLink{
		Label:    label,
		URL:      link.PlaylistURL,
		Headers:  h.Map(),
		Encoded:  out.Encode(),
		Strategy: link.Strategy,
	}
}

// parsePairs reads [[title, link], ...]. Entries shorter than two
// elements or with a non-string link are skipped.
func parsePairs(data string) ([]types.StreamPair, error) {
	var raw [][]any
	if err := json.Unmarshal([]byte(data), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLinkList, err)
	}

	pairs := make([]types.StreamPair, 0, len(raw))
	for _, entry := range raw {
		if len(entry) < 2 {
			continue
		}
		ref, ok := entry[1].(string)
		if !ok || strings.TrimSpace(ref) == "" {
			continue
		}
		label, _ := entry[0].(string)
		if label == "" {
			label = DefaultLabel
		}
		pairs = append(pairs, types.StreamPair{Label: label, Reference: ref})
	}
	return pairs, nil
}

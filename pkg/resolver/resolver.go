// Package resolver turns a stream reference into a playable link. It walks
// the candidate URLs, follows the embed iframe chain and hands each embed
// page to the registered decoding strategies in priority order.
package resolver

import (
	"context"
	"strings"
	"time"

	"dlhd-resolver/pkg/candidates"
	"dlhd-resolver/pkg/embed"
	"dlhd-resolver/pkg/headers"
	"dlhd-resolver/pkg/interfaces"
	"dlhd-resolver/pkg/logging"
	"dlhd-resolver/pkg/metrics"
	"dlhd-resolver/pkg/registry"
	"dlhd-resolver/pkg/types"
	"dlhd-resolver/pkg/urlutil"
)

// Options configures a Resolver.
type Options struct {
	PrimaryURL     string
	LegacyURL      string
	UserAgent      string
	FetchTimeout   time.Duration
	WrapperTimeout time.Duration
}

// Resolver runs the resolution pipeline. It holds no per-call state and is
// safe for concurrent use.
type Resolver struct {
	candidates *candidates.Generator
	fetcher    interfaces.PageFetcher
	extractors *registry.ExtractorRegistry
	opts       Options
	log        *logging.Logger
}

// New creates a Resolver.
func New(fetcher interfaces.PageFetcher, extractors *registry.ExtractorRegistry, opts Options, log *logging.Logger) *Resolver {
	return &Resolver{
		candidates: candidates.NewGenerator(opts.PrimaryURL, opts.LegacyURL),
		fetcher:    fetcher,
		extractors: extractors,
		opts:       opts,
		log:        log.WithComponent("resolver"),
	}
}

// Resolve tries each candidate for ref in order and stops at the first
// one that yields a link. An exhausted candidate list is reported through
// Resolution.Resolved, not as an error; the only error is a blank ref.
func (r *Resolver) Resolve(ctx context.Context, ref string) (*types.Resolution, error) {
	if strings.TrimSpace(ref) == "" {
		return nil, types.ErrBlankReference
	}

	start := time.Now()
	log := r.log.WithReference(ref)
	hc := headers.New(r.opts.UserAgent, r.opts.PrimaryURL)
	res := &types.Resolution{Reference: ref}

	for _, candidate := range r.candidates.Generate(ref) {
		if ctx.Err() != nil {
			break
		}

		link, err := r.tryCandidate(ctx, hc, candidate)
		attempt := types.Attempt{Candidate: candidate, Outcome: types.ClassifyError(err), Err: err}
		if err == nil && link == nil {
			attempt.Outcome = types.OutcomeNoMatch
		}
		if link != nil {
			attempt.Strategy = link.Strategy
		}
		res.Attempts = append(res.Attempts, attempt)
		metrics.CandidateOutcomes.WithLabelValues(string(attempt.Outcome)).Inc()

		if link != nil {
			res.Link = link
			break
		}
		log.WithCandidate(candidate).WithError(err).Debug("candidate yielded no link", "outcome", attempt.Outcome)
	}

	metrics.ResolveDuration.Observe(time.Since(start).Seconds())
	if res.Resolved() {
		metrics.Resolutions.WithLabelValues("resolved").Inc()
		log.WithDuration(time.Since(start)).Info("resolved stream",
			"strategy", res.Link.Strategy,
			"attempts", len(res.Attempts),
		)
	} else {
		metrics.Resolutions.WithLabelValues("unresolved").Inc()
		log.WithDuration(time.Since(start)).Info("no links available", "attempts", len(res.Attempts))
	}
	return res, nil
}

// tryCandidate returns (nil, nil) when the embed page matched no strategy.
func (r *Resolver) tryCandidate(ctx context.Context, hc *headers.Context, candidate string) (*types.ResolvedLink, error) {
	page, err := r.fetcher.Get(ctx, hc, candidate, "", r.opts.FetchTimeout)
	if err != nil {
		return nil, err
	}

	src, err := embed.IframeSource(page.Body, candidate)
	if err != nil {
		return nil, err
	}
	working := urlutil.ResolveURL(src, page.URL)

	working, link, err := r.followWrapper(ctx, hc, candidate, working)
	if err != nil || link != nil {
		return link, err
	}

	embedPage, err := r.fetcher.Get(ctx, hc, working, candidate, r.opts.FetchTimeout)
	if err != nil {
		return nil, err
	}

	return r.classify(ctx, hc, &types.EmbedPage{
		Candidate:  candidate,
		WorkingURL: working,
		Body:       embedPage.Body,
	})
}

package resolver

import (
	"context"
	"errors"

	"dlhd-resolver/pkg/headers"
	"dlhd-resolver/pkg/metrics"
	"dlhd-resolver/pkg/types"
)

// classify runs the strategies whose trigger is present, in priority
// order. No-match and non-fatal decode errors fall through to the next
// strategy; anything else ends the candidate. When every strategy falls
// through, the last fall-through error (possibly nil) is returned with a
// nil link.
func (r *Resolver) classify(ctx context.Context, hc *headers.Context, page *types.EmbedPage) (*types.ResolvedLink, error) {
	var lastErr error
	for _, e := range r.extractors.Matching(page) {
		log := r.log.WithCandidate(page.Candidate).WithStrategy(e.Name())

		link, err := e.Extract(ctx, page, hc)
		if err == nil {
			metrics.StrategyHits.WithLabelValues(e.Name()).Inc()
			log.Debug("strategy decoded playlist", "playlist", link.PlaylistURL)
			return link, nil
		}

		var decodeErr *types.DecodeError
		switch {
		case errors.Is(err, types.ErrNoMatch):
			log.Debug("strategy fell through", "reason", err)
		case errors.As(err, &decodeErr) && !decodeErr.Fatal:
			log.Debug("strategy could not decode", "reason", err)
		default:
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

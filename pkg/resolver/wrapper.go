package resolver

import (
	"context"
	"strings"

	"dlhd-resolver/pkg/embed"
	"dlhd-resolver/pkg/headers"
	"dlhd-resolver/pkg/metrics"
	"dlhd-resolver/pkg/types"
	"dlhd-resolver/pkg/urlutil"
)

// LoveCDNName identifies links produced by the lovecdn short-circuit.
const LoveCDNName = "lovecdn"

var wrapperHosts = []string{"wikisport", "lovecdn"}

func isWrapper(src string) bool {
	for _, h := range wrapperHosts {
		if strings.Contains(src, h) {
			return true
		}
	}
	return false
}

// followWrapper descends one extra iframe level for wrapper hosts and
// returns the new working URL. A lovecdn second hop is already the player
// and short-circuits to a link without further fetches.
func (r *Resolver) followWrapper(ctx context.Context, hc *headers.Context, candidate, src string) (string, *types.ResolvedLink, error) {
	if !isWrapper(src) {
		return src, nil, nil
	}

	page, err := r.fetcher.Get(ctx, hc, src, candidate, r.opts.WrapperTimeout)
	if err != nil {
		return "", nil, err
	}

	inner, err := embed.IframeSource(page.Body, src)
	if err != nil {
		return "", nil, err
	}
	second := urlutil.ResolveURL(inner, page.URL)

	if strings.Contains(second, LoveCDNName) {
		metrics.StrategyHits.WithLabelValues(LoveCDNName).Inc()
		return second, &types.ResolvedLink{
			PlaylistURL: strings.ReplaceAll(second, "embed.html", "index.fmp4.m3u8"),
			Headers: types.NewHeaderSet(
				"Referer", second,
				"Connection", "Keep-Alive",
				"User-Agent", hc.UserAgent(),
			),
			Strategy: LoveCDNName,
		}, nil
	}

	return second, nil, nil
}

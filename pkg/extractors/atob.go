package extractors

import (
	"context"
	"fmt"

	"github.com/grafana/regexp"

	"dlhd-resolver/pkg/headers"
	"dlhd-resolver/pkg/interfaces"
	"dlhd-resolver/pkg/logging"
	"dlhd-resolver/pkg/types"
)

// AtobName identifies the atob strategy.
const AtobName = "atob"

var (
	atobPattern    = regexp.MustCompile(`atob\('([^']+)'\)`)
	initURLPattern = regexp.MustCompile(`initUrl\s*=\s*"([^"]+)"`)
)

// AtobExtractor handles players that hide an initUrl inside an atob()
// literal. The initUrl responds with the base64 playlist URL.
type AtobExtractor struct {
	*BaseExtractor
}

// NewAtobExtractor creates an atob extractor.
func NewAtobExtractor(fetcher interfaces.PageFetcher, log *logging.Logger) *AtobExtractor {
	return &AtobExtractor{
		BaseExtractor: NewBaseExtractor(fetcher, log.WithComponent("atob-extractor")),
	}
}

// Name returns the extractor name.
func (e *AtobExtractor) Name() string {
	return AtobName
}

// CanExtract returns true if the page calls atob on a literal.
func (e *AtobExtractor) CanExtract(page *types.EmbedPage) bool {
	return atobPattern.MatchString(page.Body)
}

// Extract decodes the atob literal, fetches its initUrl and decodes the
// response body into the playlist URL.
func (e *AtobExtractor) Extract(ctx context.Context, page *types.EmbedPage, hc *headers.Context) (*types.ResolvedLink, error) {
	m := atobPattern.FindStringSubmatch(page.Body)
	if m == nil {
		return nil, fmt.Errorf("%s: %w", AtobName, types.ErrNoMatch)
	}

	decoded, err := decodeBase64(m[1])
	if err != nil {
		return nil, &types.DecodeError{Strategy: AtobName, Field: "atob literal", Err: err}
	}

	initMatch := initURLPattern.FindStringSubmatch(string(decoded))
	if initMatch == nil {
		return nil, fmt.Errorf("%s: initUrl: %w", AtobName, types.ErrNoMatch)
	}
	initURL := initMatch[1]
	e.log.Debug("found initUrl", "init_url", initURL, "url", page.WorkingURL)

	resp, err := e.fetcher.Get(ctx, hc, initURL, "", 0)
	if err != nil {
		return nil, err
	}

	playlist, err := decodeBase64(resp.Body)
	if err != nil {
		return nil, &types.DecodeError{Strategy: AtobName, Field: "initUrl response", Err: err}
	}

	return &types.ResolvedLink{
		PlaylistURL: string(playlist),
		Headers:     refererHeaders(page.WorkingURL, hc.UserAgent()),
		Strategy:    AtobName,
	}, nil
}

var _ interfaces.Extractor = (*AtobExtractor)(nil)

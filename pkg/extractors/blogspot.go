package extractors

import (
	"context"
	"fmt"
	"strings"

	"github.com/grafana/regexp"

	"dlhd-resolver/pkg/headers"
	"dlhd-resolver/pkg/interfaces"
	"dlhd-resolver/pkg/logging"
	"dlhd-resolver/pkg/types"
	"dlhd-resolver/pkg/urlutil"
)

// BlogspotName identifies the blogspot strategy.
const BlogspotName = "blogspot"

// BlogspotExtractor handles blogspot-hosted players that embed a map of
// channel ids to playlist URLs and select one via the id query parameter.
type BlogspotExtractor struct {
	*BaseExtractor
}

// NewBlogspotExtractor creates a blogspot extractor.
func NewBlogspotExtractor(log *logging.Logger) *BlogspotExtractor {
	return &BlogspotExtractor{
		BaseExtractor: NewBaseExtractor(nil, log.WithComponent("blogspot-extractor")),
	}
}

// Name returns the extractor name.
func (e *BlogspotExtractor) Name() string {
	return BlogspotName
}

// CanExtract returns true for blogspot working URLs.
func (e *BlogspotExtractor) CanExtract(page *types.EmbedPage) bool {
	return strings.Contains(page.WorkingURL, "blogspot.com")
}

// Extract looks up the id from the working URL in the page's channel map.
func (e *BlogspotExtractor) Extract(_ context.Context, page *types.EmbedPage, hc *headers.Context) (*types.ResolvedLink, error) {
	id, ok := urlutil.FirstQueryValue(page.WorkingURL, "id")
	if !ok || id == "" {
		return nil, fmt.Errorf("%s: id parameter: %w", BlogspotName, types.ErrNoMatch)
	}

	pattern, err := regexp.Compile(`(?s)"` + regexp.QuoteMeta(id) + `"\s*:\s*\{[^}]*?url:\s*"([^"]+)"`)
	if err != nil {
		return nil, &types.DecodeError{Strategy: BlogspotName, Field: "id", Err: err}
	}

	m := pattern.FindStringSubmatch(page.Body)
	if m == nil {
		return nil, fmt.Errorf("%s: entry %q: %w", BlogspotName, id, types.ErrNoMatch)
	}

	return &types.ResolvedLink{
		PlaylistURL: m[1],
		Headers:     hostHeaders(page.WorkingURL, hc.UserAgent()),
		Strategy:    BlogspotName,
	}, nil
}

var _ interfaces.Extractor = (*BlogspotExtractor)(nil)

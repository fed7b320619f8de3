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

// PlayVarName identifies the PlayS variable strategy.
const PlayVarName = "playvar"

var playVarPattern = regexp.MustCompile(`var\s+PlayS\s*=\s*'([^']+)'`)

// PlayVarExtractor handles players that assign the playlist URL to a
// PlayS variable in clear text.
type PlayVarExtractor struct {
	*BaseExtractor
}

// NewPlayVarExtractor creates a PlayS extractor.
func NewPlayVarExtractor(log *logging.Logger) *PlayVarExtractor {
	return &PlayVarExtractor{
		BaseExtractor: NewBaseExtractor(nil, log.WithComponent("playvar-extractor")),
	}
}

// Name returns the extractor name.
func (e *PlayVarExtractor) Name() string {
	return PlayVarName
}

// CanExtract returns true if the page declares PlayS.
func (e *PlayVarExtractor) CanExtract(page *types.EmbedPage) bool {
	return playVarPattern.MatchString(page.Body)
}

// Extract returns the PlayS value as the playlist URL.
func (e *PlayVarExtractor) Extract(_ context.Context, page *types.EmbedPage, hc *headers.Context) (*types.ResolvedLink, error) {
	m := playVarPattern.FindStringSubmatch(page.Body)
	if m == nil {
		return nil, fmt.Errorf("%s: %w", PlayVarName, types.ErrNoMatch)
	}

	return &types.ResolvedLink{
		PlaylistURL: m[1],
		Headers:     hostHeaders(page.WorkingURL, hc.UserAgent()),
		Strategy:    PlayVarName,
	}, nil
}

var _ interfaces.Extractor = (*PlayVarExtractor)(nil)

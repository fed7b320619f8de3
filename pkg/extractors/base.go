// Package extractors implements the decoding strategies that turn an embed
// page into a playlist URL. Each strategy recognises one obfuscation scheme
// used by the site's players.
//
// To add a new strategy:
// 1. Create a new file (e.g., myscheme.go)
// 2. Implement the interfaces.Extractor interface
// 3. Register it in the registry at its priority (see internal/app)
package extractors

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"

	"dlhd-resolver/pkg/interfaces"
	"dlhd-resolver/pkg/logging"
	"dlhd-resolver/pkg/types"
	"dlhd-resolver/pkg/urlutil"
)

// BaseExtractor provides common functionality for extractors.
type BaseExtractor struct {
	fetcher interfaces.PageFetcher
	log     *logging.Logger
}

// NewBaseExtractor creates a new base extractor.
func NewBaseExtractor(fetcher interfaces.PageFetcher, log *logging.Logger) *BaseExtractor {
	return &BaseExtractor{
		fetcher: fetcher,
		log:     log,
	}
}

// Close releases resources.
func (b *BaseExtractor) Close() error {
	return nil
}

// hostHeaders are the playback headers for players that check the
// embed host: Referer and Origin derived from the working URL.
func hostHeaders(workingURL, userAgent string) types.HeaderSet {
	root := urlutil.GetSchemeHost(workingURL)
	return types.NewHeaderSet(
		"Referer", root+"/",
		"Origin", root,
		"Connection", "Keep-Alive",
		"User-Agent", userAgent,
	)
}

// refererHeaders are the playback headers for players that only check
// the Referer.
func refererHeaders(referer, userAgent string) types.HeaderSet {
	return types.NewHeaderSet(
		"Referer", referer,
		"Connection", "Keep-Alive",
		"User-Agent", userAgent,
	)
}

var errEmptyBase64 = errors.New("empty base64 input")

// decodeBase64 accepts standard and URL-safe alphabets, padded or not.
func decodeBase64(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, errEmptyBase64
	}
	var firstErr error
	for _, enc := range []*base64.Encoding{
		base64.StdEncoding,
		base64.RawStdEncoding,
		base64.URLEncoding,
		base64.RawURLEncoding,
	} {
		out, err := enc.DecodeString(s)
		if err == nil {
			return out, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return nil, firstErr
}

// decodeFlatJSON parses a flat JSON object, keeping numbers in their
// literal form.
func decodeFlatJSON(data []byte) (map[string]any, error) {
	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.UseNumber()
	var out map[string]any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

// stringField returns m[key] as a string. Strings and numbers qualify;
// missing, null and empty values do not.
func stringField(m map[string]any, key string) (string, bool) {
	switch v := m[key].(type) {
	case string:
		return v, v != ""
	case json.Number:
		return v.String(), true
	default:
		return "", false
	}
}

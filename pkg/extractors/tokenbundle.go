package extractors

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/grafana/regexp"

	"dlhd-resolver/pkg/headers"
	"dlhd-resolver/pkg/interfaces"
	"dlhd-resolver/pkg/logging"
	"dlhd-resolver/pkg/types"
	"dlhd-resolver/pkg/urlutil"
)

const (
	// TokenBundleName identifies the token-bundle strategy.
	TokenBundleName = "token-bundle"

	top1ServerKey = "top1/cdn"
)

var (
	channelKeyPattern = regexp.MustCompile(`const\s+CHANNEL_KEY\s*=\s*"([^"]+)"`)
	bundlePattern     = regexp.MustCompile(`const\s+[A-Z]+\s*=\s*"([^"]+)"`)
)

// authPathBytes XORed with authPathMask spell the auth script path.
var authPathBytes = []byte{40, 60, 61, 33, 103, 57, 33, 57}

const authPathMask = 73

// AuthPath returns the path of the authorization script on the auth host.
func AuthPath() string {
	out := make([]byte, len(authPathBytes))
	for i, b := range authPathBytes {
		out[i] = b ^ authPathMask
	}
	return string(out)
}

// TokenBundleExtractor handles players that declare a CHANNEL_KEY and a
// base64 JSON token bundle. It authorizes the channel, looks up the edge
// server and builds the newkso playlist URL.
//
// Once the CHANNEL_KEY trigger matched, every failure is fatal for the
// candidate.
type TokenBundleExtractor struct {
	*BaseExtractor
	authHost string
}

// NewTokenBundleExtractor creates a token-bundle extractor. authHost is the
// scheme and host serving the auth script, e.g. https://top2new.newkso.ru.
func NewTokenBundleExtractor(fetcher interfaces.PageFetcher, authHost string, log *logging.Logger) *TokenBundleExtractor {
	return &TokenBundleExtractor{
		BaseExtractor: NewBaseExtractor(fetcher, log.WithComponent("token-bundle-extractor")),
		authHost:      strings.TrimRight(authHost, "/"),
	}
}

// Name returns the extractor name.
func (e *TokenBundleExtractor) Name() string {
	return TokenBundleName
}

// CanExtract returns true if the page declares a CHANNEL_KEY.
func (e *TokenBundleExtractor) CanExtract(page *types.EmbedPage) bool {
	return channelKeyPattern.MatchString(page.Body)
}

// Extract authorizes the channel and resolves its playlist URL.
func (e *TokenBundleExtractor) Extract(ctx context.Context, page *types.EmbedPage, hc *headers.Context) (*types.ResolvedLink, error) {
	m := channelKeyPattern.FindStringSubmatch(page.Body)
	if m == nil {
		return nil, fmt.Errorf("%s: CHANNEL_KEY: %w", TokenBundleName, types.ErrNoMatch)
	}
	channelKey := m[1]
	e.log.Debug("found channel key", "key", channelKey, "url", page.WorkingURL)

	b, err := e.parseBundle(page.Body)
	if err != nil {
		return nil, err
	}

	authReq := e.authURL(channelKey, b)
	if _, err := e.fetcher.Get(ctx, hc, authReq, page.WorkingURL, 0); err != nil {
		return nil, fatalDecode("auth", err)
	}

	serverKey, err := e.lookupServer(ctx, hc, page.WorkingURL, channelKey)
	if err != nil {
		return nil, err
	}
	e.log.Debug("found server key", "server_key", serverKey, "key", channelKey)

	return &types.ResolvedLink{
		PlaylistURL: PlaylistURL(serverKey, channelKey),
		Headers:     hostHeaders(page.WorkingURL, hc.UserAgent()),
		Strategy:    TokenBundleName,
	}, nil
}

// bundle holds the auth parameters carried by the token bundle.
type bundle struct {
	TS  string
	Rnd string
	Sig string
}

func (e *TokenBundleExtractor) parseBundle(body string) (*bundle, error) {
	m := bundlePattern.FindStringSubmatch(body)
	if m == nil {
		return nil, fatalDecode("bundle", nil)
	}

	raw, err := decodeBase64(m[1])
	if err != nil {
		return nil, fatalDecode("bundle", err)
	}

	fields, err := decodeFlatJSON(raw)
	if err != nil {
		return nil, fatalDecode("bundle", err)
	}

	var b bundle
	for _, f := range []struct {
		name string
		dst  *string
	}{
		{"b_ts", &b.TS},
		{"b_rnd", &b.Rnd},
		{"b_sig", &b.Sig},
	} {
		v, ok := stringField(fields, f.name)
		if !ok {
			return nil, fatalDecode(f.name, nil)
		}
		*f.dst = v
	}
	return &b, nil
}

// authURL builds the authorization request URL for channelKey.
func (e *TokenBundleExtractor) authURL(channelKey string, b *bundle) string {
	return fmt.Sprintf("%s/%s?channel_id=%s&ts=%s&rnd=%s&sig=%s",
		e.authHost,
		AuthPath(),
		url.QueryEscape(channelKey),
		url.QueryEscape(b.TS),
		url.QueryEscape(b.Rnd),
		url.QueryEscape(b.Sig),
	)
}

func (e *TokenBundleExtractor) lookupServer(ctx context.Context, hc *headers.Context, workingURL, channelKey string) (string, error) {
	lookupURL := fmt.Sprintf("https://%s/server_lookup.php?channel_id=%s", urlutil.Host(workingURL), channelKey)

	page, err := e.fetcher.Get(ctx, hc, lookupURL, workingURL, 0)
	if err != nil {
		return "", fatalDecode("server_lookup", err)
	}

	fields, err := decodeFlatJSON([]byte(page.Body))
	if err != nil {
		return "", fatalDecode("server_lookup", err)
	}

	serverKey, ok := stringField(fields, "server_key")
	if !ok {
		return "", fatalDecode("server_key", nil)
	}
	return serverKey, nil
}

// PlaylistURL builds the newkso playlist URL for a server key.
func PlaylistURL(serverKey, channelKey string) string {
	if serverKey == top1ServerKey {
		return fmt.Sprintf("https://top1.newkso.ru/top1/cdn/%s/mono.m3u8", channelKey)
	}
	return fmt.Sprintf("https://%s.new.newkso.ru/%s/%s/mono.m3u8", serverKey, serverKey, channelKey)
}

func fatalDecode(field string, err error) error {
	return &types.DecodeError{Strategy: TokenBundleName, Field: field, Fatal: true, Err: err}
}

var _ interfaces.Extractor = (*TokenBundleExtractor)(nil)

// Package interfaces defines the core abstractions of the resolver.
// Decoding strategies and the page fetcher implement these interfaces,
// so the pipeline can be assembled and tested from parts.
package interfaces

import (
	"context"
	"net/http"
	"time"

	"dlhd-resolver/pkg/headers"
	"dlhd-resolver/pkg/types"
)

// Extractor decodes a playlist URL out of an embed page. Each known
// obfuscation scheme has its own implementation.
//
// To add a new scheme:
// 1. Create a new file in pkg/extractors/
// 2. Implement this interface
// 3. Register it in the ExtractorRegistry at the right priority
type Extractor interface {
	// Name returns a unique identifier for this extractor.
	Name() string

	// CanExtract reports whether the page carries this scheme's trigger.
	CanExtract(page *types.EmbedPage) bool

	// Extract decodes the page. It returns an error wrapping
	// types.ErrNoMatch when a secondary pattern is absent, a
	// *types.DecodeError when a required field is missing, or any other
	// error to abandon the candidate.
	Extract(ctx context.Context, page *types.EmbedPage, hc *headers.Context) (*types.ResolvedLink, error)

	// Close releases any resources held by the extractor.
	Close() error
}

// PageFetcher performs GET requests with the resolution's header context.
type PageFetcher interface {
	Get(ctx context.Context, hc *headers.Context, url, referer string, timeout time.Duration) (*types.Page, error)
}

// HTTPClient abstracts HTTP operations for testability.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Registry is a generic interface for ordered component registries.
type Registry[T any] interface {
	// Register appends a component; order is priority.
	Register(component T)

	// All returns all registered components in priority order.
	All() []T
}

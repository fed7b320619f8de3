// Package registry keeps the decoding strategies in priority order.
package registry

import (
	"sync"

	"dlhd-resolver/pkg/interfaces"
	"dlhd-resolver/pkg/types"
)

// ExtractorRegistry manages decoding strategies. Registration order is
// priority order.
type ExtractorRegistry struct {
	mu         sync.RWMutex
	extractors []interfaces.Extractor
}

// NewExtractorRegistry creates a new extractor registry.
func NewExtractorRegistry() *ExtractorRegistry {
	return &ExtractorRegistry{
		extractors: make([]interfaces.Extractor, 0),
	}
}

// Register appends an extractor at the lowest priority so far.
func (r *ExtractorRegistry) Register(extractor interfaces.Extractor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.extractors = append(r.extractors, extractor)
}

// Matching returns, in priority order, the extractors whose trigger is
// present on page.
func (r *ExtractorRegistry) Matching(page *types.EmbedPage) []interfaces.Extractor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []interfaces.Extractor
	for _, e := range r.extractors {
		if e.CanExtract(page) {
			out = append(out, e)
		}
	}
	return out
}

// Names returns extractor names in priority order.
func (r *ExtractorRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.extractors))
	for i, e := range r.extractors {
		names[i] = e.Name()
	}
	return names
}

// All returns all registered extractors.
func (r *ExtractorRegistry) All() []interfaces.Extractor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]interfaces.Extractor, len(r.extractors))
	copy(result, r.extractors)
	return result
}

// Close closes all registered extractors.
func (r *ExtractorRegistry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.extractors {
		_ = e.Close()
	}
	return nil
}

var _ interfaces.Registry[interfaces.Extractor] = (*ExtractorRegistry)(nil)

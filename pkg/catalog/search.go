package catalog

import (
	"context"
	"strings"

	"github.com/samber/lo"

	"dlhd-resolver/pkg/types"
)

var stopwords = []string{
	"a", "an", "and", "are", "as", "at", "be", "but", "by",
	"for", "if", "in", "into", "is", "it", "no", "not", "of",
	"on", "or", "such", "that", "the", "their", "then", "there",
	"these", "they", "this", "to", "was", "will", "with",
}

// SearchResult holds events and channels matching a query.
type SearchResult struct {
	Events   []types.Event   `json:"events"`
	Channels []types.Channel `json:"channels"`
}

// Keywords splits query into lowercase words, dropping stopwords.
func Keywords(query string) []string {
	words := lo.Map(strings.Fields(query), func(w string, _ int) string {
		return strings.ToLower(w)
	})
	return lo.Uniq(lo.Without(words, stopwords...))
}

// Search returns the events whose title and the channels whose name
// contain any keyword of query.
func (c *Catalog) Search(ctx context.Context, query string) (*SearchResult, error) {
	result := &SearchResult{Events: []types.Event{}, Channels: []types.Channel{}}
	keywords := Keywords(query)
	if len(keywords) == 0 {
		return result, nil
	}

	events, err := c.Schedule(ctx)
	if err != nil {
		return nil, err
	}
	channels, err := c.Channels(ctx)
	if err != nil {
		return nil, err
	}

	result.Events = lo.Filter(events, func(ev types.Event, _ int) bool {
		return containsAny(ev.Title, keywords)
	})
	result.Channels = lo.Filter(channels, func(ch types.Channel, _ int) bool {
		return containsAny(ch.Name, keywords)
	})
	return result, nil
}

// MatchLinks returns a (channel name, stream reference) pair for every
// channel of every event whose title equals or contains title, ignoring
// case. Channels without an id are skipped.
func (c *Catalog) MatchLinks(ctx context.Context, title string) ([]types.StreamPair, error) {
	events, err := c.Schedule(ctx)
	if err != nil {
		return nil, err
	}
	return matchLinks(events, title), nil
}

func matchLinks(events []types.Event, title string) []types.StreamPair {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil
	}
	needle := strings.ToLower(title)

	matched := lo.Filter(events, func(ev types.Event, _ int) bool {
		return strings.EqualFold(ev.Title, title) || strings.Contains(strings.ToLower(ev.Title), needle)
	})
	return lo.FlatMap(matched, func(ev types.Event, _ int) []types.StreamPair {
		var pairs []types.StreamPair
		for _, ch := range ev.Channels {
			if strings.TrimSpace(ch.ID) == "" {
				continue
			}
			pairs = append(pairs, types.StreamPair{Label: ch.Name, Reference: types.StreamReferenceFor(ch.ID)})
		}
		return pairs
	})
}

func containsAny(s string, keywords []string) bool {
	s = strings.ToLower(s)
	return lo.SomeBy(keywords, func(k string) bool {
		return strings.Contains(s, k)
	})
}

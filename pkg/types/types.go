// Package types defines core domain types used throughout the application.
package types

import "strings"

// Outcome classifies what happened to a single candidate during resolution.
type Outcome string

const (
	OutcomeResolved  Outcome = "resolved"
	OutcomeTransport Outcome = "transport"
	OutcomeNotFound  Outcome = "not_found"
	OutcomeDecode    Outcome = "decode"
	OutcomeNoMatch   Outcome = "no_match"
	OutcomeError     Outcome = "error"
)

// Page is a fetched document.
type Page struct {
	URL        string
	StatusCode int
	Body       string
}

// EmbedPage is the page a decoding strategy inspects: the working URL
// (the embed or wrapper target) and its body, plus the candidate it was
// reached from.
type EmbedPage struct {
	Candidate  string
	WorkingURL string
	Body       string
}

// Attempt records the outcome of one candidate.
type Attempt struct {
	Candidate string  `json:"candidate"`
	Outcome   Outcome `json:"outcome"`
	Strategy  string  `json:"strategy,omitempty"`
	Err       error   `json:"-"`
}

// Resolution is the result of resolving one stream reference.
// Link is nil when every candidate was exhausted.
type Resolution struct {
	Reference string
	Link      *ResolvedLink
	Attempts  []Attempt
}

// Resolved reports whether a playable link was found.
func (r *Resolution) Resolved() bool {
	return r != nil && r.Link != nil
}

// Channel is a 24/7 channel listed by the site.
type Channel struct {
	Name      string `json:"name"`
	ID        string `json:"id"`
	Reference string `json:"reference"`
}

// EventChannel is a channel broadcasting a scheduled event.
type EventChannel struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// Event is a scheduled broadcast.
type Event struct {
	Title    string         `json:"title"`
	Time     string         `json:"time"`
	Category string         `json:"category"`
	Date     string         `json:"date"`
	Channels []EventChannel `json:"channels"`
}

// StreamPair associates a channel label with a stream reference.
type StreamPair struct {
	Label     string `json:"label"`
	Reference string `json:"reference"`
}

// PlaybackLink is what callers hand to a player.
type PlaybackLink struct {
	Label    string            `json:"label"`
	URL      string            `json:"url"`
	Headers  map[string]string `json:"headers"`
	Encoded  string            `json:"encoded"`
	Strategy string            `json:"strategy,omitempty"`
}

// StreamReferenceFor builds the site path for a numeric channel id.
func StreamReferenceFor(id string) string {
	return "/stream/stream-" + strings.TrimSpace(id) + ".php"
}

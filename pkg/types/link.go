package types

import "strings"

// HeaderSet is an insertion-ordered set of HTTP headers with unique names.
// The zero value is ready to use.
type HeaderSet struct {
	keys   []string
	values map[string]string
}

// NewHeaderSet builds a HeaderSet from alternating name/value pairs.
func NewHeaderSet(pairs ...string) HeaderSet {
	var h HeaderSet
	for i := 0; i+1 < len(pairs); i += 2 {
		h.Set(pairs[i], pairs[i+1])
	}
	return h
}

// Set stores value under name, keeping the original position when the
// name is already present.
func (h *HeaderSet) Set(name, value string) {
	if h.values == nil {
		h.values = make(map[string]string)
	}
	if _, ok := h.values[name]; !ok {
		h.keys = append(h.keys, name)
	}
	h.values[name] = value
}

// SetIfAbsent stores value only when name is not present yet.
func (h *HeaderSet) SetIfAbsent(name, value string) {
	if _, ok := h.values[name]; ok {
		return
	}
	h.Set(name, value)
}

// Get returns the value stored under name.
func (h HeaderSet) Get(name string) (string, bool) {
	v, ok := h.values[name]
	return v, ok
}

// Len returns the number of headers.
func (h HeaderSet) Len() int {
	return len(h.keys)
}

// Keys returns header names in insertion order.
func (h HeaderSet) Keys() []string {
	out := make([]string, len(h.keys))
	copy(out, h.keys)
	return out
}

// Map returns a copy of the headers as a plain map.
func (h HeaderSet) Map() map[string]string {
	out := make(map[string]string, len(h.keys))
	for _, k := range h.keys {
		out[k] = h.values[k]
	}
	return out
}

// Clone returns an independent copy of h.
func (h HeaderSet) Clone() HeaderSet {
	var out HeaderSet
	for _, k := range h.keys {
		out.Set(k, h.values[k])
	}
	return out
}

// Equal reports whether both sets hold the same headers in the same order.
func (h HeaderSet) Equal(other HeaderSet) bool {
	if len(h.keys) != len(other.keys) {
		return false
	}
	for i, k := range h.keys {
		if other.keys[i] != k || other.values[k] != h.values[k] {
			return false
		}
	}
	return true
}

// ResolvedLink is a playable playlist URL plus the headers needed to fetch it.
type ResolvedLink struct {
	PlaylistURL string
	Headers     HeaderSet
	// Strategy names the decoder that produced the link. It is not part
	// of the encoded form.
	Strategy string
}

// Encode renders the link as "url|k1=v1&k2=v2". A link without headers
// encodes as the bare URL.
func (l ResolvedLink) Encode() string {
	if l.Headers.Len() == 0 {
		return l.PlaylistURL
	}
	var b strings.Builder
	b.WriteString(l.PlaylistURL)
	b.WriteByte('|')
	for i, k := range l.Headers.keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(l.Headers.values[k])
	}
	return b.String()
}

// String implements fmt.Stringer.
func (l ResolvedLink) String() string {
	return l.Encode()
}

// DecodeLink parses the encoded form produced by Encode. Only the first
// '|' separates URL from headers; each fragment splits on its first '='.
// Empty fragments and fragments without '=' are skipped. Only the URL and
// headers survive the round trip; Strategy is left empty.
func DecodeLink(encoded string) ResolvedLink {
	playlist, rest, found := strings.Cut(encoded, "|")
	link := ResolvedLink{PlaylistURL: playlist}
	if !found {
		return link
	}
	for _, fragment := range strings.Split(rest, "&") {
		if fragment == "" {
			continue
		}
		name, value, ok := strings.Cut(fragment, "=")
		if !ok {
			continue
		}
		link.Headers.Set(name, value)
	}
	return link
}

// Package headers holds the per-resolution Referer/Origin state applied to
// every outbound request.
package headers

import (
	"net/http"
	"strings"
)

// Context tracks the headers sent on each fetch of one resolve call.
// A Context must not be shared between concurrent resolve calls.
type Context struct {
	userAgent string
	referer   string
	origin    string
}

// New returns a Context seeded with the user agent and the site root
// (primaryURL + "/") as the initial Referer and Origin.
func New(userAgent, primaryURL string) *Context {
	root := strings.TrimRight(primaryURL, "/") + "/"
	return &Context{
		userAgent: userAgent,
		referer:   root,
		origin:    root,
	}
}

// Apply updates the context for the next request. A non-blank override
// becomes both Referer and Origin; otherwise the last values are kept.
func (c *Context) Apply(override string) {
	if strings.TrimSpace(override) == "" {
		return
	}
	c.referer = override
	c.origin = override
}

// Referer returns the current Referer.
func (c *Context) Referer() string { return c.referer }

// Origin returns the current Origin.
func (c *Context) Origin() string { return c.origin }

// UserAgent returns the configured user agent.
func (c *Context) UserAgent() string { return c.userAgent }

// Header renders the current state as request headers.
func (c *Context) Header() http.Header {
	h := make(http.Header, 3)
	if c.userAgent != "" {
		h.Set("User-Agent", c.userAgent)
	}
	if c.referer != "" {
		h.Set("Referer", c.referer)
	}
	if c.origin != "" {
		h.Set("Origin", c.origin)
	}
	return h
}

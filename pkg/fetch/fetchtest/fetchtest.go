// Package fetchtest provides an in-process HTTP client for pipeline tests.
// Requests are routed by scheme and host to registered handlers; anything
// unrouted fails like a refused connection.
package fetchtest

import (
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"sync"
)

// Router implements interfaces.HTTPClient.
type Router struct {
	mu       sync.Mutex
	routes   map[string]http.Handler
	requests []*http.Request
}

// NewRouter returns an empty Router.
func NewRouter() *Router {
	return &Router{routes: make(map[string]http.Handler)}
}

// Handle registers h for origin, e.g. "https://dlhd.dad".
func (r *Router) Handle(origin string, h http.Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes[origin] = h
}

// HandleFunc registers f for origin.
func (r *Router) HandleFunc(origin string, f func(http.ResponseWriter, *http.Request)) {
	r.Handle(origin, http.HandlerFunc(f))
}

// Page registers a handler that serves body with status 200 for every
// path of origin.
func (r *Router) Page(origin, body string) {
	r.HandleFunc(origin, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(body))
	})
}

// Do serves req from the matching handler.
func (r *Router) Do(req *http.Request) (*http.Response, error) {
	r.mu.Lock()
	r.requests = append(r.requests, req.Clone(req.Context()))
	h, ok := r.routes[req.URL.Scheme+"://"+req.URL.Host]
	r.mu.Unlock()

	if err := req.Context().Err(); err != nil {
		return nil, err
	}
	if !ok {
		return nil, &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if err := req.Context().Err(); err != nil {
		return nil, err
	}
	resp := rec.Result()
	resp.Request = req
	return resp, nil
}

// Requests returns every request seen so far, in order.
func (r *Router) Requests() []*http.Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*http.Request, len(r.requests))
	copy(out, r.requests)
	return out
}

// URLs returns the URL of every request seen so far, in order.
func (r *Router) URLs() []string {
	reqs := r.Requests()
	out := make([]string, len(reqs))
	for i, req := range reqs {
		out[i] = req.URL.String()
	}
	return out
}

// Count returns how many requests were made to rawURL.
func (r *Router) Count(rawURL string) int {
	n := 0
	for _, u := range r.URLs() {
		if u == rawURL {
			n++
		}
	}
	return n
}

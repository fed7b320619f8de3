// Package api provides HTTP handlers for the resolver API.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"dlhd-resolver/pkg/appctx"
	"dlhd-resolver/pkg/logging"
	"dlhd-resolver/pkg/services"
	"dlhd-resolver/pkg/types"
)

// Version is reported by the info endpoints.
const Version = "1.0.0"

// Handlers contains all API handlers.
type Handlers struct {
	ctx *appctx.Context
	log *logging.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(ctx *appctx.Context) *Handlers {
	return &Handlers{
		ctx: ctx,
		log: ctx.Log.WithComponent("api"),
	}
}

// RegisterRoutes registers all API routes.
func (h *Handlers) RegisterRoutes(mux *http.ServeMux) {
	// Public routes
	mux.HandleFunc("GET /{$}", h.handleIndex)
	mux.HandleFunc("GET /api/info", h.handleAPIInfo)
	mux.HandleFunc("GET /favicon.ico", h.handleFavicon)

	// Resolution routes
	mux.HandleFunc("GET /api/resolve", h.handleResolve)
	mux.HandleFunc("GET /api/links", h.handleLinks)
	mux.HandleFunc("GET /api/events/links", h.handleEventLinks)
	mux.HandleFunc("GET /api/probe", h.handleProbe)

	// Catalog routes
	mux.HandleFunc("GET /api/channels", h.handleChannels)
	mux.HandleFunc("GET /api/schedule", h.handleSchedule)
	mux.HandleFunc("GET /api/search", h.handleSearch)
	mux.HandleFunc("POST /api/catalog/refresh", h.handleRefresh)

	mux.Handle("GET /metrics", promhttp.Handler())
}

// handleIndex serves a short endpoint overview.
func (h *Handlers) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, `<!DOCTYPE html>
<html>
<head><title>DLHD Resolver</title></head>
<body>
    <h1>DLHD Resolver</h1>
    <p>Version: %s</p>
    <ul>
        <li><code>GET /api/resolve?ref=/stream/stream-51.php</code></li>
        <li><code>GET /api/links?data=...</code></li>
        <li><code>GET /api/events/links?title=...</code></li>
        <li><code>GET /api/probe?ref=/stream/stream-51.php</code></li>
        <li><code>GET /api/channels</code></li>
        <li><code>GET /api/schedule</code></li>
        <li><code>GET /api/search?q=...</code></li>
        <li><code>GET /metrics</code></li>
    </ul>
</body>
</html>`, Version)
}

// handleAPIInfo returns server status as JSON.
func (h *Handlers) handleAPIInfo(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{
		"status":     "running",
		"version":    Version,
		"site":       h.ctx.Config.PrimaryURL,
		"legacySite": h.ctx.Config.LegacyURL,
	})
}

func (h *Handlers) handleFavicon(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

// handleResolve resolves a single stream reference.
func (h *Handlers) handleResolve(w http.ResponseWriter, r *http.Request) {
	ref := r.URL.Query().Get("ref")
	label := r.URL.Query().Get("label")

	link, err := h.ctx.Resolve.ResolveReference(r.Context(), label, ref)
	if err != nil {
		h.writeResolveError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, link)
}

// handleLinks accepts a link list, a reference or an event title.
func (h *Handlers) handleLinks(w http.ResponseWriter, r *http.Request) {
	links, err := h.ctx.Resolve.ResolveInput(r.Context(), r.URL.Query().Get("data"))
	if err != nil {
		h.writeResolveError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, links)
}

// handleEventLinks resolves every channel of the events matching title.
func (h *Handlers) handleEventLinks(w http.ResponseWriter, r *http.Request) {
	title := r.URL.Query().Get("title")
	if title == "" {
		h.writeError(w, http.StatusBadRequest, "title parameter required")
		return
	}

	links, err := h.ctx.Resolve.ResolveEvent(r.Context(), title)
	if err != nil {
		h.writeResolveError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, links)
}

// handleProbe resolves a reference and checks that the playlist answers
// with the link's headers.
func (h *Handlers) handleProbe(w http.ResponseWriter, r *http.Request) {
	link, err := h.ctx.Resolve.ResolveReference(r.Context(), r.URL.Query().Get("label"), r.URL.Query().Get("ref"))
	if err != nil {
		h.writeResolveError(w, err)
		return
	}
	if h.ctx.Prober == nil {
		h.writeError(w, http.StatusServiceUnavailable, "probing not configured")
		return
	}

	result, err := h.ctx.Prober.Probe(r.Context(), link.URL, link.Headers)
	if err != nil {
		h.log.Warn("probe failed", "url", link.URL, "error", err)
		h.writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"link":  link,
		"probe": result,
	})
}

func (h *Handlers) handleChannels(w http.ResponseWriter, r *http.Request) {
	channels, err := h.ctx.Catalog.Channels(r.Context())
	if err != nil {
		h.log.WithError(err).Warn("channel list unavailable")
		h.writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, channels)
}

func (h *Handlers) handleSchedule(w http.ResponseWriter, r *http.Request) {
	events, err := h.ctx.Catalog.Schedule(r.Context())
	if err != nil {
		h.log.WithError(err).Warn("schedule unavailable")
		h.writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, events)
}

func (h *Handlers) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		h.writeError(w, http.StatusBadRequest, "q parameter required")
		return
	}

	result, err := h.ctx.Catalog.Search(r.Context(), q)
	if err != nil {
		h.log.WithError(err).Warn("search failed", "query", q)
		h.writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handlers) handleRefresh(w http.ResponseWriter, r *http.Request) {
	h.ctx.Catalog.Refresh()
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "refreshed"})
}

// Helper methods

func (h *Handlers) writeResolveError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, types.ErrBlankReference):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrInvalidLinkList):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrNoLinks):
		h.writeError(w, http.StatusNotFound, err.Error())
	default:
		h.log.WithError(err).Error("resolve failed")
		h.writeError(w, http.StatusBadGateway, err.Error())
	}
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *Handlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}

// Package appctx provides the application context that holds all runtime dependencies.
package appctx

import (
	"fmt"

	"dlhd-resolver/pkg/catalog"
	"dlhd-resolver/pkg/config"
	"dlhd-resolver/pkg/logging"
	"dlhd-resolver/pkg/probe"
	"dlhd-resolver/pkg/services"
)

// Context holds all application runtime dependencies.
// Pass this single struct to components instead of individual parameters.
type Context struct {
	Config  *config.Config
	Log     *logging.Logger
	Resolve *services.ResolveService
	Catalog *catalog.Catalog
	Prober  *probe.Prober
	BaseURL string
}

// New creates a new application context.
func New(cfg *config.Config, log *logging.Logger) *Context {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = fmt.Sprintf("http://localhost:%d", cfg.Port)
	}
	return &Context{
		Config:  cfg,
		Log:     log,
		BaseURL: baseURL,
	}
}

// WithResolveService sets the resolve service.
func (c *Context) WithResolveService(s *services.ResolveService) *Context {
	c.Resolve = s
	return c
}

// WithCatalog sets the catalog.
func (c *Context) WithCatalog(cat *catalog.Catalog) *Context {
	c.Catalog = cat
	return c
}

// WithProber sets the playlist prober.
func (c *Context) WithProber(p *probe.Prober) *Context {
	c.Prober = p
	return c
}

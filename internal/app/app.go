// Package app provides the main application setup and dependency injection.
package app

import (
	"github.com/samber/lo"

	"dlhd-resolver/pkg/appctx"
	"dlhd-resolver/pkg/catalog"
	"dlhd-resolver/pkg/config"
	"dlhd-resolver/pkg/extractors"
	"dlhd-resolver/pkg/fetch"
	"dlhd-resolver/pkg/flaresolverr"
	"dlhd-resolver/pkg/handlers/api"
	"dlhd-resolver/pkg/httpclient"
	"dlhd-resolver/pkg/interfaces"
	"dlhd-resolver/pkg/logging"
	"dlhd-resolver/pkg/probe"
	"dlhd-resolver/pkg/registry"
	"dlhd-resolver/pkg/resolver"
	"dlhd-resolver/pkg/server"
	"dlhd-resolver/pkg/services"
	"dlhd-resolver/pkg/urlutil"
)

// Pipeline holds the resolution components shared by the server and the
// CLI.
type Pipeline struct {
	HTTPClient *httpclient.Client
	Extractors *registry.ExtractorRegistry
	Resolver   *resolver.Resolver
	Catalog    *catalog.Catalog
	Service    *services.ResolveService
	Prober     *probe.Prober
}

// NewPipeline wires the HTTP client, fetcher, strategies, resolver,
// catalog, resolve service and playlist prober from cfg.
func NewPipeline(cfg *config.Config, log *logging.Logger) (*Pipeline, error) {
	// Create HTTP client, routing site pages through FlareSolverr if configured
	httpClient := httpclient.New(cfg, log)
	if cfg.FlareSolverrURL != "" {
		flareClient := flaresolverr.NewClient(cfg.FlareSolverrURL, cfg.FlareSolverrTimeout, log)
		siteHosts := lo.Compact(lo.Map(cfg.SiteDomains(), func(d string, _ int) string {
			return urlutil.Host(d)
		}))
		httpClient.WithSolver(flareClient, siteHosts...)
		log.Info("FlareSolverr client enabled", "url", cfg.FlareSolverrURL, "hosts", siteHosts)
	}

	fetcher := fetch.New(httpClient, cfg.FetchTimeout, log)

	// Initialize extractor registry
	extractorReg := registry.NewExtractorRegistry()
	registerExtractors(extractorReg, fetcher, cfg, log)

	res := resolver.New(fetcher, extractorReg, resolver.Options{
		PrimaryURL:     cfg.PrimaryURL,
		LegacyURL:      cfg.LegacyURL,
		UserAgent:      cfg.UserAgent,
		FetchTimeout:   cfg.FetchTimeout,
		WrapperTimeout: cfg.WrapperTimeout,
	}, log)

	cat := catalog.New(fetcher, catalog.Options{
		PrimaryURL:   cfg.PrimaryURL,
		LegacyURL:    cfg.LegacyURL,
		UserAgent:    cfg.UserAgent,
		FetchTimeout: cfg.FetchTimeout,
		TTL:          cfg.CatalogTTL,
		MaxEntries:   cfg.CatalogMaxEntries,
	}, log)

	svc, err := services.NewResolveService(res, cat, services.ResolveOptions{
		PrimaryURL: cfg.PrimaryURL,
		UserAgent:  cfg.UserAgent,
		Workers:    cfg.ResolveWorkers,
		Rate:       cfg.ResolveRate,
	}, log)
	if err != nil {
		return nil, err
	}

	return &Pipeline{
		HTTPClient: httpClient,
		Extractors: extractorReg,
		Resolver:   res,
		Catalog:    cat,
		Service:    svc,
		Prober:     probe.New(httpClient, cfg.FetchTimeout, log),
	}, nil
}

// Close releases the worker pool and the strategies.
func (p *Pipeline) Close() {
	p.Service.Close()
	p.Extractors.Close()
}

// App is the main application container.
type App struct {
	Ctx      *appctx.Context
	Server   *server.Server
	Pipeline *Pipeline
}

// New creates and initializes the application.
func New() (*App, error) {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	log := logging.New(cfg.LogLevel, cfg.LogJSON, nil)
	log.Info("initializing DLHD resolver", "port", cfg.Port, "log_level", cfg.LogLevel, "site", cfg.PrimaryURL)

	pipeline, err := NewPipeline(cfg, log)
	if err != nil {
		return nil, err
	}

	// Create application context
	ctx := appctx.New(cfg, log).
		WithResolveService(pipeline.Service).
		WithCatalog(pipeline.Catalog).
		WithProber(pipeline.Prober)

	// Create HTTP server
	srv := server.New(cfg, log)

	// Create API handlers
	handlers := api.NewHandlers(ctx)
	handlers.RegisterRoutes(srv.Router())

	return &App{
		Ctx:      ctx,
		Server:   srv,
		Pipeline: pipeline,
	}, nil
}

// Run starts the application.
func (a *App) Run() error {
	a.Ctx.Log.Info("starting DLHD resolver server", "port", a.Ctx.Config.Port)
	return a.Server.Start()
}

// Shutdown gracefully shuts down the application.
func (a *App) Shutdown() {
	a.Ctx.Log.Info("shutting down application")
	a.Pipeline.Close()
}

// registerExtractors registers the decoding strategies in priority order.
// Add new strategies here by:
// 1. Creating a new extractor in pkg/extractors/
// 2. Registering it below at the position it should be tried
func registerExtractors(
	reg *registry.ExtractorRegistry,
	fetcher interfaces.PageFetcher,
	cfg *config.Config,
	log *logging.Logger,
) {
	reg.Register(extractors.NewTokenBundleExtractor(fetcher, cfg.AuthHost, log))
	reg.Register(extractors.NewAtobExtractor(fetcher, log))
	reg.Register(extractors.NewBlogspotExtractor(log))
	reg.Register(extractors.NewPlayVarExtractor(log))

	log.Info("registered extractors", "order", reg.Names())
}

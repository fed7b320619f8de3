// Package config loads resolver and server settings from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Default site and client settings.
const (
	DefaultPrimaryURL = "https://dlhd.dad"
	DefaultLegacyURL  = "https://daddylivestream.com"
	DefaultAuthHost   = "https://top2new.newkso.ru"
	DefaultUserAgent  = "Mozilla/5.0 (Linux; Android 10; K) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/114.0.0.0 Mobile Safari/537.36"
)

// Config holds all application configuration.
type Config struct {
	// Server settings
	Port         int
	BaseURL      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// Authentication
	APIPassword string

	// Proxy settings
	GlobalProxies   []string
	TransportRoutes []TransportRoute

	// Site settings. LegacyURL may be empty to disable the second domain.
	PrimaryURL string
	LegacyURL  string
	AuthHost   string
	UserAgent  string

	// Fetch timeouts: FetchTimeout for page loads, WrapperTimeout for
	// wrapper hops (wikisport/lovecdn).
	FetchTimeout   time.Duration
	WrapperTimeout time.Duration

	// Catalog cache
	CatalogTTL        time.Duration
	CatalogMaxEntries int

	// Event fan-out
	ResolveWorkers int
	ResolveRate    int

	// Logging
	LogLevel string
	LogJSON  bool

	// FlareSolverr settings (for Cloudflare bypass on site pages)
	FlareSolverrURL     string
	FlareSolverrTimeout time.Duration
}

// TransportRoute defines URL-specific proxy routing.
type TransportRoute struct {
	URLPattern string
	Proxy      string
	DisableSSL bool
	Direct     bool // If true, bypass global proxy and connect directly
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	port := getEnvInt("PORT", 7860)
	cfg := &Config{
		Port:                port,
		BaseURL:             getEnvString("BASE_URL", fmt.Sprintf("http://localhost:%d", port)),
		ReadTimeout:         getEnvDuration("READ_TIMEOUT", 30*time.Second),
		WriteTimeout:        getEnvDuration("WRITE_TIMEOUT", 120*time.Second),
		IdleTimeout:         getEnvDuration("IDLE_TIMEOUT", 60*time.Second),
		APIPassword:         os.Getenv("API_PASSWORD"),
		GlobalProxies:       getEnvStringSlice("GLOBAL_PROXIES", nil),
		PrimaryURL:          strings.TrimRight(getEnvString("SITE_PRIMARY_URL", DefaultPrimaryURL), "/"),
		LegacyURL:           strings.TrimRight(getEnvStringAllowEmpty("SITE_LEGACY_URL", DefaultLegacyURL), "/"),
		AuthHost:            strings.TrimRight(getEnvString("AUTH_HOST_URL", DefaultAuthHost), "/"),
		UserAgent:           getEnvString("USER_AGENT", DefaultUserAgent),
		FetchTimeout:        getEnvDuration("FETCH_TIMEOUT", 30*time.Second),
		WrapperTimeout:      getEnvDuration("WRAPPER_TIMEOUT", 60*time.Second),
		CatalogTTL:          getEnvDuration("CATALOG_TTL", 30*time.Minute),
		CatalogMaxEntries:   getEnvInt("CATALOG_MAX_ENTRIES", 64),
		ResolveWorkers:      getEnvInt("RESOLVE_WORKERS", 4),
		ResolveRate:         getEnvInt("RESOLVE_RATE", 5),
		LogLevel:            getEnvString("LOG_LEVEL", "info"),
		LogJSON:             getEnvBool("LOG_JSON", false),
		FlareSolverrURL:     getEnvString("FLARESOLVERR_URL", ""),
		FlareSolverrTimeout: getEnvDuration("FLARESOLVERR_TIMEOUT", 60*time.Second),
	}

	if cfg.ResolveWorkers < 1 {
		cfg.ResolveWorkers = 1
	}

	cfg.TransportRoutes = parseTransportRoutes(os.Getenv("TRANSPORT_ROUTES"))

	// Legacy single proxy support
	if globalProxy := os.Getenv("GLOBAL_PROXY"); globalProxy != "" && len(cfg.GlobalProxies) == 0 {
		cfg.GlobalProxies = []string{globalProxy}
	}

	return cfg
}

// parseTransportRoutes parses the TRANSPORT_ROUTES env var.
// Format: {URL=pattern, PROXY=url, DISABLE_SSL=true}, {URL=pattern2}
func parseTransportRoutes(s string) []TransportRoute {
	if s == "" {
		return nil
	}

	var routes []TransportRoute
	s = strings.TrimSpace(s)

	// Split by "}, {" pattern
	parts := strings.Split(s, "}, {")
	for _, part := range parts {
		part = strings.Trim(part, "{} ")
		if part == "" {
			continue
		}

		route := TransportRoute{}
		fields := strings.Split(part, ", ")
		for _, field := range fields {
			kv := strings.SplitN(field, "=", 2)
			if len(kv) != 2 {
				continue
			}
			key := strings.TrimSpace(kv[0])
			value := strings.TrimSpace(kv[1])

			switch strings.ToUpper(key) {
			case "URL":
				route.URLPattern = value
			case "PROXY":
				route.Proxy = value
			case "DISABLE_SSL":
				route.DisableSSL = strings.ToLower(value) == "true"
			case "DIRECT":
				route.Direct = strings.ToLower(value) == "true"
			}
		}
		if route.URLPattern != "" {
			routes = append(routes, route)
		}
	}

	return routes
}

func getEnvString(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// getEnvStringAllowEmpty distinguishes an unset variable from one set to
// the empty string, so SITE_LEGACY_URL= turns the legacy domain off.
func getEnvStringAllowEmpty(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(val)
	}
	return defaultVal
}

// SiteDomains returns the configured site roots in priority order.
func (c *Config) SiteDomains() []string {
	domains := []string{c.PrimaryURL}
	if c.LegacyURL != "" {
		domains = append(domains, c.LegacyURL)
	}
	return domains
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		return strings.ToLower(val) == "true" || val == "1"
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		// Try parsing as seconds first
		if secs, err := strconv.Atoi(val); err == nil {
			return time.Duration(secs) * time.Second
		}
		// Try parsing as duration string
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

func getEnvStringSlice(key string, defaultVal []string) []string {
	if val := os.Getenv(key); val != "" {
		parts := strings.Split(val, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}
	return defaultVal
}

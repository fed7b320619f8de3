package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "SITE_PRIMARY_URL", "FETCH_TIMEOUT", "WRAPPER_TIMEOUT", "RESOLVE_WORKERS"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.Port != 7860 {
		t.Errorf("Port = %d, want 7860", cfg.Port)
	}
	if cfg.PrimaryURL != DefaultPrimaryURL {
		t.Errorf("PrimaryURL = %q, want %q", cfg.PrimaryURL, DefaultPrimaryURL)
	}
	if cfg.FetchTimeout != 30*time.Second {
		t.Errorf("FetchTimeout = %v, want 30s", cfg.FetchTimeout)
	}
	if cfg.WrapperTimeout != 60*time.Second {
		t.Errorf("WrapperTimeout = %v, want 60s", cfg.WrapperTimeout)
	}
	if cfg.AuthHost != DefaultAuthHost {
		t.Errorf("AuthHost = %q, want %q", cfg.AuthHost, DefaultAuthHost)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SITE_PRIMARY_URL", "https://mirror.example/")
	t.Setenv("SITE_LEGACY_URL", "")
	t.Setenv("FETCH_TIMEOUT", "5")
	t.Setenv("WRAPPER_TIMEOUT", "90s")
	t.Setenv("RESOLVE_WORKERS", "0")

	cfg := Load()

	if cfg.PrimaryURL != "https://mirror.example" {
		t.Errorf("PrimaryURL = %q, want trailing slash trimmed", cfg.PrimaryURL)
	}
	if cfg.LegacyURL != "" {
		t.Errorf("LegacyURL = %q, want empty", cfg.LegacyURL)
	}
	if cfg.FetchTimeout != 5*time.Second {
		t.Errorf("FetchTimeout = %v, want 5s", cfg.FetchTimeout)
	}
	if cfg.WrapperTimeout != 90*time.Second {
		t.Errorf("WrapperTimeout = %v, want 90s", cfg.WrapperTimeout)
	}
	if cfg.ResolveWorkers != 1 {
		t.Errorf("ResolveWorkers = %d, want clamp to 1", cfg.ResolveWorkers)
	}
	if got := cfg.SiteDomains(); len(got) != 1 || got[0] != "https://mirror.example" {
		t.Errorf("SiteDomains() = %v", got)
	}
}

func TestParseTransportRoutes(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []TransportRoute
	}{
		{name: "empty", input: "", want: nil},
		{
			name:  "single route",
			input: "{URL=newkso.ru, PROXY=socks5://127.0.0.1:1080}",
			want:  []TransportRoute{{URLPattern: "newkso.ru", Proxy: "socks5://127.0.0.1:1080"}},
		},
		{
			name:  "two routes with flags",
			input: "{URL=dlhd.dad, DIRECT=true}, {URL=lovecdn, DISABLE_SSL=true}",
			want: []TransportRoute{
				{URLPattern: "dlhd.dad", Direct: true},
				{URLPattern: "lovecdn", DisableSSL: true},
			},
		},
		{name: "route without url is dropped", input: "{PROXY=http://p:8080}", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseTransportRoutes(tt.input)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d routes, want %d: %+v", len(got), len(tt.want), got)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("route[%d] = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

package server

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"dlhd-resolver/pkg/config"
	"dlhd-resolver/pkg/logging"
)

func TestServer_Handler(t *testing.T) {
	cfg := &config.Config{Port: 0, APIPassword: "secret"}
	s := New(cfg, logging.New("error", false, io.Discard))
	s.Router().HandleFunc("GET /api/info", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	s.Router().HandleFunc("GET /api/channels", func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	tests := []struct {
		name       string
		target     string
		wantStatus int
	}{
		{"public route", "/api/info", http.StatusOK},
		{"protected route without password", "/api/channels", http.StatusUnauthorized},
		{"panic is recovered", "/api/channels?api_password=secret", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.target, nil))
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if w.Header().Get("X-Request-ID") == "" {
				t.Error("missing X-Request-ID")
			}
			if w.Header().Get("Access-Control-Allow-Origin") != "*" {
				t.Error("missing CORS header")
			}
		})
	}
}

package trace

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	applog "spendlens/internal/log"
)

func newTestMiddleware(buf *strings.Builder) *Middleware {
	cfg := applog.DefaultConfig()
	cfg.Output = buf
	cfg.Format = "json"
	return NewMiddleware(applog.New(cfg), func(r *http.Request) string { return "192.0.2.1" })
}

func TestMiddleware_RequestID(t *testing.T) {
	var logs strings.Builder
	m := newTestMiddleware(&logs)

	var seen string
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = applog.RequestID(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/records", nil))

	id := w.Header().Get(RequestIDHeader)
	if !strings.HasPrefix(id, "req_") {
		t.Fatalf("generated id = %q", id)
	}
	if seen != id {
		t.Errorf("context id = %q, header id = %q", seen, id)
	}
	if !strings.Contains(logs.String(), id) {
		t.Errorf("access log should carry the request id, got %s", logs.String())
	}
	if !strings.Contains(logs.String(), `"status_code":418`) {
		t.Errorf("access log should carry the status, got %s", logs.String())
	}
	if got := m.GetMetrics().TotalRequests; got != 1 {
		t.Errorf("TotalRequests = %d, want 1", got)
	}
}

func TestMiddleware_IncomingRequestID(t *testing.T) {
	var logs strings.Builder
	h := newTestMiddleware(&logs).Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	tests := []struct {
		incoming string
		keep     bool
	}{
		{"abc-123_DEF", true},
		{"has space", false},
		{strings.Repeat("a", 65), false},
		{"", false},
	}

	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		if tt.incoming != "" {
			r.Header.Set(RequestIDHeader, tt.incoming)
		}
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)

		got := w.Header().Get(RequestIDHeader)
		if tt.keep && got != tt.incoming {
			t.Errorf("incoming %q should be kept, got %q", tt.incoming, got)
		}
		if !tt.keep && got == tt.incoming {
			t.Errorf("incoming %q should be replaced", tt.incoming)
		}
	}
}

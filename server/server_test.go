package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/giygas/smpc-comparator/config"
	"github.com/giygas/smpc-comparator/data"
	"github.com/giygas/smpc-comparator/fieldnames"
	"github.com/giygas/smpc-comparator/handlers"
	"github.com/giygas/smpc-comparator/health"
	"github.com/giygas/smpc-comparator/interfaces"
	"github.com/giygas/smpc-comparator/metrics"
	"github.com/giygas/smpc-comparator/record"
	"github.com/giygas/smpc-comparator/validation"
)

func testConfig() *config.Config {
	return &config.Config{
		Port:           "0",
		Address:        "127.0.0.1",
		Env:            config.EnvTest,
		LogLevel:       "info",
		MaxRequestBody: 1024,
		MaxHeaderSize:  2048,
	}
}

func newTestServer(t *testing.T, cfg *config.Config) *Server {
	t.Helper()
	store := data.NewDataContainer()
	rec := record.New("", map[string]string{record.FieldName: "Paracetamol"})
	rec.Fields[record.FieldID] = record.Number("7")
	records := []record.Record{rec}
	record.AssignKeys(records)
	store.UpdateData(records, interfaces.DataQualityReport{TotalRecords: 1})

	h := handlers.NewHTTPHandler(store, validation.NewDataValidator(), fieldnames.NewRegistry(), health.NewHealthChecker(store, nil))
	s := NewServer(cfg, h)
	t.Cleanup(s.limiter.Stop)
	return s
}

func TestRoutes(t *testing.T) {
	s := newTestServer(t, testConfig())

	tests := []struct {
		path string
		code int
	}{
		{"/", http.StatusOK},
		{"/api/records", http.StatusOK},
		{"/api/records/7", http.StatusOK},
		{"/api/records/8", http.StatusNotFound},
		{"/api/selection?toggle=7", http.StatusOK},
		{"/api/compare?sel=7", http.StatusOK},
		{"/api/fields", http.StatusOK},
		{"/health", http.StatusOK},
		{"/metrics", http.StatusOK},
		{"/favicon.ico", http.StatusNoContent},
		{"/unknown", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rr := httptest.NewRecorder()
			s.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, tt.path, nil))
			if rr.Code != tt.code {
				t.Errorf("expected %d, got %d", tt.code, rr.Code)
			}
			if rr.Header().Get("X-RateLimit-Limit") == "" {
				t.Error("rate limit headers missing")
			}
		})
	}
}

func TestCORSOnlyOnAPI(t *testing.T) {
	s := newTestServer(t, testConfig())

	req := httptest.NewRequest(http.MethodGet, "/api/fields", nil)
	req.Header.Set("Origin", "https://example.org")
	rr := httptest.NewRecorder()
	s.ServeHTTP(rr, req)
	if rr.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Errorf("expected CORS header on /api, got %q", rr.Header().Get("Access-Control-Allow-Origin"))
	}

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://example.org")
	rr = httptest.NewRecorder()
	s.ServeHTTP(rr, req)
	if rr.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Error("CORS header should not be set outside /api")
	}
}

func TestRedirectSlashes(t *testing.T) {
	s := newTestServer(t, testConfig())
	rr := httptest.NewRecorder()
	s.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/fields/", nil))
	if rr.Code != http.StatusMovedPermanently {
		t.Errorf("expected redirect, got %d", rr.Code)
	}
}

func TestRequestSizeMiddleware(t *testing.T) {
	s := newTestServer(t, testConfig())

	req := httptest.NewRequest(http.MethodGet, "/api/fields", strings.NewReader(strings.Repeat("x", 2000)))
	rr := httptest.NewRecorder()
	s.ServeHTTP(rr, req)
	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("expected 413, got %d", rr.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/fields", nil)
	req.Header.Set("X-Padding", strings.Repeat("y", 4096))
	rr = httptest.NewRecorder()
	s.ServeHTTP(rr, req)
	if rr.Code != http.StatusRequestHeaderFieldsTooLarge {
		t.Errorf("expected 431, got %d", rr.Code)
	}
}

func TestRealIPOnlyWhenTrusted(t *testing.T) {
	tests := []struct {
		name    string
		trusted bool
		clients int
	}{
		{"untrusted proxy headers are ignored", false, 1},
		{"trusted proxy headers split clients", true, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.TrustProxy = tt.trusted
			s := newTestServer(t, cfg)

			for _, ip := range []string{"203.0.113.1", "203.0.113.2, 10.0.0.1"} {
				req := httptest.NewRequest(http.MethodGet, "/api/fields", nil)
				req.Header.Set("X-Forwarded-For", ip)
				s.ServeHTTP(httptest.NewRecorder(), req)
			}
			if got := s.limiter.Clients(); got != tt.clients {
				t.Errorf("expected %d clients, got %d", tt.clients, got)
			}
		})
	}
}

func TestRateLimiterExhaustsBucket(t *testing.T) {
	rl := NewRateLimiter(time.Hour)
	defer rl.Stop()
	h := rl.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	// 100 tokens each against a 1000 token bucket
	limited := false
	for i := 0; i < 12; i++ {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/records", nil))
		if rr.Code == http.StatusTooManyRequests {
			limited = true
			if rr.Header().Get("Retry-After") == "" {
				t.Error("Retry-After missing")
			}
			break
		}
	}
	if !limited {
		t.Error("expected the bucket to run out")
	}

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusOK {
		t.Errorf("the page is free and should still be served, got %d", rr.Code)
	}
}

func TestRateLimiterCleanup(t *testing.T) {
	rl := NewRateLimiter(time.Hour)
	defer rl.Stop()

	rl.getBucket("198.51.100.1")
	busy := rl.getBucket("198.51.100.2")
	busy.TakeAvailable(500)

	if got := testutil.ToFloat64(metrics.RateLimiterBucketsTotal); got != 2 {
		t.Errorf("expected gauge 2, got %v", got)
	}
	if removed := rl.Cleanup(); removed != 1 {
		t.Errorf("expected one idle client removed, got %d", removed)
	}
	if rl.Clients() != 1 {
		t.Errorf("expected one client left, got %d", rl.Clients())
	}
}

func TestTokenCost(t *testing.T) {
	tests := []struct {
		target string
		cost   int64
	}{
		{"/", 0},
		{"/favicon.ico", 0},
		{"/health", 5},
		{"/api/records", 100},
		{"/api/records?name=para", 20},
		{"/api/records/12", 5},
		{"/api/compare?sel=1&sel=2", 10},
		{"/other", 20},
	}
	for _, tt := range tests {
		if got := tokenCost(httptest.NewRequest(http.MethodGet, tt.target, nil)); got != tt.cost {
			t.Errorf("tokenCost(%s) = %d, want %d", tt.target, got, tt.cost)
		}
	}
}

func TestStartAndShutdown(t *testing.T) {
	s := newTestServer(t, testConfig())

	done := make(chan error, 1)
	go func() { done <- s.Start() }()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	// Shutdown may race the listener; either order must end Start cleanly.
	time.Sleep(50 * time.Millisecond)
	if err := s.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Start returned %v after shutdown", err)
		}
	case <-ctx.Done():
		t.Error("Start did not return after Shutdown")
	}
}

package middleware_test

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clearledger/internal/platform/metrics"
	"clearledger/internal/platform/middleware"
	"clearledger/pkg/requestcontext"
	"clearledger/pkg/testutil"
)

func TestRequestID(t *testing.T) {
	var seen string
	h := middleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = requestcontext.RequestID(r.Context())
	}))

	t.Run("generated when absent", func(t *testing.T) {
		rr := testutil.DoRequest(h, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.NotEmpty(t, seen)
		assert.Equal(t, seen, rr.Header().Get(middleware.RequestIDHeader))
	})

	t.Run("incoming id reused", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(middleware.RequestIDHeader, "req-123")
		rr := testutil.DoRequest(h, req)
		assert.Equal(t, "req-123", seen)
		assert.Equal(t, "req-123", rr.Header().Get(middleware.RequestIDHeader))
	})
}

func TestClientIPFromRequest(t *testing.T) {
	proxies := []netip.Prefix{netip.MustParsePrefix("10.0.0.0/8")}
	tests := []struct {
		name    string
		trusted []netip.Prefix
		headers map[string]string
		remote  string
		want    string
	}{
		{"forwarded chain via trusted proxy", proxies, map[string]string{"X-Forwarded-For": "203.0.113.9, 10.0.0.1"}, "10.0.0.2:1234", "203.0.113.9"},
		{"spoofed leftmost hop ignored", proxies, map[string]string{"X-Forwarded-For": "1.2.3.4, 203.0.113.9"}, "10.0.0.2:1234", "203.0.113.9"},
		{"real ip via trusted proxy", proxies, map[string]string{"X-Real-IP": " 198.51.100.4 "}, "10.0.0.2:1234", "198.51.100.4"},
		{"headers from untrusted peer ignored", proxies, map[string]string{"X-Forwarded-For": "203.0.113.9"}, "192.0.2.1:5555", "192.0.2.1"},
		{"no trusted proxies", nil, map[string]string{"X-Forwarded-For": "203.0.113.9", "X-Real-IP": "198.51.100.4"}, "10.0.0.2:1234", "10.0.0.2"},
		{"ipv4 remote", nil, nil, "192.0.2.1:5555", "192.0.2.1"},
		{"ipv6 remote", nil, nil, "[::1]:5555", "::1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, middleware.ClientIPFromRequest(req, tt.trusted))
		})
	}
}

func TestRotatingForwardedForDoesNotEvadeLoginLimit(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	limiter := middleware.NewRateLimiter(2, logger)
	handler := middleware.ClientIP(nil)(limiter.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = "192.0.2.7:40000"
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("198.51.100.%d", i))
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestLoggerRecordsRoutePattern(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	m := metrics.New(prometheus.NewRegistry())

	r := chi.NewRouter()
	r.Use(middleware.Logger(logger, m))
	r.Get("/api/ledgers/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	rr := testutil.DoRequest(r, httptest.NewRequest(http.MethodGet, "/api/ledgers/LG2410160001", nil))

	require.Equal(t, http.StatusTeapot, rr.Code)
	assert.Contains(t, buf.String(), `"route":"/api/ledgers/{id}"`)
	assert.Equal(t, 1, promtest.CollectAndCount(m.RequestDuration))
}

func TestRequestTime(t *testing.T) {
	var first, second time.Time
	h := middleware.RequestTime(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		first = requestcontext.Now(r.Context())
		time.Sleep(time.Millisecond)
		second = requestcontext.Now(r.Context())
	}))
	testutil.DoRequest(h, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, first, second)
}

func TestRateLimiter(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	rl := middleware.NewRateLimiter(2, logger)
	h := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	call := func(ip string) int {
		req := testutil.WithClientIP(httptest.NewRequest(http.MethodPost, "/api/auth/login", nil), ip)
		return testutil.DoRequest(h, req).Code
	}

	assert.Equal(t, http.StatusOK, call("198.51.100.1"))
	assert.Equal(t, http.StatusOK, call("198.51.100.1"))
	assert.Equal(t, http.StatusTooManyRequests, call("198.51.100.1"))
	assert.Equal(t, http.StatusOK, call("198.51.100.2"), "buckets are per client")

	unlimited := middleware.NewRateLimiter(0, logger)
	for range 50 {
		assert.True(t, unlimited.Allow("198.51.100.1"))
	}
}

func TestParseTrustedProxies(t *testing.T) {
	prefixes, err := middleware.ParseTrustedProxies([]string{"10.0.0.0/8", "192.0.2.10", "::1"})
	require.NoError(t, err)
	assert.Equal(t, []netip.Prefix{
		netip.MustParsePrefix("10.0.0.0/8"),
		netip.MustParsePrefix("192.0.2.10/32"),
		netip.MustParsePrefix("::1/128"),
	}, prefixes)

	_, err = middleware.ParseTrustedProxies([]string{"not-an-ip"})
	assert.Error(t, err)
}

package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func (c *fakeClock) Set(t time.Time) { c.t = t }

func limiterAt(c *fakeClock, cfg RateLimitConfig) *RateLimiter {
	cfg.Enabled = true
	rl := NewRateLimiter(cfg)
	rl.now = c.Now
	return rl
}

func TestNewRateLimiter_Disabled(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{RequestsPerMinute: 1})
	assert.Nil(t, rl)
	for range 3 {
		assert.NoError(t, rl.Allow("10.0.0.1", 1<<30))
	}
	assert.Equal(t, ClientUsage{}, rl.Usage("10.0.0.1"))
}

func TestRateLimiter_RequestsPerMinute(t *testing.T) {
	clock := newFakeClock()
	rl := limiterAt(clock, RateLimitConfig{RequestsPerMinute: 2})

	require.NoError(t, rl.Allow("a", 0))
	clock.Advance(20 * time.Second)
	require.NoError(t, rl.Allow("a", 0))

	err := rl.Allow("a", 0)
	var rate *RateLimitError
	require.True(t, errors.As(err, &rate))
	assert.Equal(t, "minute", rate.Window)
	assert.Equal(t, 2, rate.Limit)
	assert.Equal(t, 40*time.Second, rate.RetryAfter)
	assert.Equal(t, 2, rl.Usage("a").Minute, "rejected requests are not charged")

	assert.NoError(t, rl.Allow("b", 0), "clients are counted separately")

	clock.Advance(40 * time.Second)
	assert.NoError(t, rl.Allow("a", 0))
	assert.Equal(t, 1, rl.Usage("a").Minute)
	assert.Equal(t, 3, rl.Usage("a").Hour)
}

func TestRateLimiter_SteadyTrafficHitsHourLimit(t *testing.T) {
	clock := newFakeClock()
	rl := limiterAt(clock, RateLimitConfig{RequestsPerMinute: 10, RequestsPerHour: 3})

	for range 3 {
		require.NoError(t, rl.Allow("a", 0))
		clock.Advance(10 * time.Second)
	}

	var rate *RateLimitError
	require.True(t, errors.As(rl.Allow("a", 0), &rate))
	assert.Equal(t, "hour", rate.Window)
	assert.Equal(t, time.Hour-30*time.Second, rate.RetryAfter)
}

func TestRateLimiter_DailyQuotas(t *testing.T) {
	t.Run("requests", func(t *testing.T) {
		clock := newFakeClock()
		rl := limiterAt(clock, RateLimitConfig{MaxRequestsPerDay: 2})

		require.NoError(t, rl.Allow("a", 0))
		clock.Advance(3 * time.Hour)
		require.NoError(t, rl.Allow("a", 0))

		var quota *QuotaExceededError
		require.True(t, errors.As(rl.Allow("a", 0), &quota))
		assert.Equal(t, "requests", quota.Quota)
		assert.Equal(t, int64(2), quota.Used)
		assert.Equal(t, time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC), quota.Resets)

		clock.Set(time.Date(2026, 3, 11, 0, 0, 1, 0, time.UTC))
		assert.NoError(t, rl.Allow("a", 0))
		assert.Equal(t, 1, rl.Usage("a").Today)
	})

	t.Run("data", func(t *testing.T) {
		clock := newFakeClock()
		rl := limiterAt(clock, RateLimitConfig{MaxDataPerDay: 100})

		require.NoError(t, rl.Allow("a", 60))

		var quota *QuotaExceededError
		require.True(t, errors.As(rl.Allow("a", 50), &quota))
		assert.Equal(t, "data", quota.Quota)
		assert.Equal(t, int64(60), quota.Used)
		assert.Equal(t, int64(100), quota.Limit)

		require.NoError(t, rl.Allow("a", 40), "reaching the quota exactly is allowed")
		assert.Equal(t, int64(100), rl.Usage("a").DataToday)
	})
}

func TestLimitErrors(t *testing.T) {
	rate := &RateLimitError{Window: "minute", Limit: 60, RetryAfter: 1500 * time.Millisecond}
	assert.Equal(t, "rate limit exceeded: 60 requests per minute (retry after 2s)", rate.Error())
	assert.Equal(t, "minute", limitKind(rate))

	quota := &QuotaExceededError{Quota: "data", Limit: 10, Used: 8, Resets: time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)}
	assert.Equal(t, "daily data quota exceeded (used 8 of 10, resets 2026-03-11T00:00:00Z)", quota.Error())
	assert.Equal(t, "data", limitKind(quota))

	assert.Empty(t, limitKind(errors.New("other")))
}

func limitedServer(rl RateLimitConfig) *http.ServeMux {
	rl.Enabled = true
	mux := http.NewServeMux()
	NewServerWithPipeline(Config{CORSOrigin: "*", MaxBodyMB: 1, RateLimit: rl}, &mockPipeline{}).SetupRoutes(mux)
	return mux
}

func TestServer_RateLimitedRoute(t *testing.T) {
	mux := limitedServer(RateLimitConfig{RequestsPerMinute: 1})
	post := func(client string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/tag", strings.NewReader(`{"text":"An Bullinger"}`))
		req.Header.Set("X-Forwarded-For", client)
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, req)
		return w
	}
	hits := rateLimitHits.WithLabelValues("tag", "minute")
	before := testutil.ToFloat64(hits)

	require.Equal(t, http.StatusOK, post("198.51.100.7").Code)

	w := post("198.51.100.7")
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "minute", w.Header().Get("X-RateLimit-Type"))
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Limit"))
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	var resp LimitResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "rate_limit_exceeded", resp.Error)
	assert.Equal(t, "minute", resp.Type)
	assert.Equal(t, int64(1), resp.Limit)
	assert.InDelta(t, 1, testutil.ToFloat64(hits)-before, 1e-9)

	assert.Equal(t, http.StatusOK, post("198.51.100.8").Code, "another client has its own budget")

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code, "health checks are never limited")
}

func TestServer_AnnotateDataQuota(t *testing.T) {
	mux := limitedServer(RateLimitConfig{MaxDataPerDay: 64})
	doc := "<TEI><text><body><p>" + strings.Repeat("Gratia et pax. ", 4) + "</p></body></text></TEI>"
	require.Greater(t, len(doc), 64)

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/annotate", strings.NewReader(doc)))
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "data", w.Header().Get("X-Quota-Type"))
	assert.Equal(t, "64", w.Header().Get("X-Quota-Limit"))
	assert.Equal(t, "0", w.Header().Get("X-Quota-Used"))

	var resp LimitResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "quota_exceeded", resp.Error)
	assert.NotEmpty(t, resp.Resets)

	w = httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/annotate", strings.NewReader("<TEI/>")))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestServer_WebSocketMessagesAreLimited(t *testing.T) {
	ts := httptest.NewServer(limitedServer(RateLimitConfig{RequestsPerMinute: 1}))
	defer ts.Close()

	conn, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}

	var got WebSocketResponse
	require.NoError(t, conn.WriteJSON(WebSocketRequest{Type: "tag", Text: "An Bullinger", RequestID: "1"}))
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, "completed", got.Status)

	require.NoError(t, conn.WriteJSON(WebSocketRequest{Type: "tag", Text: "An Bullinger", RequestID: "2"}))
	got = WebSocketResponse{}
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, "error", got.Status)
	assert.Equal(t, "rate_limited", got.ErrorType)
	assert.Contains(t, got.Error, "per minute")
}

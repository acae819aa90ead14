package server

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// RateLimitConfig holds the per-client limits. A zero limit disables that
// check.
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerMinute int
	RequestsPerHour   int
	MaxRequestsPerDay int
	MaxDataPerDay     int64 // bytes of request body
}

// RateLimiter counts requests and request body bytes per client in fixed
// minute, hour and calendar-day windows.
type RateLimiter struct {
	mu      sync.Mutex
	cfg     RateLimitConfig
	now     func() time.Time
	clients map[string]*ClientUsage
}

// ClientUsage is one client's consumption in its current windows.
type ClientUsage struct {
	Minute    int
	Hour      int
	Today     int
	DataToday int64

	minuteStart time.Time
	hourStart   time.Time
	day         time.Time
}

// NewRateLimiter returns a limiter enforcing cfg. It returns nil when cfg is
// disabled, and a nil limiter allows everything.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	if !cfg.Enabled {
		return nil
	}
	return &RateLimiter{cfg: cfg, now: time.Now, clients: make(map[string]*ClientUsage)}
}

// Allow charges one request of size bytes to client, or reports which limit
// it would break. Rejected requests are not charged.
func (rl *RateLimiter) Allow(client string, size int64) error {
	if rl == nil {
		return nil
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	u, ok := rl.clients[client]
	if !ok {
		u = &ClientUsage{minuteStart: now, hourStart: now, day: midnight(now)}
		rl.clients[client] = u
	}
	u.roll(now)

	if lim := rl.cfg.RequestsPerMinute; lim > 0 && u.Minute >= lim {
		return &RateLimitError{Window: "minute", Limit: lim, RetryAfter: u.minuteStart.Add(time.Minute).Sub(now)}
	}
	if lim := rl.cfg.RequestsPerHour; lim > 0 && u.Hour >= lim {
		return &RateLimitError{Window: "hour", Limit: lim, RetryAfter: u.hourStart.Add(time.Hour).Sub(now)}
	}
	resets := u.day.AddDate(0, 0, 1)
	if lim := rl.cfg.MaxRequestsPerDay; lim > 0 && u.Today >= lim {
		return &QuotaExceededError{Quota: "requests", Limit: int64(lim), Used: int64(u.Today), Resets: resets}
	}
	if lim := rl.cfg.MaxDataPerDay; lim > 0 && u.DataToday+size > lim {
		return &QuotaExceededError{Quota: "data", Limit: lim, Used: u.DataToday, Resets: resets}
	}

	u.Minute++
	u.Hour++
	u.Today++
	u.DataToday += size
	return nil
}

// Usage returns a copy of client's counters.
func (rl *RateLimiter) Usage(client string) ClientUsage {
	if rl == nil {
		return ClientUsage{}
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()

	u, ok := rl.clients[client]
	if !ok {
		return ClientUsage{}
	}
	u.roll(rl.now())
	return *u
}

func (u *ClientUsage) roll(now time.Time) {
	if now.Sub(u.minuteStart) >= time.Minute {
		u.Minute = 0
		u.minuteStart = now
	}
	if now.Sub(u.hourStart) >= time.Hour {
		u.Hour = 0
		u.hourStart = now
	}
	if d := midnight(now); !d.Equal(u.day) {
		u.Today = 0
		u.DataToday = 0
		u.day = d
	}
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// RateLimitError reports a broken minute or hour request rate.
type RateLimitError struct {
	Window     string
	Limit      int
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded: %d requests per %s (retry after %v)",
		e.Limit, e.Window, e.RetryAfter.Round(time.Second))
}

// QuotaExceededError reports an exhausted daily request or data quota.
type QuotaExceededError struct {
	Quota  string // "requests" or "data"
	Limit  int64
	Used   int64
	Resets time.Time
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("daily %s quota exceeded (used %d of %d, resets %s)",
		e.Quota, e.Used, e.Limit, e.Resets.Format(time.RFC3339))
}

// limitKind names the limit behind err for metrics, or "" when err is not a
// limiter error.
func limitKind(err error) string {
	var rate *RateLimitError
	if errors.As(err, &rate) {
		return rate.Window
	}
	var quota *QuotaExceededError
	if errors.As(err, &quota) {
		return quota.Quota
	}
	return ""
}

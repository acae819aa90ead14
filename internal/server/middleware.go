package server

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// statusRecorder remembers the status and body size a handler produced.
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	n, err := sr.ResponseWriter.Write(b)
	sr.bytes += n
	return n, err
}

// route wraps an API endpoint with CORS handling and request metrics. The
// route name, not the raw URL path, labels the metrics.
func (s *Server) route(name string, next http.HandlerFunc) http.HandlerFunc {
	return s.cors(instrument(name, next))
}

// cors answers preflight requests and sets the allowed origin.
func (s *Server) cors(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", s.corsOrigin)
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		h.Set("Access-Control-Expose-Headers", "X-Epistola-Paragraphs, X-Epistola-Sentences")
		h.Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next(w, r)
	}
}

// limit charges each request and its declared body size to the client's
// quota and answers 429 once a limit is reached.
func (s *Server) limit(name string, next http.HandlerFunc) http.HandlerFunc {
	if s.limiter == nil {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		size := max(r.ContentLength, 0)
		if err := s.limiter.Allow(clientIP(r), size); err != nil {
			rateLimitHits.WithLabelValues(name, limitKind(err)).Inc()
			slog.Warn("Request limited", "route", name, "client", clientIP(r), "error", err)
			writeLimited(w, err)
			return
		}
		next(w, r)
	}
}

// writeLimited writes the 429 reply for a limiter error.
func writeLimited(w http.ResponseWriter, err error) {
	resp := LimitResponse{Message: err.Error()}
	var rate *RateLimitError
	var quota *QuotaExceededError
	switch {
	case errors.As(err, &rate):
		resp.Error, resp.Type, resp.Limit = "rate_limit_exceeded", rate.Window, int64(rate.Limit)
		resp.RetryAfter = rate.RetryAfter.Seconds()
		w.Header().Set("Retry-After", fmt.Sprintf("%.0f", math.Ceil(rate.RetryAfter.Seconds())))
		w.Header().Set("X-RateLimit-Type", rate.Window)
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rate.Limit))
	case errors.As(err, &quota):
		resp.Error, resp.Type, resp.Limit, resp.Used = "quota_exceeded", quota.Quota, quota.Limit, quota.Used
		resp.Resets = quota.Resets.Format(time.RFC3339)
		w.Header().Set("X-Quota-Type", quota.Quota)
		w.Header().Set("X-Quota-Limit", strconv.FormatInt(quota.Limit, 10))
		w.Header().Set("X-Quota-Used", strconv.FormatInt(quota.Used, 10))
		w.Header().Set("X-Quota-Resets", quota.Resets.UTC().Format(http.TimeFormat))
	default:
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "Rate limiting check failed"})
		return
	}
	writeJSON(w, http.StatusTooManyRequests, resp)
}

func instrument(name string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sr := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next(sr, r)
		elapsed := time.Since(start)

		httpRequestsTotal.WithLabelValues(r.Method, name, strconv.Itoa(sr.status)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, name).Observe(elapsed.Seconds())
		slog.Debug("Request handled",
			"route", name,
			"method", r.Method,
			"status", sr.status,
			"bytes", sr.bytes,
			"client", clientIP(r),
			"duration", elapsed)
	}
}

// clientIP prefers proxy headers over the connection address. Only the first
// X-Forwarded-For hop is the client.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

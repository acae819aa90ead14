package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "epistola_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "epistola_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// Processing metrics
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "epistola_requests_total",
			Help: "Total number of processing requests",
		},
		[]string{"type", "status"}, // type: identify, tag, annotate, websocket_*
	)

	processingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "epistola_processing_duration_seconds",
			Help:    "Processing duration in seconds",
			Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 5, 10},
		},
		[]string{"type"},
	)

	identifiedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "epistola_identified_total",
			Help: "Texts and sentences identified, by language label",
		},
		[]string{"language"},
	)

	entitiesTagged = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "epistola_entities_tagged_total",
			Help: "Entities tagged, by category and match method",
		},
		[]string{"category", "method"},
	)

	documentSizeBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "epistola_document_size_bytes",
			Help:    "Size of TEI documents submitted for annotation",
			Buckets: []float64{1024, 10 * 1024, 50 * 1024, 100 * 1024, 500 * 1024, 1024 * 1024, 10 * 1024 * 1024},
		},
	)

	rateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "epistola_rate_limit_hits_total",
			Help: "Requests rejected by the per-client limiter",
		},
		[]string{"route", "type"}, // type: minute, hour, requests, data
	)

	// WebSocket metrics
	websocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "epistola_websocket_active_connections",
			Help: "Number of active WebSocket connections",
		},
	)

	websocketMessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "epistola_websocket_messages_total",
			Help: "Total number of WebSocket messages",
		},
		[]string{"direction"}, // direction: sent, received
	)
)

package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deepsight_http_requests_total",
			Help: "Total number of HTTP requests by method, path, and status.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "deepsight_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds by method and path.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	batchesStarted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "deepsight_batches_started_total",
			Help: "Total number of batches started through the API.",
		},
	)

	imagesProcessed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "deepsight_images_processed_total",
			Help: "Total number of single images processed through the API.",
		},
	)
)

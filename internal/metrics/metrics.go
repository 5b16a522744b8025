// Package metrics holds the prometheus instruments exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Download result labels.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
	StatusInvalid = "invalid"
)

// Download metrics
var (
	DownloadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ytbridge_downloads_total",
			Help: "Total number of download requests by outcome.",
		},
		[]string{"status"},
	)

	DownloadDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ytbridge_download_duration_seconds",
			Help:    "Time spent running the downloader tool.",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		},
	)

	QueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ytbridge_queue_depth",
			Help: "Number of downloads waiting for the worker.",
		},
	)
)

// Binary metrics
var (
	BinaryInstallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ytbridge_binary_installs_total",
			Help: "Total number of tool binaries copied out of the bundled assets.",
		},
		[]string{"binary", "arch"},
	)
)

// HTTP metrics
var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ytbridge_http_requests_total",
			Help: "Total number of HTTP requests by route and status code.",
		},
		[]string{"route", "code"},
	)
)

func init() {
	prometheus.MustRegister(
		DownloadsTotal,
		DownloadDuration,
		QueueDepth,
		BinaryInstallsTotal,
		HTTPRequestsTotal,
	)
}

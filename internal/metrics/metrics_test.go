package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
)

func getCounterVecValue(cv *prometheus.CounterVec, labels ...string) float64 {
	c, err := cv.GetMetricWithLabelValues(labels...)
	if err != nil {
		return 0
	}
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		return 0
	}
	return m.GetCounter().GetValue()
}

func getGaugeValue(g prometheus.Gauge) float64 {
	var m dto.Metric
	if err := g.(prometheus.Metric).Write(&m); err != nil {
		return 0
	}
	return m.GetGauge().GetValue()
}

func TestMetrics_DownloadsTotal(t *testing.T) {
	for _, status := range []string{StatusSuccess, StatusFailure, StatusInvalid} {
		before := getCounterVecValue(DownloadsTotal, status)
		DownloadsTotal.WithLabelValues(status).Inc()
		after := getCounterVecValue(DownloadsTotal, status)
		assert.Equal(t, before+1, after, status)
	}
}

func TestMetrics_BinaryInstallsTotal(t *testing.T) {
	before := getCounterVecValue(BinaryInstallsTotal, "yt-dlp", "x86_64")
	BinaryInstallsTotal.WithLabelValues("yt-dlp", "x86_64").Inc()
	after := getCounterVecValue(BinaryInstallsTotal, "yt-dlp", "x86_64")
	assert.Equal(t, before+1, after)
}

func TestMetrics_QueueDepth(t *testing.T) {
	QueueDepth.Set(3)
	assert.Equal(t, float64(3), getGaugeValue(QueueDepth))
	QueueDepth.Set(0)
}

func TestMetrics_HTTPRequestsTotal(t *testing.T) {
	before := getCounterVecValue(HTTPRequestsTotal, "/healthz", "200")
	HTTPRequestsTotal.WithLabelValues("/healthz", "200").Inc()
	assert.Equal(t, before+1, getCounterVecValue(HTTPRequestsTotal, "/healthz", "200"))
}

func TestMetrics_Registered(t *testing.T) {
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatal(err)
	}
	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["ytbridge_queue_depth"])
	assert.True(t, names["ytbridge_download_duration_seconds"])
}

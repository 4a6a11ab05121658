package server

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the server's Prometheus collectors on a private registry.
type Metrics struct {
	registry       *prometheus.Registry
	requests       *prometheus.CounterVec
	reloads        *prometheus.CounterVec
	reloadDuration prometheus.Histogram
	records        prometheus.Gauge
	users          prometheus.Gauge
}

// NewMetrics creates and registers the collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "copilotpulse",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status.",
		}, []string{"route", "status"}),
		reloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "copilotpulse",
			Name:      "reloads_total",
			Help:      "Dataset reloads by result.",
		}, []string{"result"}),
		reloadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "copilotpulse",
			Name:      "reload_duration_seconds",
			Help:      "Time spent loading and merging inputs.",
			Buckets:   prometheus.DefBuckets,
		}),
		records: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "copilotpulse",
			Name:      "records",
			Help:      "Records in the merged dataset.",
		}),
		users: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "copilotpulse",
			Name:      "users",
			Help:      "Distinct users in the merged dataset.",
		}),
	}
	m.registry.MustRegister(m.requests, m.reloads, m.reloadDuration, m.records, m.users)
	return m
}

func (m *Metrics) observeReload(ok bool, took time.Duration) {
	result := "ok"
	if !ok {
		result = "error"
	}
	m.reloads.WithLabelValues(result).Inc()
	m.reloadDuration.Observe(took.Seconds())
}

func (m *Metrics) setDataset(snap Snapshot) {
	m.records.Set(float64(snap.Records))
	m.users.Set(float64(snap.Users))
}

func (m *Metrics) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.requests.WithLabelValues(route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}

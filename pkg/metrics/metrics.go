package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector bundles the service's prometheus instruments behind one
// registry so tests can create isolated instances.
type Collector struct {
	registry *prometheus.Registry

	httpInFlight        prometheus.Gauge
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	permitsIssued       prometheus.Counter
	permitsRevoked      prometheus.Counter
	permitVerifications *prometheus.CounterVec
}

func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),

		httpInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ems_http_in_flight_requests",
			Help: "In-flight HTTP requests.",
		}),
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ems_http_requests_total",
				Help: "Total number of HTTP requests.",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ems_http_request_duration_seconds",
				Help:    "HTTP request latencies in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),

		permitsIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ems_permits_issued_total",
			Help: "Permits issued.",
		}),
		permitsRevoked: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ems_permits_revoked_total",
			Help: "Permits revoked.",
		}),
		permitVerifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ems_permit_verifications_total",
				Help: "Permit verification attempts by outcome.",
			},
			[]string{"outcome"},
		),
	}

	c.registry.MustRegister(
		c.httpInFlight,
		c.httpRequestsTotal,
		c.httpRequestDuration,
		c.permitsIssued,
		c.permitsRevoked,
		c.permitVerifications,
	)

	return c
}

func (c *Collector) PermitIssued() {
	c.permitsIssued.Inc()
}

func (c *Collector) PermitRevoked() {
	c.permitsRevoked.Inc()
}

// PermitVerification records a verification attempt. Outcomes: valid,
// invalid_token, wrong_user, not_found, revoked, expired.
func (c *Collector) PermitVerification(outcome string) {
	c.permitVerifications.WithLabelValues(outcome).Inc()
}

// Handler serves the registry in the prometheus exposition format.
func (c *Collector) Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
	return gin.WrapH(h)
}

// Instrument measures RPS, latency and in-flight count per route. The
// route template (c.FullPath) is used as the path label to keep
// cardinality bounded.
func (c *Collector) Instrument() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		path := ctx.FullPath()
		if path == "" {
			path = "unmatched"
		}
		method := ctx.Request.Method

		c.httpInFlight.Inc()
		start := time.Now()

		ctx.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(ctx.Writer.Status())

		c.httpRequestDuration.WithLabelValues(method, path, status).Observe(duration)
		c.httpRequestsTotal.WithLabelValues(method, path, status).Inc()
		c.httpInFlight.Dec()
	}
}

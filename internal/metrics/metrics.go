package metrics

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
)

// Outcome labels for filter_records_total.
const (
	OutcomeVisible = "visible"
	OutcomeHidden  = "hidden"
)

// Collector bundles the HTTP and filter metrics.
type Collector struct {
	gatherer prometheus.Gatherer

	HTTPRequests      *prometheus.CounterVec
	HTTPDurations     *prometheus.HistogramVec
	FilterRecords     *prometheus.CounterVec
	IndexedActivities prometheus.Gauge
}

// NewCollector registers metrics against reg, defaulting to the global
// registry when nil. Registering twice on the same registry reuses the
// existing collectors.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	requests, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of handled HTTP requests, labeled by method, route, and status code.",
	}, []string{"method", "route", "code"}), "http_requests_total")
	if err != nil {
		return nil, err
	}

	durations, err := registerHistogramVec(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency in seconds.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"method", "route"}), "http_request_duration_seconds")
	if err != nil {
		return nil, err
	}

	records, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "filter_records_total",
		Help: "Activities evaluated by the filter engine, labeled by outcome.",
	}, []string{"outcome"}), "filter_records_total")
	if err != nil {
		return nil, err
	}

	indexed, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "geo_index_activities",
		Help: "Activities written to the geo index by the last rebuild.",
	}), "geo_index_activities")
	if err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:          gatherer,
		HTTPRequests:      requests,
		HTTPDurations:     durations,
		FilterRecords:     records,
		IndexedActivities: indexed,
	}, nil
}

// Middleware records request counts and durations. Routes are labeled by
// their registered pattern so path parameters do not explode cardinality.
func (c *Collector) Middleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()

		if c == nil {
			return
		}

		route := ctx.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := ctx.Request.Method

		c.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(ctx.Writer.Status())).Inc()
		c.HTTPDurations.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}

// ObserveFilter records how many evaluated activities were kept and dropped.
func (c *Collector) ObserveFilter(evaluated, visible int) {
	if c == nil {
		return
	}
	hidden := evaluated - visible
	if visible > 0 {
		c.FilterRecords.WithLabelValues(OutcomeVisible).Add(float64(visible))
	}
	if hidden > 0 {
		c.FilterRecords.WithLabelValues(OutcomeHidden).Add(float64(hidden))
	}
}

// SetIndexedActivities reports the size of the geo index.
func (c *Collector) SetIndexedActivities(n int) {
	if c == nil {
		return
	}
	c.IndexedActivities.Set(float64(n))
}

// FilterCount returns the current filter_records_total value for outcome.
func (c *Collector) FilterCount(outcome string) float64 {
	if c == nil {
		return 0
	}
	var m dto.Metric
	if err := c.FilterRecords.WithLabelValues(outcome).Write(&m); err != nil {
		return 0
	}
	return m.GetCounter().GetValue()
}

// Handler exposes a ready-to-use /metrics handler.
func (c *Collector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}

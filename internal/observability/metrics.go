package observability

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Simulation outcomes used as the "outcome" label.
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeDiverged = "diverged"
	OutcomeCached   = "cached"
	OutcomeInternal = "internal"
)

// Collector bundles the service's Prometheus metrics. A nil *Collector is
// valid and records nothing.
type Collector struct {
	gatherer prometheus.Gatherer

	Simulations        *prometheus.CounterVec
	SimulationDuration prometheus.Histogram
	SimulationEvents   prometheus.Histogram
	CacheLookups       *prometheus.CounterVec
	HTTPRequests       *prometheus.CounterVec
	HTTPDurations      *prometheus.HistogramVec
	Playbacks          prometheus.Gauge
}

// NewCollector registers the metrics against reg, defaulting to the global
// registry when nil.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	sims, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "poolsim_simulations_total",
		Help: "Shot simulations handled, labeled by outcome.",
	}, []string{"outcome"}), "poolsim_simulations_total")
	if err != nil {
		return nil, err
	}
	duration, err := register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "poolsim_simulation_duration_seconds",
		Help:    "Wall-clock time spent inside the shot simulator.",
		Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	}), "poolsim_simulation_duration_seconds")
	if err != nil {
		return nil, err
	}
	events, err := register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "poolsim_simulation_events",
		Help:    "Number of events resolved per simulated shot.",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	}), "poolsim_simulation_events")
	if err != nil {
		return nil, err
	}
	cache, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "poolsim_trajectory_cache_lookups_total",
		Help: "Trajectory cache lookups, labeled by result.",
	}, []string{"result"}), "poolsim_trajectory_cache_lookups_total")
	if err != nil {
		return nil, err
	}
	requests, err := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "poolsim_http_requests_total",
		Help: "HTTP requests, labeled by method, route and status code.",
	}, []string{"method", "route", "code"}), "poolsim_http_requests_total")
	if err != nil {
		return nil, err
	}
	durations, err := register(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "poolsim_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds.",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"method", "route"}), "poolsim_http_request_duration_seconds")
	if err != nil {
		return nil, err
	}
	playbacks, err := register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "poolsim_active_playbacks",
		Help: "Websocket trajectory playbacks currently streaming.",
	}), "poolsim_active_playbacks")
	if err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:           gatherer,
		Simulations:        sims,
		SimulationDuration: duration,
		SimulationEvents:   events,
		CacheLookups:       cache,
		HTTPRequests:       requests,
		HTTPDurations:      durations,
		Playbacks:          playbacks,
	}, nil
}

// ObserveSimulation records one finished simulation. events is ignored for
// outcomes that produced no trajectory.
func (c *Collector) ObserveSimulation(outcome string, elapsed time.Duration, events int) {
	if c == nil {
		return
	}
	c.Simulations.WithLabelValues(outcome).Inc()
	if outcome != OutcomeOK {
		return
	}
	c.SimulationDuration.Observe(elapsed.Seconds())
	c.SimulationEvents.Observe(float64(events))
}

func (c *Collector) CacheLookup(hit bool) {
	if c == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	c.CacheLookups.WithLabelValues(result).Inc()
}

// PlaybackStarted bumps the playback gauge and returns the matching decrement.
func (c *Collector) PlaybackStarted() func() {
	if c == nil {
		return func() {}
	}
	c.Playbacks.Inc()
	return c.Playbacks.Dec
}

// Middleware records request counts and latencies keyed by the matched route
// template rather than the raw path.
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

// Handler exposes a ready-to-use /metrics handler.
func (c *Collector) Handler() http.Handler {
	gatherer := prometheus.DefaultGatherer
	if c != nil && c.gatherer != nil {
		gatherer = c.gatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// register adds col to reg, returning the existing collector when an
// identical one was registered earlier.
func register[T prometheus.Collector](reg prometheus.Registerer, col T, name string) (T, error) {
	if err := reg.Register(col); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
			var zero T
			return zero, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		var zero T
		return zero, err
	}
	return col, nil
}

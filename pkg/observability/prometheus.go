package observability

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/matzehuels/exorcism/pkg/errors"
)

const (
	OutcomeLabel = "outcome"
	PhaseLabel   = "phase"
	DistLabel    = "dist"
	MethodLabel  = "method"
	KeyLabel     = "key"
	RouteLabel   = "route"
	StatusLabel  = "status"
	CodeLabel    = "code"

	Succeeded = "succeeded"
	Failed    = "failed"
)

// Metrics implements every hook interface on top of Prometheus collectors.
type Metrics struct {
	inflight        prometheus.Gauge
	runs            *prometheus.CounterVec
	runDuration     prometheus.Histogram
	cubesRemoved    prometheus.Counter
	passGain        *prometheus.CounterVec
	verifies        *prometheus.CounterVec
	verifyDuration  *prometheus.HistogramVec
	cacheRequests   *prometheus.CounterVec
	cacheBytes      *prometheus.CounterVec
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestErrors   *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		inflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "exorcism_minimize_inflight",
			Help: "Number of minimizations currently running",
		}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "exorcism_minimize_total",
			Help: "Number of finished minimizations",
		}, []string{OutcomeLabel}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "exorcism_minimize_duration_seconds",
			Help:    "Wall time of a minimization",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		}),
		cubesRemoved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "exorcism_cubes_removed_total",
			Help: "Cubes removed by successful minimizations",
		}),
		passGain: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "exorcism_pass_gain_total",
			Help: "Cubes removed per schedule phase and distance",
		}, []string{PhaseLabel, DistLabel}),
		verifies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "exorcism_verify_total",
			Help: "Number of equivalence checks",
		}, []string{MethodLabel, OutcomeLabel}),
		verifyDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "exorcism_verify_duration_seconds",
			Help:    "Wall time of an equivalence check",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{MethodLabel}),
		cacheRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "exorcism_cache_requests_total",
			Help: "Cache lookups by key type and outcome",
		}, []string{KeyLabel, OutcomeLabel}),
		cacheBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "exorcism_cache_written_bytes_total",
			Help: "Bytes written to the cache by key type",
		}, []string{KeyLabel}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "exorcism_http_requests_total",
			Help: "HTTP requests by route and status",
		}, []string{MethodLabel, RouteLabel, StatusLabel}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "exorcism_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		}, []string{MethodLabel, RouteLabel}),
		requestErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "exorcism_http_errors_total",
			Help: "Failed HTTP requests by error code",
		}, []string{RouteLabel, CodeLabel}),
	}
	reg.MustRegister(
		m.inflight, m.runs, m.runDuration, m.cubesRemoved, m.passGain,
		m.verifies, m.verifyDuration, m.cacheRequests, m.cacheBytes,
		m.requests, m.requestDuration, m.requestErrors,
	)
	return m
}

// Register installs m as the minimize, cache and HTTP hooks.
func Register(m *Metrics) {
	SetMinimizeHooks(m)
	SetCacheHooks(m)
	SetHTTPHooks(m)
}

func outcome(err error) string {
	if err != nil {
		return Failed
	}
	return Succeeded
}

func (m *Metrics) OnMinimizeStart(context.Context, int) { m.inflight.Inc() }

func (m *Metrics) OnMinimizeComplete(_ context.Context, before, after int, d time.Duration, err error) {
	m.inflight.Dec()
	m.runs.WithLabelValues(outcome(err)).Inc()
	m.runDuration.Observe(d.Seconds())
	if err == nil && before > after {
		m.cubesRemoved.Add(float64(before - after))
	}
}

func (m *Metrics) OnPass(_ context.Context, phase string, dist, gain int) {
	if gain > 0 {
		m.passGain.WithLabelValues(phase, strconv.Itoa(dist)).Add(float64(gain))
	}
}

func (m *Metrics) OnVerifyComplete(_ context.Context, method string, d time.Duration, err error) {
	result := outcome(err)
	if errors.Is(err, errors.ErrCodeNotEquivalent) {
		result = "mismatch"
	}
	m.verifies.WithLabelValues(method, result).Inc()
	m.verifyDuration.WithLabelValues(method).Observe(d.Seconds())
}

func (m *Metrics) OnCacheHit(_ context.Context, keyType string) {
	m.cacheRequests.WithLabelValues(keyType, "hit").Inc()
}

func (m *Metrics) OnCacheMiss(_ context.Context, keyType string) {
	m.cacheRequests.WithLabelValues(keyType, "miss").Inc()
}

func (m *Metrics) OnCacheSet(_ context.Context, keyType string, size int) {
	m.cacheBytes.WithLabelValues(keyType).Add(float64(size))
}

func (m *Metrics) OnRequest(context.Context, string, string) {}

func (m *Metrics) OnResponse(_ context.Context, method, route string, status int, d time.Duration) {
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func (m *Metrics) OnError(_ context.Context, _, route, code string) {
	m.requestErrors.WithLabelValues(route, code).Inc()
}

var (
	_ MinimizeHooks = (*Metrics)(nil)
	_ CacheHooks    = (*Metrics)(nil)
	_ HTTPHooks     = (*Metrics)(nil)
)

package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Application-level metric names following Prometheus conventions
const (
	UpstreamRequestsTotal   = "upstream_requests_total"
	UpstreamRequestDuration = "upstream_request_duration_seconds"
	TokenExchangesTotal     = "token_exchanges_total"
	ToolCallsTotal          = "tool_calls_total"
	HTTPRequestsTotal       = "http_requests_total"
	HTTPRequestDuration     = "http_request_duration_seconds"
	HTTPErrorsTotal         = "http_errors_total"
	PanicsTotal             = "panics_total"
	ServerStartTime         = "server_start_time_seconds"
)

type collectorSet struct {
	upstreamRequests *prometheus.CounterVec
	upstreamDuration *prometheus.HistogramVec
	tokenExchanges   *prometheus.CounterVec
	toolCalls        *prometheus.CounterVec
	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
	httpErrors       *prometheus.CounterVec
	panics           prometheus.Counter
	serverStart      prometheus.Gauge
}

var (
	mu  sync.RWMutex
	app *collectorSet
)

// Register creates the application collectors under namespace and registers
// them with reg. Until Register is called every Record function is a no-op.
func Register(reg prometheus.Registerer, namespace string) error {
	set := &collectorSet{
		upstreamRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      UpstreamRequestsTotal,
			Help:      "Upstream API calls by method, outcome and status.",
		}, []string{"method", "outcome", "status"}),
		upstreamDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      UpstreamRequestDuration,
			Help:      "Upstream API call latency.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 240},
		}, []string{"method", "outcome"}),
		tokenExchanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      TokenExchangesTotal,
			Help:      "API key to bearer token exchanges by result.",
		}, []string{"result"}),
		toolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      ToolCallsTotal,
			Help:      "MCP tool invocations by tool and outcome.",
		}, []string{"tool", "outcome"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      HTTPRequestsTotal,
			Help:      "Inbound HTTP requests by method, endpoint and status.",
		}, []string{"method", "endpoint", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      HTTPRequestDuration,
			Help:      "Inbound HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "endpoint"}),
		httpErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      HTTPErrorsTotal,
			Help:      "Error envelopes written by the HTTP transport, by code and status.",
		}, []string{"code", "status"}),
		panics: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      PanicsTotal,
			Help:      "Recovered panics.",
		}),
		serverStart: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      ServerStartTime,
			Help:      "Server start time as a Unix timestamp.",
		}),
	}

	for _, c := range []prometheus.Collector{
		set.upstreamRequests, set.upstreamDuration, set.tokenExchanges, set.toolCalls,
		set.httpRequests, set.httpDuration, set.httpErrors, set.panics, set.serverStart,
	} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}

	mu.Lock()
	app = set
	mu.Unlock()
	return nil
}

func current() *collectorSet {
	mu.RLock()
	defer mu.RUnlock()
	return app
}

// RecordUpstreamRequest records one classified upstream call.
func RecordUpstreamRequest(method, outcome string, status int, duration time.Duration) {
	set := current()
	if set == nil {
		return
	}
	statusLabel := "none"
	if status > 0 {
		statusLabel = strconv.Itoa(status)
	}
	set.upstreamRequests.WithLabelValues(method, outcome, statusLabel).Inc()
	set.upstreamDuration.WithLabelValues(method, outcome).Observe(duration.Seconds())
}

// RecordTokenExchange records the result of an API key exchange.
func RecordTokenExchange(result string) {
	if set := current(); set != nil {
		set.tokenExchanges.WithLabelValues(result).Inc()
	}
}

// RecordToolCall records one MCP tool invocation.
func RecordToolCall(tool string, success bool) {
	set := current()
	if set == nil {
		return
	}
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	set.toolCalls.WithLabelValues(tool, outcome).Inc()
}

// RecordHTTPRequest records one inbound HTTP request.
func RecordHTTPRequest(method, endpoint string, status int, duration time.Duration) {
	set := current()
	if set == nil {
		return
	}
	set.httpRequests.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()
	set.httpDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordHTTPError records an error envelope written to an HTTP caller.
func RecordHTTPError(code string, status int) {
	if set := current(); set != nil {
		set.httpErrors.WithLabelValues(code, strconv.Itoa(status)).Inc()
	}
}

// RecordPanic records a panic recovery
func RecordPanic() {
	if set := current(); set != nil {
		set.panics.Inc()
	}
}

// SetServerStartTime records the server start time (Unix timestamp)
func SetServerStartTime(timestamp int64) {
	if set := current(); set != nil {
		set.serverStart.Set(float64(timestamp))
	}
}

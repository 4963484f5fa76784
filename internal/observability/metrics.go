package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	// Registry is the process Prometheus registry. It is nil until InitMetrics
	// runs; metric recording stays safe either way.
	Registry *prometheus.Registry

	metricsNamespace = "finscreener_mcp"
)

// InitMetrics creates the Prometheus registry with runtime collectors.
// Optional namespace overrides the metric name prefix.
func InitMetrics(serviceName string, namespace ...string) *prometheus.Registry {
	if len(namespace) > 0 && namespace[0] != "" {
		metricsNamespace = namespace[0]
	} else if serviceName != "" {
		metricsNamespace = sanitizeNamespace(serviceName)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	Registry = reg
	return reg
}

// MetricsNamespace returns the prefix used for application metrics.
func MetricsNamespace() string {
	return metricsNamespace
}

func sanitizeNamespace(name string) string {
	out := make([]rune, 0, len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			out = append(out, r)
		default:
			out = append(out, '_')
		}
	}
	return string(out)
}

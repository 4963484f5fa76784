package server

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	apperrors "github.com/finscreener/finscreener-mcp/internal/errors"
	"github.com/finscreener/finscreener-mcp/internal/observability"
)

// MetricsHandler serves the process registry in the Prometheus text format.
func MetricsHandler(w http.ResponseWriter, r *http.Request) {
	reg := observability.Registry
	if reg == nil {
		HandleError(w, r, apperrors.NewServiceUnavailableError("Metrics registry not initialized"))
		return
	}

	promhttp.HandlerFor(reg, promhttp.HandlerOpts{
		ErrorLog:      zapErrorLog{},
		ErrorHandling: promhttp.ContinueOnError,
	}).ServeHTTP(w, r)
}

type zapErrorLog struct{}

func (zapErrorLog) Println(v ...any) {
	observability.Server().Warn(fmt.Sprint(v...))
}

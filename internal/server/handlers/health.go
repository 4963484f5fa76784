package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"sync"
	"time"

	gferrors "github.com/fulmenhq/gofulmen/errors"

	apperrors "github.com/finscreener/finscreener-mcp/internal/errors"
)

// ErrDegraded marks a check that works but with reduced capability, such as
// running without an API key.
var ErrDegraded = errors.New("degraded")

// HealthResponse represents the aggregate health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Version   string            `json:"version"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// ProbeResponse represents individual probe response
type ProbeResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// HealthChecker defines interface for health checkable components
type HealthChecker interface {
	CheckHealth(ctx context.Context) error
}

// CheckerFunc adapts a function to HealthChecker.
type CheckerFunc func(ctx context.Context) error

func (f CheckerFunc) CheckHealth(ctx context.Context) error { return f(ctx) }

// HealthManager manages health checks and probe states
type HealthManager struct {
	mu       sync.RWMutex
	checkers map[string]HealthChecker
	version  string
}

// NewHealthManager creates a new health manager
func NewHealthManager(version string) *HealthManager {
	return &HealthManager{
		checkers: make(map[string]HealthChecker),
		version:  version,
	}
}

// RegisterChecker registers a health checker
func (hm *HealthManager) RegisterChecker(name string, checker HealthChecker) {
	hm.mu.Lock()
	defer hm.mu.Unlock()
	hm.checkers[name] = checker
}

// runHealthChecks executes all registered health checks in name order
func (hm *HealthManager) runHealthChecks(ctx context.Context) map[string]string {
	hm.mu.RLock()
	names := make([]string, 0, len(hm.checkers))
	for name := range hm.checkers {
		names = append(names, name)
	}
	checkers := make(map[string]HealthChecker, len(hm.checkers))
	for name, c := range hm.checkers {
		checkers[name] = c
	}
	hm.mu.RUnlock()
	sort.Strings(names)

	checks := make(map[string]string, len(names))
	for _, name := range names {
		if ctx.Err() != nil {
			checks[name] = "timeout"
			continue
		}
		err := checkers[name].CheckHealth(ctx)
		switch {
		case err == nil:
			checks[name] = "healthy"
		case errors.Is(err, ErrDegraded):
			checks[name] = "degraded"
		default:
			checks[name] = "unhealthy"
		}
	}

	return checks
}

// determineOverallStatus determines overall health status
func determineOverallStatus(checks map[string]string) string {
	degraded := false
	for _, status := range checks {
		if status == "unhealthy" {
			return "unhealthy"
		}
		if status == "degraded" || status == "timeout" {
			degraded = true
		}
	}

	if degraded {
		return "degraded"
	}
	return "healthy"
}

// evaluate runs the checks under timeout and writes the failure envelope
// when the aggregate is unhealthy. ok is false once a response was written.
func (hm *HealthManager) evaluate(w http.ResponseWriter, r *http.Request, probe string, timeout time.Duration) (string, map[string]string, bool) {
	checkCtx, cancel := context.WithTimeout(r.Context(), timeout)
	defer cancel()

	checks := hm.runHealthChecks(checkCtx)
	status := determineOverallStatus(checks)
	if status != "unhealthy" {
		return status, checks, true
	}

	message := probe + " probe failed"
	if probe == "" {
		message = "aggregate health check failed"
	}
	envelope := apperrors.NewServiceUnavailableError(message)
	respondWithError(w, r, enrichHealthEnvelope(envelope, probe, status, checks))
	return status, checks, false
}

// HealthHandler handles aggregate health check requests
func (hm *HealthManager) HealthHandler(w http.ResponseWriter, r *http.Request) {
	status, checks, ok := hm.evaluate(w, r, "", 5*time.Second)
	if !ok {
		return
	}

	writeJSON(w, HealthResponse{
		Status:    status,
		Version:   hm.version,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
	})
}

// LivenessHandler reports whether the process is running. It skips the
// registered checks: a missing API key must not get the server restarted.
func (hm *HealthManager) LivenessHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, ProbeResponse{Status: "healthy", Timestamp: time.Now().UTC()})
}

// ReadinessHandler handles readiness probe requests
// Readiness indicates if the application is ready to serve traffic
func (hm *HealthManager) ReadinessHandler(w http.ResponseWriter, r *http.Request) {
	hm.probe(w, r, "ready", 5*time.Second)
}

// StartupHandler handles startup probe requests
func (hm *HealthManager) StartupHandler(w http.ResponseWriter, r *http.Request) {
	hm.probe(w, r, "startup", 3*time.Second)
}

func (hm *HealthManager) probe(w http.ResponseWriter, r *http.Request, name string, timeout time.Duration) {
	status, _, ok := hm.evaluate(w, r, name, timeout)
	if !ok {
		return
	}
	writeJSON(w, ProbeResponse{Status: status, Timestamp: time.Now().UTC()})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(v)
}

func enrichHealthEnvelope(envelope *gferrors.ErrorEnvelope, probe, status string, checks map[string]string) *gferrors.ErrorEnvelope {
	if envelope == nil {
		return nil
	}

	details := map[string]any{
		"status": status,
	}
	if len(checks) > 0 {
		details["checks"] = checks
	}
	if probe != "" {
		details["probe"] = probe
	}

	contextData := map[string]any{
		"status": status,
	}
	if probe != "" {
		contextData["probe"] = probe
	}

	var unhealthy []string
	for name, result := range checks {
		if result != "healthy" {
			unhealthy = append(unhealthy, name)
		}
	}
	if len(unhealthy) > 0 {
		sort.Strings(unhealthy)
		contextData["unhealthy_checks"] = unhealthy
	}

	envelope = envelope.WithDetails(details)
	if updated, err := envelope.WithContext(contextData); err == nil {
		envelope = updated
	}
	return envelope
}

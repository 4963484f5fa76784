// Package errors holds the JSON error envelope written by the HTTP transport.
package errors

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/fulmenhq/gofulmen/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/finscreener/finscreener-mcp/internal/metrics"
	"github.com/finscreener/finscreener-mcp/internal/observability"
	"github.com/finscreener/finscreener-mcp/internal/server/middleware"
)

// Error codes understood by HTTPStatusFromCode.
const (
	CodeInvalidInput       = "INVALID_INPUT"
	CodeNotFound           = "NOT_FOUND"
	CodeMethodNotAllowed   = "METHOD_NOT_ALLOWED"
	CodeRateLimited        = "RATE_LIMITED"
	CodeInternal           = "INTERNAL_ERROR"
	CodeExternalService    = "EXTERNAL_SERVICE_ERROR"
	CodeTimeout            = "TIMEOUT"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)

// User Errors (400-level)
func NewInvalidInputError(message string) *errors.ErrorEnvelope {
	return withSeverity(errors.NewErrorEnvelope(CodeInvalidInput, message), errors.SeverityMedium)
}

func NewNotFoundError(message string) *errors.ErrorEnvelope {
	return withSeverity(errors.NewErrorEnvelope(CodeNotFound, message), errors.SeverityLow)
}

func NewMethodNotAllowedError(message string) *errors.ErrorEnvelope {
	return withSeverity(errors.NewErrorEnvelope(CodeMethodNotAllowed, message), errors.SeverityLow)
}

func NewRateLimitedError(message string) *errors.ErrorEnvelope {
	return withSeverity(errors.NewErrorEnvelope(CodeRateLimited, message), errors.SeverityMedium)
}

// Server Errors (500-level)
func NewInternalError(message string) *errors.ErrorEnvelope {
	return withSeverity(errors.NewErrorEnvelope(CodeInternal, message), errors.SeverityHigh)
}

func NewServiceUnavailableError(message string) *errors.ErrorEnvelope {
	return withSeverity(errors.NewErrorEnvelope(CodeServiceUnavailable, message), errors.SeverityHigh)
}

// WrapInternal takes the correlation ID from the request context when present.
func WrapInternal(ctx context.Context, err error, message string) *errors.ErrorEnvelope {
	envelope := NewInternalError(message)
	envelope = envelope.WithCorrelationID(extractCorrelationID(ctx))
	envelope = envelope.WithTraceID(extractTraceID(ctx))
	envelope = withWrappedError(envelope, err)
	return envelope
}

// extractCorrelationID gets correlation ID from context, falls back to generating new UUID
func extractCorrelationID(ctx context.Context) string {
	if ctx != nil {
		if requestID := middleware.GetRequestID(ctx); requestID != "" {
			return requestID
		}
	}
	return uuid.New().String()
}

// extractTraceID reuses the correlation ID; there is no tracing backend.
func extractTraceID(ctx context.Context) string {
	return extractCorrelationID(ctx)
}

// EnsureEnvelope normalizes any error into a gofulmen ErrorEnvelope.
func EnsureEnvelope(err error) *errors.ErrorEnvelope {
	if err == nil {
		return withSeverity(errors.NewErrorEnvelope(CodeInternal, "unexpected nil error"), errors.SeverityCritical)
	}

	if envelope, ok := err.(*errors.ErrorEnvelope); ok && envelope != nil {
		return envelope
	}

	return withWrappedError(NewInternalError("unexpected error"), err)
}

// EnsureCorrelationID attaches a correlation ID to the envelope using the context when available.
func EnsureCorrelationID(envelope *errors.ErrorEnvelope, ctx context.Context) *errors.ErrorEnvelope {
	if envelope == nil {
		return nil
	}
	if envelope.CorrelationID != "" {
		return envelope
	}

	var correlationID string
	if ctx != nil {
		correlationID = middleware.GetRequestID(ctx)
	}
	if correlationID == "" {
		correlationID = "fallback-" + errors.GenerateCorrelationID()
	}
	return envelope.WithCorrelationID(correlationID)
}

// HTTPStatusFromEnvelope resolves the HTTP status code corresponding to an error envelope.
func HTTPStatusFromEnvelope(envelope *errors.ErrorEnvelope) int {
	if envelope == nil {
		return http.StatusInternalServerError
	}
	return HTTPStatusFromCode(envelope.Code)
}

// HTTPStatusFromCode resolves the HTTP status code corresponding to an error code.
func HTTPStatusFromCode(code string) int {
	switch code {
	case CodeInvalidInput:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeMethodNotAllowed:
		return http.StatusMethodNotAllowed
	case CodeRateLimited:
		return http.StatusTooManyRequests
	case CodeTimeout:
		return http.StatusGatewayTimeout
	case CodeExternalService:
		return http.StatusBadGateway
	case CodeServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func withSeverity(envelope *errors.ErrorEnvelope, severity errors.Severity) *errors.ErrorEnvelope {
	updated, err := envelope.WithSeverity(severity)
	if err != nil {
		return envelope
	}
	return updated
}

func withWrappedError(envelope *errors.ErrorEnvelope, err error) *errors.ErrorEnvelope {
	if envelope == nil || err == nil {
		return envelope
	}

	contextData := make(map[string]interface{}, len(envelope.Context)+1)
	for key, value := range envelope.Context {
		contextData[key] = value
	}
	contextData["wrapped_error"] = err.Error()

	updated, updateErr := envelope.WithContext(contextData)
	if updateErr != nil {
		return envelope
	}
	return updated
}

// HTTPErrorDetail captures the error body returned to callers.
type HTTPErrorDetail struct {
	Code      string                 `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
}

// HTTPErrorResponse wraps HTTPErrorDetail in the standard envelope structure.
type HTTPErrorResponse struct {
	Error HTTPErrorDetail `json:"error"`
}

// RespondWithError normalizes the supplied error and writes a JSON response.
func RespondWithError(w http.ResponseWriter, r *http.Request, err error) {
	RespondWithEnvelope(w, r, EnsureEnvelope(err))
}

// RespondWithEnvelope finalizes the provided envelope, logging and emitting metrics.
// Envelope context is logged only; Details are returned to the caller.
func RespondWithEnvelope(w http.ResponseWriter, r *http.Request, envelope *errors.ErrorEnvelope) {
	if w == nil {
		return
	}

	if envelope == nil {
		envelope = EnsureEnvelope(nil)
	}
	if r != nil {
		envelope = EnsureCorrelationID(envelope, r.Context())
	} else {
		envelope = EnsureCorrelationID(envelope, nil)
	}

	statusCode := HTTPStatusFromEnvelope(envelope)

	var details map[string]interface{}
	if len(envelope.Details) > 0 {
		details = envelope.Details
	}

	response := HTTPErrorResponse{
		Error: HTTPErrorDetail{
			Code:      envelope.Code,
			Message:   envelope.Message,
			Details:   details,
			RequestID: envelope.CorrelationID,
		},
	}

	logHTTPError(envelope, statusCode)
	metrics.RecordHTTPError(envelope.Code, statusCode)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(response)
}

func logHTTPError(envelope *errors.ErrorEnvelope, statusCode int) {
	if observability.ServerLogger == nil || envelope == nil {
		return
	}

	fields := []zap.Field{
		zap.String("error_code", envelope.Code),
		zap.Int("http_status", statusCode),
	}
	if envelope.Severity != "" {
		fields = append(fields, zap.String("severity", string(envelope.Severity)))
	}
	for key, value := range envelope.Context {
		fields = append(fields, zap.Any(key, value))
	}
	if envelope.CorrelationID != "" {
		fields = append(fields, zap.String("request_id", envelope.CorrelationID))
	}

	switch envelope.Severity {
	case errors.SeverityCritical, errors.SeverityHigh:
		observability.ServerLogger.Error(envelope.Message, fields...)
	case errors.SeverityMedium:
		observability.ServerLogger.Warn(envelope.Message, fields...)
	default:
		observability.ServerLogger.Info(envelope.Message, fields...)
	}
}

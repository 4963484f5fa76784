package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/finscreener/finscreener-mcp/internal/metrics"
	"github.com/finscreener/finscreener-mcp/internal/observability"
)

// Recovery middleware recovers from panics and logs them
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				if err == http.ErrAbortHandler {
					panic(err)
				}

				requestID := GetRequestID(r.Context())
				observability.Server().Error("Recovered panic in HTTP handler",
					zap.Any("panic", err),
					zap.String("path", r.URL.Path),
					zap.String("request_id", requestID),
					zap.Stack("stack"))
				metrics.RecordPanic()

				writeErrorResponse(w, http.StatusInternalServerError, ErrorDetail{
					Code:      "INTERNAL_ERROR",
					Message:   fmt.Sprintf("panic: %v", err),
					RequestID: requestID,
				})
			}
		}()

		next.ServeHTTP(w, r)
	})
}

// ErrorResponse mirrors the envelope written by the errors package. It is
// duplicated here because that package imports middleware.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	RequestID string         `json:"request_id,omitempty"`
}

func writeErrorResponse(w http.ResponseWriter, statusCode int, detail ErrorDetail) {
	metrics.RecordHTTPError(detail.Code, statusCode)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: detail})
}

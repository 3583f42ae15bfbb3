package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"storefront/internal/domain"

	"go.uber.org/zap"
)

// ErrorResponse represents a structured error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code      string                 `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Timestamp string                 `json:"timestamp"`
}

// RespondWithError sends a structured error response coded by HTTP status text
func RespondWithError(w http.ResponseWriter, statusCode int, message string) {
	writeError(w, statusCode, http.StatusText(statusCode), message, nil)
}

// StatusFor maps an error returned by the core to an HTTP status
func StatusFor(err error) int {
	if errors.Is(err, domain.ErrInvalidCredentials) {
		return http.StatusUnauthorized
	}

	switch domain.KindOf(err) {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindBusinessRule:
		return http.StatusConflict
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindForbidden:
		return http.StatusForbidden
	case domain.KindStorage:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// RespondWithDomainError reports a core failure using its code, violations and retryability.
// Anything that is not a domain error is logged and hidden behind a 500.
func RespondWithDomainError(w http.ResponseWriter, err error, logger *zap.Logger) {
	var domainErr *domain.Error
	if !errors.As(err, &domainErr) {
		logger.Error("Unhandled error", zap.Error(err))
		RespondWithError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	status := StatusFor(err)
	var details map[string]interface{}
	if len(domainErr.Violations) > 0 {
		details = map[string]interface{}{"validation_errors": domainErr.Violations}
	}
	if domainErr.Retryable() {
		logger.Warn("Storage failure", zap.String("code", domainErr.Code), zap.Error(err))
		if details == nil {
			details = map[string]interface{}{}
		}
		details["retryable"] = true
	}

	message := domainErr.Message
	if domainErr.Retryable() {
		// the cause may leak backend details
		message = domain.ErrStorageFailure.Message
	}
	writeError(w, status, domainErr.Code, message, details)
}

func writeError(w http.ResponseWriter, statusCode int, code, message string, details map[string]interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := ErrorResponse{
		Error: ErrorDetail{
			Code:      code,
			Message:   message,
			Details:   details,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
	}

	json.NewEncoder(w).Encode(response)
}

// ErrorHandlingMiddleware catches panics and converts them to 500 errors
func ErrorHandlingMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("Panic recovered",
						zap.Any("error", err),
						zap.String("path", r.URL.Path),
						zap.String("method", r.Method),
					)

					RespondWithError(w, http.StatusInternalServerError, "internal server error")
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// RespondWithJSON sends a JSON response
func RespondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

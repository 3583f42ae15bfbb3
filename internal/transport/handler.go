// Package transport exposes the storefront core over HTTP.
package transport

import (
	"net/http"

	"storefront/internal/domain"
	"storefront/internal/middleware"

	"go.uber.org/zap"
)

// Middleware is a chi-compatible handler wrapper
type Middleware = func(http.Handler) http.Handler

// callerOrUnauthorized returns the authenticated identity or answers 401
func callerOrUnauthorized(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (domain.Identity, bool) {
	identity, ok := middleware.GetIdentity(r.Context())
	if !ok {
		logger.Error("Identity not found in context", zap.String("path", r.URL.Path))
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return domain.Identity{}, false
	}
	return identity, true
}

// respondFailure reports a core error. Expected rejections log at Debug,
// storage and unknown failures at Warn or above inside RespondWithDomainError.
func respondFailure(w http.ResponseWriter, r *http.Request, logger *zap.Logger, msg string, err error) {
	if kind := domain.KindOf(err); kind != "" && kind != domain.KindStorage {
		logger.Debug(msg, zap.String("path", r.URL.Path), zap.Error(err))
	}
	middleware.RespondWithDomainError(w, err, logger)
}

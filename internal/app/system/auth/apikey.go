package auth

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/dalemusser/stratasite/internal/app/system/jsonutil"
	"go.uber.org/zap"
)

const apiClientKey ctxKey = "apiClient"

// APIKeyAuth authenticates machine clients with "Authorization: Bearer <key>".
// Authenticated requests are marked so IsAPIClient reports true. With no key
// configured every request is rejected.
//
//	r.Group(func(r chi.Router) {
//	    r.Use(apicors.Middleware())
//	    r.Use(auth.APIKeyAuth(appCfg.APIKey, logger))
//	    r.Mount("/api/keyed/cms", cmsRoutes)
//	})
func APIKeyAuth(validKey string, logger *zap.Logger) func(http.Handler) http.Handler {
	if validKey == "" {
		logger.Warn("API key not configured - all keyed API requests will be rejected")
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if validKey == "" {
				jsonutil.Unauthorized(w, "API authentication not configured")
				return
			}

			scheme, provided, ok := strings.Cut(r.Header.Get("Authorization"), " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") {
				logger.Debug("API request rejected: missing or malformed Authorization header",
					zap.String("path", r.URL.Path))
				jsonutil.Unauthorized(w, "expected Authorization: Bearer <api-key>")
				return
			}
			if subtle.ConstantTimeCompare([]byte(provided), []byte(validKey)) != 1 {
				logger.Warn("API request rejected: invalid API key",
					zap.String("path", r.URL.Path),
					zap.String("remote_addr", r.RemoteAddr))
				jsonutil.Unauthorized(w, "invalid API key")
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), apiClientKey, true)))
		})
	}
}

// IsAPIClient reports whether the request passed APIKeyAuth.
func IsAPIClient(r *http.Request) bool {
	ok, _ := r.Context().Value(apiClientKey).(bool)
	return ok
}

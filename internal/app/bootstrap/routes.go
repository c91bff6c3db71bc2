// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"
	"strings"
	"time"

	assetsfeature "github.com/dalemusser/stratasite/internal/app/features/assets"
	auditlogfeature "github.com/dalemusser/stratasite/internal/app/features/auditlog"
	cmsfeature "github.com/dalemusser/stratasite/internal/app/features/cms"
	errorsfeature "github.com/dalemusser/stratasite/internal/app/features/errors"
	healthfeature "github.com/dalemusser/stratasite/internal/app/features/health"
	sessionfeature "github.com/dalemusser/stratasite/internal/app/features/session"
	sitefeature "github.com/dalemusser/stratasite/internal/app/features/site"
	"github.com/dalemusser/stratasite/internal/app/store/ratelimit"
	userstore "github.com/dalemusser/stratasite/internal/app/store/users"
	"github.com/dalemusser/stratasite/internal/app/system/apicors"
	"github.com/dalemusser/stratasite/internal/app/system/auth"
	"github.com/dalemusser/stratasite/internal/app/system/jsonutil"
	"github.com/dalemusser/stratasite/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/middleware"
	"github.com/dalemusser/waffle/pantry/fileserver"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/csrf"
	"go.uber.org/zap"
)

// keyedPrefix is served to machine clients with API key auth and no CSRF.
const keyedPrefix = "/api/keyed/"

// BuildHandler constructs the root router.
//
// Two kinds of caller reach the admin API:
//   - the admin UI: session cookie + CSRF header, under /api/cms
//   - scripts and importers: Bearer API key, no CSRF, under /api/keyed/cms
//
// The public site API is anonymous-friendly; a signed-in admin gets
// can_edit in page responses.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}
	// Reload the user per request so disabling an account or changing a
	// role takes effect immediately.
	sessionMgr.SetUserFetcher(userstore.NewFetcher(deps.MongoDatabase, logger))

	errLog := errorsfeature.NewErrorLogger(logger)

	r := chi.NewRouter()

	// ─────────────────────────────────────────────────────────────────────────────
	// Global middleware
	// ─────────────────────────────────────────────────────────────────────────────
	r.Use(chimw.RequestID)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.CORSFromConfig(coreCfg))
	r.Use(middleware.SecurityHeadersFromConfig(coreCfg))
	r.Use(sessionMgr.LoadSessionUser)
	r.Use(csrfMiddleware(appCfg, secure, logger))

	// ─────────────────────────────────────────────────────────────────────────────
	// Public site API
	// ─────────────────────────────────────────────────────────────────────────────
	siteHandler := sitefeature.NewHandler(deps.Resolver, logger)
	r.Mount("/api/site", sitefeature.Routes(siteHandler, appCfg.SiteOrigins))

	// ─────────────────────────────────────────────────────────────────────────────
	// Admin session
	// ─────────────────────────────────────────────────────────────────────────────
	var limiter *ratelimit.Store
	if appCfg.RateLimitEnabled {
		limiter = ratelimit.New(
			deps.MongoDatabase,
			appCfg.RateLimitLoginAttempts,
			appCfg.RateLimitLoginWindow,
			appCfg.RateLimitLoginLockout,
		)
	}
	// Trust login allows passwordless sign-in; dev only.
	trustLogin := coreCfg.Env == "dev"
	sessionHandler := sessionfeature.NewHandler(
		userstore.New(deps.MongoDatabase),
		limiter,
		sessionMgr,
		errLog,
		deps.AuditLogger,
		trustLogin,
		logger,
	)
	r.Mount("/api/session", sessionfeature.Routes(sessionHandler))

	// ─────────────────────────────────────────────────────────────────────────────
	// Admin content API
	// Editors may read; every write checks the admin capability.
	// ─────────────────────────────────────────────────────────────────────────────
	cmsHandler := cmsfeature.NewHandler(deps.Registry, deps.Defaults, deps.Audit, errLog, deps.AuditLogger, logger)
	r.Route("/api/cms", func(sr chi.Router) {
		sr.Use(sessionMgr.RequireRole(models.RoleAdmin, models.RoleEditor))
		sr.Mount("/", cmsfeature.Routes(cmsHandler))
	})
	r.Route(keyedPrefix+"cms", func(sr chi.Router) {
		sr.Use(apicors.Middleware())
		sr.Use(auth.APIKeyAuth(appCfg.APIKey, logger))
		sr.Mount("/", cmsfeature.Routes(cmsHandler))
	})

	// ─────────────────────────────────────────────────────────────────────────────
	// Assets and audit (admin only; enforced inside each feature)
	// ─────────────────────────────────────────────────────────────────────────────
	assetsHandler := assetsfeature.NewHandler(deps.MongoDatabase, deps.FileStorage, appCfg.MaxUploadSize, errLog, deps.AuditLogger, logger)
	r.Mount("/api/assets", assetsfeature.Routes(assetsHandler))

	auditHandler := auditlogfeature.NewHandler(deps.Audit, errLog, logger)
	r.Mount("/api/audit", auditlogfeature.Routes(auditHandler))

	// Uploaded assets are served from disk only with local storage; S3
	// assets are served by CloudFront.
	if appCfg.StorageType == "local" || appCfg.StorageType == "" {
		r.Handle(appCfg.StorageLocalURL+"/*", fileserver.Handler(appCfg.StorageLocalURL, appCfg.StorageLocalPath))
	}

	// Health checks for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, deps.Defaults, logger)
	healthHandler.SetTasks(deps.Tasks)
	r.Mount("/health", healthfeature.Routes(healthHandler))
	healthfeature.MountRootEndpoints(r, healthHandler)

	r.NotFound(errorsfeature.NotFound)
	r.MethodNotAllowed(errorsfeature.MethodNotAllowed)

	return r, nil
}

// csrfMiddleware protects cookie-authenticated writes. Keyed API routes
// carry no cookie and are exempt. The admin UI reads the token from
// GET /api/session and sends it back in X-CSRF-Token.
func csrfMiddleware(appCfg AppConfig, secure bool, logger *zap.Logger) func(http.Handler) http.Handler {
	opts := []csrf.Option{
		csrf.Secure(secure),
		csrf.Path("/"),
		csrf.CookieName("stratasite_csrf"),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			logger.Warn("CSRF validation failed",
				zap.String("path", req.URL.Path),
				zap.String("method", req.Method),
				zap.String("reason", csrf.FailureReason(req).Error()),
			)
			jsonutil.Forbidden(w, "CSRF token invalid or missing")
		})),
	}
	if !secure {
		opts = append(opts, csrf.TrustedOrigins([]string{
			"localhost:8080",
			"localhost:3000",
			"127.0.0.1:8080",
			"127.0.0.1:3000",
		}))
	}
	if appCfg.SessionDomain != "" {
		opts = append(opts, csrf.Domain(appCfg.SessionDomain))
	}
	protect := csrf.Protect([]byte(appCfg.CSRFKey), opts...)

	return func(next http.Handler) http.Handler {
		protected := protect(next)
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if strings.HasPrefix(req.URL.Path, keyedPrefix) {
				next.ServeHTTP(w, req)
				return
			}
			protected.ServeHTTP(w, req)
		})
	}
}

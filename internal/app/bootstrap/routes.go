// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"
	"time"

	browsefeature "github.com/dalemusser/strataview/internal/app/features/browse"
	healthfeature "github.com/dalemusser/strataview/internal/app/features/health"
	usersfeature "github.com/dalemusser/strataview/internal/app/features/users"
	ledgerstore "github.com/dalemusser/strataview/internal/app/store/ledger"
	userstore "github.com/dalemusser/strataview/internal/app/store/users"
	"github.com/dalemusser/strataview/internal/app/system/apicors"
	"github.com/dalemusser/strataview/internal/app/system/auth"
	"github.com/dalemusser/strataview/internal/app/system/ledger"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/middleware"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. At this point you have access to:
//   - coreCfg: WAFFLE core configuration (ports, env, timeouts, etc.)
//   - appCfg: app-specific configuration defined in AppConfig
//   - deps: any DB or backend clients bundled in DBDeps
//   - logger: the fully configured zap.Logger for this app
//
// All routes here are JSON API routes: API key auth (when configured),
// no cookies, permissive CORS via apicors.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Stores and services
	users := userstore.New(deps.MongoDatabase)
	userSvc := usersfeature.NewService(users, logger)
	userHandler := usersfeature.NewHandler(userSvc, logger)

	localHandler := browsefeature.NewHandler(deps.LocalBrowser, "local", logger)

	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)

	r := chi.NewRouter()

	// ─────────────────────────────────────────────────────────────────────────
	// Global Middleware (applies to ALL routes)
	// ─────────────────────────────────────────────────────────────────────────

	// Request timeout middleware: prevents requests from hanging indefinitely.
	r.Use(chimw.Timeout(30 * time.Second))

	// CORS middleware: must be early in the chain to handle preflight requests.
	r.Use(middleware.CORSFromConfig(coreCfg))

	// Security headers middleware: adds X-Frame-Options, X-Content-Type-Options, etc.
	r.Use(middleware.SecurityHeadersFromConfig(coreCfg))

	// Request ledger: captures failed API requests to MongoDB for debugging.
	if appCfg.LedgerEnabled {
		ledgerCfg := ledger.DefaultConfig(ledgerstore.New(deps.MongoDatabase), logger)
		ledgerCfg.OnlyErrors = appCfg.LedgerOnlyErrors
		r.Use(ledger.Middleware(ledgerCfg))
	}

	// ─────────────────────────────────────────────────────────────────────────
	// Health and probe endpoints (never behind API key auth)
	// ─────────────────────────────────────────────────────────────────────────

	r.Mount("/health", healthfeature.Routes(healthHandler))
	healthfeature.MountRootEndpoints(r, healthHandler)

	// ─────────────────────────────────────────────────────────────────────────
	// API routes
	// ─────────────────────────────────────────────────────────────────────────

	r.Group(func(api chi.Router) {
		// API CORS - permissive for API key auth
		api.Use(apicors.Middleware())

		// API key authentication (open when no key is configured)
		if appCfg.APIKey != "" {
			api.Use(auth.APIKeyAuth(appCfg.APIKey, logger))
		}

		api.Mount("/users", usersfeature.Routes(userHandler))
		api.Mount("/local", browsefeature.Routes(localHandler))

		if deps.S3Browser != nil {
			awsHandler := browsefeature.NewHandler(deps.S3Browser, "aws", logger)
			api.Mount("/aws", browsefeature.Routes(awsHandler))
		}
	})

	logger.Info("HTTP handler built",
		zap.Bool("api_key_auth", appCfg.APIKey != ""),
		zap.Bool("s3_browsing", deps.S3Browser != nil),
		zap.Bool("ledger", appCfg.LedgerEnabled),
	)

	return r, nil
}

// Package api wires the HTTP surface: public health and metrics routes plus
// the credential-protected /api/v1 tool routes.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/matiasleandrokruk/netsuite-mcp/internal/api/handlers"
	apmiddleware "github.com/matiasleandrokruk/netsuite-mcp/internal/api/middleware"
	"github.com/matiasleandrokruk/netsuite-mcp/internal/infra/metrics"
	"github.com/matiasleandrokruk/netsuite-mcp/internal/version"
	pkgauth "github.com/matiasleandrokruk/netsuite-mcp/pkg/auth"
)

// Deps are the process-scoped services the router needs.
type Deps struct {
	Dispatcher handlers.Dispatcher
	Guard      *pkgauth.Guard
	// Metrics is optional; /metrics is not mounted without it.
	Metrics *metrics.Collector
	Logger  logrus.FieldLogger
}

// NewRouter creates the chi router with all routes.
func NewRouter(deps Deps) *chi.Mux {
	r := chi.NewRouter()

	var obs apmiddleware.RequestObserver
	if deps.Metrics != nil {
		obs = deps.Metrics
	}

	// Global middleware (runs on all routes)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(apmiddleware.RequestLogger(deps.Logger, obs))
	r.Use(middleware.Recoverer)

	// ===== PUBLIC ROUTES =====

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "ok", "version": version.Version}) //nolint:errcheck
	})

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}

	// ===== PROTECTED ROUTES (X-API-Key or Bearer token) =====

	toolHandler := handlers.NewToolHandler(deps.Dispatcher, deps.Logger)
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(apmiddleware.AuthMiddleware(deps.Guard))

		r.Get("/tools", toolHandler.ListTools)
		r.Post("/tools/{name}", toolHandler.InvokeTool)
	})

	return r
}

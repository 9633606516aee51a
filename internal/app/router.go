package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/bodega-pos/bodega/internal/admin"
	"github.com/bodega-pos/bodega/internal/auth"
	"github.com/bodega-pos/bodega/internal/settlement"
	"github.com/bodega-pos/bodega/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger     *slog.Logger
	Config     *Config
	Storefront *settlement.Handler
	Admin      *admin.Handler
	Gate       *auth.Gate
	Jobs       *jobs.Handler
}

// NewRouter constructs the chi.Router for the storefront and back office.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {
		params.Storefront.MountRoutes(r)

		r.Route("/admin", func(r chi.Router) {
			r.Post("/login", params.Admin.Login)
			r.Group(func(r chi.Router) {
				r.Use(params.Gate.Middleware)
				params.Admin.MountRoutes(r)
				if params.Jobs != nil {
					r.Route("/jobs", params.Jobs.MountTriggerRoutes)
				}
			})
		})
	})

	if params.Jobs != nil {
		r.Route("/jobs", params.Jobs.MountRoutes)
	}

	return r
}

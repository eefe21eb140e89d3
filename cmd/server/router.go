package main

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"fellowship/internal/platform/metrics"
	"fellowship/pkg/platform/httputil"
	"fellowship/pkg/platform/middleware/admin"
	"fellowship/pkg/platform/middleware/auth"
	"fellowship/pkg/platform/middleware/request"
	"fellowship/pkg/platform/middleware/requesttime"
)

type routerDeps struct {
	handlers   *handlers
	validator  auth.JWTValidator
	adminToken string
	metrics    *metrics.Metrics
	gatherer   prometheus.Gatherer
	logger     *slog.Logger
}

func newRouter(d routerDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(d.metrics.Middleware)
	r.Use(request.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(requesttime.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", request.HeaderRequestID},
		ExposedHeaders: []string{request.HeaderRequestID},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.HandlerFor(d.gatherer, promhttp.HandlerOpts{}))

	d.handlers.invites.RegisterPublic(r)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(d.validator, d.logger))

		d.handlers.messages.Register(r)
		d.handlers.conversations.Register(r)
		d.handlers.groups.Register(r)
		d.handlers.moderation.Register(r)
		d.handlers.invites.Register(r)
		d.handlers.chats.Register(r)
		d.handlers.contacts.Register(r)
		d.handlers.search.Register(r)
	})

	r.Group(func(r chi.Router) {
		r.Use(admin.RequireAdminToken(d.adminToken, d.logger))
		d.handlers.moderation.RegisterAdmin(r)
	})

	return r
}

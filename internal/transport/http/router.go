// Package httptransport assembles the HTTP router: the middleware chain, the
// public and registrar route groups, and the operational endpoints.
package httptransport

import (
	"log/slog"
	"net/http"
	"net/netip"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"marriage-registry/internal/platform/metrics"
	"marriage-registry/pkg/platform/middleware/admin"
	request "marriage-registry/pkg/platform/middleware/request"
)

// RouteRegistrar is implemented by module handlers.
type RouteRegistrar interface {
	Register(r chi.Router)
}

// AdminRouteRegistrar is implemented by module handlers that expose
// registrar endpoints.
type AdminRouteRegistrar interface {
	RegisterAdmin(r chi.Router)
}

// Config tunes the middleware stack. AdminTokenHash, when set, is a bcrypt
// hash checked instead of AdminToken.
type Config struct {
	AdminToken     string
	AdminTokenHash string
	RequestTimeout time.Duration
	MaxBodyBytes   int64
	TrustedProxies []netip.Prefix
}

// Routes holds what the router mounts. Health is mounted outside the timeout
// and body limit so probes stay cheap. PublicLimit, when set, wraps the public
// routes only; registrars are already authenticated.
type Routes struct {
	Health      RouteRegistrar
	Public      []RouteRegistrar
	Admin       []AdminRouteRegistrar
	Registry    *prometheus.Registry
	PublicLimit func(http.Handler) http.Handler
}

// NewRouter wires the middleware stack and mounts every module.
func NewRouter(cfg Config, routes Routes, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(request.Recovery(logger))
	r.Use(request.RequestID)
	r.Use(request.RequestTime)
	r.Use(request.ClientIP(cfg.TrustedProxies))
	r.Use(request.Logger(logger))

	var latency *request.Metrics
	if routes.Registry != nil {
		latency = request.NewMetrics(routes.Registry)
	}
	r.Use(request.LatencyMiddleware(latency))

	if routes.Registry != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(routes.Registry))
	}
	if routes.Health != nil {
		routes.Health.Register(r)
	}

	r.Group(func(api chi.Router) {
		if cfg.RequestTimeout > 0 {
			api.Use(request.Timeout(cfg.RequestTimeout))
		}
		if cfg.MaxBodyBytes > 0 {
			api.Use(request.BodyLimit(cfg.MaxBodyBytes))
		}
		api.Use(request.ContentTypeJSON)

		api.Group(func(pub chi.Router) {
			if routes.PublicLimit != nil {
				pub.Use(routes.PublicLimit)
			}
			for _, p := range routes.Public {
				p.Register(pub)
			}
		})

		api.Group(func(adm chi.Router) {
			if cfg.AdminTokenHash != "" {
				adm.Use(admin.RequireAdminTokenHash(cfg.AdminTokenHash, logger))
			} else {
				adm.Use(admin.RequireAdminToken(cfg.AdminToken, logger))
			}
			for _, a := range routes.Admin {
				a.RegisterAdmin(adm)
			}
		})
	})

	return r
}

package ratelimit

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"marriage-registry/internal/platform/privacy"
	"marriage-registry/pkg/platform/httputil"
	"marriage-registry/pkg/requestcontext"
)

// Middleware enforces a Limiter per client address. Limiter failures let the
// request through.
type Middleware struct {
	limiter  Limiter
	scope    string
	logger   *slog.Logger
	rejected prometheus.Counter
}

// NewMiddleware builds the middleware. scope prefixes every key so different
// route groups keep separate windows. reg may be nil.
func NewMiddleware(limiter Limiter, scope string, logger *slog.Logger, reg prometheus.Registerer) *Middleware {
	return &Middleware{
		limiter: limiter,
		scope:   scope,
		logger:  logger,
		rejected: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name:        "registry_rate_limited_total",
			Help:        "Requests rejected by the rate limiter",
			ConstLabels: prometheus.Labels{"scope": scope},
		}),
	}
}

func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		ip := requestcontext.ClientIP(ctx)

		result, err := m.limiter.Allow(ctx, m.scope+":"+ip)
		if err != nil {
			m.logger.ErrorContext(ctx, "rate limit check failed",
				"error", err,
				"ip_prefix", privacy.AnonymizeIP(ip),
				"request_id", requestcontext.RequestID(ctx),
			)
			next.ServeHTTP(w, r)
			return
		}

		h := w.Header()
		h.Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
		h.Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		h.Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))

		if !result.Allowed {
			m.rejected.Inc()
			m.logger.WarnContext(ctx, "rate limit exceeded",
				"ip_prefix", privacy.AnonymizeIP(ip),
				"path", r.URL.Path,
				"request_id", requestcontext.RequestID(ctx),
			)
			h.Set("Retry-After", strconv.Itoa(int(math.Ceil(result.RetryAfter.Seconds()))))
			httputil.WriteJSON(w, http.StatusTooManyRequests, map[string]string{
				"error":             "rate_limit_exceeded",
				"error_description": "too many requests, try again later",
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}

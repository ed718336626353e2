package admin

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	"marriage-registry/pkg/requestcontext"
	"marriage-registry/pkg/secrets"
)

// MaxActorIDLength bounds the X-Admin-Actor-ID value recorded on certificates.
const MaxActorIDLength = 128

// RequireAdminToken guards registrar endpoints with a shared token. The
// registrar named in X-Admin-Actor-ID is stored as the request actor.
func RequireAdminToken(expectedToken string, logger *slog.Logger) func(http.Handler) http.Handler {
	return requireToken(func(token string) bool {
		return expectedToken != "" && subtle.ConstantTimeCompare([]byte(token), []byte(expectedToken)) == 1
	}, logger)
}

// RequireAdminTokenHash is RequireAdminToken for deployments that configure a
// bcrypt hash of the token instead of the token itself.
func RequireAdminTokenHash(hash string, logger *slog.Logger) func(http.Handler) http.Handler {
	return requireToken(func(token string) bool {
		return secrets.Matches(token, hash)
	}, logger)
}

func requireToken(valid func(token string) bool, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if !valid(r.Header.Get("X-Admin-Token")) {
				logger.WarnContext(ctx, "admin token mismatch",
					"request_id", requestcontext.RequestID(ctx),
					"path", r.URL.Path,
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"admin token required"}`)) //nolint:errcheck // headers already sent
				return
			}

			if actorID := strings.TrimSpace(r.Header.Get("X-Admin-Actor-ID")); actorID != "" && len(actorID) <= MaxActorIDLength {
				ctx = requestcontext.WithActor(ctx, actorID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

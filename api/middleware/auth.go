package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/commercegrid/acp-checkout-backend/api/responses"
	pkgauth "github.com/commercegrid/acp-checkout-backend/pkg/auth"
	"github.com/commercegrid/acp-checkout-backend/pkg/config"
	pkgerrors "github.com/commercegrid/acp-checkout-backend/pkg/errors"
	"github.com/commercegrid/acp-checkout-backend/pkg/logger"
)

// Auth validates a bearer credential and seeds the request context with the
// calling client's name. Either the static shared token or an HS256 JWT is
// accepted, depending on what the deployment configured. With neither
// configured, dev deployments log a warning and let the request through;
// everywhere else the request is rejected.
func Auth(cfg config.AuthConfig, isDev bool, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cfg.Configured() {
				if !isDev {
					responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "auth not configured"))
					return
				}
				if logg != nil {
					logg.Warn(r.Context(), "auth not configured, allowing request in dev")
				}
				next.ServeHTTP(w, r)
				return
			}

			token := bearerToken(r)
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			if staticToken := strings.TrimSpace(cfg.Token); staticToken != "" {
				if subtle.ConstantTimeCompare([]byte(token), []byte(staticToken)) == 1 {
					next.ServeHTTP(w, r)
					return
				}
			}

			if strings.TrimSpace(cfg.JWTSecret) != "" {
				claims, err := pkgauth.ParseClientToken(cfg, token)
				if err == nil {
					ctx := context.WithValue(r.Context(), ctxClientName, claims.ClientName)
					if logg != nil && claims.ClientName != "" {
						ctx = logg.WithField(ctx, "client", claims.ClientName)
					}
					next.ServeHTTP(w, r.WithContext(ctx))
					return
				}
			}

			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials"))
		})
	}
}

func bearerToken(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(raw), "bearer ") {
		return strings.TrimSpace(raw[7:])
	}
	return raw
}

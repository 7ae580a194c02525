package authhandlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	authdomain "github.com/Black-And-White-Club/caddie/app/modules/auth/domain"
	authjwt "github.com/Black-And-White-Club/caddie/app/modules/auth/infrastructure/jwt"
	"github.com/google/uuid"
)

type claimsKey struct{}

// WithClaims stores validated claims on ctx.
func WithClaims(ctx context.Context, claims *authdomain.Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}

// ClaimsFromContext returns the claims stored by BearerAuth.
func ClaimsFromContext(ctx context.Context) (*authdomain.Claims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(*authdomain.Claims)
	return claims, ok && claims != nil
}

// UserIDFromContext returns the authenticated player's id.
func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	if claims, ok := ClaimsFromContext(ctx); ok {
		return claims.UserID, true
	}
	return uuid.Nil, false
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// BearerAuth admits requests carrying a valid player token and stores its
// claims on the request context.
func BearerAuth(provider authjwt.Provider, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				w.Header().Set("WWW-Authenticate", `Bearer realm="caddie"`)
				reject(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
				return
			}

			claims, err := provider.ValidateToken(token)
			if err != nil {
				logger.DebugContext(r.Context(), "Rejected bearer token",
					slog.String("path", r.URL.Path),
					slog.Any("error", err),
				)
				w.Header().Set("WWW-Authenticate", `Bearer realm="caddie", error="invalid_token"`)
				reject(w, http.StatusUnauthorized, "unauthorized", "invalid bearer token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

package middlewares

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/rangkeep/rangs/internal/model"
	"github.com/rangkeep/rangs/internal/utils/auth"
)

func Authentication(secret []byte, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		authFunc := func(w http.ResponseWriter, r *http.Request) {
			tokenStr := tokenFromRequest(r)
			if tokenStr == "" {
				log.LogAttrs(r.Context(),
					slog.LevelError,
					"failed to find token in request",
				)
				http.Error(w, "authentication failed", http.StatusUnauthorized)
				return
			}

			claims, err := auth.CheckToken(tokenStr, secret)
			if err != nil {
				log.LogAttrs(r.Context(),
					slog.LevelError,
					"authentication failed",
					slog.Any(model.KeyLoggerError, err),
				)
				http.Error(w, "authentication failed", http.StatusUnauthorized)
				return
			}

			idCtx := context.WithValue(
				r.Context(), model.KeyContextUserID, claims.UserID)
			next.ServeHTTP(w, r.WithContext(idCtx))
		}
		return http.HandlerFunc(authFunc)
	}
}

func tokenFromRequest(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		if token, found := strings.CutPrefix(header, "Bearer "); found {
			return token
		}
	}
	if jwtCookie, err := r.Cookie("jwt-token"); err == nil {
		return jwtCookie.Value
	}
	return ""
}

// UserID extracts the authenticated user set by Authentication.
func UserID(ctx context.Context) string {
	idRaw := ctx.Value(model.KeyContextUserID)
	if id, ok := idRaw.(string); ok {
		return id
	}
	return ""
}

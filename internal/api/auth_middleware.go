package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/eventosumss/api/internal/auth"
	"github.com/eventosumss/api/internal/middleware"
)

// RequireAuth returns a middleware that enforces bearer token
// authentication. Requests without a valid token are rejected with 401;
// there is no anonymous fallback. On success the authenticated user id
// and email are placed in the request context.
func RequireAuth(tokens *auth.TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				ctx := middleware.SetErrorCode(r.Context(), ErrCodeAuthFailed)
				WriteError(w, ctx, http.StatusUnauthorized, ErrCodeAuthFailed, "falta el encabezado Authorization")
				return
			}

			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				ctx := middleware.SetErrorCode(r.Context(), ErrCodeAuthFailed)
				WriteError(w, ctx, http.StatusUnauthorized, ErrCodeAuthFailed, "el encabezado Authorization debe usar el esquema Bearer")
				return
			}

			claims, err := tokens.Validate(token)
			if err != nil {
				ctx := middleware.SetErrorCode(r.Context(), ErrCodeAuthFailed)
				WriteError(w, ctx, http.StatusUnauthorized, ErrCodeAuthFailed, "token inválido o expirado")
				return
			}

			userID, err := strconv.ParseInt(claims.Subject, 10, 64)
			if err != nil || userID <= 0 {
				ctx := middleware.SetErrorCode(r.Context(), ErrCodeAuthFailed)
				WriteError(w, ctx, http.StatusUnauthorized, ErrCodeAuthFailed, "token inválido o expirado")
				return
			}

			ctx := middleware.SetUserID(r.Context(), userID)
			ctx = middleware.SetUserEmail(ctx, claims.Email)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

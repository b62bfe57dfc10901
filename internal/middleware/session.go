package middleware

import (
	"net/http"

	"shopsearch-be/internal/auth"
	"shopsearch-be/internal/logger"
	"shopsearch-be/internal/shop"

	"go.uber.org/zap"
)

// Session attaches the tenant session when the request carries a valid
// session token. Requests without one pass through unauthenticated.
func Session(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := auth.ExtractSessionToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := auth.ParseSession(token, secret)
			if err != nil {
				logger.FromCtx(r.Context()).Debug("ignoring session token", zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}

			ctx := shop.WithSession(r.Context(), shop.Session{
				Shop:        claims.Shop,
				AccessToken: claims.AccessToken,
			})
			ctx = logger.WithShop(ctx, claims.Shop)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

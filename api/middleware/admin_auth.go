package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/rushikeshnagarkar/balutedaar-app/api/responses"
	pkgauth "github.com/rushikeshnagarkar/balutedaar-app/pkg/auth"
	"github.com/rushikeshnagarkar/balutedaar-app/pkg/config"
	pkgerrors "github.com/rushikeshnagarkar/balutedaar-app/pkg/errors"
	"github.com/rushikeshnagarkar/balutedaar-app/pkg/logger"
)

type ctxKey string

const ctxAdminUser ctxKey = "admin_user"

// AdminAuth validates the bearer token on admin routes and seeds the
// context with the admin username.
func AdminAuth(cfg config.AdminConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			token := raw
			if strings.HasPrefix(strings.ToLower(token), "bearer ") {
				token = strings.TrimSpace(token[7:])
			}
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgauth.ParseAdminToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			ctx := context.WithValue(r.Context(), ctxAdminUser, claims.Username)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminUser extracts the authenticated admin username from the context.
func AdminUser(ctx context.Context) string {
	user, _ := ctx.Value(ctxAdminUser).(string)
	return user
}

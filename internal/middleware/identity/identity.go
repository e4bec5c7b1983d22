// Package identity authenticates requests from a bearer token or the
// session cookie and carries the caller in the request context.
package identity

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"financas/internal/auth"
)

// CookieName is the httpOnly cookie set at login.
const CookieName = "token"

type contextKey struct{}

// TokenParser verifies a raw token.
type TokenParser interface {
	Parse(raw string) (auth.Identity, error)
}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id auth.Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext returns the authenticated caller, if any.
func FromContext(ctx context.Context) (auth.Identity, bool) {
	id, ok := ctx.Value(contextKey{}).(auth.Identity)
	return id, ok
}

// TokenFromRequest reads "Authorization: Bearer <t>" first, then the cookie.
func TokenFromRequest(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	if cookie, err := r.Cookie(CookieName); err == nil {
		return cookie.Value
	}
	return ""
}

// Middleware rejects requests without a valid token. onFail writes the
// response; nil falls back to a plain 401.
func Middleware(parser TokenParser, onFail func(http.ResponseWriter, *http.Request, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := parser.Parse(TokenFromRequest(r))
			if err != nil {
				slog.DebugContext(r.Context(), "Request not authenticated",
					"component", "auth",
					"path", r.URL.Path,
					"error", err)
				if onFail != nil {
					onFail(w, r, err)
				} else {
					http.Error(w, "Unauthorized", http.StatusUnauthorized)
				}
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

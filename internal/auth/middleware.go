package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/getsentry/sentry-go"
)

type principalKey struct{}

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header. Any other shape yields "", which the gate rejects exactly like an
// invalid token.
func BearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func Middleware(gate *AccessGate, level Level, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, err := gate.Authorize(r.Context(), BearerToken(r), level)
		if err != nil {
			switch {
			case errors.Is(err, ErrUnauthenticated):
				writeUnauthorized(w, ErrUnauthenticated.Error())
			case errors.Is(err, ErrForbidden):
				writeError(w, http.StatusForbidden, ErrForbidden.Error())
			default:
				sentry.CaptureException(err)
				writeError(w, http.StatusInternalServerError, "failed to authorize request")
			}
			return
		}

		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
	})
}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

package auth

import (
	"context"
	"net/http"
	"strings"
)

type identityKey struct{}
type tokenKey struct{}

// WithIdentity stores a validated identity in the context.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the validated identity for this request, if
// any.
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(*Identity)
	return id, ok
}

// TokenFromContext returns the raw bearer token that produced the identity.
func TokenFromContext(ctx context.Context) (string, bool) {
	t, ok := ctx.Value(tokenKey{}).(string)
	return t, ok
}

// Middleware extracts the bearer credential, validates it (signature,
// expiry, revocation record) and attaches the identity to the request
// context. Requests without a valid credential pass through
// unauthenticated; individual handlers decide whether that is acceptable.
func (s *Service) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token := bearerToken(r); token != "" {
			if id, err := s.Validate(r.Context(), token); err == nil {
				ctx := WithIdentity(r.Context(), id)
				ctx = context.WithValue(ctx, tokenKey{}, token)
				r = r.WithContext(ctx)
			}
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if h == "" {
		return ""
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

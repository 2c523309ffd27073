package middleware

import (
	"context"
	"net/http"

	"gravizot/internal/model"
	"gravizot/internal/session"
)

type accessVerifier interface {
	VerifyAccess(tokenString string) (*model.AccessClaims, error)
}

type contextKey string

const accessClaimsContextKey contextKey = "access_claims"

// AuthMiddleware gates handlers on a valid access cookie. The cookie is the
// only accepted credential carrier; there is no Authorization header path.
type AuthMiddleware struct {
	verifier accessVerifier
}

func NewAuthMiddleware(verifier accessVerifier) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier}
}

func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(session.AccessCookie)
		if err != nil || cookie.Value == "" {
			writeErrorJSON(w, http.StatusUnauthorized, "UNAUTHORIZED", "not authenticated")
			return
		}

		claims, err := m.verifier.VerifyAccess(cookie.Value)
		if err != nil {
			writeErrorJSON(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), accessClaimsContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func ClaimsFromContext(ctx context.Context) (*model.AccessClaims, bool) {
	claims, ok := ctx.Value(accessClaimsContextKey).(*model.AccessClaims)
	return claims, ok
}

package middleware

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"log/slog"
	"net/http"

	"gravizot/internal/session"
)

// CSRFHeader is the request header that must echo the csrfToken cookie on
// every mutating request (double-submit pattern).
const CSRFHeader = "X-CSRF-Token"

const csrfTokenBytes = 24

// CSRFMiddleware plants a readable random token cookie on safe requests and
// validates the echoed header on mutating ones. Each accepted mutation
// rotates the token, so a captured header alone cannot be replayed.
type CSRFMiddleware struct {
	cookies *session.Manager
}

func NewCSRFMiddleware(cookies *session.Manager) *CSRFMiddleware {
	return &CSRFMiddleware{cookies: cookies}
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

// Ensure plants the CSRF cookie on safe requests when absent. Always proceeds.
func (m *CSRFMiddleware) Ensure(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isSafeMethod(r.Method) {
			if _, err := r.Cookie(session.CSRFCookie); err != nil {
				m.plant(w)
			}
		}
		next.ServeHTTP(w, r)
	})
}

// Require rejects mutating requests whose CSRF header does not match the
// cookie byte for byte. The request never reaches the handler on mismatch.
func (m *CSRFMiddleware) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isSafeMethod(r.Method) {
			next.ServeHTTP(w, r)
			return
		}

		header := r.Header.Get(CSRFHeader)
		cookie, err := r.Cookie(session.CSRFCookie)
		if err != nil || header == "" ||
			subtle.ConstantTimeCompare([]byte(header), []byte(cookie.Value)) != 1 {
			writeErrorJSON(w, http.StatusForbidden, "FORBIDDEN", "bad CSRF token")
			return
		}

		// Rotate after a successful validation so the accepted value
		// cannot be submitted twice.
		m.plant(w)
		next.ServeHTTP(w, r)
	})
}

func (m *CSRFMiddleware) plant(w http.ResponseWriter) {
	buf := make([]byte, csrfTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		slog.Error("csrf token generation failed", "error", err)
		return
	}
	m.cookies.SetCSRF(w, base64.RawURLEncoding.EncodeToString(buf))
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"gravizot/internal/session"
)

func newCSRF() *CSRFMiddleware {
	cookies := session.NewManager("", http.SameSiteLaxMode, false, 15*time.Minute, time.Hour)
	return NewCSRFMiddleware(cookies)
}

func csrfCookieFrom(res *http.Response) *http.Cookie {
	for _, c := range res.Cookies() {
		if c.Name == session.CSRFCookie {
			return c
		}
	}
	return nil
}

func okHandler(called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
	})
}

func TestEnsurePlantsCookieOnSafeRequest(t *testing.T) {
	m := newCSRF()
	var called bool

	rec := httptest.NewRecorder()
	m.Ensure(okHandler(&called)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.True(t, called)
	planted := csrfCookieFrom(rec.Result())
	require.NotNil(t, planted)
	require.NotEmpty(t, planted.Value)
	require.False(t, planted.HttpOnly)
}

func TestEnsureLeavesExistingCookieAlone(t *testing.T) {
	m := newCSRF()
	var called bool

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: session.CSRFCookie, Value: "existing"})
	rec := httptest.NewRecorder()
	m.Ensure(okHandler(&called)).ServeHTTP(rec, req)

	require.True(t, called)
	require.Nil(t, csrfCookieFrom(rec.Result()))
}

func TestRequireRejectsMissingOrMismatchedHeader(t *testing.T) {
	m := newCSRF()

	cases := map[string]func(r *http.Request){
		"no header, no cookie": func(*http.Request) {},
		"no header": func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: session.CSRFCookie, Value: "tok"})
		},
		"mismatched header": func(r *http.Request) {
			r.AddCookie(&http.Cookie{Name: session.CSRFCookie, Value: "tok"})
			r.Header.Set(CSRFHeader, "other")
		},
		"header without cookie": func(r *http.Request) {
			r.Header.Set(CSRFHeader, "tok")
		},
	}

	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodDelete} {
		for name, apply := range cases {
			var called bool
			req := httptest.NewRequest(method, "/", nil)
			apply(req)
			rec := httptest.NewRecorder()
			m.Require(okHandler(&called)).ServeHTTP(rec, req)

			require.False(t, called, "%s %s reached handler", method, name)
			require.Equal(t, http.StatusForbidden, rec.Code, "%s %s", method, name)
		}
	}
}

func TestRequireAcceptsMatchAndRotates(t *testing.T) {
	m := newCSRF()
	var called bool

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.AddCookie(&http.Cookie{Name: session.CSRFCookie, Value: "tok"})
	req.Header.Set(CSRFHeader, "tok")
	rec := httptest.NewRecorder()
	m.Require(okHandler(&called)).ServeHTTP(rec, req)

	require.True(t, called)
	require.Equal(t, http.StatusOK, rec.Code)

	rotated := csrfCookieFrom(rec.Result())
	require.NotNil(t, rotated)
	require.NotEqual(t, "tok", rotated.Value)
}

func TestRequireSkipsSafeMethods(t *testing.T) {
	m := newCSRF()
	var called bool

	rec := httptest.NewRecorder()
	m.Require(okHandler(&called)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	require.True(t, called)
	require.Equal(t, http.StatusOK, rec.Code)
}

//go:build integration

package integration

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"gravizot/internal/config"
	"gravizot/internal/handler"
	"gravizot/internal/middleware"
	"gravizot/internal/repository"
	"gravizot/internal/router"
	"gravizot/internal/service"
	"gravizot/internal/session"
	"gravizot/internal/token"
)

// testBackend is the full HTTP stack wired onto in-memory repositories, so
// the suite runs without Postgres or SMTP.
type testBackend struct {
	server   *httptest.Server
	users    *repository.MemoryUserRepository
	tokens   *repository.MemoryTokenRepository
	contacts *repository.MemoryContactRepository
}

type backendOptions struct {
	cfg  *config.Config
	wrap func(http.Handler) http.Handler
}

type backendOption func(*backendOptions)

func withAccessTTL(ttl time.Duration) backendOption {
	return func(o *backendOptions) { o.cfg.AccessTTL = ttl }
}

// withWrapper interposes on the whole HTTP stack, e.g. to count calls to a
// particular route.
func withWrapper(wrap func(http.Handler) http.Handler) backendOption {
	return func(o *backendOptions) { o.wrap = wrap }
}

func newTestBackend(t *testing.T, opts ...backendOption) *testBackend {
	t.Helper()

	cfg := &config.Config{
		Env:              "test",
		RequestTimeout:   10 * time.Second,
		JWTSecret:        "integration-test-secret",
		AccessTTL:        15 * time.Minute,
		RefreshTTL:       168 * time.Hour,
		CSRFTTL:          time.Hour,
		BcryptCost:       10,
		CookieSameSite:   http.SameSiteLaxMode,
		CORSOrigins:      []string{"http://localhost:4200"},
		RateLimitRPM:     10000,
		AuthRateLimitRPM: 10000,
	}
	options := &backendOptions{cfg: cfg}
	for _, opt := range opts {
		opt(options)
	}

	users := repository.NewMemoryUserRepository()
	tokens := repository.NewMemoryTokenRepository()
	contacts := repository.NewMemoryContactRepository()

	codec := token.NewCodec(cfg.JWTSecret, cfg.AccessTTL)
	refreshStore := service.NewRefreshStore(tokens, cfg.RefreshTTL)
	authService := service.NewAuthService(users, refreshStore, codec, cfg.BcryptCost)
	contactService := service.NewContactService(contacts, nil, "", "", "gravizot")

	cookies := session.NewManager(cfg.CookieDomain, cfg.CookieSameSite, false, cfg.AccessTTL, cfg.CSRFTTL)

	h := router.Handlers{
		Auth:    handler.NewAuthHandler(authService, cookies),
		User:    handler.NewUserHandler(authService),
		Contact: handler.NewContactHandler(contactService),
	}
	var mux http.Handler = router.New(cfg, middleware.NewAuthMiddleware(authService), middleware.NewCSRFMiddleware(cookies), h)
	if options.wrap != nil {
		mux = options.wrap(mux)
	}

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return &testBackend{server: server, users: users, tokens: tokens, contacts: contacts}
}

// browser is a raw cookie-carrying caller used where the tests need to see
// the wire itself (status codes, Set-Cookie attributes) rather than go
// through pkg/client.
type browser struct {
	t    *testing.T
	base string
	http *http.Client
}

func newBrowser(t *testing.T, backend *testBackend) *browser {
	t.Helper()

	jar := newJar(t)
	return &browser{
		t:    t,
		base: backend.server.URL,
		http: &http.Client{Jar: jar, Timeout: 10 * time.Second},
	}
}

func newJar(t *testing.T) http.CookieJar {
	t.Helper()

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return jar
}

func (b *browser) do(method string, path string, body any, headers map[string]string) *http.Response {
	b.t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(b.t, err)
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequest(method, b.base+path, reader)
	require.NoError(b.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := b.http.Do(req)
	require.NoError(b.t, err)
	b.t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

// csrfToken ensures a CSRF cookie is planted and returns the jar's current
// value. The middleware only sets the cookie when the jar lacks one, so the
// response itself may carry no Set-Cookie at all.
func (b *browser) csrfToken() string {
	b.t.Helper()

	resp := b.do(http.MethodGet, "/api/auth/csrf", nil, nil)
	require.Equal(b.t, http.StatusOK, resp.StatusCode)

	base, err := url.Parse(b.base)
	require.NoError(b.t, err)
	for _, cookie := range b.http.Jar.Cookies(base) {
		if cookie.Name == "csrfToken" {
			return cookie.Value
		}
	}
	b.t.Fatal("csrfToken cookie missing after csrf endpoint call")
	return ""
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func findCookie(resp *http.Response, name string) *http.Cookie {
	for _, cookie := range resp.Cookies() {
		if cookie.Name == name {
			return cookie
		}
	}
	return nil
}

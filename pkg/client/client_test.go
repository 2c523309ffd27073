package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeAPI is a minimal stand-in for the real server: cookie-based session
// with a single "fresh" access value, a counting refresh endpoint, and one
// protected resource.
type fakeAPI struct {
	mux *http.ServeMux

	refreshCalls atomic.Int64
	refreshDelay time.Duration
	refreshFails atomic.Bool

	csrfProbes atomic.Int64
	meProbes   atomic.Int64
}

// handle registers h for method+path. The Go 1.22+ "METHOD /path" ServeMux
// patterns are not available on the Go 1.21 toolchain this builds with, so
// the method guard is explicit.
func (api *fakeAPI) handle(method, path string, h http.HandlerFunc) {
	api.mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}
		h(w, r)
	})
}

func newFakeAPI() *fakeAPI {
	api := &fakeAPI{mux: http.NewServeMux()}

	api.handle(http.MethodGet, "/api/auth/csrf", func(w http.ResponseWriter, r *http.Request) {
		api.csrfProbes.Add(1)
		http.SetCookie(w, &http.Cookie{Name: "csrfToken", Value: "csrf-1", Path: "/"})
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	api.handle(http.MethodPost, "/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "at", Value: "fresh", Path: "/", HttpOnly: true})
		http.SetCookie(w, &http.Cookie{Name: "rt", Value: "refresh-1", Path: "/", HttpOnly: true})
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "user": fakeUser()})
	})

	api.handle(http.MethodPost, "/api/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "at", Value: "", Path: "/", MaxAge: -1})
		http.SetCookie(w, &http.Cookie{Name: "rt", Value: "", Path: "/", MaxAge: -1})
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	api.handle(http.MethodPost, "/api/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		api.refreshCalls.Add(1)
		if api.refreshDelay > 0 {
			time.Sleep(api.refreshDelay)
		}
		if api.refreshFails.Load() {
			writeJSON(w, http.StatusUnauthorized, map[string]any{
				"ok":    false,
				"error": map[string]string{"code": "UNAUTHORIZED", "message": "invalid refresh token"},
			})
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "at", Value: "fresh", Path: "/", HttpOnly: true})
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	api.handle(http.MethodGet, "/api/auth/me", func(w http.ResponseWriter, r *http.Request) {
		api.meProbes.Add(1)
		api.requireFresh(w, r, func() {
			writeJSON(w, http.StatusOK, map[string]any{"ok": true, "user": fakeUser()})
		})
	})

	api.handle(http.MethodGet, "/api/data", func(w http.ResponseWriter, r *http.Request) {
		api.requireFresh(w, r, func() {
			writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		})
	})

	api.handle(http.MethodPut, "/api/users/me", func(w http.ResponseWriter, r *http.Request) {
		api.requireFresh(w, r, func() {
			if r.Header.Get(CSRFHeader) == "" {
				writeJSON(w, http.StatusForbidden, map[string]any{
					"ok":    false,
					"error": map[string]string{"code": "FORBIDDEN", "message": "bad CSRF token"},
				})
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"ok": true, "user": fakeUser()})
		})
	})

	return api
}

func (api *fakeAPI) requireFresh(w http.ResponseWriter, r *http.Request, then func()) {
	cookie, err := r.Cookie("at")
	if err != nil || cookie.Value != "fresh" {
		writeJSON(w, http.StatusUnauthorized, map[string]any{
			"ok":    false,
			"error": map[string]string{"code": "UNAUTHORIZED", "message": "invalid token"},
		})
		return
	}
	then()
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func fakeUser() map[string]any {
	return map[string]any{
		"id":          "u-1",
		"email":       "a@example.com",
		"is_verified": false,
		"created_at":  time.Now().UTC(),
		"updated_at":  time.Now().UTC(),
	}
}

func newTestClient(t *testing.T, api *fakeAPI) *Client {
	t.Helper()

	server := httptest.NewServer(api.mux)
	t.Cleanup(server.Close)

	c, err := New(server.URL)
	require.NoError(t, err)
	return c
}

func TestBootstrapEstablishesSession(t *testing.T) {
	api := newFakeAPI()
	c := newTestClient(t, api)

	ctx := context.Background()
	_, err := c.Login(ctx, "a@example.com", "password123")
	require.NoError(t, err)

	c.Bootstrap(ctx)

	require.True(t, c.LoggedIn())
	user, ok := c.CurrentUser()
	require.True(t, ok)
	require.Equal(t, "a@example.com", user.Email)
	require.GreaterOrEqual(t, api.csrfProbes.Load(), int64(1))
}

func TestBootstrapAnonymousNeverRefreshes(t *testing.T) {
	api := newFakeAPI()
	c := newTestClient(t, api)

	c.Bootstrap(context.Background())

	require.False(t, c.LoggedIn())
	_, ok := c.CurrentUser()
	require.False(t, ok)
	require.Equal(t, int64(0), api.refreshCalls.Load(), "bootstrap probe must not trigger refresh")
}

func TestRefreshRetryOn401(t *testing.T) {
	api := newFakeAPI()
	c := newTestClient(t, api)

	ctx := context.Background()
	_, err := c.Login(ctx, "a@example.com", "password123")
	require.NoError(t, err)

	// Simulate access expiry by poisoning the jar's at cookie.
	expireAccessCookie(t, c)

	user, err := c.Me(ctx)
	require.NoError(t, err)
	require.Equal(t, "a@example.com", user.Email)
	require.Equal(t, int64(1), api.refreshCalls.Load())
}

func TestRefreshSingleFlight(t *testing.T) {
	api := newFakeAPI()
	api.refreshDelay = 200 * time.Millisecond
	c := newTestClient(t, api)

	ctx := context.Background()
	_, err := c.Login(ctx, "a@example.com", "password123")
	require.NoError(t, err)

	expireAccessCookie(t, c)

	const concurrency = 10
	var wg sync.WaitGroup
	errs := make([]error, concurrency)
	start := make(chan struct{})

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			req, err := c.newRequest(ctx, http.MethodGet, "/api/data", nil)
			if err != nil {
				errs[i] = err
				return
			}
			resp, err := c.http.Do(req)
			if err != nil {
				errs[i] = err
				return
			}
			resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				errs[i] = &APIError{Status: resp.StatusCode}
			}
		}(i)
	}
	close(start)
	wg.Wait()

	for i, err := range errs {
		require.NoError(t, err, "request %d", i)
	}
	require.Equal(t, int64(1), api.refreshCalls.Load(), "concurrent 401s must share one refresh")
}

func TestRefreshFailureClearsSessionAndSurfaces401(t *testing.T) {
	api := newFakeAPI()
	c := newTestClient(t, api)

	ctx := context.Background()
	_, err := c.Login(ctx, "a@example.com", "password123")
	require.NoError(t, err)
	require.True(t, c.LoggedIn())

	expireAccessCookie(t, c)
	api.refreshFails.Store(true)

	_, err = c.Me(ctx)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusUnauthorized, apiErr.Status)
	require.False(t, c.LoggedIn(), "failed refresh must clear local state")
	require.Equal(t, int64(1), api.refreshCalls.Load())
}

func TestMutationCarriesCSRFHeader(t *testing.T) {
	api := newFakeAPI()
	c := newTestClient(t, api)

	ctx := context.Background()
	c.Bootstrap(ctx)
	_, err := c.Login(ctx, "a@example.com", "password123")
	require.NoError(t, err)

	name := "Ada"
	user, err := c.UpdateProfile(ctx, &name, nil, nil)
	require.NoError(t, err)
	require.Equal(t, "u-1", user.ID)
}

// expireAccessCookie overwrites the jar's access cookie with a stale value,
// the same shape the client sees when the server-side TTL lapses.
func expireAccessCookie(t *testing.T, c *Client) {
	t.Helper()
	c.http.Jar.SetCookies(c.base, []*http.Cookie{{Name: "at", Value: "stale", Path: "/"}})
}

//go:build integration

package integration

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMutationWithoutCSRFRejected(t *testing.T) {
	backend := newTestBackend(t)
	b := newBrowser(t, backend)

	// Plant the cookie but send no header.
	b.csrfToken()

	creds := map[string]string{"email": "a@x.com", "password": "password123"}
	resp := b.do(http.MethodPost, "/api/auth/signup", creds, nil)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	body := decodeBody(t, resp)
	require.Equal(t, false, body["ok"])

	exists, err := backend.users.ExistsByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	require.False(t, exists, "rejected signup must not create the user")
}

func TestMutationWithMismatchedCSRFRejected(t *testing.T) {
	backend := newTestBackend(t)
	b := newBrowser(t, backend)

	b.csrfToken()

	creds := map[string]string{"email": "a@x.com", "password": "password123"}
	resp := b.do(http.MethodPost, "/api/auth/signup", creds, map[string]string{"X-CSRF-Token": "forged-value"})
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestMutationWithoutCookieRejected(t *testing.T) {
	backend := newTestBackend(t)
	b := newBrowser(t, backend)

	// No prior safe request, so no cookie in the jar; a header alone fails
	// the double-submit check.
	creds := map[string]string{"email": "a@x.com", "password": "password123"}
	resp := b.do(http.MethodPost, "/api/auth/signup", creds, map[string]string{"X-CSRF-Token": "orphan-value"})
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestCSRFRotatesAfterMutation(t *testing.T) {
	backend := newTestBackend(t)
	b := newBrowser(t, backend)

	before := b.csrfToken()

	creds := map[string]string{"email": "a@x.com", "password": "password123"}
	resp := b.do(http.MethodPost, "/api/auth/signup", creds, map[string]string{"X-CSRF-Token": before})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	rotated := findCookie(resp, "csrfToken")
	require.NotNil(t, rotated, "a successful mutation must rotate the CSRF cookie")
	require.NotEqual(t, before, rotated.Value)

	// The consumed value no longer passes.
	replay := b.do(http.MethodPost, "/api/auth/logout", nil, map[string]string{"X-CSRF-Token": before})
	require.Equal(t, http.StatusForbidden, replay.StatusCode)

	ok := b.do(http.MethodPost, "/api/auth/logout", nil, map[string]string{"X-CSRF-Token": rotated.Value})
	require.Equal(t, http.StatusOK, ok.StatusCode)
}

func TestSafeMethodsNeedNoCSRF(t *testing.T) {
	backend := newTestBackend(t)
	b := newBrowser(t, backend)

	resp := b.do(http.MethodGet, "/api/auth/me", nil, nil)
	// Unauthorized because there is no session, not forbidden; the CSRF
	// guard must not touch safe methods.
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

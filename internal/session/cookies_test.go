package session

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func findCookie(t *testing.T, cookies []*http.Cookie, name string) *http.Cookie {
	t.Helper()
	for _, c := range cookies {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("cookie %q not set", name)
	return nil
}

func TestSetSessionWritesHttpOnlyPair(t *testing.T) {
	m := NewManager("", http.SameSiteLaxMode, false, 15*time.Minute, time.Hour)

	rec := httptest.NewRecorder()
	m.SetSession(rec, "access-token", "refresh-token", time.Now().Add(7*24*time.Hour))

	cookies := rec.Result().Cookies()
	at := findCookie(t, cookies, AccessCookie)
	rt := findCookie(t, cookies, RefreshCookie)

	require.Equal(t, "access-token", at.Value)
	require.True(t, at.HttpOnly)
	require.Equal(t, int((15 * time.Minute).Seconds()), at.MaxAge)
	require.Equal(t, "/", at.Path)

	require.Equal(t, "refresh-token", rt.Value)
	require.True(t, rt.HttpOnly)
	require.Greater(t, rt.MaxAge, at.MaxAge)
}

func TestClearSessionMatchesSetAttributes(t *testing.T) {
	m := NewManager("example.com", http.SameSiteStrictMode, true, 15*time.Minute, time.Hour)

	set := httptest.NewRecorder()
	m.SetSession(set, "a", "r", time.Now().Add(time.Hour))
	clear := httptest.NewRecorder()
	m.ClearSession(clear)

	setCookies := set.Result().Cookies()
	for _, cleared := range clear.Result().Cookies() {
		planted := findCookie(t, setCookies, cleared.Name)
		require.Equal(t, planted.Path, cleared.Path)
		require.Equal(t, planted.Domain, cleared.Domain)
		require.Equal(t, planted.Secure, cleared.Secure)
		require.Equal(t, planted.HttpOnly, cleared.HttpOnly)
		require.Equal(t, planted.SameSite, cleared.SameSite)
		require.Equal(t, -1, cleared.MaxAge)
		require.Empty(t, cleared.Value)
	}
}

func TestCSRFCookieIsReadable(t *testing.T) {
	m := NewManager("", http.SameSiteLaxMode, false, 15*time.Minute, time.Hour)

	rec := httptest.NewRecorder()
	m.SetCSRF(rec, "csrf-value")

	c := findCookie(t, rec.Result().Cookies(), CSRFCookie)
	require.False(t, c.HttpOnly)
	require.Equal(t, "csrf-value", c.Value)
	require.Equal(t, int(time.Hour.Seconds()), c.MaxAge)
}

// Package session maps issued tokens onto the browser cookie surface.
package session

import (
	"net/http"
	"time"
)

const (
	AccessCookie  = "at"
	RefreshCookie = "rt"
	CSRFCookie    = "csrfToken"
)

// Manager writes and clears the session cookie pair plus the readable CSRF
// cookie. Set and clear use the identical attribute set; browsers silently
// ignore a clear whose attributes differ from the plant.
type Manager struct {
	domain    string
	sameSite  http.SameSite
	secure    bool
	accessTTL time.Duration
	csrfTTL   time.Duration
}

func NewManager(domain string, sameSite http.SameSite, secure bool, accessTTL time.Duration, csrfTTL time.Duration) *Manager {
	return &Manager{
		domain:    domain,
		sameSite:  sameSite,
		secure:    secure,
		accessTTL: accessTTL,
		csrfTTL:   csrfTTL,
	}
}

func (m *Manager) base(httpOnly bool) http.Cookie {
	return http.Cookie{
		Path:     "/",
		Domain:   m.domain,
		HttpOnly: httpOnly,
		SameSite: m.sameSite,
		Secure:   m.secure,
	}
}

// SetSession writes both HttpOnly cookies: the access cookie lives as long as
// the access token, the refresh cookie as long as the supplied expiry.
func (m *Manager) SetSession(w http.ResponseWriter, accessToken string, refreshToken string, refreshExpiresAt time.Time) {
	access := m.base(true)
	access.Name = AccessCookie
	access.Value = accessToken
	access.MaxAge = int(m.accessTTL.Seconds())
	http.SetCookie(w, &access)

	refresh := m.base(true)
	refresh.Name = RefreshCookie
	refresh.Value = refreshToken
	refresh.MaxAge = int(time.Until(refreshExpiresAt).Seconds())
	http.SetCookie(w, &refresh)
}

func (m *Manager) ClearSession(w http.ResponseWriter) {
	for _, name := range []string{AccessCookie, RefreshCookie} {
		c := m.base(true)
		c.Name = name
		c.Value = ""
		c.MaxAge = -1
		http.SetCookie(w, &c)
	}
}

// SetCSRF plants the double-submit token. Not HttpOnly: the client must be
// able to read it back into the X-CSRF-Token header.
func (m *Manager) SetCSRF(w http.ResponseWriter, token string) {
	c := m.base(false)
	c.Name = CSRFCookie
	c.Value = token
	c.MaxAge = int(m.csrfTTL.Seconds())
	http.SetCookie(w, &c)
}

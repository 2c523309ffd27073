// Package client is a Go consumer of the gravizot session API. It mirrors
// what the browser app does: cookie-carried credentials, a CSRF echo header
// on mutations, and a silent single-flight refresh-and-retry on 401.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"
)

const (
	// CSRFHeader echoes the csrfToken cookie on mutating requests.
	CSRFHeader = "X-CSRF-Token"
	// BootstrapHeader marks the startup probe so a 401 from it never
	// triggers the refresh coordinator.
	BootstrapHeader = "X-Auth-Bootstrap"

	csrfCookieName = "csrfToken"
	authPathPrefix = "/api/auth/"
)

type User struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	FullName    *string    `json:"full_name"`
	Locale      *string    `json:"locale"`
	TimeZone    *string    `json:"time_zone"`
	IsVerified  bool       `json:"is_verified"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	LastLoginAt *time.Time `json:"last_login_at"`
}

type apiEnvelope struct {
	OK    bool  `json:"ok"`
	User  *User `json:"user"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// APIError is a non-2xx response decoded from the server envelope.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d %s: %s", e.Status, e.Code, e.Message)
}

// Client holds one session's state. It is an explicit object with a
// constructor rather than package-level globals, so two clients never share
// cookies or login state.
type Client struct {
	base *url.URL
	http *http.Client

	mu       sync.RWMutex
	user     *User
	loggedIn bool
}

func New(baseURL string) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	c := &Client{base: base}
	coordinator := newRefreshCoordinator(c)

	// Explicit, ordered middleware composition: index 0 is outermost.
	// Credentials/CSRF attachment sits innermost so a retried request is
	// re-signed with whatever the jar holds after the refresh.
	chain := []Middleware{
		refreshRetry(coordinator, c.clearSession),
		credentials(jar, base),
	}

	c.http = &http.Client{
		Jar:       jar,
		Transport: Chain(http.DefaultTransport, chain...),
		Timeout:   30 * time.Second,
	}

	return c, nil
}

// CurrentUser returns the locally known user, if any.
func (c *Client) CurrentUser() (User, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.user == nil {
		return User{}, false
	}
	return *c.user, true
}

func (c *Client) LoggedIn() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loggedIn
}

func (c *Client) setSession(u User) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.user = &u
	c.loggedIn = true
}

func (c *Client) clearSession() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.user = nil
	c.loggedIn = false
}

// Bootstrap warms up a fresh client: plant the CSRF cookie, then probe the
// session. Both probes carry the bootstrap marker and both outcomes are
// terminal; bootstrap never fails to its caller.
func (c *Client) Bootstrap(ctx context.Context) {
	probe := func(path string) (*apiEnvelope, error) {
		req, err := c.newRequest(ctx, http.MethodGet, path, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set(BootstrapHeader, "1")
		return c.doEnvelope(req)
	}

	_, _ = probe("/api/auth/csrf")

	env, err := probe("/api/auth/me")
	if err == nil && env.User != nil {
		c.setSession(*env.User)
		return
	}
	c.clearSession()
}

func (c *Client) Signup(ctx context.Context, email string, password string) (User, error) {
	return c.authenticate(ctx, "/api/auth/signup", email, password)
}

func (c *Client) Login(ctx context.Context, email string, password string) (User, error) {
	return c.authenticate(ctx, "/api/auth/login", email, password)
}

func (c *Client) authenticate(ctx context.Context, path string, email string, password string) (User, error) {
	body := map[string]string{"email": email, "password": password}
	req, err := c.newRequest(ctx, http.MethodPost, path, body)
	if err != nil {
		return User{}, err
	}

	if _, err := c.doEnvelope(req); err != nil {
		return User{}, err
	}

	// Resync from the server's view instead of trusting the response body.
	c.Bootstrap(ctx)

	u, ok := c.CurrentUser()
	if !ok {
		return User{}, fmt.Errorf("session did not establish after %s", path)
	}
	return u, nil
}

// Logout clears local state once the server call settles successfully. The
// server clears its cookies unconditionally either way.
func (c *Client) Logout(ctx context.Context) error {
	req, err := c.newRequest(ctx, http.MethodPost, "/api/auth/logout", nil)
	if err != nil {
		return err
	}

	if _, err := c.doEnvelope(req); err != nil {
		return err
	}

	c.clearSession()
	return nil
}

// Me fetches the current user fresh from the server. A 401 on this call goes
// through the normal refresh-and-retry path.
func (c *Client) Me(ctx context.Context) (User, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/auth/me", nil)
	if err != nil {
		return User{}, err
	}

	env, err := c.doEnvelope(req)
	if err != nil {
		return User{}, err
	}
	if env.User == nil {
		return User{}, fmt.Errorf("response missing user")
	}
	return *env.User, nil
}

// UpdateProfile partial-updates the profile; nil fields keep current values.
func (c *Client) UpdateProfile(ctx context.Context, fullName *string, locale *string, timeZone *string) (User, error) {
	body := map[string]*string{
		"full_name": fullName,
		"locale":    locale,
		"time_zone": timeZone,
	}
	req, err := c.newRequest(ctx, http.MethodPut, "/api/users/me", body)
	if err != nil {
		return User{}, err
	}

	env, err := c.doEnvelope(req)
	if err != nil {
		return User{}, err
	}
	if env.User == nil {
		return User{}, fmt.Errorf("response missing user")
	}

	c.setSession(*env.User)
	return *env.User, nil
}

func (c *Client) newRequest(ctx context.Context, method string, path string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

func (c *Client) doEnvelope(req *http.Request) (*apiEnvelope, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var env apiEnvelope
	decodeErr := json.NewDecoder(resp.Body).Decode(&env)

	if resp.StatusCode >= 400 {
		apiErr := &APIError{Status: resp.StatusCode, Code: "UNKNOWN", Message: resp.Status}
		if decodeErr == nil && env.Error != nil {
			apiErr.Code = env.Error.Code
			apiErr.Message = env.Error.Message
		}
		return nil, apiErr
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("decode response: %w", decodeErr)
	}
	return &env, nil
}

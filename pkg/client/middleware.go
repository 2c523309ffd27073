package client

import (
	"net/http"
	"net/url"
)

// Middleware wraps a RoundTripper.
type Middleware func(http.RoundTripper) http.RoundTripper

// Chain composes middlewares over base. The first middleware is outermost,
// so it sees the request first and the response last.
func Chain(base http.RoundTripper, mws ...Middleware) http.RoundTripper {
	rt := base
	for i := len(mws) - 1; i >= 0; i-- {
		rt = mws[i](rt)
	}
	return rt
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// credentials attaches everything the browser would: the cookies held in the
// jar, plus the CSRF echo header on mutating methods. It rebuilds the Cookie
// header from the jar on every pass, so a retried request picks up whatever
// the refresh call just rotated.
func credentials(jar http.CookieJar, base *url.URL) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return roundTripFunc(func(req *http.Request) (*http.Response, error) {
			out := req.Clone(req.Context())

			out.Header.Del("Cookie")
			var csrf string
			for _, cookie := range jar.Cookies(base) {
				out.AddCookie(cookie)
				if cookie.Name == csrfCookieName {
					csrf = cookie.Value
				}
			}

			if mutating(out.Method) && csrf != "" {
				out.Header.Set(CSRFHeader, csrf)
			}

			return next.RoundTrip(out)
		})
	}
}

// refreshRetry turns a 401 into refresh-then-retry, exactly once. Auth
// endpoints and bootstrap probes are exempt; a 401 from either is terminal.
// The retry goes to next directly, never back through this wrapper, so
// there is no recursion even if the retry also comes back 401.
func refreshRetry(coordinator *refreshCoordinator, onFailure func()) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return roundTripFunc(func(req *http.Request) (*http.Response, error) {
			resp, err := next.RoundTrip(req)
			if err != nil {
				return nil, err
			}

			if resp.StatusCode != http.StatusUnauthorized || exempt(req) {
				return resp, nil
			}

			if !coordinator.Refresh() {
				onFailure()
				return resp, nil
			}

			retry, ok := rewind(req)
			if !ok {
				return resp, nil
			}

			resp.Body.Close()
			return next.RoundTrip(retry)
		})
	}
}

// terminalAuthPaths are endpoints where a 401 is an answer, not a stale
// access token. Refreshing and retrying any of these would loop or lie.
var terminalAuthPaths = map[string]struct{}{
	authPathPrefix + "signup":  {},
	authPathPrefix + "login":   {},
	authPathPrefix + "logout":  {},
	authPathPrefix + "refresh": {},
	authPathPrefix + "csrf":    {},
}

func exempt(req *http.Request) bool {
	if req.Header.Get(BootstrapHeader) != "" {
		return true
	}
	_, terminal := terminalAuthPaths[req.URL.Path]
	return terminal
}

// rewind clones req with a replayable body. Requests whose body cannot be
// replayed are not retried.
func rewind(req *http.Request) (*http.Request, bool) {
	out := req.Clone(req.Context())
	if req.Body == nil || req.Body == http.NoBody {
		return out, true
	}
	if req.GetBody == nil {
		return nil, false
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, false
	}
	out.Body = body
	return out, true
}

func mutating(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return false
	}
	return true
}

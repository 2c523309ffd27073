package client

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/sync/singleflight"
)

// refreshKey is constant: there is only one session per client, so every
// concurrent 401 collapses onto the same in-flight refresh.
const refreshKey = "refresh"

// refreshCoordinator funnels all refresh attempts through one single-flight
// call. The group forgets the key as soon as the call settles, so a later
// 401 starts a fresh attempt rather than reusing a stale verdict.
type refreshCoordinator struct {
	group  singleflight.Group
	client *Client
}

func newRefreshCoordinator(c *Client) *refreshCoordinator {
	return &refreshCoordinator{client: c}
}

// Refresh reports whether the session was renewed. Concurrent callers share
// one network call and one verdict.
func (rc *refreshCoordinator) Refresh() bool {
	ok, _, _ := rc.group.Do(refreshKey, func() (any, error) {
		return rc.attempt(), nil
	})
	return ok.(bool)
}

// attempt posts to the refresh endpoint through the full client, so the jar
// and CSRF header are attached as usual. The refresh middleware exempts auth
// paths, which is what keeps this call from re-entering itself.
func (rc *refreshCoordinator) attempt() bool {
	// Deliberately not the triggering request's context: the refresh
	// outcome is shared by every waiter, so one caller's cancellation
	// must not abort it for the rest.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req, err := rc.client.newRequest(ctx, http.MethodPost, "/api/auth/refresh", nil)
	if err != nil {
		return false
	}

	resp, err := rc.client.http.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	return resp.StatusCode == http.StatusOK
}

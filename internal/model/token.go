package model

import "time"

// RefreshToken is one issued refresh credential. Only the SHA-256 hash of the
// raw token is ever persisted; rows are revoked, never deleted, so the chain
// of rotations stays auditable.
type RefreshToken struct {
	ID        string
	UserID    string
	TokenHash string
	ExpiresAt time.Time
	RevokedAt *time.Time
	UserAgent string
	IP        string
	CreatedAt time.Time
}

func (t RefreshToken) Revoked() bool {
	return t.RevokedAt != nil
}

func (t RefreshToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

// IssuedRefreshToken pairs a freshly generated raw token with its expiry.
// This is the only place a raw refresh token is ever exposed.
type IssuedRefreshToken struct {
	Raw       string
	ExpiresAt time.Time
}

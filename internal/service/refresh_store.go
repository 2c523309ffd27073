package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"gravizot/internal/model"
	"gravizot/internal/token"
)

// TokenStore is the persistence surface the refresh store needs. Implemented
// by repository.TokenRepository (pgx) and repository.MemoryTokenRepository.
type TokenStore interface {
	Insert(ctx context.Context, rec model.RefreshToken) error
	FindByHash(ctx context.Context, tokenHash string) (model.RefreshToken, error)
	Rotate(ctx context.Context, oldHash string, expectedUserID string, next model.RefreshToken) error
	RevokeByHash(ctx context.Context, tokenHash string) error
}

// RefreshStore issues, rotates and revokes opaque refresh tokens. Each
// rotation consumes the presented token and issues exactly one successor, so
// the raw values form a chain of single-use credentials.
type RefreshStore struct {
	tokens TokenStore
	ttl    time.Duration
}

func NewRefreshStore(tokens TokenStore, ttl time.Duration) *RefreshStore {
	return &RefreshStore{tokens: tokens, ttl: ttl}
}

func (s *RefreshStore) newRecord(userID string, userAgent string, ip string) (model.RefreshToken, string, error) {
	raw, err := token.NewRefreshToken()
	if err != nil {
		return model.RefreshToken{}, "", err
	}

	now := time.Now().UTC()
	rec := model.RefreshToken{
		ID:        uuid.NewString(),
		UserID:    userID,
		TokenHash: token.HashRefreshToken(raw),
		ExpiresAt: now.Add(s.ttl),
		UserAgent: userAgent,
		IP:        ip,
		CreatedAt: now,
	}
	return rec, raw, nil
}

// Create issues a fresh refresh token. The returned raw value is the only
// copy that will ever exist; the store keeps its hash.
func (s *RefreshStore) Create(ctx context.Context, userID string, userAgent string, ip string) (model.IssuedRefreshToken, error) {
	rec, raw, err := s.newRecord(userID, userAgent, ip)
	if err != nil {
		return model.IssuedRefreshToken{}, err
	}

	if err := s.tokens.Insert(ctx, rec); err != nil {
		return model.IssuedRefreshToken{}, err
	}
	return model.IssuedRefreshToken{Raw: raw, ExpiresAt: rec.ExpiresAt}, nil
}

// Rotate exchanges oldRaw for a new token. Revocation of the old record and
// insertion of the new one happen atomically in the store; a replayed old
// token can never validate twice.
func (s *RefreshStore) Rotate(ctx context.Context, oldRaw string, expectedUserID string, userAgent string, ip string) (model.IssuedRefreshToken, error) {
	next, raw, err := s.newRecord(expectedUserID, userAgent, ip)
	if err != nil {
		return model.IssuedRefreshToken{}, err
	}

	if err := s.tokens.Rotate(ctx, token.HashRefreshToken(oldRaw), expectedUserID, next); err != nil {
		return model.IssuedRefreshToken{}, err
	}
	return model.IssuedRefreshToken{Raw: raw, ExpiresAt: next.ExpiresAt}, nil
}

// Revoke marks the record for raw as revoked. Missing or already-revoked
// tokens are a no-op: logout must never fail on a stale cookie.
func (s *RefreshStore) Revoke(ctx context.Context, raw string) error {
	if raw == "" {
		return nil
	}
	return s.tokens.RevokeByHash(ctx, token.HashRefreshToken(raw))
}

// Lookup returns the stored record for a raw token, without validating it.
func (s *RefreshStore) Lookup(ctx context.Context, raw string) (model.RefreshToken, error) {
	return s.tokens.FindByHash(ctx, token.HashRefreshToken(raw))
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"gravizot/internal/model"
)

type TokenRepository struct {
	pool *pgxpool.Pool
}

func NewTokenRepository(pool *pgxpool.Pool) *TokenRepository {
	return &TokenRepository{pool: pool}
}

func (r *TokenRepository) Insert(ctx context.Context, rec model.RefreshToken) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO refresh_tokens (id, user_id, token_hash, expires_at, user_agent, ip, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		rec.ID, rec.UserID, rec.TokenHash, rec.ExpiresAt, rec.UserAgent, rec.IP, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert refresh token: %w", err)
	}
	return nil
}

func (r *TokenRepository) FindByHash(ctx context.Context, tokenHash string) (model.RefreshToken, error) {
	var rec model.RefreshToken
	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, token_hash, expires_at, revoked_at, user_agent, ip, created_at
		 FROM refresh_tokens WHERE token_hash = $1`, tokenHash).
		Scan(&rec.ID, &rec.UserID, &rec.TokenHash, &rec.ExpiresAt, &rec.RevokedAt,
			&rec.UserAgent, &rec.IP, &rec.CreatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return model.RefreshToken{}, model.ErrTokenNotFound
	}
	if err != nil {
		return model.RefreshToken{}, fmt.Errorf("find refresh token: %w", err)
	}
	return rec, nil
}

// Rotate revokes the record stored under oldHash and inserts next in a single
// transaction. The conditional revoke update is the linearization point:
// under concurrent rotations of the same raw token exactly one caller
// observes rows_affected == 1 and every loser fails with ErrTokenRevoked.
func (r *TokenRepository) Rotate(ctx context.Context, oldHash string, expectedUserID string, next model.RefreshToken) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin rotation: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var rec model.RefreshToken
	err = tx.QueryRow(ctx,
		`SELECT id, user_id, expires_at, revoked_at
		 FROM refresh_tokens WHERE token_hash = $1 FOR UPDATE`, oldHash).
		Scan(&rec.ID, &rec.UserID, &rec.ExpiresAt, &rec.RevokedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return model.ErrTokenNotFound
	}
	if err != nil {
		return fmt.Errorf("lookup refresh token for rotation: %w", err)
	}

	switch {
	case rec.UserID != expectedUserID:
		return model.ErrTokenUserMismatch
	case rec.Revoked():
		return model.ErrTokenRevoked
	case rec.Expired(time.Now().UTC()):
		return model.ErrTokenExpired
	}

	tag, err := tx.Exec(ctx,
		`UPDATE refresh_tokens SET revoked_at = NOW()
		 WHERE id = $1 AND revoked_at IS NULL`, rec.ID)
	if err != nil {
		return fmt.Errorf("revoke rotated token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrTokenRevoked
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO refresh_tokens (id, user_id, token_hash, expires_at, user_agent, ip, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		next.ID, next.UserID, next.TokenHash, next.ExpiresAt, next.UserAgent, next.IP, next.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert rotated token: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit rotation: %w", err)
	}
	return nil
}

// RevokeByHash is idempotent: revoking a missing or already-revoked token is
// a no-op, so logout never fails on a stale cookie.
func (r *TokenRepository) RevokeByHash(ctx context.Context, tokenHash string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE refresh_tokens SET revoked_at = NOW()
		 WHERE token_hash = $1 AND revoked_at IS NULL`, tokenHash)
	if err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

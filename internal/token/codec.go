// Package token implements the access token codec and refresh token material.
package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"gravizot/internal/model"
)

// Codec signs and verifies short-lived access tokens with a shared HMAC
// secret. Verification is deliberately low-information: every failure mode
// collapses into model.ErrUnauthorized so callers cannot distinguish a
// malformed token from an expired one.
type Codec struct {
	secret    []byte
	accessTTL time.Duration
}

func NewCodec(secret string, accessTTL time.Duration) *Codec {
	return &Codec{secret: []byte(secret), accessTTL: accessTTL}
}

func (c *Codec) AccessTTL() time.Duration {
	return c.accessTTL
}

func (c *Codec) SignAccess(userID string, email string) (string, error) {
	now := time.Now().UTC()
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"uid":   userID,
		"email": email,
		"iat":   now.Unix(),
		"exp":   now.Add(c.accessTTL).Unix(),
	})
	return t.SignedString(c.secret)
}

func (c *Codec) VerifyAccess(tokenString string) (*model.AccessClaims, error) {
	parsed, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, model.ErrUnauthorized
		}
		return c.secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return nil, model.ErrUnauthorized
	}

	claimsMap, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, model.ErrUnauthorized
	}

	claims := &model.AccessClaims{}
	claims.UserID, _ = claimsMap["uid"].(string)
	claims.Email, _ = claimsMap["email"].(string)
	if claims.UserID == "" {
		return nil, model.ErrUnauthorized
	}

	return claims, nil
}

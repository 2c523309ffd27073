package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"gravizot/internal/model"
	"gravizot/internal/token"
	"gravizot/pkg/apierror"
)

// UserStore is the persistence surface the auth service needs. Implemented by
// repository.UserRepository (pgx) and repository.MemoryUserRepository.
type UserStore interface {
	FindByID(ctx context.Context, id string) (model.User, error)
	FindByEmail(ctx context.Context, email string) (model.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, u model.User) error
	UpdateLastLogin(ctx context.Context, userID string, at time.Time) error
	UpdateProfile(ctx context.Context, userID string, update model.ProfileUpdate) (model.User, error)
}

type AuthService struct {
	users      UserStore
	refresh    *RefreshStore
	codec      *token.Codec
	bcryptCost int
}

// Session is one authenticated session: the user, a signed access token and
// the refresh credential backing it.
type Session struct {
	User         model.User
	AccessToken  string
	RefreshToken model.IssuedRefreshToken
}

func NewAuthService(users UserStore, refresh *RefreshStore, codec *token.Codec, bcryptCost int) *AuthService {
	if bcryptCost < 10 {
		bcryptCost = 10
	}
	return &AuthService{users: users, refresh: refresh, codec: codec, bcryptCost: bcryptCost}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthService) Signup(ctx context.Context, email string, password string, userAgent string, ip string) (Session, error) {
	email = normalizeEmail(email)
	if email == "" || !strings.Contains(email, "@") || password == "" {
		return Session{}, apierror.BadRequest("email and password are required")
	}

	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return Session{}, err
	}
	if exists {
		return Session{}, apierror.Conflict("email already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return Session{}, err
	}

	now := time.Now().UTC()
	user := model.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, model.ErrEmailTaken) {
			return Session{}, apierror.Conflict("email already registered")
		}
		return Session{}, err
	}

	return s.issueSession(ctx, user, userAgent, ip)
}

func (s *AuthService) Login(ctx context.Context, email string, password string, userAgent string, ip string) (Session, error) {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, model.ErrUserNotFound) {
		// Same response as a bad password so login is not a user oracle.
		return Session{}, apierror.Unauthorized("invalid credentials")
	}
	if err != nil {
		return Session{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return Session{}, apierror.Unauthorized("invalid credentials")
	}

	now := time.Now().UTC()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return Session{}, err
	}
	user.LastLoginAt = &now

	// A fresh independent refresh record per login; prior sessions stay
	// valid until they expire or rotate.
	return s.issueSession(ctx, user, userAgent, ip)
}

// Logout revokes the presented refresh token. Best effort: a stale, missing
// or already-revoked token still counts as logged out.
func (s *AuthService) Logout(ctx context.Context, rawRefresh string) {
	if err := s.refresh.Revoke(ctx, rawRefresh); err != nil {
		slog.Warn("logout revocation failed", "error", err)
	}
}

// Refresh exchanges the presented refresh token for a new session. Every
// failure collapses into Unauthorized; the caller must treat that as an
// unrecoverable session.
func (s *AuthService) Refresh(ctx context.Context, rawRefresh string, userAgent string, ip string) (Session, error) {
	if rawRefresh == "" {
		return Session{}, apierror.Unauthorized("no refresh token")
	}

	rec, err := s.refresh.Lookup(ctx, rawRefresh)
	if err != nil {
		if errors.Is(err, model.ErrTokenNotFound) {
			return Session{}, apierror.Unauthorized("invalid refresh token")
		}
		return Session{}, err
	}

	user, err := s.users.FindByID(ctx, rec.UserID)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return Session{}, apierror.Unauthorized("invalid refresh token")
		}
		return Session{}, err
	}

	issued, err := s.refresh.Rotate(ctx, rawRefresh, user.ID, userAgent, ip)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrTokenNotFound),
			errors.Is(err, model.ErrTokenUserMismatch),
			errors.Is(err, model.ErrTokenRevoked),
			errors.Is(err, model.ErrTokenExpired):
			return Session{}, apierror.Unauthorized("invalid refresh token")
		}
		return Session{}, err
	}

	access, err := s.codec.SignAccess(user.ID, user.Email)
	if err != nil {
		return Session{}, err
	}

	return Session{User: user, AccessToken: access, RefreshToken: issued}, nil
}

// CurrentUser re-reads the user row so profile edits show up immediately,
// instead of trusting possibly stale token claims.
func (s *AuthService) CurrentUser(ctx context.Context, userID string) (model.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, model.ErrUserNotFound) {
		return model.User{}, apierror.Unauthorized("unknown user")
	}
	return user, err
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID string, update model.ProfileUpdate) (model.User, error) {
	return s.users.UpdateProfile(ctx, userID, update)
}

// VerifyAccess exposes the codec to the auth middleware.
func (s *AuthService) VerifyAccess(tokenString string) (*model.AccessClaims, error) {
	return s.codec.VerifyAccess(tokenString)
}

func (s *AuthService) issueSession(ctx context.Context, user model.User, userAgent string, ip string) (Session, error) {
	access, err := s.codec.SignAccess(user.ID, user.Email)
	if err != nil {
		return Session{}, err
	}

	issued, err := s.refresh.Create(ctx, user.ID, userAgent, ip)
	if err != nil {
		return Session{}, err
	}

	return Session{User: user, AccessToken: access, RefreshToken: issued}, nil
}

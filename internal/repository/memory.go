package repository

import (
	"context"
	"sync"
	"time"

	"gravizot/internal/model"
)

// In-memory repositories backing tests and local runs without Postgres. The
// token store reproduces the SQL rotation semantics: the conditional revoke
// under the mutex is the single point where concurrent rotations of one raw
// token are serialized.

type MemoryUserRepository struct {
	mu      sync.RWMutex
	byID    map[string]model.User
	byEmail map[string]string
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		byID:    map[string]model.User{},
		byEmail: map[string]string{},
	}
}

func (r *MemoryUserRepository) FindByID(_ context.Context, id string) (model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return model.User{}, model.ErrUserNotFound
	}
	return u, nil
}

func (r *MemoryUserRepository) FindByEmail(_ context.Context, email string) (model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[normalizeEmail(email)]
	if !ok {
		return model.User{}, model.ErrUserNotFound
	}
	return r.byID[id], nil
}

func (r *MemoryUserRepository) ExistsByEmail(_ context.Context, email string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.byEmail[normalizeEmail(email)]
	return ok, nil
}

func (r *MemoryUserRepository) Create(_ context.Context, u model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := normalizeEmail(u.Email)
	if _, ok := r.byEmail[key]; ok {
		return model.ErrEmailTaken
	}
	r.byID[u.ID] = u
	r.byEmail[key] = u.ID
	return nil
}

func (r *MemoryUserRepository) UpdateLastLogin(_ context.Context, userID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[userID]
	if !ok {
		return model.ErrUserNotFound
	}
	u.LastLoginAt = &at
	r.byID[userID] = u
	return nil
}

func (r *MemoryUserRepository) UpdateProfile(_ context.Context, userID string, update model.ProfileUpdate) (model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[userID]
	if !ok {
		return model.User{}, model.ErrUserNotFound
	}
	if update.FullName != nil {
		u.FullName = update.FullName
	}
	if update.Locale != nil {
		u.Locale = update.Locale
	}
	if update.TimeZone != nil {
		u.TimeZone = update.TimeZone
	}
	u.UpdatedAt = time.Now().UTC()
	r.byID[userID] = u
	return u, nil
}

type MemoryTokenRepository struct {
	mu     sync.Mutex
	byHash map[string]model.RefreshToken
}

func NewMemoryTokenRepository() *MemoryTokenRepository {
	return &MemoryTokenRepository{byHash: map[string]model.RefreshToken{}}
}

func (r *MemoryTokenRepository) Insert(_ context.Context, rec model.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.byHash[rec.TokenHash] = rec
	return nil
}

func (r *MemoryTokenRepository) FindByHash(_ context.Context, tokenHash string) (model.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.byHash[tokenHash]
	if !ok {
		return model.RefreshToken{}, model.ErrTokenNotFound
	}
	return rec, nil
}

func (r *MemoryTokenRepository) Rotate(_ context.Context, oldHash string, expectedUserID string, next model.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.byHash[oldHash]
	if !ok {
		return model.ErrTokenNotFound
	}

	switch {
	case rec.UserID != expectedUserID:
		return model.ErrTokenUserMismatch
	case rec.Revoked():
		return model.ErrTokenRevoked
	case rec.Expired(time.Now().UTC()):
		return model.ErrTokenExpired
	}

	now := time.Now().UTC()
	rec.RevokedAt = &now
	r.byHash[oldHash] = rec
	r.byHash[next.TokenHash] = next
	return nil
}

func (r *MemoryTokenRepository) RevokeByHash(_ context.Context, tokenHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.byHash[tokenHash]
	if !ok || rec.Revoked() {
		return nil
	}
	now := time.Now().UTC()
	rec.RevokedAt = &now
	r.byHash[tokenHash] = rec
	return nil
}

// ActiveCount reports unrevoked, unexpired records for a user. Test helper.
func (r *MemoryTokenRepository) ActiveCount(userID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	count := 0
	for _, rec := range r.byHash {
		if rec.UserID == userID && !rec.Revoked() && !rec.Expired(now) {
			count++
		}
	}
	return count
}

type MemoryContactRepository struct {
	mu       sync.Mutex
	messages []model.ContactMessage
}

func NewMemoryContactRepository() *MemoryContactRepository {
	return &MemoryContactRepository{}
}

func (r *MemoryContactRepository) Insert(_ context.Context, msg model.ContactMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.messages = append(r.messages, msg)
	return nil
}

func (r *MemoryContactRepository) Messages() []model.ContactMessage {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]model.ContactMessage, len(r.messages))
	copy(out, r.messages)
	return out
}

package model

import "time"

type User struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	FullName     *string    `json:"full_name"`
	Locale       *string    `json:"locale"`
	TimeZone     *string    `json:"time_zone"`
	IsVerified   bool       `json:"is_verified"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	LastLoginAt  *time.Time `json:"last_login_at"`
}

// PublicUser is the projection returned over the wire. The password hash is
// never serialized.
type PublicUser struct {
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

func (u User) Public() PublicUser {
	return PublicUser{
		ID:          u.ID,
		Email:       u.Email,
		FullName:    u.FullName,
		Locale:      u.Locale,
		TimeZone:    u.TimeZone,
		IsVerified:  u.IsVerified,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
		LastLoginAt: u.LastLoginAt,
	}
}

// AccessClaims are the decoded claims of a verified access token.
type AccessClaims struct {
	UserID string
	Email  string
}

// ProfileUpdate carries the mutable profile fields; nil means keep current.
type ProfileUpdate struct {
	FullName *string
	Locale   *string
	TimeZone *string
}

package model

import "time"

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

type ErrorResponse struct {
	OK    bool      `json:"ok"`
	Error *APIError `json:"error"`
}

type OKResponse struct {
	OK bool `json:"ok"`
}

type UserResponse struct {
	OK   bool       `json:"ok"`
	User PublicUser `json:"user"`
}

type ContactResponse struct {
	OK        bool      `json:"ok"`
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	EmailSent bool      `json:"email_sent"`
}

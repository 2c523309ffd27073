package model

type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UpdateProfileRequest struct {
	FullName *string `json:"full_name"`
	Locale   *string `json:"locale"`
	TimeZone *string `json:"time_zone"`
}

type ContactRequest struct {
	Topic   string `json:"topic"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

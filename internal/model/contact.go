package model

import "time"

type ContactMessage struct {
	ID        string
	Topic     string
	Email     string
	Message   string
	IP        string
	UserAgent string
	CreatedAt time.Time
}

package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"gravizot/internal/mail"
	"gravizot/internal/model"
	"gravizot/pkg/apierror"
)

const (
	maxTopicLen   = 200
	maxMessageLen = 5000
)

type ContactStore interface {
	Insert(ctx context.Context, msg model.ContactMessage) error
}

// ContactService stores contact submissions and forwards them by email.
// A nil mailer disables notifications without failing submissions.
type ContactService struct {
	store    ContactStore
	mailer   mail.Mailer
	to       string
	from     string
	siteName string
}

func NewContactService(store ContactStore, mailer mail.Mailer, to string, from string, siteName string) *ContactService {
	return &ContactService{store: store, mailer: mailer, to: to, from: from, siteName: siteName}
}

// Submit validates and stores a message, then best-effort sends the
// notification email. Email failure never fails the submission.
func (s *ContactService) Submit(ctx context.Context, req model.ContactRequest, ip string, userAgent string) (model.ContactMessage, bool, error) {
	topic := stripControl(req.Topic)
	email := strings.TrimSpace(req.Email)
	message := stripControl(req.Message)

	switch {
	case topic == "" || len(topic) > maxTopicLen:
		return model.ContactMessage{}, false, apierror.BadRequest("topic is required")
	case email == "" || !strings.Contains(email, "@"):
		return model.ContactMessage{}, false, apierror.BadRequest("a valid email is required")
	case message == "" || len(message) > maxMessageLen:
		return model.ContactMessage{}, false, apierror.BadRequest("message is required")
	}

	msg := model.ContactMessage{
		ID:        uuid.NewString(),
		Topic:     topic,
		Email:     email,
		Message:   message,
		IP:        ip,
		UserAgent: userAgent,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.store.Insert(ctx, msg); err != nil {
		return model.ContactMessage{}, false, err
	}

	sent := false
	if s.mailer != nil {
		if err := s.mailer.Send(ctx, s.notification(msg)); err != nil {
			slog.Error("contact notification failed", "id", msg.ID, "error", err)
		} else {
			sent = true
		}
	}

	return msg, sent, nil
}

func (s *ContactService) notification(msg model.ContactMessage) mail.Message {
	text := fmt.Sprintf(`New contact message (#%s)
Site: %s
Topic: %s
From: %s
IP: %s
UA: %s
At: %s

Message:
%s
`, msg.ID, s.siteName, msg.Topic, msg.Email, orNA(msg.IP), orNA(msg.UserAgent),
		msg.CreatedAt.Format(time.RFC3339), msg.Message)

	return mail.Message{
		To:      s.to,
		From:    s.from,
		ReplyTo: msg.Email,
		Subject: fmt.Sprintf("[Contact] %s: %s", s.siteName, msg.Topic),
		Text:    text,
	}
}

func orNA(v string) string {
	if v == "" {
		return "n/a"
	}
	return v
}

// stripControl drops control characters and trims the result.
func stripControl(s string) string {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(cleaned)
}

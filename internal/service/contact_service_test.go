package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gravizot/internal/mail"
	"gravizot/internal/model"
	"gravizot/internal/repository"
	"gravizot/pkg/apierror"
)

type recordingMailer struct {
	sent []mail.Message
	err  error
}

func (m *recordingMailer) Send(_ context.Context, msg mail.Message) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func TestContactSubmit(t *testing.T) {
	store := repository.NewMemoryContactRepository()
	mailer := &recordingMailer{}
	svc := NewContactService(store, mailer, "owner@example.com", "noreply@example.com", "gravizot")

	req := model.ContactRequest{
		Topic:   "Commission",
		Email:   "client@example.com",
		Message: "Hello,\nI would like a quote.",
	}
	msg, sent, err := svc.Submit(context.Background(), req, "203.0.113.9", "test-agent")
	require.NoError(t, err)
	assert.True(t, sent)
	assert.NotEmpty(t, msg.ID)

	stored := store.Messages()
	require.Len(t, stored, 1)
	assert.Equal(t, "Commission", stored[0].Topic)

	require.Len(t, mailer.sent, 1)
	notification := mailer.sent[0]
	assert.Equal(t, "owner@example.com", notification.To)
	assert.Equal(t, "client@example.com", notification.ReplyTo)
	assert.Contains(t, notification.Subject, "Commission")
	assert.Contains(t, notification.Text, "203.0.113.9")
}

func TestContactSubmitValidation(t *testing.T) {
	svc := NewContactService(repository.NewMemoryContactRepository(), nil, "", "", "gravizot")
	ctx := context.Background()

	cases := []struct {
		name string
		req  model.ContactRequest
	}{
		{"missing topic", model.ContactRequest{Email: "a@b.com", Message: "hi"}},
		{"bad email", model.ContactRequest{Topic: "t", Email: "not-an-email", Message: "hi"}},
		{"missing message", model.ContactRequest{Topic: "t", Email: "a@b.com"}},
		{"oversized message", model.ContactRequest{Topic: "t", Email: "a@b.com", Message: strings.Repeat("x", maxMessageLen+1)}},
		{"control chars only", model.ContactRequest{Topic: "\x00\x01", Email: "a@b.com", Message: "hi"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := svc.Submit(ctx, tc.req, "", "")
			var apiErr *apierror.APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, 400, apiErr.HTTPStatus)
		})
	}
}

func TestContactMailFailureStillStores(t *testing.T) {
	store := repository.NewMemoryContactRepository()
	mailer := &recordingMailer{err: errors.New("smtp down")}
	svc := NewContactService(store, mailer, "owner@example.com", "noreply@example.com", "gravizot")

	req := model.ContactRequest{Topic: "t", Email: "a@b.com", Message: "hi"}
	_, sent, err := svc.Submit(context.Background(), req, "", "")
	require.NoError(t, err, "email failure must not fail the submission")
	assert.False(t, sent)
	assert.Len(t, store.Messages(), 1)
}

func TestContactSubmitNilMailer(t *testing.T) {
	store := repository.NewMemoryContactRepository()
	svc := NewContactService(store, nil, "", "", "gravizot")

	req := model.ContactRequest{Topic: "t", Email: "a@b.com", Message: "hi"}
	_, sent, err := svc.Submit(context.Background(), req, "", "")
	require.NoError(t, err)
	assert.False(t, sent)
	assert.Len(t, store.Messages(), 1)
}

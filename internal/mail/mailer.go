// Package mail defines the outbound email surface. The rest of the system
// treats the sender as an opaque collaborator behind the Mailer interface.
package mail

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strings"
)

type Message struct {
	To      string
	From    string
	ReplyTo string
	Subject string
	Text    string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPMailer sends through a plain SMTP relay.
type SMTPMailer struct {
	host     string
	port     string
	user     string
	password string
}

func NewSMTPMailer(host string, port string, user string, password string) *SMTPMailer {
	return &SMTPMailer{host: host, port: port, user: user, password: password}
}

func (m *SMTPMailer) Send(_ context.Context, msg Message) error {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", msg.From)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	if msg.ReplyTo != "" {
		fmt.Fprintf(&b, "Reply-To: %s\r\n", msg.ReplyTo)
	}
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	b.WriteString(msg.Text)

	var auth smtp.Auth
	if m.user != "" {
		auth = smtp.PlainAuth("", m.user, m.password, m.host)
	}

	addr := net.JoinHostPort(m.host, m.port)
	if err := smtp.SendMail(addr, auth, msg.From, []string{msg.To}, []byte(b.String())); err != nil {
		return fmt.Errorf("send mail via %s: %w", addr, err)
	}
	return nil
}

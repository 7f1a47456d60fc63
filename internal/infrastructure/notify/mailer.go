// Package notify renders account notifications into outbound messages.
package notify

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"github.com/innoshop/platform/internal/core/domain"
	"github.com/innoshop/platform/internal/core/ports"
)

// Message is a rendered outbound email.
type Message struct {
	To      string
	Subject string
	Body    string
	Link    string
}

// LogMailer writes rendered messages to the structured log instead of an SMTP
// relay. It is the development transport.
type LogMailer struct {
	baseURL *url.URL
	log     zerolog.Logger
}

func NewLogMailer(publicBaseURL string, log zerolog.Logger) (*LogMailer, error) {
	u, err := url.Parse(strings.TrimRight(publicBaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse public base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("public base url %q must be absolute", publicBaseURL)
	}
	return &LogMailer{baseURL: u, log: log}, nil
}

func (m *LogMailer) Send(_ context.Context, n domain.Notification) error {
	msg, err := m.Render(n)
	if err != nil {
		return err
	}
	m.log.Info().
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Str("link", msg.Link).
		Msg("email sent")
	return nil
}

// Render builds the message for n.
func (m *LogMailer) Render(n domain.Notification) (Message, error) {
	switch n.Kind {
	case domain.NotifyConfirmEmail:
		link := m.link("/confirmEmail", url.Values{"userId": {n.AccountID}, "token": {n.Token}})
		return Message{
			To:      n.Email,
			Subject: "Confirm your email",
			Body:    fmt.Sprintf("Hi %s, confirm your account by following this link: %s", n.DisplayName, link),
			Link:    link,
		}, nil
	case domain.NotifyResetPassword:
		link := m.link("/reset-password", url.Values{"token": {n.Token}, "email": {n.Email}})
		return Message{
			To:      n.Email,
			Subject: "Reset your password",
			Body:    fmt.Sprintf("Hi %s, reset your password by following this link: %s", n.DisplayName, link),
			Link:    link,
		}, nil
	default:
		return Message{}, fmt.Errorf("unknown notification kind %q", n.Kind)
	}
}

func (m *LogMailer) link(path string, q url.Values) string {
	u := *m.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path
	u.RawQuery = q.Encode()
	return u.String()
}

var _ ports.NotificationSender = (*LogMailer)(nil)

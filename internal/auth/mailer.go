package auth

import (
	"context"
	"log/slog"
)

// Mailer delivers verification links.
type Mailer interface {
	SendVerification(ctx context.Context, to, name, link string) error
}

// LogMailer writes the link to the log instead of sending mail. It is the
// default in development.
type LogMailer struct {
	Log *slog.Logger
}

func (m LogMailer) SendVerification(_ context.Context, to, name, link string) error {
	m.Log.Info("verification email", "to", to, "name", name, "link", link)
	return nil
}

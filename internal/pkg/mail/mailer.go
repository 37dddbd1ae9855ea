package mail

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/mail"
	"strings"

	"github.com/ManuelReschke/LinkFox/internal/pkg/config"
)

var ErrInvalidMessage = errors.New("mail: invalid message")

// Message is a single HTML email.
type Message struct {
	To      string
	ReplyTo string
	Subject string
	HTML    string
	Tag     string
}

func (m Message) Validate() error {
	if _, err := mail.ParseAddress(m.To); err != nil {
		return fmt.Errorf("%w: recipient %q", ErrInvalidMessage, m.To)
	}
	if m.ReplyTo != "" {
		if _, err := mail.ParseAddress(m.ReplyTo); err != nil {
			return fmt.Errorf("%w: reply-to %q", ErrInvalidMessage, m.ReplyTo)
		}
	}
	if strings.TrimSpace(m.Subject) == "" {
		return fmt.Errorf("%w: subject is empty", ErrInvalidMessage)
	}
	if strings.ContainsAny(m.Subject, "\r\n") {
		return fmt.Errorf("%w: subject contains line breaks", ErrInvalidMessage)
	}
	return nil
}

// Mailer delivers messages.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// NewFromConfig prefers Postmark, then SMTP, and falls back to logging the
// message when neither is configured.
func NewFromConfig(cfg config.Mail) (Mailer, error) {
	if cfg.PostmarkServer != "" {
		return NewPostmarkMailer(cfg.PostmarkServer, cfg.PostmarkAcct, cfg.Sender)
	}
	if cfg.SMTPHost != "" {
		return &SMTPMailer{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			Sender:   cfg.Sender,
		}, nil
	}
	log.Print("[Mail] no mail transport configured, messages will only be logged")
	return LogMailer{}, nil
}

// LogMailer writes messages to the log instead of sending them.
type LogMailer struct{}

func (LogMailer) Send(_ context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	log.Printf("[Mail] to=%s subject=%q (not sent, no transport)", msg.To, msg.Subject)
	return nil
}

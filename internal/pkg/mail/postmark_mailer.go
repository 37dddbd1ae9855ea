package mail

import (
	"context"
	"errors"
	"fmt"

	"github.com/mrz1836/postmark"
)

// PostmarkMailer sends through Postmark's transactional API.
type PostmarkMailer struct {
	client *postmark.Client
	sender string
}

func NewPostmarkMailer(serverToken, accountToken, sender string) (*PostmarkMailer, error) {
	if serverToken == "" {
		return nil, errors.New("postmark server token is required")
	}
	if sender == "" {
		return nil, errors.New("postmark needs a sender address")
	}
	return &PostmarkMailer{
		client: postmark.NewClient(serverToken, accountToken),
		sender: sender,
	}, nil
}

func (m *PostmarkMailer) Send(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	resp, err := m.client.SendEmail(ctx, postmark.Email{
		From:     m.sender,
		ReplyTo:  msg.ReplyTo,
		To:       msg.To,
		Subject:  msg.Subject,
		Tag:      msg.Tag,
		HTMLBody: msg.HTML,
	})
	if err != nil {
		return fmt.Errorf("postmark send: %w", err)
	}
	if resp.ErrorCode > 0 {
		return fmt.Errorf("postmark error: %d - %s", resp.ErrorCode, resp.Message)
	}
	return nil
}

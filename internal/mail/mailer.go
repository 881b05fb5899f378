// Package mail delivers transactional email: invoices and the daily digest.
package mail

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v2"
	"github.com/sirupsen/logrus"
)

// Message is a rendered email
type Message struct {
	To      []string
	Subject string
	HTML    string
}

// Mailer sends messages
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// ResendMailer delivers through the Resend API
type ResendMailer struct {
	client *resend.Client
	from   string
}

// NewResendMailer creates a mailer bound to an API key and sender address
func NewResendMailer(apiKey, from string) *ResendMailer {
	return &ResendMailer{client: resend.NewClient(apiKey), from: from}
}

// Send delivers msg
func (m *ResendMailer) Send(ctx context.Context, msg Message) error {
	params := &resend.SendEmailRequest{
		From:    m.from,
		To:      msg.To,
		Subject: msg.Subject,
		Html:    msg.HTML,
	}
	sent, err := m.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	logrus.WithFields(logrus.Fields{
		"to":       msg.To,
		"subject":  msg.Subject,
		"email_id": sent.Id,
	}).Info("Email sent")
	return nil
}

// LogMailer only logs; used when no API key is configured
type LogMailer struct{}

// Send logs msg instead of delivering it
func (LogMailer) Send(_ context.Context, msg Message) error {
	logrus.WithFields(logrus.Fields{
		"to":      msg.To,
		"subject": msg.Subject,
		"bytes":   len(msg.HTML),
	}).Info("Email delivery disabled, message dropped")
	return nil
}

// New picks the Resend mailer when an API key is set
func New(apiKey, from string) Mailer {
	if apiKey == "" {
		return LogMailer{}
	}
	return NewResendMailer(apiKey, from)
}

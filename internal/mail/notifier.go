// Copyright (C) 2026 the quixsi maintainers
// See root-dir/LICENSE for more information

// Package mail delivers best-effort admin notifications. A failed
// delivery is logged by the caller and never rolls back the mutation
// that triggered it.
package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/caarlos0/env/v11"
	gomail "github.com/wneessen/go-mail"

	"github.com/quixsi/rsvp/internal/model"
)

const attachmentName = "rsvp.csv"

// Notification is one rendered message. Snapshot, when set, is attached
// as a text/csv file holding the full persisted guest list.
type Notification struct {
	Subject  string
	Body     string
	Snapshot []byte
}

type Notifier interface {
	Notify(context.Context, *Notification) error
}

// SMTPConfig is read from the environment, not flags, so credentials
// stay out of process listings.
type SMTPConfig struct {
	Host     string `env:"SMTP_HOST" envDefault:"localhost"`
	Port     int    `env:"SMTP_PORT" envDefault:"587"`
	Username string `env:"SMTP_USERNAME"`
	Password string `env:"SMTP_PASSWORD"`
}

func SMTPConfigFromEnv() (SMTPConfig, error) {
	var cfg SMTPConfig
	err := env.Parse(&cfg)
	return cfg, err
}

// SMTPNotifier sends one message per configured admin address.
type SMTPNotifier struct {
	cfg    SMTPConfig
	from   string
	admins []string
}

func NewSMTPNotifier(cfg SMTPConfig, from string, admins []string) *SMTPNotifier {
	return &SMTPNotifier{cfg: cfg, from: from, admins: admins}
}

func (s *SMTPNotifier) Notify(ctx context.Context, n *Notification) error {
	msg, err := s.message(n)
	if err != nil {
		return err
	}

	opts := []gomail.Option{
		gomail.WithPort(s.cfg.Port),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
	}
	if s.cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(s.cfg.Username),
			gomail.WithPassword(s.cfg.Password),
		)
	}
	client, err := gomail.NewClient(s.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	return client.DialAndSendWithContext(ctx, msg)
}

func (s *SMTPNotifier) message(n *Notification) (*gomail.Msg, error) {
	msg := gomail.NewMsg()
	if err := msg.From(s.from); err != nil {
		return nil, fmt.Errorf("sender address: %w", err)
	}
	if err := msg.ReplyTo(s.from); err != nil {
		return nil, fmt.Errorf("reply-to address: %w", err)
	}
	if err := msg.To(s.admins...); err != nil {
		return nil, fmt.Errorf("admin address: %w", err)
	}
	msg.Subject(n.Subject)
	msg.SetBodyString(gomail.TypeTextPlain, n.Body)
	if n.Snapshot != nil {
		if err := msg.AttachReader(attachmentName, bytes.NewReader(n.Snapshot)); err != nil {
			return nil, fmt.Errorf("attach snapshot: %w", err)
		}
	}
	return msg, nil
}

// StubNotifier is the testing-mode sink: it logs the message and
// delivers nothing, preserving the Notify contract.
type StubNotifier struct {
	logger *slog.Logger
}

func NewStubNotifier(logger *slog.Logger) *StubNotifier {
	return &StubNotifier{logger: logger.WithGroup("mail")}
}

func (s *StubNotifier) Notify(_ context.Context, n *Notification) error {
	s.logger.Info("suppressed notification",
		"subject", n.Subject,
		"body", n.Body,
		"attachment-bytes", len(n.Snapshot),
	)
	return nil
}

// NewSubmissionNotification renders the "New RSVP!" message sent after a
// successful guest submission, snapshot attached.
func NewSubmissionNotification(record *model.Record, snapshot []byte) *Notification {
	detail, _ := json.MarshalIndent(record, "", "  ")
	return &Notification{
		Subject:  "New RSVP!",
		Body:     fmt.Sprintf("Success on new RSVP!\n%s\n", detail),
		Snapshot: snapshot,
	}
}

// NewGuestAddedNotification renders the message sent after a management
// add, snapshot attached.
func NewGuestAddedNotification(record *model.Record, snapshot []byte) *Notification {
	detail, _ := json.MarshalIndent(record, "", "  ")
	return &Notification{
		Subject:  "Guest added",
		Body:     fmt.Sprintf("New guest on the list:\n%s\n", detail),
		Snapshot: snapshot,
	}
}

// NewFailureNotification renders the message sent when a submission was
// parsed but could not be stored, so the operator can follow up by hand.
func NewFailureNotification(cause error, params *model.RsvpParams) *Notification {
	detail, _ := json.MarshalIndent(params, "", "  ")
	return &Notification{
		Subject: "Error on RSVP",
		Body: fmt.Sprintf(
			"Error on new RSVP, try to get in touch with them or put it in yourself.\nError: %v\nRSVP: %s\n",
			cause, detail,
		),
	}
}

// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package email delivers voting links to registered voters.
package email

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"codeberg.org/oliverandrich/electobot/internal/config"
	"codeberg.org/oliverandrich/electobot/internal/i18n"
	"github.com/wneessen/go-mail"
)

// SendTimeout bounds a single SMTP conversation.
const SendTimeout = 30 * time.Second

// Service sends voting links via SMTP.
type Service struct {
	cfg *config.SMTPConfig
}

// NewService creates a new email service.
func NewService(cfg *config.SMTPConfig) (*Service, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("SMTP host is required")
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("SMTP from address is required")
	}

	return &Service{cfg: cfg}, nil
}

// SendVotingLink mails a voter the personal link to the voting page.
func (s *Service) SendVotingLink(ctx context.Context, to, eventName, votingURL string) error {
	msg, err := s.VotingLinkMessage(ctx, to, eventName, votingURL)
	if err != nil {
		return err
	}
	return s.send(ctx, msg)
}

// VotingLinkMessage builds the voting link mail in the language of ctx.
func (s *Service) VotingLinkMessage(ctx context.Context, to, eventName, votingURL string) (*mail.Msg, error) {
	data := map[string]any{
		"EventName": eventName,
		"VotingURL": votingURL,
	}
	subject := i18n.TData(ctx, "email_voting_link_subject", data)
	body := i18n.TData(ctx, "email_voting_link_body", data)

	msg := mail.NewMsg()

	if s.cfg.FromName != "" {
		if err := msg.FromFormat(s.cfg.FromName, s.cfg.From); err != nil {
			return nil, fmt.Errorf("setting from address: %w", err)
		}
	} else {
		if err := msg.From(s.cfg.From); err != nil {
			return nil, fmt.Errorf("setting from address: %w", err)
		}
	}

	if err := msg.To(to); err != nil {
		return nil, fmt.Errorf("setting to address: %w", err)
	}

	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	return msg, nil
}

// send delivers msg via SMTP using go-mail.
func (s *Service) send(ctx context.Context, msg *mail.Msg) error {
	opts := []mail.Option{
		mail.WithPort(s.cfg.Port),
		mail.WithTimeout(SendTimeout),
	}

	// Use implicit TLS (SSL) for port 465, STARTTLS for others
	if s.cfg.TLS {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
		if s.cfg.Port == 465 {
			opts = append(opts, mail.WithSSL())
		}
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	}

	if s.cfg.Username != "" && s.cfg.Password != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.Username),
			mail.WithPassword(s.cfg.Password),
		)
	}

	client, err := mail.NewClient(s.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("creating mail client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("sending email: %w", err)
	}

	return nil
}

// Mailer delivers voting links.
type Mailer interface {
	SendVotingLink(ctx context.Context, to, eventName, votingURL string) error
}

// NewMailer returns an SMTP mailer when a server is configured and a
// LogMailer otherwise.
func NewMailer(cfg *config.SMTPConfig) (Mailer, error) {
	if !cfg.Enabled() {
		slog.Warn("SMTP not configured, voting links will only be logged")
		return LogMailer{}, nil
	}
	return NewService(cfg)
}

// LogMailer stands in for SMTP when no mail server is configured. It writes
// voting links to the log instead of sending them.
type LogMailer struct{}

// SendVotingLink logs the voting link.
func (LogMailer) SendVotingLink(ctx context.Context, to, eventName, votingURL string) error {
	slog.InfoContext(ctx, "voting link (SMTP not configured)",
		"to", to,
		"event", eventName,
		"url", votingURL,
	)
	return nil
}

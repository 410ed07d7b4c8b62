// Package mailer sends report messages over SMTP.
package mailer

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wneessen/go-mail"

	"github.com/ahmethakanbesel/stockmailer/internal/apperror"
	"github.com/ahmethakanbesel/stockmailer/internal/report"
)

// Config holds the SMTP connection settings.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	Timeout  time.Duration
}

type sender interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// Transport implements report.Mailer. Each Send opens its own connection, so
// a Transport can be shared.
type Transport struct {
	cfg       Config
	newSender func(Config) (sender, error)
}

func New(cfg Config) *Transport {
	return &Transport{cfg: cfg, newSender: dial}
}

func dial(cfg Config) (sender, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if cfg.Timeout > 0 {
		opts = append(opts, mail.WithTimeout(cfg.Timeout))
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}
	c, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Send delivers msg and returns its Message-ID without angle brackets.
func (t *Transport) Send(ctx context.Context, msg report.Message) (string, error) {
	if t.cfg.Host == "" {
		return "", apperror.New(apperror.Configuration, "smtp host is not configured")
	}
	if msg.From == "" {
		return "", apperror.New(apperror.Configuration, "smtp sender address is not configured")
	}

	m, err := buildMessage(msg)
	if err != nil {
		return "", err
	}

	s, err := t.newSender(t.cfg)
	if err != nil {
		return "", apperror.Wrap(apperror.Configuration, "create smtp client", err)
	}
	if err := s.DialAndSendWithContext(ctx, m); err != nil {
		return "", fmt.Errorf("smtp send: %w", err)
	}
	return messageID(m), nil
}

func buildMessage(msg report.Message) (*mail.Msg, error) {
	m := mail.NewMsg()
	if err := m.From(msg.From); err != nil {
		return nil, fmt.Errorf("set sender: %w", err)
	}
	if err := m.To(msg.To); err != nil {
		return nil, fmt.Errorf("set recipient: %w", err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextPlain, msg.Body)
	for _, a := range msg.Attachments {
		if err := m.AttachReader(a.Filename, bytes.NewReader(a.Content),
			mail.WithFileContentType(mail.ContentType("text/csv"))); err != nil {
			return nil, fmt.Errorf("attach %s: %w", a.Filename, err)
		}
	}
	m.SetMessageID()
	return m, nil
}

func messageID(m *mail.Msg) string {
	ids := m.GetGenHeader(mail.HeaderMessageID)
	if len(ids) == 0 {
		return ""
	}
	return strings.Trim(ids[0], "<>")
}

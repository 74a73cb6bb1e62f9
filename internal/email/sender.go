package email

import (
	"context"
	"fmt"
	"log/slog"

	mail "github.com/wneessen/go-mail"
)

// Message carries the semantic content of one verification email. Transport
// and MIME details stay inside the sender implementations.
type Message struct {
	To       string
	Identity string
	Code     string
}

// Sender delivers verification emails to users.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPSender delivers mail through an authenticated STARTTLS SMTP session.
type SMTPSender struct {
	client  *mail.Client
	from    string
	appName string
	logger  *slog.Logger
}

// SMTPConfig holds the transport settings for an SMTPSender.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	AppName  string
}

// NewSMTPSender builds a sender that submits through the configured relay.
func NewSMTPSender(cfg SMTPConfig, logger *slog.Logger) (*SMTPSender, error) {
	client, err := mail.NewClient(cfg.Host,
		mail.WithPort(cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.Username),
		mail.WithPassword(cfg.Password),
		mail.WithTLSPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return nil, fmt.Errorf("build smtp client: %w", err)
	}
	return &SMTPSender{client: client, from: cfg.From, appName: cfg.AppName, logger: logger}, nil
}

// Send composes the verification message with a plain-text body and an HTML
// alternative and submits it.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	m := mail.NewMsg()
	if err := m.From(s.from); err != nil {
		return fmt.Errorf("set sender: %w", err)
	}
	if err := m.To(msg.To); err != nil {
		return fmt.Errorf("set recipient: %w", err)
	}
	m.Subject(fmt.Sprintf("%s verification request", s.appName))
	m.SetBodyString(mail.TypeTextPlain, textBody(msg.Identity, msg.Code))
	m.AddAlternativeString(mail.TypeTextHTML, htmlBody(msg.Identity, msg.Code))

	if err := s.client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("send verification mail: %w", err)
	}

	s.logger.Info("verification email sent", slog.String("identity", msg.Identity))
	return nil
}

// LoggerSender is a stub implementation that writes mail to the logger.
// It keeps local development working without an SMTP relay.
type LoggerSender struct {
	logger *slog.Logger
}

// NewLoggerSender constructs a logging sender stub.
func NewLoggerSender(logger *slog.Logger) *LoggerSender {
	return &LoggerSender{logger: logger}
}

// Send writes the message to the structured logger.
func (s *LoggerSender) Send(_ context.Context, msg Message) error {
	if s == nil || s.logger == nil {
		return nil
	}
	s.logger.Info("verification email (stub)",
		slog.String("to", msg.To),
		slog.String("identity", msg.Identity),
		slog.String("code", msg.Code),
	)
	return nil
}

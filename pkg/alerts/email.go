package alerts

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/wneessen/go-mail"
)

// DefaultFromName is the sender display name on alert emails.
const DefaultFromName = "阿里云CDT告警"

// Security modes for the SMTP connection.
const (
	SecureTLS  = "tls"
	SecureSSL  = "ssl"
	SecureNone = "none"
)

// EmailConfig holds SMTP submission settings. The sender address is From,
// or the SMTP username when From is empty. An empty Username disables SMTP
// AUTH, for relays that accept unauthenticated submission.
type EmailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	Secure   string
	To       string
	From     string
	FromName string
}

// EmailNotifier sends HTML alert emails over SMTP.
type EmailNotifier struct {
	cfg EmailConfig
}

// NewEmailNotifier creates an email notifier after checking the security
// mode.
func NewEmailNotifier(cfg EmailConfig) (*EmailNotifier, error) {
	switch strings.ToLower(cfg.Secure) {
	case "", SecureTLS:
		cfg.Secure = SecureTLS
	case SecureSSL, SecureNone:
		cfg.Secure = strings.ToLower(cfg.Secure)
	default:
		return nil, fmt.Errorf("unsupported email secure mode %q", cfg.Secure)
	}
	if cfg.FromName == "" {
		cfg.FromName = DefaultFromName
	}
	if cfg.From == "" {
		cfg.From = cfg.Username
	}
	return &EmailNotifier{cfg: cfg}, nil
}

func (e *EmailNotifier) Name() string { return ChannelEmail }

func (e *EmailNotifier) Send(ctx context.Context, msg Message) error {
	m := mail.NewMsg()
	if err := m.FromFormat(e.cfg.FromName, e.cfg.From); err != nil {
		return fmt.Errorf("email from: %w", err)
	}
	if err := m.To(e.cfg.To); err != nil {
		return fmt.Errorf("email to: %w", err)
	}
	m.Subject(msg.Title)
	m.SetBodyString(mail.TypeTextHTML, HTMLBody(msg.Body))

	client, err := mail.NewClient(e.cfg.Host, e.clientOptions()...)
	if err != nil {
		return fmt.Errorf("email client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("email send: %w", err)
	}
	return nil
}

// clientOptions builds the go-mail options. With SecureNone and credentials,
// PLAIN auth goes over an unencrypted connection, which go-mail only allows
// when Host is localhost.
func (e *EmailNotifier) clientOptions() []mail.Option {
	opts := []mail.Option{mail.WithTimeout(defaultTimeout)}
	if e.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(e.cfg.Username),
			mail.WithPassword(e.cfg.Password),
		)
	}
	if e.cfg.Port > 0 {
		opts = append(opts, mail.WithPort(e.cfg.Port))
	}
	switch e.cfg.Secure {
	case SecureSSL:
		opts = append(opts, mail.WithSSL())
	case SecureNone:
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	default:
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	}
	return opts
}

// HTMLBody escapes a plain-text body and turns newlines into <br /> tags.
func HTMLBody(text string) string {
	return strings.ReplaceAll(html.EscapeString(text), "\n", "<br />\n")
}

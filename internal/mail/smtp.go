package mail

import (
	"context"
	"fmt"
	"strings"

	gomail "github.com/wneessen/go-mail"

	"github.com/kboni/auth-server/internal/logger"
	"github.com/kboni/auth-server/internal/model"
)

// TLS modes accepted by Config.TLS.
const (
	TLSImplicit = "ssl"
	TLSStart    = "starttls"
	TLSNone     = "none"
)

// Config describes the SMTP relay.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	TLS      string
	From     string
}

var _ model.Mailer = (*SMTPMailer)(nil)

// SMTPMailer delivers messages through an SMTP relay. Each Send dials a
// fresh connection.
type SMTPMailer struct {
	client *gomail.Client
	from   string
	logger *logger.Logger
}

func NewSMTPMailer(cfg Config, logger *logger.Logger) (*SMTPMailer, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("smtp host is empty")
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("sender address is empty")
	}

	opts := []gomail.Option{gomail.WithPort(cfg.Port)}

	switch strings.ToLower(cfg.TLS) {
	case TLSNone, "":
		opts = append(opts, gomail.WithTLSPolicy(gomail.NoTLS))
	case TLSStart:
		opts = append(opts, gomail.WithTLSPolicy(gomail.TLSMandatory))
	case TLSImplicit:
		opts = append(opts, gomail.WithSSL())
	default:
		return nil, fmt.Errorf("unknown smtp tls mode %q", cfg.TLS)
	}

	if cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.Username),
			gomail.WithPassword(cfg.Password),
		)
	}

	client, err := gomail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create smtp client: %w", err)
	}

	return &SMTPMailer{client: client, from: cfg.From, logger: logger}, nil
}

// Send delivers msg and returns once the relay accepted it.
func (m *SMTPMailer) Send(ctx context.Context, msg model.Message) error {
	out, err := m.build(msg)
	if err != nil {
		return err
	}

	if err := m.client.DialAndSendWithContext(ctx, out); err != nil {
		m.logger.Error("Mailer: failed to send message",
			"to", msg.To,
			"error", err.Error())
		return fmt.Errorf("failed to send mail: %w", err)
	}

	m.logger.Debug("Mailer: message sent", "to", msg.To)

	return nil
}

func (m *SMTPMailer) build(msg model.Message) (*gomail.Msg, error) {
	out := gomail.NewMsg()
	if err := out.From(m.from); err != nil {
		return nil, fmt.Errorf("invalid sender address: %w", err)
	}
	if err := out.To(msg.To); err != nil {
		return nil, fmt.Errorf("invalid recipient address: %w", err)
	}
	out.Subject(msg.Subject)
	out.SetBodyString(gomail.TypeTextPlain, msg.Body)

	return out, nil
}

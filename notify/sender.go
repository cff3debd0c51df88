package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"logportal/config"
	"logportal/metrics"
	"logportal/models"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

// SendTimeout bounds the whole SMTP conversation.
const SendTimeout = 20 * time.Second

// ErrNoRows is returned when there is nothing to send.
var ErrNoRows = errors.New("no rows selected")

// ConfigError reports missing SMTP settings. No connection is attempted.
type ConfigError struct {
	Missing []string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("SMTP %s must be configured (deploy_config.json or SMTP_HOST/SMTP_PORT env vars)",
		strings.Join(e.Missing, " and "))
}

// SettingsSource supplies the current SMTP settings.
type SettingsSource interface {
	SMTP() config.SMTPSettings
}

// Transport delivers prepared messages.
type Transport interface {
	DialAndSendWithContext(ctx context.Context, messages ...*mail.Msg) error
}

// TransportFactory builds a Transport for one send.
type TransportFactory func(config.SMTPSettings) (Transport, error)

// Sender emails selected rows. Settings are read on every send so a runtime
// reload takes effect immediately. There is no retry and no queue.
type Sender struct {
	settings     SettingsSource
	newTransport TransportFactory
	logger       *zap.Logger
}

// NewSender creates a Sender using the SMTP transport.
func NewSender(settings SettingsSource, logger *zap.Logger) *Sender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sender{
		settings:     settings,
		newTransport: NewSMTPTransport,
		logger:       logger,
	}
}

// WithTransport replaces the transport factory.
func (s *Sender) WithTransport(f TransportFactory) *Sender {
	s.newTransport = f
	return s
}

// Send emails rows to recipient. appLabel may be empty.
func (s *Sender) Send(ctx context.Context, recipient string, rows []models.Row, appLabel string) (err error) {
	defer func() {
		outcome := metrics.OutcomeOK
		if err != nil {
			outcome = metrics.OutcomeError
		}
		metrics.EmailsTotal.WithLabelValues(outcome).Inc()
	}()

	if len(rows) == 0 {
		return ErrNoRows
	}

	settings := s.settings.SMTP()
	if err := validate(settings); err != nil {
		return err
	}

	msg, err := BuildMessage(settings.From, recipient, rows, appLabel)
	if err != nil {
		return err
	}

	transport, err := s.newTransport(settings)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}

	start := time.Now()
	if err := transport.DialAndSendWithContext(ctx, msg); err != nil {
		s.logger.Error("SMTP send failed",
			zap.String("host", settings.Host),
			zap.Int("port", settings.Port),
			zap.Bool("use_tls", settings.UseTLS),
			zap.String("recipient", recipient),
			zap.Error(err))
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Info("Selected logs emailed",
		zap.String("recipient", recipient),
		zap.String("application", appLabel),
		zap.Int("rows", len(rows)),
		zap.Duration("duration", time.Since(start)))
	return nil
}

// BuildMessage assembles the multipart message: a plain-text body with an
// HTML alternative holding the rows.
func BuildMessage(from, recipient string, rows []models.Row, appLabel string) (*mail.Msg, error) {
	html, err := RenderHTML(rows, appLabel)
	if err != nil {
		return nil, err
	}

	msg := mail.NewMsg()
	if err := msg.From(from); err != nil {
		return nil, fmt.Errorf("invalid sender address: %w", err)
	}
	if err := msg.To(recipient); err != nil {
		return nil, fmt.Errorf("invalid recipient address: %w", err)
	}
	msg.Subject(Subject(appLabel))
	msg.SetBodyString(mail.TypeTextPlain, PlainText(appLabel))
	msg.AddAlternativeString(mail.TypeTextHTML, html)
	return msg, nil
}

// NewSMTPTransport builds a go-mail client. With UseTLS the STARTTLS upgrade
// is mandatory and happens before authentication. PLAIN auth is used only
// when both user and password are set.
func NewSMTPTransport(settings config.SMTPSettings) (Transport, error) {
	opts := []mail.Option{
		mail.WithPort(settings.Port),
		mail.WithTimeout(SendTimeout),
	}

	if settings.UseTLS {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	}

	if settings.User != "" && settings.Password != "" {
		auth := mail.SMTPAuthPlain
		if !settings.UseTLS {
			auth = mail.SMTPAuthPlainNoEnc
		}
		opts = append(opts,
			mail.WithSMTPAuth(auth),
			mail.WithUsername(settings.User),
			mail.WithPassword(settings.Password))
	}

	client, err := mail.NewClient(settings.Host, opts...)
	if err != nil {
		return nil, err
	}
	return client, nil
}

func validate(settings config.SMTPSettings) error {
	var missing []string
	if settings.Host == "" {
		missing = append(missing, "host")
	}
	if settings.Port <= 0 {
		missing = append(missing, "port")
	}
	if len(missing) > 0 {
		return &ConfigError{Missing: missing}
	}
	return nil
}

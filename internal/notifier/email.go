package notifier

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/logguard-ai/logguard/internal/models"
	"github.com/logguard-ai/logguard/pkg/logger"
)

// MailTransport delivers one rendered message to a recipient list.
type MailTransport interface {
	Deliver(ctx context.Context, recipients []string, subject, body string) error
}

// EmailNotifier formats alerts as plain-text mail and hands them to a
// transport.
type EmailNotifier struct {
	transport MailTransport
	log       *log.Entry
}

// NewEmailNotifier creates an email notifier on the given transport.
func NewEmailNotifier(transport MailTransport) *EmailNotifier {
	return &EmailNotifier{
		transport: transport,
		log:       logger.Component("email"),
	}
}

// Send delivers the alert to all recipients and reports the outcome.
func (e *EmailNotifier) Send(ctx context.Context, recipients []string, alert *models.Alert) bool {
	if len(recipients) == 0 {
		return false
	}
	err := e.transport.Deliver(ctx, recipients, EmailSubject(alert), EmailBody(alert))
	if err != nil {
		e.log.WithError(err).WithField("alert", alert.ID).Warn("email delivery failed")
		return false
	}
	return true
}

// SendReply delivers an AI reply back to the original email sender.
func (e *EmailNotifier) SendReply(ctx context.Context, recipient string, resp *models.AIResponse) bool {
	err := e.transport.Deliver(ctx, []string{recipient}, ReplySubject(resp.AlertID), resp.Response)
	if err != nil {
		e.log.WithError(err).WithField("alert", resp.AlertID).Warn("reply delivery failed")
		return false
	}
	return true
}

// LogTransport records outbound mail in the application log instead of
// delivering it. Used when no SMTP relay is configured.
type LogTransport struct {
	log *log.Entry
}

// NewLogTransport creates the logging transport.
func NewLogTransport() *LogTransport {
	return &LogTransport{log: logger.Component("email")}
}

// Deliver logs the message and succeeds.
func (t *LogTransport) Deliver(_ context.Context, recipients []string, subject, body string) error {
	t.log.WithFields(log.Fields{
		"recipients": strings.Join(recipients, ", "),
		"subject":    subject,
		"bytes":      len(body),
	}).Info("email notification (simulated delivery)")
	return nil
}

// SMTPConfig holds SMTP relay settings.
type SMTPConfig struct {
	Host     string `json:"host" yaml:"host"`
	Port     int    `json:"port" yaml:"port"` // 465 implicit TLS, 587/25 STARTTLS
	Username string `json:"username" yaml:"username"`
	Password string `json:"password" yaml:"password"`
	From     string `json:"from" yaml:"from"`
}

// Validate validates the SMTP configuration.
func (c *SMTPConfig) Validate() error {
	if c.Host == "" {
		return fmt.Errorf("SMTP host is required")
	}
	if c.Port == 0 {
		return fmt.Errorf("SMTP port is required")
	}
	if c.From == "" {
		return fmt.Errorf("from address is required")
	}
	return nil
}

// SMTPTransport delivers mail through an SMTP relay.
type SMTPTransport struct {
	config SMTPConfig
}

// NewSMTPTransport creates an SMTP transport.
func NewSMTPTransport(config SMTPConfig) (*SMTPTransport, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid SMTP config: %w", err)
	}
	return &SMTPTransport{config: config}, nil
}

// Deliver sends one message to all recipients in a single SMTP session.
func (t *SMTPTransport) Deliver(ctx context.Context, recipients []string, subject, body string) error {
	msg := t.buildMessage(recipients, subject, body)
	addr := fmt.Sprintf("%s:%d", t.config.Host, t.config.Port)

	tlsConfig := &tls.Config{ServerName: t.config.Host}

	var client *smtp.Client
	var err error
	if t.config.Port == 465 {
		client, err = t.connectImplicitTLS(addr, tlsConfig)
	} else {
		client, err = t.connectSTARTTLS(ctx, addr, tlsConfig)
	}
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer client.Close()

	if t.config.Username != "" && t.config.Password != "" {
		auth := smtp.PlainAuth("", t.config.Username, t.config.Password, t.config.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP authentication failed: %w", err)
		}
	}

	if err := client.Mail(extractEmail(t.config.From)); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	for _, rcpt := range recipients {
		if err := client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("failed to add recipient %s: %w", rcpt, err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to start data: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close data: %w", err)
	}

	return client.Quit()
}

func (t *SMTPTransport) buildMessage(recipients []string, subject, body string) []byte {
	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", t.config.From)
	fmt.Fprintf(&msg, "To: %s\r\n", strings.Join(recipients, ", "))
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)
	msg.WriteString("\r\n")
	return []byte(msg.String())
}

// connectImplicitTLS connects using implicit TLS (port 465).
func (t *SMTPTransport) connectImplicitTLS(addr string, tlsConfig *tls.Config) (*smtp.Client, error) {
	conn, err := tls.Dial("tcp", addr, tlsConfig)
	if err != nil {
		return nil, err
	}
	return smtp.NewClient(conn, t.config.Host)
}

// connectSTARTTLS connects using STARTTLS (port 587 or 25).
func (t *SMTPTransport) connectSTARTTLS(ctx context.Context, addr string, tlsConfig *tls.Config) (*smtp.Client, error) {
	dialer := &net.Dialer{Timeout: 30 * time.Second}

	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}

	client, err := smtp.NewClient(conn, t.config.Host)
	if err != nil {
		conn.Close()
		return nil, err
	}

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(tlsConfig); err != nil {
			client.Close()
			return nil, fmt.Errorf("STARTTLS failed: %w", err)
		}
	}

	return client, nil
}

// extractEmail extracts the address from a "Name <email>" header value.
func extractEmail(addr string) string {
	if start := strings.Index(addr, "<"); start != -1 {
		if end := strings.Index(addr, ">"); end != -1 {
			return addr[start+1 : end]
		}
	}
	return addr
}

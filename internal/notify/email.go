package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"mime"
	"net"
	"net/mail"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/trogers1052/strategy-forge/internal/models"
)

// SMTPConfig holds SMTP transport settings
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	UseTLS   bool
	From     string
	To       []string // default recipients
	Timeout  time.Duration
}

// Configured reports whether mail can be sent
func (c SMTPConfig) Configured() bool {
	return c.Host != "" && c.Username != "" && c.Password != ""
}

// SendFunc delivers a composed message
type SendFunc func(ctx context.Context, cfg SMTPConfig, from string, to []string, msg []byte) error

// EmailNotifier sends plain text signal emails over SMTP
type EmailNotifier struct {
	cfg  SMTPConfig
	send SendFunc
}

// NewEmailNotifier creates an EmailNotifier
func NewEmailNotifier(cfg SMTPConfig) *EmailNotifier {
	if cfg.Port <= 0 {
		cfg.Port = 587
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &EmailNotifier{cfg: cfg, send: sendSMTP}
}

// WithSender replaces the transport, used by tests
func (en *EmailNotifier) WithSender(send SendFunc) *EmailNotifier {
	en.send = send
	return en
}

// Name implements Notifier
func (en *EmailNotifier) Name() string {
	return "email"
}

// Notify implements Notifier. Event recipients take precedence over the
// configured defaults.
func (en *EmailNotifier) Notify(ctx context.Context, evt models.SignalEvent) error {
	if !en.cfg.Configured() {
		return ErrNotConfigured
	}
	to := cleanRecipients(evt.Recipients)
	if len(to) == 0 {
		to = cleanRecipients(en.cfg.To)
	}
	if len(to) == 0 {
		return ErrNotConfigured
	}
	from := en.cfg.From
	if from == "" {
		from = en.cfg.Username
	}

	msg := composeMessage(from, to, Subject(evt), Body(evt))
	if err := en.send(ctx, en.cfg, from, to, msg); err != nil {
		return fmt.Errorf("failed to send %s email for %s: %w", strings.ToLower(evt.Kind), evt.Symbol, err)
	}
	return nil
}

// Subject formats the email subject for a signal
func Subject(evt models.SignalEvent) string {
	return fmt.Sprintf("[Strategy Forge] %s signal: %s on %s", evt.Kind, evt.StrategyName, evt.Symbol)
}

// Body formats the plain text email body for a signal
func Body(evt models.SignalEvent) string {
	var b strings.Builder
	if evt.Kind == models.SignalExit {
		fmt.Fprintf(&b, "Exit conditions matched for strategy '%s' on %s.\n\n", evt.StrategyName, evt.Symbol)
		b.WriteString("Consider closing the position (this is not financial advice).\n")
	} else {
		fmt.Fprintf(&b, "Entry conditions matched for strategy '%s' on %s.\n\n", evt.StrategyName, evt.Symbol)
		b.WriteString("Consider opening a long position (this is not financial advice).\n")
	}
	if evt.Date != "" {
		fmt.Fprintf(&b, "\nBar date: %s\n", evt.Date)
	}
	if len(evt.Rules) > 0 {
		b.WriteString("\nMatched rules:\n")
		for _, r := range evt.Rules {
			fmt.Fprintf(&b, "  - %s\n", r)
		}
	}
	if len(evt.CurrentValues) > 0 {
		b.WriteString("\nCurrent values:\n")
		for _, name := range models.IndicatorNames {
			if v, ok := evt.CurrentValues[name]; ok {
				fmt.Fprintf(&b, "  %s: %s\n", name, strconv.FormatFloat(v, 'f', -1, 64))
			}
		}
	}
	return b.String()
}

func composeMessage(from string, to []string, subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", headerValue(from))
	fmt.Fprintf(&b, "To: %s\r\n", headerValue(strings.Join(to, ", ")))
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", headerValue(subject)))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n\r\n")
	b.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	return []byte(b.String())
}

// headerValue folds CR and LF into spaces so a value stays on one header line
func headerValue(v string) string {
	return strings.Map(func(r rune) rune {
		if r == '\r' || r == '\n' {
			return ' '
		}
		return r
	}, v)
}

// cleanRecipients keeps the bare addresses that parse, dropping the rest
func cleanRecipients(in []string) []string {
	var out []string
	for _, raw := range in {
		if strings.ContainsAny(raw, "\r\n") {
			continue
		}
		addr, err := mail.ParseAddress(strings.TrimSpace(raw))
		if err != nil {
			continue
		}
		out = append(out, addr.Address)
	}
	return out
}

// sendSMTP dials the server, optionally upgrades with STARTTLS, authenticates
// and sends msg. The context bounds the whole exchange.
func sendSMTP(ctx context.Context, cfg SMTPConfig, from string, to []string, msg []byte) error {
	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	dialer := &net.Dialer{Timeout: cfg.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", addr, err)
	}
	return deliver(ctx, conn, cfg, from, to, msg)
}

// deliver runs the SMTP exchange over conn and closes it on return
func deliver(ctx context.Context, conn net.Conn, cfg SMTPConfig, from string, to []string, msg []byte) error {
	deadline := time.Now().Add(cfg.Timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetDeadline(deadline); err != nil {
		conn.Close()
		return fmt.Errorf("failed to set connection deadline: %w", err)
	}

	client, err := smtp.NewClient(conn, cfg.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to start smtp session: %w", err)
	}
	defer client.Close()

	if cfg.UseTLS {
		if err := client.StartTLS(&tls.Config{ServerName: cfg.Host}); err != nil {
			return fmt.Errorf("failed to start tls: %w", err)
		}
	}
	if err := client.Auth(smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)); err != nil {
		return fmt.Errorf("failed to authenticate: %w", err)
	}
	if err := client.Mail(from); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return fmt.Errorf("recipient %s rejected: %w", rcpt, err)
		}
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return client.Quit()
}

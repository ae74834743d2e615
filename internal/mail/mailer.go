// AngelaMos | 2026
// mailer.go

package mail

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/quotedprintable"
	"net"
	netmail "net/mail"
	"net/smtp"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrInvalidAddress = errors.New("invalid email address")

type Message struct {
	From    string
	To      string
	Subject string
	Body    string
}

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	Timeout  time.Duration
}

func (c Config) address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Client is the subset of *smtp.Client the mailer drives.
type Client interface {
	Extension(name string) (bool, string)
	StartTLS(config *tls.Config) error
	Auth(a smtp.Auth) error
	Mail(from string) error
	Rcpt(to string) error
	Data() (io.WriteCloser, error)
	Quit() error
	Close() error
}

type DialFunc func(ctx context.Context, cfg Config) (Client, error)

type SMTPMailer struct {
	cfg  Config
	dial DialFunc
}

func NewSMTPMailer(cfg Config) *SMTPMailer {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &SMTPMailer{cfg: cfg, dial: dialSMTP}
}

// Send delivers msg in a single SMTP session. Failures are returned as-is
// with the failing step in the message; nothing is retried.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	from, err := netmail.ParseAddress(msg.From)
	if err != nil {
		return fmt.Errorf("parse from %q: %w", msg.From, ErrInvalidAddress)
	}

	to, err := netmail.ParseAddress(msg.To)
	if err != nil {
		return fmt.Errorf("parse to %q: %w", msg.To, ErrInvalidAddress)
	}

	payload, err := buildMessage(from, to, msg.Subject, msg.Body, time.Now())
	if err != nil {
		return fmt.Errorf("build message: %w", err)
	}

	client, err := m.dial(ctx, m.cfg)
	if err != nil {
		return fmt.Errorf("connect smtp: %w", err)
	}
	defer client.Close() //nolint:errcheck // Quit already closed the session on success

	if ok, _ := client.Extension("STARTTLS"); ok {
		tlsCfg := &tls.Config{
			ServerName: m.cfg.Host,
			MinVersion: tls.VersionTLS12,
		}
		if err := client.StartTLS(tlsCfg); err != nil {
			return fmt.Errorf("starttls: %w", err)
		}
	}

	if m.cfg.Username != "" {
		auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}

	if err := client.Mail(from.Address); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}

	if err := client.Rcpt(to.Address); err != nil {
		return fmt.Errorf("rcpt to: %w", err)
	}

	wc, err := client.Data()
	if err != nil {
		return fmt.Errorf("open data: %w", err)
	}

	if _, err := wc.Write(payload); err != nil {
		_ = wc.Close() //nolint:errcheck // write error takes precedence
		return fmt.Errorf("write data: %w", err)
	}

	if err := wc.Close(); err != nil {
		return fmt.Errorf("close data: %w", err)
	}

	if err := client.Quit(); err != nil {
		return fmt.Errorf("quit: %w", err)
	}

	return nil
}

func buildMessage(
	from, to *netmail.Address,
	subject, body string,
	now time.Time,
) ([]byte, error) {
	var buf bytes.Buffer

	headers := []string{
		"From: " + from.String(),
		"To: " + to.String(),
		"Subject: " + mime.QEncoding.Encode("utf-8", subject),
		"Date: " + now.Format(time.RFC1123Z),
		"Message-ID: " + messageID(from.Address),
		"MIME-Version: 1.0",
		`Content-Type: text/plain; charset="UTF-8"`,
		"Content-Transfer-Encoding: quoted-printable",
	}
	buf.WriteString(strings.Join(headers, "\r\n"))
	buf.WriteString("\r\n\r\n")

	qp := quotedprintable.NewWriter(&buf)
	if _, err := qp.Write([]byte(body)); err != nil {
		return nil, err
	}
	if err := qp.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func messageID(from string) string {
	domain := "localhost"
	if at := strings.LastIndex(from, "@"); at >= 0 && at < len(from)-1 {
		domain = from[at+1:]
	}
	return fmt.Sprintf("<%s@%s>", uuid.New().String(), domain)
}

func dialSMTP(ctx context.Context, cfg Config) (Client, error) {
	dialer := &net.Dialer{Timeout: cfg.Timeout}

	conn, err := dialer.DialContext(ctx, "tcp", cfg.address())
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", cfg.address(), err)
	}

	deadline := time.Now().Add(cfg.Timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetDeadline(deadline); err != nil {
		_ = conn.Close() //nolint:errcheck // cleanup on setup failure
		return nil, fmt.Errorf("set deadline: %w", err)
	}

	client, err := smtp.NewClient(conn, cfg.Host)
	if err != nil {
		_ = conn.Close() //nolint:errcheck // cleanup on handshake failure
		return nil, fmt.Errorf("smtp handshake: %w", err)
	}

	return client, nil
}

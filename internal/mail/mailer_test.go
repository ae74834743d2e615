// AngelaMos | 2026
// mailer_test.go

package mail

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"io"
	netmail "net/mail"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockClient struct {
	mock.Mock
}

func (m *mockClient) Extension(name string) (bool, string) {
	args := m.Called(name)
	return args.Bool(0), args.String(1)
}

func (m *mockClient) StartTLS(config *tls.Config) error {
	return m.Called(config).Error(0)
}

func (m *mockClient) Auth(a smtp.Auth) error {
	return m.Called(a).Error(0)
}

func (m *mockClient) Mail(from string) error {
	return m.Called(from).Error(0)
}

func (m *mockClient) Rcpt(to string) error {
	return m.Called(to).Error(0)
}

func (m *mockClient) Data() (io.WriteCloser, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.WriteCloser), args.Error(1)
}

func (m *mockClient) Quit() error {
	return m.Called().Error(0)
}

func (m *mockClient) Close() error {
	return m.Called().Error(0)
}

type bufferCloser struct {
	bytes.Buffer
	closed bool
}

func (b *bufferCloser) Close() error {
	b.closed = true
	return nil
}

func newTestMailer(client Client, cfg Config) *SMTPMailer {
	m := NewSMTPMailer(cfg)
	m.dial = func(ctx context.Context, cfg Config) (Client, error) {
		return client, nil
	}
	return m
}

func testMessage() Message {
	return Message{
		From:    "Account API <no-reply@example.com>",
		To:      "jane@example.com",
		Subject: "Password recovery",
		Body:    "Open https://app.example.com/reset-password?token=abc to continue.",
	}
}

func TestSend_Success(t *testing.T) {
	client := new(mockClient)
	body := &bufferCloser{}

	client.On("Extension", "STARTTLS").Return(false, "")
	client.On("Auth", mock.Anything).Return(nil)
	client.On("Mail", "no-reply@example.com").Return(nil)
	client.On("Rcpt", "jane@example.com").Return(nil)
	client.On("Data").Return(body, nil)
	client.On("Quit").Return(nil)
	client.On("Close").Return(nil)

	mailer := newTestMailer(client, Config{
		Host:     "smtp.example.com",
		Port:     587,
		Username: "no-reply@example.com",
		Password: "secret",
	})

	require.NoError(t, mailer.Send(context.Background(), testMessage()))

	assert.True(t, body.closed)
	assert.Contains(t, body.String(), "Subject: Password recovery")
	assert.Contains(t, body.String(), "To: <jane@example.com>")
	assert.Contains(t, body.String(), "token=3Dabc")
	client.AssertExpectations(t)
}

func TestSend_UpgradesToTLSWhenOffered(t *testing.T) {
	client := new(mockClient)

	client.On("Extension", "STARTTLS").Return(true, "")
	client.On("StartTLS", mock.MatchedBy(func(c *tls.Config) bool {
		return c.ServerName == "smtp.example.com" && c.MinVersion == tls.VersionTLS12
	})).Return(nil)
	client.On("Mail", "no-reply@example.com").Return(nil)
	client.On("Rcpt", "jane@example.com").Return(nil)
	client.On("Data").Return(&bufferCloser{}, nil)
	client.On("Quit").Return(nil)
	client.On("Close").Return(nil)

	mailer := newTestMailer(client, Config{Host: "smtp.example.com", Port: 587})

	require.NoError(t, mailer.Send(context.Background(), testMessage()))
	client.AssertNotCalled(t, "Auth", mock.Anything)
	client.AssertExpectations(t)
}

func TestSend_RcptFailurePropagates(t *testing.T) {
	client := new(mockClient)
	rejected := errors.New("550 mailbox unavailable")

	client.On("Extension", "STARTTLS").Return(false, "")
	client.On("Mail", "no-reply@example.com").Return(nil)
	client.On("Rcpt", "jane@example.com").Return(rejected)
	client.On("Close").Return(nil)

	mailer := newTestMailer(client, Config{Host: "smtp.example.com", Port: 25})

	err := mailer.Send(context.Background(), testMessage())
	require.Error(t, err)
	assert.ErrorIs(t, err, rejected)
	assert.Contains(t, err.Error(), "rcpt to")
	client.AssertNotCalled(t, "Data")
}

func TestSend_DialFailure(t *testing.T) {
	mailer := NewSMTPMailer(Config{Host: "smtp.example.com", Port: 25})
	dialErr := errors.New("connection refused")
	mailer.dial = func(ctx context.Context, cfg Config) (Client, error) {
		return nil, dialErr
	}

	err := mailer.Send(context.Background(), testMessage())
	assert.ErrorIs(t, err, dialErr)
}

func TestSend_InvalidAddress(t *testing.T) {
	mailer := NewSMTPMailer(Config{Host: "smtp.example.com", Port: 25})

	msg := testMessage()
	msg.To = "not an address"

	err := mailer.Send(context.Background(), msg)
	assert.ErrorIs(t, err, ErrInvalidAddress)
}

func TestBuildMessage_Headers(t *testing.T) {
	from := &netmail.Address{Name: "Livro Livre", Address: "no-reply@livro.example"}
	to := &netmail.Address{Address: "jane@example.com"}
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

	payload, err := buildMessage(from, to, "Recuperação de senha", "olá", now)
	require.NoError(t, err)

	headers, body, found := strings.Cut(string(payload), "\r\n\r\n")
	require.True(t, found)

	assert.Contains(t, headers, `From: "Livro Livre" <no-reply@livro.example>`)
	assert.Contains(t, headers, "Subject: =?utf-8?q?")
	assert.Contains(t, headers, "Date: Sun, 18 Oct 2026 12:00:00 +0000")
	assert.Contains(t, headers, "@livro.example>")
	assert.Equal(t, "ol=C3=A1", body)
}

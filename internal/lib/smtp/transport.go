// Package smtp открывает аутентифицированные SMTP-сессии со STARTTLS.
package smtp

import (
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/smtp"
	"time"

	"github.com/magabrotheeeer/minigestor/internal/config"
	"github.com/magabrotheeeer/minigestor/internal/lib/sl"
)

const dialTimeout = 10 * time.Second

// Client команды SMTP-сессии, нужные для отправки одного письма.
type Client interface {
	Mail(from string) error
	Rcpt(to string) error
	Data() (io.WriteCloser, error)
	Quit() error
	Close() error
}

// Dialer открывает сессии от имени одного отправителя.
type Dialer interface {
	Connect() (Client, error)
	From() string
}

// Transport открывает аутентифицированные SMTP-сессии по настройкам config.SMTP.
type Transport struct {
	cfg config.SMTP
	log *slog.Logger
}

// NewTransport создает новый экземпляр Transport.
func NewTransport(cfg config.SMTP, log *slog.Logger) *Transport {
	return &Transport{cfg: cfg, log: log.With(slog.String("component", "smtp"))}
}

// Connect устанавливает соединение, включает STARTTLS и проходит аутентификацию.
// *smtp.Client из стандартной библиотеки уже удовлетворяет интерфейсу Client.
func (t *Transport) Connect() (Client, error) {
	const op = "smtp.Connect"
	addr := net.JoinHostPort(t.cfg.Host, t.cfg.Port)

	conn, err := net.DialTimeout("tcp", addr, dialTimeout)
	if err != nil {
		t.log.Error("failed to dial SMTP server", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	client, err := smtp.NewClient(conn, t.cfg.Host)
	if err != nil {
		t.log.Error("failed to create SMTP client", sl.Err(err))
		t.closeQuietly(conn.Close)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if ok, _ := client.Extension("STARTTLS"); !ok {
		t.closeQuietly(client.Close)
		return nil, fmt.Errorf("%s: server does not support STARTTLS", op)
	}
	if err = client.StartTLS(&tls.Config{ServerName: t.cfg.Host, MinVersion: tls.VersionTLS12}); err != nil {
		t.log.Error("failed to start TLS", sl.Err(err))
		t.closeQuietly(client.Close)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err = client.Auth(smtp.PlainAuth("", t.cfg.User, t.cfg.Pass, t.cfg.Host)); err != nil {
		t.log.Error("smtp auth failed", sl.Err(err))
		t.closeQuietly(client.Close)
		return nil, fmt.Errorf("%s: auth failed: %w", op, err)
	}

	return client, nil
}

// From адрес отправителя, он же логин на SMTP-сервере.
func (t *Transport) From() string {
	return t.cfg.User
}

func (t *Transport) closeQuietly(closeFn func() error) {
	if err := closeFn(); err != nil {
		t.log.Warn("failed to close smtp connection", sl.Err(err))
	}
}

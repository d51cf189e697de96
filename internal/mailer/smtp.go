// internal/mailer/smtp.go

// Package mailer implements the email DeliveryChannel over SMTP. Port 465
// style implicit TLS and STARTTLS upgrades are both supported; which one is
// used is decided by configuration, not guessed from the port.
package mailer

import (
	"context"
	"crypto/rand"
	"crypto/tls"
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"net/textproto"
	"strings"

	"twofactor-service/internal/domain"
)

// Config configures the SMTP transport. Credentials are owned by the caller;
// nothing here is read from process-wide state.
type Config struct {
	// Host is the SMTP server hostname.
	Host string
	// Port is the SMTP server port.
	Port int
	// UseImplicitTLS dials a TLS connection directly (the 465 convention)
	// instead of upgrading via STARTTLS.
	UseImplicitTLS bool
	// AuthUser is the SMTP authentication username; empty disables auth.
	AuthUser string
	// AuthSecret is the SMTP authentication password.
	AuthSecret string
	// From is the sender address placed on outgoing messages.
	From string
}

// ErrHostPortRequired is returned when Host/Port are missing.
var ErrHostPortRequired = errors.New("smtp host and port are required")

// Mailer sends multipart/alternative messages over SMTP.
type Mailer struct {
	cfg  Config
	addr string
}

// NewMailer validates the transport configuration and returns a Mailer.
func NewMailer(cfg Config) (*Mailer, error) {
	if cfg.Host == "" || cfg.Port == 0 {
		return nil, ErrHostPortRequired
	}
	return &Mailer{
		cfg:  cfg,
		addr: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
	}, nil
}

// Send delivers one message. The ctx deadline bounds the whole exchange,
// including the dial; an expired ctx surfaces as a network error that callers
// treat as a failed delivery.
func (m *Mailer) Send(ctx context.Context, recipient, subject, htmlBody, textBody string) error {
	conn, err := m.dial(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			return err
		}
	}

	client, err := smtp.NewClient(conn, m.cfg.Host)
	if err != nil {
		return err
	}
	defer client.Quit()

	if !m.cfg.UseImplicitTLS {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(&tls.Config{ServerName: m.cfg.Host}); err != nil {
				return err
			}
		}
	}

	if m.cfg.AuthUser != "" && m.cfg.AuthSecret != "" {
		auth := smtp.PlainAuth("", m.cfg.AuthUser, m.cfg.AuthSecret, m.cfg.Host)
		if err := client.Auth(auth); err != nil {
			return err
		}
	}

	if err := client.Mail(m.cfg.From); err != nil {
		return err
	}
	if err := client.Rcpt(recipient); err != nil {
		return err
	}

	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(buildMessage(m.cfg.From, recipient, subject, htmlBody, textBody)); err != nil {
		return err
	}
	return w.Close()
}

func (m *Mailer) dial(ctx context.Context) (net.Conn, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", m.addr)
	if err != nil {
		return nil, err
	}

	if m.cfg.UseImplicitTLS {
		return tls.Client(conn, &tls.Config{ServerName: m.cfg.Host}), nil
	}
	return conn, nil
}

// ErrorClass labels a delivery failure for operational logging. The service
// reports every class as DELIVERY_FAILED; the distinction only matters to
// whoever reads the logs and decides whether a retry is worthwhile.
type ErrorClass string

const (
	// ClassTransient covers 4xx replies, network and timeout errors.
	ClassTransient ErrorClass = "transient"
	// ClassPermanent covers 5xx replies (bad recipient, rejected sender).
	ClassPermanent ErrorClass = "permanent"
)

// Classify maps a Send error to its operational class.
func Classify(err error) ErrorClass {
	var proto *textproto.Error
	if errors.As(err, &proto) && proto.Code >= 500 {
		return ClassPermanent
	}
	return ClassTransient
}

// buildMessage assembles a multipart/alternative payload so clients that
// refuse HTML still see the same facts in the text part.
func buildMessage(from, to, subject, htmlBody, textBody string) []byte {
	boundary := multipartBoundary()

	var sb strings.Builder
	fmt.Fprintf(&sb, "From: %s\r\n", from)
	fmt.Fprintf(&sb, "To: %s\r\n", to)
	fmt.Fprintf(&sb, "Subject: %s\r\n", subject)
	sb.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&sb, "Content-Type: multipart/alternative; boundary=%s\r\n", boundary)
	sb.WriteString("\r\n")

	sb.WriteString("This is a multipart message in MIME format.\r\n")
	fmt.Fprintf(&sb, "--%s\r\n", boundary)
	sb.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	sb.WriteString(textBody)
	sb.WriteString("\r\n")
	fmt.Fprintf(&sb, "--%s\r\n", boundary)
	sb.WriteString("Content-Type: text/html; charset=UTF-8\r\n\r\n")
	sb.WriteString(htmlBody)
	sb.WriteString("\r\n")
	fmt.Fprintf(&sb, "--%s--", boundary)

	return []byte(sb.String())
}

func multipartBoundary() string {
	var b [12]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "twofactor-boundary-fallback"
	}
	return "twofactor-boundary-" + hex.EncodeToString(b[:])
}

var _ domain.DeliveryChannel = (*Mailer)(nil)

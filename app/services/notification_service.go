// Package services provides external service integrations and technical concerns like mail delivery, notifications and tokens
package services

import (
	"bytes"
	"context"
	"crypto"
	"crypto/rsa"
	"fmt"
	"io"
	"log"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/emersion/go-msgauth/dkim"
	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
)

// Notification is an operator email such as a support inbox alert
type Notification struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// NotificationService delivers operator notifications
type NotificationService interface {
	Notify(ctx context.Context, n Notification) error
}

// SMTPConfig configures the relay used for notifications
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
	UseTLS   bool

	DKIMDomain        string
	DKIMSelector      string
	DKIMPrivateKeyPEM string
}

// SMTPNotifier composes MIME messages, optionally signs them with DKIM and relays them over SMTP
type SMTPNotifier struct {
	cfg    SMTPConfig
	dkim   *dkim.SignOptions
	sendFn func(addr string, a sasl.Client, from string, to []string, r io.Reader) error
}

// NewSMTPNotifier creates a notifier; a DKIM key is parsed up front so a bad key fails at startup
func NewSMTPNotifier(cfg SMTPConfig) (*SMTPNotifier, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("SMTP host is required")
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("SMTP from address is required")
	}

	n := &SMTPNotifier{cfg: cfg, sendFn: smtp.SendMail}
	if cfg.UseTLS {
		n.sendFn = smtp.SendMailTLS
	}

	if cfg.DKIMPrivateKeyPEM != "" {
		key, err := ParseRSAPrivateKey(cfg.DKIMPrivateKeyPEM)
		if err != nil {
			return nil, fmt.Errorf("failed to load DKIM key: %w", err)
		}
		n.dkim = dkimOptions(key, cfg.DKIMDomain, cfg.DKIMSelector)
	}

	return n, nil
}

func dkimOptions(key *rsa.PrivateKey, domain, selector string) *dkim.SignOptions {
	return &dkim.SignOptions{
		Domain:                 domain,
		Selector:               selector,
		Signer:                 key,
		Hash:                   crypto.SHA256,
		HeaderCanonicalization: dkim.CanonicalizationRelaxed,
		BodyCanonicalization:   dkim.CanonicalizationRelaxed,
	}
}

// Notify builds and relays one message
func (n *SMTPNotifier) Notify(ctx context.Context, msg Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	raw, err := n.compose(msg)
	if err != nil {
		return err
	}

	if n.dkim != nil {
		var signed bytes.Buffer
		if err := dkim.Sign(&signed, bytes.NewReader(raw), n.dkim); err != nil {
			return fmt.Errorf("failed to sign message: %w", err)
		}
		raw = signed.Bytes()
	}

	var auth sasl.Client
	if n.cfg.Username != "" {
		auth = sasl.NewPlainClient("", n.cfg.Username, n.cfg.Password)
	}

	addr := net.JoinHostPort(n.cfg.Host, strconv.Itoa(n.cfg.Port))
	if err := n.sendFn(addr, auth, n.cfg.From, []string{msg.To}, bytes.NewReader(raw)); err != nil {
		return fmt.Errorf("failed to relay notification: %w", err)
	}
	return nil
}

// compose writes a multipart/alternative message, or a single HTML part when there is no text
func (n *SMTPNotifier) compose(msg Notification) ([]byte, error) {
	var h mail.Header
	h.SetDate(time.Now())
	h.SetAddressList("From", []*mail.Address{{Name: n.cfg.FromName, Address: n.cfg.From}})
	h.SetAddressList("To", []*mail.Address{{Address: msg.To}})
	h.SetSubject(msg.Subject)
	if err := h.GenerateMessageIDWithHostname(senderDomain(n.cfg.From)); err != nil {
		return nil, fmt.Errorf("failed to generate message id: %w", err)
	}

	var buf bytes.Buffer

	if msg.Text == "" {
		h.SetContentType("text/html", map[string]string{"charset": "utf-8"})
		w, err := mail.CreateSingleInlineWriter(&buf, h)
		if err != nil {
			return nil, err
		}
		if _, err := io.WriteString(w, msg.HTML); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}

	mw, err := mail.CreateInlineWriter(&buf, h)
	if err != nil {
		return nil, err
	}

	parts := []struct {
		contentType string
		body        string
	}{
		{"text/plain", msg.Text},
		{"text/html", msg.HTML},
	}
	for _, p := range parts {
		var ph mail.InlineHeader
		ph.SetContentType(p.contentType, map[string]string{"charset": "utf-8"})
		pw, err := mw.CreatePart(ph)
		if err != nil {
			return nil, err
		}
		if _, err := io.WriteString(pw, p.body); err != nil {
			return nil, err
		}
		if err := pw.Close(); err != nil {
			return nil, err
		}
	}

	if err := mw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func senderDomain(address string) string {
	if i := strings.LastIndex(address, "@"); i >= 0 && i < len(address)-1 {
		return address[i+1:]
	}
	return "localhost"
}

// MockNotifier logs notifications and keeps them for inspection
type MockNotifier struct {
	mu   sync.Mutex
	Sent []Notification
	Err  error
}

func NewMockNotifier() *MockNotifier {
	return &MockNotifier{}
}

func (m *MockNotifier) Notify(ctx context.Context, n Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return m.Err
	}
	m.Sent = append(m.Sent, n)
	log.Printf("Notification sent to %s: %s", n.To, n.Subject)
	return nil
}

// Messages returns a copy of the recorded notifications
func (m *MockNotifier) Messages() []Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Notification(nil), m.Sent...)
}

package services

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"io"
	"testing"

	"github.com/emersion/go-sasl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedRelay struct {
	addr string
	auth sasl.Client
	from string
	to   []string
	raw  []byte
}

func captureRelay(n *SMTPNotifier) *capturedRelay {
	c := &capturedRelay{}
	n.sendFn = func(addr string, a sasl.Client, from string, to []string, r io.Reader) error {
		c.addr, c.auth, c.from, c.to = addr, a, from, to
		c.raw, _ = io.ReadAll(r)
		return nil
	}
	return c
}

func TestNewSMTPNotifier_Validation(t *testing.T) {
	_, err := NewSMTPNotifier(SMTPConfig{From: "support@acme.test"})
	assert.Error(t, err)

	_, err = NewSMTPNotifier(SMTPConfig{Host: "smtp.acme.test"})
	assert.Error(t, err)

	_, err = NewSMTPNotifier(SMTPConfig{Host: "smtp.acme.test", From: "support@acme.test", DKIMPrivateKeyPEM: "garbage"})
	assert.Error(t, err)
}

func TestSMTPNotifier_Notify(t *testing.T) {
	n, err := NewSMTPNotifier(SMTPConfig{
		Host:     "smtp.acme.test",
		Port:     587,
		Username: "relay",
		Password: "secret",
		From:     "support@acme.test",
		FromName: "Acme Support",
	})
	require.NoError(t, err)
	relay := captureRelay(n)

	err = n.Notify(context.Background(), Notification{
		To:      "inbox@acme.test",
		Subject: "New Support Ticket: Login",
		Text:    "cannot log in",
		HTML:    "<h2>New Support Ticket</h2>",
	})
	require.NoError(t, err)

	assert.Equal(t, "smtp.acme.test:587", relay.addr)
	assert.Equal(t, "support@acme.test", relay.from)
	assert.Equal(t, []string{"inbox@acme.test"}, relay.to)
	assert.NotNil(t, relay.auth)

	raw := string(relay.raw)
	assert.Contains(t, raw, "Subject: New Support Ticket: Login")
	assert.Contains(t, raw, "multipart/alternative")
	assert.Contains(t, raw, "text/plain")
	assert.Contains(t, raw, "<h2>New Support Ticket</h2>")
	assert.Contains(t, raw, "Message-Id:")
}

func TestSMTPNotifier_HTMLOnlyWithDKIM(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})

	n, err := NewSMTPNotifier(SMTPConfig{
		Host:              "smtp.acme.test",
		Port:              25,
		From:              "support@acme.test",
		DKIMDomain:        "acme.test",
		DKIMSelector:      "crm",
		DKIMPrivateKeyPEM: string(keyPEM),
	})
	require.NoError(t, err)
	relay := captureRelay(n)

	require.NoError(t, n.Notify(context.Background(), Notification{
		To:      "inbox@acme.test",
		Subject: "Support Message from Jane",
		HTML:    "<p>hello</p>",
	}))

	assert.Nil(t, relay.auth)
	assert.True(t, bytes.HasPrefix(relay.raw, []byte("Dkim-Signature:")) || bytes.HasPrefix(relay.raw, []byte("DKIM-Signature:")))
	assert.Contains(t, string(relay.raw), "d=acme.test")
	assert.Contains(t, string(relay.raw), "s=crm")
	assert.NotContains(t, string(relay.raw), "multipart/alternative")
}

func TestSMTPNotifier_CancelledContext(t *testing.T) {
	n, err := NewSMTPNotifier(SMTPConfig{Host: "smtp.acme.test", Port: 25, From: "support@acme.test"})
	require.NoError(t, err)
	relay := captureRelay(n)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, n.Notify(ctx, Notification{To: "inbox@acme.test"}), context.Canceled)
	assert.Nil(t, relay.raw)
}

func TestMockNotifier(t *testing.T) {
	m := NewMockNotifier()
	require.NoError(t, m.Notify(context.Background(), Notification{To: "a@b.co", Subject: "x"}))
	assert.Len(t, m.Messages(), 1)

	m.Err = assert.AnError
	assert.ErrorIs(t, m.Notify(context.Background(), Notification{}), assert.AnError)
	assert.Len(t, m.Messages(), 1)
}

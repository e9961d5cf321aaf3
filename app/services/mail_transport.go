package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

const (
	sendGridDefaultHost     = "https://api.sendgrid.com"
	sendGridMailEndpoint    = "/v3/mail/send"
	sendGridSendersEndpoint = "/v3/verified_senders"
)

// ErrTransportNotConfigured is returned when no provider API key is present
var ErrTransportNotConfigured = errors.New("SendGrid API key not configured")

// OutboundEmail is a single campaign email handed to the transport
type OutboundEmail struct {
	FromEmail string
	FromName  string
	ToEmail   string
	ToName    string
	Subject   string
	HTML      string
	Text      string
}

// MailTransport delivers one email per call
type MailTransport interface {
	Configured() bool
	Send(ctx context.Context, email OutboundEmail) error
}

// SenderVerifier checks sender addresses against the provider's verified senders
type SenderVerifier interface {
	IsVerified(ctx context.Context, email string) (bool, error)
}

// TransportError is a non-2xx answer from the provider
type TransportError struct {
	StatusCode int
	Message    string
}

func (e *TransportError) Error() string {
	return e.Message
}

// SendGridClient talks to the SendGrid v3 REST API
type SendGridClient struct {
	apiKey  string
	host    string
	timeout time.Duration
}

// NewSendGridClient creates a SendGrid client; an empty host selects the public API
func NewSendGridClient(apiKey, host string) *SendGridClient {
	if host == "" {
		host = sendGridDefaultHost
	}
	return &SendGridClient{
		apiKey: apiKey,
		host:   strings.TrimRight(host, "/"),
	}
}

// WithTimeout bounds every provider request; zero leaves the caller's deadline alone
func (c *SendGridClient) WithTimeout(timeout time.Duration) *SendGridClient {
	c.timeout = timeout
	return c
}

func (c *SendGridClient) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.timeout)
}

// Configured reports whether an API key is present
func (c *SendGridClient) Configured() bool {
	return c.apiKey != ""
}

// Send posts one message to /v3/mail/send
func (c *SendGridClient) Send(ctx context.Context, email OutboundEmail) error {
	if !c.Configured() {
		return ErrTransportNotConfigured
	}

	from := mail.NewEmail(email.FromName, email.FromEmail)
	to := mail.NewEmail(email.ToName, email.ToEmail)
	message := mail.NewSingleEmail(from, email.Subject, to, email.Text, email.HTML)

	req := sendgrid.GetRequest(c.apiKey, sendGridMailEndpoint, c.host)
	req.Method = rest.Post
	req.Body = mail.GetRequestBody(message)

	ctx, cancel := c.requestContext(ctx)
	defer cancel()

	resp, err := sendgrid.MakeRequestWithContext(ctx, req)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	return &TransportError{
		StatusCode: resp.StatusCode,
		Message:    sendGridErrorMessage(resp),
	}
}

type sendGridErrorBody struct {
	Errors []struct {
		Message string `json:"message"`
		Field   string `json:"field"`
	} `json:"errors"`
}

func sendGridErrorMessage(resp *rest.Response) string {
	var body sendGridErrorBody
	if err := json.Unmarshal([]byte(resp.Body), &body); err == nil && len(body.Errors) > 0 && body.Errors[0].Message != "" {
		return body.Errors[0].Message
	}
	return fmt.Sprintf("SendGrid status %d", resp.StatusCode)
}

type verifiedSendersBody struct {
	Results []struct {
		FromEmail string `json:"from_email"`
		Verified  bool   `json:"verified"`
	} `json:"results"`
}

// IsVerified looks the address up in /v3/verified_senders
func (c *SendGridClient) IsVerified(ctx context.Context, email string) (bool, error) {
	if !c.Configured() {
		return false, ErrTransportNotConfigured
	}

	req := sendgrid.GetRequest(c.apiKey, sendGridSendersEndpoint, c.host)
	req.Method = rest.Get

	ctx, cancel := c.requestContext(ctx)
	defer cancel()

	resp, err := sendgrid.MakeRequestWithContext(ctx, req)
	if err != nil {
		return false, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return false, &TransportError{StatusCode: resp.StatusCode, Message: sendGridErrorMessage(resp)}
	}

	var body verifiedSendersBody
	if err := json.Unmarshal([]byte(resp.Body), &body); err != nil {
		return false, fmt.Errorf("failed to decode verified senders: %w", err)
	}

	for _, sender := range body.Results {
		if strings.EqualFold(sender.FromEmail, email) && sender.Verified {
			return true, nil
		}
	}
	return false, nil
}

// MockMailTransport records every email and fails the addresses listed in Reject
type MockMailTransport struct {
	mu       sync.Mutex
	Sent     []OutboundEmail
	Reject   map[string]error
	Verified map[string]bool
	Disabled bool
}

// NewMockMailTransport creates an in-memory transport
func NewMockMailTransport() *MockMailTransport {
	return &MockMailTransport{
		Reject:   make(map[string]error),
		Verified: make(map[string]bool),
	}
}

func (m *MockMailTransport) Configured() bool {
	return !m.Disabled
}

func (m *MockMailTransport) Send(ctx context.Context, email OutboundEmail) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Sent = append(m.Sent, email)
	if err, ok := m.Reject[strings.ToLower(email.ToEmail)]; ok {
		return err
	}
	log.Printf("Mock email sent to %s: %s", email.ToEmail, email.Subject)
	return nil
}

func (m *MockMailTransport) IsVerified(ctx context.Context, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Verified[strings.ToLower(email)], nil
}

// Calls returns how many sends were attempted
func (m *MockMailTransport) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Sent)
}

// Package mail talks to the external email-delivery collaborator. Delivery
// is fire-and-forget from the ledger's point of view: a failed delivery is
// logged and never rolls back the issuance that triggered it.
package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Delivery describes one gift card code delivery request.
type Delivery struct {
	RecipientEmail string    `json:"recipient_email"`
	RecipientName  string    `json:"recipient_name,omitempty"`
	SenderName     string    `json:"sender_name,omitempty"`
	Message        string    `json:"message,omitempty"`
	Code           string    `json:"code"`
	Amount         float64   `json:"amount"`
	ExpiresAt      time.Time `json:"expires_at"`
}

// Mailer delivers a gift card code to its recipient.
type Mailer interface {
	Deliver(ctx context.Context, d Delivery) error
}

// HTTPMailer posts deliveries to the email service's HTTP endpoint.
type HTTPMailer struct {
	endpoint string
	client   *http.Client
}

// NewHTTPMailer constructs a mailer for the given delivery endpoint.
func NewHTTPMailer(endpoint string, timeout time.Duration) *HTTPMailer {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPMailer{
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

// Deliver posts the delivery payload. Any non-2xx response is an error.
func (m *HTTPMailer) Deliver(ctx context.Context, d Delivery) error {
	payload, errMarshal := json.Marshal(d)
	if errMarshal != nil {
		return fmt.Errorf("mail: marshal delivery: %w", errMarshal)
	}
	req, errReq := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewReader(payload))
	if errReq != nil {
		return fmt.Errorf("mail: build request: %w", errReq)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, errDo := m.client.Do(req)
	if errDo != nil {
		return fmt.Errorf("mail: deliver: %w", errDo)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("mail: delivery endpoint returned %d", resp.StatusCode)
	}
	return nil
}

// NopMailer discards deliveries. Used when no endpoint is configured.
type NopMailer struct{}

// Deliver does nothing.
func (NopMailer) Deliver(context.Context, Delivery) error { return nil }

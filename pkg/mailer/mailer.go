package mailer

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/webfolio/webfolio-api/pkg/circuitbreaker"
	"github.com/webfolio/webfolio-api/pkg/httpclient"
	"github.com/webfolio/webfolio-api/pkg/logger"
	"go.uber.org/zap"
)

// SendURL is the Resend send endpoint. Variable so tests can point the
// mailer at a local server.
var SendURL = "https://api.resend.com/emails"

// MockIDPrefix marks ids returned without a network call (delivery disabled).
const MockIDPrefix = "mock_"

// Message is an immutable email payload built once per accepted submission.
type Message struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	ReplyTo string   `json:"reply_to,omitempty"`
	Subject string   `json:"subject"`
	Text    string   `json:"text"`
}

// Sender delivers a message and returns the provider message id.
type Sender interface {
	Send(ctx context.Context, msg *Message) (string, error)
	Enabled() bool
}

type sendResponse struct {
	ID string `json:"id"`
}

type errorResponse struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

// Client sends email through the Resend HTTP API. When disabled (no API key
// or delivery switched off) it returns a deterministic mock id and performs
// no network call, so the pipeline stays testable without credentials.
type Client struct {
	apiKey     string
	enabled    bool
	httpClient httpclient.Client
	breaker    *gobreaker.CircuitBreaker
}

// NewClient creates a mailer client. Delivery is considered enabled only
// when the flag is set and an API key is present.
func NewClient(apiKey string, enabled bool, httpClient httpclient.Client) *Client {
	return &Client{
		apiKey:     apiKey,
		enabled:    enabled && apiKey != "",
		httpClient: httpClient,
		breaker:    circuitbreaker.NewCircuitBreaker(circuitbreaker.DefaultConfig("resend")),
	}
}

// Enabled reports whether real deliveries will be attempted.
func (c *Client) Enabled() bool {
	return c.enabled
}

// Send dispatches the message. The provider call runs inside a circuit
// breaker: an open breaker fails fast as a delivery error, it never retries.
func (c *Client) Send(ctx context.Context, msg *Message) (string, error) {
	if !c.enabled {
		return mockID(msg), nil
	}

	start := time.Now()
	id, err := circuitbreaker.Execute(c.breaker, func() (string, error) {
		return c.send(ctx, msg)
	})
	duration := time.Since(start).Seconds()

	if err != nil {
		logger.LogAPICall("resend", "send", "error", duration, zap.Error(err))
		return "", fmt.Errorf("email delivery failed: %w", circuitbreaker.FormatError("resend", err))
	}

	logger.LogAPICall("resend", "send", "success", duration, zap.String("message_id", id))
	return id, nil
}

func (c *Client) send(ctx context.Context, msg *Message) (string, error) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return "", fmt.Errorf("failed to encode email payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, SendURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to build send request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Provider error bodies are logged server-side only, never surfaced
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		var provider errorResponse
		_ = json.Unmarshal(body, &provider)
		logger.Warn("Email provider rejected send",
			zap.Int("status_code", resp.StatusCode),
			zap.String("provider_error", provider.Name))
		return "", fmt.Errorf("provider returned status %d", resp.StatusCode)
	}

	var result sendResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode send response: %w", err)
	}

	return result.ID, nil
}

// mockID derives a stable id from the payload so disabled-mode behavior is
// deterministic and distinguishable from real provider ids.
func mockID(msg *Message) string {
	h := sha256.New()
	h.Write([]byte(msg.Subject))
	h.Write([]byte(msg.Text))
	for _, to := range msg.To {
		h.Write([]byte(to))
	}
	return MockIDPrefix + hex.EncodeToString(h.Sum(nil))[:16]
}

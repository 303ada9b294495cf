package turnstile

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/webfolio/webfolio-api/pkg/httpclient"
)

// VerifyURL is Cloudflare's siteverify endpoint. Variable so tests can
// point the verifier at a local server.
var VerifyURL = "https://challenges.cloudflare.com/turnstile/v0/siteverify"

// Response represents the response from Cloudflare's Turnstile verification API
type Response struct {
	Success     bool     `json:"success"`
	ChallengeTS string   `json:"challenge_ts"`
	Hostname    string   `json:"hostname"`
	ErrorCodes  []string `json:"error-codes"`
	// Score is only present for managed challenges that report one
	Score *float64 `json:"score,omitempty"`
}

// Verifier handles Turnstile challenge verification
type Verifier struct {
	secretKey      string
	scoreThreshold float64
	httpClient     httpclient.Client
}

// NewVerifier creates a new Turnstile verifier.
// A scoreThreshold of 0 disables verification entirely (test/bypass mode).
func NewVerifier(secretKey string, scoreThreshold float64, httpClient httpclient.Client) *Verifier {
	return &Verifier{
		secretKey:      secretKey,
		scoreThreshold: scoreThreshold,
		httpClient:     httpClient,
	}
}

// Bypassed reports whether verification is disabled by configuration.
func (v *Verifier) Bypassed() bool {
	return v.scoreThreshold == 0
}

// Verify verifies a Turnstile token with Cloudflare's API.
// Any transport, decode or provider failure is a verification failure;
// the check is never silently skipped outside of bypass mode.
func (v *Verifier) Verify(token, remoteIP string) error {
	if v.Bypassed() {
		return nil
	}

	data := url.Values{}
	data.Set("secret", v.secretKey)
	data.Set("response", token)
	if remoteIP != "" {
		data.Set("remoteip", remoteIP)
	}

	resp, err := v.httpClient.Post(
		VerifyURL,
		"application/x-www-form-urlencoded",
		strings.NewReader(data.Encode()),
	)
	if err != nil {
		return fmt.Errorf("failed to verify turnstile token: %w", err)
	}
	defer resp.Body.Close()

	var result Response
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("failed to decode turnstile response: %w", err)
	}

	if !result.Success {
		return fmt.Errorf("turnstile verification failed: %s", strings.Join(result.ErrorCodes, ","))
	}

	// Score is optional in Turnstile responses; compare only when reported
	if result.Score != nil && *result.Score < v.scoreThreshold {
		return fmt.Errorf("turnstile score %.2f below threshold %.2f", *result.Score, v.scoreThreshold)
	}

	return nil
}

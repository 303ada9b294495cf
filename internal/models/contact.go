package models

import (
	"time"

	"github.com/google/uuid"
)

// ContactRequest represents a contact form submission from the client.
// The personname, nodoubledot and contactmessage rules are custom
// validators registered at startup (see handlers.RegisterValidators).
type ContactRequest struct {
	FirstName      string `json:"firstName" binding:"required,personname"`
	LastName       string `json:"lastName" binding:"required,personname"`
	Email          string `json:"email" binding:"required,email,nodoubledot"`
	Message        string `json:"message" binding:"required,contactmessage"`
	CsrfToken      string `json:"csrfToken" binding:"required"`
	TurnstileToken string `json:"turnstileToken" binding:"required"`
}

// ContactSubmission is the sanitized, validated form owned by the pipeline
// for the duration of one request.
type ContactSubmission struct {
	FirstName string
	LastName  string
	Email     string
	Message   string
	ClientIP  string
}

// ContactResponse represents the response after submitting a contact form
type ContactResponse struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// CsrfTokenResponse carries a freshly issued anti-forgery token.
type CsrfTokenResponse struct {
	Token string `json:"token"`
}

// ConfigCheckResponse reports whether required secrets are present without
// revealing any values.
type ConfigCheckResponse struct {
	Configured bool `json:"configured"`
}

// SubmissionRecord is an accepted submission as archived in the database.
// Reference is a public identifier safe to share in support correspondence
// without exposing sequential ids.
type SubmissionRecord struct {
	ID         int
	Reference  uuid.UUID
	FirstName  string
	LastName   string
	Email      string
	Message    string
	ClientIP   string
	DeliveryID string
	CreatedAt  time.Time
}

package services

import (
	"context"

	"github.com/webfolio/webfolio-api/internal/models"
	"github.com/webfolio/webfolio-api/internal/ratelimit"
)

// BotVerifier validates a challenge-response token against the external
// verification service. Implemented by pkg/turnstile.Verifier.
type BotVerifier interface {
	Verify(token, remoteIP string) error
	Bypassed() bool
}

// CsrfVerifier consumes single-use anti-forgery tokens.
type CsrfVerifier interface {
	VerifyAndConsume(ctx context.Context, token string) error
}

// QuotaChecker enforces one fixed-window quota tier.
type QuotaChecker interface {
	Check(ctx context.Context, tier ratelimit.Tier, identity string) (ratelimit.Decision, error)
}

// SubmissionArchive persists accepted submissions. A nil archive disables
// archiving (no database configured).
type SubmissionArchive interface {
	CreateSubmission(ctx context.Context, rec *models.SubmissionRecord) (int, error)
}

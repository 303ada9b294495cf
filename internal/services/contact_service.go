package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/webfolio/webfolio-api/config"
	"github.com/webfolio/webfolio-api/internal/models"
	"github.com/webfolio/webfolio-api/internal/ratelimit"
	apperrors "github.com/webfolio/webfolio-api/pkg/errors"
	"github.com/webfolio/webfolio-api/pkg/logger"
	"github.com/webfolio/webfolio-api/pkg/mailer"
	"github.com/webfolio/webfolio-api/pkg/metrics"
)

// SubmitResult carries the outcome details of an accepted or rejected
// submission. RetryAfter is set only for rate-limit rejections.
type SubmitResult struct {
	DeliveryID string
	RetryAfter time.Duration
}

// ContactService orchestrates the submission pipeline: CSRF, bot
// verification, IP then global rate limits, archive, email delivery.
// Stages run in that order and short-circuit on the first failure; no
// stage is ever retried within a request.
type ContactService struct {
	config  *config.Config
	csrf    CsrfVerifier
	bot     BotVerifier
	limiter QuotaChecker
	archive SubmissionArchive
	sender  mailer.Sender
	ipTier  ratelimit.Tier
	allTier ratelimit.Tier
}

// NewContactService creates a new contact service instance
func NewContactService(
	cfg *config.Config,
	csrf CsrfVerifier,
	bot BotVerifier,
	limiter QuotaChecker,
	archive SubmissionArchive,
	sender mailer.Sender,
) *ContactService {
	return &ContactService{
		config:  cfg,
		csrf:    csrf,
		bot:     bot,
		limiter: limiter,
		archive: archive,
		sender:  sender,
		ipTier: ratelimit.Tier{
			Scope:    "ip",
			Requests: cfg.RateLimit.IP.Requests,
			Window:   cfg.RateLimit.IP.Window,
		},
		allTier: ratelimit.Tier{
			Scope:    "global",
			Requests: cfg.RateLimit.Global.Requests,
			Window:   cfg.RateLimit.Global.Window,
		},
	}
}

// Submit runs the pipeline for one sanitized, field-validated submission.
// Returned errors wrap the pkg/errors sentinels so the handler can map
// each rejected stage to its HTTP status.
func (s *ContactService) Submit(ctx context.Context, sub *models.ContactSubmission, csrfToken, botToken string) (*SubmitResult, error) {
	// CSRF: single-use; a consumed or expired token is a security rejection
	if err := s.csrf.VerifyAndConsume(ctx, csrfToken); err != nil {
		metrics.ContactFormSubmissions.WithLabelValues("csrf_failed").Inc()
		logger.Warn("CSRF verification failed",
			zap.String("client_ip", sub.ClientIP),
			zap.Error(err))
		return nil, err
	}

	// Bot verification: provider or network failure rejects, never bypasses
	if err := s.bot.Verify(botToken, sub.ClientIP); err != nil {
		metrics.ContactFormSubmissions.WithLabelValues("captcha_failed").Inc()
		logger.Warn("Bot verification failed",
			zap.String("client_ip", sub.ClientIP),
			zap.Error(err))
		return nil, apperrors.SecurityError("bot verification failed")
	}

	// Rate limits: IP tier first, then the global ceiling
	if result, err := s.checkQuota(ctx, s.ipTier, sub.ClientIP); err != nil {
		return result, err
	}
	if result, err := s.checkQuota(ctx, s.allTier, ratelimit.GlobalIdentity); err != nil {
		return result, err
	}

	// Delivery
	msg := s.buildMessage(sub)
	deliveryID, err := s.sender.Send(ctx, msg)
	if err != nil {
		metrics.ContactFormSubmissions.WithLabelValues("delivery_failed").Inc()
		metrics.EmailDeliveries.WithLabelValues("error").Inc()
		logger.Error("Email delivery failed",
			zap.String("client_ip", sub.ClientIP),
			zap.Error(err))
		return nil, apperrors.DeliveryError("email send failed")
	}
	metrics.EmailDeliveries.WithLabelValues("success").Inc()

	// Archive is best-effort: a dead database must not bounce a delivered message
	if s.archive != nil {
		rec := &models.SubmissionRecord{
			FirstName:  sub.FirstName,
			LastName:   sub.LastName,
			Email:      sub.Email,
			Message:    sub.Message,
			ClientIP:   sub.ClientIP,
			DeliveryID: deliveryID,
		}
		if _, archiveErr := s.archive.CreateSubmission(ctx, rec); archiveErr != nil {
			metrics.SubmissionArchiveFailures.Inc()
			logger.Error("Failed to archive submission", zap.Error(archiveErr))
		}
	}

	metrics.ContactFormSubmissions.WithLabelValues("success").Inc()
	logger.Info("Contact form submission delivered",
		zap.String("client_ip", sub.ClientIP),
		zap.String("delivery_id", deliveryID))

	return &SubmitResult{DeliveryID: deliveryID}, nil
}

func (s *ContactService) checkQuota(ctx context.Context, tier ratelimit.Tier, identity string) (*SubmitResult, error) {
	decision, err := s.limiter.Check(ctx, tier, identity)
	if err != nil {
		// Fail-closed store outage: surface as a rate-limit rejection
		metrics.ContactFormSubmissions.WithLabelValues("rate_limited_" + tier.Scope).Inc()
		return &SubmitResult{RetryAfter: time.Until(decision.ResetAt)},
			apperrors.RateLimitError(tier.Scope)
	}
	if !decision.Allowed {
		metrics.ContactFormSubmissions.WithLabelValues("rate_limited_" + tier.Scope).Inc()
		logger.Warn("Submission rate limited",
			zap.String("scope", tier.Scope),
			zap.String("identity", identity),
			zap.Time("reset_at", decision.ResetAt))
		return &SubmitResult{RetryAfter: time.Until(decision.ResetAt)},
			apperrors.RateLimitError(tier.Scope)
	}
	return nil, nil
}

// buildMessage renders the immutable email payload. Fields were sanitized
// upstream, so the body is safe for HTML rendering by the mail client.
func (s *ContactService) buildMessage(sub *models.ContactSubmission) *mailer.Message {
	return &mailer.Message{
		From:    s.config.Email.From,
		To:      []string{s.config.Email.To},
		ReplyTo: sub.Email,
		Subject: fmt.Sprintf("New contact form submission from %s %s", sub.FirstName, sub.LastName),
		Text: fmt.Sprintf("Name: %s %s\nEmail: %s\nIP: %s\n\n%s",
			sub.FirstName, sub.LastName, sub.Email, sub.ClientIP, sub.Message),
	}
}

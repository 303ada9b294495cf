package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/webfolio/webfolio-api/internal/models"
	"github.com/webfolio/webfolio-api/internal/ratelimit"
	"github.com/webfolio/webfolio-api/internal/services"
	apperrors "github.com/webfolio/webfolio-api/pkg/errors"
)

func testSubmission() *models.ContactSubmission {
	return &models.ContactSubmission{
		FirstName: "Jane",
		LastName:  "Doe",
		Email:     "jane@example.com",
		Message:   "I would like to talk about a freelance project I am planning.",
		ClientIP:  "198.51.100.1",
	}
}

func allowedDecision() ratelimit.Decision {
	return ratelimit.Decision{Allowed: true, Remaining: 4, ResetAt: time.Now().Add(10 * time.Minute)}
}

func deniedDecision() ratelimit.Decision {
	return ratelimit.Decision{Allowed: false, Remaining: 0, ResetAt: time.Now().Add(10 * time.Minute)}
}

func TestContactService_Submit_Success(t *testing.T) {
	csrf := new(MockCsrfVerifier)
	bot := new(MockBotVerifier)
	quota := new(MockQuotaChecker)
	archive := new(MockSubmissionArchive)
	sender := new(MockSender)

	service := services.NewContactService(testConfig(), csrf, bot, quota, archive, sender)
	ctx := context.Background()
	sub := testSubmission()

	csrf.On("VerifyAndConsume", ctx, "csrf-token").Return(nil).Once()
	bot.On("Verify", "bot-token", sub.ClientIP).Return(nil).Once()
	quota.On("Check", ctx, mock.Anything, sub.ClientIP).Return(allowedDecision(), nil).Once()
	quota.On("Check", ctx, mock.Anything, ratelimit.GlobalIdentity).Return(allowedDecision(), nil).Once()
	sender.On("Send", ctx, mock.Anything).Return("msg_123", nil).Once()
	archive.On("CreateSubmission", ctx, mock.MatchedBy(func(rec *models.SubmissionRecord) bool {
		return rec.Email == sub.Email && rec.DeliveryID == "msg_123"
	})).Return(1, nil).Once()

	result, err := service.Submit(ctx, sub, "csrf-token", "bot-token")
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "msg_123", result.DeliveryID)

	csrf.AssertExpectations(t)
	bot.AssertExpectations(t)
	quota.AssertExpectations(t)
	sender.AssertExpectations(t)
	archive.AssertExpectations(t)
}

func TestContactService_Submit_CsrfRejected(t *testing.T) {
	csrf := new(MockCsrfVerifier)
	bot := new(MockBotVerifier)
	quota := new(MockQuotaChecker)
	sender := new(MockSender)

	service := services.NewContactService(testConfig(), csrf, bot, quota, nil, sender)
	ctx := context.Background()

	csrf.On("VerifyAndConsume", ctx, "stale-token").
		Return(apperrors.SecurityError("unknown or expired csrf token")).Once()

	result, err := service.Submit(ctx, testSubmission(), "stale-token", "bot-token")
	assert.Nil(t, result)
	assert.ErrorIs(t, err, apperrors.ErrSecurity)

	// Pipeline short-circuits: nothing past the failed stage runs
	bot.AssertNotCalled(t, "Verify")
	quota.AssertNotCalled(t, "Check")
	sender.AssertNotCalled(t, "Send")
}

func TestContactService_Submit_BotRejected(t *testing.T) {
	csrf := new(MockCsrfVerifier)
	bot := new(MockBotVerifier)
	quota := new(MockQuotaChecker)
	sender := new(MockSender)

	service := services.NewContactService(testConfig(), csrf, bot, quota, nil, sender)
	ctx := context.Background()
	sub := testSubmission()

	csrf.On("VerifyAndConsume", ctx, "csrf-token").Return(nil).Once()
	bot.On("Verify", "bot-token", sub.ClientIP).Return(errors.New("turnstile verification failed")).Once()

	result, err := service.Submit(ctx, sub, "csrf-token", "bot-token")
	assert.Nil(t, result)
	assert.ErrorIs(t, err, apperrors.ErrSecurity)

	quota.AssertNotCalled(t, "Check")
	sender.AssertNotCalled(t, "Send")
}

func TestContactService_Submit_IPRateLimited(t *testing.T) {
	csrf := new(MockCsrfVerifier)
	bot := new(MockBotVerifier)
	quota := new(MockQuotaChecker)
	sender := new(MockSender)

	service := services.NewContactService(testConfig(), csrf, bot, quota, nil, sender)
	ctx := context.Background()
	sub := testSubmission()

	csrf.On("VerifyAndConsume", ctx, "csrf-token").Return(nil).Once()
	bot.On("Verify", "bot-token", sub.ClientIP).Return(nil).Once()
	quota.On("Check", ctx, mock.Anything, sub.ClientIP).Return(deniedDecision(), nil).Once()

	result, err := service.Submit(ctx, sub, "csrf-token", "bot-token")
	assert.ErrorIs(t, err, apperrors.ErrRateLimited)
	require.NotNil(t, result)
	assert.Greater(t, result.RetryAfter, time.Duration(0))

	// The global tier is never consulted once the IP tier rejects
	quota.AssertNumberOfCalls(t, "Check", 1)
	sender.AssertNotCalled(t, "Send")
}

func TestContactService_Submit_GlobalRateLimited(t *testing.T) {
	csrf := new(MockCsrfVerifier)
	bot := new(MockBotVerifier)
	quota := new(MockQuotaChecker)
	sender := new(MockSender)

	service := services.NewContactService(testConfig(), csrf, bot, quota, nil, sender)
	ctx := context.Background()
	sub := testSubmission()

	csrf.On("VerifyAndConsume", ctx, "csrf-token").Return(nil).Once()
	bot.On("Verify", "bot-token", sub.ClientIP).Return(nil).Once()
	quota.On("Check", ctx, mock.Anything, sub.ClientIP).Return(allowedDecision(), nil).Once()
	quota.On("Check", ctx, mock.Anything, ratelimit.GlobalIdentity).Return(deniedDecision(), nil).Once()

	result, err := service.Submit(ctx, sub, "csrf-token", "bot-token")
	assert.ErrorIs(t, err, apperrors.ErrRateLimited)
	require.NotNil(t, result)
	assert.Greater(t, result.RetryAfter, time.Duration(0))

	sender.AssertNotCalled(t, "Send")
}

func TestContactService_Submit_DeliveryFailure(t *testing.T) {
	csrf := new(MockCsrfVerifier)
	bot := new(MockBotVerifier)
	quota := new(MockQuotaChecker)
	archive := new(MockSubmissionArchive)
	sender := new(MockSender)

	service := services.NewContactService(testConfig(), csrf, bot, quota, archive, sender)
	ctx := context.Background()
	sub := testSubmission()

	csrf.On("VerifyAndConsume", ctx, "csrf-token").Return(nil).Once()
	bot.On("Verify", "bot-token", sub.ClientIP).Return(nil).Once()
	quota.On("Check", ctx, mock.Anything, mock.Anything).Return(allowedDecision(), nil).Twice()
	sender.On("Send", ctx, mock.Anything).Return("", errors.New("provider returned status 500")).Once()

	result, err := service.Submit(ctx, sub, "csrf-token", "bot-token")
	assert.Nil(t, result)
	assert.ErrorIs(t, err, apperrors.ErrDelivery)

	// Nothing is archived for an undelivered message
	archive.AssertNotCalled(t, "CreateSubmission")
}

func TestContactService_Submit_ArchiveFailureDoesNotFailRequest(t *testing.T) {
	csrf := new(MockCsrfVerifier)
	bot := new(MockBotVerifier)
	quota := new(MockQuotaChecker)
	archive := new(MockSubmissionArchive)
	sender := new(MockSender)

	service := services.NewContactService(testConfig(), csrf, bot, quota, archive, sender)
	ctx := context.Background()
	sub := testSubmission()

	csrf.On("VerifyAndConsume", ctx, "csrf-token").Return(nil).Once()
	bot.On("Verify", "bot-token", sub.ClientIP).Return(nil).Once()
	quota.On("Check", ctx, mock.Anything, mock.Anything).Return(allowedDecision(), nil).Twice()
	sender.On("Send", ctx, mock.Anything).Return("msg_456", nil).Once()
	archive.On("CreateSubmission", ctx, mock.Anything).Return(0, errors.New("connection refused")).Once()

	result, err := service.Submit(ctx, sub, "csrf-token", "bot-token")
	require.NoError(t, err, "a dead archive must not bounce a delivered message")
	require.NotNil(t, result)
	assert.Equal(t, "msg_456", result.DeliveryID)
}

func TestContactService_Submit_NoArchiveConfigured(t *testing.T) {
	csrf := new(MockCsrfVerifier)
	bot := new(MockBotVerifier)
	quota := new(MockQuotaChecker)
	sender := new(MockSender)

	service := services.NewContactService(testConfig(), csrf, bot, quota, nil, sender)
	ctx := context.Background()
	sub := testSubmission()

	csrf.On("VerifyAndConsume", ctx, "csrf-token").Return(nil).Once()
	bot.On("Verify", "bot-token", sub.ClientIP).Return(nil).Once()
	quota.On("Check", ctx, mock.Anything, mock.Anything).Return(allowedDecision(), nil).Twice()
	sender.On("Send", ctx, mock.Anything).Return("msg_789", nil).Once()

	result, err := service.Submit(ctx, sub, "csrf-token", "bot-token")
	require.NoError(t, err)
	assert.Equal(t, "msg_789", result.DeliveryID)
}

func TestContactService_Submit_StoreOutageFailClosed(t *testing.T) {
	csrf := new(MockCsrfVerifier)
	bot := new(MockBotVerifier)
	quota := new(MockQuotaChecker)
	sender := new(MockSender)

	service := services.NewContactService(testConfig(), csrf, bot, quota, nil, sender)
	ctx := context.Background()
	sub := testSubmission()

	csrf.On("VerifyAndConsume", ctx, "csrf-token").Return(nil).Once()
	bot.On("Verify", "bot-token", sub.ClientIP).Return(nil).Once()
	quota.On("Check", ctx, mock.Anything, sub.ClientIP).
		Return(ratelimit.Decision{Allowed: false, ResetAt: time.Now().Add(10 * time.Minute)},
			errors.New("rate limit check failed: service unavailable")).Once()

	_, err := service.Submit(ctx, sub, "csrf-token", "bot-token")
	assert.ErrorIs(t, err, apperrors.ErrRateLimited,
		"a fail-closed store outage surfaces as a rate-limit rejection")

	sender.AssertNotCalled(t, "Send")
}

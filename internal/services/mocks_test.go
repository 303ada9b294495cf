package services_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/webfolio/webfolio-api/internal/models"
	"github.com/webfolio/webfolio-api/internal/ratelimit"
	"github.com/webfolio/webfolio-api/pkg/mailer"
)

// MockBotVerifier is a mock implementation of BotVerifier
type MockBotVerifier struct {
	mock.Mock
}

func (m *MockBotVerifier) Verify(token, remoteIP string) error {
	args := m.Called(token, remoteIP)
	return args.Error(0)
}

func (m *MockBotVerifier) Bypassed() bool {
	args := m.Called()
	return args.Bool(0)
}

// MockCsrfVerifier is a mock implementation of CsrfVerifier
type MockCsrfVerifier struct {
	mock.Mock
}

func (m *MockCsrfVerifier) VerifyAndConsume(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

// MockQuotaChecker is a mock implementation of QuotaChecker
type MockQuotaChecker struct {
	mock.Mock
}

func (m *MockQuotaChecker) Check(ctx context.Context, tier ratelimit.Tier, identity string) (ratelimit.Decision, error) {
	args := m.Called(ctx, tier, identity)
	return args.Get(0).(ratelimit.Decision), args.Error(1)
}

// MockSubmissionArchive is a mock implementation of SubmissionArchive
type MockSubmissionArchive struct {
	mock.Mock
}

func (m *MockSubmissionArchive) CreateSubmission(ctx context.Context, rec *models.SubmissionRecord) (int, error) {
	args := m.Called(ctx, rec)
	return args.Int(0), args.Error(1)
}

// MockSender is a mock implementation of mailer.Sender
type MockSender struct {
	mock.Mock
}

func (m *MockSender) Send(ctx context.Context, msg *mailer.Message) (string, error) {
	args := m.Called(ctx, msg)
	return args.String(0), args.Error(1)
}

func (m *MockSender) Enabled() bool {
	args := m.Called()
	return args.Bool(0)
}

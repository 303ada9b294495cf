package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/webfolio/webfolio-api/internal/kvstore"
	apperrors "github.com/webfolio/webfolio-api/pkg/errors"
	"github.com/webfolio/webfolio-api/pkg/logger"
	"github.com/webfolio/webfolio-api/pkg/metrics"
)

const (
	csrfKeyPrefix  = "csrf:"
	csrfTokenBytes = 32
)

// CsrfService issues and verifies single-use anti-forgery tokens. Tokens
// live in the shared store so verification works across instances; the
// store's atomic delete guarantees at most one successful consumption.
type CsrfService struct {
	store    kvstore.Store
	tokenTTL time.Duration
}

// NewCsrfService creates a CSRF token service.
func NewCsrfService(store kvstore.Store, tokenTTL time.Duration) *CsrfService {
	return &CsrfService{
		store:    store,
		tokenTTL: tokenTTL,
	}
}

// Issue generates a cryptographically random token, stores it with the
// configured TTL and returns it.
func (s *CsrfService) Issue(ctx context.Context) (string, error) {
	buf := make([]byte, csrfTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate csrf token: %w", err)
	}
	token := hex.EncodeToString(buf)

	if err := s.store.Set(ctx, csrfKeyPrefix+token, "1", s.tokenTTL); err != nil {
		return "", fmt.Errorf("failed to store csrf token: %w", err)
	}

	metrics.CsrfTokensIssued.Inc()
	return token, nil
}

// VerifyAndConsume checks the token and invalidates it. A token that was
// never issued, already consumed, or expired fails verification; two racing
// calls on the same token allow at most one success.
func (s *CsrfService) VerifyAndConsume(ctx context.Context, token string) error {
	if token == "" {
		return apperrors.SecurityError("missing csrf token")
	}

	existed, err := s.store.Delete(ctx, csrfKeyPrefix+token)
	if err != nil {
		// An unreachable store cannot prove the token; reject, don't bypass
		logger.Error("CSRF store unreachable", zap.Error(err))
		return apperrors.SecurityError("csrf verification unavailable")
	}
	if !existed {
		return apperrors.SecurityError("unknown or expired csrf token")
	}

	return nil
}

// IsSecurityError reports whether err is a security rejection (as opposed
// to an unexpected internal failure).
func IsSecurityError(err error) bool {
	return errors.Is(err, apperrors.ErrSecurity)
}

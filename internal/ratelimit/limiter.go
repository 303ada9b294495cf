// Package ratelimit enforces fixed-window submission quotas over the shared
// key-value store. Counters are keyed by scope, identity and window index,
// so a new window starts from zero without any explicit reset.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/webfolio/webfolio-api/internal/kvstore"
	apperrors "github.com/webfolio/webfolio-api/pkg/errors"
	"github.com/webfolio/webfolio-api/pkg/logger"
	"github.com/webfolio/webfolio-api/pkg/metrics"
)

// GlobalIdentity is the identity key for the service-wide quota shared by
// all clients.
const GlobalIdentity = "all"

// Decision reports the outcome of a quota check.
type Decision struct {
	Allowed   bool
	Remaining int64
	ResetAt   time.Time
}

// Tier is one quota: Requests per Window under a named scope.
type Tier struct {
	Scope    string
	Requests int64
	Window   time.Duration
}

// Limiter checks fixed-window quotas against a kvstore.Store.
//
// Accounting policy: increment-then-check. Every request that reaches the
// limiter consumes a window slot, including requests the limiter rejects,
// so probing while blocked never gains an abuser anything.
type Limiter struct {
	store    kvstore.Store
	failOpen bool
	now      func() time.Time
}

// New creates a limiter. failOpen controls behavior when the store is
// unreachable: allow (availability over abuse protection) or deny.
func New(store kvstore.Store, failOpen bool) *Limiter {
	return &Limiter{
		store:    store,
		failOpen: failOpen,
		now:      time.Now,
	}
}

// Check consumes one slot of the tier's quota for identity and reports
// whether the request may proceed.
func (l *Limiter) Check(ctx context.Context, tier Tier, identity string) (Decision, error) {
	now := l.now()
	windowIndex := now.UnixNano() / int64(tier.Window)
	resetAt := time.Unix(0, (windowIndex+1)*int64(tier.Window))
	key := fmt.Sprintf("ratelimit:%s:%s:%d", tier.Scope, identity, windowIndex)

	count, err := l.store.Increment(ctx, key, tier.Window)
	if err != nil {
		logger.Error("Rate limit store unreachable",
			zap.String("scope", tier.Scope),
			zap.Bool("fail_open", l.failOpen),
			zap.Error(err))

		if l.failOpen {
			return Decision{Allowed: true, Remaining: 0, ResetAt: resetAt}, nil
		}
		return Decision{Allowed: false, ResetAt: resetAt},
			fmt.Errorf("rate limit check failed: %w", apperrors.ErrUnavailable)
	}

	remaining := tier.Requests - count
	if remaining < 0 {
		remaining = 0
	}

	if count > tier.Requests {
		metrics.RateLimitRejections.WithLabelValues(tier.Scope).Inc()
		return Decision{Allowed: false, Remaining: 0, ResetAt: resetAt}, nil
	}

	return Decision{Allowed: true, Remaining: remaining, ResetAt: resetAt}, nil
}

// Package kvstore abstracts the shared mutable state behind the contact
// pipeline (CSRF tokens, rate-limit counters) so any atomic key-value
// backend can serve it: in-memory for tests and single-instance
// deployments, Redis when the service runs replicated.
package kvstore

import (
	"context"
	"errors"
	"time"

	"github.com/webfolio/webfolio-api/pkg/metrics"
)

// ErrNotFound is returned by Get when the key is absent or expired.
var ErrNotFound = errors.New("key not found")

// Store is the minimal contract the pipeline needs. Increment and Delete
// must be atomic: two concurrent requests against the same key must never
// both observe the same counter value, and a token key must be deletable
// by at most one caller.
type Store interface {
	// Get returns the value for key, or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value under key with the given TTL.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Increment atomically increments the counter at key and returns the
	// new value. The TTL is applied when the key is created.
	Increment(ctx context.Context, key string, ttl time.Duration) (int64, error)

	// Delete removes key and reports whether it existed.
	Delete(ctx context.Context, key string) (bool, error)

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error
}

// recordOp records store operation metrics, mirroring how database
// operations are instrumented elsewhere.
func recordOp(operation string, start time.Time, err error) {
	status := "success"
	if err != nil && !errors.Is(err, ErrNotFound) {
		status = "error"
	}
	duration := metrics.MeasureDuration(start)
	metrics.StoreOperationDuration.WithLabelValues(operation, status).Observe(duration)
	metrics.StoreOperationTotal.WithLabelValues(operation, status).Inc()
}

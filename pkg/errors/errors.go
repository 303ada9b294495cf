package errors

import (
	"errors"
	"fmt"
)

// Common application errors with proper types for error handling

var (
	// ErrValidation indicates the submission failed field validation
	ErrValidation = errors.New("validation failed")

	// ErrSecurity indicates a CSRF or bot-verification failure
	ErrSecurity = errors.New("security check failed")

	// ErrRateLimited indicates a rate limit quota was exhausted
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrDelivery indicates the email provider rejected or failed the send
	ErrDelivery = errors.New("delivery failed")

	// ErrConfiguration indicates missing or invalid configuration
	ErrConfiguration = errors.New("configuration error")

	// ErrUnavailable indicates a backing store or dependency is unreachable
	ErrUnavailable = errors.New("dependency unavailable")
)

// ValidationError creates a validation error with field context
func ValidationError(field, reason string) error {
	return fmt.Errorf("%s: %s: %w", field, reason, ErrValidation)
}

// SecurityError creates a security error with context
func SecurityError(reason string) error {
	if reason != "" {
		return fmt.Errorf("%s: %w", reason, ErrSecurity)
	}
	return ErrSecurity
}

// RateLimitError creates a rate limit error naming the exhausted scope
func RateLimitError(scope string) error {
	return fmt.Errorf("%s: %w", scope, ErrRateLimited)
}

// DeliveryError creates a delivery error with context
func DeliveryError(msg string) error {
	return fmt.Errorf("%s: %w", msg, ErrDelivery)
}

// ConfigurationError creates a configuration error with context
func ConfigurationError(msg string) error {
	return fmt.Errorf("%s: %w", msg, ErrConfiguration)
}

// Is checks if an error matches a target error (works with wrapped errors)
func Is(err, target error) bool {
	return errors.Is(err, target)
}

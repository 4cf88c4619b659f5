/**
 * @description
 * This file defines the typed error taxonomy raised by the platform API
 * client. Every call either resolves with a typed payload or fails with one
 * of these sentinels, so orchestrator components can branch with errors.Is
 * instead of inspecting status codes or response bodies.
 */
package platformapi

import (
	"errors"
	"fmt"
)

var (
	// ErrAuthenticationRequired means the call lacked valid credentials.
	ErrAuthenticationRequired = errors.New("authentication required")
	// ErrNotFound means the requested resource does not exist upstream.
	ErrNotFound = errors.New("not found")
	// ErrRateLimited means the platform rejected the call for throttling.
	ErrRateLimited = errors.New("rate limited")
	// ErrValidationFailed means the platform rejected client-supplied data.
	ErrValidationFailed = errors.New("validation failed")
	// ErrInsufficientBalance means a money operation exceeded the available balance.
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrVerificationFailed means a bank account could not be resolved.
	ErrVerificationFailed = errors.New("bank verification failed")
	// ErrServerError means the platform failed internally.
	ErrServerError = errors.New("platform server error")
	// ErrNetworkUnavailable means the call never reached the platform.
	ErrNetworkUnavailable = errors.New("network unavailable")
)

// APIError carries the upstream detail alongside the taxonomy sentinel it
// maps to. errors.Is(err, platformapi.ErrX) works through Unwrap.
type APIError struct {
	Kind    error
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("platform api: %s (status %d, code %q)", e.Message, e.Status, e.Code)
	}
	return fmt.Sprintf("platform api: %v (status %d)", e.Kind, e.Status)
}

func (e *APIError) Unwrap() error {
	return e.Kind
}

// kindForStatus maps an HTTP status to the taxonomy sentinel.
func kindForStatus(status int) error {
	switch {
	case status == 401 || status == 403:
		return ErrAuthenticationRequired
	case status == 404:
		return ErrNotFound
	case status == 429:
		return ErrRateLimited
	case status >= 400 && status < 500:
		return ErrValidationFailed
	default:
		return ErrServerError
	}
}

// kindForCode refines the sentinel from the machine-readable error code the
// platform includes in failure envelopes. Unknown codes keep the
// status-derived kind.
func kindForCode(code string, fallback error) error {
	switch code {
	case "insufficient_balance":
		return ErrInsufficientBalance
	case "verification_failed", "account_resolve_failed":
		return ErrVerificationFailed
	case "rate_limited":
		return ErrRateLimited
	case "not_found":
		return ErrNotFound
	case "unauthorized", "token_expired":
		return ErrAuthenticationRequired
	default:
		return fallback
	}
}

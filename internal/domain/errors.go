// internal/domain/errors.go

package domain

import "errors"

// Repository errors
var (
	ErrChallengeNotFound = errors.New("OTP_NOT_FOUND")
	ErrStoreUnavailable  = errors.New("STORE_UNAVAILABLE")
)

// Business logic errors
var (
	ErrChallengeExpired  = errors.New("OTP_EXPIRED")
	ErrChallengeConsumed = errors.New("OTP_CONSUMED")
	ErrCodeInvalid       = errors.New("OTP_INVALID")
	ErrTooManyAttempts   = errors.New("OTP_ATTEMPTS")
)

// Issuance and delivery errors
var (
	ErrEntropyUnavailable = errors.New("ENTROPY_UNAVAILABLE")
	ErrDeliveryFailed     = errors.New("DELIVERY_FAILED")
)

// IsNotFound checks if the error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrChallengeNotFound)
}

// IsVerificationError checks if the error is a verification outcome, i.e. the
// challenge exists but the submitted code must not be accepted.
func IsVerificationError(err error) bool {
	return errors.Is(err, ErrChallengeExpired) ||
		errors.Is(err, ErrChallengeConsumed) ||
		errors.Is(err, ErrCodeInvalid) ||
		errors.Is(err, ErrTooManyAttempts)
}

// IsInfrastructureError checks if the error is an infrastructure error
func IsInfrastructureError(err error) bool {
	return errors.Is(err, ErrStoreUnavailable) ||
		errors.Is(err, ErrEntropyUnavailable)
}

// Error messages for human readable output
var ErrorMessages = map[string]string{
	"OTP_NOT_FOUND":       "No active challenge, request a new code",
	"STORE_UNAVAILABLE":   "Challenge store is unavailable",
	"OTP_EXPIRED":         "Code has expired",
	"OTP_CONSUMED":        "Code was already used",
	"OTP_INVALID":         "Invalid code",
	"OTP_ATTEMPTS":        "Maximum verification attempts reached",
	"ENTROPY_UNAVAILABLE": "Secure random source is unavailable",
	"DELIVERY_FAILED":     "Message could not be delivered",
}

// internal/domain/challenge.go

package domain

import "time"

// Challenge is one outstanding verification challenge for an account. At most
// one active challenge exists per account; issuing a new one supersedes the
// previous record even if it had not expired.
type Challenge struct {
	AccountID    string    `json:"account_id"`
	ChallengeID  string    `json:"challenge_id"`
	Code         string    `json:"-"`
	IssuedAt     time.Time `json:"issued_at"`
	ExpiresAt    time.Time `json:"expires_at"`
	AttemptCount int       `json:"attempt_count"`
	AttemptLimit int       `json:"attempt_limit"`
	Consumed     bool      `json:"consumed"`
}

// Expired reports whether the challenge is past its validity window at now.
func (c *Challenge) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// Locked reports whether the attempt cap has been reached.
func (c *Challenge) Locked() bool {
	return c.AttemptCount >= c.AttemptLimit
}

// DeliveryStatus describes the outcome of a single delivery attempt.
type DeliveryStatus string

const (
	DeliveryDelivered DeliveryStatus = "DELIVERED"
	DeliveryFailed    DeliveryStatus = "DELIVERY_FAILED"
)

// IssueResult is returned to the caller after a challenge was issued. The
// stored challenge stays verifiable even when Delivery reports a failure, so
// the caller may retry delivery without invalidating the code.
type IssueResult struct {
	ChallengeID string         `json:"challenge_id"`
	ExpiresAt   time.Time      `json:"expires_at"`
	Delivery    DeliveryStatus `json:"delivery"`
}

// NotificationMethod names the second factor a security notification refers to.
type NotificationMethod string

const (
	MethodEmailOTP         NotificationMethod = "Email OTP"
	MethodAuthenticatorApp NotificationMethod = "Authenticator App"
)

// NotificationEvent is a one-shot security notification (e.g. "2FA enabled").
// It has no lifecycle beyond the single delivery attempt.
type NotificationEvent struct {
	Recipient   string
	DisplayName string
	Method      NotificationMethod
}

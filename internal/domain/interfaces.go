// internal/domain/interfaces.go

package domain

import (
	"context"
	"time"
)

// ChallengeStore tracks outstanding challenges keyed by account. Put,
// RecordAttempt and Consume on the same account are linearizable with respect
// to each other; operations on different accounts are independent.
type ChallengeStore interface {
	// Put stores a new challenge and atomically supersedes any prior record
	// for the account, making the old code permanently unverifiable.
	Put(ctx context.Context, challenge *Challenge, validity time.Duration) error

	// Get is a read-only lookup; returns ErrChallengeNotFound when no record
	// exists (or the expired record has already been reclaimed).
	Get(ctx context.Context, accountID string) (*Challenge, error)

	// RecordAttempt increments the failed-attempt counter of the identified
	// challenge. Once the cap is reached it returns the count alongside
	// ErrTooManyAttempts without incrementing further. A challengeID that no
	// longer matches the live record (the challenge was superseded) returns
	// ErrChallengeNotFound so a stale verify never burns a fresh attempt.
	RecordAttempt(ctx context.Context, accountID, challengeID string) (int, error)

	// Consume marks the identified challenge consumed. Exactly one Consume
	// succeeds per challenge; later calls return ErrChallengeConsumed, a
	// challenge past its window returns ErrChallengeExpired, and a stale
	// challengeID returns ErrChallengeNotFound rather than consuming the
	// record that superseded it.
	Consume(ctx context.Context, accountID, challengeID string) error

	// Ping checks if the store is reachable.
	Ping(ctx context.Context) error
}

// CodeGenerator produces a fixed-length numeric code from a secure random
// source. It fails with ErrEntropyUnavailable when the source cannot be read.
type CodeGenerator interface {
	Generate() (string, error)
}

// DeliveryChannel pushes a rendered message to a user out of band. Send blocks
// until delivered or ctx expires; the service never holds store state across a
// Send call.
type DeliveryChannel interface {
	Send(ctx context.Context, recipient, subject, htmlBody, textBody string) error
}

type ChallengeService interface {
	Issue(ctx context.Context, accountID, recipient, displayName string) (*IssueResult, error)
	Verify(ctx context.Context, accountID, code string) error
	NotifySecurityEvent(ctx context.Context, event NotificationEvent) error
}

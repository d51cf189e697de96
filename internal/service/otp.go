// internal/service/otp.go

package service

import (
	"context"
	"crypto/subtle"
	"fmt"
	"time"

	"github.com/google/uuid"

	"twofactor-service/internal/domain"
	"twofactor-service/internal/mailer"
	"twofactor-service/internal/template"
	"twofactor-service/pkg/logger"
)

// Options carries the issuance policy.
type Options struct {
	Validity        time.Duration
	DeliveryTimeout time.Duration
	MaxAttempts     int
}

type challengeService struct {
	generator domain.CodeGenerator
	store     domain.ChallengeStore
	channel   domain.DeliveryChannel
	opts      Options
	now       func() time.Time
}

// ServiceOption configures the service.
type ServiceOption func(*challengeService)

// WithClock replaces the wall clock, used by tests to simulate expiry.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *challengeService) {
		s.now = now
	}
}

// NewChallengeService wires the generator, store and delivery channel into the
// caller-facing lifecycle operations.
func NewChallengeService(generator domain.CodeGenerator, store domain.ChallengeStore, channel domain.DeliveryChannel, opts Options, sopts ...ServiceOption) domain.ChallengeService {
	s := &challengeService{
		generator: generator,
		store:     store,
		channel:   channel,
		opts:      opts,
		now:       time.Now,
	}
	for _, opt := range sopts {
		opt(s)
	}
	return s
}

// Issue generates a code, stores it and sends it to the recipient. The store
// write happens before delivery starts, so the code is verifiable even while
// the outbound message is in flight. A delivery failure does not roll the
// record back: the result reports DELIVERY_FAILED and the caller may retry.
func (s *challengeService) Issue(ctx context.Context, accountID, recipient, displayName string) (*domain.IssueResult, error) {
	code, err := s.generator.Generate()
	if err != nil {
		// Entropy failure is fatal to the request, never degraded.
		return nil, err
	}

	challenge := &domain.Challenge{
		AccountID:    accountID,
		ChallengeID:  uuid.New().String(),
		Code:         code,
		AttemptLimit: s.opts.MaxAttempts,
	}

	if err := s.store.Put(ctx, challenge, s.opts.Validity); err != nil {
		logger.WithFields(map[string]interface{}{
			"account_id":   accountID,
			"challenge_id": challenge.ChallengeID,
		}).Error("Failed to store challenge: ", err)
		return nil, err
	}

	result := &domain.IssueResult{
		ChallengeID: challenge.ChallengeID,
		ExpiresAt:   challenge.ExpiresAt,
		Delivery:    domain.DeliveryDelivered,
	}

	if err := s.deliverChallenge(ctx, recipient, displayName, code); err != nil {
		result.Delivery = domain.DeliveryFailed
	}

	return result, nil
}

func (s *challengeService) deliverChallenge(ctx context.Context, recipient, displayName, code string) error {
	msg, err := template.RenderChallenge(displayName, code, s.opts.Validity)
	if err != nil {
		logger.Error("Failed to render challenge message: ", err)
		return err
	}

	if err := s.send(ctx, recipient, msg, "challenge"); err != nil {
		return err
	}
	return nil
}

// Verify checks a submitted code against the account's active challenge.
// It returns nil on success and one of the domain sentinels otherwise; the
// caller learns nothing beyond the enum.
func (s *challengeService) Verify(ctx context.Context, accountID, submittedCode string) error {
	challenge, err := s.store.Get(ctx, accountID)
	if err != nil {
		return err
	}

	// Expiry short-circuits without burning an attempt.
	if challenge.Expired(s.now()) {
		return domain.ErrChallengeExpired
	}
	if challenge.Consumed {
		return domain.ErrChallengeConsumed
	}
	if challenge.Locked() {
		return domain.ErrTooManyAttempts
	}

	// Attempts and consumption are keyed to the record that was read, so a
	// re-issue landing after the Get cannot be burned or consumed by a code
	// that only matched the superseded snapshot.
	if subtle.ConstantTimeCompare([]byte(challenge.Code), []byte(submittedCode)) != 1 {
		count, err := s.store.RecordAttempt(ctx, accountID, challenge.ChallengeID)
		if err != nil {
			return err
		}
		if count >= challenge.AttemptLimit {
			return domain.ErrTooManyAttempts
		}
		return domain.ErrCodeInvalid
	}

	// A racing re-issue or concurrent verify loses here; propagate the store's
	// verdict instead of claiming success.
	if err := s.store.Consume(ctx, accountID, challenge.ChallengeID); err != nil {
		return err
	}

	logger.WithFields(map[string]interface{}{
		"account_id":   accountID,
		"challenge_id": challenge.ChallengeID,
	}).Info("Challenge verified")
	return nil
}

// NotifySecurityEvent sends a non-secret confirmation message. Failures never
// touch OTP state; the caller gets DELIVERY_FAILED and decides what to do.
func (s *challengeService) NotifySecurityEvent(ctx context.Context, event domain.NotificationEvent) error {
	msg, err := template.RenderSecurityEvent(event.DisplayName, event.Method)
	if err != nil {
		logger.Error("Failed to render security event message: ", err)
		return fmt.Errorf("%w: %v", domain.ErrDeliveryFailed, err)
	}

	if err := s.send(ctx, event.Recipient, msg, "security_event"); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrDeliveryFailed, err)
	}
	return nil
}

// send pushes one rendered message through the channel under the configured
// timeout. The code plaintext never reaches the log fields.
func (s *challengeService) send(ctx context.Context, recipient string, msg *template.Message, kind string) error {
	sendCtx, cancel := context.WithTimeout(ctx, s.opts.DeliveryTimeout)
	defer cancel()

	if err := s.channel.Send(sendCtx, recipient, msg.Subject, msg.HTMLBody, msg.TextBody); err != nil {
		logger.WithFields(map[string]interface{}{
			"recipient": recipient,
			"kind":      kind,
			"class":     mailer.Classify(err),
		}).Warn("Delivery failed: ", err)
		return err
	}

	logger.WithFields(map[string]interface{}{
		"recipient": recipient,
		"kind":      kind,
	}).Debug("Message delivered")
	return nil
}

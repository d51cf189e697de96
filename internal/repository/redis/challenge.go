// internal/repository/redis/challenge.go

package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"twofactor-service/internal/domain"
)

// Store is a Redis-backed ChallengeStore. Each account maps to one hash; Redis
// executing commands and scripts serially gives the per-account
// linearizability the service relies on, and the key TTL (validity plus
// grace) reclaims expired records without a sweeper.
type Store struct {
	client    *redis.Client
	keyPrefix string
	grace     time.Duration
}

// recordAttempt stops the counter at the limit so the cap is idempotent.
// ARGV[1] is the challenge id the caller read; a mismatch means the record was
// superseded and counts as missing. Replies {-1, 0} for missing, {0, count}
// once capped, {1, count} after a recorded attempt.
var recordAttemptScript = redis.NewScript(`
if redis.call('HGET', KEYS[1], 'challenge_id') ~= ARGV[1] then
  return {-1, 0}
end
local limit = tonumber(redis.call('HGET', KEYS[1], 'attempt_limit'))
local count = tonumber(redis.call('HGET', KEYS[1], 'attempt_count'))
if count >= limit then
  return {0, count}
end
return {1, redis.call('HINCRBY', KEYS[1], 'attempt_count', 1)}
`)

// consume marks the challenge used exactly once. ARGV[1] is the challenge id
// the caller read, so a record that superseded it cannot be consumed by the
// stale code; ARGV[2] carries the caller's clock so expiry and verification
// agree on "now".
var consumeScript = redis.NewScript(`
if redis.call('HGET', KEYS[1], 'challenge_id') ~= ARGV[1] then
  return 'NOT_FOUND'
end
local expires = redis.call('HGET', KEYS[1], 'expires_at')
if tonumber(ARGV[2]) > tonumber(expires) then
  return 'EXPIRED'
end
if redis.call('HGET', KEYS[1], 'consumed') == '1' then
  return 'CONSUMED'
end
redis.call('HSET', KEYS[1], 'consumed', '1')
return 'OK'
`)

func NewStore(client *redis.Client, keyPrefix string, grace time.Duration) *Store {
	return &Store{
		client:    client,
		keyPrefix: keyPrefix,
		grace:     grace,
	}
}

func (s *Store) key(accountID string) string {
	if s.keyPrefix != "" {
		return fmt.Sprintf("%s:challenge:%s", s.keyPrefix, accountID)
	}
	return fmt.Sprintf("challenge:%s", accountID)
}

func (s *Store) Put(ctx context.Context, challenge *domain.Challenge, validity time.Duration) error {
	now := time.Now()
	challenge.IssuedAt = now
	challenge.ExpiresAt = now.Add(validity)

	key := s.key(challenge.AccountID)
	fields := map[string]interface{}{
		"challenge_id":  challenge.ChallengeID,
		"code":          challenge.Code,
		"issued_at":     challenge.IssuedAt.Unix(),
		"expires_at":    challenge.ExpiresAt.Unix(),
		"attempt_count": challenge.AttemptCount,
		"attempt_limit": challenge.AttemptLimit,
		"consumed":      boolField(challenge.Consumed),
	}

	// DEL+HSET+EXPIRE in one transaction: the old record disappears in the
	// same step the new one becomes verifiable.
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key, fields)
	pipe.Expire(ctx, key, validity+s.grace)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}

	return nil
}

func (s *Store) Get(ctx context.Context, accountID string) (*domain.Challenge, error) {
	fields, err := s.client.HGetAll(ctx, s.key(accountID)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	if len(fields) == 0 {
		return nil, domain.ErrChallengeNotFound
	}

	return parseChallenge(accountID, fields)
}

func (s *Store) RecordAttempt(ctx context.Context, accountID, challengeID string) (int, error) {
	res, err := recordAttemptScript.Run(ctx, s.client, []string{s.key(accountID)}, challengeID).Int64Slice()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	if len(res) != 2 {
		return 0, fmt.Errorf("%w: unexpected attempt script reply", domain.ErrStoreUnavailable)
	}

	count := int(res[1])
	switch res[0] {
	case -1:
		return 0, domain.ErrChallengeNotFound
	case 0:
		return count, domain.ErrTooManyAttempts
	default:
		return count, nil
	}
}

func (s *Store) Consume(ctx context.Context, accountID, challengeID string) error {
	now := strconv.FormatInt(time.Now().Unix(), 10)
	res, err := consumeScript.Run(ctx, s.client, []string{s.key(accountID)}, challengeID, now).Text()
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}

	switch res {
	case "NOT_FOUND":
		return domain.ErrChallengeNotFound
	case "EXPIRED":
		return domain.ErrChallengeExpired
	case "CONSUMED":
		return domain.ErrChallengeConsumed
	default:
		return nil
	}
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}

func boolField(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func parseChallenge(accountID string, fields map[string]string) (*domain.Challenge, error) {
	issuedAt, err := strconv.ParseInt(fields["issued_at"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: bad issued_at: %v", domain.ErrStoreUnavailable, err)
	}
	expiresAt, err := strconv.ParseInt(fields["expires_at"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: bad expires_at: %v", domain.ErrStoreUnavailable, err)
	}
	attemptCount, err := strconv.Atoi(fields["attempt_count"])
	if err != nil {
		return nil, fmt.Errorf("%w: bad attempt_count: %v", domain.ErrStoreUnavailable, err)
	}
	attemptLimit, err := strconv.Atoi(fields["attempt_limit"])
	if err != nil {
		return nil, fmt.Errorf("%w: bad attempt_limit: %v", domain.ErrStoreUnavailable, err)
	}

	return &domain.Challenge{
		AccountID:    accountID,
		ChallengeID:  fields["challenge_id"],
		Code:         fields["code"],
		IssuedAt:     time.Unix(issuedAt, 0),
		ExpiresAt:    time.Unix(expiresAt, 0),
		AttemptCount: attemptCount,
		AttemptLimit: attemptLimit,
		Consumed:     fields["consumed"] == "1",
	}, nil
}

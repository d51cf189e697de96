package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"twofactor-service/internal/domain"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewStore(client, "2fa", 5*time.Minute), mr
}

func newChallenge(accountID, code string) *domain.Challenge {
	return &domain.Challenge{
		AccountID:    accountID,
		ChallengeID:  "chal-" + code,
		Code:         code,
		AttemptLimit: 5,
	}
}

func TestKeyPrefixing(t *testing.T) {
	tests := []struct {
		name     string
		prefix   string
		account  string
		expected string
	}{
		{
			name:     "With prefix",
			prefix:   "2fa",
			account:  "u1",
			expected: "2fa:challenge:u1",
		},
		{
			name:     "Without prefix",
			prefix:   "",
			account:  "u1",
			expected: "challenge:u1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore(nil, tt.prefix, time.Minute)
			assert.Equal(t, tt.expected, s.key(tt.account))
		})
	}
}

func TestPut_RoundTripAndTTL(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, newChallenge("u1", "482913"), 10*time.Minute))

	got, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "482913", got.Code)
	assert.Equal(t, "chal-482913", got.ChallengeID)
	assert.Equal(t, 0, got.AttemptCount)
	assert.Equal(t, 5, got.AttemptLimit)
	assert.False(t, got.Consumed)

	// Key TTL covers validity plus grace so the grace window can still answer.
	assert.Equal(t, 15*time.Minute, mr.TTL("2fa:challenge:u1"))
}

func TestPut_SupersedesPriorRecord(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, newChallenge("u1", "111111"), 10*time.Minute))
	_, err := store.RecordAttempt(ctx, "u1", "chal-111111")
	require.NoError(t, err)

	require.NoError(t, store.Put(ctx, newChallenge("u1", "222222"), 10*time.Minute))

	got, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "222222", got.Code, "old code must be unverifiable after re-issue")
	assert.Equal(t, 0, got.AttemptCount, "supersede resets the attempt counter")
}

func TestGet_NotFound(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.Get(context.Background(), "unknown")
	assert.ErrorIs(t, err, domain.ErrChallengeNotFound)
}

func TestRecordAttempt_CapIsSticky(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	ch := newChallenge("u2", "482913")
	ch.AttemptLimit = 3
	require.NoError(t, store.Put(ctx, ch, 10*time.Minute))

	for i := 1; i <= 3; i++ {
		count, err := store.RecordAttempt(ctx, "u2", "chal-482913")
		require.NoError(t, err)
		assert.Equal(t, i, count)
	}

	// At the cap the counter no longer moves and the count is still reported.
	count, err := store.RecordAttempt(ctx, "u2", "chal-482913")
	assert.ErrorIs(t, err, domain.ErrTooManyAttempts)
	assert.Equal(t, 3, count)

	count, err = store.RecordAttempt(ctx, "u2", "chal-482913")
	assert.ErrorIs(t, err, domain.ErrTooManyAttempts)
	assert.Equal(t, 3, count)
}

func TestRecordAttempt_StaleChallengeID(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, newChallenge("u2", "111111"), 10*time.Minute))
	require.NoError(t, store.Put(ctx, newChallenge("u2", "222222"), 10*time.Minute))

	_, err := store.RecordAttempt(ctx, "u2", "chal-111111")
	assert.ErrorIs(t, err, domain.ErrChallengeNotFound)

	// The fresh challenge pays nothing for the stale attempt.
	got, err := store.Get(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, 0, got.AttemptCount)
}

func TestRecordAttempt_MissingRecord(t *testing.T) {
	store, _ := newTestStore(t)

	_, err := store.RecordAttempt(context.Background(), "unknown", "chal-482913")
	assert.ErrorIs(t, err, domain.ErrChallengeNotFound)
}

func TestConsume_ExactlyOnce(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, newChallenge("u3", "482913"), 10*time.Minute))

	require.NoError(t, store.Consume(ctx, "u3", "chal-482913"))
	assert.ErrorIs(t, store.Consume(ctx, "u3", "chal-482913"), domain.ErrChallengeConsumed)
}

func TestConsume_StaleChallengeID(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, newChallenge("u3", "111111"), 10*time.Minute))
	require.NoError(t, store.Put(ctx, newChallenge("u3", "222222"), 10*time.Minute))

	// The superseded identity can no longer consume anything.
	assert.ErrorIs(t, store.Consume(ctx, "u3", "chal-111111"), domain.ErrChallengeNotFound)

	got, err := store.Get(ctx, "u3")
	require.NoError(t, err)
	assert.False(t, got.Consumed, "the live record was untouched by the stale call")
	require.NoError(t, store.Consume(ctx, "u3", "chal-222222"))
}

func TestConsume_Expired(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	// A validity in the past puts the record straight into the grace window.
	require.NoError(t, store.Put(ctx, newChallenge("u4", "482913"), -time.Minute))

	assert.ErrorIs(t, store.Consume(ctx, "u4", "chal-482913"), domain.ErrChallengeExpired)
}

func TestConsume_MissingRecord(t *testing.T) {
	store, _ := newTestStore(t)

	err := store.Consume(context.Background(), "unknown", "chal-482913")
	assert.ErrorIs(t, err, domain.ErrChallengeNotFound)
}

func TestParseChallenge(t *testing.T) {
	fields := map[string]string{
		"challenge_id":  "c-1",
		"code":          "482913",
		"issued_at":     "1788177600",
		"expires_at":    "1788178200",
		"attempt_count": "2",
		"attempt_limit": "5",
		"consumed":      "0",
	}

	ch, err := parseChallenge("u1", fields)
	require.NoError(t, err)
	assert.Equal(t, "u1", ch.AccountID)
	assert.Equal(t, "c-1", ch.ChallengeID)
	assert.Equal(t, "482913", ch.Code)
	assert.Equal(t, 2, ch.AttemptCount)
	assert.Equal(t, 5, ch.AttemptLimit)
	assert.False(t, ch.Consumed)
	assert.Equal(t, int64(600), ch.ExpiresAt.Unix()-ch.IssuedAt.Unix())
}

func TestParseChallenge_Corrupt(t *testing.T) {
	_, err := parseChallenge("u1", map[string]string{"expires_at": "x"})
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
}

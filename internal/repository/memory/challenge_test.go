package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"twofactor-service/internal/domain"
)

func newChallenge(accountID, code string) *domain.Challenge {
	return &domain.Challenge{
		AccountID:    accountID,
		ChallengeID:  "chal-" + code,
		Code:         code,
		AttemptLimit: 5,
	}
}

func TestPut_SetsWindow(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	store := NewStore(time.Minute, WithClock(func() time.Time { return now }))

	ch := newChallenge("u1", "482913")
	require.NoError(t, store.Put(context.Background(), ch, 10*time.Minute))

	assert.Equal(t, now, ch.IssuedAt)
	assert.Equal(t, now.Add(10*time.Minute), ch.ExpiresAt)

	got, err := store.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "482913", got.Code)
	assert.Equal(t, 0, got.AttemptCount)
}

func TestGet_NotFound(t *testing.T) {
	store := NewStore(time.Minute)

	_, err := store.Get(context.Background(), "unknown")
	assert.ErrorIs(t, err, domain.ErrChallengeNotFound)
}

func TestPut_SupersedesPriorRecord(t *testing.T) {
	store := NewStore(time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, newChallenge("u1", "111111"), 10*time.Minute))
	require.NoError(t, store.Put(ctx, newChallenge("u1", "222222"), 10*time.Minute))

	got, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "222222", got.Code, "old code must be unverifiable after re-issue")
	assert.False(t, got.Consumed)
	assert.Equal(t, 0, got.AttemptCount, "supersede resets the attempt counter")
}

func TestConsume_ExactlyOnce(t *testing.T) {
	store := NewStore(time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, newChallenge("u1", "482913"), 10*time.Minute))

	require.NoError(t, store.Consume(ctx, "u1", "chal-482913"))
	assert.ErrorIs(t, store.Consume(ctx, "u1", "chal-482913"), domain.ErrChallengeConsumed)
}

func TestConsume_StaleChallengeID(t *testing.T) {
	store := NewStore(time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, newChallenge("u1", "111111"), 10*time.Minute))
	require.NoError(t, store.Put(ctx, newChallenge("u1", "222222"), 10*time.Minute))

	// The superseded identity can no longer consume anything.
	assert.ErrorIs(t, store.Consume(ctx, "u1", "chal-111111"), domain.ErrChallengeNotFound)

	// The live record was untouched by the stale call.
	got, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, got.Consumed)
	require.NoError(t, store.Consume(ctx, "u1", "chal-222222"))
}

func TestConsume_ConcurrentSingleWinner(t *testing.T) {
	store := NewStore(time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, newChallenge("u1", "482913"), 10*time.Minute))

	const workers = 16
	var wg sync.WaitGroup
	results := make(chan error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- store.Consume(ctx, "u1", "chal-482913")
		}()
	}
	wg.Wait()
	close(results)

	var wins, losses int
	for err := range results {
		if err == nil {
			wins++
		} else {
			assert.ErrorIs(t, err, domain.ErrChallengeConsumed)
			losses++
		}
	}
	assert.Equal(t, 1, wins, "exactly one Consume must succeed")
	assert.Equal(t, workers-1, losses)
}

func TestConsume_Expired(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	store := NewStore(5*time.Minute, WithClock(func() time.Time { return now }))
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, newChallenge("u2", "482913"), 10*time.Minute))

	// 11 minutes later the window has passed but the record is still within
	// grace, so the outcome is Expired rather than NotFound.
	now = now.Add(11 * time.Minute)
	assert.ErrorIs(t, store.Consume(ctx, "u2", "chal-482913"), domain.ErrChallengeExpired)

	// Past expiry plus grace the record is reaped.
	now = now.Add(10 * time.Minute)
	assert.ErrorIs(t, store.Consume(ctx, "u2", "chal-482913"), domain.ErrChallengeNotFound)
	_, err := store.Get(ctx, "u2")
	assert.ErrorIs(t, err, domain.ErrChallengeNotFound)
}

func TestReap_ReleasesMapSlot(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	store := NewStore(5*time.Minute, WithClock(func() time.Time { return now }))
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, newChallenge("u2", "482913"), 10*time.Minute))

	now = now.Add(16 * time.Minute)
	_, err := store.Get(ctx, "u2")
	assert.ErrorIs(t, err, domain.ErrChallengeNotFound)

	// The slot itself is gone, not just its record.
	store.mu.RLock()
	_, exists := store.entries["u2"]
	store.mu.RUnlock()
	assert.False(t, exists, "reaping must release the map slot")

	// A later Put for the account starts a fresh slot.
	require.NoError(t, store.Put(ctx, newChallenge("u2", "555555"), 10*time.Minute))
	got, err := store.Get(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, "555555", got.Code)
}

func TestRecordAttempt_CapIsSticky(t *testing.T) {
	store := NewStore(time.Minute)
	ctx := context.Background()

	ch := newChallenge("u3", "482913")
	ch.AttemptLimit = 3
	require.NoError(t, store.Put(ctx, ch, 10*time.Minute))

	for i := 1; i <= 3; i++ {
		count, err := store.RecordAttempt(ctx, "u3", "chal-482913")
		require.NoError(t, err)
		assert.Equal(t, i, count)
	}

	// At the cap the counter no longer moves.
	count, err := store.RecordAttempt(ctx, "u3", "chal-482913")
	assert.ErrorIs(t, err, domain.ErrTooManyAttempts)
	assert.Equal(t, 3, count)

	count, err = store.RecordAttempt(ctx, "u3", "chal-482913")
	assert.ErrorIs(t, err, domain.ErrTooManyAttempts)
	assert.Equal(t, 3, count)
}

func TestRecordAttempt_StaleChallengeID(t *testing.T) {
	store := NewStore(time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, newChallenge("u3", "111111"), 10*time.Minute))
	require.NoError(t, store.Put(ctx, newChallenge("u3", "222222"), 10*time.Minute))

	_, err := store.RecordAttempt(ctx, "u3", "chal-111111")
	assert.ErrorIs(t, err, domain.ErrChallengeNotFound)

	// The fresh challenge pays nothing for the stale attempt.
	got, err := store.Get(ctx, "u3")
	require.NoError(t, err)
	assert.Equal(t, 0, got.AttemptCount)
}

func TestRecordAttempt_NotFound(t *testing.T) {
	store := NewStore(time.Minute)

	_, err := store.RecordAttempt(context.Background(), "unknown", "chal-482913")
	assert.ErrorIs(t, err, domain.ErrChallengeNotFound)
}

func TestPut_RaceWithVerifyInFlight(t *testing.T) {
	store := NewStore(time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, newChallenge("u4", "111111"), 10*time.Minute))

	// Concurrent re-issues and consumes must never leave two verifiable codes.
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.Put(ctx, newChallenge("u4", "222222"), 10*time.Minute)
		}()
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.Consume(ctx, "u4", "chal-111111")
		}()
	}
	wg.Wait()

	got, err := store.Get(ctx, "u4")
	require.NoError(t, err)
	assert.Equal(t, "222222", got.Code)
}

func TestContextCancelled(t *testing.T) {
	store := NewStore(time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Error(t, store.Put(ctx, newChallenge("u5", "482913"), time.Minute))
	_, err := store.Get(ctx, "u5")
	assert.Error(t, err)
	assert.Error(t, store.Ping(ctx))
}

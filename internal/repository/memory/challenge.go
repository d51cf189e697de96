// internal/repository/memory/challenge.go

package memory

import (
	"context"
	"sync"
	"time"

	"twofactor-service/internal/domain"
)

// entry wraps one account's challenge with its own lock so that state
// transitions for different accounts never contend. gone marks an entry whose
// map slot has been reclaimed; nothing may be written into it afterwards.
type entry struct {
	mu        sync.Mutex
	gone      bool
	challenge *domain.Challenge
}

// Store is an in-memory ChallengeStore. The outer lock only guards the map;
// per-account transitions serialize on the entry lock. Expired records are
// reaped lazily once they are past the grace window, and reaping removes the
// map slot so the map does not grow with every account ever seen.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*entry
	grace   time.Duration
	now     func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces the wall clock, used by tests to simulate expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore creates an in-memory store keeping expired records around for grace
// before reporting them as not found.
func NewStore(grace time.Duration, opts ...Option) *Store {
	s := &Store{
		entries: make(map[string]*entry),
		grace:   grace,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// lockEntry returns the account's entry with its lock held, or nil when the
// account has no live entry and create is unset. An entry observed as gone is
// never returned; with create set the lookup retries until it holds a live
// slot.
func (s *Store) lockEntry(accountID string, create bool) *entry {
	for {
		s.mu.RLock()
		e := s.entries[accountID]
		s.mu.RUnlock()

		if e == nil {
			if !create {
				return nil
			}
			s.mu.Lock()
			if e = s.entries[accountID]; e == nil {
				e = &entry{}
				s.entries[accountID] = e
			}
			s.mu.Unlock()
		}

		e.mu.Lock()
		if !e.gone {
			return e
		}
		e.mu.Unlock()
		if !create {
			return nil
		}
	}
}

// reapable reports whether the record is past expiry plus grace.
func (s *Store) reapable(c *domain.Challenge, now time.Time) bool {
	return c == nil || now.After(c.ExpiresAt.Add(s.grace))
}

// reap drops the record and releases its map slot. The caller holds e.mu; a
// concurrent Put sees gone and re-creates the slot instead of writing into
// the orphan.
func (s *Store) reap(accountID string, e *entry) {
	e.challenge = nil
	e.gone = true
	s.mu.Lock()
	if s.entries[accountID] == e {
		delete(s.entries, accountID)
	}
	s.mu.Unlock()
}

func (s *Store) Put(ctx context.Context, challenge *domain.Challenge, validity time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	now := s.now()
	stored := *challenge
	stored.IssuedAt = now
	stored.ExpiresAt = now.Add(validity)

	e := s.lockEntry(challenge.AccountID, true)
	// Supersede: the previous record, consumed or not, is gone for good.
	e.challenge = &stored
	e.mu.Unlock()

	*challenge = stored
	return nil
}

func (s *Store) Get(ctx context.Context, accountID string) (*domain.Challenge, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e := s.lockEntry(accountID, false)
	if e == nil {
		return nil, domain.ErrChallengeNotFound
	}
	defer e.mu.Unlock()

	if s.reapable(e.challenge, s.now()) {
		s.reap(accountID, e)
		return nil, domain.ErrChallengeNotFound
	}

	copied := *e.challenge
	return &copied, nil
}

func (s *Store) RecordAttempt(ctx context.Context, accountID, challengeID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	e := s.lockEntry(accountID, false)
	if e == nil {
		return 0, domain.ErrChallengeNotFound
	}
	defer e.mu.Unlock()

	if s.reapable(e.challenge, s.now()) {
		s.reap(accountID, e)
		return 0, domain.ErrChallengeNotFound
	}

	// A stale id means the record was superseded; the fresh challenge must not
	// pay for an attempt against the old one.
	if e.challenge.ChallengeID != challengeID {
		return 0, domain.ErrChallengeNotFound
	}

	// Idempotent once capped: the counter stops at the limit.
	if e.challenge.Locked() {
		return e.challenge.AttemptCount, domain.ErrTooManyAttempts
	}

	e.challenge.AttemptCount++
	return e.challenge.AttemptCount, nil
}

func (s *Store) Consume(ctx context.Context, accountID, challengeID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	e := s.lockEntry(accountID, false)
	if e == nil {
		return domain.ErrChallengeNotFound
	}
	defer e.mu.Unlock()

	now := s.now()
	if s.reapable(e.challenge, now) {
		s.reap(accountID, e)
		return domain.ErrChallengeNotFound
	}
	if e.challenge.ChallengeID != challengeID {
		return domain.ErrChallengeNotFound
	}
	if e.challenge.Expired(now) {
		return domain.ErrChallengeExpired
	}
	if e.challenge.Consumed {
		return domain.ErrChallengeConsumed
	}

	e.challenge.Consumed = true
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/naufalh/wabot/internal/domain"
	"github.com/naufalh/wabot/internal/metrics"
	"github.com/naufalh/wabot/internal/repo"
)

// ChargeResult reports how a successful Charge resolved.
type ChargeResult struct {
	// Premium is true when the user bypassed metering entirely.
	Premium bool
	// Remaining is the post-charge count (meaningless when Premium).
	Remaining int
	// ResetAt is the next reset boundary for the user.
	ResetAt time.Time
}

// QuotaStore owns the per-user metering state: an in-memory map populated
// lazily per user and written through to the durable store on every
// mutation. With a nil DB handle it degrades to memory-only operation.
//
// The charge sequence (load -> decide -> persist) must behave as a single
// atomic unit per user even though handler I/O interleaves event
// processing, so every mutating operation runs under a per-user lock.
// Different users never contend with each other beyond the map lookups.
type QuotaStore struct {
	db           *gorm.DB
	defaultLimit int
	log          zerolog.Logger

	mu     sync.Mutex
	states map[string]domain.UserLimit
	locks  map[string]*sync.Mutex

	now func() time.Time
}

// NewQuotaStore builds a store over db (nil for memory-only) with the given
// daily default limit.
func NewQuotaStore(db *gorm.DB, defaultLimit int, log zerolog.Logger) *QuotaStore {
	if defaultLimit < 0 {
		defaultLimit = 0
	}
	return &QuotaStore{
		db:           db,
		defaultLimit: defaultLimit,
		log:          log.With().Str("component", "quota").Logger(),
		states:       make(map[string]domain.UserLimit),
		locks:        make(map[string]*sync.Mutex),
		now:          time.Now,
	}
}

// userLock returns the serialization lock for userID, creating it if absent.
func (q *QuotaStore) userLock(userID string) *sync.Mutex {
	q.mu.Lock()
	defer q.mu.Unlock()
	l, ok := q.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		q.locks[userID] = l
	}
	return l
}

// defaultState synthesizes a fresh record with a full quota.
func (q *QuotaStore) defaultState(userID string) domain.UserLimit {
	return domain.UserLimit{
		UserID:    userID,
		Remaining: q.defaultLimit,
		ResetAt:   domain.NextReset(q.now()),
	}
}

// loadLocked fetches the state for userID, consulting the cache, then the
// durable store, then synthesizing a default. Callers must hold the user
// lock. The returned value is a copy; mutations go through persistLocked.
func (q *QuotaStore) loadLocked(ctx context.Context, userID string) (domain.UserLimit, error) {
	q.mu.Lock()
	st, ok := q.states[userID]
	q.mu.Unlock()
	if ok {
		return st, nil
	}

	if q.db != nil {
		stored, err := repo.FindUserLimit(ctx, q.db, userID)
		switch {
		case err == nil:
			st = *stored
		case errors.Is(err, repo.ErrNotFound):
			st = q.defaultState(userID)
		default:
			return domain.UserLimit{}, fmt.Errorf("load user limit: %w", err)
		}
	} else {
		st = q.defaultState(userID)
	}

	q.mu.Lock()
	q.states[userID] = st
	q.mu.Unlock()
	return st, nil
}

// persistLocked writes st through to the durable store and, only on
// success, into the cache. Callers must hold the user lock; on error the
// previously visible state is untouched.
func (q *QuotaStore) persistLocked(ctx context.Context, st domain.UserLimit) error {
	if q.db != nil {
		if err := repo.UpsertUserLimit(ctx, q.db, st); err != nil {
			return fmt.Errorf("persist user limit: %w", err)
		}
	}
	q.mu.Lock()
	q.states[st.UserID] = st
	q.mu.Unlock()
	return nil
}

// normalize applies premium expiry and the daily reset to a loaded state.
// It reports whether anything changed.
func (q *QuotaStore) normalize(st *domain.UserLimit) bool {
	now := q.now()
	changed := false

	if st.Premium && st.PremiumExpireAt != nil && !st.PremiumExpireAt.After(now) {
		st.Premium = false
		st.PremiumExpireAt = nil
		changed = true
	}
	if !st.ResetAt.After(now) {
		st.Remaining = q.defaultLimit
		st.ResetAt = domain.NextReset(now)
		changed = true
	}
	return changed
}

// State returns the current metering state for userID, creating a default
// record when none exists. Premium expiry and pending resets are applied
// (and persisted) before returning, so callers always see a settled view.
func (q *QuotaStore) State(ctx context.Context, userID string) (domain.UserLimit, error) {
	lock := q.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	st, err := q.loadLocked(ctx, userID)
	if err != nil {
		return domain.UserLimit{}, err
	}
	if q.normalize(&st) {
		if err := q.persistLocked(ctx, st); err != nil {
			return domain.UserLimit{}, err
		}
	}
	return st, nil
}

// Charge consumes one use for userID.
//
//   - Premium users (unexpired) are never decremented.
//   - An expired premium grant is cleared atomically within the same call
//     and the user falls through to metered charging.
//   - A passed reset boundary restores the default quota exactly once
//     before charging.
//   - With nothing remaining, Charge returns *QuotaExhaustedError carrying
//     the reset instant, and state is untouched.
//
// The whole sequence runs under the per-user lock, so two interleaved
// commands from one user cannot double-spend.
func (q *QuotaStore) Charge(ctx context.Context, userID string) (ChargeResult, error) {
	lock := q.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	st, err := q.loadLocked(ctx, userID)
	if err != nil {
		return ChargeResult{}, err
	}

	changed := q.normalize(&st)

	if st.Premium {
		if changed {
			if err := q.persistLocked(ctx, st); err != nil {
				return ChargeResult{}, err
			}
		}
		metrics.QuotaCharges.WithLabelValues("premium").Inc()
		return ChargeResult{Premium: true, Remaining: st.Remaining, ResetAt: st.ResetAt}, nil
	}

	if st.Remaining <= 0 {
		// Persist a cleared premium flag even on denial so the expiry is
		// not re-applied forever, then report exhaustion.
		if changed {
			if err := q.persistLocked(ctx, st); err != nil {
				return ChargeResult{}, err
			}
		}
		metrics.QuotaCharges.WithLabelValues("denied").Inc()
		return ChargeResult{}, &QuotaExhaustedError{ResetAt: st.ResetAt}
	}

	st.Remaining--
	if err := q.persistLocked(ctx, st); err != nil {
		return ChargeResult{}, err
	}
	metrics.QuotaCharges.WithLabelValues("charged").Inc()

	q.log.Debug().Str("user_id", userID).Int("remaining", st.Remaining).Msg("quota charged")
	return ChargeResult{Remaining: st.Remaining, ResetAt: st.ResetAt}, nil
}

// Grant adds delta to the user's remaining uses (delta may be negative;
// the result is floored at zero).
func (q *QuotaStore) Grant(ctx context.Context, userID string, delta int) (domain.UserLimit, error) {
	return q.mutate(ctx, userID, func(st *domain.UserLimit) {
		st.Remaining += delta
		if st.Remaining < 0 {
			st.Remaining = 0
		}
	})
}

// SetLimit sets the user's remaining uses to an exact value, leaving the
// reset boundary untouched.
func (q *QuotaStore) SetLimit(ctx context.Context, userID string, value int) (domain.UserLimit, error) {
	if value < 0 {
		value = 0
	}
	return q.mutate(ctx, userID, func(st *domain.UserLimit) {
		st.Remaining = value
	})
}

// Reset restores the user's quota to the default and advances the reset
// boundary to the next midnight.
func (q *QuotaStore) Reset(ctx context.Context, userID string) (domain.UserLimit, error) {
	return q.mutate(ctx, userID, func(st *domain.UserLimit) {
		st.Remaining = q.defaultLimit
		st.ResetAt = domain.NextReset(q.now())
	})
}

// SetPremium grants (expiresAt non-nil or unlimited with nil after enable)
// or revokes premium for userID. Passing enabled=false clears both flags.
func (q *QuotaStore) SetPremium(ctx context.Context, userID string, enabled bool, expiresAt *time.Time) (domain.UserLimit, error) {
	return q.mutate(ctx, userID, func(st *domain.UserLimit) {
		st.Premium = enabled
		if enabled {
			st.PremiumExpireAt = expiresAt
		} else {
			st.PremiumExpireAt = nil
		}
	})
}

// mutate loads, normalizes, applies fn, and persists under the user lock.
func (q *QuotaStore) mutate(ctx context.Context, userID string, fn func(*domain.UserLimit)) (domain.UserLimit, error) {
	lock := q.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	st, err := q.loadLocked(ctx, userID)
	if err != nil {
		return domain.UserLimit{}, err
	}
	q.normalize(&st)
	fn(&st)
	if err := q.persistLocked(ctx, st); err != nil {
		return domain.UserLimit{}, err
	}
	return st, nil
}

// PremiumUsers returns the premium entries currently in the cache, for the
// owner's list command. The durable store may know more users than have
// been seen since startup; only seen users are listed.
func (q *QuotaStore) PremiumUsers() []domain.UserLimit {
	q.mu.Lock()
	defer q.mu.Unlock()
	var out []domain.UserLimit
	for _, st := range q.states {
		if st.Premium {
			out = append(out, st)
		}
	}
	return out
}

// Len reports the number of cached user states. Used by the status endpoint.
func (q *QuotaStore) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.states)
}

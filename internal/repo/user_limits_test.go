package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/naufalh/wabot/internal/domain"
)

func TestFindUserLimit_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := FindUserLimit(context.Background(), db, "62800000000")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpsertUserLimit_RoundTrip(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	reset := domain.NextReset(time.Now())
	u := domain.UserLimit{UserID: "628111", Remaining: 25, ResetAt: reset}
	if err := UpsertUserLimit(ctx, db, u); err != nil {
		t.Fatalf("insert: %v", err)
	}

	got, err := FindUserLimit(ctx, db, "628111")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.Remaining != 25 || got.Premium {
		t.Fatalf("unexpected row: %+v", got)
	}
	if !got.ResetAt.Equal(reset) {
		t.Fatalf("reset_at mangled: want %v got %v", reset, got.ResetAt)
	}

	// Overwrite with a premium grant.
	exp := time.Now().Add(72 * time.Hour).UTC().Truncate(time.Second)
	u.Remaining = 24
	u.Premium = true
	u.PremiumExpireAt = &exp
	if err := UpsertUserLimit(ctx, db, u); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err = FindUserLimit(ctx, db, "628111")
	if err != nil {
		t.Fatalf("find after update: %v", err)
	}
	if got.Remaining != 24 || !got.Premium || got.PremiumExpireAt == nil {
		t.Fatalf("update not applied: %+v", got)
	}
	if !got.PremiumExpireAt.Equal(exp) {
		t.Fatalf("premium expiry mangled: want %v got %v", exp, got.PremiumExpireAt)
	}

	var count int64
	if err := db.Model(&domain.UserLimit{}).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected one row per user, got %d", count)
	}
}

func TestUpsertUserLimit_ClearsPremiumExpiry(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	exp := time.Now().Add(time.Hour).UTC()
	u := domain.UserLimit{UserID: "628222", Remaining: 5, ResetAt: domain.NextReset(time.Now()), Premium: true, PremiumExpireAt: &exp}
	if err := UpsertUserLimit(ctx, db, u); err != nil {
		t.Fatalf("insert: %v", err)
	}

	u.Premium = false
	u.PremiumExpireAt = nil
	if err := UpsertUserLimit(ctx, db, u); err != nil {
		t.Fatalf("clear: %v", err)
	}

	got, err := FindUserLimit(ctx, db, "628222")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.Premium || got.PremiumExpireAt != nil {
		t.Fatalf("premium should be fully cleared: %+v", got)
	}
}

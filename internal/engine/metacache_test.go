package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/naufalh/wabot/internal/domain"
)

func TestMetadataCache_FreshnessBoundary(t *testing.T) {
	fetches := 0
	fetch := func(_ context.Context, chatID string) (*domain.GroupMetadata, error) {
		fetches++
		return groupRoster(chatID, adminJID), nil
	}

	c := NewMetadataCache(DefaultMetadataTTL, fetch)
	clk := &fixedClock{t: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
	c.now = clk.now
	ctx := context.Background()

	first, err := c.Get(ctx, groupJID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if fetches != 1 {
		t.Fatalf("expected one fetch, got %d", fetches)
	}

	// t=59s: reused verbatim.
	clk.advance(59 * time.Second)
	again, err := c.Get(ctx, groupJID)
	if err != nil {
		t.Fatalf("get at 59s: %v", err)
	}
	if again != first {
		t.Fatalf("fresh entry must be returned verbatim")
	}
	if fetches != 1 {
		t.Fatalf("fresh entry must not refetch, got %d fetches", fetches)
	}

	// t=61s: refetched.
	clk.advance(2 * time.Second)
	if _, err := c.Get(ctx, groupJID); err != nil {
		t.Fatalf("get at 61s: %v", err)
	}
	if fetches != 2 {
		t.Fatalf("stale entry must refetch, got %d fetches", fetches)
	}
}

func TestMetadataCache_FetchErrorNotCached(t *testing.T) {
	boom := errors.New("roster lookup failed")
	calls := 0
	fetch := func(_ context.Context, chatID string) (*domain.GroupMetadata, error) {
		calls++
		if calls == 1 {
			return nil, boom
		}
		return groupRoster(chatID, adminJID), nil
	}

	c := NewMetadataCache(time.Minute, fetch)
	ctx := context.Background()

	if _, err := c.Get(ctx, groupJID); !errors.Is(err, boom) {
		t.Fatalf("expected fetch error, got %v", err)
	}
	roster, err := c.Get(ctx, groupJID)
	if err != nil || roster == nil {
		t.Fatalf("second attempt must succeed: %v", err)
	}
	if c.Len() != 1 {
		t.Fatalf("expected a single cached entry, got %d", c.Len())
	}
}

func TestMetadataCache_InvalidateForcesRefetch(t *testing.T) {
	fetches := 0
	c := NewMetadataCache(time.Hour, func(_ context.Context, chatID string) (*domain.GroupMetadata, error) {
		fetches++
		return groupRoster(chatID, adminJID), nil
	})
	ctx := context.Background()

	if _, err := c.Get(ctx, groupJID); err != nil {
		t.Fatalf("get: %v", err)
	}
	c.Invalidate(groupJID)
	if _, err := c.Get(ctx, groupJID); err != nil {
		t.Fatalf("get after invalidate: %v", err)
	}
	if fetches != 2 {
		t.Fatalf("invalidate must force a refetch, got %d fetches", fetches)
	}
}

func TestMetadataCache_RefreshReplacesWholeSnapshot(t *testing.T) {
	generation := 0
	c := NewMetadataCache(time.Minute, func(_ context.Context, chatID string) (*domain.GroupMetadata, error) {
		generation++
		if generation == 1 {
			return groupRoster(chatID, adminJID, memberJID), nil
		}
		return groupRoster(chatID, adminJID), nil
	})
	clk := &fixedClock{t: time.Now()}
	c.now = clk.now
	ctx := context.Background()

	first, _ := c.Get(ctx, groupJID)
	clk.advance(2 * time.Minute)
	second, _ := c.Get(ctx, groupJID)

	if len(first.Participants) != 2 {
		t.Fatalf("first snapshot mangled: %+v", first)
	}
	if len(second.Participants) != 1 {
		t.Fatalf("refresh must fully replace the snapshot: %+v", second)
	}
}

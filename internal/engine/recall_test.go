package engine

import (
	"fmt"
	"testing"
)

func TestRecallCache_RememberAndRecall(t *testing.T) {
	c := NewRecallCache(16)
	ev := textEvent(groupJID, memberJID, "hello there")

	c.Remember(groupJID, "m1", ev)

	got, ok := c.Recall(groupJID, "m1")
	if !ok {
		t.Fatalf("expected hit")
	}
	if got.Text != "hello there" {
		t.Fatalf("payload mangled: %+v", got)
	}

	// Recall does not purge; a second lookup still hits.
	if _, ok := c.Recall(groupJID, "m1"); !ok {
		t.Fatalf("entry must survive a recall")
	}
}

func TestRecallCache_MissesAreScoped(t *testing.T) {
	c := NewRecallCache(16)
	c.Remember(groupJID, "m1", textEvent(groupJID, memberJID, "x"))

	if _, ok := c.Recall("other@g.us", "m1"); ok {
		t.Fatalf("same message id in another chat must miss")
	}
	if _, ok := c.Recall(groupJID, "m2"); ok {
		t.Fatalf("unknown message id must miss")
	}
}

func TestRecallCache_EvictsOldestAtCapacity(t *testing.T) {
	c := NewRecallCache(3)
	for i := 0; i < 4; i++ {
		id := fmt.Sprintf("m%d", i)
		c.Remember(groupJID, id, textEvent(groupJID, memberJID, id))
	}

	if _, ok := c.Recall(groupJID, "m0"); ok {
		t.Fatalf("oldest entry must have been evicted")
	}
	for _, id := range []string{"m1", "m2", "m3"} {
		if _, ok := c.Recall(groupJID, id); !ok {
			t.Fatalf("entry %s must survive", id)
		}
	}
	if c.Len() != 3 {
		t.Fatalf("cache must stay at capacity, got %d", c.Len())
	}
}

func TestRecallCache_RefreshDoesNotGrow(t *testing.T) {
	c := NewRecallCache(2)
	c.Remember(groupJID, "m1", textEvent(groupJID, memberJID, "v1"))
	c.Remember(groupJID, "m1", textEvent(groupJID, memberJID, "v2"))

	if c.Len() != 1 {
		t.Fatalf("re-remembering must not duplicate, got %d", c.Len())
	}
	got, _ := c.Recall(groupJID, "m1")
	if got.Text != "v2" {
		t.Fatalf("refresh must keep the latest payload, got %q", got.Text)
	}
}

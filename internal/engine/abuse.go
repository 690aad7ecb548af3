package engine

import (
	"sync"
	"time"
)

const (
	// DefaultSpamWindow is how far back the burst detector looks.
	DefaultSpamWindow = 8 * time.Second
	// DefaultSpamThreshold is the in-window event count that trips it.
	DefaultSpamThreshold = 6
	// abuseSweepEvery bounds how often idle keys are garbage collected.
	abuseSweepEvery = 5000
)

// AbuseDetector is a sliding-window burst counter keyed by (chat, sender).
// Each Record appends "now", prunes entries older than the window, and
// reports whether the surviving count reaches the threshold. It is a rolling
// window, not a token bucket: bursts below the threshold never trigger, and
// the window fully resets once traffic stops for its full duration.
//
// Idle keys are evicted opportunistically after a lookup threshold so memory
// stays bounded without a background goroutine. Safe for concurrent use.
type AbuseDetector struct {
	window    time.Duration
	threshold int

	mu     sync.Mutex
	hits   map[string][]time.Time
	sweepN uint64

	now func() time.Time
}

// NewAbuseDetector constructs a detector with the given window and
// threshold. Non-positive values fall back to the defaults.
func NewAbuseDetector(window time.Duration, threshold int) *AbuseDetector {
	if window <= 0 {
		window = DefaultSpamWindow
	}
	if threshold <= 0 {
		threshold = DefaultSpamThreshold
	}
	return &AbuseDetector{
		window:    window,
		threshold: threshold,
		hits:      make(map[string][]time.Time),
		now:       time.Now,
	}
}

// Record notes one event for (chatID, senderJID) and reports whether the
// sender has now reached the threshold within the window.
func (d *AbuseDetector) Record(chatID, senderJID string) bool {
	now := d.now()
	key := chatID + "|" + senderJID

	d.mu.Lock()
	defer d.mu.Unlock()

	// Run GC before touching the requested key so an idle window can be
	// evicted even when it is the one being fetched.
	d.sweepN++
	if d.sweepN >= abuseSweepEvery {
		for k, ts := range d.hits {
			if len(ts) == 0 || now.Sub(ts[len(ts)-1]) >= d.window {
				delete(d.hits, k)
			}
		}
		d.sweepN = 0
	}

	recent := d.hits[key][:0:len(d.hits[key])]
	for _, ts := range d.hits[key] {
		if now.Sub(ts) < d.window {
			recent = append(recent, ts)
		}
	}
	recent = append(recent, now)
	d.hits[key] = recent

	return len(recent) >= d.threshold
}

// Len reports the number of tracked keys. Used by the status endpoint.
func (d *AbuseDetector) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.hits)
}

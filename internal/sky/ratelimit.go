package sky

import (
	"sync"
	"time"
)

// PublishLimiter decides when an unchanged theme may be re-published per location
type PublishLimiter struct {
	mu          sync.Mutex
	lastPublish map[string]time.Time
	minInterval time.Duration
}

// NewPublishLimiter creates a limiter enforcing minInterval between unchanged publishes
func NewPublishLimiter(minInterval time.Duration) *PublishLimiter {
	return &PublishLimiter{
		lastPublish: make(map[string]time.Time),
		minInterval: minInterval,
	}
}

// ShouldPublish reports whether a publish for location is due at now.
// A changed theme is always due. When it returns true the publish is recorded.
func (pl *PublishLimiter) ShouldPublish(location string, changed bool, now time.Time) bool {
	pl.mu.Lock()
	defer pl.mu.Unlock()

	last, exists := pl.lastPublish[location]
	if changed || !exists || now.Sub(last) >= pl.minInterval {
		pl.lastPublish[location] = now
		return true
	}

	return false
}

// LastPublish returns the last recorded publish time for a location
func (pl *PublishLimiter) LastPublish(location string) (time.Time, bool) {
	pl.mu.Lock()
	defer pl.mu.Unlock()

	last, exists := pl.lastPublish[location]
	return last, exists
}

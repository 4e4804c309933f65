package engine

import (
	"sync"
	"time"
)

const (
	breakerFailureThreshold = 3
	breakerCooldown         = 30 * time.Second
)

// breaker trips after consecutive LLM failures so a dead provider is
// served from fallbacks instead of timing out on every request. After
// the cooldown a single probe call is let through; its outcome decides
// whether the breaker closes again.
type breaker struct {
	mu       sync.Mutex
	now      func() time.Time
	failures int
	open     bool
	openedAt time.Time
	probing  bool
}

func newBreaker() *breaker {
	return &breaker{now: time.Now}
}

// allow reports whether a call may go to the provider.
func (b *breaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.open {
		return true
	}
	if b.now().Sub(b.openedAt) < breakerCooldown {
		return false
	}
	if b.probing {
		return false
	}
	b.probing = true
	return true
}

func (b *breaker) recordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures = 0
	b.open = false
	b.probing = false
}

func (b *breaker) recordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.probing {
		b.open = true
		b.openedAt = b.now()
		b.probing = false
		return
	}
	b.failures++
	if b.failures >= breakerFailureThreshold {
		b.open = true
		b.openedAt = b.now()
		b.failures = 0
	}
}

package theme

import (
	"context"
	"sync"
	"time"
)

// TokenBucket rate-limits outgoing registry calls. The platform's API
// budget refills continuously, so the bucket tracks fractional tokens
// between a capacity ceiling and a per-second refill rate.
type TokenBucket struct {
	mu         sync.Mutex
	capacity   float64
	perSecond  float64
	tokens     float64
	lastRefill time.Time
	now        func() time.Time
}

// NewTokenBucket creates a full bucket holding capacity tokens that
// refills at perSecond tokens per second.
func NewTokenBucket(capacity, perSecond float64) *TokenBucket {
	now := time.Now
	return &TokenBucket{
		capacity:   capacity,
		perSecond:  perSecond,
		tokens:     capacity,
		lastRefill: now(),
		now:        now,
	}
}

// refill advances a token count from last to now. Pure so tests can
// drive it with a fake clock.
func refill(tokens, capacity, perSecond float64, last, now time.Time) float64 {
	if !now.After(last) {
		return tokens
	}
	tokens += now.Sub(last).Seconds() * perSecond
	if tokens > capacity {
		tokens = capacity
	}
	return tokens
}

// Take blocks until one token is available or the context is cancelled.
func (b *TokenBucket) Take(ctx context.Context) error {
	for {
		b.mu.Lock()
		now := b.now()
		b.tokens = refill(b.tokens, b.capacity, b.perSecond, b.lastRefill, now)
		b.lastRefill = now

		if b.tokens >= 1 {
			b.tokens--
			b.mu.Unlock()
			return nil
		}

		wait := time.Duration((1 - b.tokens) / b.perSecond * float64(time.Second))
		b.mu.Unlock()

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

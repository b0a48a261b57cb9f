package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter paces calls to a remote service
type Limiter interface {
	// Allow consumes a slot if one is free right now
	Allow() bool
	// Wait blocks until the rate limit allows another request or ctx ends
	Wait(ctx context.Context) error
	// Reset forgets all recorded events
	Reset()
}

// sleep waits for d or until ctx is done
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// TokenBucket allows capacity calls per refillPeriod. The bucket is refilled
// in full once a period has passed. Used for Yandex.Disk control calls.
type TokenBucket struct {
	capacity     int
	tokens       int
	refillPeriod time.Duration
	lastRefill   time.Time
	mu           sync.Mutex
}

// NewTokenBucket returns a full bucket
func NewTokenBucket(capacity int, refillPeriod time.Duration) *TokenBucket {
	return &TokenBucket{
		capacity:     capacity,
		tokens:       capacity,
		refillPeriod: refillPeriod,
		lastRefill:   time.Now(),
	}
}

func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill()
	if tb.tokens <= 0 {
		return false
	}
	tb.tokens--
	return true
}

// Wait blocks until a token is available
func (tb *TokenBucket) Wait(ctx context.Context) error {
	for !tb.Allow() {
		tb.mu.Lock()
		timeUntilRefill := tb.refillPeriod - time.Since(tb.lastRefill)
		tb.mu.Unlock()

		if timeUntilRefill <= 0 {
			timeUntilRefill = 10 * time.Millisecond
		}
		if err := sleep(ctx, timeUntilRefill); err != nil {
			return err
		}
	}
	return nil
}

// Reset resets the token bucket to full capacity
func (tb *TokenBucket) Reset() {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.tokens = tb.capacity
	tb.lastRefill = time.Now()
}

// refill tops the bucket up once a full period has elapsed
func (tb *TokenBucket) refill() {
	now := time.Now()
	if now.Sub(tb.lastRefill) >= tb.refillPeriod {
		tb.tokens = tb.capacity
		tb.lastRefill = now
	}
}

// SlidingWindow allows at most maxRequests calls in any windowSize span.
// VK permits three calls per second per token.
type SlidingWindow struct {
	windowSize  time.Duration
	maxRequests int
	requests    []time.Time
	mu          sync.Mutex
}

// NewSlidingWindow returns an empty window
func NewSlidingWindow(maxRequests int, windowSize time.Duration) *SlidingWindow {
	return &SlidingWindow{
		windowSize:  windowSize,
		maxRequests: maxRequests,
		requests:    make([]time.Time, 0, maxRequests),
	}
}

func (sw *SlidingWindow) Allow() bool {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	now := time.Now()
	sw.cleanOldRequests(now)

	if len(sw.requests) < sw.maxRequests {
		sw.requests = append(sw.requests, now)
		return true
	}

	return false
}

// Wait blocks until a request is allowed
func (sw *SlidingWindow) Wait(ctx context.Context) error {
	for !sw.Allow() {
		sw.mu.Lock()
		timeToWait := 10 * time.Millisecond
		if len(sw.requests) > 0 {
			if d := sw.windowSize - time.Since(sw.requests[0]); d > 0 {
				timeToWait = d
			}
		}
		sw.mu.Unlock()

		if err := sleep(ctx, timeToWait); err != nil {
			return err
		}
	}
	return nil
}

// Reset clears all recorded requests
func (sw *SlidingWindow) Reset() {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	sw.requests = sw.requests[:0]
}

// cleanOldRequests removes requests outside the sliding window
func (sw *SlidingWindow) cleanOldRequests(now time.Time) {
	cutoff := now.Add(-sw.windowSize)

	i := 0
	for i < len(sw.requests) && !sw.requests[i].After(cutoff) {
		i++
	}

	if i > 0 {
		copy(sw.requests, sw.requests[i:])
		sw.requests = sw.requests[:len(sw.requests)-i]
	}
}

// FixedInterval spaces consecutive events at least interval apart.
// The first event is never delayed.
type FixedInterval struct {
	interval time.Duration
	last     time.Time
	now      func() time.Time
	mu       sync.Mutex
}

// NewFixedInterval creates a pacer with the given minimum spacing
func NewFixedInterval(interval time.Duration) *FixedInterval {
	return &FixedInterval{interval: interval, now: time.Now}
}

// Allow reports whether an event may happen now and records it if so
func (fi *FixedInterval) Allow() bool {
	fi.mu.Lock()
	defer fi.mu.Unlock()

	now := fi.now()
	if !fi.last.IsZero() && now.Sub(fi.last) < fi.interval {
		return false
	}
	fi.last = now
	return true
}

// Wait blocks until the interval since the previous event has passed
func (fi *FixedInterval) Wait(ctx context.Context) error {
	fi.mu.Lock()
	var remaining time.Duration
	if !fi.last.IsZero() {
		remaining = fi.interval - fi.now().Sub(fi.last)
	}
	fi.mu.Unlock()

	if err := sleep(ctx, remaining); err != nil {
		return err
	}

	fi.mu.Lock()
	fi.last = fi.now()
	fi.mu.Unlock()
	return nil
}

// Reset forgets the previous event
func (fi *FixedInterval) Reset() {
	fi.mu.Lock()
	defer fi.mu.Unlock()
	fi.last = time.Time{}
}

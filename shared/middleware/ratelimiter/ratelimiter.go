// Package ratelimiter implements per-key token buckets with idle expiry.
package ratelimiter

import (
	"sync"
	"time"
)

type bucket struct {
	tokens   float64
	lastSeen time.Time
}

// UserRateLimiter keeps one bucket per key (an identity, an IP).
// Buckets unused for longer than expiration are swept by a janitor.
type UserRateLimiter struct {
	rate       float64 // tokens per second
	capacity   float64
	expiration time.Duration

	mu      sync.Mutex
	buckets map[string]*bucket
	now     func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

func New(rate, capacity float64, expiration time.Duration) *UserRateLimiter {
	rl := &UserRateLimiter{
		rate:       rate,
		capacity:   capacity,
		expiration: expiration,
		buckets:    make(map[string]*bucket),
		now:        time.Now,
		stop:       make(chan struct{}),
	}
	go rl.janitor()
	return rl
}

func Rps10() *UserRateLimiter { return New(10, 10, time.Hour) }

func Rps100() *UserRateLimiter { return New(100, 100, time.Hour) }

// Allow takes a token from key's bucket, creating a full bucket on first use.
func (rl *UserRateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{tokens: rl.capacity, lastSeen: now}
		rl.buckets[key] = b
	}

	b.tokens = min(rl.capacity, b.tokens+now.Sub(b.lastSeen).Seconds()*rl.rate)
	b.lastSeen = now
	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

func (rl *UserRateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.buckets)
}

func (rl *UserRateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

func (rl *UserRateLimiter) janitor() {
	ticker := time.NewTicker(max(rl.expiration/2, time.Second))
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rl.sweep()
		case <-rl.stop:
			return
		}
	}
}

func (rl *UserRateLimiter) sweep() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for key, b := range rl.buckets {
		if now.Sub(b.lastSeen) > rl.expiration {
			delete(rl.buckets, key)
		}
	}
}

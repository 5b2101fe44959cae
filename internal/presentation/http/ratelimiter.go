package http

import (
	"math"
	"sync"
	"time"
)

type bucket struct {
	tokens   float64
	refilled time.Time
	lastSeen time.Time
}

// RateLimiter is a per-client token bucket. Idle clients are forgotten after ttl.
type RateLimiter struct {
	mu       sync.Mutex
	buckets  map[string]*bucket
	capacity float64
	perSec   float64
	ttl      time.Duration
	now      func() time.Time
	stop     chan struct{}
	stopOnce sync.Once
}

// NewRateLimiter builds a limiter holding burst tokens per client, refilled at perSecond.
// Call Close to stop the background pruning.
func NewRateLimiter(burst int, perSecond float64, ttl time.Duration) *RateLimiter {
	rl := &RateLimiter{
		buckets:  make(map[string]*bucket),
		capacity: float64(burst),
		perSec:   perSecond,
		ttl:      ttl,
		now:      time.Now,
		stop:     make(chan struct{}),
	}

	if ttl > 0 {
		go rl.pruneLoop()
	}

	return rl
}

// Allow takes a token for key. When none is left it reports how long until one is.
func (rl *RateLimiter) Allow(key string) (bool, time.Duration) {
	if key == "" {
		key = "unknown"
	}

	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{tokens: rl.capacity, refilled: now}
		rl.buckets[key] = b
	}
	b.lastSeen = now

	if elapsed := now.Sub(b.refilled).Seconds(); elapsed > 0 {
		b.tokens = math.Min(rl.capacity, b.tokens+elapsed*rl.perSec)
		b.refilled = now
	}

	if b.tokens >= 1 {
		b.tokens--
		return true, 0
	}

	missing := 1 - b.tokens
	wait := time.Duration(missing / rl.perSec * float64(time.Second))
	return false, wait
}

// Close stops the pruning goroutine. It is safe to call more than once.
func (rl *RateLimiter) Close() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

func (rl *RateLimiter) pruneLoop() {
	ticker := time.NewTicker(rl.ttl)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.prune()
		case <-rl.stop:
			return
		}
	}
}

func (rl *RateLimiter) prune() {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	for key, b := range rl.buckets {
		if now.Sub(b.lastSeen) > rl.ttl {
			delete(rl.buckets, key)
		}
	}
}

// retryAfterSeconds rounds wait up to whole seconds, never below one.
func retryAfterSeconds(wait time.Duration) int {
	seconds := int(math.Ceil(wait.Seconds()))
	if seconds < 1 {
		return 1
	}
	return seconds
}

// Package ratelimit provides a token-bucket rate limiter keyed by client,
// used to guard analysis starts.
package ratelimit

import (
	"os"
	"strconv"
	"sync"
	"time"
)

// staleAfter is how long an idle client's bucket survives before the
// cleanup pass removes it. Keeps the bucket map bounded when client IDs
// are attacker-controlled.
const staleAfter = time.Hour

// bucket is a single client's token bucket. Tokens refill at a steady rate
// up to the burst capacity.
type bucket struct {
	capacity   int
	refillRate float64 // tokens per second
	tokens     float64
	lastRefill time.Time
}

func (b *bucket) allow(now time.Time) bool {
	elapsed := now.Sub(b.lastRefill)
	b.tokens = min(float64(b.capacity), b.tokens+elapsed.Seconds()*b.refillRate)
	b.lastRefill = now

	if b.tokens >= 1.0 {
		b.tokens -= 1.0
		return true
	}
	return false
}

// Config holds rate limiting configuration.
type Config struct {
	Enabled         bool
	Limit           int           // requests per window (also burst capacity)
	Window          time.Duration // refill window
	CleanupInterval time.Duration // how often idle buckets are evicted
}

// LoadConfig reads rate limiter settings from the environment, with
// defaults suitable for a handful of concurrent analysts.
func LoadConfig() Config {
	cfg := Config{Enabled: true, Limit: 10, Window: time.Minute, CleanupInterval: 5 * time.Minute}
	if v := os.Getenv("RATE_LIMIT_ENABLED"); v == "false" {
		cfg.Enabled = false
	}
	if v := os.Getenv("RATE_LIMIT_PER_MINUTE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Limit = n
		}
	}
	return cfg
}

// Limiter manages per-client token buckets. Buckets for clients that have
// been idle longer than staleAfter are evicted by a background goroutine.
type Limiter struct {
	config     Config
	mu         sync.Mutex
	buckets    map[string]*bucket
	lastAccess map[string]time.Time

	cleanupTicker *time.Ticker
	cleanupStop   chan struct{}
}

// NewLimiter creates a rate limiter and starts its cleanup goroutine.
// Call Stop when the limiter is no longer needed.
func NewLimiter(config Config) *Limiter {
	l := &Limiter{
		config:     config,
		buckets:    make(map[string]*bucket),
		lastAccess: make(map[string]time.Time),
	}
	if config.Enabled && config.CleanupInterval > 0 {
		l.cleanupTicker = time.NewTicker(config.CleanupInterval)
		l.cleanupStop = make(chan struct{})
		go l.cleanup()
	}
	return l
}

// Allow reports whether the client may proceed, consuming a token if so.
func (l *Limiter) Allow(clientID string) bool {
	if !l.config.Enabled {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[clientID]
	if !ok {
		b = &bucket{
			capacity:   l.config.Limit,
			refillRate: float64(l.config.Limit) / l.config.Window.Seconds(),
			tokens:     float64(l.config.Limit),
			lastRefill: time.Now(),
		}
		l.buckets[clientID] = b
	}
	l.lastAccess[clientID] = time.Now()
	return b.allow(time.Now())
}

func (l *Limiter) cleanup() {
	for {
		select {
		case <-l.cleanupTicker.C:
			l.evictStale(time.Now().Add(-staleAfter))
		case <-l.cleanupStop:
			return
		}
	}
}

// evictStale removes buckets whose last access is before the cutoff.
func (l *Limiter) evictStale(cutoff time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for clientID, last := range l.lastAccess {
		if last.Before(cutoff) {
			delete(l.buckets, clientID)
			delete(l.lastAccess, clientID)
		}
	}
}

// Stop halts the cleanup goroutine.
func (l *Limiter) Stop() {
	if l.cleanupTicker != nil {
		l.cleanupTicker.Stop()
	}
	if l.cleanupStop != nil {
		close(l.cleanupStop)
	}
}

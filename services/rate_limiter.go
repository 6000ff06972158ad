package services

import (
	"sync"
	"time"
)

// Default policy for AI estimation requests.
const (
	EstimationRateLimit  = 10
	EstimationRateWindow = 60 * time.Second
)

// RateLimitResult is the outcome of a limiter check.
type RateLimitResult struct {
	Allowed    bool
	Current    int
	Limit      int
	RetryAfter time.Duration
}

// RateLimiter counts requests per user inside a sliding window ending at
// "now". The table is the only in-process mutable shared state in the
// engine; everything happens under one mutex so a concurrent Check/Record
// pair cannot over-admit.
type RateLimiter struct {
	mu       sync.Mutex
	requests map[uint][]time.Time
	limit    int
	window   time.Duration
	now      func() time.Time
	stop     chan struct{}
	stopOnce sync.Once
}

func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		requests: make(map[uint][]time.Time),
		limit:    limit,
		window:   window,
		now:      time.Now,
		stop:     make(chan struct{}),
	}

	go rl.sweep()

	return rl
}

// Allow performs Check and, when allowed, Record as one atomic step.
func (rl *RateLimiter) Allow(userID uint) RateLimitResult {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	res := rl.checkLocked(userID)
	if res.Allowed {
		rl.requests[userID] = append(rl.requests[userID], rl.now())
		res.Current++
	}
	return res
}

// Check reports whether a request for userID would currently be admitted.
// Callers that act on the answer should prefer Allow, which holds the lock
// across the check and the record.
func (rl *RateLimiter) Check(userID uint) RateLimitResult {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return rl.checkLocked(userID)
}

// Record registers a request for userID. Only call after a positive Check.
func (rl *RateLimiter) Record(userID uint) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.requests[userID] = append(rl.requests[userID], rl.now())
}

func (rl *RateLimiter) checkLocked(userID uint) RateLimitResult {
	now := rl.now()
	cutoff := now.Add(-rl.window)

	valid := rl.requests[userID][:0]
	for _, t := range rl.requests[userID] {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}
	if len(valid) == 0 {
		delete(rl.requests, userID)
	} else {
		rl.requests[userID] = valid
	}

	res := RateLimitResult{
		Allowed: len(valid) < rl.limit,
		Current: len(valid),
		Limit:   rl.limit,
	}
	if !res.Allowed {
		res.RetryAfter = valid[0].Add(rl.window).Sub(now)
	}
	return res
}

// sweep drops expired timestamps for every key once a minute so idle keys do
// not pin memory.
func (rl *RateLimiter) sweep() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
			rl.mu.Lock()
			cutoff := rl.now().Add(-rl.window)
			for key, times := range rl.requests {
				var valid []time.Time
				for _, t := range times {
					if t.After(cutoff) {
						valid = append(valid, t)
					}
				}
				if len(valid) == 0 {
					delete(rl.requests, key)
				} else {
					rl.requests[key] = valid
				}
			}
			rl.mu.Unlock()
		}
	}
}

// Stop terminates the background sweep.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

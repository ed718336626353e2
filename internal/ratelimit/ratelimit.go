// Package ratelimit throttles the public lookup endpoints per client address
// so the register cannot be enumerated by brute force.
package ratelimit

import (
	"context"
	"time"
)

// Result describes one admission decision.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration
}

// Limiter admits or rejects one request for key within a sliding window.
type Limiter interface {
	Allow(ctx context.Context, key string) (*Result, error)
}

// Policy is the number of requests a key may make per window.
type Policy struct {
	Requests int
	Window   time.Duration
}

func retryAfter(allowed bool, resetAt, now time.Time) time.Duration {
	if allowed || !resetAt.After(now) {
		return 0
	}
	return resetAt.Sub(now)
}

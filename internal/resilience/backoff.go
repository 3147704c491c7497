package resilience

import (
	"math/rand"
	"time"
)

// Backoff returns base doubled per attempt, capped at limit when limit > 0,
// with +/- jitter expressed as a fraction (0.2 == 20%).
func Backoff(base, limit time.Duration, attempt int, jitter float64) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if base <= 0 {
		base = 100 * time.Millisecond
	}
	if attempt > 30 {
		attempt = 30
	}
	d := base * time.Duration(1<<uint(attempt-1))
	if limit > 0 && (d > limit || d <= 0) {
		d = limit
	}
	if jitter <= 0 {
		return d
	}
	delta := (rand.Float64()*2 - 1) * float64(d) * jitter
	return d + time.Duration(delta)
}

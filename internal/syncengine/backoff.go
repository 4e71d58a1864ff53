package syncengine

import "time"

// backoffDelay returns the retry delay after the given post-failure
// attempt count: 2^attempts seconds, capped at max. Attempt 1 waits 2s,
// attempt 2 waits 4s, and so on up to the cap.
func backoffDelay(attempts int, max time.Duration) time.Duration {
	if attempts < 1 {
		attempts = 1
	}
	// guard the shift; anything past 6 doublings exceeds a 60s cap anyway
	if attempts > 30 {
		return max
	}
	d := time.Duration(1<<uint(attempts)) * time.Second
	if d > max {
		return max
	}
	return d
}

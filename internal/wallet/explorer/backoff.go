package explorer

import "time"

// backoff returns base * 2^retry capped at max. Negative retries yield base.
func backoff(retry int, base, max time.Duration) time.Duration {
	if retry < 0 {
		return base
	}
	if retry > 30 {
		return max
	}
	d := base * time.Duration(1<<retry)
	if d > max || d <= 0 {
		return max
	}
	return d
}

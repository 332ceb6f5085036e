// Package backoff computes retry delays and runs bounded retry loops.
package backoff

import "time"

// Policy describes how long to wait between attempts.
type Policy struct {
	// Wait is the pause after every failed attempt. Zero or negative means no pause.
	Wait time.Duration
}

// Fixed returns a policy that always waits d between attempts.
func Fixed(d time.Duration) Policy {
	return Policy{Wait: d}
}

// Delay returns the wait after the given failed attempt. Attempt numbers start at 1.
func (p Policy) Delay(attempt int) time.Duration {
	if p.Wait <= 0 {
		return 0
	}
	return p.Wait
}

package identity

import (
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	// InitialRetryDelay is the wait after the first failed sign-up.
	InitialRetryDelay = 2 * time.Second
	// MaxRetryDelay caps the delay between sign-up attempts for one account.
	MaxRetryDelay = 300 * time.Second
)

// capSteps is enough doublings from InitialRetryDelay to reach MaxRetryDelay.
const capSteps = 8

// NewRetryBackOff returns the deterministic schedule used between sign-up
// attempts: InitialRetryDelay doubling up to MaxRetryDelay, never giving up.
func NewRetryBackOff() *backoff.ExponentialBackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = InitialRetryDelay
	exp.Multiplier = 2
	exp.MaxInterval = MaxRetryDelay
	exp.RandomizationFactor = 0
	exp.MaxElapsedTime = 0
	exp.Reset()
	return exp
}

// RetryDelay is the wait before attempt n+1 after n failed attempts:
// 2^(n+1) seconds, capped at MaxRetryDelay.
func RetryDelay(attempts int) time.Duration {
	if attempts < 0 {
		attempts = 0
	}
	if attempts > capSteps {
		attempts = capSteps
	}
	exp := NewRetryBackOff()
	d := exp.NextBackOff()
	for i := 0; i < attempts; i++ {
		d = exp.NextBackOff()
	}
	return d
}

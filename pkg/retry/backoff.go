package retry

import (
	"math"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// ExponentialBackoff builds an open-ended exponential schedule: the delay
// starts at initialInterval, grows by multiplier each attempt and is capped
// at maxInterval. The schedule never gives up on its own.
func ExponentialBackoff(initialInterval, maxInterval time.Duration, multiplier float64) backoff.BackOff {
	return newExponential(initialInterval, maxInterval, 0, multiplier)
}

// ExponentialBackoffWithMaxElapsed is ExponentialBackoff with a wall-clock
// budget: once maxElapsed has passed since the first attempt the schedule
// stops yielding delays.
func ExponentialBackoffWithMaxElapsed(initialInterval, maxInterval, maxElapsed time.Duration, multiplier float64) backoff.BackOff {
	return newExponential(initialInterval, maxInterval, maxElapsed, multiplier)
}

func newExponential(initialInterval, maxInterval, maxElapsed time.Duration, multiplier float64) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = initialInterval
	exp.MaxInterval = maxInterval
	exp.Multiplier = multiplier
	exp.MaxElapsedTime = maxElapsed
	return exp
}

// CalculateBackoffDuration reports the nominal delay before the attempt
// after `attempt` (zero-based), ignoring jitter. It exists so retry callbacks
// can tell the caller roughly how long the next wait will be.
func CalculateBackoffDuration(attempt int, initialInterval time.Duration, multiplier float64, maxInterval time.Duration) time.Duration {
	d := float64(initialInterval) * math.Pow(multiplier, float64(attempt))
	if d > float64(maxInterval) {
		return maxInterval
	}
	return time.Duration(d)
}

package ratelimit

import (
	"context"
	"sync"
	"time"

	"fleetstream/internal/logger"
	"fleetstream/pkg/metrics"
)

// Limiter applies sliding-window admission control per device. Each device
// keeps an ordered slice of admission timestamps; stale entries are trimmed
// on every call, so the window is bounded by duration rather than count.
type Limiter struct {
	mu      sync.Mutex
	windows map[string][]time.Time

	threshold int
	window    time.Duration

	logger logger.Logger
}

func NewLimiter(threshold int, window time.Duration, log logger.Logger) *Limiter {
	return &Limiter{
		windows:   make(map[string][]time.Time),
		threshold: threshold,
		window:    window,
		logger:    log,
	}
}

// Admit reports whether the device may send another message at time now, and
// records the admission when it does. A rejected call records nothing.
func (l *Limiter) Admit(deviceID string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := now.Add(-l.window)
	recent := trim(l.windows[deviceID], cutoff)

	if len(recent) >= l.threshold {
		l.windows[deviceID] = recent
		return false
	}

	l.windows[deviceID] = append(recent, now)
	return true
}

// trim drops timestamps older than cutoff. Timestamps are appended in order,
// so a single scan for the first retained index suffices.
func trim(window []time.Time, cutoff time.Time) []time.Time {
	for i, ts := range window {
		if !ts.Before(cutoff) {
			return window[i:]
		}
	}
	return window[:0]
}

// Len reports how many devices currently hold state.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.windows)
}

// StartJanitor evicts devices whose newest admission is older than maxAge,
// keeping the tracked-device map bounded on long-running deployments.
func (l *Limiter) StartJanitor(ctx context.Context, interval, maxAge time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			evicted := l.evictIdle(time.Now(), maxAge)
			if evicted > 0 {
				l.logger.Debugw("evicted idle devices from rate limiter",
					"evicted", evicted,
					"tracked", l.Len())
			}
		}
	}
}

func (l *Limiter) evictIdle(now time.Time, maxAge time.Duration) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := now.Add(-maxAge)
	evicted := 0
	for deviceID, window := range l.windows {
		if len(window) == 0 || window[len(window)-1].Before(cutoff) {
			delete(l.windows, deviceID)
			evicted++
		}
	}

	metrics.SetRateLimitTrackedDevices(len(l.windows))
	return evicted
}

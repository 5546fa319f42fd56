package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"fleetstream/internal/logger"
)

func TestAdmitWithinThreshold(t *testing.T) {
	l := NewLimiter(3, time.Minute, logger.NopLogger())
	now := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)

	assert.True(t, l.Admit("DEVICE_0001", now))
	assert.True(t, l.Admit("DEVICE_0001", now.Add(time.Second)))
	assert.True(t, l.Admit("DEVICE_0001", now.Add(2*time.Second)))
	assert.False(t, l.Admit("DEVICE_0001", now.Add(3*time.Second)))
}

func TestWindowSlides(t *testing.T) {
	l := NewLimiter(3, time.Minute, logger.NopLogger())
	now := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		assert.True(t, l.Admit("DEVICE_0001", now.Add(time.Duration(i)*time.Second)))
	}
	assert.False(t, l.Admit("DEVICE_0001", now.Add(30*time.Second)))

	// Past the window the oldest admissions fall out.
	assert.True(t, l.Admit("DEVICE_0001", now.Add(61*time.Second)))
}

func TestDevicesAreIndependent(t *testing.T) {
	l := NewLimiter(1, time.Minute, logger.NopLogger())
	now := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)

	assert.True(t, l.Admit("DEVICE_0001", now))
	assert.False(t, l.Admit("DEVICE_0001", now))
	assert.True(t, l.Admit("DEVICE_0002", now))
}

func TestRejectionRecordsNothing(t *testing.T) {
	l := NewLimiter(1, time.Minute, logger.NopLogger())
	now := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)

	assert.True(t, l.Admit("DEVICE_0001", now))
	for i := 0; i < 10; i++ {
		assert.False(t, l.Admit("DEVICE_0001", now.Add(time.Duration(i)*time.Second)))
	}

	// Only the single admission ages out; rejections left no trace.
	assert.True(t, l.Admit("DEVICE_0001", now.Add(61*time.Second)))
}

func TestEvictIdle(t *testing.T) {
	l := NewLimiter(10, time.Minute, logger.NopLogger())
	now := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)

	l.Admit("DEVICE_0001", now)
	l.Admit("DEVICE_0002", now.Add(9*time.Minute))
	assert.Equal(t, 2, l.Len())

	evicted := l.evictIdle(now.Add(10*time.Minute), 5*time.Minute)

	assert.Equal(t, 1, evicted)
	assert.Equal(t, 1, l.Len())
}

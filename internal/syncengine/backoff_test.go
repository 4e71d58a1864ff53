package syncengine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoffDelayDoubling(t *testing.T) {
	max := 60 * time.Second
	expected := []time.Duration{
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		16 * time.Second,
		32 * time.Second,
		60 * time.Second, // capped
		60 * time.Second,
	}
	for i, want := range expected {
		attempts := i + 1
		assert.Equal(t, want, backoffDelay(attempts, max), "attempts=%d", attempts)
	}
}

func TestBackoffDelayClampsLowAttempts(t *testing.T) {
	max := 60 * time.Second
	assert.Equal(t, 2*time.Second, backoffDelay(0, max))
	assert.Equal(t, 2*time.Second, backoffDelay(-3, max))
}

func TestBackoffDelayLargeAttemptsSaturate(t *testing.T) {
	max := 60 * time.Second
	assert.Equal(t, max, backoffDelay(40, max))
	assert.Equal(t, max, backoffDelay(1000, max))
}

package retry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func fixedJitter(v float64) func() float64 {
	return func() float64 { return v }
}

func TestNewExponentialBackoffDefaults(t *testing.T) {
	b := NewExponentialBackoff(3)

	assert.Equal(t, 3, b.MaxAttempts())
	assert.Equal(t, 100*time.Millisecond, b.InitialDelay())
	assert.Equal(t, 30*time.Second, b.MaxDelay())
}

func TestNextDelayGrowsExponentially(t *testing.T) {
	// jitterFunc returning 0.5 maps to a jitter factor of exactly 1.0
	b := NewExponentialBackoff(5,
		WithInitialDelay(100*time.Millisecond),
		WithMaxDelay(10*time.Second),
		WithJitterFunc(fixedJitter(0.5)),
	)

	assert.Equal(t, 100*time.Millisecond, b.NextDelay(0))
	assert.Equal(t, 200*time.Millisecond, b.NextDelay(1))
	assert.Equal(t, 400*time.Millisecond, b.NextDelay(2))
	assert.Equal(t, 800*time.Millisecond, b.NextDelay(3))
}

func TestNextDelayCapsAtMaxDelay(t *testing.T) {
	b := NewExponentialBackoff(10,
		WithInitialDelay(1*time.Second),
		WithMaxDelay(2*time.Second),
		WithJitterFunc(fixedJitter(0.5)),
	)

	assert.Equal(t, 2*time.Second, b.NextDelay(5))
	assert.Equal(t, 2*time.Second, b.NextDelay(20))
}

func TestNextDelayJitterBounds(t *testing.T) {
	base := 1 * time.Second
	b := NewExponentialBackoff(3,
		WithInitialDelay(base),
		WithJitter(0.1),
		WithJitterFunc(fixedJitter(0.0)), // maps to -1.0 offset: minimum delay
	)
	assert.Equal(t, 900*time.Millisecond, b.NextDelay(0))

	b = NewExponentialBackoff(3,
		WithInitialDelay(base),
		WithJitter(0.1),
		WithJitterFunc(fixedJitter(0.999999)), // close to +1.0 offset: near maximum
	)
	delay := b.NextDelay(0)
	assert.GreaterOrEqual(t, delay, base)
	assert.LessOrEqual(t, delay, 1100*time.Millisecond)
}

func TestWithMultiplier(t *testing.T) {
	b := NewExponentialBackoff(3,
		WithInitialDelay(100*time.Millisecond),
		WithMultiplier(3.0),
		WithJitterFunc(fixedJitter(0.5)),
	)

	assert.Equal(t, 100*time.Millisecond, b.NextDelay(0))
	assert.Equal(t, 300*time.Millisecond, b.NextDelay(1))
	assert.Equal(t, 900*time.Millisecond, b.NextDelay(2))
}

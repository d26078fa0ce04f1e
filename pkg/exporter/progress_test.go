package exporter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestThrottlerEveryNWithMinInterval(t *testing.T) {
	now := time.Unix(1000, 0)
	th := NewThrottler(10, 3*time.Second)
	th.now = func() time.Time { return now }

	// The very first call fires: nothing has been shown yet.
	assert.True(t, th.ShouldNotify(1))

	// Non-multiples inside the interval stay quiet.
	for n := 2; n <= 9; n++ {
		now = now.Add(10 * time.Millisecond)
		assert.False(t, th.ShouldNotify(n), "n=%d", n)
	}

	// A multiple of ten arriving too soon is suppressed too.
	now = now.Add(10 * time.Millisecond)
	assert.False(t, th.ShouldNotify(10))

	// The same multiple after the interval fires.
	now = now.Add(3 * time.Second)
	assert.True(t, th.ShouldNotify(10))

	// And is then rate-limited again.
	now = now.Add(time.Second)
	assert.False(t, th.ShouldNotify(20))
}

func TestThrottlerStalenessOverride(t *testing.T) {
	now := time.Unix(1000, 0)
	th := NewThrottler(10, 3*time.Second)
	th.now = func() time.Time { return now }

	assert.True(t, th.ShouldNotify(10))

	// A slow run that never reaches the next multiple still gets a
	// notification once twice the interval has elapsed.
	now = now.Add(6 * time.Second)
	assert.True(t, th.ShouldNotify(13))
}

func TestThrottlerDefaults(t *testing.T) {
	th := NewThrottler(0, 0)
	assert.Equal(t, 10, th.everyN)
	assert.Equal(t, 3*time.Second, th.minInterval)
}

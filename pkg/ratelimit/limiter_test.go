package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTokenBucketAllow(t *testing.T) {
	tb := NewTokenBucket(3, time.Hour)

	assert.True(t, tb.Allow())
	assert.True(t, tb.Allow())
	assert.True(t, tb.Allow())
	assert.False(t, tb.Allow(), "bucket should be empty after capacity draws")
}

func TestTokenBucketReset(t *testing.T) {
	tb := NewTokenBucket(1, time.Hour)

	assert.True(t, tb.Allow())
	assert.False(t, tb.Allow())

	tb.Reset()
	assert.True(t, tb.Allow())
}

func TestTokenBucketRefill(t *testing.T) {
	tb := NewTokenBucket(1, 10*time.Millisecond)

	assert.True(t, tb.Allow())
	assert.False(t, tb.Allow())

	time.Sleep(15 * time.Millisecond)
	assert.True(t, tb.Allow(), "bucket should refill after the period elapses")
}

func TestSleepPacerCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := SleepPacer{}.Pause(ctx, time.Minute)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSleepPacerZeroDelay(t *testing.T) {
	start := time.Now()
	err := SleepPacer{}.Pause(context.Background(), 0)
	assert.NoError(t, err)
	assert.Less(t, time.Since(start), 50*time.Millisecond)
}

func TestNopPacerRecords(t *testing.T) {
	p := &NopPacer{}

	assert.NoError(t, p.Pause(context.Background(), time.Second))
	assert.NoError(t, p.Pause(context.Background(), 2*time.Second))

	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, p.Pauses)
	assert.Equal(t, 3*time.Second, p.TotalPaused())
}

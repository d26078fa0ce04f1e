// Package ratelimit provides request pacing and rate limiting for the
// Zhihu exporter.
//
// Two distinct mechanisms live here:
//
// Token Bucket:
//   - Fixed capacity bucket that refills after a specified period
//   - Caps the overall request rate against Zhihu's API
//   - Implements the Limiter interface (Allow, Wait, Reset)
//
// Pacer:
//   - Inserts fixed politeness delays between serial operations
//   - Never gates, only spaces; respects context cancellation
//   - SleepPacer sleeps on the wall clock, NopPacer records for tests
//
// Usage:
//
//	// 30 requests per minute
//	limiter := ratelimit.NewTokenBucket(30, time.Minute)
//	limiter.Wait()
//	// proceed with request
//
//	// 1.2s between items, cancellable
//	pacer := &ratelimit.SleepPacer{}
//	if err := pacer.Pause(ctx, 1200*time.Millisecond); err != nil {
//	    return err // context cancelled
//	}
package ratelimit

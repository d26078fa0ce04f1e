// Package retry provides exponential backoff and retry logic for handling
// transient failures in network operations, particularly for Zhihu API calls.
//
// Features:
//   - Geometric backoff with configurable base delay and factor
//   - Context support for cancellation
//   - Configurable retry predicates
//   - Injectable sleep function for clock-free tests
//   - Generic DoWithResult for operations returning values
//
// Basic usage:
//
//	retrier := retry.New(retry.DefaultPolicy(),
//	    retry.WithRetryIf(zhihu.IsRetryable),
//	    retry.WithLogger(log),
//	)
//
//	err := retrier.Do(ctx, func() error {
//	    return client.Ping()
//	})
//
//	// With a result
//	body, err := retry.DoWithResult(ctx, retrier, func() ([]byte, error) {
//	    return client.Fetch(url)
//	})
//
// The default predicate retries every error except context cancellation.
// Callers pass their own predicate to skip retries on permanent failures
// such as auth or not-found errors.
package retry

// Package retry runs an operation again when it fails with a retryable error.
//
// The fetcher uses it with DefaultConfig: two attempts, a constant one second
// pause, and only network errors qualify. HTTP error statuses are returned to
// the caller on the first attempt.
//
//	body, err := retry.DoWithResult(ctx, func() ([]byte, error) {
//		return client.get(ctx, url)
//	}, retry.DefaultConfig())
package retry

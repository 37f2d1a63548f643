// Package retry runs an operation repeatedly under a bounded policy.
//
// The API client uses it with RetryAfterBackoff: only 429 responses are
// retried, each after the server's Retry-After seconds plus one, and at most
// three attempts are made. Network and server errors fail fast.
//
//	err := retry.Do(func() error {
//		return send(ctx, req)
//	}, &retry.Config{
//		MaxAttempts: 3,
//		Backoff:     retry.DefaultRetryAfterBackoff(),
//		RetryIf:     retry.DefaultRetryIf,
//		Context:     ctx,
//	})
//
// The export sync worker pool uses ExponentialBackoff with IsNetworkError to
// optionally re-attempt downloads that failed in transit.
//
// Sleep can be replaced so tests observe delays without waiting.
package retry

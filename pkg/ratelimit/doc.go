// Package ratelimit paces outgoing API requests on the client side.
//
// The API enforces its own limits and answers 429 when they are exceeded;
// a Limiter keeps bulk operations such as export sync below that threshold
// so fewer requests need retrying.
//
// TokenBucket wraps golang.org/x/time/rate. SlidingWindow counts requests
// within a moving window. Both block in Wait until a request may proceed or
// the context is done.
//
//	limiter := ratelimit.NewRateLimiter(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.BurstSize)
//	if limiter != nil {
//		if err := limiter.Wait(ctx); err != nil {
//			return err
//		}
//	}
package ratelimit

// Package ratelimit paces outgoing requests per host using golang.org/x/time/rate.
//
// Each host gets its own token bucket the first time it is seen:
//
//	limiter := ratelimit.NewHostLimiter(2, 1) // 2 requests per second per host
//	if err := limiter.Wait(ctx, pageURL); err != nil {
//		return err
//	}
package ratelimit

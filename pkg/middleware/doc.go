// Package middleware provides HTTP rate limiting for the API server.
//
// # Overview
//
// Clients are identified by address (first X-Forwarded-For hop, then
// X-Real-IP, then the connection) and limited per window. Requests over
// the limit receive 429 with a Retry-After header.
//
// # Limiters
//
// RateLimiter: In-memory token bucket, one per process
//
//	limiter := middleware.NewRateLimiter(cfg)
//	limiter.StartCleanup(ctx)
//	router.Use(middleware.RateLimitMiddleware(limiter, logger))
//
// DistributedRateLimiter: Redis-backed fixed window shared by all replicas
//
//	limiter := middleware.NewDistributedRateLimiter(redisClient, cfg, "")
//	router.Use(middleware.RateLimitMiddleware(limiter, logger))
//
// When Redis is unreachable the middleware logs a warning and lets the
// request through.
//
// # Headers
//
//	X-RateLimit-Limit: requests allowed per window
//	X-RateLimit-Remaining: requests left for this client
//	Retry-After: seconds to wait after a 429
package middleware

package ratelimit

import "context"

// Limiter admits at most a fixed number of hits per key per window.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

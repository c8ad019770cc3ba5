package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis is a fixed-window limiter shared by every process on the same Redis.
type Redis struct {
	Client *redis.Client
	Limit  int
	Window time.Duration
	Prefix string
}

func NewRedis(opt *redis.Options, limit int, per time.Duration) *Redis {
	return &Redis{Client: redis.NewClient(opt), Limit: limit, Window: per, Prefix: "ratelimit:"}
}

func (r *Redis) Allow(ctx context.Context, key string) (bool, error) {
	k := r.Prefix + key
	pipe := r.Client.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.ExpireNX(ctx, k, r.Window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}
	return incr.Val() <= int64(r.Limit), nil
}

func (r *Redis) Close() error { return r.Client.Close() }

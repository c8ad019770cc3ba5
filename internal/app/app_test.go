package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"reseller-ops/go_backend/internal/app/config"
	"reseller-ops/go_backend/internal/infra/ratelimit"
)

func TestNewLimiter(t *testing.T) {
	defer goleak.VerifyNone(t)
	log := zap.NewNop()

	l, closeFn := newLimiter(config.Config{RateLimitPerMinute: 0}, log)
	assert.Nil(t, l)
	closeFn()

	l, closeFn = newLimiter(config.Config{RateLimitPerMinute: 30}, log)
	assert.IsType(t, &ratelimit.Memory{}, l)
	closeFn()
}

func TestNewLimiter_Redis(t *testing.T) {
	l, closeFn := newLimiter(config.Config{RateLimitPerMinute: 30, RedisAddr: "127.0.0.1:0"}, zap.NewNop())
	defer closeFn()
	assert.IsType(t, &ratelimit.Redis{}, l)
}

package ratelimit

import (
	redis "github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/smartcondo/condominio/internal/config"
)

type Params struct {
	fx.In

	Cfg config.Config
	Log *zap.Logger
}

// NewRedisClient returns nil when REDIS_ADDR is unset. Rate limiting is
// optional; webhook handlers fail open without it.
func NewRedisClient(p Params) *redis.Client {
	if p.Cfg.RedisAddr == "" {
		p.Log.Info("redis not configured, rate limiting disabled")
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     p.Cfg.RedisAddr,
		Password: p.Cfg.RedisPassword,
	})
}

var Module = fx.Module("ratelimit",
	fx.Provide(NewRedisClient),
	fx.Provide(NewTokenBucket),
)

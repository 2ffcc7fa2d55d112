package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"

	"learnpay/internal/domain/model"
	"learnpay/internal/domain/ports/repository"
	"learnpay/internal/infra/metrics"
	red "learnpay/internal/infra/redis"
)

var _ repository.GatewayConfigRepository = (*gatewayConfigCacheDecorator)(nil)

// gatewayConfigCacheDecorator caches configs as stored (secret encrypted).
type gatewayConfigCacheDecorator struct {
	inner repository.GatewayConfigRepository
	cache red.RedisClient
	ttl   time.Duration
	log   *zerolog.Logger
}

func NewGatewayConfigCacheDecorator(inner repository.GatewayConfigRepository, cache red.RedisClient, ttl time.Duration, logger *zerolog.Logger) repository.GatewayConfigRepository {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &gatewayConfigCacheDecorator{inner: inner, cache: cache, ttl: ttl, log: logger}
}

func gatewayConfigKey(name string) string { return fmt.Sprintf("gateway_config:%s", name) }

func (d *gatewayConfigCacheDecorator) FindByName(ctx context.Context, tx repository.Tx, name string) (*model.GatewayConfig, error) {
	// Reads inside a transaction go straight to the database.
	if tx != nil {
		return d.inner.FindByName(ctx, tx, name)
	}
	key := gatewayConfigKey(name)
	val, err := d.cache.Get(ctx, key)
	if err == nil {
		var c model.GatewayConfig
		if json.Unmarshal([]byte(val), &c) == nil {
			metrics.IncCacheRequest("gateway_config", "hit")
			return &c, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		d.log.Warn().Err(err).Str("key", key).Msg("gateway config cache read failed")
	}

	metrics.IncCacheRequest("gateway_config", "miss")
	c, err := d.inner.FindByName(ctx, tx, name)
	if err != nil {
		return nil, err
	}
	bytes, _ := json.Marshal(c)
	if err := d.cache.Set(ctx, key, bytes, d.ttl); err != nil {
		d.log.Warn().Err(err).Str("key", key).Msg("gateway config cache write failed")
	}
	return c, nil
}

// For write operations, we must invalidate the cache.
func (d *gatewayConfigCacheDecorator) Save(ctx context.Context, tx repository.Tx, c *model.GatewayConfig) error {
	if err := d.inner.Save(ctx, tx, c); err != nil {
		return err
	}
	if err := d.cache.Del(ctx, gatewayConfigKey(c.Name)); err != nil {
		d.log.Warn().Err(err).Str("gateway", c.Name).Msg("gateway config cache invalidation failed")
	}
	return nil
}

package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"learnpay/internal/domain/model"
	"learnpay/internal/domain/ports/repository"
	"learnpay/internal/infra/metrics"
	red "learnpay/internal/infra/redis"
)

var _ repository.UserContactRepository = (*userRepoCacheDecorator)(nil)

type userRepoCacheDecorator struct {
	inner repository.UserContactRepository
	cache red.RedisClient
	ttl   time.Duration
}

func NewUserRepoCacheDecorator(inner repository.UserContactRepository, cache red.RedisClient, ttl time.Duration) repository.UserContactRepository {
	if ttl <= 0 {
		ttl = 1 * time.Hour
	}
	return &userRepoCacheDecorator{
		inner: inner,
		cache: cache,
		ttl:   ttl,
	}
}

func (d *userRepoCacheDecorator) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.UserContact, error) {
	key := fmt.Sprintf("user:contact:%s", id)
	val, err := d.cache.Get(ctx, key)
	if err == nil {
		var user model.UserContact
		if json.Unmarshal([]byte(val), &user) == nil {
			metrics.IncCacheRequest("user_contact", "hit")
			return &user, nil
		}
	}

	metrics.IncCacheRequest("user_contact", "miss")
	user, err := d.inner.FindByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	bytes, _ := json.Marshal(user)
	_ = d.cache.Set(ctx, key, bytes, d.ttl)
	return user, nil
}

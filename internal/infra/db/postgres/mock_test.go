//go:build !integration

package postgres

import (
	"context"
	"time"

	"learnpay/internal/domain/model"
	"learnpay/internal/domain/ports/repository"
	red "learnpay/internal/infra/redis"
)

// --- Mocks for Cache Decorator Tests ---

// mockInnerGatewayConfigRepo mocks the database repository that the gateway decorator wraps.
type mockInnerGatewayConfigRepo struct {
	FindByNameFunc func(ctx context.Context, tx repository.Tx, name string) (*model.GatewayConfig, error)
	SaveFunc       func(ctx context.Context, tx repository.Tx, c *model.GatewayConfig) error
}

func (m *mockInnerGatewayConfigRepo) FindByName(ctx context.Context, tx repository.Tx, name string) (*model.GatewayConfig, error) {
	return m.FindByNameFunc(ctx, tx, name)
}
func (m *mockInnerGatewayConfigRepo) Save(ctx context.Context, tx repository.Tx, c *model.GatewayConfig) error {
	return m.SaveFunc(ctx, tx, c)
}

// mockInnerUserRepo mocks the contact repository that the user decorator wraps.
type mockInnerUserRepo struct {
	FindByIDFunc func(ctx context.Context, tx repository.Tx, id string) (*model.UserContact, error)
}

func (m *mockInnerUserRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.UserContact, error) {
	return m.FindByIDFunc(ctx, tx, id)
}

// mockRedisClient mocks our Redis client wrapper.
type mockRedisClient struct {
	GetFunc    func(ctx context.Context, key string) (string, error)
	SetFunc    func(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	DelFunc    func(ctx context.Context, keys ...string) error
	PingFunc   func(ctx context.Context) error
	IncrFunc   func(ctx context.Context, key string) (int64, error)
	ExpireFunc func(ctx context.Context, key string, expiration time.Duration) error
	CloseFunc  func() error
}

var _ red.RedisClient = &mockRedisClient{}

func (m *mockRedisClient) Get(ctx context.Context, key string) (string, error) {
	return m.GetFunc(ctx, key)
}
func (m *mockRedisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return m.SetFunc(ctx, key, value, expiration)
}
func (m *mockRedisClient) Del(ctx context.Context, keys ...string) error {
	return m.DelFunc(ctx, keys...)
}
func (m *mockRedisClient) Ping(ctx context.Context) error { return m.PingFunc(ctx) }
func (m *mockRedisClient) Incr(ctx context.Context, key string) (int64, error) {
	return m.IncrFunc(ctx, key)
}
func (m *mockRedisClient) Expire(ctx context.Context, key string, expiration time.Duration) error {
	return m.ExpireFunc(ctx, key, expiration)
}
func (m *mockRedisClient) Close() error { return m.CloseFunc() }

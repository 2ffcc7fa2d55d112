//go:build !integration

package api

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"learnpay/internal/domain/model"
	"learnpay/internal/domain/ports/repository"
	"learnpay/internal/usecase"
)

type mockLedger struct {
	CreateOrderFunc func(ctx context.Context, userID string, ref model.ProductRef, declared decimal.Decimal) (*model.Order, error)
	GetOrderFunc    func(ctx context.Context, id string) (*model.Order, error)
}

func (m *mockLedger) CreateOrder(ctx context.Context, userID string, ref model.ProductRef, declared decimal.Decimal) (*model.Order, error) {
	return m.CreateOrderFunc(ctx, userID, ref, declared)
}
func (m *mockLedger) GetOrder(ctx context.Context, id string) (*model.Order, error) {
	return m.GetOrderFunc(ctx, id)
}
func (m *mockLedger) Transition(context.Context, string, model.OrderStatus, usecase.Settlement) (*usecase.TransitionResult, error) {
	panic("not used")
}
func (m *mockLedger) TransitionTx(context.Context, repository.Tx, string, model.OrderStatus, usecase.Settlement) (*usecase.TransitionResult, error) {
	panic("not used")
}
func (m *mockLedger) AfterCommit(context.Context, *usecase.TransitionResult, usecase.Settlement) {}

type mockPayments struct {
	InitiateFunc         func(ctx context.Context, orderID, gateway string) (*model.PaymentInstrument, error)
	RenderInstrumentFunc func(ctx context.Context, paymentID string) (*model.PaymentInstrument, error)
}

func (m *mockPayments) Initiate(ctx context.Context, orderID, gateway string) (*model.PaymentInstrument, error) {
	return m.InitiateFunc(ctx, orderID, gateway)
}
func (m *mockPayments) RenderInstrument(ctx context.Context, paymentID string) (*model.PaymentInstrument, error) {
	return m.RenderInstrumentFunc(ctx, paymentID)
}
func (m *mockPayments) GetPayment(context.Context, string) (*model.Payment, error) {
	panic("not used")
}

type mockWebhooks struct {
	ProcessFunc func(ctx context.Context, gateway string, body []byte, signature string) (*usecase.WebhookResult, error)
}

func (m *mockWebhooks) Process(ctx context.Context, gateway string, body []byte, signature string) (*usecase.WebhookResult, error) {
	return m.ProcessFunc(ctx, gateway, body, signature)
}

func (m *mockWebhooks) Wait() {}

type mockVerification struct {
	VerifyFunc       func(ctx context.Context, in usecase.VerifyInput) (*usecase.VerificationResult, error)
	PendingQueueFunc func(ctx context.Context, olderThan time.Duration, limit int) ([]*model.Payment, error)
}

func (m *mockVerification) PendingQueue(ctx context.Context, olderThan time.Duration, limit int) ([]*model.Payment, error) {
	return m.PendingQueueFunc(ctx, olderThan, limit)
}

func (m *mockVerification) Verify(ctx context.Context, in usecase.VerifyInput) (*usecase.VerificationResult, error) {
	return m.VerifyFunc(ctx, in)
}

type mockLimiter struct {
	AllowFunc func(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

func (m *mockLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	return m.AllowFunc(ctx, key, limit, window)
}

//go:build !integration

package usecase_test

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"learnpay/internal/domain"
	"learnpay/internal/domain/model"
	"learnpay/internal/domain/ports/adapter"
	"learnpay/internal/domain/ports/repository"
)

func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func storageErr(op string) error { return fmt.Errorf("%w: %s: connection reset", domain.ErrStorageFailure, op) }

// =============================
// Repositories
// =============================

// ---- Mock OrderRepository ----

type MockOrderRepo struct {
	mu   sync.Mutex
	data map[string]*model.Order

	CreateFunc              func(ctx context.Context, tx repository.Tx, o *model.Order) error
	FindByIDFunc            func(ctx context.Context, tx repository.Tx, id string) (*model.Order, error)
	TransitionIfPendingFunc func(ctx context.Context, tx repository.Tx, id string, status model.OrderStatus, gatewayTxnID *string, at time.Time) (bool, error)
}

var _ repository.OrderRepository = (*MockOrderRepo)(nil)

func NewMockOrderRepo() *MockOrderRepo {
	return &MockOrderRepo{data: map[string]*model.Order{}}
}

func (r *MockOrderRepo) Create(ctx context.Context, tx repository.Tx, o *model.Order) error {
	if r.CreateFunc != nil {
		return r.CreateFunc(ctx, tx, o)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ex := range r.data {
		if ex.Status == model.OrderStatusPending && ex.UserID == o.UserID && ex.Product == o.Product {
			return domain.ErrAlreadyExists
		}
	}
	cp := *o
	r.data[o.ID] = &cp
	return nil
}

func (r *MockOrderRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Order, error) {
	if r.FindByIDFunc != nil {
		return r.FindByIDFunc(ctx, tx, id)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.data[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (r *MockOrderRepo) FindPendingByUserProduct(ctx context.Context, tx repository.Tx, userID string, ref model.ProductRef) (*model.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.data {
		if o.Status == model.OrderStatusPending && o.UserID == userID && o.Product == ref {
			cp := *o
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *MockOrderRepo) TransitionIfPending(ctx context.Context, tx repository.Tx, id string, status model.OrderStatus, gatewayTxnID *string, at time.Time) (bool, error) {
	if r.TransitionIfPendingFunc != nil {
		return r.TransitionIfPendingFunc(ctx, tx, id, status, gatewayTxnID, at)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.data[id]
	if !ok || o.Status != model.OrderStatusPending {
		return false, nil
	}
	o.Status = status
	if gatewayTxnID != nil {
		o.GatewayTxnID = gatewayTxnID
	}
	o.SettledAt = &at
	o.UpdatedAt = at
	return true, nil
}

func (r *MockOrderRepo) AttachGateway(ctx context.Context, tx repository.Tx, id, gateway, transactionRef string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if o, ok := r.data[id]; ok && o.Status == model.OrderStatusPending {
		o.GatewayName = &gateway
		o.TransactionRef = &transactionRef
	}
	return nil
}

// status is a test helper reading the stored state.
func (r *MockOrderRepo) status(id string) model.OrderStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	if o, ok := r.data[id]; ok {
		return o.Status
	}
	return ""
}

// ---- Mock PaymentRepository ----

type MockPaymentRepo struct {
	mu   sync.Mutex
	data map[string]*model.Payment

	CreateFunc               func(ctx context.Context, tx repository.Tx, p *model.Payment) error
	FindByTransactionRefFunc func(ctx context.Context, tx repository.Tx, gateway, ref string) (*model.Payment, error)
	ListPendingOlderThanFunc func(ctx context.Context, tx repository.Tx, cutoff time.Time, limit int) ([]*model.Payment, error)

	observed int
}

var _ repository.PaymentRepository = (*MockPaymentRepo)(nil)

func NewMockPaymentRepo() *MockPaymentRepo {
	return &MockPaymentRepo{data: map[string]*model.Payment{}}
}

func (r *MockPaymentRepo) Create(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	if r.CreateFunc != nil {
		return r.CreateFunc(ctx, tx, p)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ex := range r.data {
		if ex.OrderID == p.OrderID && ex.Status == model.PaymentStatusPending {
			return domain.ErrAlreadyExists
		}
	}
	cp := *p
	r.data[p.ID] = &cp
	return nil
}

func (r *MockPaymentRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.data[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *MockPaymentRepo) FindByTransactionRef(ctx context.Context, tx repository.Tx, gateway, ref string) (*model.Payment, error) {
	if r.FindByTransactionRefFunc != nil {
		return r.FindByTransactionRefFunc(ctx, tx, gateway, ref)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.data {
		if p.Gateway == gateway && p.TransactionRef == ref {
			cp := *p
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *MockPaymentRepo) FindPendingByOrder(ctx context.Context, tx repository.Tx, orderID string) (*model.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.data {
		if p.OrderID == orderID && p.Status == model.PaymentStatusPending {
			cp := *p
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *MockPaymentRepo) UpdateStatusIfPending(ctx context.Context, tx repository.Tx, id string, status model.PaymentStatus, obs repository.Observation) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.data[id]
	if !ok || p.Status != model.PaymentStatusPending {
		return false, nil
	}
	p.Status = status
	applyObservation(p, obs)
	return true, nil
}

func (r *MockPaymentRepo) ResolveIfPending(ctx context.Context, tx repository.Tx, id string, res repository.Resolution) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.data[id]
	if !ok || p.Status != model.PaymentStatusPending {
		return false, nil
	}
	p.Status = res.Status
	p.VerifiedBy = &res.OperatorID
	p.VerifiedAt = &res.At
	p.Notes = res.Notes
	if res.GatewayRef != nil {
		p.GatewayRef = res.GatewayRef
	}
	return true, nil
}

func (r *MockPaymentRepo) Observe(ctx context.Context, tx repository.Tx, id string, obs repository.Observation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.data[id]
	if !ok {
		return domain.ErrNotFound
	}
	applyObservation(p, obs)
	r.observed++
	return nil
}

func (r *MockPaymentRepo) ListPendingOlderThan(ctx context.Context, tx repository.Tx, cutoff time.Time, limit int) ([]*model.Payment, error) {
	if r.ListPendingOlderThanFunc != nil {
		return r.ListPendingOlderThanFunc(ctx, tx, cutoff, limit)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Payment
	for _, p := range r.data {
		if p.Status == model.PaymentStatusPending && p.CreatedAt.Before(cutoff) {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func applyObservation(p *model.Payment, obs repository.Observation) {
	if obs.GatewayRef != nil {
		p.GatewayRef = obs.GatewayRef
	}
	if obs.Code != nil {
		p.LastCode = obs.Code
	}
	if obs.Message != nil {
		p.LastMessage = obs.Message
	}
}

// only returns the single stored attempt; tests with one attempt use it.
func (r *MockPaymentRepo) only() *model.Payment {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.data {
		cp := *p
		return &cp
	}
	return nil
}

func (r *MockPaymentRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.data)
}

// ---- Mock ProductCatalog ----

type MockCatalog struct {
	entries map[model.ProductRef]*model.CatalogEntry
}

var _ repository.ProductCatalog = (*MockCatalog)(nil)

func NewMockCatalog(entries ...*model.CatalogEntry) *MockCatalog {
	c := &MockCatalog{entries: map[model.ProductRef]*model.CatalogEntry{}}
	for _, e := range entries {
		c.entries[e.Ref] = e
	}
	return c
}

func (c *MockCatalog) LookupPrice(ctx context.Context, ref model.ProductRef) (*model.CatalogEntry, error) {
	e, ok := c.entries[ref]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

// ---- Mock GatewayConfigRepository ----

type MockGatewayConfigRepo struct {
	mu   sync.Mutex
	data map[string]model.GatewayConfig

	FindByNameFunc func(ctx context.Context, tx repository.Tx, name string) (*model.GatewayConfig, error)
}

var _ repository.GatewayConfigRepository = (*MockGatewayConfigRepo)(nil)

func NewMockGatewayConfigRepo(configs ...model.GatewayConfig) *MockGatewayConfigRepo {
	r := &MockGatewayConfigRepo{data: map[string]model.GatewayConfig{}}
	for _, c := range configs {
		r.data[c.Name] = c
	}
	return r
}

func (r *MockGatewayConfigRepo) FindByName(ctx context.Context, tx repository.Tx, name string) (*model.GatewayConfig, error) {
	if r.FindByNameFunc != nil {
		return r.FindByNameFunc(ctx, tx, name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.data[name]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &c, nil
}

func (r *MockGatewayConfigRepo) Save(ctx context.Context, tx repository.Tx, c *model.GatewayConfig) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[c.Name] = *c
	return nil
}

// ---- Mock Enroller ----

type MockEnroller struct {
	mu   sync.Mutex
	kind model.ProductKind
	rows map[string]*model.Entitlement // user|product

	EnrollFunc func(ctx context.Context, tx repository.Tx, e *model.Entitlement) (bool, error)
}

var _ repository.Enroller = (*MockEnroller)(nil)

func NewMockEnroller(kind model.ProductKind) *MockEnroller {
	return &MockEnroller{kind: kind, rows: map[string]*model.Entitlement{}}
}

func (m *MockEnroller) Kind() model.ProductKind { return m.kind }

func (m *MockEnroller) Enroll(ctx context.Context, tx repository.Tx, e *model.Entitlement) (bool, error) {
	if m.EnrollFunc != nil {
		return m.EnrollFunc(ctx, tx, e)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := e.UserID + "|" + e.Product.ID
	if _, ok := m.rows[key]; ok {
		return false, nil
	}
	cp := *e
	m.rows[key] = &cp
	return true, nil
}

func (m *MockEnroller) Find(ctx context.Context, tx repository.Tx, userID, productID string) (*model.Entitlement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.rows[userID+"|"+productID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (m *MockEnroller) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

// enrollerSet returns one mock per product kind, keyed for assertions.
func enrollerSet() (map[model.ProductKind]*MockEnroller, []repository.Enroller) {
	byKind := map[model.ProductKind]*MockEnroller{}
	var list []repository.Enroller
	for _, k := range model.ProductKinds {
		m := NewMockEnroller(k)
		byKind[k] = m
		list = append(list, m)
	}
	return byKind, list
}

// ---- Mock TransactionManager ----

// MockTxManager runs fn with NoTX. Transactions are serialised to mimic row
// locking on the attempt.
type MockTxManager struct {
	mu sync.Mutex

	WithTxFunc func(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error
}

var _ repository.TransactionManager = (*MockTxManager)(nil)

func NewMockTxManager() *MockTxManager { return &MockTxManager{} }

func (m *MockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, txOpt, fn)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(ctx, repository.NoTX)
}

// =============================
// Adapters
// =============================

type sentNotification struct {
	UserID string
	Kind   adapter.NotificationKind
	Data   map[string]string
}

type MockNotifier struct {
	mu   sync.Mutex
	Sent []sentNotification
	Err  error
	// Gate, when set, holds every Send until it is closed.
	Gate chan struct{}
	// CtxErrs records ctx.Err() as seen by each Send.
	CtxErrs []error
}

var _ adapter.Notifier = (*MockNotifier)(nil)

func (m *MockNotifier) Send(ctx context.Context, userID string, kind adapter.NotificationKind, data map[string]string) error {
	if m.Gate != nil {
		<-m.Gate
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = append(m.Sent, sentNotification{UserID: userID, Kind: kind, Data: data})
	m.CtxErrs = append(m.CtxErrs, ctx.Err())
	return m.Err
}

func (m *MockNotifier) sent() []sentNotification {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sentNotification(nil), m.Sent...)
}

type publishedEvent struct {
	Topic, Key string
	Payload    []byte
}

type MockPublisher struct {
	mu     sync.Mutex
	Events []publishedEvent
	Err    error
}

var _ adapter.EventPublisher = (*MockPublisher)(nil)

func (m *MockPublisher) Publish(ctx context.Context, topic, key string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, publishedEvent{Topic: topic, Key: key, Payload: payload})
	return m.Err
}

func (m *MockPublisher) Close() error { return nil }

func (m *MockPublisher) events() []publishedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]publishedEvent(nil), m.Events...)
}

// MockCipher prefixes instead of encrypting.
type MockCipher struct{ DecryptErr error }

var _ adapter.SecretCipher = (*MockCipher)(nil)

func (MockCipher) Encrypt(plaintext string) (string, error) { return "enc:" + plaintext, nil }

func (c MockCipher) Decrypt(ciphertext string) (string, error) {
	if c.DecryptErr != nil {
		return "", c.DecryptErr
	}
	if len(ciphertext) < 4 || ciphertext[:4] != "enc:" {
		return "", fmt.Errorf("not a cipher text")
	}
	return ciphertext[4:], nil
}

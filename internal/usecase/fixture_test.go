//go:build !integration

package usecase_test

import (
	"context"
	"testing"

	"learnpay/internal/domain/model"
	"learnpay/internal/domain/ports/adapter"
	"learnpay/internal/infra/payment"
	"learnpay/internal/usecase"
)

const testGateway = "upi-gw"

func testGatewayConfig() model.GatewayConfig {
	return model.GatewayConfig{
		Name:         testGateway,
		MerchantID:   "LEARNPAYUAT",
		MerchantName: "Learn Academy",
		Secret:       "sandbox-salt-key",
		KeyIndex:     "1",
		Currency:     "INR",
		CallbackPath: "/webhooks/upi-gw",
		Active:       true,
	}
}

var (
	qbank42   = model.ProductRef{Kind: model.ProductQBank, ID: "qbank-42"}
	course101 = model.ProductRef{Kind: model.ProductCourse, ID: "course-go-101"}
)

// world wires every use case over in-memory storage and the real UPI codec.
type world struct {
	orders    *MockOrderRepo
	payments  *MockPaymentRepo
	configs   *MockGatewayConfigRepo
	enrollers map[model.ProductKind]*MockEnroller
	tm        *MockTxManager
	notifier  *MockNotifier
	events    *MockPublisher
	registry  *payment.Registry
	directory *usecase.GatewayDirectory

	ledger   usecase.OrderLedger
	pay      usecase.PaymentUseCase
	webhooks usecase.WebhookUseCase
	verify   usecase.VerificationUseCase
}

func newWorld(t *testing.T, codecs ...adapter.PaymentGateway) *world {
	t.Helper()
	if len(codecs) == 0 {
		codecs = []adapter.PaymentGateway{payment.NewUPIGateway(testGateway)}
	}
	w := &world{
		orders:   NewMockOrderRepo(),
		payments: NewMockPaymentRepo(),
		configs:  NewMockGatewayConfigRepo(testGatewayConfig()),
		tm:       NewMockTxManager(),
		notifier: &MockNotifier{},
		events:   &MockPublisher{},
		registry: payment.NewRegistry(codecs...),
	}
	catalog := NewMockCatalog(
		&model.CatalogEntry{Ref: qbank42, Title: "JEE question bank", Price: dec("499.00"), Currency: "INR"},
		&model.CatalogEntry{Ref: course101, Title: "Go 101", Price: dec("1999.00"), Currency: "INR"},
	)
	byKind, list := enrollerSet()
	w.enrollers = byKind
	logger := newTestLogger()

	granter, err := usecase.NewEntitlementGranter(logger, list...)
	if err != nil {
		t.Fatalf("NewEntitlementGranter: %v", err)
	}
	w.directory = usecase.NewGatewayDirectory(w.configs, nil, w.registry)
	w.ledger = usecase.NewOrderLedger(w.orders, catalog, granter, w.tm, w.events, "INR", logger)
	w.pay = usecase.NewPaymentUseCase(w.orders, w.payments, w.directory, w.tm, logger)
	w.webhooks = usecase.NewWebhookUseCase(w.directory, w.orders, w.payments, w.ledger, w.tm, w.notifier, logger)
	w.verify = usecase.NewVerificationUseCase(w.payments, w.ledger, w.tm, w.notifier, logger)
	return w
}

// pendingAttempt creates an order for ref at price and initiates payment on
// the test gateway.
func (w *world) pendingAttempt(t *testing.T, userID string, ref model.ProductRef, price string) (*model.Order, *model.PaymentInstrument) {
	t.Helper()
	ctx := context.Background()
	o, err := w.ledger.CreateOrder(ctx, userID, ref, dec(price))
	if err != nil {
		t.Fatalf("CreateOrder: %v", err)
	}
	inst, err := w.pay.Initiate(ctx, o.ID, testGateway)
	if err != nil {
		t.Fatalf("Initiate: %v", err)
	}
	return o, inst
}

// callback builds and signs a gateway callback.
func callback(t *testing.T, ref, gatewayTxn, code, state string, amountMinor int64) (body []byte, sig string) {
	t.Helper()
	cfg := testGatewayConfig()
	body, err := payment.CallbackBody(cfg.MerchantID, ref, gatewayTxn, code, state, amountMinor)
	if err != nil {
		t.Fatalf("CallbackBody: %v", err)
	}
	return body, payment.Sign(&cfg, body)
}

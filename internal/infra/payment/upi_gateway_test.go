//go:build !integration

package payment

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"learnpay/internal/domain"
	"learnpay/internal/domain/model"
)

func testConfig() *model.GatewayConfig {
	return &model.GatewayConfig{
		Name:         "upi-gw",
		MerchantID:   "learnpay@upi",
		MerchantName: "Learn Pay",
		Secret:       "salt-key",
		KeyIndex:     "1",
		Currency:     "INR",
		CallbackPath: "/webhooks/upi-gw",
		Active:       true,
	}
}

func testAttempt() *model.Payment {
	return &model.Payment{
		ID:             "pay-1",
		OrderID:        "ord-1",
		Amount:         decimal.RequireFromString("499"),
		Currency:       "INR",
		Gateway:        "upi-gw",
		TransactionRef: "TX01HZZZZZZZZZZZZZZZZZZZZZ",
		Status:         model.PaymentStatusPending,
	}
}

func TestPayURI(t *testing.T) {
	got := PayURI(testConfig(), testAttempt())
	want := "upi://pay?pa=learnpay%40upi&pn=Learn%20Pay&am=499.00&cu=INR" +
		"&tn=Order%20ord-1%20Ref%20TX01HZZZZZZZZZZZZZZZZZZZZZ&tr=TX01HZZZZZZZZZZZZZZZZZZZZZ"
	if got != want {
		t.Errorf("unexpected uri\n got: %s\nwant: %s", got, want)
	}
}

func TestBuildInstrument(t *testing.T) {
	g := NewUPIGateway("upi-gw")

	t.Run("renders deep link and png qr", func(t *testing.T) {
		inst, err := g.BuildInstrument(testConfig(), testAttempt())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.HasPrefix(inst.DeepLink, "upi://pay?") {
			t.Errorf("unexpected deep link %q", inst.DeepLink)
		}
		const prefix = "data:image/png;base64,"
		if !strings.HasPrefix(inst.QRCode, prefix) {
			t.Fatalf("qr code is not a png data uri")
		}
		png, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(inst.QRCode, prefix))
		if err != nil {
			t.Fatalf("qr payload not base64: %v", err)
		}
		if len(png) < 8 || string(png[1:4]) != "PNG" {
			t.Error("qr payload is not a PNG")
		}
		if inst.TransactionRef != testAttempt().TransactionRef || inst.Gateway != "upi-gw" {
			t.Error("instrument does not reference the attempt")
		}
	})

	t.Run("encoder failure is instrument generation failure", func(t *testing.T) {
		bad := NewUPIGateway("upi-gw")
		bad.encode = func(string, int) ([]byte, error) { return nil, errors.New("too long") }
		_, err := bad.BuildInstrument(testConfig(), testAttempt())
		if !errors.Is(err, domain.ErrInstrumentGenerationFailed) {
			t.Fatalf("expected ErrInstrumentGenerationFailed, got %v", err)
		}
	})
}

func TestClassify(t *testing.T) {
	g := NewUPIGateway("upi-gw")
	cases := []struct {
		code, state string
		want        model.OutcomeClass
	}{
		{"PAYMENT_SUCCESS", "COMPLETED", model.OutcomeSuccessful},
		{"payment_success", "completed", model.OutcomeSuccessful},
		{"PAYMENT_SUCCESS", "PENDING", model.OutcomePending},
		{"PAYMENT_ERROR", "", model.OutcomeFailed},
		{"PAYMENT_DECLINED", "PENDING", model.OutcomeFailed},
		{"TRANSACTION_NOT_FOUND", "", model.OutcomeFailed},
		{"TIMED_OUT", "", model.OutcomeFailed},
		{"AUTHORIZATION_FAILED", "", model.OutcomeFailed},
		{"PAYMENT_PENDING", "FAILED", model.OutcomeFailed},
		{"PAYMENT_PENDING", "PENDING", model.OutcomePending},
		{"", "", model.OutcomePending},
	}
	for _, c := range cases {
		t.Run(c.code+"/"+c.state, func(t *testing.T) {
			got := g.Classify(&model.WebhookOutcome{Code: c.code, State: c.state})
			if got != c.want {
				t.Errorf("Classify(%q,%q) = %s, want %s", c.code, c.state, got, c.want)
			}
		})
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry(NewUPIGateway("upi-gw"))
	if _, ok := r.Gateway("upi-gw"); !ok {
		t.Error("expected registered gateway")
	}
	if _, ok := r.Gateway("other"); ok {
		t.Error("unexpected gateway")
	}
}

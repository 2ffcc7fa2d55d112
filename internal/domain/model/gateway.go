package model

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"learnpay/internal/domain"
)

// GatewayConfig is the merchant configuration for one payment gateway.
// Secret is only populated in memory; SecretCipher is what gets persisted.
type GatewayConfig struct {
	Name         string `json:"name"`
	MerchantID   string `json:"merchant_id"`
	MerchantName string `json:"merchant_name"`
	Secret       string `json:"-"`
	SecretCipher string `json:"secret_cipher"`
	KeyIndex     string `json:"key_index"`
	Currency     string `json:"currency"`
	CallbackPath string `json:"callback_path"`
	Active       bool   `json:"active"`
}

// Usable reports whether the config carries every field initiation needs.
func (c *GatewayConfig) Usable() error {
	if c == nil || !c.Active {
		return fmt.Errorf("%w: gateway inactive", domain.ErrGatewayUnavailable)
	}
	var missing []string
	if c.MerchantID == "" {
		missing = append(missing, "merchant_id")
	}
	if c.MerchantName == "" {
		missing = append(missing, "merchant_name")
	}
	if c.Secret == "" {
		missing = append(missing, "secret")
	}
	if c.Currency == "" {
		missing = append(missing, "currency")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s missing %s", domain.ErrGatewayUnavailable, c.Name, strings.Join(missing, ","))
	}
	return nil
}

// PaymentInstrument is what a client needs to pay: a deep link and the
// same URI as a scannable code.
type PaymentInstrument struct {
	PaymentID      string          `json:"payment_id"`
	OrderID        string          `json:"order_id"`
	TransactionRef string          `json:"transaction_ref"`
	Gateway        string          `json:"gateway"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	DeepLink       string          `json:"deep_link"`
	QRCode         string          `json:"qr_code"` // data:image/png;base64,...
}

// WebhookOutcome is the canonical decoding of a gateway callback.
type WebhookOutcome struct {
	MerchantTxnRef string
	GatewayTxnRef  string
	Code           string
	State          string
	Message        string
	Amount         *decimal.Decimal
}

// OutcomeClass is the ledger-facing classification of a callback.
type OutcomeClass string

const (
	OutcomeSuccessful OutcomeClass = "successful"
	OutcomeFailed     OutcomeClass = "failed"
	OutcomePending    OutcomeClass = "pending"
)

func (c OutcomeClass) OrderStatus() (OrderStatus, bool) {
	switch c {
	case OutcomeSuccessful:
		return OrderStatusSuccessful, true
	case OutcomeFailed:
		return OrderStatusFailed, true
	}
	return "", false
}

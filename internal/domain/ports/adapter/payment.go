package adapter

import (
	"learnpay/internal/domain/model"
)

// PaymentGateway is the hex port for one gateway's wire format. It holds no
// merchant state: every call receives the active configuration explicitly.
type PaymentGateway interface {
	Name() string

	// BuildInstrument encodes a payment request for attempt p (deep link + scannable code).
	BuildInstrument(cfg *model.GatewayConfig, p *model.Payment) (*model.PaymentInstrument, error)
	// VerifySignature authenticates a raw callback body. Any mismatch is
	// domain.ErrSignatureInvalid.
	VerifySignature(cfg *model.GatewayConfig, body []byte, signature string) error
	// DecodeCallback unwraps the callback envelope into a canonical outcome.
	// Any decoding failure is domain.ErrMalformedPayload.
	DecodeCallback(body []byte) (*model.WebhookOutcome, error)
	// Classify maps gateway outcome codes to a ledger outcome.
	Classify(o *model.WebhookOutcome) model.OutcomeClass
}

// GatewayResolver returns the wire codec registered for a gateway name.
type GatewayResolver interface {
	Gateway(name string) (PaymentGateway, bool)
}

// SecretCipher decrypts gateway secrets stored at rest.
type SecretCipher interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

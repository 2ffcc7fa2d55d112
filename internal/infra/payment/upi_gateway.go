package payment

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"

	"github.com/skip2/go-qrcode"

	"learnpay/internal/domain"
	"learnpay/internal/domain/model"
	"learnpay/internal/domain/ports/adapter"
)

const (
	upiSuccessCode    = "PAYMENT_SUCCESS"
	upiCompletedState = "COMPLETED"
	upiFailedState    = "FAILED"

	// QRSize is the rendered PNG edge length in pixels.
	QRSize = 256
)

// upiFailureCodes are the gateway codes that settle an order as failed.
var upiFailureCodes = map[string]struct{}{
	"PAYMENT_ERROR":         {},
	"PAYMENT_DECLINED":      {},
	"TRANSACTION_NOT_FOUND": {},
	"TIMED_OUT":             {},
	"AUTHORIZATION_FAILED":  {},
}

var _ adapter.PaymentGateway = (*UPIGateway)(nil)

// UPIGateway speaks the UPI deep-link request format and the
// base64-of-JSON callback envelope with an X-VERIFY style checksum.
type UPIGateway struct {
	name   string
	qrSize int
	encode func(content string, size int) ([]byte, error)
}

func NewUPIGateway(name string) *UPIGateway {
	return &UPIGateway{name: name, qrSize: QRSize, encode: encodeQR}
}

func encodeQR(content string, size int) ([]byte, error) {
	return qrcode.Encode(content, qrcode.Medium, size)
}

func (g *UPIGateway) Name() string { return g.name }

// BuildInstrument renders the UPI pay URI and a PNG QR code of the same URI.
func (g *UPIGateway) BuildInstrument(cfg *model.GatewayConfig, p *model.Payment) (*model.PaymentInstrument, error) {
	if cfg == nil || p == nil {
		return nil, fmt.Errorf("%w: missing config or attempt", domain.ErrInstrumentGenerationFailed)
	}
	link := PayURI(cfg, p)
	png, err := g.encode(link, g.qrSize)
	if err != nil {
		return nil, fmt.Errorf("%w: qr encode: %v", domain.ErrInstrumentGenerationFailed, err)
	}
	currency := p.Currency
	if currency == "" {
		currency = cfg.Currency
	}
	return &model.PaymentInstrument{
		PaymentID:      p.ID,
		OrderID:        p.OrderID,
		TransactionRef: p.TransactionRef,
		Gateway:        g.name,
		Amount:         p.Amount,
		Currency:       currency,
		DeepLink:       link,
		QRCode:         "data:image/png;base64," + base64.StdEncoding.EncodeToString(png),
	}, nil
}

// PayURI builds upi://pay?pa=&pn=&am=&cu=&tn=&tr= with parameters in that order.
func PayURI(cfg *model.GatewayConfig, p *model.Payment) string {
	currency := p.Currency
	if currency == "" {
		currency = cfg.Currency
	}
	note := fmt.Sprintf("Order %s Ref %s", p.OrderID, p.TransactionRef)
	params := [][2]string{
		{"pa", cfg.MerchantID},
		{"pn", cfg.MerchantName},
		{"am", model.FormatAmount(p.Amount)},
		{"cu", currency},
		{"tn", note},
		{"tr", p.TransactionRef},
	}
	var b strings.Builder
	b.WriteString("upi://pay?")
	for i, kv := range params {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(kv[0])
		b.WriteByte('=')
		b.WriteString(escape(kv[1]))
	}
	return b.String()
}

// escape percent-encodes a query value; UPI apps expect %20, not '+'.
func escape(v string) string {
	return strings.ReplaceAll(url.QueryEscape(v), "+", "%20")
}

// Classify maps (code, state) to a ledger outcome.
func (g *UPIGateway) Classify(o *model.WebhookOutcome) model.OutcomeClass {
	if o == nil {
		return model.OutcomePending
	}
	code := strings.ToUpper(strings.TrimSpace(o.Code))
	state := strings.ToUpper(strings.TrimSpace(o.State))
	switch {
	case code == upiSuccessCode && state == upiCompletedState:
		return model.OutcomeSuccessful
	case state == upiFailedState:
		return model.OutcomeFailed
	}
	if _, ok := upiFailureCodes[code]; ok {
		return model.OutcomeFailed
	}
	return model.OutcomePending
}

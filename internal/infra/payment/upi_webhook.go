package payment

import (
	"bytes"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"learnpay/internal/domain"
	"learnpay/internal/domain/model"
)

// SignatureSeparator splits the checksum from the key index in X-VERIFY.
const SignatureSeparator = "###"

// Sign computes hex(sha256(trim(body) + callbackPath + secret)) + "###" + keyIndex.
func Sign(cfg *model.GatewayConfig, body []byte) string {
	h := sha256.New()
	h.Write(bytes.TrimSpace(body))
	h.Write([]byte(cfg.CallbackPath))
	h.Write([]byte(cfg.Secret))
	return hex.EncodeToString(h.Sum(nil)) + SignatureSeparator + cfg.KeyIndex
}

// VerifySignature compares in constant time; nothing in body is parsed.
func (g *UPIGateway) VerifySignature(cfg *model.GatewayConfig, body []byte, signature string) error {
	if cfg == nil || cfg.Secret == "" {
		return fmt.Errorf("%w: no secret configured", domain.ErrSignatureInvalid)
	}
	expected := []byte(Sign(cfg, body))
	presented := []byte(strings.TrimSpace(signature))
	if subtle.ConstantTimeCompare(expected, presented) != 1 {
		return domain.ErrSignatureInvalid
	}
	return nil
}

type upiEnvelope struct {
	Response string `json:"response"`
}

type upiCallback struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Data    struct {
		MerchantID            string `json:"merchantId"`
		MerchantTransactionID string `json:"merchantTransactionId"`
		TransactionID         string `json:"transactionId"`
		Amount                *int64 `json:"amount"` // minor units
		State                 string `json:"state"`
		ResponseCode          string `json:"responseCode"`
	} `json:"data"`
}

// DecodeCallback unwraps {"response":"<base64 JSON>"}.
func (g *UPIGateway) DecodeCallback(body []byte) (*model.WebhookOutcome, error) {
	var env upiEnvelope
	if err := json.Unmarshal(bytes.TrimSpace(body), &env); err != nil {
		return nil, fmt.Errorf("%w: envelope: %v", domain.ErrMalformedPayload, err)
	}
	if env.Response == "" {
		return nil, fmt.Errorf("%w: empty response field", domain.ErrMalformedPayload)
	}
	raw, err := base64.StdEncoding.DecodeString(env.Response)
	if err != nil {
		return nil, fmt.Errorf("%w: base64: %v", domain.ErrMalformedPayload, err)
	}
	var cb upiCallback
	if err := json.Unmarshal(raw, &cb); err != nil {
		return nil, fmt.Errorf("%w: payload: %v", domain.ErrMalformedPayload, err)
	}
	if strings.TrimSpace(cb.Data.MerchantTransactionID) == "" {
		return nil, fmt.Errorf("%w: missing merchantTransactionId", domain.ErrMalformedPayload)
	}
	out := &model.WebhookOutcome{
		MerchantTxnRef: cb.Data.MerchantTransactionID,
		GatewayTxnRef:  cb.Data.TransactionID,
		Code:           cb.Code,
		State:          cb.Data.State,
		Message:        cb.Message,
	}
	if cb.Data.Amount != nil {
		amt := decimal.New(*cb.Data.Amount, -2)
		out.Amount = &amt
	}
	return out, nil
}

// CallbackBody builds a callback envelope in the gateway's format. Used by
// the sandbox simulator and tests. A non-positive amount is omitted.
func CallbackBody(merchantID, merchantTxnRef, gatewayTxnRef, code, state string, amountMinor int64) ([]byte, error) {
	var cb upiCallback
	cb.Success = code == upiSuccessCode
	cb.Code = code
	cb.Message = strings.ReplaceAll(strings.ToLower(code), "_", " ")
	cb.Data.MerchantID = merchantID
	cb.Data.MerchantTransactionID = merchantTxnRef
	cb.Data.TransactionID = gatewayTxnRef
	if amountMinor > 0 {
		cb.Data.Amount = &amountMinor
	}
	cb.Data.State = state
	cb.Data.ResponseCode = code
	inner, err := json.Marshal(cb)
	if err != nil {
		return nil, err
	}
	return json.Marshal(upiEnvelope{Response: base64.StdEncoding.EncodeToString(inner)})
}

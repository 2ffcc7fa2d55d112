package domain

import "errors"

var (
	// Lookup / lifecycle errors surfaced to direct callers.
	ErrNotFound           = errors.New("entity not found")
	ErrInvalidState       = errors.New("operation not valid for current state")
	ErrPriceMismatch      = errors.New("declared price does not match catalog price")
	ErrAlreadyResolved    = errors.New("payment attempt already resolved")
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrAlreadyExists      = errors.New("entity already exists")

	// Webhook intake errors. Never answered to the gateway as failures.
	ErrSignatureInvalid = errors.New("webhook signature invalid")
	ErrMalformedPayload = errors.New("webhook payload malformed")

	ErrInstrumentGenerationFailed = errors.New("payment instrument generation failed")

	// Persistence errors. ErrStorageFailure always propagates.
	ErrStorageFailure     = errors.New("storage failure")
	ErrInvalidExecContext = errors.New("invalid database execution context")
)

// IsStorageFailure reports whether err must be surfaced as an infrastructure fault.
func IsStorageFailure(err error) bool {
	return errors.Is(err, ErrStorageFailure) || errors.Is(err, ErrInvalidExecContext)
}

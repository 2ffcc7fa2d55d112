package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"learnpay/internal/domain"
)

type errorPayload struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

type errorEnvelope struct {
	Error errorPayload `json:"error"`
}

func errorBody(code, msg string) errorEnvelope {
	return errorEnvelope{Error: errorPayload{Code: code, Message: msg}}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps domain errors onto HTTP status and a stable error code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, domain.ErrAlreadyResolved):
		return http.StatusConflict, "already_resolved"
	case errors.Is(err, domain.ErrInvalidState), errors.Is(err, domain.ErrAlreadyExists):
		return http.StatusConflict, "invalid_state"
	case errors.Is(err, domain.ErrPriceMismatch):
		return http.StatusUnprocessableEntity, "price_mismatch"
	case errors.Is(err, domain.ErrInvalidArgument):
		return http.StatusBadRequest, "invalid_argument"
	case errors.Is(err, domain.ErrGatewayUnavailable):
		return http.StatusServiceUnavailable, "gateway_unavailable"
	case errors.Is(err, domain.ErrInstrumentGenerationFailed):
		return http.StatusBadGateway, "instrument_failed"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func writeError(w http.ResponseWriter, log *zerolog.Logger, err error) {
	status, code := statusFor(err)
	msg := err.Error()
	if status >= 500 {
		log.Error().Err(err).Int("status", status).Msg("request failed")
		if status == http.StatusInternalServerError {
			msg = "internal error"
		}
	}
	writeJSON(w, status, errorBody(code, msg))
}

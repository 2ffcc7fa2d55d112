package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

const maxBodyBytes = 1 << 20

// ValidationError maps request fields to rule failures.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for f, msg := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f, msg))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their JSON names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{validate: v}
}

func (v *Validator) Validate(i any) error {
	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			out[fe.Field()] = "is required"
		case "oneof":
			out[fe.Field()] = "must be one of: " + fe.Param()
		case "max":
			out[fe.Field()] = "must be at most " + fe.Param() + " characters"
		default:
			out[fe.Field()] = "failed rule " + fe.Tag()
		}
	}
	return &ValidationError{Fields: out}
}

// bind decodes a JSON body into dst and validates it. It writes the error
// response itself and reports whether the handler may continue.
func (s *Server) bind(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid_body", "request body must be valid JSON"))
		return false
	}
	if err := s.validator.Validate(dst); err != nil {
		var ve *ValidationError
		if errors.As(err, &ve) {
			writeJSON(w, http.StatusBadRequest, errorEnvelope{Error: errorPayload{
				Code: "validation_failed", Message: "request validation failed", Fields: ve.Fields,
			}})
			return false
		}
		s.log.Error().Err(err).Msg("validator error")
		writeJSON(w, http.StatusInternalServerError, errorBody("internal", "internal error"))
		return false
	}
	return true
}

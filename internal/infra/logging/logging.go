// File: internal/infra/logging/logging.go
package logging

import (
	"context"
	"os"
	"strings"
	"time"

	"learnpay/internal/config"

	"github.com/rs/zerolog"
)

// New creates a zerolog logger configured from config.
// Supports "trace" | "debug" | "info" | "warn" | "error" levels
// and "json" | "console" formats. Sampling can be enabled to reduce noise in prod.
func New(cfg config.LogConfig, dev bool) *zerolog.Logger {
	level, _ := zerolog.ParseLevel(cfg.Level)
	zerolog.SetGlobalLevel(level)

	var base zerolog.Logger
	if strings.ToLower(cfg.Format) == "console" || dev {
		out := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		base = zerolog.New(out).With().Timestamp().Logger()
	} else {
		base = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}

	if cfg.Sampling && !dev {
		// Simple sampling: keep first 100, then 1 every 100 thereafter.
		sampled := base.Sample(&zerolog.BasicSampler{N: 100})
		return &sampled
	}
	return &base
}

type ctxKey string

const (
	ctxTraceID    ctxKey = "trace_id"
	ctxUserID     ctxKey = "user_id"
	ctxOperatorID ctxKey = "operator_id"
	ctxOrderID    ctxKey = "order_id"
	ctxPaymentID  ctxKey = "payment_id"
)

var ctxKeys = []ctxKey{ctxTraceID, ctxUserID, ctxOperatorID, ctxOrderID, ctxPaymentID}

// With attaches the request-scoped ids found on ctx (trace_id, user_id,
// order_id and so on) to a child of base.
func With(ctx context.Context, base *zerolog.Logger) *zerolog.Logger {
	if base == nil {
		nop := zerolog.Nop()
		base = &nop
	}
	l := base.With()
	for _, k := range ctxKeys {
		if v, ok := ctx.Value(k).(string); ok && v != "" {
			l = l.Str(string(k), v)
		}
	}
	logger := l.Logger()
	return &logger
}

// TraceDuration logs start and end with elapsed duration at TRACE level.
// Usage: defer logging.TraceDuration(logger, "WebhookUC.Process")()
func TraceDuration(logger *zerolog.Logger, name string) func() {
	start := time.Now()
	logger.Trace().Str("method", name).Msg("start")
	return func() {
		elapsed := time.Since(start)
		logger.Trace().Str("method", name).Dur("duration", elapsed).Msg("finish")
	}
}

// Redact hides PII when not in dev; keep short/preview.
func Redact(s string, dev bool) string {
	if dev {
		return s
	}
	if len(s) <= 8 {
		return "***"
	}
	return s[:4] + "..." + s[len(s)-2:]
}

// Helpers to put IDs into context.
func WithTraceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxTraceID, id)
}
func WithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxUserID, id)
}
func WithOperatorID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxOperatorID, id)
}
func WithOrderID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxOrderID, id)
}
func WithPaymentID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxPaymentID, id)
}

// TraceID returns the trace id stored on ctx, if any.
func TraceID(ctx context.Context) string {
	v, _ := ctx.Value(ctxTraceID).(string)
	return v
}

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"learnpay/internal/config"
	"learnpay/internal/usecase"
)

// Limiter throttles per-user actions.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// OrderRateLimit bounds order creation per user.
type OrderRateLimit struct {
	Limit  int
	Window time.Duration
}

type Deps struct {
	Orders       usecase.OrderLedger
	Payments     usecase.PaymentUseCase
	Webhooks     usecase.WebhookUseCase
	Verification usecase.VerificationUseCase
	Auth         *OperatorAuth
	Limiter      Limiter // optional
	OrderLimit   OrderRateLimit
}

// Server exposes the order, payment, operator and webhook routes.
type Server struct {
	deps      Deps
	cfg       config.HTTPConfig
	validator *Validator
	log       *zerolog.Logger
	srv       *http.Server
}

func NewServer(cfg config.HTTPConfig, deps Deps, logger *zerolog.Logger) *Server {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	if deps.OrderLimit.Limit <= 0 {
		deps.OrderLimit = OrderRateLimit{Limit: 20, Window: time.Minute}
	}
	return &Server{deps: deps, cfg: cfg, validator: NewValidator(), log: logger}
}

// Router builds the chi route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(TraceID(), Recover(s.log), RequestLog(s.log))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())

	// Gateways get an answer regardless of the request timeout of the API.
	r.Post("/webhooks/{gateway}", s.handleWebhook)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(Timeout(s.cfg.RequestTimeout))
		r.Post("/orders", s.handleCreateOrder)
		r.Get("/orders/{id}", s.handleGetOrder)
		r.Post("/orders/{id}/payments", s.handleInitiatePayment)
		r.Get("/payments/{id}/instrument", s.handleRenderInstrument)

		r.Route("/admin", func(r chi.Router) {
			r.Use(s.deps.Auth.RequireOperator)
			r.Get("/payments/pending", s.handlePendingQueue)
			r.Post("/payments/{id}/verify", s.handleVerify)
		})
	})
	return r
}

// Start serves until Shutdown; http.ErrServerClosed is not reported.
func (s *Server) Start() error {
	s.srv = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           s.Router(),
		ReadTimeout:       s.cfg.ReadTimeout,
		ReadHeaderTimeout: s.cfg.ReadTimeout,
		WriteTimeout:      s.cfg.WriteTimeout,
	}
	s.log.Info().Int("port", s.cfg.Port).Msg("http server listening")
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

package api

import (
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"learnpay/internal/domain"
	"learnpay/internal/domain/model"
	"learnpay/internal/infra/logging"
	red "learnpay/internal/infra/redis"
	"learnpay/internal/usecase"
)

const (
	HeaderUserID    = "X-User-ID"
	HeaderSignature = "X-VERIFY"
)

type createOrderRequest struct {
	ProductKind   string `json:"product_kind" validate:"required,max=32"`
	ProductID     string `json:"product_id" validate:"required,max=128"`
	DeclaredPrice string `json:"declared_price" validate:"required"`
}

type initiatePaymentRequest struct {
	Gateway string `json:"gateway" validate:"required,max=64"`
}

type verifyRequest struct {
	Outcome    string  `json:"outcome" validate:"required,oneof=successful failed"`
	Notes      *string `json:"notes,omitempty" validate:"omitempty,max=1000"`
	GatewayRef *string `json:"gateway_ref,omitempty" validate:"omitempty,max=128"`
}

type orderResponse struct {
	ID             string     `json:"id"`
	UserID         string     `json:"user_id"`
	ProductKind    string     `json:"product_kind"`
	ProductID      string     `json:"product_id"`
	Price          string     `json:"price"`
	Currency       string     `json:"currency"`
	Status         string     `json:"status"`
	Gateway        *string    `json:"gateway,omitempty"`
	TransactionRef *string    `json:"transaction_ref,omitempty"`
	GatewayTxnID   *string    `json:"gateway_txn_id,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	SettledAt      *time.Time `json:"settled_at,omitempty"`
}

func toOrderResponse(o *model.Order) orderResponse {
	return orderResponse{
		ID:             o.ID,
		UserID:         o.UserID,
		ProductKind:    string(o.Product.Kind),
		ProductID:      o.Product.ID,
		Price:          model.FormatAmount(o.Price),
		Currency:       o.Currency,
		Status:         string(o.Status),
		Gateway:        o.GatewayName,
		TransactionRef: o.TransactionRef,
		GatewayTxnID:   o.GatewayTxnID,
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
		SettledAt:      o.SettledAt,
	}
}

type instrumentResponse struct {
	PaymentID      string `json:"payment_id"`
	OrderID        string `json:"order_id"`
	TransactionRef string `json:"transaction_ref"`
	Gateway        string `json:"gateway"`
	Amount         string `json:"amount"`
	Currency       string `json:"currency"`
	DeepLink       string `json:"deep_link"`
	QRCode         string `json:"qr_code"`
}

func toInstrumentResponse(in *model.PaymentInstrument) instrumentResponse {
	return instrumentResponse{
		PaymentID:      in.PaymentID,
		OrderID:        in.OrderID,
		TransactionRef: in.TransactionRef,
		Gateway:        in.Gateway,
		Amount:         model.FormatAmount(in.Amount),
		Currency:       in.Currency,
		DeepLink:       in.DeepLink,
		QRCode:         in.QRCode,
	}
}

type verifyResponse struct {
	PaymentID     string     `json:"payment_id"`
	PaymentStatus string     `json:"payment_status"`
	OrderID       string     `json:"order_id"`
	OrderStatus   string     `json:"order_status"`
	OrderChanged  bool       `json:"order_changed"`
	Granted       bool       `json:"granted"`
	VerifiedBy    *string    `json:"verified_by,omitempty"`
	VerifiedAt    *time.Time `json:"verified_at,omitempty"`
}

type pendingPayment struct {
	PaymentID      string    `json:"payment_id"`
	OrderID        string    `json:"order_id"`
	UserID         string    `json:"user_id"`
	Gateway        string    `json:"gateway"`
	TransactionRef string    `json:"transaction_ref"`
	Amount         string    `json:"amount"`
	Currency       string    `json:"currency"`
	LastCode       *string   `json:"last_code,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

type pendingQueueResponse struct {
	Payments []pendingPayment `json:"payments"`
}

type webhookResponse struct {
	Acknowledged bool `json:"acknowledged"`
}

func userFrom(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(HeaderUserID))
}

func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := userFrom(r)
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized", HeaderUserID+" header required"))
		return
	}
	ctx = logging.WithUserID(ctx, userID)

	var req createOrderRequest
	if !s.bind(w, r, &req) {
		return
	}
	price, err := decimal.NewFromString(req.DeclaredPrice)
	if err != nil {
		writeError(w, s.log, domain.ErrInvalidArgument)
		return
	}

	if s.deps.Limiter != nil {
		ok, err := s.deps.Limiter.Allow(ctx, red.UserActionKey(userID, "create_order"), s.deps.OrderLimit.Limit, s.deps.OrderLimit.Window)
		if err != nil {
			// Fail open: the ledger itself is idempotent per (user, product).
			logging.With(ctx, s.log).Warn().Err(err).Msg("rate limiter unavailable")
		} else if !ok {
			writeJSON(w, http.StatusTooManyRequests, errorBody("rate_limited", "too many order requests"))
			return
		}
	}

	kind, err := model.ParseProductKind(req.ProductKind)
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	ref := model.ProductRef{Kind: kind, ID: req.ProductID}
	o, err := s.deps.Orders.CreateOrder(ctx, userID, ref, price)
	if err != nil {
		writeError(w, logging.With(ctx, s.log), err)
		return
	}
	writeJSON(w, http.StatusCreated, toOrderResponse(o))
}

func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	userID := userFrom(r)
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized", HeaderUserID+" header required"))
		return
	}
	o, err := s.deps.Orders.GetOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, s.log, err)
		return
	}
	// Orders of other users are reported as absent.
	if userID != o.UserID {
		writeError(w, s.log, domain.ErrNotFound)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(o))
}

func (s *Server) handleInitiatePayment(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	ctx := logging.WithOrderID(r.Context(), orderID)

	var req initiatePaymentRequest
	if !s.bind(w, r, &req) {
		return
	}
	in, err := s.deps.Payments.Initiate(ctx, orderID, req.Gateway)
	if err != nil {
		writeError(w, logging.With(ctx, s.log), err)
		return
	}
	writeJSON(w, http.StatusCreated, toInstrumentResponse(in))
}

func (s *Server) handleRenderInstrument(w http.ResponseWriter, r *http.Request) {
	paymentID := chi.URLParam(r, "id")
	ctx := logging.WithPaymentID(r.Context(), paymentID)
	in, err := s.deps.Payments.RenderInstrument(ctx, paymentID)
	if err != nil {
		writeError(w, logging.With(ctx, s.log), err)
		return
	}
	writeJSON(w, http.StatusOK, toInstrumentResponse(in))
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	paymentID := chi.URLParam(r, "id")
	ctx := logging.WithPaymentID(r.Context(), paymentID)

	var req verifyRequest
	if !s.bind(w, r, &req) {
		return
	}
	res, err := s.deps.Verification.Verify(ctx, usecase.VerifyInput{
		PaymentID:  paymentID,
		OperatorID: operatorFrom(ctx),
		Outcome:    model.OrderStatus(req.Outcome),
		Notes:      req.Notes,
		GatewayRef: req.GatewayRef,
	})
	if err != nil {
		writeError(w, logging.With(ctx, s.log), err)
		return
	}
	writeJSON(w, http.StatusOK, verifyResponse{
		PaymentID:     res.Payment.ID,
		PaymentStatus: string(res.Payment.Status),
		OrderID:       res.Payment.OrderID,
		OrderStatus:   string(res.OrderStatus),
		OrderChanged:  res.OrderChanged,
		Granted:       res.Granted,
		VerifiedBy:    res.Payment.VerifiedBy,
		VerifiedAt:    res.Payment.VerifiedAt,
	})
}

// handlePendingQueue lists attempts awaiting manual verification.
// older_than is a Go duration (default 15m); limit defaults server-side.
func (s *Server) handlePendingQueue(w http.ResponseWriter, r *http.Request) {
	olderThan := 15 * time.Minute
	if v := r.URL.Query().Get("older_than"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			writeError(w, s.log, domain.ErrInvalidArgument)
			return
		}
		olderThan = d
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, s.log, domain.ErrInvalidArgument)
			return
		}
		limit = n
	}

	list, err := s.deps.Verification.PendingQueue(r.Context(), olderThan, limit)
	if err != nil {
		writeError(w, logging.With(r.Context(), s.log), err)
		return
	}
	resp := pendingQueueResponse{Payments: make([]pendingPayment, 0, len(list))}
	for _, p := range list {
		resp.Payments = append(resp.Payments, pendingPayment{
			PaymentID:      p.ID,
			OrderID:        p.OrderID,
			UserID:         p.UserID,
			Gateway:        p.Gateway,
			TransactionRef: p.TransactionRef,
			Amount:         model.FormatAmount(p.Amount),
			Currency:       p.Currency,
			LastCode:       p.LastCode,
			CreatedAt:      p.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleWebhook acknowledges every callback it could evaluate. Only storage
// faults answer 500 so that the gateway retries.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	gateway := chi.URLParam(r, "gateway")
	l := logging.With(r.Context(), s.log).With().Str("gateway", gateway).Logger()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		l.Warn().Err(err).Msg("webhook body read failed")
		writeJSON(w, http.StatusOK, webhookResponse{Acknowledged: true})
		return
	}

	res, err := s.deps.Webhooks.Process(r.Context(), gateway, body, r.Header.Get(HeaderSignature))
	if err != nil {
		l.Error().Err(err).Msg("webhook processing failed")
		writeJSON(w, http.StatusInternalServerError, errorBody("internal", "internal error"))
		return
	}
	l.Debug().Str("reason", res.Reason).Bool("applied", res.Applied).Msg("webhook handled")
	writeJSON(w, http.StatusOK, webhookResponse{Acknowledged: res.Acknowledged})
}

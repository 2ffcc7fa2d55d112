package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"learnpay/internal/config"
	"learnpay/internal/infra/logging"
)

const RoleOperator = "operator"

var ErrUnauthorized = errors.New("unauthorized")

type OperatorClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// OperatorAuth mints and checks HS256 bearer tokens for operators.
type OperatorAuth struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewOperatorAuth(cfg config.AdminConfig) *OperatorAuth {
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &OperatorAuth{secret: []byte(cfg.JWTSecret), issuer: cfg.Issuer, ttl: ttl, now: time.Now}
}

func (a *OperatorAuth) Mint(operatorID string) (string, time.Time, error) {
	if operatorID == "" {
		return "", time.Time{}, errors.New("operator id is empty")
	}
	now := a.now()
	exp := now.Add(a.ttl)
	claims := OperatorClaims{
		Role: RoleOperator,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    a.issuer,
			Subject:   operatorID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

func (a *OperatorAuth) ParseFromRequest(r *http.Request) (*OperatorClaims, error) {
	hdr := r.Header.Get("Authorization")
	if len(hdr) < 7 || !strings.EqualFold(hdr[:7], "bearer ") {
		return nil, ErrUnauthorized
	}
	return a.parse(strings.TrimSpace(hdr[7:]))
}

func (a *OperatorAuth) parse(tok string) (*OperatorClaims, error) {
	if len(a.secret) == 0 {
		return nil, ErrUnauthorized
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(a.now),
	}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}
	claims := &OperatorClaims{}
	tkn, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (any, error) {
		return a.secret, nil
	}, opts...)
	if err != nil || !tkn.Valid {
		return nil, ErrUnauthorized
	}
	if claims.Role != RoleOperator || claims.Subject == "" {
		return nil, ErrUnauthorized
	}
	return claims, nil
}

type operatorKey struct{}

// RequireOperator rejects requests without a valid operator token.
func (a *OperatorAuth) RequireOperator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := a.ParseFromRequest(r)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized", "operator token required"))
			return
		}
		ctx := context.WithValue(r.Context(), operatorKey{}, claims.Subject)
		ctx = logging.WithOperatorID(ctx, claims.Subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func operatorFrom(ctx context.Context) string {
	s, _ := ctx.Value(operatorKey{}).(string)
	return s
}

package payment

import (
	"strings"

	"learnpay/internal/domain/ports/adapter"
)

var _ adapter.GatewayResolver = (*Registry)(nil)

// Registry maps configured gateway names to their wire codecs.
type Registry struct {
	byName map[string]adapter.PaymentGateway
}

func NewRegistry(gateways ...adapter.PaymentGateway) *Registry {
	r := &Registry{byName: make(map[string]adapter.PaymentGateway, len(gateways))}
	for _, g := range gateways {
		r.Register(g)
	}
	return r
}

// Register adds or replaces the codec for g.Name().
func (r *Registry) Register(g adapter.PaymentGateway) {
	r.byName[strings.TrimSpace(g.Name())] = g
}

func (r *Registry) Gateway(name string) (adapter.PaymentGateway, bool) {
	g, ok := r.byName[strings.TrimSpace(name)]
	return g, ok
}

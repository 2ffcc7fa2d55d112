package usecase

import (
	"context"
	"errors"
	"fmt"

	"learnpay/internal/domain"
	"learnpay/internal/domain/model"
	"learnpay/internal/domain/ports/adapter"
	"learnpay/internal/domain/ports/repository"
)

// GatewayDirectory resolves a gateway name into its active configuration
// (secret decrypted) and wire codec.
type GatewayDirectory struct {
	configs repository.GatewayConfigRepository
	cipher  adapter.SecretCipher
	codecs  adapter.GatewayResolver
}

// NewGatewayDirectory builds a directory. cipher may be nil when secrets are
// stored in plaintext (tests, dev).
func NewGatewayDirectory(configs repository.GatewayConfigRepository, cipher adapter.SecretCipher, codecs adapter.GatewayResolver) *GatewayDirectory {
	return &GatewayDirectory{configs: configs, cipher: cipher, codecs: codecs}
}

// Resolve returns domain.ErrGatewayUnavailable for any missing or unusable
// configuration. Storage faults propagate unchanged.
func (d *GatewayDirectory) Resolve(ctx context.Context, name string) (*model.GatewayConfig, adapter.PaymentGateway, error) {
	cfg, err := d.configs.FindByName(ctx, repository.NoTX, name)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil, fmt.Errorf("%w: no configuration for %q", domain.ErrGatewayUnavailable, name)
		}
		return nil, nil, err
	}
	// work on a copy; the repository may hand out cached values
	c := *cfg
	if c.Secret == "" && c.SecretCipher != "" && d.cipher != nil {
		plain, err := d.cipher.Decrypt(c.SecretCipher)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %s secret unreadable", domain.ErrGatewayUnavailable, name)
		}
		c.Secret = plain
	}
	if err := c.Usable(); err != nil {
		return nil, nil, err
	}
	gw, ok := d.codecs.Gateway(name)
	if !ok {
		return nil, nil, fmt.Errorf("%w: no codec registered for %q", domain.ErrGatewayUnavailable, name)
	}
	return &c, gw, nil
}

// Seed stores bootstrap configurations, encrypting plaintext secrets first.
// An entry without any secret keeps the one already stored.
func (d *GatewayDirectory) Seed(ctx context.Context, configs ...model.GatewayConfig) error {
	for _, c := range configs {
		if c.Name == "" {
			return fmt.Errorf("%w: gateway name required", domain.ErrInvalidArgument)
		}
		if c.Secret != "" {
			if d.cipher == nil {
				return fmt.Errorf("%w: %s has a secret but no cipher is configured", domain.ErrInvalidArgument, c.Name)
			}
			enc, err := d.cipher.Encrypt(c.Secret)
			if err != nil {
				return fmt.Errorf("encrypt %s secret: %w", c.Name, err)
			}
			c.SecretCipher = enc
			c.Secret = ""
		} else if c.SecretCipher == "" {
			prev, err := d.configs.FindByName(ctx, repository.NoTX, c.Name)
			switch {
			case err == nil:
				c.SecretCipher = prev.SecretCipher
			case !errors.Is(err, domain.ErrNotFound):
				return fmt.Errorf("load gateway %s: %w", c.Name, err)
			}
		}
		if err := d.configs.Save(ctx, repository.NoTX, &c); err != nil {
			return fmt.Errorf("save gateway %s: %w", c.Name, err)
		}
	}
	return nil
}

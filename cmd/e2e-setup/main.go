package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"learnpay/internal/config"
	"learnpay/internal/domain/model"
	"learnpay/internal/domain/ports/adapter"
	"learnpay/internal/domain/ports/repository"
	"learnpay/internal/infra/db/postgres"
	"learnpay/internal/infra/logging"
	"learnpay/internal/infra/payment"
	"learnpay/internal/infra/redis"
	"learnpay/internal/infra/security"
	"learnpay/internal/usecase"
)

// This script is for setting up a clean, predictable database state
// for manual end-to-end testing. Run cmd/seed afterwards for listings.
func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, true)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load: %v\n", err)
		os.Exit(1)
	}
	log := logging.New(cfg.Log, true)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	log.Info().Msg("[1/3] applying migrations")
	if err := postgres.Migrate(cfg.Database.URL, log); err != nil {
		log.Fatal().Err(err).Msg("migrate")
	}
	pool, err := postgres.Connect(ctx, cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("postgres connection failed")
	}
	defer pool.Close()

	log.Info().Msg("[2/3] wiping ledger data")
	_, err = pool.Exec(ctx, `
		TRUNCATE
			course_enrollments, test_series_enrollments, qbank_enrollments, webinar_registrations,
			payments, orders, gateway_configs
		RESTART IDENTITY CASCADE;
	`)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to truncate tables")
	}

	log.Info().Msg("[3/3] re-seeding gateways")
	var gatewayRepo repository.GatewayConfigRepository = postgres.NewGatewayConfigRepo(pool)
	if cfg.Redis.URL != "" {
		// Saving through the decorator evicts stale cache entries.
		rc, err := redis.NewClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("redis connection failed")
		}
		defer rc.Close()
		gatewayRepo = postgres.NewGatewayConfigCacheDecorator(gatewayRepo, rc, cfg.Redis.TTL, log)
	}
	var cipher adapter.SecretCipher
	if cfg.Security.EncryptionKey != "" {
		enc, err := security.NewEncryptionService(cfg.Security.EncryptionKey)
		if err != nil {
			log.Fatal().Err(err).Msg("encryption")
		}
		cipher = enc
	}

	registry := payment.NewRegistry()
	boot := make([]model.GatewayConfig, 0, len(cfg.Gateways))
	for _, g := range cfg.Gateways {
		registry.Register(payment.NewUPIGateway(g.Name))
		boot = append(boot, model.GatewayConfig{
			Name: g.Name, MerchantID: g.MerchantID, MerchantName: g.MerchantName, Secret: g.Secret,
			KeyIndex: g.KeyIndex, Currency: g.Currency, CallbackPath: g.CallbackPath, Active: g.Active,
		})
	}
	if err := usecase.NewGatewayDirectory(gatewayRepo, cipher, registry).Seed(ctx, boot...); err != nil {
		log.Fatal().Err(err).Msg("seed gateways")
	}

	log.Info().Int("gateways", len(boot)).Msg("e2e environment ready")
}

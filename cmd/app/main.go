// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"learnpay/internal/config"
	"learnpay/internal/domain/model"
	"learnpay/internal/domain/ports/adapter"
	"learnpay/internal/domain/ports/repository"
	"learnpay/internal/infra/api"
	pg "learnpay/internal/infra/db/postgres"
	"learnpay/internal/infra/events"
	"learnpay/internal/infra/i18n"
	"learnpay/internal/infra/logging"
	"learnpay/internal/infra/metrics"
	"learnpay/internal/infra/notify"
	"learnpay/internal/infra/payment"
	red "learnpay/internal/infra/redis"
	"learnpay/internal/infra/sched"
	"learnpay/internal/infra/security"
	"learnpay/internal/infra/telegram"
	"learnpay/internal/usecase"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, relaxed validation)")
	mintFor := flag.String("mint-operator-token", "", "print an operator bearer token for the given operator id and exit")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)

	if *mintFor != "" {
		tok, exp, err := api.NewOperatorAuth(cfg.Admin).Mint(*mintFor)
		if err != nil {
			logger.Fatal().Err(err).Msg("mint operator token")
		}
		fmt.Printf("%s\n# expires %s\n", tok, exp.Format(time.RFC3339))
		return
	}

	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("learnpay stopped")
	}
}

func run(cfg *config.Config, logger *zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("developer mode enabled")
	}

	// ---- Postgres ----
	if cfg.Database.MigrateOnStart {
		if err := pg.Migrate(cfg.Database.URL, logger); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	pool, err := pg.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()
	go pg.ReportPoolStats(ctx, pool, 15*time.Second)

	// ---- Encryption ----
	var cipher adapter.SecretCipher
	if cfg.Security.EncryptionKey != "" {
		enc, err := security.NewEncryptionService(cfg.Security.EncryptionKey)
		if err != nil {
			return fmt.Errorf("encryption: %w", err)
		}
		cipher = enc
	}

	// ---- Repositories ----
	tm := pg.NewTxManager(pool)
	orderRepo := pg.NewOrderRepo(pool)
	paymentRepo := pg.NewPaymentRepo(pool)
	catalog := pg.NewCatalogRepo(pool)
	var gatewayRepo repository.GatewayConfigRepository = pg.NewGatewayConfigRepo(pool)
	var contacts repository.UserContactRepository = pg.NewPostgresUserRepo(pool)

	// ---- Redis (optional) ----
	var limiter api.Limiter
	if cfg.Redis.URL != "" {
		rc, err := red.NewClient(ctx, cfg.Redis)
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		defer rc.Close()
		gatewayRepo = pg.NewGatewayConfigCacheDecorator(gatewayRepo, rc, cfg.Redis.TTL, logger)
		contacts = pg.NewUserRepoCacheDecorator(contacts, rc, cfg.Redis.TTL)
		limiter = red.NewRateLimiter(rc)
	} else {
		logger.Warn().Msg("redis not configured; caching and rate limiting disabled")
	}

	// ---- Gateways ----
	registry := payment.NewRegistry()
	for _, g := range cfg.Gateways {
		registry.Register(payment.NewUPIGateway(g.Name))
	}
	gateways := usecase.NewGatewayDirectory(gatewayRepo, cipher, registry)
	if err := gateways.Seed(ctx, bootstrapConfigs(cfg.Gateways)...); err != nil {
		return fmt.Errorf("seed gateways: %w", err)
	}

	// ---- Outbound channels ----
	publisher := adapter.EventPublisher(events.Nop{})
	if cfg.Kafka.Enabled() {
		publisher = events.NewKafkaPublisher(cfg.Kafka, logger)
	}
	defer publisher.Close()

	notifier, err := buildNotifier(cfg, contacts, logger)
	if err != nil {
		return err
	}

	// ---- Use cases ----
	granter, err := usecase.NewEntitlementGranter(logger, pg.Enrollers(pool)...)
	if err != nil {
		return fmt.Errorf("entitlements: %w", err)
	}
	ledger := usecase.NewOrderLedger(orderRepo, catalog, granter, tm, publisher, cfg.Orders.DefaultCurrency, logger)
	paymentUC := usecase.NewPaymentUseCase(orderRepo, paymentRepo, gateways, tm, logger)
	webhookUC := usecase.NewWebhookUseCase(gateways, orderRepo, paymentRepo, ledger, tm, notifier, logger)
	verifyUC := usecase.NewVerificationUseCase(paymentRepo, ledger, tm, notifier, logger)

	if cfg.Orders.ScanInterval > 0 {
		monitor := sched.NewStaleAttemptMonitor(verifyUC, cfg.Orders.ScanInterval, cfg.Orders.StaleAfter, logger)
		go monitor.Start(ctx)
	}

	// ---- HTTP ----
	srv := api.NewServer(cfg.HTTP, api.Deps{
		Orders:       ledger,
		Payments:     paymentUC,
		Webhooks:     webhookUC,
		Verification: verifyUC,
		Auth:         api.NewOperatorAuth(cfg.Admin),
		Limiter:      limiter,
	}, logger)

	errc := make(chan error, 1)
	go func() { errc <- srv.Start() }()

	// ---- Graceful shutdown ----
	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown requested")
	case err := <-errc:
		if err != nil {
			return fmt.Errorf("http: %w", err)
		}
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
	// let purchase confirmations already acknowledged to the gateway go out
	webhookUC.Wait()
	return nil
}

func bootstrapConfigs(in []config.GatewayBootstrap) []model.GatewayConfig {
	out := make([]model.GatewayConfig, 0, len(in))
	for _, g := range in {
		out = append(out, model.GatewayConfig{
			Name:         g.Name,
			MerchantID:   g.MerchantID,
			MerchantName: g.MerchantName,
			Secret:       g.Secret,
			KeyIndex:     g.KeyIndex,
			Currency:     g.Currency,
			CallbackPath: g.CallbackPath,
			Active:       g.Active,
		})
	}
	return out
}

func buildNotifier(cfg *config.Config, contacts repository.UserContactRepository, logger *zerolog.Logger) (adapter.Notifier, error) {
	tpl, err := i18n.NewTranslator(i18n.LocalesFS, "en")
	if err != nil {
		return nil, fmt.Errorf("templates: %w", err)
	}
	var channels notify.Multi
	if cfg.SMTP.Enabled() {
		channels = append(channels, notify.NewEmailNotifier(cfg.SMTP, contacts, tpl, logger))
	}
	if cfg.Telegram.Enabled() {
		bot, err := telegram.NewRealTelegramBotAdapter(cfg.Telegram, logger)
		if err != nil {
			return nil, err
		}
		channels = append(channels, notify.NewTelegramNotifier(bot, contacts, tpl, cfg.Telegram.OperatorChatID))
	}
	if len(channels) == 0 {
		logger.Warn().Msg("no notification channel configured")
		return notify.Nop{}, nil
	}
	return channels, nil
}

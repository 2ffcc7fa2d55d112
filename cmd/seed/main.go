package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"learnpay/internal/config"
	"learnpay/internal/domain/model"
	"learnpay/internal/infra/db/postgres"
	"learnpay/internal/infra/logging"
)

// sampleCatalog is one listing per product kind, priced in the default currency.
var sampleCatalog = []struct {
	Kind  model.ProductKind
	ID    string
	Title string
	Price string
}{
	{model.ProductCourse, "course-go-101", "Go for Backend Engineers", "1999.00"},
	{model.ProductTestSeries, "ts-jee-2027", "JEE Mock Test Series 2027", "799.00"},
	{model.ProductQBank, "qbank-42", "Organic Chemistry Question Bank", "499.00"},
	{model.ProductWebinar, "web-ai-careers", "Careers in Applied AI (live)", "0.00"},
}

var sampleUsers = []model.UserContact{
	{UserID: "u-demo", Email: "demo.student@example.com", Name: "Demo Student"},
}

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, true)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	log := logging.New(cfg.Log, true)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := postgres.Migrate(cfg.Database.URL, log); err != nil {
		log.Fatal().Err(err).Msg("migrate")
	}
	pool, err := postgres.Connect(ctx, cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()

	catalog := postgres.NewCatalogRepo(pool)
	for _, s := range sampleCatalog {
		e := &model.CatalogEntry{
			Ref:      model.ProductRef{Kind: s.Kind, ID: s.ID},
			Title:    s.Title,
			Price:    decimal.RequireFromString(s.Price),
			Currency: cfg.Orders.DefaultCurrency,
		}
		if err := catalog.Upsert(ctx, e); err != nil {
			log.Fatal().Err(err).Str("product", e.Ref.String()).Msg("seed catalog")
		}
		log.Info().Str("product", e.Ref.String()).Str("price", model.FormatAmount(e.Price)).Msg("seeded listing")
	}

	users := postgres.NewPostgresUserRepo(pool)
	for i := range sampleUsers {
		if err := users.Save(ctx, nil, &sampleUsers[i]); err != nil {
			log.Fatal().Err(err).Str("user_id", sampleUsers[i].UserID).Msg("seed user")
		}
		log.Info().Str("user_id", sampleUsers[i].UserID).Msg("seeded user")
	}

	log.Info().Msg("seeding complete")
}

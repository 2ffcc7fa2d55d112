// Command demo plays the gateway side of a payment: it builds a signed
// callback for an attempt and posts it to the running service.
package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"learnpay/internal/config"
	"learnpay/internal/domain/model"
	"learnpay/internal/infra/api"
	"learnpay/internal/infra/logging"
	"learnpay/internal/infra/payment"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	baseURL := flag.String("url", "http://localhost:8080", "service base URL")
	gateway := flag.String("gateway", "upi-gw", "gateway name")
	ref := flag.String("ref", "", "merchant transaction reference (TX...) of the attempt")
	outcome := flag.String("outcome", "success", "success | failed | pending")
	amount := flag.Int64("amount", 0, "amount in minor units (paise); 0 omits it")
	tamper := flag.Bool("tamper", false, "alter the body after signing")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, true)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	log := logging.New(cfg.Log, true)
	if *ref == "" {
		log.Fatal().Msg("-ref is required")
	}

	var gw *config.GatewayBootstrap
	for i := range cfg.Gateways {
		if cfg.Gateways[i].Name == *gateway {
			gw = &cfg.Gateways[i]
		}
	}
	if gw == nil {
		log.Fatal().Str("gateway", *gateway).Msg("gateway not in config")
	}

	code, state := "PAYMENT_SUCCESS", "COMPLETED"
	switch strings.ToLower(*outcome) {
	case "failed":
		code, state = "PAYMENT_DECLINED", "FAILED"
	case "pending":
		code, state = "PAYMENT_PENDING", "PENDING"
	}

	body, err := payment.CallbackBody(gw.MerchantID, *ref, "GW"+time.Now().UTC().Format("20060102150405"), code, state, *amount)
	if err != nil {
		log.Fatal().Err(err).Msg("build callback")
	}
	signature := payment.Sign(&model.GatewayConfig{
		Name: gw.Name, Secret: gw.Secret, KeyIndex: gw.KeyIndex, CallbackPath: gw.CallbackPath,
	}, body)
	if *tamper {
		body = bytes.Replace(body, []byte(`"response":"`), []byte(`"response":"e30`), 1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(*baseURL, "/")+"/webhooks/"+gw.Name, bytes.NewReader(body))
	if err != nil {
		log.Fatal().Err(err).Msg("build request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(api.HeaderSignature, signature)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatal().Err(err).Msg("post callback")
	}
	defer resp.Body.Close()
	out, _ := io.ReadAll(resp.Body)
	log.Info().Int("status", resp.StatusCode).Str("ref", *ref).Str("code", code).RawJSON("body", bytes.TrimSpace(out)).Msg("callback delivered")
}

package main

import (
	"log"
	"net/http"
	"time"

	"payments-service/internal/broker"
	"payments-service/internal/callback"
	"payments-service/internal/config"
	"payments-service/internal/gateway"
	"payments-service/internal/handler"
	"payments-service/internal/logging"
	"payments-service/internal/metrics"

	"github.com/joho/godotenv"
)

func main() {
	// Missing .env is fine, real env vars still apply.
	_ = godotenv.Load()

	cfg := config.MustLoadConfig(".")

	logger := logging.GetLogger(cfg.Logs)
	metrics.Setup(cfg.Metrics)

	gatewayClient := gateway.NewClient(gateway.Config{
		AppToken:    cfg.Gateway.AppToken,
		AppSecret:   cfg.Gateway.AppSecret,
		RedirectURL: cfg.Gateway.RedirectURL,
	}, logger)

	publisher := broker.NewPublisher(broker.Config{
		Host:           cfg.Broker.Host,
		Port:           cfg.Broker.Port,
		Queue:          cfg.Broker.Queue,
		Heartbeat:      time.Duration(cfg.Broker.HeartbeatSecs) * time.Second,
		BlockedTimeout: time.Duration(cfg.Broker.BlockedTimeoutSecs) * time.Second,
	}, logger)

	relay := callback.NewRelay(publisher, logger)

	mux := http.NewServeMux()
	handler.New(gatewayClient, relay, logger).Register(mux)

	logger.Info("Starting payments service", "port", cfg.Server.Port)
	log.Fatal(http.ListenAndServe(":"+cfg.Server.Port, mux))
}

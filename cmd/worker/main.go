package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pawcare_app/internal/config"
	"pawcare_app/internal/gateway"
	"pawcare_app/internal/models"
	"pawcare_app/internal/services"
	"pawcare_app/internal/worker"
)

func main() {
	cfg := config.Load()

	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL not set")
	}
	db, err := services.InitDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	var gw gateway.Client
	gatewayTag := models.PaymentGatewayRazorpay
	if cfg.DemoMode() {
		gw = gateway.NewDemoClient(cfg.KeySecret)
		gatewayTag = models.PaymentGatewayDemo
	} else {
		gw = gateway.WithRetry(gateway.NewRazorpayClient(cfg.KeyID, cfg.KeySecret, 10*time.Second), 3, 10*time.Second)
	}

	verifier := services.NewSignatureVerifier(cfg.KeySecret, cfg.WebhookSecret)
	reconciler := services.NewPaymentReconciler(db, verifier)
	sweeper := worker.NewSweeper(db, gw, reconciler, gatewayTag)

	// Create context that cancels on interrupt
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		log.Println("Shutting down worker...")
		cancel()
	}()

	// Run one pass at startup for visibility, then tick.
	if err := sweeper.Sweep(ctx); err != nil {
		log.Printf("Sweep failed: %v", err)
	}
	sweeper.Run(ctx, 5*time.Minute)
}

package main

import (
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"pawcare_app/internal/config"
	"pawcare_app/internal/gateway"
	"pawcare_app/internal/handlers"
	appMiddleware "pawcare_app/internal/middleware"
	"pawcare_app/internal/models"
	"pawcare_app/internal/services"
)

func main() {
	cfg := config.Load()

	// Initialize Firebase
	authClient, err := services.InitFirebase(cfg.FirebaseCredentialsPath)
	if err != nil {
		log.Printf("Warning: Firebase initialization failed: %v", err)
		log.Println("Auth features will not work until valid credentials are provided")
	}

	// Initialize Database
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL not set")
	}
	db, err := services.InitDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := services.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run database migrations: %v", err)
	}

	// Redis is optional; without it webhook dedup falls back to the database
	var cache *services.RedisCache
	if cfg.RedisURL != "" {
		cache, err = services.NewRedisCache(cfg.RedisURL)
		if err != nil {
			log.Printf("Warning: Redis unavailable, webhook dedup fast path disabled: %v", err)
		}
	}

	// One gateway client for the whole process
	gw, gatewayTag := buildGateway(cfg)
	if gw.IsDemoMode() {
		log.Println("Payment gateway running in demo mode, no network calls will be made")
	}

	verifier := services.NewSignatureVerifier(cfg.KeySecret, cfg.WebhookSecret)
	reconciler := services.NewPaymentReconciler(db, verifier)
	if cfg.SMTPHost != "" {
		mailer := services.NewEmailService(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.EmailFrom)
		reconciler = reconciler.WithMailer(mailer)
	}
	orders := services.NewOrderService(db, gw, cfg.DefaultCurrency, cfg.AutoCapture, cfg.AppURL)

	// Create Echo instance
	e := echo.New()
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.HTTPErrorHandler = appMiddleware.CustomErrorHandler

	// Initialize handlers
	checkoutHandler := handlers.NewCheckoutHandler(db, orders, reconciler, gatewayTag)
	webhookHandler := handlers.NewWebhookHandler(verifier, reconciler, cache, gatewayTag)
	caseHandler := handlers.NewCaseHandler(db, orders)
	catalogHandler := handlers.NewCatalogHandler(db)

	// Public routes: the gateway calls these, not the customer's session
	e.POST("/payments/verify", checkoutHandler.VerifyPayment)
	e.POST("/webhooks/payment", webhookHandler.HandleNotification)
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// Booking API
	api := e.Group("/api")
	api.Use(appMiddleware.RequireAuth(authClient))
	api.POST("/checkout", checkoutHandler.StartCheckout)
	api.GET("/cases", caseHandler.ListCases)
	api.GET("/cases/:id", caseHandler.GetCase)
	api.POST("/cases/:id/payment-link", caseHandler.CreatePaymentLink)
	api.GET("/offerings", catalogHandler.ListOfferings)
	api.POST("/customers", catalogHandler.CreateCustomer)
	api.GET("/customers/:id", catalogHandler.GetCustomer)

	log.Printf("Server starting on port %s", cfg.Port)
	e.Logger.Fatal(e.Start(":" + cfg.Port))
}

// buildGateway constructs the configured gateway variant exactly once.
func buildGateway(cfg *config.Config) (gateway.Client, models.PaymentGateway) {
	if cfg.DemoMode() {
		return gateway.NewDemoClient(cfg.KeySecret), models.PaymentGatewayDemo
	}
	live := gateway.NewRazorpayClient(cfg.KeyID, cfg.KeySecret, 10*time.Second)
	return gateway.WithRetry(live, 3, 10*time.Second), models.PaymentGatewayRazorpay
}

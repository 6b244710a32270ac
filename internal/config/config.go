package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds everything read from the environment. It is loaded once at
// process start and passed down explicitly; nothing else reads os.Getenv.
type Config struct {
	Port        string
	AppURL      string
	DatabaseURL string
	RedisURL    string

	// Payment gateway
	Provider        string // "razorpay" or "demo"
	KeyID           string
	KeySecret       string
	WebhookSecret   string
	DefaultCurrency string
	AutoCapture     bool

	FirebaseCredentialsPath string

	// Receipt mail (optional)
	SMTPHost  string
	SMTPPort  string
	SMTPUser  string
	SMTPPass  string
	EmailFrom string
}

// Load reads the .env file if present and builds the Config.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
	}

	return &Config{
		Port:        getEnv("PORT", "8080"),
		AppURL:      getEnv("APP_URL", "http://localhost:8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),

		Provider:        getEnv("PAYMENT_PROVIDER", "razorpay"),
		KeyID:           os.Getenv("RAZORPAY_KEY_ID"),
		KeySecret:       os.Getenv("RAZORPAY_KEY_SECRET"),
		WebhookSecret:   os.Getenv("RAZORPAY_WEBHOOK_SECRET"),
		DefaultCurrency: getEnv("DEFAULT_CURRENCY", "INR"),
		AutoCapture:     getBool("AUTO_CAPTURE", true),

		FirebaseCredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", "./firebase-service-account.json"),

		SMTPHost:  os.Getenv("SMTP_HOST"),
		SMTPPort:  os.Getenv("SMTP_PORT"),
		SMTPUser:  os.Getenv("SMTP_USER"),
		SMTPPass:  os.Getenv("SMTP_PASS"),
		EmailFrom: os.Getenv("EMAIL_FROM"),
	}
}

// DemoMode reports whether the no-network gateway variant is selected.
func (c *Config) DemoMode() bool {
	return c.Provider == "demo"
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}

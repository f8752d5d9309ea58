package config

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port           string
	MongoURI       string
	JWTSecret      string
	JWTExpiry      string
	AllowedOrigins []string

	Redis Redis
	SMTP  SMTP
	Cron  Cron

	SMSGatewayURL  string
	PushGatewayURL string

	// AlertRetention is how long resolved alerts are kept before cleanup.
	AlertRetention time.Duration
	// SuppressionWindow is how long a (type, entity) pair is muted after
	// a scan raises an alert for it.
	SuppressionWindow time.Duration
}

type Redis struct {
	Addr     string
	Password string
	DB       int
}

type SMTP struct {
	Host      string
	Port      string
	Username  string
	Password  string
	FromEmail string
	FromName  string
}

// Cron holds the cadence expressions for the scheduled jobs.
type Cron struct {
	SystemChecks      string
	BookingReminders  string
	SubscriptionMails string
	AlertCleanup      string
}

func Load() *Config {
	// load .env variables; a missing file is fine in containerized deploys
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	mongoURI := os.Getenv("MONGO_URI")
	if mongoURI == "" {
		log.Fatal("MONGO_URI environment variable is not set")
	}

	allowedOrigins := getenv("ALLOWED_ORIGINS", "http://localhost:5173")

	return &Config{
		Port:           getenv("PORT", "8080"),
		MongoURI:       mongoURI,
		JWTSecret:      os.Getenv("JWT_SECRET"),
		JWTExpiry:      os.Getenv("JWT_EXPIRY"),
		AllowedOrigins: strings.Split(allowedOrigins, ","),
		Redis: Redis{
			Addr:     getenv("REDIS_ADDR", "localhost:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
		},
		SMTP: SMTP{
			Host:      os.Getenv("SMTP_HOST"),
			Port:      getenv("SMTP_PORT", "587"),
			Username:  os.Getenv("SMTP_USERNAME"),
			Password:  os.Getenv("SMTP_PASSWORD"),
			FromEmail: getenv("SMTP_FROM_EMAIL", "alerts@transport-ops.local"),
			FromName:  getenv("SMTP_FROM_NAME", "Transport Ops Alerts"),
		},
		Cron: Cron{
			SystemChecks:      getenv("CRON_SYSTEM_CHECKS", "*/5 * * * *"),
			BookingReminders:  getenv("CRON_BOOKING_REMINDERS", "0 * * * *"),
			SubscriptionMails: getenv("CRON_SUBSCRIPTION_MAILS", "0 8 * * *"),
			AlertCleanup:      getenv("CRON_ALERT_CLEANUP", "30 2 * * *"),
		},
		SMSGatewayURL:     os.Getenv("SMS_GATEWAY_URL"),
		PushGatewayURL:    os.Getenv("PUSH_GATEWAY_URL"),
		AlertRetention:    getenvDuration("ALERT_RETENTION", 30*24*time.Hour),
		SuppressionWindow: getenvDuration("ALERT_SUPPRESSION_WINDOW", 30*time.Minute),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("Invalid duration for %s (%q), using default %v", key, v, fallback)
		return fallback
	}
	return d
}

package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	SMTP      SMTPConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
	Stripe    StripeConfig
	Identity  IdentityConfig
	DocuSign  DocuSignConfig
	Freightos FreightosConfig
	MQTT      MQTTConfig
	Kafka     KafkaConfig
	Outbox    OutboxConfig
	Booking   BookingConfig
	Tracking  TrackingConfig
}

type ServerConfig struct {
	Port        string
	Host        string
	Environment string
	AppURL      string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// JWTConfig describes how bearer tokens from the identity provider are verified.
type JWTConfig struct {
	Secret string
	Issuer string
}

type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

type RateLimitConfig struct {
	GeneralRPS   float64 // Requests per second for general endpoints
	GeneralBurst int     // Burst size for general endpoints
}

type CORSConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	ExposedHeaders   []string
	AllowCredentials bool
	MaxAge           int // seconds
}

type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
}

// IdentityConfig holds the signing secret of the identity provider's sync webhook.
type IdentityConfig struct {
	WebhookSecret string
}

type DocuSignConfig struct {
	BaseURL        string
	OAuthBaseURL   string
	IntegrationKey string
	UserID         string
	AccountID      string
	PrivateKeyPEM  string
}

type FreightosConfig struct {
	BaseURL string
	APIKey  string
}

type MQTTConfig struct {
	Broker        string
	ClientID      string
	Username      string
	Password      string
	TrackingTopic string
	Workers       int
	BufferSize    int
}

type KafkaConfig struct {
	Brokers       []string
	WorkflowTopic string
}

type OutboxConfig struct {
	PollInterval time.Duration
	BatchSize    int
	MaxAttempts  int
}

type BookingConfig struct {
	// EnforceOfferExpiry rejects bookings against offers whose validUntil has passed.
	EnforceOfferExpiry bool
}

type TrackingConfig struct {
	DedupEvents bool
}

func setDefaults() {
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_HOST", "0.0.0.0")
	viper.SetDefault("ENVIRONMENT", "development")
	viper.SetDefault("APP_URL", "http://localhost:3000")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("RATE_LIMIT_GENERAL_RPS", 20)
	viper.SetDefault("RATE_LIMIT_GENERAL_BURST", 40)
	viper.SetDefault("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"})
	viper.SetDefault("CORS_ALLOWED_HEADERS", []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"})
	viper.SetDefault("CORS_MAX_AGE", 43200)
	viper.SetDefault("DOCUSIGN_BASE_URL", "https://demo.docusign.net/restapi")
	viper.SetDefault("DOCUSIGN_OAUTH_BASE_URL", "https://account-d.docusign.com")
	viper.SetDefault("FREIGHTOS_BASE_URL", "https://api.freightos.com")
	viper.SetDefault("MQTT_CLIENT_ID", "marketlive-tracking")
	viper.SetDefault("MQTT_TRACKING_TOPIC", "carriers/+/tracking")
	viper.SetDefault("MQTT_WORKERS", 4)
	viper.SetDefault("MQTT_BUFFER_SIZE", 256)
	viper.SetDefault("KAFKA_WORKFLOW_TOPIC", "shipment.status.changed")
	viper.SetDefault("OUTBOX_POLL_INTERVAL", "2s")
	viper.SetDefault("OUTBOX_BATCH_SIZE", 50)
	viper.SetDefault("OUTBOX_MAX_ATTEMPTS", 8)
	viper.SetDefault("BOOKING_ENFORCE_OFFER_EXPIRY", false)
	viper.SetDefault("TRACKING_DEDUP_EVENTS", false)
}

func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.AddConfigPath(".")
	if homeDir, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(homeDir)
	}
	viper.AutomaticEnv()
	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		log.Printf("Warning: config file not found: %v. Falling back to environment variables only.", err)
	}

	config := &Config{
		Server: ServerConfig{
			Port:        viper.GetString("SERVER_PORT"),
			Host:        viper.GetString("SERVER_HOST"),
			Environment: viper.GetString("ENVIRONMENT"),
			AppURL:      viper.GetString("APP_URL"),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASSWORD"),
			DBName:   viper.GetString("DB_NAME"),
			SSLMode:  viper.GetString("DB_SSLMODE"),
		},
		JWT: JWTConfig{
			Secret: viper.GetString("JWT_SECRET"),
			Issuer: viper.GetString("JWT_ISSUER"),
		},
		SMTP: SMTPConfig{
			Host:     viper.GetString("SMTP_HOST"),
			Port:     viper.GetInt("SMTP_PORT"),
			User:     viper.GetString("SMTP_USER"),
			Password: viper.GetString("SMTP_PASSWORD"),
			From:     viper.GetString("SMTP_FROM"),
		},
		RateLimit: RateLimitConfig{
			GeneralRPS:   viper.GetFloat64("RATE_LIMIT_GENERAL_RPS"),
			GeneralBurst: viper.GetInt("RATE_LIMIT_GENERAL_BURST"),
		},
		CORS: CORSConfig{
			AllowedOrigins:   viper.GetStringSlice("CORS_ALLOWED_ORIGINS"),
			AllowedMethods:   viper.GetStringSlice("CORS_ALLOWED_METHODS"),
			AllowedHeaders:   viper.GetStringSlice("CORS_ALLOWED_HEADERS"),
			ExposedHeaders:   viper.GetStringSlice("CORS_EXPOSED_HEADERS"),
			AllowCredentials: viper.GetBool("CORS_ALLOW_CREDENTIALS"),
			MaxAge:           viper.GetInt("CORS_MAX_AGE"),
		},
		Stripe: StripeConfig{
			SecretKey:     viper.GetString("STRIPE_SECRET_KEY"),
			WebhookSecret: viper.GetString("STRIPE_WEBHOOK_SECRET"),
		},
		Identity: IdentityConfig{
			WebhookSecret: viper.GetString("IDENTITY_WEBHOOK_SECRET"),
		},
		DocuSign: DocuSignConfig{
			BaseURL:        viper.GetString("DOCUSIGN_BASE_URL"),
			OAuthBaseURL:   viper.GetString("DOCUSIGN_OAUTH_BASE_URL"),
			IntegrationKey: viper.GetString("DOCUSIGN_INTEGRATION_KEY"),
			UserID:         viper.GetString("DOCUSIGN_USER_ID"),
			AccountID:      viper.GetString("DOCUSIGN_ACCOUNT_ID"),
			PrivateKeyPEM:  viper.GetString("DOCUSIGN_PRIVATE_KEY"),
		},
		Freightos: FreightosConfig{
			BaseURL: viper.GetString("FREIGHTOS_BASE_URL"),
			APIKey:  viper.GetString("FREIGHTOS_API_KEY"),
		},
		MQTT: MQTTConfig{
			Broker:        viper.GetString("MQTT_BROKER"),
			ClientID:      viper.GetString("MQTT_CLIENT_ID"),
			Username:      viper.GetString("MQTT_USERNAME"),
			Password:      viper.GetString("MQTT_PASSWORD"),
			TrackingTopic: viper.GetString("MQTT_TRACKING_TOPIC"),
			Workers:       viper.GetInt("MQTT_WORKERS"),
			BufferSize:    viper.GetInt("MQTT_BUFFER_SIZE"),
		},
		Kafka: KafkaConfig{
			Brokers:       viper.GetStringSlice("KAFKA_BROKERS"),
			WorkflowTopic: viper.GetString("KAFKA_WORKFLOW_TOPIC"),
		},
		Outbox: OutboxConfig{
			PollInterval: viper.GetDuration("OUTBOX_POLL_INTERVAL"),
			BatchSize:    viper.GetInt("OUTBOX_BATCH_SIZE"),
			MaxAttempts:  viper.GetInt("OUTBOX_MAX_ATTEMPTS"),
		},
		Booking: BookingConfig{
			EnforceOfferExpiry: viper.GetBool("BOOKING_ENFORCE_OFFER_EXPIRY"),
		},
		Tracking: TrackingConfig{
			DedupEvents: viper.GetBool("TRACKING_DEDUP_EVENTS"),
		},
	}

	return config, nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// IsProduction reports whether the server runs with production settings.
func (c *ServerConfig) IsProduction() bool {
	return c.Environment == "production"
}

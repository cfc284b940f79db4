package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds runtime configuration sourced from env vars.
type Config struct {
	Port        string
	Env         string
	GinMode     string
	DatabaseURL string
	AppBaseURL  string
	CORSOrigins []string

	JWTSecret string
	JWTIssuer string
	JWTTTL    time.Duration

	// AdminSecret lets the first user promote themselves when no admin exists.
	AdminSecret string

	Razorpay RazorpayConfig
	SMTP     SMTPConfig
	Twilio   TwilioConfig
	Google   GoogleOAuthConfig
	Chat     ChatConfig

	RedisURL string
}

type RazorpayConfig struct {
	KeyID     string
	KeySecret string
	Currency  string
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
}

// Enabled is false when no SMTP host is configured.
func (c SMTPConfig) Enabled() bool {
	return c.Host != ""
}

type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	FromNumber string
}

func (c TwilioConfig) Enabled() bool {
	return c.AccountSID != "" && c.AuthToken != "" && c.FromNumber != ""
}

type GoogleOAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

func (c GoogleOAuthConfig) Enabled() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

type ChatConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// Load reads configuration from the environment and performs minimal validation.
func Load() (Config, error) {
	cfg := Config{
		Port:        fallback(os.Getenv("PORT"), "8080"),
		Env:         fallback(os.Getenv("APP_ENV"), "development"),
		GinMode:     strings.TrimSpace(os.Getenv("GIN_MODE")),
		DatabaseURL: fallback(os.Getenv("DATABASE_URL"), "table_reservation.db"),
		AppBaseURL:  strings.TrimRight(fallback(os.Getenv("APP_BASE_URL"), "http://localhost:3000"), "/"),
		CORSOrigins: parseCSV(fallback(os.Getenv("CORS_ALLOWED_ORIGINS"), "*")),
		JWTSecret:   strings.TrimSpace(os.Getenv("JWT_SECRET")),
		JWTIssuer:   fallback(os.Getenv("JWT_ISSUER"), "table-reservation-api"),
		AdminSecret: strings.TrimSpace(os.Getenv("ADMIN_SECRET")),
		Razorpay: RazorpayConfig{
			KeyID:     strings.TrimSpace(os.Getenv("RAZORPAY_KEY_ID")),
			KeySecret: strings.TrimSpace(os.Getenv("RAZORPAY_KEY_SECRET")),
			Currency:  fallback(os.Getenv("RAZORPAY_CURRENCY"), "INR"),
		},
		SMTP: SMTPConfig{
			Host:     strings.TrimSpace(os.Getenv("SMTP_HOST")),
			Username: strings.TrimSpace(os.Getenv("SMTP_USER")),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     fallback(os.Getenv("MAIL_FROM"), "no-reply@localhost"),
			FromName: fallback(os.Getenv("MAIL_FROM_NAME"), "Table Reservations"),
		},
		Twilio: TwilioConfig{
			AccountSID: strings.TrimSpace(os.Getenv("TWILIO_ACCOUNT_SID")),
			AuthToken:  strings.TrimSpace(os.Getenv("TWILIO_AUTH_TOKEN")),
			FromNumber: strings.TrimSpace(os.Getenv("TWILIO_FROM_NUMBER")),
		},
		Google: GoogleOAuthConfig{
			ClientID:     strings.TrimSpace(os.Getenv("GOOGLE_CLIENT_ID")),
			ClientSecret: strings.TrimSpace(os.Getenv("GOOGLE_CLIENT_SECRET")),
			RedirectURL:  strings.TrimSpace(os.Getenv("GOOGLE_REDIRECT_URL")),
		},
		Chat: ChatConfig{
			APIKey:  strings.TrimSpace(os.Getenv("CHAT_API_KEY")),
			BaseURL: strings.TrimRight(fallback(os.Getenv("CHAT_BASE_URL"), "https://api.openai.com/v1"), "/"),
			Model:   fallback(os.Getenv("CHAT_MODEL"), "gpt-4o-mini"),
		},
		RedisURL: strings.TrimSpace(os.Getenv("REDIS_URL")),
	}

	ttlMinutes, err := strconv.Atoi(fallback(os.Getenv("JWT_TTL_MINUTES"), "1440"))
	if err != nil || ttlMinutes <= 0 {
		ttlMinutes = 1440
	}
	cfg.JWTTTL = time.Duration(ttlMinutes) * time.Minute

	smtpPort, err := strconv.Atoi(fallback(os.Getenv("SMTP_PORT"), "587"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid SMTP_PORT: %w", err)
	}
	cfg.SMTP.Port = smtpPort

	if cfg.JWTSecret == "" {
		return Config{}, errors.New("JWT_SECRET is required")
	}
	if cfg.Razorpay.KeySecret == "" {
		return Config{}, errors.New("RAZORPAY_KEY_SECRET is required")
	}

	return cfg, nil
}

// HTTPAddress returns the host:port pair for the HTTP server to bind to.
func (c Config) HTTPAddress() string {
	return fmt.Sprintf(":%s", c.Port)
}

// IsDevelopment is true for local runs.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

func fallback(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return strings.TrimSpace(value)
}

func parseCSV(input string) []string {
	var out []string
	for _, part := range strings.Split(input, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

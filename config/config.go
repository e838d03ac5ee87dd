package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	OAuth      OAuthConfig
	Cloudinary CloudinaryConfig
	Payment    PaymentConfig
	Checkout   CheckoutConfig
	Assistant  AssistantConfig
	Admin      AdminConfig
}

type ServerConfig struct {
	Port               string
	Env                string
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	CORSAllowedOrigins []string
	RateLimitRPS       float64
	RateLimitBurst     int
}

type DatabaseConfig struct {
	Driver          string // mysql | postgres | sqlite
	DSN             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig is optional; an empty URL disables the idempotency cache.
type RedisConfig struct {
	URL string
}

type JWTConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
	Issuer        string
}

type OAuthConfig struct {
	StateSecret string
	StateExpiry time.Duration

	ReplitIssuerURL    string
	ReplitClientID     string
	ReplitClientSecret string
	ReplitRedirectURL  string

	DiscordClientID     string
	DiscordClientSecret string
	DiscordRedirectURL  string

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
}

type CloudinaryConfig struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

// PaymentConfig describes the merchant side of the UPI rail.
type PaymentConfig struct {
	UPIMerchantID   string
	UPIMerchantName string
	Currency        string
}

type CheckoutConfig struct {
	IdempotencyWindow time.Duration
	MaxLineItems      int
}

type AssistantConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// AdminConfig seeds the password-login admin and lists emails promoted to admin on OAuth login.
type AdminConfig struct {
	Email    string
	Password string
	Emails   []string
}

func defaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8099")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("SERVER_READ_TIMEOUT", "10s")
	v.SetDefault("SERVER_WRITE_TIMEOUT", "10s")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:5173")
	v.SetDefault("RATE_LIMIT_RPS", 5)
	v.SetDefault("RATE_LIMIT_BURST", 20)

	v.SetDefault("DATABASE_DRIVER", "mysql")
	v.SetDefault("DATABASE_DSN", "seragon:seragon@tcp(localhost:3306)/seragon?charset=utf8mb4&parseTime=True&loc=Local")
	v.SetDefault("DATABASE_MAX_IDLE_CONNS", 10)
	v.SetDefault("DATABASE_MAX_OPEN_CONNS", 100)
	v.SetDefault("DATABASE_CONN_MAX_LIFETIME", "1h")

	v.SetDefault("REDIS_URL", "")

	v.SetDefault("JWT_ACCESS_SECRET", "change-me-in-production")
	v.SetDefault("JWT_REFRESH_SECRET", "change-me-refresh")
	v.SetDefault("JWT_ACCESS_EXPIRY", "15m")
	v.SetDefault("JWT_REFRESH_EXPIRY", "168h")
	v.SetDefault("JWT_ISSUER", "seragon")

	v.SetDefault("OAUTH_STATE_SECRET", "change-me-state")
	v.SetDefault("OAUTH_STATE_EXPIRY", "10m")
	v.SetDefault("ISSUER_URL", "https://replit.com/oidc")
	v.SetDefault("REPL_ID", "")
	v.SetDefault("REPLIT_CLIENT_SECRET", "")
	v.SetDefault("REPLIT_REDIRECT_URL", "http://localhost:8099/api/callback")
	v.SetDefault("DISCORD_CLIENT_ID", "")
	v.SetDefault("DISCORD_CLIENT_SECRET", "")
	v.SetDefault("DISCORD_REDIRECT_URL", "http://localhost:8099/api/auth/discord/callback")
	v.SetDefault("GOOGLE_CLIENT_ID", "")
	v.SetDefault("GOOGLE_CLIENT_SECRET", "")
	v.SetDefault("GOOGLE_REDIRECT_URL", "http://localhost:8099/api/auth/google/callback")

	v.SetDefault("CLOUDINARY_CLOUD_NAME", "")
	v.SetDefault("CLOUDINARY_API_KEY", "")
	v.SetDefault("CLOUDINARY_API_SECRET", "")
	v.SetDefault("CLOUDINARY_FOLDER", "Seragon/payment-proofs")

	v.SetDefault("UPI_MERCHANT_ID", "")
	v.SetDefault("UPI_MERCHANT_NAME", "Seragon")
	v.SetDefault("STORE_CURRENCY", "INR")

	v.SetDefault("CHECKOUT_IDEMPOTENCY_WINDOW", "24h")
	v.SetDefault("CHECKOUT_MAX_LINE_ITEMS", 50)

	v.SetDefault("OPENAI_API_KEY", "")
	v.SetDefault("OPENAI_BASE_URL", "https://api.openai.com/v1")
	v.SetDefault("OPENAI_MODEL", "gpt-4o")
	v.SetDefault("OPENAI_TIMEOUT", "20s")

	v.SetDefault("ADMIN_EMAIL", "admin@seragon.local")
	v.SetDefault("ADMIN_PASSWORD", "")
	v.SetDefault("ADMIN_EMAILS", "")
}

// Load reads .env (if present), an optional config.yaml and the process environment.
func Load() *Config {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	defaults(v)
	v.AutomaticEnv()
	_ = v.ReadInConfig()

	return &Config{
		Server: ServerConfig{
			Port:               v.GetString("SERVER_PORT"),
			Env:                v.GetString("APP_ENV"),
			ReadTimeout:        v.GetDuration("SERVER_READ_TIMEOUT"),
			WriteTimeout:       v.GetDuration("SERVER_WRITE_TIMEOUT"),
			CORSAllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
			RateLimitRPS:       v.GetFloat64("RATE_LIMIT_RPS"),
			RateLimitBurst:     v.GetInt("RATE_LIMIT_BURST"),
		},
		Database: DatabaseConfig{
			Driver:          v.GetString("DATABASE_DRIVER"),
			DSN:             v.GetString("DATABASE_DSN"),
			MaxIdleConns:    v.GetInt("DATABASE_MAX_IDLE_CONNS"),
			MaxOpenConns:    v.GetInt("DATABASE_MAX_OPEN_CONNS"),
			ConnMaxLifetime: v.GetDuration("DATABASE_CONN_MAX_LIFETIME"),
		},
		Redis: RedisConfig{
			URL: v.GetString("REDIS_URL"),
		},
		JWT: JWTConfig{
			AccessSecret:  v.GetString("JWT_ACCESS_SECRET"),
			RefreshSecret: v.GetString("JWT_REFRESH_SECRET"),
			AccessExpiry:  v.GetDuration("JWT_ACCESS_EXPIRY"),
			RefreshExpiry: v.GetDuration("JWT_REFRESH_EXPIRY"),
			Issuer:        v.GetString("JWT_ISSUER"),
		},
		OAuth: OAuthConfig{
			StateSecret:         v.GetString("OAUTH_STATE_SECRET"),
			StateExpiry:         v.GetDuration("OAUTH_STATE_EXPIRY"),
			ReplitIssuerURL:     v.GetString("ISSUER_URL"),
			ReplitClientID:      v.GetString("REPL_ID"),
			ReplitClientSecret:  v.GetString("REPLIT_CLIENT_SECRET"),
			ReplitRedirectURL:   v.GetString("REPLIT_REDIRECT_URL"),
			DiscordClientID:     v.GetString("DISCORD_CLIENT_ID"),
			DiscordClientSecret: v.GetString("DISCORD_CLIENT_SECRET"),
			DiscordRedirectURL:  v.GetString("DISCORD_REDIRECT_URL"),
			GoogleClientID:      v.GetString("GOOGLE_CLIENT_ID"),
			GoogleClientSecret:  v.GetString("GOOGLE_CLIENT_SECRET"),
			GoogleRedirectURL:   v.GetString("GOOGLE_REDIRECT_URL"),
		},
		Cloudinary: CloudinaryConfig{
			CloudName: v.GetString("CLOUDINARY_CLOUD_NAME"),
			APIKey:    v.GetString("CLOUDINARY_API_KEY"),
			APISecret: v.GetString("CLOUDINARY_API_SECRET"),
			Folder:    v.GetString("CLOUDINARY_FOLDER"),
		},
		Payment: PaymentConfig{
			UPIMerchantID:   v.GetString("UPI_MERCHANT_ID"),
			UPIMerchantName: v.GetString("UPI_MERCHANT_NAME"),
			Currency:        strings.ToUpper(v.GetString("STORE_CURRENCY")),
		},
		Checkout: CheckoutConfig{
			IdempotencyWindow: v.GetDuration("CHECKOUT_IDEMPOTENCY_WINDOW"),
			MaxLineItems:      v.GetInt("CHECKOUT_MAX_LINE_ITEMS"),
		},
		Assistant: AssistantConfig{
			APIKey:  v.GetString("OPENAI_API_KEY"),
			BaseURL: v.GetString("OPENAI_BASE_URL"),
			Model:   v.GetString("OPENAI_MODEL"),
			Timeout: v.GetDuration("OPENAI_TIMEOUT"),
		},
		Admin: AdminConfig{
			Email:    v.GetString("ADMIN_EMAIL"),
			Password: v.GetString("ADMIN_PASSWORD"),
			Emails:   splitList(v.GetString("ADMIN_EMAILS")),
		},
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

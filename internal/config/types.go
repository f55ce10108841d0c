package config

import "time"

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreRedis    = "redis"

	AuthJWT    = "jwt"
	AuthGoTrue = "gotrue"
)

// gateway configuration, populated from the environment
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	Port        string `env:"PORT" envDefault:"8080"`
	LogLevel    string `env:"LOG_LEVEL"`

	// upstream completion service
	UpstreamAPIKey   string        `env:"UPSTREAM_API_KEY,required,notEmpty"`
	UpstreamBaseURL  string        `env:"UPSTREAM_BASE_URL" envDefault:"https://ai.gateway.lovable.dev/v1"`
	UpstreamTimeout  time.Duration `env:"UPSTREAM_TIMEOUT" envDefault:"60s"`
	StreamTimeout    time.Duration `env:"UPSTREAM_STREAM_TIMEOUT" envDefault:"5m"`
	UpstreamRPS      float64       `env:"UPSTREAM_RPS" envDefault:"50"`
	UpstreamBurst    int           `env:"UPSTREAM_BURST" envDefault:"10"`
	FreeModel        string        `env:"FREE_MODEL" envDefault:"google/gemini-2.5-flash"`
	PremiumModel     string        `env:"PREMIUM_MODEL" envDefault:"google/gemini-2.5-pro"`
	FreeMaxTokens    int           `env:"FREE_MAX_TOKENS" envDefault:"1024"`
	PremiumMaxTokens int           `env:"PREMIUM_MAX_TOKENS" envDefault:"4096"`

	// identity
	AuthMode        string `env:"AUTH_MODE" envDefault:"jwt"`
	JWTSecret       string `env:"JWT_SECRET"`
	JWTPublicKey    string `env:"JWT_PUBLIC_KEY"`
	IdentityURL     string `env:"IDENTITY_URL"`
	IdentityAnonKey string `env:"IDENTITY_ANON_KEY"`

	// account store
	AccountStore     string `env:"ACCOUNT_STORE" envDefault:"postgres"`
	DatabaseURL      string `env:"DATABASE_URL"`
	AdminDatabaseURL string `env:"ADMIN_DATABASE_URL"`
	RedisURL         string `env:"REDIS_URL"`
	AutoMigrate      bool   `env:"AUTO_MIGRATE" envDefault:"false"`

	// quota and limits
	DailyLimit int    `env:"DAILY_LIMIT" envDefault:"15"`
	RateLimit  string `env:"RATE_LIMIT" envDefault:"30-M"`

	// external checkout page for upgrades
	CheckoutURL string `env:"CHECKOUT_URL"`
}

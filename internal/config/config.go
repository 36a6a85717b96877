package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `env:",prefix=SERVER_"`
	Database DatabaseConfig `env:",prefix=DB_"`
	Auth     AuthConfig     `env:",prefix=AUTH_"`
	Stripe   StripeConfig   `env:",prefix=STRIPE_"`
	SMTP     SMTPConfig     `env:",prefix=SMTP_"`
	Campaign CampaignConfig `env:",prefix=CAMPAIGN_"`
	App      AppConfig      `env:",prefix=APP_"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port         string        `env:"PORT,default=8080"`
	Host         string        `env:"HOST,default=0.0.0.0"`
	ReadTimeout  time.Duration `env:"READ_TIMEOUT,default=30s"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT,default=30s"`

	// PublicURL is where browsers reach the service; used in links.
	PublicURL string `env:"PUBLIC_URL,default=http://localhost:8080"`

	// SigninPath receives unauthenticated invite-link visitors.
	SigninPath string `env:"SIGNIN_PATH,default=/signin"`

	// SecureCookies marks the session cookie Secure. Enable behind TLS.
	SecureCookies bool `env:"SECURE_COOKIES,default=false"`

	// StaticDir optionally serves the web client from disk.
	StaticDir string `env:"STATIC_DIR"`
}

// DatabaseConfig selects the store driver and connection
type DatabaseConfig struct {
	// Driver is "sqlite" or "postgres".
	Driver string `env:"DRIVER,default=sqlite"`

	// DSN is a file path for sqlite or a connection URL for postgres.
	DSN string `env:"DSN,default=./data/runpool.db"`

	MaxOpenConns int `env:"MAX_OPEN_CONNS,default=25"`
	MaxIdleConns int `env:"MAX_IDLE_CONNS,default=5"`
}

// AuthConfig holds session and invite settings
type AuthConfig struct {
	JWTSecret string        `env:"JWT_SECRET"`
	TokenTTL  time.Duration `env:"TOKEN_TTL,default=24h"`

	// InviteTTL is the default lifetime of new invite tokens; zero never
	// expires.
	InviteTTL time.Duration `env:"INVITE_TTL,default=168h"`
}

// StripeConfig holds payment processor credentials
type StripeConfig struct {
	SecretKey     string `env:"SECRET_KEY"`
	WebhookSecret string `env:"WEBHOOK_SECRET"`
	APIBase       string `env:"API_BASE"`

	// Currency is the default for new groups.
	Currency string `env:"CURRENCY,default=usd"`
}

// SMTPConfig holds the e-mail relay settings. Outside production, campaign
// e-mails are only logged when no host is set.
type SMTPConfig struct {
	Host     string `env:"HOST"`
	Port     int    `env:"PORT,default=587"`
	Username string `env:"USERNAME"`
	Password string `env:"PASSWORD"`
	From     string `env:"FROM,default=RunPool <hello@runpool.app>"`
}

// CampaignConfig holds campaign dispatcher settings
type CampaignConfig struct {
	// RegistryFile optionally overrides the built-in campaigns.
	RegistryFile string `env:"REGISTRY_FILE"`

	// SchedulerSecret authenticates campaign runs.
	SchedulerSecret string `env:"SCHEDULER_SECRET"`

	SendTimeout time.Duration `env:"SEND_TIMEOUT,default=10s"`
	Rate        float64       `env:"RATE,default=5"`
	Burst       int           `env:"BURST,default=5"`
}

// AppConfig holds application-specific configuration
type AppConfig struct {
	Environment string `env:"ENVIRONMENT,default=development"`
	LogLevel    string `env:"LOG_LEVEL,default=info"`
}

// Load loads configuration from environment variables
func Load(ctx context.Context) (*Config, error) {
	return LoadFrom(ctx, envconfig.OsLookuper())
}

// LoadFrom loads configuration from the given lookuper
func LoadFrom(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadDatabase loads only the DB_* settings, for tools that need the store
// but not the server.
func LoadDatabase(ctx context.Context, l envconfig.Lookuper) (*DatabaseConfig, error) {
	var cfg DatabaseConfig
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: envconfig.PrefixLookuper("DB_", l)}); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}
	return &cfg, nil
}

// Validate reports configuration the server cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("AUTH_JWT_SECRET is required"))
	}
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER %q is not supported", c.Database.Driver))
	}
	if c.Campaign.Rate <= 0 || c.Campaign.Burst <= 0 {
		errs = append(errs, errors.New("CAMPAIGN_RATE and CAMPAIGN_BURST must be positive"))
	}
	// Campaign sends are recorded as delivered; logging them would lose mail.
	if c.App.IsProduction() && c.SMTP.Host == "" {
		errs = append(errs, errors.New("SMTP_HOST is required in production"))
	}
	return errors.Join(errs...)
}

// GetServerAddr returns the server address
func (c *ServerConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// URL joins the public URL with a path.
func (c *ServerConfig) URL(path string) string {
	return strings.TrimRight(c.PublicURL, "/") + path
}

// IsProduction returns true if running in production environment
func (c *AppConfig) IsProduction() bool {
	return c.Environment == "production"
}

package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aussiebroadwan/accounts/pkg/cryptox"
	"github.com/aussiebroadwan/accounts/pkg/mailx"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Env                 string        `envconfig:"ENV" default:"dev"`         // dev, staging, prod
	LogLevel            string        `envconfig:"LOG_LEVEL" default:"info"`  // debug, info, warn, error
	LogFormat           string        `envconfig:"LOG_FORMAT" default:"json"` // json, text
	Port                int           `envconfig:"PORT" default:"8080"`
	ShutdownGracePeriod time.Duration `envconfig:"SHUTDOWN_GRACE_PERIOD" default:"10s"`
	BaseURL             string        `envconfig:"ACCOUNTS_BASE_URL" default:"http://localhost:8080"` // Base of reset links

	// A postgres:// URL selects the Postgres driver, anything else is a
	// SQLite file path.
	DatabaseURL string `envconfig:"ACCOUNTS_DATABASE_URL" default:"accounts.db"`
	PepperFile  string `envconfig:"ACCOUNTS_PEPPER_FILE" default:"pepper"`

	TokenSecret     string        `envconfig:"ACCOUNTS_TOKEN_SECRET"` // Optional: wins over TokenSecretFile
	TokenSecretFile string        `envconfig:"ACCOUNTS_TOKEN_SECRET_FILE" default:"token.secret"`
	Issuer          string        `envconfig:"ACCOUNTS_TOKEN_ISSUER" default:"accounts"`
	TokenTTL        time.Duration `envconfig:"ACCOUNTS_TOKEN_TTL" default:"19h26m40s"`
	ResetTokenTTL   time.Duration `envconfig:"ACCOUNTS_RESET_TOKEN_TTL" default:"30m"`
	CookieSecure    bool          `envconfig:"ACCOUNTS_COOKIE_SECURE" default:"false"`

	// Comma-separated CIDRs of reverse proxies allowed to set X-Forwarded-For.
	TrustedProxies []string `envconfig:"ACCOUNTS_TRUSTED_PROXIES"`

	Argon2Memory      uint32 `envconfig:"ACCOUNTS_ARGON2_MEMORY_KIB" default:"19456"`
	Argon2Iterations  uint32 `envconfig:"ACCOUNTS_ARGON2_ITERATIONS" default:"2"`
	Argon2Parallelism uint8  `envconfig:"ACCOUNTS_ARGON2_PARALLELISM" default:"1"`

	// An empty SMTPHost logs reset mails instead of sending them.
	SMTPHost     string `envconfig:"SMTP_HOST"`
	SMTPPort     int    `envconfig:"SMTP_PORT" default:"587"`
	SMTPUsername string `envconfig:"SMTP_USERNAME"`
	SMTPPassword string `envconfig:"SMTP_PASSWORD"`
	SMTPFrom     string `envconfig:"SMTP_FROM" default:"noreply@localhost"`
	SMTPFromName string `envconfig:"SMTP_FROM_NAME" default:"Accounts"`
	SMTPTLS      bool   `envconfig:"SMTP_TLS" default:"true"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the service cannot start with.
func (c Config) Validate() error {
	var errs []error
	switch c.LogFormat {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be json or text, got %q", c.LogFormat))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT out of range: %d", c.Port))
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, errors.New("ACCOUNTS_TOKEN_TTL must be positive"))
	}
	if c.ResetTokenTTL <= 0 {
		errs = append(errs, errors.New("ACCOUNTS_RESET_TOKEN_TTL must be positive"))
	}
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("ACCOUNTS_DATABASE_URL is required"))
	}
	if c.Argon2Memory == 0 || c.Argon2Iterations == 0 || c.Argon2Parallelism == 0 {
		errs = append(errs, errors.New("argon2 parameters must be positive"))
	}
	if c.Argon2Memory > cryptox.MaxArgon2Memory || c.Argon2Iterations > cryptox.MaxArgon2Iterations ||
		c.Argon2Parallelism > cryptox.MaxArgon2Parallelism {
		errs = append(errs, fmt.Errorf("argon2 parameters above m=%d,t=%d,p=%d",
			cryptox.MaxArgon2Memory, cryptox.MaxArgon2Iterations, cryptox.MaxArgon2Parallelism))
	}
	return errors.Join(errs...)
}

// IsProduction reports whether the service runs in production.
func (c Config) IsProduction() bool {
	return c.Env == "prod"
}

// UsesPostgres reports whether DatabaseURL names a Postgres database.
func (c Config) UsesPostgres() bool {
	return strings.HasPrefix(c.DatabaseURL, "postgres://") ||
		strings.HasPrefix(c.DatabaseURL, "postgresql://")
}

// Argon2Params returns the configured hashing cost on top of the defaults.
func (c Config) Argon2Params() cryptox.Argon2Params {
	p := cryptox.DefaultArgon2Params
	p.Memory = c.Argon2Memory
	p.Iterations = c.Argon2Iterations
	p.Parallelism = c.Argon2Parallelism
	return p
}

func (c Config) SMTP() mailx.SMTPConfig {
	return mailx.SMTPConfig{
		Host:     c.SMTPHost,
		Port:     c.SMTPPort,
		Username: c.SMTPUsername,
		Password: c.SMTPPassword,
		From:     c.SMTPFrom,
		FromName: c.SMTPFromName,
		TLS:      c.SMTPTLS,
	}
}

package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"

	"github.com/innoshop/platform/pkg/logger"
)

const minSecretLength = 32

const (
	DriverMongo  = "mongo"
	DriverMemory = "memory"
)

type Config struct {
	Port        string `env:"PORT, default=8080"`
	Env         string `env:"ENV, default=development"`
	LogLevel    string `env:"LOG_LEVEL, default=info"`
	StoreDriver string `env:"STORE_DRIVER, default=mongo"`

	// PublicBaseURL is the origin used in links sent by email.
	PublicBaseURL string `env:"PUBLIC_BASE_URL, default=http://localhost:3000"`
	NotifyWorkers int    `env:"NOTIFY_WORKERS, default=4"`

	// LoginRateLimit is the number of login and forgot-password requests
	// accepted per client IP per minute.
	LoginRateLimit int `env:"LOGIN_RATE_LIMIT, default=10"`

	// OwnerOverrideRoles lets holders of these roles modify resources they do
	// not own. Empty means only the creator may.
	OwnerOverrideRoles []string `env:"OWNER_OVERRIDE_ROLES"`

	// AdminEmail is granted the Admin role at auth-service startup once the
	// account exists.
	AdminEmail string `env:"ADMIN_EMAIL"`

	JWT      JWTConfig
	Tokens   TokenConfig
	Password PasswordConfig
	Mongo    MongoConfig
	Redis    RedisConfig
}

type JWTConfig struct {
	Secret   string        `env:"JWT_SECRET"`
	Issuer   string        `env:"JWT_ISSUER"`
	Audience string        `env:"JWT_AUDIENCE"`
	TTL      time.Duration `env:"JWT_TTL, default=60m"`
}

type TokenConfig struct {
	ConfirmationTTL time.Duration `env:"CONFIRMATION_TOKEN_TTL, default=24h"`
	ResetTTL        time.Duration `env:"RESET_TOKEN_TTL, default=24h"`
}

type PasswordConfig struct {
	MinLength     int  `env:"PASSWORD_MIN_LENGTH, default=6"`
	RequireDigit  bool `env:"PASSWORD_REQUIRE_DIGIT, default=true"`
	RequireLower  bool `env:"PASSWORD_REQUIRE_LOWER, default=true"`
	RequireUpper  bool `env:"PASSWORD_REQUIRE_UPPER, default=false"`
	RequireSymbol bool `env:"PASSWORD_REQUIRE_SYMBOL, default=false"`
	BcryptCost    int  `env:"BCRYPT_COST, default=10"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB, default=innoshop"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR, default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB, default=0"`
}

// Production reports whether the service runs with ENV=production.
func (c *Config) Production() bool {
	return strings.EqualFold(c.Env, "production")
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings that have no usable default.
func (c *Config) Validate() error {
	var errs []error
	if c.JWT.Secret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	} else if len(c.JWT.Secret) < minSecretLength {
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d bytes", minSecretLength))
	}
	if c.JWT.TTL <= 0 {
		errs = append(errs, errors.New("JWT_TTL must be positive"))
	}
	if c.Tokens.ConfirmationTTL <= 0 {
		errs = append(errs, errors.New("CONFIRMATION_TOKEN_TTL must be positive"))
	}
	if c.Tokens.ResetTTL <= 0 {
		errs = append(errs, errors.New("RESET_TOKEN_TTL must be positive"))
	}
	if c.Password.MinLength < 1 {
		errs = append(errs, errors.New("PASSWORD_MIN_LENGTH must be at least 1"))
	}
	if c.LoginRateLimit <= 0 {
		errs = append(errs, errors.New("LOGIN_RATE_LIMIT must be positive"))
	}
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("LOG_LEVEL: %w", err))
	}
	switch c.StoreDriver {
	case DriverMongo, DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("STORE_DRIVER %q is not one of %s, %s", c.StoreDriver, DriverMongo, DriverMemory))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

const (
	EnvDevelopment = "development"

	// DevJWTSecretPlaceholder is the value shipped in .env.example. It is
	// refused outside development.
	DevJWTSecretPlaceholder = "change-me"
	minJWTSecretLen         = 32
)

type Config struct {
	Port      string `env:"PORT,      default=8080"`
	Env       string `env:"ENV,       default=development"`
	LogLevel  string `env:"LOG_LEVEL, default=info"`
	LogPretty bool   `env:"LOG_PRETTY, default=false"`

	Auth    AuthConfig
	DB      DBConfig
	Mongo   MongoConfig
	Redis   RedisConfig
	Records RecordsConfig
	HTTP    HTTPConfig
}

type AuthConfig struct {
	JWTSecret              string        `env:"JWT_SECRET"`
	TokenTTL               time.Duration `env:"TOKEN_TTL,    default=2h"`
	TokenIssuer            string        `env:"TOKEN_ISSUER, default=sheet-admin"`
	BcryptCost             int           `env:"BCRYPT_COST,  default=12"`
	BootstrapAdminPassword string        `env:"BOOTSTRAP_ADMIN_PASSWORD"`
}

type DBConfig struct {
	Driver string `env:"DB_DRIVER, default=sqlite"`
	// DSN is a file path for sqlite (users.db when empty) and a connection
	// URL for postgres.
	DSN    string `env:"DB_DSN"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=sheet_admin"`
}

// RedisConfig is optional: an empty Addr keeps token revocation in process.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB, default=0"`
}

type RecordsConfig struct {
	StoreURL       string        `env:"RECORD_STORE_URL"`
	StoreTimeout   time.Duration `env:"RECORD_STORE_TIMEOUT, default=15s"`
	ImportWorkers  int           `env:"IMPORT_WORKERS,       default=4"`
	UploadMaxBytes int64         `env:"UPLOAD_MAX_BYTES,     default=10485760"`
}

type HTTPConfig struct {
	ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT,     default=15s"`
	WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT,    default=60s"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT, default=10s"`
}

// IsDevelopment reports whether relaxed defaults (random JWT secret) apply.
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Env, EnvDevelopment)
}

// Load reads an optional .env file and then the environment. Variables
// already set in the environment win over .env entries.
func Load(ctx context.Context) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: read .env: %w", err)
	}
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate fails closed on settings that would leave the service insecure
// or unusable.
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Auth.BootstrapAdminPassword) == "" {
		errs = append(errs, errors.New("BOOTSTRAP_ADMIN_PASSWORD is required"))
	}
	if !c.IsDevelopment() {
		switch {
		case c.Auth.JWTSecret == "":
			errs = append(errs, errors.New("JWT_SECRET is required outside development"))
		case c.Auth.JWTSecret == DevJWTSecretPlaceholder:
			errs = append(errs, errors.New("JWT_SECRET must not be the development placeholder"))
		case len(c.Auth.JWTSecret) < minJWTSecretLen:
			errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d bytes", minJWTSecretLen))
		}
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("TOKEN_TTL must be positive"))
	}
	switch c.DB.Driver {
	case "sqlite", "postgres", "mongo":
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER %q is not one of sqlite, postgres, mongo", c.DB.Driver))
	}
	if c.DB.Driver == "postgres" && c.DB.DSN == "" {
		errs = append(errs, errors.New("DB_DSN is required for postgres"))
	}
	if c.Records.ImportWorkers <= 0 {
		errs = append(errs, errors.New("IMPORT_WORKERS must be positive"))
	}
	if c.Records.UploadMaxBytes <= 0 {
		errs = append(errs, errors.New("UPLOAD_MAX_BYTES must be positive"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

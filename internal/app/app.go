// Package app wires configuration, stores and services into a ready HTTP
// handler.
package app

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/thejerf/abtime"

	"github.com/sollo/sheet-admin/internal/api"
	"github.com/sollo/sheet-admin/internal/core/ports"
	"github.com/sollo/sheet-admin/internal/core/security"
	"github.com/sollo/sheet-admin/internal/core/service"
	"github.com/sollo/sheet-admin/internal/infrastructure/config"
	mongostore "github.com/sollo/sheet-admin/internal/infrastructure/db/mongo"
	redisstore "github.com/sollo/sheet-admin/internal/infrastructure/db/redis"
	"github.com/sollo/sheet-admin/internal/infrastructure/db/sqlstore"
	"github.com/sollo/sheet-admin/internal/infrastructure/http/handlers"
	"github.com/sollo/sheet-admin/internal/infrastructure/importer"
	"github.com/sollo/sheet-admin/internal/infrastructure/memory"
	"github.com/sollo/sheet-admin/internal/infrastructure/queue"
	"github.com/sollo/sheet-admin/internal/infrastructure/sheets"
	"github.com/sollo/sheet-admin/pkg/logger"
)

const devSecretLen = 32

// App owns the router and every connection opened to build it.
type App struct {
	Echo    *echo.Echo
	closers []func(context.Context) error
}

// New connects to the configured backends, seeds the bootstrap admin and
// builds the router. On error every connection opened so far is closed.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (_ *App, err error) {
	a := &App{}
	defer func() {
		if err != nil {
			_ = a.Close(context.Background())
		}
	}()

	readiness := make(map[string]handlers.Pinger)

	users, err := a.openUserStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	readiness["users"] = users

	clock := abtime.NewRealTime()
	revocations, err := a.openRevocationStore(ctx, cfg, log, clock, readiness)
	if err != nil {
		return nil, err
	}

	secret, err := jwtSecret(cfg, log)
	if err != nil {
		return nil, err
	}

	hasher := security.NewBcryptHasher(cfg.Auth.BcryptCost)
	issuer := security.NewJWTIssuer(secret, cfg.Auth.TokenTTL, cfg.Auth.TokenIssuer, clock)

	authService := service.NewAuthService(users, hasher, issuer, revocations, logger.Component(log, logger.ComponentAuth))
	userService := service.NewUserService(users, hasher, logger.Component(log, logger.ComponentUsers))
	if err := userService.Bootstrap(ctx, cfg.Auth.BootstrapAdminPassword); err != nil {
		return nil, fmt.Errorf("bootstrap admin: %w", err)
	}

	var store ports.RecordStore
	if cfg.Records.StoreURL != "" {
		client, err := sheets.NewClient(sheets.Config{BaseURL: cfg.Records.StoreURL, Timeout: cfg.Records.StoreTimeout})
		if err != nil {
			return nil, err
		}
		store = client
	} else {
		log.Warn().Msg("RECORD_STORE_URL not set: record routes will answer 503")
	}
	recordLog := logger.Component(log, logger.ComponentRecords)
	recordService := service.NewRecordService(
		store,
		importer.NewParser(),
		queue.NewDispatcher(cfg.Records.ImportWorkers, recordLog),
		recordLog,
	)

	a.Echo = api.NewRouter(api.Deps{
		Log:            logger.Component(log, logger.ComponentHTTP),
		Auth:           authService,
		Users:          userService,
		Records:        recordService,
		UploadMaxBytes: cfg.Records.UploadMaxBytes,
		Readiness:      readiness,
	})
	return a, nil
}

func (a *App) openUserStore(ctx context.Context, cfg *config.Config) (ports.UserRepository, error) {
	if cfg.DB.Driver == "mongo" {
		client, db, err := mongostore.Connect(ctx, mongostore.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, client.Disconnect)
		repo := mongostore.NewUserRepository(db)
		if err := repo.EnsureIndexes(ctx); err != nil {
			return nil, err
		}
		return repo, nil
	}

	driver := sqlstore.Driver(cfg.DB.Driver)
	db, err := sqlstore.Open(ctx, sqlstore.Config{Driver: driver, DSN: cfg.DB.DSN})
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func(context.Context) error { return db.Close() })
	repo := sqlstore.NewUserRepository(db, driver)
	if err := repo.Migrate(ctx); err != nil {
		return nil, err
	}
	return repo, nil
}

func (a *App) openRevocationStore(ctx context.Context, cfg *config.Config, log zerolog.Logger, clock abtime.AbstractTime, readiness map[string]handlers.Pinger) (ports.RevocationStore, error) {
	if cfg.Redis.Addr == "" {
		log.Warn().Msg("REDIS_ADDR not set: logouts are only enforced by this process")
		return memory.NewRevocationStore(clock), nil
	}
	client, err := redisstore.Connect(ctx, redisstore.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func(context.Context) error { return client.Close() })
	store := redisstore.NewRevocationStore(client, clock)
	readiness["redis"] = store
	return store, nil
}

// jwtSecret returns the configured secret, or in development a random
// per-process one. The random key is never logged.
func jwtSecret(cfg *config.Config, log zerolog.Logger) ([]byte, error) {
	if cfg.Auth.JWTSecret != "" {
		return []byte(cfg.Auth.JWTSecret), nil
	}
	if !cfg.IsDevelopment() {
		return nil, errors.New("JWT_SECRET is required outside development")
	}
	secret := make([]byte, devSecretLen)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("generate jwt secret: %w", err)
	}
	log.Warn().Msg("JWT_SECRET not set: using a random secret, tokens will not survive a restart")
	return secret, nil
}

// Close releases connections in reverse opening order.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

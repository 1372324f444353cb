package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	libredis "cdm/backend/libs/redis"
	"cdm/backend/services/station-service/internal/auth"
	"cdm/backend/services/station-service/internal/config"
	"cdm/backend/services/station-service/internal/db"
	httpserver "cdm/backend/services/station-service/internal/http"
	"cdm/backend/services/station-service/internal/http/handlers"
	"cdm/backend/services/station-service/internal/http/middleware"
	"cdm/backend/services/station-service/internal/memstore"
	"cdm/backend/services/station-service/internal/metrics"
	"cdm/backend/services/station-service/internal/models"
	"cdm/backend/services/station-service/internal/repository"
	"cdm/backend/services/station-service/internal/service"
)

// userStore is what login and the bootstrap admin need from either backend.
type userStore interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
}

type storage struct {
	tx       service.Transactor
	stations service.StationLister
	history  service.HistoryReader
	catalog  service.FaultCauseCatalog
	users    userStore
}

// App wires station-service dependencies.
type App struct {
	server      *httpserver.Server
	handler     http.Handler
	db          *sql.DB
	redisClient *redis.Client
	logger      *zap.Logger
}

// New constructs the application graph.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	a := &App{logger: logger}
	ok := false
	defer func() {
		if !ok {
			a.Close()
		}
	}()

	store, err := a.openStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}

	sessions, err := a.openSessions(ctx, cfg)
	if err != nil {
		return nil, err
	}

	metrics.Init(prometheus.DefaultRegisterer, a.db, logger)

	hasher := auth.NewBcryptHasher(0)
	if err := ensureAdmin(ctx, store.users, hasher, cfg.Bootstrap, logger); err != nil {
		return nil, err
	}

	tokens := auth.NewTokenService(cfg.JWT.Secret, cfg.JWT.Expiry)
	policy := auth.NewAccessPolicy(tokens, sessions)
	logins := auth.NewLoginService(store.users, hasher, tokens, sessions, logger)

	queries := service.NewQueryService(store.stations, store.history, store.catalog, cfg.Cache.ListingTTL, logger)
	transitions := service.NewTransitionService(store.tx, queries, cfg.Database.TxTimeout, logger)
	registry := service.NewRegistrationService(store.tx, queries, logger)

	router := httpserver.NewRouter(httpserver.RouterDeps{
		AuthHandlers:        handlers.NewAuthHandlers(logins, logger),
		StationsHandlers:    handlers.NewStationsHandlers(queries, transitions, registry, logger),
		FaultCausesHandlers: handlers.NewFaultCausesHandlers(queries, logger),
		HistoryHandlers:     handlers.NewHistoryHandlers(queries, logger),
		HealthHandler:       handlers.NewHealthHandler(),
		MetricsHandler:      promhttp.Handler(),
		Resolver:            policy,
		Logger:              logger,
	})

	a.handler = middleware.Chain(
		router,
		middleware.RecoveryMiddleware(logger),
		middleware.LoggingMiddleware(logger),
		middleware.RateLimit(cfg.HTTP.RateLimit, cfg.HTTP.RateBurst),
	)
	a.server = httpserver.NewServer(cfg.HTTPAddress(), a.handler, logger)

	ok = true
	return a, nil
}

func (a *App) openStorage(ctx context.Context, cfg *config.Config) (*storage, error) {
	switch cfg.Storage.Driver {
	case config.DriverMemory:
		a.logger.Warn("using in-memory storage; data is lost on restart")
		mem := memstore.New()
		return &storage{tx: mem, stations: mem, history: mem, catalog: mem, users: mem}, nil
	case config.DriverPostgres:
		sqlDB, err := db.NewPostgres(ctx, cfg.Database.DSN, cfg.Database.MaxOpenConns)
		if err != nil {
			return nil, fmt.Errorf("app: connect postgres: %w", err)
		}
		a.db = sqlDB
		if cfg.Database.Migrate {
			if err := db.Migrate(ctx, sqlDB); err != nil {
				return nil, err
			}
		}
		return &storage{
			tx:       repository.NewTransactor(sqlDB),
			stations: repository.NewStationRepository(sqlDB),
			history:  repository.NewHistoryRepository(sqlDB),
			catalog:  repository.NewFaultCauseRepository(sqlDB),
			users:    repository.NewUserRepository(sqlDB),
		}, nil
	default:
		return nil, fmt.Errorf("app: unknown storage driver %q", cfg.Storage.Driver)
	}
}

func (a *App) openSessions(ctx context.Context, cfg *config.Config) (auth.SessionStore, error) {
	if !cfg.UseRedisSessions() {
		a.logger.Warn("redis address not set; sessions are kept in process memory")
		return auth.NewMemorySessionStore(cfg.JWT.Expiry), nil
	}
	client, err := libredis.NewRedisClient(ctx, libredis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("app: connect redis: %w", err)
	}
	a.redisClient = client
	return auth.NewRedisSessionStore(client), nil
}

// ensureAdmin seeds the configured administrator unless the email already exists.
func ensureAdmin(ctx context.Context, users userStore, hasher auth.Hasher, cfg config.BootstrapConfig, logger *zap.Logger) error {
	if cfg.AdminEmail == "" {
		return nil
	}
	if _, err := users.GetByEmail(ctx, cfg.AdminEmail); err == nil {
		return nil
	} else if !errors.Is(err, models.ErrUserNotFound) {
		return fmt.Errorf("app: look up bootstrap admin: %w", err)
	}

	hash, err := hasher.Hash(cfg.AdminPassword)
	if err != nil {
		return err
	}
	user := &models.User{
		Email:        cfg.AdminEmail,
		PasswordHash: hash,
		Name:         cfg.AdminName,
		Role:         models.RoleAdmin,
	}
	if err := users.CreateUser(ctx, user); err != nil {
		return fmt.Errorf("app: create bootstrap admin: %w", err)
	}
	logger.Info("bootstrap admin created", zap.Int64("user_id", user.ID), zap.String("email", user.Email))
	return nil
}

// Handler exposes the fully wrapped HTTP handler.
func (a *App) Handler() http.Handler {
	return a.handler
}

// Run starts HTTP server.
func (a *App) Run(ctx context.Context) error {
	return a.server.Run(ctx)
}

// Close releases resources.
func (a *App) Close() {
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("failed to close db", zap.Error(err))
		}
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warn("failed to close redis", zap.Error(err))
		}
	}
}

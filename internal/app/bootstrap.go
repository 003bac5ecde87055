package app

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"user-service/internal/auth"
	"user-service/internal/config"
	"user-service/internal/db"
	"user-service/internal/observability"
	"user-service/internal/user"
)

type Options struct {
	LoadDotEnv bool
}

type Runtime struct {
	Handler http.Handler
	Config  config.Config
	Close   func() error
}

func Build(options Options) (*Runtime, error) {
	cfg, err := config.Load(options.LoadDotEnv)
	if err != nil {
		return nil, err
	}

	logger := observability.NewLogger()
	if err := observability.InitSentry(cfg.SentryDSN, cfg.AppEnv, cfg.Release); err != nil {
		logger.Error("init_sentry_failed", map[string]any{"error": err.Error()})
	}

	return BuildWithConfig(context.Background(), cfg, logger)
}

// BuildWithConfig wires the runtime from an already loaded configuration.
func BuildWithConfig(ctx context.Context, cfg config.Config, logger *observability.Logger) (*Runtime, error) {
	dialect, dsn, err := db.ParseURL(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	var (
		database *sql.DB
		repo     user.Repository
	)
	switch dialect {
	case db.DialectMemory:
		repo = user.NewMemoryRepository()
	default:
		database, err = db.Open(ctx, dialect, dsn, db.PoolConfig{
			MaxOpenConns:    cfg.DBMaxOpenConns,
			MaxIdleConns:    cfg.DBMaxIdleConns,
			ConnMaxLifetime: cfg.DBConnMaxLifetime,
			ConnMaxIdleTime: cfg.DBConnMaxIdleTime,
		})
		if err != nil {
			return nil, err
		}

		if cfg.RunMigrations {
			if err := db.RunMigrations(ctx, database, dialect); err != nil {
				_ = database.Close()
				return nil, fmt.Errorf("run migrations: %w", err)
			}
		}

		if dialect == db.DialectSQLite {
			repo = user.NewSQLiteRepository(database)
		} else {
			repo = user.NewPostgresRepository(database)
		}
	}

	closeDB := func() error {
		if database == nil {
			return nil
		}
		return database.Close()
	}

	codec, err := auth.NewTokenCodec(cfg.SecretKey, cfg.Algorithm)
	if err != nil {
		_ = closeDB()
		return nil, fmt.Errorf("init token codec: %w", err)
	}
	hasher := auth.NewBcryptHasher(cfg.BcryptCost)

	userService := user.NewService(repo, hasher)
	if err := userService.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword); err != nil {
		_ = closeDB()
		return nil, fmt.Errorf("bootstrap admin: %w", err)
	}

	verifier := auth.NewCredentialVerifier(repo, hasher)
	gate := auth.NewAccessGate(codec, repo)
	authHandler := auth.NewHandler(verifier, codec, repo, cfg.TokenTTL)
	userHandler := user.NewHandler(userService)

	active := func(h http.HandlerFunc) http.Handler { return auth.Middleware(gate, auth.LevelActive, h) }
	admin := func(h http.HandlerFunc) http.Handler { return auth.Middleware(gate, auth.LevelAdmin, h) }

	mux := http.NewServeMux()
	mux.HandleFunc("POST /login", authHandler.Login)
	mux.HandleFunc("GET /health", healthHandler(database))
	mux.Handle("GET /users/me", active(authHandler.Me))
	mux.Handle("GET /users", active(userHandler.ListUsers))
	mux.Handle("GET /users/{id}", active(userHandler.GetUser))
	mux.Handle("POST /users", admin(userHandler.CreateUser))
	mux.Handle("PUT /users/{id}", admin(userHandler.UpdateUser))
	mux.Handle("DELETE /users/{id}", admin(userHandler.DeleteUser))

	handler := observability.RecoverMiddleware(logger, observability.RequestLoggingMiddleware(logger, mux))

	return &Runtime{
		Handler: handler,
		Config:  cfg,
		Close: func() error {
			observability.FlushSentry()
			return closeDB()
		},
	}, nil
}

func healthHandler(database *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusOK
		body := map[string]any{"status": "ok", "time": time.Now().UTC().Format(time.RFC3339)}

		if database != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()

			if err := database.PingContext(ctx); err != nil {
				status = http.StatusServiceUnavailable
				body["status"] = "degraded"
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}
}

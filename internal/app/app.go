// Package app wires the adapters and services shared by the HTTP server and
// the mlpromote CLI.
package app

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"model-promotion-service/internal/adapters/secondary/aigateway"
	"model-promotion-service/internal/adapters/secondary/configfs"
	"model-promotion-service/internal/adapters/secondary/kserve"
	"model-promotion-service/internal/adapters/secondary/mlflow"
	"model-promotion-service/internal/adapters/secondary/postgres"
	"model-promotion-service/internal/config"
	"model-promotion-service/internal/core/domain"
	output "model-promotion-service/internal/core/ports/output"
	"model-promotion-service/internal/core/services"
)

// App holds the wired services
type App struct {
	Config *config.Config
	Pool   *pgxpool.Pool

	Source    output.RecordSource
	Registry  output.RegistryClient
	Revisions output.RevisionRepository

	Validation *services.ValidationService
	Promotion  *services.PromotionService
	History    *services.RevisionService
	Trigger    *services.TriggerService
}

// New connects the optional integrations enabled in cfg and builds the
// services. Kubernetes failures degrade to running without serving sync;
// database failures are fatal because an enabled history must be kept.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{
		Config:   cfg,
		Source:   configfs.NewStore(cfg.Promotion.ConfigDir),
		Registry: mlflow.NewMLflowClient(&cfg.Registry),
	}

	if cfg.Database.Enabled {
		pool, err := connect(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		a.Pool = pool
		a.Revisions = postgres.NewRevisionRepository(pool)
		log.Info("revision history enabled")
	} else {
		log.Info("revision history disabled")
	}

	// KServe Client (Optional - based on config)
	var kserveClient output.KServeClient
	if cfg.Kubernetes.Enabled {
		client, err := kserve.NewKServeClient(&cfg.Kubernetes)
		if err != nil {
			log.Warnf("KServe client init failed (continuing without K8s integration): %v", err)
		} else {
			kserveClient = client
			log.Info("KServe client initialized")
		}
	} else {
		log.Info("KServe integration disabled")
	}

	// AI Gateway Client (Optional - based on config)
	var aiGatewayClient output.AIGatewayClient
	if cfg.AIGateway.Enabled {
		client, err := aigateway.NewAIGatewayClient(&cfg.AIGateway)
		if err != nil {
			log.Warnf("AI Gateway client init failed (continuing without AI Gateway integration): %v", err)
		} else {
			aiGatewayClient = client
			log.Info("AI Gateway client initialized")
		}
	} else {
		log.Info("AI Gateway integration disabled")
	}

	a.Validation = services.NewValidationService(cfg.Promotion.AllowedModels)
	a.Promotion = services.NewPromotionService(a.Registry, a.Revisions, kserveClient, aiGatewayClient, a.Validation,
		services.PromotionOptions{
			SettleDelay: cfg.Promotion.SettleDelay,
			NamespaceFor: func(env domain.Environment) string {
				return cfg.Kubernetes.NamespaceFor(string(env))
			},
		})
	a.History = services.NewRevisionService(a.Revisions, a.Source, a.Validation)
	a.Trigger = services.NewTriggerService(a.Source, a.Revisions, a.Validation, a.Promotion)

	return a, nil
}

// Close releases the database pool
func (a *App) Close() {
	if a.Pool != nil {
		a.Pool.Close()
	}
}

func connect(ctx context.Context, db config.DatabaseConfig) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(db.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse db config: %w", err)
	}
	poolCfg.MaxConns = int32(db.MaxOpenConns)
	poolCfg.MinConns = int32(db.MaxIdleConns)
	poolCfg.MaxConnLifetime = db.ConnMaxLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create db pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	if err := postgres.EnsureSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	log.Info("database connection established")

	return pool, nil
}

// InitLogger configures the global logrus logger
func InitLogger(cfg config.LoggerConfig) {
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)

	if cfg.Format == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
}

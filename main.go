package main

import (
	"context"
	"database/sql"
	"log"
	"net"
	"net/http"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver for database/sql (migrations)
	"go.uber.org/zap"

	"github.com/datalith-ai/datastore-engine/pkg/config"
	"github.com/datalith-ai/datastore-engine/pkg/database"
	"github.com/datalith-ai/datastore-engine/pkg/dispatch"
	"github.com/datalith-ai/datastore-engine/pkg/handlers"
	"github.com/datalith-ai/datastore-engine/pkg/middleware"
	"github.com/datalith-ai/datastore-engine/pkg/repositories"
	"github.com/datalith-ai/datastore-engine/pkg/services"
	"github.com/datalith-ai/datastore-engine/pkg/tenant"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load(Version)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Configuration loaded",
		zap.String("env", cfg.Env),
		zap.String("root_domain", cfg.RootDomain),
		zap.String("database", cfg.Database.Host),
		zap.String("dispatcher", cfg.Dispatcher.BaseURL))

	ctx := context.Background()

	// Run migrations through database/sql; the pgx pool below is used for
	// everything else.
	migrationDB, err := sql.Open("pgx", cfg.Database.ConnectionString())
	if err != nil {
		logger.Fatal("Failed to open migration connection", zap.Error(err))
	}
	if err := database.RunMigrations(migrationDB, cfg.Database.MigrationsPath, logger); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}
	if err := migrationDB.Close(); err != nil {
		logger.Warn("Failed to close migration connection", zap.Error(err))
	}

	db, err := database.NewConnection(ctx, &database.Config{
		URL:            cfg.Database.ConnectionString(),
		MaxConnections: cfg.Database.MaxConnections,
	})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := database.NewRedisClient(&cfg.Redis)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	if redisClient == nil {
		logger.Info("Redis not configured, datastore cache disabled")
	}

	datastoreRepo := repositories.NewCachedDatastoreRepository(
		repositories.NewDatastoreRepository(db),
		redisClient,
		time.Duration(cfg.Redis.TTLSeconds)*time.Second,
		logger,
	)
	datasourceRepo := repositories.NewDatasourceRepository(db)

	dispatcher := dispatch.NewClient(
		cfg.Dispatcher.BaseURL,
		cfg.Dispatcher.ServiceToken,
		time.Duration(cfg.Dispatcher.TimeoutSeconds)*time.Second,
		logger,
	)

	updateService := services.NewDatasourceUpdateService(
		tenant.NewResolver(cfg.RootDomain),
		datastoreRepo,
		datasourceRepo,
		dispatcher,
		logger,
	)

	mux := http.NewServeMux()

	healthHandler := handlers.NewHealthHandler(cfg, logger)
	healthHandler.RegisterRoutes(mux)

	updateHandler := handlers.NewUpdateHandler(updateService, logger)
	updateHandler.RegisterRoutes(mux)

	handler := middleware.RequestLogger(logger)(mux)

	addr := net.JoinHostPort(cfg.BindAddr, cfg.Port)
	logger.Info("Starting datastore-engine",
		zap.String("addr", addr),
		zap.String("version", cfg.Version))
	if err := http.ListenAndServe(addr, handler); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}

// newLogger builds a development logger locally and a production logger
// everywhere else.
func newLogger(env string) (*zap.Logger, error) {
	if env == "local" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

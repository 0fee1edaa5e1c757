package main

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"vaultapi/internal/config"
	"vaultapi/internal/database"
	"vaultapi/internal/database/migration"
	handlers "vaultapi/internal/http/handler"
	"vaultapi/internal/http/middleware"
	"vaultapi/internal/otel"
	"vaultapi/internal/repository/postgres"
	"vaultapi/internal/service"
	"vaultapi/internal/storage"
)

func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()
	loc := time.UTC
	ctx := context.Background()

	// Initialize tracing; degrades to noop when the collector is unreachable
	shutdownTracing, err := otel.Init(ctx, loc)
	if err != nil {
		log.Fatalf("failed to initialize tracing: %v", err)
	}
	defer shutdownTracing(context.Background())

	// Initialize PostgreSQL connection (with pooling via database/sql)
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, loc, cfg.Database.Host); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	// Initialize reusable S3-compatible object storage client (MinIO-supported)
	blobStore, err := storage.NewMinIO(cfg.MinIO)
	if err != nil {
		log.Fatalf("failed to initialize object storage: %v", err)
	}

	// Initialize repositories and services
	fileRepo := postgres.NewFilePostgres(db)
	versionRepo := postgres.NewVersionPostgres(db)
	auditRepo := postgres.NewAuditPostgres(db)
	userDir := postgres.NewUserPostgres(db)

	policy := service.NewAccessPolicy(userDir)
	vaultSvc := service.NewVaultService(blobStore, fileRepo, versionRepo, auditRepo, policy, service.VaultOptions{
		URLTTL:            time.Duration(cfg.Vault.SignedURLTTLSec) * time.Second,
		MaxArchiveEntries: cfg.Vault.MaxArchiveEntries,
		MaxArchiveBytes:   cfg.Vault.MaxArchiveBytes,
	})

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
		BodyLimit:    int(cfg.Vault.MaxUploadBytes),
	})

	// Register global middleware
	// RequestID middleware adds/propagates X-Request-ID and stores it in context
	app.Use(middleware.RequestID())
	// JSON Logger middleware for structured request logs
	app.Use(middleware.Logger())

	promMiddleware, err := middleware.NewPrometheusMiddleware(prometheus.DefaultRegisterer)
	if err != nil {
		log.Fatalf("failed to register prometheus metrics: %v", err)
	}
	app.Use(promMiddleware.Handler())
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Register HTTP routes with injected service
	handlers.RegisterRoutes(app, db, vaultSvc, cfg.Auth.JWTSecret)

	addr := ":" + cfg.Port

	if err := app.Listen(addr); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}

package main

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"docgate/docs"
	"docgate/internal/authz"
	"docgate/internal/config"
	"docgate/internal/database"
	"docgate/internal/database/migration"
	handlers "docgate/internal/http/handler"
	"docgate/internal/http/middleware"
	"docgate/internal/logging"
	"docgate/internal/otel"
	"docgate/internal/repository/postgres"
	"docgate/internal/resolver"
	"docgate/internal/service"
	"docgate/internal/storage"
)

// @title Document Access Gateway
// @version 1.0
// @BasePath /
func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()

	shutdownTracing, err := otel.Init(ctx, logger)
	if err != nil {
		log.Fatalf("failed to initialize tracing: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Error("tracing_shutdown_failed", "error", err)
		}
	}()

	// Initialize PostgreSQL registry connection (with pooling via database/sql)
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := migration.EnsureMigrated(ctx, db, logger); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	// Upstream handle issuer signs with the cached service credential.
	creds := storage.NewCredentialCache(storage.StaticSource{
		AccessKeyID:     cfg.MinIO.AccessKey,
		SecretAccessKey: cfg.MinIO.SecretKey,
		SessionToken:    cfg.MinIO.SessionToken,
	}, cfg.MinIO.RefreshSkew)

	issuer, err := storage.NewMinIO(cfg.MinIO, cfg.Handle, creds, logger)
	if err != nil {
		log.Fatalf("failed to initialize object storage: %v", err)
	}

	registry := postgres.NewRegistryPostgres(db)
	authorizer := authz.New(logger, authz.DefaultRules(registry)...)
	docResolver := resolver.New(registry)
	handleSvc := service.NewHandleService(authorizer, docResolver, issuer, registry)

	verifier := middleware.NewTokenVerifier(cfg.Auth.JWTSecret, cfg.Auth.Issuer)

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler(),
	})

	// Register global middleware. Correlation runs before the logger so every
	// request line carries the id.
	app.Use(otelfiber.Middleware())
	app.Use(middleware.Correlation())
	app.Use(middleware.Logger(logger))

	promMiddleware, err := middleware.NewPrometheusMiddleware(prometheus.DefaultRegisterer)
	if err != nil {
		log.Fatalf("failed to register metrics: %v", err)
	}
	app.Use(promMiddleware.Handler())
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Register HTTP routes with injected service
	handlers.RegisterRoutes(app, db, verifier, handleSvc)

	// Swagger UI with dynamic host and scheme
	app.Get("/swagger/*", func(c *fiber.Ctx) error {
		scheme := c.Protocol()
		if proto := c.Get("X-Forwarded-Proto"); proto != "" {
			scheme = strings.Split(proto, ",")[0]
		}

		docs.SwaggerInfo.Host = c.Get("Host")
		docs.SwaggerInfo.Schemes = []string{scheme}

		return swagger.HandlerDefault(c)
	})

	addr := ":" + cfg.Port
	logger.Info("server_starting", "addr", addr)

	if err := app.Listen(addr); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}

package main

import (
	"context"
	"errors"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fekuna/omnipos-catalog-ingest/config"
	brandRepoPkg "github.com/fekuna/omnipos-catalog-ingest/internal/brand/repository"
	catalogH "github.com/fekuna/omnipos-catalog-ingest/internal/catalog/handler"
	catalogUCPkg "github.com/fekuna/omnipos-catalog-ingest/internal/catalog/usecase"
	"github.com/fekuna/omnipos-catalog-ingest/internal/pkg/cache"
	"github.com/fekuna/omnipos-catalog-ingest/internal/pkg/logger"
	"github.com/fekuna/omnipos-catalog-ingest/internal/pkg/metrics"
	"github.com/fekuna/omnipos-catalog-ingest/internal/pkg/postgres"
	prodRepoPkg "github.com/fekuna/omnipos-catalog-ingest/internal/product/repository"
	websiteRepoPkg "github.com/fekuna/omnipos-catalog-ingest/internal/website/repository"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

const shutdownTimeout = 10 * time.Second

func main() {
	runMigrations := flag.Bool("migrate", false, "apply schema migrations before serving")
	flag.Parse()

	// 1. Load Configuration
	_ = godotenv.Load()
	cfg := config.LoadEnv()

	// 2. Initialize Logger
	appLogger := logger.NewZapLogger(&logger.ZapLoggerConfig{
		IsDevelopment:     cfg.Server.AppEnv == "dev" || cfg.Server.AppEnv == "development",
		Encoding:          cfg.Logger.Encoding,
		Level:             cfg.Logger.Level,
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	})
	defer appLogger.Sync()

	// 3. Connect to Database
	db, err := postgres.NewPostgres(&postgres.Config{
		Host:            cfg.Postgres.Host,
		Port:            cfg.Postgres.Port,
		User:            cfg.Postgres.User,
		Password:        cfg.Postgres.Password,
		DBName:          cfg.Postgres.DBName,
		SSLMode:         cfg.Postgres.SSLMode,
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Postgres.ConnMaxLifetime) * time.Second,
		ConnMaxIdleTime: time.Duration(cfg.Postgres.ConnMaxIdleTime) * time.Second,
	})
	if err != nil {
		appLogger.Fatal("Could not connect to database", zap.Error(err))
	}
	defer db.Close()
	appLogger.Info("Connected to PostgreSQL database", zap.String("db_name", cfg.Postgres.DBName))

	if *runMigrations {
		applied, err := postgres.Migrate(db)
		if err != nil {
			appLogger.Fatal("Could not migrate database", zap.Error(err))
		}
		appLogger.Info("Schema migrations checked", zap.Bool("applied", applied))
	}

	// 4. Initialize Redis (optional)
	var redisClient *cache.RedisClient
	if cfg.Redis.Addr != "" {
		redisClient, err = cache.NewRedisClient(&cache.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			appLogger.Warn("Could not connect to Redis, serving without cache", zap.Error(err))
			redisClient = nil
		} else {
			defer redisClient.Close()
			appLogger.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr))
		}
	}

	// 5. Initialize UseCases and Handlers
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.New(registry)

	catalogUC := catalogUCPkg.NewCatalogUseCase(
		websiteRepoPkg.NewPGRepository(db),
		brandRepoPkg.NewPGRepository(db),
		prodRepoPkg.NewPGRepository(db),
		redisClient,
		cfg.Redis.TTL,
		appMetrics,
		appLogger,
	)

	if cfg.Server.AppEnv != "dev" && cfg.Server.AppEnv != "development" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), appMetrics.Middleware(), requestLogger(appLogger))
	router.GET("/metrics", gin.WrapH(metrics.Handler(registry)))
	catalogH.NewCatalogHandler(catalogUC, appLogger).Register(router)

	httpServer := &http.Server{
		Addr:              listenAddr(cfg.Server.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	// 6. gRPC health and reflection
	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	reflection.Register(grpcServer)

	lis, err := net.Listen("tcp", listenAddr(cfg.Server.GRPCPort))
	if err != nil {
		appLogger.Fatal("failed to listen", zap.Error(err))
	}

	// 7. Serve until a signal arrives
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		appLogger.Info("Starting HTTP server", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		appLogger.Info("Starting gRPC server", zap.String("addr", lis.Addr().String()))
		return grpcServer.Serve(lis)
	})
	g.Go(func() error {
		return watchDatabase(gctx, db.PingContext, healthServer, appLogger)
	})
	g.Go(func() error {
		<-gctx.Done()
		appLogger.Info("Shutting down servers...")
		healthServer.Shutdown()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := httpServer.Shutdown(shutdownCtx)
		grpcServer.GracefulStop()
		return err
	})

	if err := g.Wait(); err != nil {
		appLogger.Error("Server stopped with error", zap.Error(err))
		return
	}
	appLogger.Info("Server stopped")
}

func listenAddr(port string) string {
	if !strings.Contains(port, ":") {
		return ":" + port
	}
	return port
}

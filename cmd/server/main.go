package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/reflection"

	grpcadapter "github.com/simaogato/taxline-backend/internal/adapter/grpc"
	"github.com/simaogato/taxline-backend/internal/adapter/repository/postgres"
	"github.com/simaogato/taxline-backend/internal/config"
	"github.com/simaogato/taxline-backend/internal/observability/metrics"
	"github.com/simaogato/taxline-backend/internal/usecase/pricing"
	"github.com/simaogato/taxline-backend/internal/usecase/seeder"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to config file (yaml, toml or json)")
	flag.Parse()

	// 1. Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(cfg.Log.Level)}))
	slog.SetDefault(logger)

	// 2. Setup Database
	ctx := context.Background()
	db, err := postgres.NewDB(ctx, cfg.Database.Source)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// 3. Initialize Repositories (Postgres)
	currencyRepo := postgres.NewCurrencyRepository(db)
	lineItemRepo := postgres.NewLineItemRepository(db)

	// Ensure the currency precision table matches the configuration
	if err := seeder.NewCurrencySeeder(currencyRepo, cfg.Currencies).Seed(ctx); err != nil {
		logger.Error("failed to seed currencies", "error", err)
		os.Exit(1)
	}
	logger.Info("currencies seeded", "count", len(cfg.Currencies))

	// 4. Initialize Services (Use Cases)
	metrics.Init()
	pricingService := pricing.NewPricingService(currencyRepo, lineItemRepo, logger)

	// 5. Start metrics endpoint
	metricsServer := &http.Server{
		Addr:              cfg.Server.MetricsAddr,
		Handler:           metricsMux(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("metrics server listening", "addr", cfg.Server.MetricsAddr)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "error", err)
		}
	}()

	// 6. Start gRPC Server
	grpcServer := grpclib.NewServer(
		grpclib.ChainUnaryInterceptor(
			grpcadapter.LoggingInterceptor(logger),
			grpcadapter.AuthInterceptor(cfg.Auth.APIToken),
		),
	)
	grpcadapter.RegisterLinePricingServiceServer(grpcServer, grpcadapter.NewServer(pricingService))
	reflection.Register(grpcServer)

	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		logger.Error("failed to listen", "addr", cfg.Server.GRPCAddr, "error", err)
		os.Exit(1)
	}

	go func() {
		logger.Info("gRPC server listening", "addr", cfg.Server.GRPCAddr)
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error("gRPC server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	waitForShutdown(logger, grpcServer, metricsServer)
}

func metricsMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// waitForShutdown waits for SIGTERM or SIGINT and gracefully shuts down both servers
func waitForShutdown(logger *slog.Logger, grpcServer *grpclib.Server, metricsServer *http.Server) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	sig := <-sigChan
	logger.Info("shutting down gracefully", "signal", sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := metricsServer.Shutdown(ctx); err != nil {
		logger.Warn("metrics server shutdown", "error", err)
	}

	grpcServer.GracefulStop()
	logger.Info("gRPC server stopped")
}

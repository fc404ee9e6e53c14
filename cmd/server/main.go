package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	api "parkease-backend/internal/api/grpc"
	httpapi "parkease-backend/internal/api/http"
	"parkease-backend/internal/app"
	"parkease-backend/internal/config"
	"parkease-backend/internal/jobs"
	"parkease-backend/internal/logger"
	"parkease-backend/internal/scheduler"
	"parkease-backend/internal/security"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	app.ConfigureLogging(cfg)
	logger.Info("Starting ParkEase Backend...", "environment", cfg.Server.Environment, "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize Database
	store, err := app.OpenStore(ctx, cfg)
	if err != nil {
		logger.Error("Failed to open store", "error", err)
		log.Fatalf("Failed to open store: %v", err)
	}
	defer store.Close()

	// Initialize Services
	notifier, err := app.NewNotifier(ctx, cfg)
	if err != nil {
		logger.Error("Failed to initialize notifications", "error", err)
		log.Fatalf("Failed to initialize notifications: %v", err)
	}
	svc := app.NewServices(store, notifier, cfg)

	// Initialize Security
	identities, err := security.NewIdentityProvider(cfg)
	if err != nil {
		logger.Error("Failed to initialize identity provider", "error", err)
		log.Fatalf("Failed to initialize identity provider: %v", err)
	}

	// Set up HTTP server
	router := httpapi.NewRouter(httpapi.NewHandler(svc.Resources, svc.Bookings, store), identities)
	httpServer := &http.Server{
		Addr:              cfg.GetHTTPAddress(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 2)
	go func() {
		logger.Info("HTTP server listening", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	// Set up gRPC server
	var grpcServer *api.Server
	if addr := cfg.GetGRPCAddress(); addr != "" {
		lis, err := net.Listen("tcp", addr)
		if err != nil {
			logger.Error("Failed to listen", "error", err, "address", addr)
			log.Fatalf("Failed to listen: %v", err)
		}
		grpcServer = api.NewServer(api.NewBookingHandler(svc.Resources, svc.Bookings), identities)
		go func() {
			logger.Info("gRPC server listening", "address", addr)
			if err := grpcServer.Serve(lis); err != nil {
				serveErr <- err
			}
		}()
	}

	// Embedded scheduler
	var cronScheduler *scheduler.Scheduler
	if cfg.Scheduler.Embedded {
		runner := jobs.NewJobRunner(&jobs.Services{Booking: svc.Bookings, Notification: svc.Notifications}, cfg)
		cronScheduler, err = scheduler.NewScheduler(runner)
		if err != nil {
			log.Fatalf("Failed to create scheduler: %v", err)
		}
		cronScheduler.Start()
	}

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-serveErr:
		logger.Error("Server failed", "error", err)
	}

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout())
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown failed", "error", err)
	}
	if grpcServer != nil {
		grpcServer.Shutdown()
	}
	if cronScheduler != nil {
		cronScheduler.Stop()
	}

	done := make(chan struct{})
	go func() {
		svc.Notifications.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-shutdownCtx.Done():
		logger.Warn("Gave up waiting for notification deliveries; RetryNotifications will resend them")
	}
	logger.Info("ParkEase Backend stopped")
}

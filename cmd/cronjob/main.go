package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"parkease-backend/internal/app"
	"parkease-backend/internal/config"
	"parkease-backend/internal/jobs"
	"parkease-backend/internal/logger"
	"parkease-backend/internal/scheduler"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	runOnce := flag.String("run-once", "", "Run a specific job once and exit (e.g., 'retry-notifications', 'complete-reservations', 'all')")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.Database.Driver == config.DatabaseDriverMemory {
		log.Fatalf("The cronjob runner needs a shared database; use scheduler.embedded with the memory driver")
	}

	// Initialize logger
	app.ConfigureLogging(cfg)
	logger.Info("Starting ParkEase Cronjob Runner...", "log_level", cfg.Log.Level)

	ctx := context.Background()
	store, err := app.OpenStore(ctx, cfg)
	if err != nil {
		logger.Error("Failed to open store", "error", err)
		log.Fatalf("Failed to open store: %v", err)
	}
	defer store.Close()

	notifier, err := app.NewNotifier(ctx, cfg)
	if err != nil {
		logger.Error("Failed to initialize notifications", "error", err)
		log.Fatalf("Failed to initialize notifications: %v", err)
	}
	svc := app.NewServices(store, notifier, cfg)

	// Initialize Job Runner
	jobRunner := jobs.NewJobRunner(&jobs.Services{Booking: svc.Bookings, Notification: svc.Notifications}, cfg)

	// Check if running a single job
	if *runOnce != "" {
		logger.Info("Running job once", "job", *runOnce)
		if err := runJobOnce(jobRunner, *runOnce); err != nil {
			svc.Notifications.Wait()
			logger.Error("Job execution failed", "job", *runOnce, "error", err)
			os.Exit(1)
		}
		svc.Notifications.Wait()
		logger.Info("Job execution completed", "job", *runOnce)
		return
	}

	// Initialize Scheduler
	cronScheduler, err := scheduler.NewScheduler(jobRunner)
	if err != nil {
		log.Fatalf("Failed to create scheduler: %v", err)
	}

	// Start scheduler
	cronScheduler.Start()
	logger.Info("Cronjob scheduler is running. Press Ctrl+C to stop.")

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	// Graceful shutdown
	logger.Info("Shutting down cronjob scheduler...")
	cronScheduler.Stop()
	svc.Notifications.Wait()
	logger.Info("Cronjob scheduler stopped. Goodbye!")
}

// runJobOnce runs a specific job once
func runJobOnce(jobRunner *jobs.JobRunner, jobName string) error {
	switch jobName {
	case "retry-notifications":
		return jobRunner.RetryNotifications()
	case "complete-reservations":
		return jobRunner.CompleteElapsedReservations()
	case "all":
		return jobRunner.RunAll()
	default:
		logger.Error("Unknown job name", "job", jobName)
		fmt.Printf("Available jobs:\n")
		fmt.Printf("  - retry-notifications\n")
		fmt.Printf("  - complete-reservations\n")
		fmt.Printf("  - all\n")
		os.Exit(1)
	}
	return nil
}

// Package app assembles the store, notification channels and services
// shared by the API server and the cronjob runner.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"parkease-backend/internal/config"
	"parkease-backend/internal/domain"
	"parkease-backend/internal/logger"
	"parkease-backend/internal/repository"
	"parkease-backend/internal/repository/memory"
	"parkease-backend/internal/repository/postgres"
	"parkease-backend/internal/service"
)

// Services is the wired service layer.
type Services struct {
	Resources     service.ResourceService
	Bookings      service.BookingService
	Notifications service.NotificationService
}

// ConfigureLogging initializes the global logger and logs caller errors
// at warn level.
func ConfigureLogging(cfg *config.Config) {
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.SetErrorClassifier(classifyError)
}

func classifyError(err error) slog.Level {
	if domain.IsCallerError(err) {
		return slog.LevelWarn
	}
	return slog.LevelError
}

// OpenStore opens the configured database, applying the schema when
// database.migrate is set.
func OpenStore(ctx context.Context, cfg *config.Config) (repository.Store, error) {
	if cfg.Database.Driver == config.DatabaseDriverMemory {
		logger.WithService("store").Warn("Using in-memory store; data is lost on restart")
		return memory.NewStore(), nil
	}

	logger.Info("Connecting to database...", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database, "user", cfg.Database.User)
	store, err := postgres.Open(ctx, cfg.GetDatabaseConnectionString())
	if err != nil {
		return nil, err
	}
	if cfg.Database.Migrate {
		if err := store.Migrate(ctx); err != nil {
			store.Close()
			return nil, err
		}
		logger.Info("Database schema applied")
	}
	logger.Info("Database connection established")
	return store, nil
}

// NewNotifier builds the configured approval channels.
func NewNotifier(ctx context.Context, cfg *config.Config) (service.BookingNotifier, error) {
	n := cfg.Notification
	var channels []service.BookingNotifier
	if n.Enabled(config.ChannelLog) {
		channels = append(channels, service.NewLogNotifier())
	}
	if n.Enabled(config.ChannelEmail) {
		channels = append(channels, service.NewEmailNotifier(n.SendGrid.APIKey, n.SendGrid.FromEmail, n.SendGrid.FromName))
	}
	if n.Enabled(config.ChannelPush) {
		push, err := service.NewPushNotifier(ctx, n.Firebase.CredentialsFile, n.Firebase.ProjectID)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize push notifications: %w", err)
		}
		channels = append(channels, push)
	}
	if len(channels) == 0 {
		return nil, fmt.Errorf("no supported notification channel in %v", n.Channels)
	}
	logger.Info("Notification channels configured", "channels", n.Channels)
	if len(channels) == 1 {
		return channels[0], nil
	}
	return service.NewMultiNotifier(channels...), nil
}

// NewServices wires the service layer on top of store.
func NewServices(store repository.Store, notifier service.BookingNotifier, cfg *config.Config) *Services {
	notifications := service.NewNotificationService(
		store.ResourceRepository(),
		store.ReservationRepository(),
		store.ContactRepository(),
		notifier,
		cfg.Notification.DispatchTimeout(),
	)
	return &Services{
		Resources:     service.NewResourceService(store.ResourceRepository(), store.ReservationRepository()),
		Bookings:      service.NewBookingService(store.ResourceRepository(), store.ReservationRepository(), notifications),
		Notifications: notifications,
	}
}

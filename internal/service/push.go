package service

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"parkease-backend/internal/domain"
	"parkease-backend/internal/logger"
)

// pushSender is the part of *messaging.Client the notifier uses.
type pushSender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// PushNotifier delivers notices through Firebase Cloud Messaging.
type PushNotifier struct {
	client pushSender
}

// NewPushNotifier builds an FCM client from a service account file. An
// empty path uses Application Default Credentials.
func NewPushNotifier(ctx context.Context, credentialsFile, projectID string) (*PushNotifier, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	var cfg *firebase.Config
	if projectID != "" {
		cfg = &firebase.Config{ProjectID: projectID}
	}
	app, err := firebase.NewApp(ctx, cfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase messaging: %w", err)
	}
	logger.WithService("fcm").Info("Push channel ready", "project_id", projectID)
	return &PushNotifier{client: client}, nil
}

func (n *PushNotifier) NotifyBookingApproved(ctx context.Context, contact domain.Contact, rsv domain.Reservation, res domain.Resource) error {
	if contact.PushToken == "" {
		return fmt.Errorf("push: %w", errNoAddress)
	}
	notice := buildApprovalNotice(contact, rsv, res)

	logger.ExternalServiceCall("fcm", "send", "reservationID", rsv.ID)
	_, err := n.client.Send(ctx, &messaging.Message{
		Token: contact.PushToken,
		Notification: &messaging.Notification{
			Title: notice.Title,
			Body:  fmt.Sprintf("%s, %d hour(s) from %s", res.Location.Address, rsv.DurationHours, rsv.StartTime.Format(noticeTimeLayout)),
		},
		Data: notice.Data,
	})
	logger.ExternalServiceResult("fcm", "send", err, "reservationID", rsv.ID)
	if err != nil {
		return fmt.Errorf("failed to send push notification: %w", err)
	}
	return nil
}

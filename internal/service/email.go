package service

import (
	"context"
	"fmt"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"parkease-backend/internal/domain"
	"parkease-backend/internal/logger"
)

// mailSender is the part of *sendgrid.Client the notifier uses.
type mailSender interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

type EmailNotifier struct {
	client    mailSender
	fromEmail string
	fromName  string
}

func NewEmailNotifier(apiKey, fromEmail, fromName string) *EmailNotifier {
	return &EmailNotifier{
		client:    sendgrid.NewSendClient(apiKey),
		fromEmail: fromEmail,
		fromName:  fromName,
	}
}

func (n *EmailNotifier) NotifyBookingApproved(ctx context.Context, contact domain.Contact, rsv domain.Reservation, res domain.Resource) error {
	if contact.Email == "" {
		return fmt.Errorf("email: %w", errNoAddress)
	}
	notice := buildApprovalNotice(contact, rsv, res)

	from := mail.NewEmail(n.fromName, n.fromEmail)
	to := mail.NewEmail(contact.Name, contact.Email)
	message := mail.NewSingleEmail(from, notice.Title, to, notice.Text, notice.HTML)

	logger.ExternalServiceCall("sendgrid", "send", "reservationID", rsv.ID)
	response, err := n.client.SendWithContext(ctx, message)
	if err == nil && response.StatusCode >= 400 {
		err = fmt.Errorf("sendgrid error: status %d, body: %s", response.StatusCode, response.Body)
	}
	logger.ExternalServiceResult("sendgrid", "send", err, "reservationID", rsv.ID)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"parkease-backend/internal/domain"
	"parkease-backend/internal/logger"
	"parkease-backend/internal/utils"
)

var errNoAddress = errors.New("contact has no address for this channel")

// approvalNotice is the channel-independent content of an approval message.
type approvalNotice struct {
	Title string
	Text  string
	HTML  string
	Data  map[string]string
}

const noticeTimeLayout = "Mon, 02 Jan 2006 15:04 MST"

func buildApprovalNotice(contact domain.Contact, rsv domain.Reservation, res domain.Resource) approvalNotice {
	place := res.Name
	if place == "" {
		place = "your parking spot"
	}
	greeting := "Hello"
	if contact.Name != "" {
		greeting = "Hello " + contact.Name
	}
	price := fmt.Sprintf("%.2f", utils.AmountFromCents(rsv.TotalPriceCents))

	var text strings.Builder
	fmt.Fprintf(&text, "%s,\n\nYour booking at %s has been approved.\n\n", greeting, place)
	fmt.Fprintf(&text, "Address: %s\n", res.Location.Address)
	fmt.Fprintf(&text, "From: %s\n", rsv.StartTime.Format(noticeTimeLayout))
	fmt.Fprintf(&text, "To: %s\n", rsv.EndTime.Format(noticeTimeLayout))
	fmt.Fprintf(&text, "Duration: %d hour(s)\n", rsv.DurationHours)
	fmt.Fprintf(&text, "Total: %s\n", price)
	fmt.Fprintf(&text, "Vehicle: %s (%s)\n", rsv.Vehicle.PlateNumber, rsv.Vehicle.VehicleType)
	if rsv.Comment != "" {
		fmt.Fprintf(&text, "Note from the owner: %s\n", rsv.Comment)
	}
	fmt.Fprintf(&text, "\nBooking reference: %s\n\nThe ParkEase Team", rsv.ID)

	html := fmt.Sprintf(`<html><body>
<h2>Booking approved</h2>
<p>%s, your booking at <strong>%s</strong> has been approved.</p>
<table>
<tr><td>Address</td><td>%s</td></tr>
<tr><td>From</td><td>%s</td></tr>
<tr><td>To</td><td>%s</td></tr>
<tr><td>Duration</td><td>%d hour(s)</td></tr>
<tr><td>Total</td><td>%s</td></tr>
<tr><td>Vehicle</td><td>%s (%s)</td></tr>
</table>
<p>Booking reference: %s</p>
</body></html>`,
		greeting, place, res.Location.Address,
		rsv.StartTime.Format(noticeTimeLayout), rsv.EndTime.Format(noticeTimeLayout),
		rsv.DurationHours, price, rsv.Vehicle.PlateNumber, rsv.Vehicle.VehicleType, rsv.ID)

	return approvalNotice{
		Title: fmt.Sprintf("Booking approved: %s", place),
		Text:  text.String(),
		HTML:  html,
		Data: map[string]string{
			"type":           "BOOKING_APPROVED",
			"reservation_id": rsv.ID,
			"resource_id":    res.ID,
		},
	}
}

// LogNotifier writes notices to the log. It is the development channel.
type LogNotifier struct{}

func NewLogNotifier() *LogNotifier { return &LogNotifier{} }

func (n *LogNotifier) NotifyBookingApproved(ctx context.Context, contact domain.Contact, rsv domain.Reservation, res domain.Resource) error {
	notice := buildApprovalNotice(contact, rsv, res)
	logger.InfoContext(ctx, "Booking approved notice", "to", contact.UserID, "title", notice.Title, "reservationID", rsv.ID)
	return nil
}

// MultiNotifier fans a notice out to every channel. It succeeds when at
// least one channel delivers.
type MultiNotifier struct {
	channels []BookingNotifier
}

func NewMultiNotifier(channels ...BookingNotifier) *MultiNotifier {
	return &MultiNotifier{channels: channels}
}

func (m *MultiNotifier) NotifyBookingApproved(ctx context.Context, contact domain.Contact, rsv domain.Reservation, res domain.Resource) error {
	if len(m.channels) == 0 {
		return errors.New("no notification channels configured")
	}
	var errs []error
	delivered := false
	for _, ch := range m.channels {
		if err := ch.NotifyBookingApproved(ctx, contact, rsv, res); err != nil {
			errs = append(errs, err)
			continue
		}
		delivered = true
	}
	if delivered {
		if len(errs) > 0 {
			logger.Warn("Some notification channels failed", "reservationID", rsv.ID, "error", errors.Join(errs...))
		}
		return nil
	}
	return errors.Join(errs...)
}

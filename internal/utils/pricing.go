package utils

import (
	"fmt"
	"math"
	"time"

	"parkease-backend/internal/domain"
)

// BillableHours returns the whole hours charged for [start, end): the
// elapsed time rounded up, so a 61 minute stay bills as two hours.
func BillableHours(start, end time.Time) (int, error) {
	if start.IsZero() || end.IsZero() {
		return 0, fmt.Errorf("%w: start and end time are required", domain.ErrValidation)
	}
	if !end.After(start) {
		return 0, domain.ErrInvalidWindow
	}
	return int(math.Ceil(end.Sub(start).Hours())), nil
}

// ReservationCost prices a window at the resource's hourly rate.
func ReservationCost(start, end time.Time, pricePerHourCents int64) (hours int, totalCents int64, err error) {
	hours, err = BillableHours(start, end)
	if err != nil {
		return 0, 0, err
	}
	return hours, int64(hours) * pricePerHourCents, nil
}

// CentsFromAmount converts a decimal currency amount to cents, rounding to
// the nearest cent.
func CentsFromAmount(amount float64) (int64, error) {
	if amount < 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0, fmt.Errorf("%w: amount must be a non-negative number", domain.ErrValidation)
	}
	return int64(math.Round(amount * 100)), nil
}

// AmountFromCents is the inverse of CentsFromAmount.
func AmountFromCents(cents int64) float64 {
	return float64(cents) / 100
}

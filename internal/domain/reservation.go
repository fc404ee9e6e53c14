package domain

import (
	"fmt"
	"strings"
	"time"
)

type ReservationStatus string

const (
	ReservationStatusPending   ReservationStatus = "pending"
	ReservationStatusApproved  ReservationStatus = "approved"
	ReservationStatusRejected  ReservationStatus = "rejected"
	ReservationStatusActive    ReservationStatus = "active"
	ReservationStatusCompleted ReservationStatus = "completed"
	ReservationStatusCancelled ReservationStatus = "cancelled"
)

// ParseReservationStatus accepts only the values a caller may request or
// filter by. Unknown values yield ErrInvalidStatus.
func ParseReservationStatus(s string) (ReservationStatus, error) {
	switch st := ReservationStatus(strings.ToLower(strings.TrimSpace(s))); st {
	case ReservationStatusPending, ReservationStatusApproved, ReservationStatusRejected,
		ReservationStatusActive, ReservationStatusCompleted, ReservationStatusCancelled:
		return st, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

// IsTerminal reports whether no further transition is possible.
func (s ReservationStatus) IsTerminal() bool {
	switch s {
	case ReservationStatusRejected, ReservationStatusCompleted, ReservationStatusCancelled:
		return true
	}
	return false
}

// HoldsSpot reports whether a reservation in this status consumes one unit
// of its resource's availability.
func (s ReservationStatus) HoldsSpot() bool {
	return s == ReservationStatusApproved || s == ReservationStatusActive
}

// Reservation is a driver's booking of one spot on a Resource.
type Reservation struct {
	ID              string            `json:"id"`
	SubjectID       string            `json:"subject_id"`
	ResourceID      string            `json:"resource_id"`
	StartTime       time.Time         `json:"start_time"`
	EndTime         time.Time         `json:"end_time"`
	DurationHours   int               `json:"duration_hours"`
	TotalPriceCents int64             `json:"total_price_cents"`
	Vehicle         Vehicle           `json:"vehicle"`
	Status          ReservationStatus `json:"status"`
	Comment         string            `json:"comment"`
	Notified        bool              `json:"notified"`
	CreatedOn       time.Time         `json:"created_on"`
	UpdatedOn       time.Time         `json:"updated_on"`
}

// ReservationRequest is a validated booking request from a driver.
type ReservationRequest struct {
	ResourceID string
	StartTime  time.Time
	EndTime    time.Time
	Vehicle    Vehicle
}

// Transition is one atomic step applied by the store: a compare-and-set of
// the reservation status from From to To together with a SpotDelta
// adjustment of the resource's available spots.
//
// SpotDelta -1 must fail with ErrNoAvailability unless available_spots > 0.
// SpotDelta +1 is clamped at total_spots. A status that no longer equals
// From fails with ErrStaleStatus and nothing is written.
type Transition struct {
	ReservationID string
	ResourceID    string
	From          ReservationStatus
	To            ReservationStatus
	Comment       *string
	SpotDelta     int
}

// ActorRole says which party may request a transition.
type ActorRole int

const (
	ActorOwner ActorRole = iota + 1
	ActorSubject
	ActorSystem
)

type transitionRule struct {
	actor     ActorRole
	spotDelta int
}

// transitionTable is the reservation state machine. Missing entries are
// invalid transitions.
var transitionTable = map[ReservationStatus]map[ReservationStatus]transitionRule{
	ReservationStatusPending: {
		ReservationStatusApproved:  {actor: ActorOwner, spotDelta: -1},
		ReservationStatusRejected:  {actor: ActorOwner},
		ReservationStatusCancelled: {actor: ActorSubject},
	},
	ReservationStatusApproved: {
		ReservationStatusActive: {actor: ActorOwner},
		// A completed booking releases its spot exactly once, whether or
		// not it passed through active.
		ReservationStatusCompleted: {actor: ActorOwner, spotDelta: +1},
		ReservationStatusRejected:  {actor: ActorOwner, spotDelta: +1},
		ReservationStatusCancelled: {actor: ActorSubject, spotDelta: +1},
	},
	ReservationStatusActive: {
		ReservationStatusCompleted: {actor: ActorOwner, spotDelta: +1},
	},
}

// PlanTransition looks up from→to in the state machine and returns the
// party allowed to perform it and the availability adjustment it implies.
func PlanTransition(from, to ReservationStatus) (ActorRole, int, error) {
	rule, ok := transitionTable[from][to]
	if !ok {
		return 0, 0, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return rule.actor, rule.spotDelta, nil
}

// RequiredActor returns who may move a reservation into the target status,
// independent of the current status. Cancellation belongs to the subject;
// everything else belongs to the resource owner.
func RequiredActor(to ReservationStatus) ActorRole {
	if to == ReservationStatusCancelled {
		return ActorSubject
	}
	return ActorOwner
}

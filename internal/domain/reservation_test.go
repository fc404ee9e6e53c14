package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlanTransition(t *testing.T) {
	tests := []struct {
		from, to  ReservationStatus
		actor     ActorRole
		spotDelta int
	}{
		{ReservationStatusPending, ReservationStatusApproved, ActorOwner, -1},
		{ReservationStatusPending, ReservationStatusRejected, ActorOwner, 0},
		{ReservationStatusPending, ReservationStatusCancelled, ActorSubject, 0},
		{ReservationStatusApproved, ReservationStatusActive, ActorOwner, 0},
		{ReservationStatusApproved, ReservationStatusRejected, ActorOwner, 1},
		{ReservationStatusApproved, ReservationStatusCancelled, ActorSubject, 1},
		{ReservationStatusApproved, ReservationStatusCompleted, ActorOwner, 1},
		{ReservationStatusActive, ReservationStatusCompleted, ActorOwner, 1},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			actor, delta, err := PlanTransition(tt.from, tt.to)
			assert.NoError(t, err)
			assert.Equal(t, tt.actor, actor)
			assert.Equal(t, tt.spotDelta, delta)
		})
	}
}

func TestPlanTransition_Invalid(t *testing.T) {
	all := []ReservationStatus{
		ReservationStatusPending, ReservationStatusApproved, ReservationStatusRejected,
		ReservationStatusActive, ReservationStatusCompleted, ReservationStatusCancelled,
	}

	t.Run("terminal states have no exits", func(t *testing.T) {
		for _, from := range all {
			if !from.IsTerminal() {
				continue
			}
			for _, to := range all {
				_, _, err := PlanTransition(from, to)
				assert.ErrorIs(t, err, ErrInvalidTransition, "%s -> %s", from, to)
			}
		}
	})

	t.Run("skipping approval", func(t *testing.T) {
		_, _, err := PlanTransition(ReservationStatusPending, ReservationStatusActive)
		assert.ErrorIs(t, err, ErrInvalidTransition)
		_, _, err = PlanTransition(ReservationStatusPending, ReservationStatusCompleted)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("active cannot be cancelled", func(t *testing.T) {
		_, _, err := PlanTransition(ReservationStatusActive, ReservationStatusCancelled)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})
}

func TestParseReservationStatus(t *testing.T) {
	s, err := ParseReservationStatus(" Approved ")
	assert.NoError(t, err)
	assert.Equal(t, ReservationStatusApproved, s)

	_, err = ParseReservationStatus("confirmed")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestRequiredActor(t *testing.T) {
	assert.Equal(t, ActorSubject, RequiredActor(ReservationStatusCancelled))
	assert.Equal(t, ActorOwner, RequiredActor(ReservationStatusApproved))
	assert.Equal(t, ActorOwner, RequiredActor(ReservationStatusCompleted))
}

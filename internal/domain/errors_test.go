package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsCallerError(t *testing.T) {
	assert.True(t, IsCallerError(ErrReservationNotFound))
	assert.True(t, IsCallerError(fmt.Errorf("%w: name is required", ErrValidation)))
	assert.True(t, IsCallerError(ErrNoAvailability))
	assert.False(t, IsCallerError(ErrStaleStatus))
	assert.False(t, IsCallerError(errors.New("connection reset")))
	assert.False(t, IsCallerError(nil))
}

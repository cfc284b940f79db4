package statemachine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"table-reservation-api/models"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		name    string
		from    models.BookingStatus
		to      models.BookingStatus
		actor   Actor
		wantErr bool
	}{
		{"admin confirms pending", models.BookingPending, models.BookingConfirmed, ActorAdmin, false},
		{"admin completes confirmed", models.BookingConfirmed, models.BookingCompleted, ActorAdmin, false},
		{"owner cancels confirmed", models.BookingConfirmed, models.BookingCancelled, ActorOwner, false},
		{"owner cannot confirm", models.BookingPending, models.BookingConfirmed, ActorOwner, true},
		{"completed back to pending", models.BookingCompleted, models.BookingPending, ActorAdmin, true},
		{"cancelled is terminal", models.BookingCancelled, models.BookingConfirmed, ActorAdmin, true},
		{"pending straight to completed", models.BookingPending, models.BookingCompleted, ActorAdmin, true},
		{"confirmed to confirmed", models.BookingConfirmed, models.BookingConfirmed, ActorAdmin, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CanTransition(tt.from, tt.to, tt.actor)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidTransitionsFrom(t *testing.T) {
	assert.ElementsMatch(t,
		[]models.BookingStatus{models.BookingConfirmed, models.BookingCancelled},
		ValidTransitionsFrom(models.BookingPending))
	assert.ElementsMatch(t,
		[]models.BookingStatus{models.BookingCompleted, models.BookingCancelled},
		ValidTransitionsFrom(models.BookingConfirmed))
	assert.True(t, IsTerminal(models.BookingCompleted))
	assert.True(t, IsTerminal(models.BookingCancelled))
	assert.False(t, IsTerminal(models.BookingPending))
}

func TestErrorDescribesTerminalState(t *testing.T) {
	err := CanTransition(models.BookingCompleted, models.BookingPending, ActorAdmin)
	assert.ErrorContains(t, err, "none (terminal state)")
}

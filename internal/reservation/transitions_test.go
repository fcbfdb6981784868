package reservation

import (
	"testing"

	"campus-cafeteria/internal/apperr"
	"campus-cafeteria/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestTransition(t *testing.T) {
	owner := Actor{Role: models.RoleStudent, Owner: true}
	stranger := Actor{Role: models.RoleStudent}
	admin := Actor{Role: models.RoleAdmin}

	tests := []struct {
		name    string
		current models.ReservationStatus
		action  Action
		actor   Actor
		target  models.ReservationStatus
		want    models.ReservationStatus
		wantErr error
	}{
		{"owner cancels pending", models.ReservationPending, ActionCancel, owner, "", models.ReservationCancelled, nil},
		{"admin cancels confirmed", models.ReservationConfirmed, ActionCancel, admin, "", models.ReservationCancelled, nil},
		{"stranger cannot cancel", models.ReservationPending, ActionCancel, stranger, "", "", apperr.ErrAuthorization},
		{"cannot cancel completed", models.ReservationCompleted, ActionCancel, owner, "", "", apperr.ErrInvalidState},
		{"cannot cancel twice", models.ReservationCancelled, ActionCancel, admin, "", "", apperr.ErrInvalidState},

		{"admin confirms", models.ReservationPending, ActionSetStatus, admin, models.ReservationConfirmed, models.ReservationConfirmed, nil},
		{"admin completes", models.ReservationConfirmed, ActionSetStatus, admin, models.ReservationCompleted, models.ReservationCompleted, nil},
		{"admin keeps terminal status", models.ReservationCompleted, ActionSetStatus, admin, models.ReservationCompleted, models.ReservationCompleted, nil},
		{"owner cannot set status", models.ReservationPending, ActionSetStatus, owner, models.ReservationConfirmed, "", apperr.ErrAuthorization},
		{"unknown target", models.ReservationPending, ActionSetStatus, admin, "seated", "", apperr.ErrValidation},
		{"completed is terminal", models.ReservationCompleted, ActionSetStatus, admin, models.ReservationPending, "", apperr.ErrInvalidState},
		{"cancelled is terminal", models.ReservationCancelled, ActionSetStatus, admin, models.ReservationConfirmed, "", apperr.ErrInvalidState},

		{"unknown action", models.ReservationPending, Action("move"), admin, "", "", apperr.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Transition(tt.current, tt.action, tt.actor, tt.target)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

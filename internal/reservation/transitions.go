package reservation

import (
	"campus-cafeteria/internal/apperr"
	"campus-cafeteria/internal/models"
)

type Action string

const (
	ActionCancel    Action = "cancel"
	ActionSetStatus Action = "set-status"
)

type Actor struct {
	Role  models.Role
	Owner bool
}

func ActorFor(user *models.User, r *models.Reservation) Actor {
	return Actor{Role: user.Role, Owner: user.ID == r.UserID}
}

func Terminal(status models.ReservationStatus) bool {
	return status == models.ReservationCancelled || status == models.ReservationCompleted
}

// Transition returns the status a reservation moves to when actor applies action.
// target is only read by ActionSetStatus.
func Transition(current models.ReservationStatus, action Action, actor Actor, target models.ReservationStatus) (models.ReservationStatus, error) {
	switch action {
	case ActionCancel:
		if !actor.Owner && actor.Role != models.RoleAdmin {
			return "", apperr.Authorization("not authorized to cancel this reservation")
		}
		if !current.Active() {
			return "", apperr.InvalidState("cannot cancel a reservation that is %s", current)
		}
		return models.ReservationCancelled, nil

	case ActionSetStatus:
		if actor.Role != models.RoleAdmin {
			return "", apperr.Authorization("only admins can change the reservation status")
		}
		if !target.Valid() {
			return "", apperr.Validation("invalid reservation status %q", target)
		}
		if Terminal(current) && target != current {
			return "", apperr.InvalidState("reservation is already %s", current)
		}
		return target, nil
	}
	return "", apperr.Validation("unknown reservation action %q", action)
}

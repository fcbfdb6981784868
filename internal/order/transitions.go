package order

import (
	"campus-cafeteria/internal/apperr"
	"campus-cafeteria/internal/models"
)

type Action string

const (
	ActionPay       Action = "pay"
	ActionCancel    Action = "cancel"
	ActionSetStatus Action = "set-status"
)

// Actor is who asks for a transition, relative to the order.
type Actor struct {
	Role  models.Role
	Owner bool
}

func ActorFor(user *models.User, o *models.Order) Actor {
	return Actor{Role: user.Role, Owner: user.ID == o.UserID}
}

func Terminal(status models.OrderStatus) bool {
	return status == models.OrderDelivered || status == models.OrderCancelled
}

// Transition returns the status an order moves to when actor applies action.
// target is only read by ActionSetStatus.
//
// ActionPay confirms a pending order but leaves preparing and ready orders where
// they are, rather than always setting confirmed, so paying late never moves an
// order back out of the kitchen.
func Transition(current models.OrderStatus, action Action, actor Actor, target models.OrderStatus) (models.OrderStatus, error) {
	switch action {
	case ActionPay:
		if !actor.Owner {
			return "", apperr.Authorization("only the owner can pay this order")
		}
		if Terminal(current) {
			return "", apperr.InvalidState("cannot pay an order that is %s", current)
		}
		if current == models.OrderPending {
			return models.OrderConfirmed, nil
		}
		// already in the kitchen, paying does not move it back
		return current, nil

	case ActionCancel:
		if !actor.Owner && actor.Role != models.RoleAdmin {
			return "", apperr.Authorization("not authorized to cancel this order")
		}
		if current != models.OrderPending && current != models.OrderConfirmed {
			return "", apperr.InvalidState("cannot cancel an order that is %s", current)
		}
		return models.OrderCancelled, nil

	case ActionSetStatus:
		if actor.Role != models.RoleAdmin {
			return "", apperr.Authorization("only admins can change the order status")
		}
		if !target.Valid() {
			return "", apperr.Validation("invalid order status %q", target)
		}
		if Terminal(current) && target != current {
			return "", apperr.InvalidState("order is already %s", current)
		}
		return target, nil
	}
	return "", apperr.Validation("unknown order action %q", action)
}

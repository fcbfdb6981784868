package models

import "time"

const (
	EventOrderCreated             = "order.created"
	EventOrderStatusChanged       = "order.status_changed"
	EventOrderCancelled           = "order.cancelled"
	EventOrderPaid                = "order.paid"
	EventReservationCreated       = "reservation.created"
	EventReservationStatusChanged = "reservation.status_changed"
	EventReservationCancelled     = "reservation.cancelled"
	EventPaymentCompleted         = "payment.completed"
	EventPaymentStatusChanged     = "payment.status_changed"
	EventMenuChanged              = "menu.changed"
	EventUserRegistered           = "user.registered"
)

// AllEventTypes lists every event the service publishes; topics are created for each at startup.
var AllEventTypes = []string{
	EventOrderCreated, EventOrderStatusChanged, EventOrderCancelled, EventOrderPaid,
	EventReservationCreated, EventReservationStatusChanged, EventReservationCancelled,
	EventPaymentCompleted, EventPaymentStatusChanged,
	EventMenuChanged, EventUserRegistered,
}

type DomainEvent struct {
	Type       string      `json:"type"`
	EntityID   string      `json:"entity_id"`
	UserID     string      `json:"user_id,omitempty"`
	OccurredAt time.Time   `json:"occurred_at"`
	Data       interface{} `json:"data"`
}

func NewDomainEvent(eventType, entityID, userID string, data interface{}) DomainEvent {
	return DomainEvent{
		Type:       eventType,
		EntityID:   entityID,
		UserID:     userID,
		OccurredAt: time.Now().UTC(),
		Data:       data,
	}
}

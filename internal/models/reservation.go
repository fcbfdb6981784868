package models

import (
	"time"

	"github.com/uptrace/bun"
)

type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "pending"
	ReservationConfirmed ReservationStatus = "confirmed"
	ReservationCancelled ReservationStatus = "cancelled"
	ReservationCompleted ReservationStatus = "completed"
)

func (s ReservationStatus) Valid() bool {
	switch s {
	case ReservationPending, ReservationConfirmed, ReservationCancelled, ReservationCompleted:
		return true
	}
	return false
}

// Active reservations occupy a table in their slot.
func (s ReservationStatus) Active() bool {
	return s == ReservationPending || s == ReservationConfirmed
}

// TimeSlots are the hourly slots the cafeteria takes reservations for.
var TimeSlots = []string{
	"07:00", "08:00", "09:00", "10:00", "11:00", "12:00",
	"13:00", "14:00", "15:00", "16:00", "17:00", "18:00",
	"19:00", "20:00", "21:00",
}

func ValidTimeSlot(slot string) bool {
	for _, s := range TimeSlots {
		if s == slot {
			return true
		}
	}
	return false
}

type Reservation struct {
	bun.BaseModel `bun:"table:reservations"`

	ID                string            `bun:"id,pk" json:"id"`
	ReservationNumber string            `bun:"reservation_number,unique,notnull" json:"reservation_number"`
	UserID            string            `bun:"user_id,notnull" json:"user_id"`
	Date              time.Time         `bun:"date,notnull" json:"date"`
	TimeSlot          string            `bun:"time_slot,notnull" json:"time_slot"`
	PartySize         int               `bun:"party_size,notnull" json:"party_size"`
	Table             string            `bun:"table_label,nullzero" json:"table,omitempty"`
	Status            ReservationStatus `bun:"status,notnull" json:"status"`
	Notes             string            `bun:"notes,nullzero" json:"notes,omitempty"`
	CreatedAt         time.Time         `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt         time.Time         `bun:"updated_at,notnull" json:"updated_at"`
}

// ReservationSlot counts the active reservations of one date+slot pair.
type ReservationSlot struct {
	bun.BaseModel `bun:"table:reservation_slots"`

	SlotKey  string    `bun:"slot_key,pk" json:"slot_key"`
	Date     time.Time `bun:"date,notnull" json:"date"`
	TimeSlot string    `bun:"time_slot,notnull" json:"time_slot"`
	Active   int       `bun:"active,notnull" json:"active"`
}

type CreateReservationRequest struct {
	Date      string `json:"date" validate:"required"`
	TimeSlot  string `json:"time_slot" validate:"required"`
	PartySize int    `json:"party_size" validate:"required,min=1,max=10"`
	Notes     string `json:"notes" validate:"max=500"`
}

type UpdateReservationStatusRequest struct {
	Status ReservationStatus `json:"status" validate:"required,oneof=pending confirmed cancelled completed"`
	Table  string            `json:"table"`
}

type SlotAvailability struct {
	TimeSlot        string `json:"time_slot"`
	Available       bool   `json:"available"`
	TablesRemaining int    `json:"tables_remaining"`
}

type ReservationFilter struct {
	UserID string
	Date   *time.Time
	Status ReservationStatus
}

package db

import (
	"context"
	"fmt"
	"time"

	"campus-cafeteria/internal/apperr"
	"campus-cafeteria/internal/database"
	"campus-cafeteria/internal/models"

	"github.com/uptrace/bun"
)

type DB struct {
	Bun *bun.DB
}

// SlotKey identifies one date+slot counter, e.g. 20250314-13:00.
func SlotKey(day time.Time, timeSlot string) string {
	return day.Format("20060102") + "-" + timeSlot
}

// CreateReservation takes a table in the slot and inserts the reservation in one transaction.
// A full slot leaves both untouched and returns a capacity error.
func (d *DB) CreateReservation(ctx context.Context, r *models.Reservation, capacity int) error {
	return d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		slot := &models.ReservationSlot{
			SlotKey:  SlotKey(r.Date, r.TimeSlot),
			Date:     r.Date,
			TimeSlot: r.TimeSlot,
		}
		if _, err := tx.NewInsert().Model(slot).On("CONFLICT (slot_key) DO NOTHING").Exec(ctx); err != nil {
			return fmt.Errorf("failed to prepare slot counter: %w", err)
		}

		res, err := tx.NewUpdate().
			Model((*models.ReservationSlot)(nil)).
			Set("active = active + 1").
			Where("slot_key = ?", slot.SlotKey).
			Where("active < ?", capacity).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to take slot: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return apperr.Capacity("no tables available on %s at %s", r.Date.Format("2006-01-02"), r.TimeSlot)
		}

		_, err = tx.NewInsert().Model(r).Exec(ctx)
		if database.IsUniqueViolation(err) {
			return apperr.Conflict("reservation number %s already taken", r.ReservationNumber)
		}
		if err != nil {
			return fmt.Errorf("failed to insert reservation: %w", err)
		}
		return nil
	})
}

func (d *DB) GetReservationByID(ctx context.Context, id string) (*models.Reservation, error) {
	var r models.Reservation
	err := d.Bun.NewSelect().
		Model(&r).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if database.IsNotFound(err) {
		return nil, apperr.NotFound("reservation not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load reservation: %w", err)
	}
	return &r, nil
}

// ListReservations returns a user's reservations latest first, or, without a
// user filter, everything in calendar order.
func (d *DB) ListReservations(ctx context.Context, filter models.ReservationFilter) ([]models.Reservation, error) {
	list := make([]models.Reservation, 0)
	q := d.Bun.NewSelect().Model(&list)
	if filter.UserID != "" {
		q = q.Where("user_id = ?", filter.UserID)
	}
	if filter.Date != nil {
		q = q.Where("date >= ?", *filter.Date).
			Where("date < ?", filter.Date.AddDate(0, 0, 1))
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.UserID != "" {
		q = q.Order("date DESC", "time_slot DESC")
	} else {
		q = q.Order("date ASC", "time_slot ASC")
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list reservations: %w", err)
	}
	return list, nil
}

// UpdateReservation saves status and table only if the stored status is still previous.
// Leaving pending/confirmed gives the table back to the slot.
func (d *DB) UpdateReservation(ctx context.Context, r *models.Reservation, previous models.ReservationStatus) error {
	return d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewUpdate().
			Model(r).
			Column("status", "table_label", "updated_at").
			WherePK().
			Where("status = ?", previous).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to update reservation: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return apperr.Conflict("reservation %s was modified by another request", r.ReservationNumber)
		}

		if previous.Active() && !r.Status.Active() {
			_, err = tx.NewUpdate().
				Model((*models.ReservationSlot)(nil)).
				Set("active = active - 1").
				Where("slot_key = ?", SlotKey(r.Date, r.TimeSlot)).
				Where("active > 0").
				Exec(ctx)
			if err != nil {
				return fmt.Errorf("failed to release slot: %w", err)
			}
		}
		return nil
	})
}

// ActiveBySlot returns the active count for each slot of day; missing slots count zero.
func (d *DB) ActiveBySlot(ctx context.Context, day time.Time, timeSlots []string) (map[string]int, error) {
	keys := make([]string, 0, len(timeSlots))
	for _, slot := range timeSlots {
		keys = append(keys, SlotKey(day, slot))
	}

	var slots []models.ReservationSlot
	err := d.Bun.NewSelect().
		Model(&slots).
		Where("slot_key IN (?)", bun.In(keys)).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read slot counters: %w", err)
	}

	counts := make(map[string]int, len(timeSlots))
	for _, slot := range slots {
		counts[slot.TimeSlot] = slot.Active
	}
	return counts, nil
}

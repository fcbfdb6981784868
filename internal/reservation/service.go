package reservation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"campus-cafeteria/internal/apperr"
	"campus-cafeteria/internal/kafka"
	"campus-cafeteria/internal/logger"
	"campus-cafeteria/internal/models"
	"campus-cafeteria/internal/refnum"
	"campus-cafeteria/internal/utils"

	"github.com/google/uuid"
)

// DefaultCapacity is the number of tables the cafeteria has per time slot.
const DefaultCapacity = 20

const maxNumberAttempts = 3

type DBLayer interface {
	CreateReservation(ctx context.Context, r *models.Reservation, capacity int) error
	GetReservationByID(ctx context.Context, id string) (*models.Reservation, error)
	ListReservations(ctx context.Context, filter models.ReservationFilter) ([]models.Reservation, error)
	UpdateReservation(ctx context.Context, r *models.Reservation, previous models.ReservationStatus) error
	ActiveBySlot(ctx context.Context, day time.Time, timeSlots []string) (map[string]int, error)
}

// NumberGenerator hands out reference numbers. Random is used after a collision.
type NumberGenerator interface {
	Next(ctx context.Context, prefix string) string
	Random(prefix string) string
}

type ReservationService struct {
	DB       DBLayer
	Numbers  NumberGenerator
	Kafka    kafka.Publisher
	Logger   *logger.Logger
	Capacity int
	Location *time.Location
	now      func() time.Time
}

func NewReservationService(db DBLayer, numbers NumberGenerator, events kafka.Publisher, log *logger.Logger, capacity int, loc *time.Location) *ReservationService {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if loc == nil {
		loc = time.UTC
	}
	return &ReservationService{
		DB:       db,
		Numbers:  numbers,
		Kafka:    events,
		Logger:   log,
		Capacity: capacity,
		Location: loc,
		now:      time.Now,
	}
}

// calendarDay stores a local calendar date as midnight UTC so every backend compares it the same way.
func calendarDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDate reads a YYYY-MM-DD (or RFC3339) date as a calendar day in the cafeteria's timezone.
func (s *ReservationService) ParseDate(value string) (time.Time, error) {
	day, err := utils.ParseDay(value, s.Location)
	if err != nil {
		return time.Time{}, err
	}
	return calendarDay(day), nil
}

func (s *ReservationService) today() time.Time {
	return calendarDay(utils.StartOfDay(s.now(), s.Location))
}

func (s *ReservationService) availability(slot string, active int) models.SlotAvailability {
	remaining := s.Capacity - active
	if remaining < 0 {
		remaining = 0
	}
	return models.SlotAvailability{
		TimeSlot:        slot,
		Available:       remaining > 0,
		TablesRemaining: remaining,
	}
}

// CheckAvailability reports whether a slot still has a free table.
func (s *ReservationService) CheckAvailability(ctx context.Context, day time.Time, timeSlot string) (*models.SlotAvailability, error) {
	if !models.ValidTimeSlot(timeSlot) {
		return nil, apperr.Validation("invalid time slot %q", timeSlot)
	}
	counts, err := s.DB.ActiveBySlot(ctx, calendarDay(day), []string{timeSlot})
	if err != nil {
		return nil, err
	}
	result := s.availability(timeSlot, counts[timeSlot])
	return &result, nil
}

// DayAvailability lists every slot of the day in order.
func (s *ReservationService) DayAvailability(ctx context.Context, day time.Time) ([]models.SlotAvailability, error) {
	counts, err := s.DB.ActiveBySlot(ctx, calendarDay(day), models.TimeSlots)
	if err != nil {
		return nil, err
	}
	result := make([]models.SlotAvailability, 0, len(models.TimeSlots))
	for _, slot := range models.TimeSlots {
		result = append(result, s.availability(slot, counts[slot]))
	}
	return result, nil
}

func (s *ReservationService) CreateReservation(ctx context.Context, user *models.User, req models.CreateReservationRequest) (*models.Reservation, error) {
	if req.Date == "" || req.TimeSlot == "" || req.PartySize == 0 {
		return nil, apperr.Validation("date, time_slot and party_size are required")
	}
	if req.PartySize < 1 || req.PartySize > 10 {
		return nil, apperr.Validation("party_size must be between 1 and 10")
	}
	if !models.ValidTimeSlot(req.TimeSlot) {
		return nil, apperr.Validation("invalid time slot %q", req.TimeSlot)
	}

	day, err := s.ParseDate(req.Date)
	if err != nil {
		return nil, err
	}
	if day.Before(s.today()) {
		return nil, apperr.Validation("reservations cannot be made for past dates")
	}

	now := s.now().UTC()
	r := &models.Reservation{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		Date:      day,
		TimeSlot:  req.TimeSlot,
		PartySize: req.PartySize,
		Status:    models.ReservationPending,
		Notes:     strings.TrimSpace(req.Notes),
		CreatedAt: now,
		UpdatedAt: now,
	}

	for attempt := 1; ; attempt++ {
		if attempt == 1 {
			r.ReservationNumber = s.Numbers.Next(ctx, refnum.PrefixReservation)
		} else {
			r.ReservationNumber = s.Numbers.Random(refnum.PrefixReservation)
		}
		err = s.DB.CreateReservation(ctx, r, s.Capacity)
		if err == nil {
			break
		}
		if !errors.Is(err, apperr.ErrConflict) || attempt == maxNumberAttempts {
			if errors.Is(err, apperr.ErrCapacity) {
				s.Logger.LogReservation("SLOT_FULL", SlotLabel(day, req.TimeSlot), err.Error())
			}
			return nil, err
		}
		s.Logger.Warn("RESERVATION", fmt.Sprintf("Reservation number %s collided, retrying", r.ReservationNumber))
	}

	s.Logger.LogReservation("CREATED", r.ReservationNumber, fmt.Sprintf("user=%s slot=%s party=%d", user.ID, SlotLabel(day, r.TimeSlot), r.PartySize))
	kafka.PublishAsync(s.Kafka, s.Logger, models.NewDomainEvent(models.EventReservationCreated, r.ID, r.UserID, r))
	return r, nil
}

func SlotLabel(day time.Time, timeSlot string) string {
	return day.Format("2006-01-02") + " " + timeSlot
}

func (s *ReservationService) GetReservation(ctx context.Context, user *models.User, id string) (*models.Reservation, error) {
	r, err := s.DB.GetReservationByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.UserID != user.ID && !user.IsAdmin() {
		return nil, apperr.Authorization("not authorized to view this reservation")
	}
	return r, nil
}

func (s *ReservationService) ListUserReservations(ctx context.Context, user *models.User) ([]models.Reservation, error) {
	return s.DB.ListReservations(ctx, models.ReservationFilter{UserID: user.ID})
}

// ListAllReservations is the admin view; date is an optional YYYY-MM-DD day.
func (s *ReservationService) ListAllReservations(ctx context.Context, date string, status models.ReservationStatus) ([]models.Reservation, error) {
	filter := models.ReservationFilter{Status: status}
	if status != "" && !status.Valid() {
		return nil, apperr.Validation("invalid reservation status %q", status)
	}
	if date != "" {
		day, err := s.ParseDate(date)
		if err != nil {
			return nil, err
		}
		filter.Date = &day
	}
	return s.DB.ListReservations(ctx, filter)
}

func (s *ReservationService) apply(ctx context.Context, user *models.User, id string, action Action, target models.ReservationStatus, table string) (*models.Reservation, error) {
	r, err := s.DB.GetReservationByID(ctx, id)
	if err != nil {
		return nil, err
	}

	next, err := Transition(r.Status, action, ActorFor(user, r), target)
	if err != nil {
		return nil, err
	}

	previous := r.Status
	r.Status = next
	if table != "" {
		r.Table = table
	}
	r.UpdatedAt = s.now().UTC()
	if err := s.DB.UpdateReservation(ctx, r, previous); err != nil {
		return nil, err
	}

	s.Logger.LogReservation(strings.ToUpper(string(action)), r.ReservationNumber, fmt.Sprintf("%s -> %s by %s", previous, next, user.ID))
	return r, nil
}

// UpdateStatus is admin-only and may also assign a table label.
func (s *ReservationService) UpdateStatus(ctx context.Context, user *models.User, id string, req models.UpdateReservationStatusRequest) (*models.Reservation, error) {
	r, err := s.apply(ctx, user, id, ActionSetStatus, req.Status, strings.TrimSpace(req.Table))
	if err != nil {
		return nil, err
	}
	kafka.PublishAsync(s.Kafka, s.Logger, models.NewDomainEvent(models.EventReservationStatusChanged, r.ID, r.UserID, r))
	return r, nil
}

func (s *ReservationService) CancelReservation(ctx context.Context, user *models.User, id string) (*models.Reservation, error) {
	r, err := s.apply(ctx, user, id, ActionCancel, "", "")
	if err != nil {
		return nil, err
	}
	kafka.PublishAsync(s.Kafka, s.Logger, models.NewDomainEvent(models.EventReservationCancelled, r.ID, r.UserID, r))
	return r, nil
}

package reservation_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"campus-cafeteria/internal/apperr"
	"campus-cafeteria/internal/kafka"
	"campus-cafeteria/internal/logger"
	"campus-cafeteria/internal/models"
	"campus-cafeteria/internal/refnum"
	"campus-cafeteria/internal/reservation"
	"campus-cafeteria/internal/reservation/db"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

var (
	student = &models.User{ID: "student-1", Role: models.RoleStudent}
	other   = &models.User{ID: "student-2", Role: models.RoleTeacher}
	admin   = &models.User{ID: "admin-1", Role: models.RoleAdmin}
)

func setupService(t *testing.T) *reservation.ReservationService {
	svc, _ := setupWithRedis(t)
	return svc
}

func setupWithRedis(t *testing.T) (*reservation.ReservationService, *miniredis.Miniredis) {
	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)
	bunDB := bun.NewDB(sqldb, sqlitedialect.New())
	for _, model := range []interface{}{(*models.Reservation)(nil), (*models.ReservationSlot)(nil)} {
		_, err = bunDB.NewCreateTable().Model(model).Exec(context.Background())
		require.NoError(t, err)
	}

	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
		bunDB.Close()
	})

	log := logger.NewNopLogger()
	return reservation.NewReservationService(&db.DB{Bun: bunDB}, refnum.NewGenerator(client, time.UTC, log), kafka.NopPublisher{}, log, 20, time.UTC), mr
}

func futureDate(days int) string {
	return time.Now().UTC().AddDate(0, 0, days).Format("2006-01-02")
}

func book(t *testing.T, svc *reservation.ReservationService, user *models.User, date, slot string) *models.Reservation {
	r, err := svc.CreateReservation(context.Background(), user, models.CreateReservationRequest{
		Date: date, TimeSlot: slot, PartySize: 4,
	})
	require.NoError(t, err)
	return r
}

func TestCreateReservation(t *testing.T) {
	svc := setupService(t)
	date := futureDate(3)

	r := book(t, svc, student, date, "13:00")
	assert.Equal(t, models.ReservationPending, r.Status)
	assert.Equal(t, date, r.Date.Format("2006-01-02"))
	assert.Regexp(t, `^RES-\d{8}-000001$`, r.ReservationNumber)

	second := book(t, svc, other, date, "13:00")
	assert.Regexp(t, `^RES-\d{8}-000002$`, second.ReservationNumber)
}

func TestCreateReservationSurvivesCounterReset(t *testing.T) {
	svc, mr := setupWithRedis(t)
	date := futureDate(3)

	for i := 0; i < 4; i++ {
		book(t, svc, student, date, "13:00")
	}

	mr.FlushAll()

	for i := 0; i < 4; i++ {
		r := book(t, svc, other, date, "13:00")
		assert.Regexp(t, `^RES-\d{8}-[A-Z2-7]{10}$`, r.ReservationNumber)
	}

	day, err := svc.ParseDate(date)
	require.NoError(t, err)
	slot, err := svc.CheckAvailability(context.Background(), day, "13:00")
	require.NoError(t, err)
	assert.Equal(t, 12, slot.TablesRemaining)
}

func TestCreateReservationToday(t *testing.T) {
	svc := setupService(t)
	book(t, svc, student, futureDate(0), "21:00")
}

func TestCreateReservationValidation(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()

	cases := []models.CreateReservationRequest{
		{TimeSlot: "13:00", PartySize: 2},
		{Date: futureDate(1), PartySize: 2},
		{Date: futureDate(1), TimeSlot: "13:00"},
		{Date: futureDate(1), TimeSlot: "13:00", PartySize: 11},
		{Date: futureDate(1), TimeSlot: "13:30", PartySize: 2},
		{Date: futureDate(1), TimeSlot: "06:00", PartySize: 2},
		{Date: "mañana", TimeSlot: "13:00", PartySize: 2},
		{Date: futureDate(-1), TimeSlot: "13:00", PartySize: 2},
	}
	for _, req := range cases {
		_, err := svc.CreateReservation(ctx, student, req)
		assert.ErrorIs(t, err, apperr.ErrValidation, "%+v", req)
	}
}

func TestFullSlotScenario(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()
	date := futureDate(5)

	for i := 0; i < 20; i++ {
		book(t, svc, student, date, "13:00")
	}

	day, err := svc.ParseDate(date)
	require.NoError(t, err)
	availability, err := svc.CheckAvailability(ctx, day, "13:00")
	require.NoError(t, err)
	assert.False(t, availability.Available)
	assert.Equal(t, 0, availability.TablesRemaining)

	_, err = svc.CreateReservation(ctx, other, models.CreateReservationRequest{Date: date, TimeSlot: "13:00", PartySize: 2})
	assert.ErrorIs(t, err, apperr.ErrCapacity)

	slots, err := svc.DayAvailability(ctx, day)
	require.NoError(t, err)
	require.Len(t, slots, 15)
	assert.Equal(t, "07:00", slots[0].TimeSlot)
	assert.Equal(t, "21:00", slots[14].TimeSlot)
	for _, slot := range slots {
		if slot.TimeSlot == "13:00" {
			assert.False(t, slot.Available)
			continue
		}
		assert.True(t, slot.Available)
		assert.Equal(t, 20, slot.TablesRemaining)
	}
}

func TestCancelFreesTable(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()
	date := futureDate(2)

	var first *models.Reservation
	for i := 0; i < 20; i++ {
		r := book(t, svc, student, date, "08:00")
		if first == nil {
			first = r
		}
	}

	cancelled, err := svc.CancelReservation(ctx, student, first.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReservationCancelled, cancelled.Status)

	day, err := svc.ParseDate(date)
	require.NoError(t, err)
	availability, err := svc.CheckAvailability(ctx, day, "08:00")
	require.NoError(t, err)
	assert.True(t, availability.Available)
	assert.Equal(t, 1, availability.TablesRemaining)

	book(t, svc, other, date, "08:00")

	_, err = svc.CancelReservation(ctx, student, first.ID)
	assert.ErrorIs(t, err, apperr.ErrInvalidState)
}

func TestReservationOwnershipAndAdmin(t *testing.T) {
	svc := setupService(t)
	ctx := context.Background()
	date := futureDate(1)
	r := book(t, svc, student, date, "12:00")

	_, err := svc.GetReservation(ctx, other, r.ID)
	assert.ErrorIs(t, err, apperr.ErrAuthorization)
	_, err = svc.CancelReservation(ctx, other, r.ID)
	assert.ErrorIs(t, err, apperr.ErrAuthorization)
	_, err = svc.UpdateStatus(ctx, student, r.ID, models.UpdateReservationStatusRequest{Status: models.ReservationConfirmed})
	assert.ErrorIs(t, err, apperr.ErrAuthorization)

	confirmed, err := svc.UpdateStatus(ctx, admin, r.ID, models.UpdateReservationStatusRequest{Status: models.ReservationConfirmed, Table: "M-7"})
	require.NoError(t, err)
	assert.Equal(t, models.ReservationConfirmed, confirmed.Status)
	assert.Equal(t, "M-7", confirmed.Table)

	completed, err := svc.UpdateStatus(ctx, admin, r.ID, models.UpdateReservationStatusRequest{Status: models.ReservationCompleted})
	require.NoError(t, err)
	assert.Equal(t, "M-7", completed.Table)

	_, err = svc.CancelReservation(ctx, student, r.ID)
	assert.ErrorIs(t, err, apperr.ErrInvalidState)

	all, err := svc.ListAllReservations(ctx, date, models.ReservationCompleted)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	mine, err := svc.ListUserReservations(ctx, student)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	_, err = svc.ListAllReservations(ctx, "20-05-2030", "")
	assert.ErrorIs(t, err, apperr.ErrValidation)
	_, err = svc.GetReservation(ctx, admin, "missing")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

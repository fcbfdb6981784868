package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"campus-cafeteria/internal/auth"
	"campus-cafeteria/internal/config"
	"campus-cafeteria/internal/database"
	"campus-cafeteria/internal/kafka"
	"campus-cafeteria/internal/logger"
	"campus-cafeteria/internal/models"
	usersdb "campus-cafeteria/internal/users/db"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type app struct {
	t       *testing.T
	handler http.Handler
	svc     *services
}

func newApp(t *testing.T) *app {
	cfg := config.Load()
	cfg.Database.Driver = database.DriverSQLite
	cfg.Database.SQLiteDSN = ":memory:"
	cfg.Database.ConnectRetries = 1
	cfg.Business.Timezone = "UTC"
	cfg.Auth.BcryptCost = 4

	log := logger.NewNopLogger()
	ctx := context.Background()
	bunDB, err := database.Open(ctx, cfg.Database, log)
	require.NoError(t, err)
	t.Cleanup(func() { bunDB.Close() })
	require.NoError(t, prepareSchema(ctx, cfg.Database, bunDB, log))

	svc, err := buildServices(cfg, bunDB, nil, kafka.NopPublisher{}, log)
	require.NoError(t, err)

	// admins cannot self-register, so one is written straight to the store
	hash, err := auth.HashPassword("admin123", cfg.Auth.BcryptCost)
	require.NoError(t, err)
	now := time.Now().UTC()
	require.NoError(t, (&usersdb.DB{Bun: bunDB}).CreateUser(ctx, &models.User{
		ID: uuid.New().String(), Name: "Admin", Email: "admin@campus.mx", PasswordHash: hash,
		Role: models.RoleAdmin, CreatedAt: now, UpdatedAt: now,
	}))

	return &app{t: t, handler: buildRouter(cfg, svc, log), svc: svc}
}

func (a *app) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func (a *app) decode(rec *httptest.ResponseRecorder, dst interface{}) {
	require.NoError(a.t, json.NewDecoder(rec.Body).Decode(dst))
}

func (a *app) login(email, password string) string {
	rec := a.do(http.MethodPost, "/api/users/login", "", map[string]string{"email": email, "password": password})
	require.Equal(a.t, http.StatusOK, rec.Code, rec.Body.String())
	var resp models.AuthResponse
	a.decode(rec, &resp)
	return resp.Token
}

func TestBanner(t *testing.T) {
	a := newApp(t)
	rec := a.do(http.MethodGet, "/", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/api/pedidos")
}

func TestOrderToPaymentFlow(t *testing.T) {
	a := newApp(t)
	admin := a.login("admin@campus.mx", "admin123")

	rec := a.do(http.MethodPost, "/api/users/register", "", map[string]string{
		"name": "Ana", "email": "ana@campus.mx", "password": "secret123",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var ana models.AuthResponse
	a.decode(rec, &ana)
	assert.Equal(t, models.RoleStudent, ana.Role)

	rec = a.do(http.MethodPost, "/api/menus", ana.Token, map[string]interface{}{
		"name": "Taco", "description": "al pastor", "price": 25, "category": "lunch",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = a.do(http.MethodPost, "/api/menus", admin, map[string]interface{}{
		"name": "Taco", "description": "al pastor", "price": 25, "category": "lunch",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var taco models.MenuItem
	a.decode(rec, &taco)

	rec = a.do(http.MethodGet, "/api/menus?category=lunch", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Taco")

	rec = a.do(http.MethodPost, "/api/pedidos", ana.Token, map[string]interface{}{
		"items":          []map[string]interface{}{{"menu_item_id": taco.ID, "quantity": 3}},
		"payment_method": "card",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var placed models.Order
	a.decode(rec, &placed)
	assert.Equal(t, 75.0, placed.Total)
	assert.Regexp(t, `^PED-\d{8}-[A-Z2-7]{10}$`, placed.OrderNumber)

	// later price changes do not touch the order
	rec = a.do(http.MethodPut, "/api/menus/"+taco.ID, admin, map[string]interface{}{"price": 30})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = a.do(http.MethodPost, "/api/pagos/tarjeta", ana.Token, map[string]string{
		"order_id": placed.ID, "card_number": "4111111111111111", "cvv": "123", "expiry": "12/30", "holder_name": "Ana",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = a.do(http.MethodGet, "/api/pedidos/"+placed.ID, ana.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var paid models.Order
	a.decode(rec, &paid)
	assert.True(t, paid.Paid)
	assert.Equal(t, models.OrderConfirmed, paid.Status)
	assert.Equal(t, 75.0, paid.Total)

	rec = a.do(http.MethodPost, "/api/pagos", ana.Token, map[string]string{"order_id": placed.ID, "method": "cash"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(http.MethodPut, "/api/pedidos/"+placed.ID+"/estado", admin, map[string]string{"status": "delivered"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = a.do(http.MethodDelete, "/api/pedidos/"+placed.ID, ana.Token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReservationFlow(t *testing.T) {
	a := newApp(t)
	admin := a.login("admin@campus.mx", "admin123")

	rec := a.do(http.MethodPost, "/api/users/register", "", map[string]string{
		"name": "Luis", "email": "luis@campus.mx", "password": "secret123", "role": "teacher",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var luis models.AuthResponse
	a.decode(rec, &luis)

	day := time.Now().UTC().AddDate(0, 0, 2).Format("2006-01-02")
	rec = a.do(http.MethodPost, "/api/reservas", luis.Token, map[string]interface{}{
		"date": day, "time_slot": "13:00", "party_size": 4,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var booked models.Reservation
	a.decode(rec, &booked)

	rec = a.do(http.MethodGet, "/api/reservas/disponibilidad/"+day+"?hora=13:00", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var slot models.SlotAvailability
	a.decode(rec, &slot)
	assert.Equal(t, 19, slot.TablesRemaining)

	rec = a.do(http.MethodGet, "/api/reservas/todas?date="+day, luis.Token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = a.do(http.MethodDelete, "/api/reservas/"+booked.ID, luis.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = a.do(http.MethodGet, "/api/reservas/disponibilidad/"+day+"?hora=13:00", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	a.decode(rec, &slot)
	assert.Equal(t, 20, slot.TablesRemaining)

	rec = a.do(http.MethodGet, "/api/reservas/todas?date="+day, admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var all []models.Reservation
	a.decode(rec, &all)
	require.Len(t, all, 1)
	assert.Equal(t, models.ReservationCancelled, all[0].Status)
}

func TestGateRejectsMissingToken(t *testing.T) {
	a := newApp(t)
	rec := a.do(http.MethodGet, "/api/pedidos", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = a.do(http.MethodGet, "/api/pedidos", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

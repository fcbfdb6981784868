package users_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"campus-cafeteria/internal/apperr"
	"campus-cafeteria/internal/auth"
	"campus-cafeteria/internal/kafka"
	"campus-cafeteria/internal/logger"
	"campus-cafeteria/internal/database"
	"campus-cafeteria/internal/models"
	"campus-cafeteria/internal/users"
	"campus-cafeteria/internal/users/db"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func setupService(t *testing.T) (*users.UserService, *auth.RedisIdentityCache) {
	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)
	bunDB := bun.NewDB(sqldb, sqlitedialect.New())
	err = database.CreateSchema(context.Background(), bunDB)
	require.NoError(t, err)

	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
		bunDB.Close()
	})

	cache := auth.NewRedisIdentityCache(client, time.Minute)
	svc := users.NewUserService(&db.DB{Bun: bunDB}, auth.NewTokenManager("secret", time.Hour), cache, kafka.NopPublisher{}, logger.NewNopLogger(), 4)
	return svc, cache
}

func register(t *testing.T, svc *users.UserService, email string, role models.Role) *models.AuthResponse {
	resp, err := svc.Register(context.Background(), models.RegisterRequest{
		Name: "Ana", Email: email, Password: "secret123", Role: role,
	})
	require.NoError(t, err)
	return resp
}

func TestRegisterDefaultsToStudent(t *testing.T) {
	svc, _ := setupService(t)

	resp := register(t, svc, "  Ana@Campus.MX ", "")
	assert.Equal(t, models.RoleStudent, resp.Role)
	assert.Equal(t, "ana@campus.mx", resp.Email)
	assert.NotEmpty(t, resp.Token)

	claims, err := svc.Tokens.Parse(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, resp.ID, claims.UserID)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	svc, _ := setupService(t)
	register(t, svc, "ana@campus.mx", models.RoleTeacher)

	_, err := svc.Register(context.Background(), models.RegisterRequest{
		Name: "Otra", Email: "ANA@campus.mx", Password: "secret123",
	})
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestRegisterRejectsAdminRole(t *testing.T) {
	svc, _ := setupService(t)
	_, err := svc.Register(context.Background(), models.RegisterRequest{
		Name: "Eve", Email: "eve@campus.mx", Password: "secret123", Role: models.RoleAdmin,
	})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestLogin(t *testing.T) {
	svc, _ := setupService(t)
	register(t, svc, "ana@campus.mx", "")
	ctx := context.Background()

	resp, err := svc.Login(ctx, models.LoginRequest{Email: "ana@campus.mx", Password: "secret123"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)

	_, err = svc.Login(ctx, models.LoginRequest{Email: "ana@campus.mx", Password: "wrong"})
	assert.ErrorIs(t, err, apperr.ErrAuthentication)

	_, err = svc.Login(ctx, models.LoginRequest{Email: "nobody@campus.mx", Password: "secret123"})
	assert.ErrorIs(t, err, apperr.ErrAuthentication)
}

func TestUpdateUserInvalidatesIdentityCache(t *testing.T) {
	svc, cache := setupService(t)
	ctx := context.Background()
	resp := register(t, svc, "ana@campus.mx", "")

	user, err := svc.GetUserByID(ctx, resp.ID)
	require.NoError(t, err)
	require.NoError(t, cache.Set(ctx, user))

	role := models.RoleTeacher
	name := "Ana María"
	updated, err := svc.UpdateUser(ctx, resp.ID, models.UpdateUserRequest{Role: &role, Name: &name})
	require.NoError(t, err)
	assert.Equal(t, models.RoleTeacher, updated.Role)
	assert.Equal(t, "Ana María", updated.Name)

	cached, err := cache.Get(ctx, resp.ID)
	require.NoError(t, err)
	assert.Nil(t, cached)
}

func TestUpdateUserEmailMustStayUnique(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()
	register(t, svc, "ana@campus.mx", "")
	other := register(t, svc, "luis@campus.mx", "")

	taken := "ana@campus.mx"
	_, err := svc.UpdateUser(ctx, other.ID, models.UpdateUserRequest{Email: &taken})
	assert.ErrorIs(t, err, apperr.ErrConflict)

	password := "newsecret"
	_, err = svc.UpdateUser(ctx, other.ID, models.UpdateUserRequest{Password: &password})
	require.NoError(t, err)
	_, err = svc.Login(ctx, models.LoginRequest{Email: "luis@campus.mx", Password: "newsecret"})
	assert.NoError(t, err)
}

func TestDeleteUser(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()
	resp := register(t, svc, "ana@campus.mx", "")

	require.NoError(t, svc.DeleteUser(ctx, resp.ID))
	_, err := svc.GetUserByID(ctx, resp.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.ErrorIs(t, svc.DeleteUser(ctx, resp.ID), apperr.ErrNotFound)
}

package db_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"campus-cafeteria/internal/apperr"
	"campus-cafeteria/internal/menu/db"
	"campus-cafeteria/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func setupTestDB(t *testing.T) *db.DB {
	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())
	_, err = bunDB.NewCreateTable().Model((*models.MenuItem)(nil)).Exec(context.Background())
	require.NoError(t, err)

	t.Cleanup(func() { bunDB.Close() })
	return &db.DB{Bun: bunDB}
}

func newItem(name string, category models.Category, diet models.DietTag, available bool, createdAt time.Time) *models.MenuItem {
	return &models.MenuItem{
		ID:          uuid.New().String(),
		Name:        name,
		Description: name + " de la casa",
		Price:       25,
		Category:    category,
		Available:   available,
		Diet:        diet,
		Ingredients: []string{"tortilla", "salsa"},
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}
}

func TestListMenuItemsFilters(t *testing.T) {
	menuDB := setupTestDB(t)
	ctx := context.Background()
	base := time.Now().UTC()

	taco := newItem("Taco", models.CategoryLunch, models.DietRegular, true, base)
	salad := newItem("Ensalada", models.CategoryLunch, models.DietVegan, true, base.Add(time.Minute))
	coffee := newItem("Café", models.CategoryBeverage, models.DietVegan, false, base.Add(2*time.Minute))
	for _, item := range []*models.MenuItem{taco, salad, coffee} {
		require.NoError(t, menuDB.CreateMenuItem(ctx, item))
	}

	all, err := menuDB.ListMenuItems(ctx, models.MenuFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Café", all[0].Name, "newest first")

	lunch, err := menuDB.ListMenuItems(ctx, models.MenuFilter{Category: models.CategoryLunch})
	require.NoError(t, err)
	assert.Len(t, lunch, 2)

	yes := true
	veganAvailable, err := menuDB.ListMenuItems(ctx, models.MenuFilter{Diet: models.DietVegan, Available: &yes})
	require.NoError(t, err)
	require.Len(t, veganAvailable, 1)
	assert.Equal(t, "Ensalada", veganAvailable[0].Name)
	assert.Equal(t, []string{"tortilla", "salsa"}, veganAvailable[0].Ingredients)
}

func TestGetMenuItemsByIDs(t *testing.T) {
	menuDB := setupTestDB(t)
	ctx := context.Background()

	taco := newItem("Taco", models.CategoryLunch, models.DietRegular, true, time.Now().UTC())
	require.NoError(t, menuDB.CreateMenuItem(ctx, taco))

	found, err := menuDB.GetMenuItemsByIDs(ctx, []string{taco.ID, "missing"})
	require.NoError(t, err)
	assert.Len(t, found, 1)
	assert.Equal(t, "Taco", found[taco.ID].Name)

	empty, err := menuDB.GetMenuItemsByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestUpdateAndDeleteMenuItem(t *testing.T) {
	menuDB := setupTestDB(t)
	ctx := context.Background()

	taco := newItem("Taco", models.CategoryLunch, models.DietRegular, true, time.Now().UTC())
	require.NoError(t, menuDB.CreateMenuItem(ctx, taco))

	taco.Price = 30
	taco.Available = false
	require.NoError(t, menuDB.UpdateMenuItem(ctx, taco))

	loaded, err := menuDB.GetMenuItemByID(ctx, taco.ID)
	require.NoError(t, err)
	assert.Equal(t, 30.0, loaded.Price)
	assert.False(t, loaded.Available)

	require.NoError(t, menuDB.DeleteMenuItem(ctx, taco.ID))
	_, err = menuDB.GetMenuItemByID(ctx, taco.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	assert.ErrorIs(t, menuDB.DeleteMenuItem(ctx, taco.ID), apperr.ErrNotFound)
}

package db

import (
	"context"
	"fmt"

	"campus-cafeteria/internal/apperr"
	"campus-cafeteria/internal/database"
	"campus-cafeteria/internal/models"

	"github.com/uptrace/bun"
)

type DB struct {
	Bun *bun.DB
}

func (d *DB) CreateMenuItem(ctx context.Context, item *models.MenuItem) error {
	if _, err := d.Bun.NewInsert().Model(item).Exec(ctx); err != nil {
		return fmt.Errorf("failed to insert menu item: %w", err)
	}
	return nil
}

func (d *DB) GetMenuItemByID(ctx context.Context, id string) (*models.MenuItem, error) {
	var item models.MenuItem
	err := d.Bun.NewSelect().
		Model(&item).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if database.IsNotFound(err) {
		return nil, apperr.NotFound("menu item %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load menu item: %w", err)
	}
	return &item, nil
}

// GetMenuItemsByIDs loads every listed item in one query, keyed by id.
func (d *DB) GetMenuItemsByIDs(ctx context.Context, ids []string) (map[string]*models.MenuItem, error) {
	items := make([]models.MenuItem, 0, len(ids))
	if len(ids) > 0 {
		err := d.Bun.NewSelect().
			Model(&items).
			Where("id IN (?)", bun.In(ids)).
			Scan(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load menu items: %w", err)
		}
	}

	byID := make(map[string]*models.MenuItem, len(items))
	for i := range items {
		byID[items[i].ID] = &items[i]
	}
	return byID, nil
}

// ListMenuItems → filtered catalog, newest first
func (d *DB) ListMenuItems(ctx context.Context, filter models.MenuFilter) ([]models.MenuItem, error) {
	items := make([]models.MenuItem, 0)
	q := d.Bun.NewSelect().Model(&items)
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	if filter.Diet != "" {
		q = q.Where("diet = ?", filter.Diet)
	}
	if filter.Available != nil {
		q = q.Where("available = ?", *filter.Available)
	}
	if err := q.Order("created_at DESC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list menu items: %w", err)
	}
	return items, nil
}

func (d *DB) UpdateMenuItem(ctx context.Context, item *models.MenuItem) error {
	res, err := d.Bun.NewUpdate().
		Model(item).
		Column("name", "description", "price", "category", "available", "image", "diet", "ingredients", "calories", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update menu item: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("menu item %s not found", item.ID)
	}
	return nil
}

func (d *DB) DeleteMenuItem(ctx context.Context, id string) error {
	res, err := d.Bun.NewDelete().
		Model((*models.MenuItem)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete menu item: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("menu item %s not found", id)
	}
	return nil
}

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

// ---------------- ORDERS ----------------

// CreateOrder → insert new order
func (d *DB) CreateOrder(ctx context.Context, order *models.Order) error {
	_, err := d.Bun.NewInsert().Model(order).Exec(ctx)
	if database.IsUniqueViolation(err) {
		return apperr.Conflict("order number %s already taken", order.OrderNumber)
	}
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}
	return nil
}

// GetOrderByID → fetch one order by its ID
func (d *DB) GetOrderByID(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	err := d.Bun.NewSelect().
		Model(&order).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if database.IsNotFound(err) {
		return nil, apperr.NotFound("order not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	return &order, nil
}

// ListOrders → newest first, optionally narrowed to one user or status
func (d *DB) ListOrders(ctx context.Context, filter models.OrderFilter) ([]models.Order, error) {
	orders := make([]models.Order, 0)
	q := d.Bun.NewSelect().Model(&orders)
	if filter.UserID != "" {
		q = q.Where("user_id = ?", filter.UserID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if err := q.Order("created_at DESC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// UpdateOrder → persist status and paid flag
func (d *DB) UpdateOrder(ctx context.Context, order *models.Order) error {
	res, err := d.Bun.NewUpdate().
		Model(order).
		Column("status", "paid", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("order not found")
	}
	return nil
}

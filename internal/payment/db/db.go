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

// SettleOrder marks the order paid and records the payment in one transaction.
// The next status is decided by the row itself: pending becomes confirmed and any
// other live status is kept, so a concurrent kitchen update is never overwritten.
// order.Status is refreshed from the stored row.
func (d *DB) SettleOrder(ctx context.Context, order *models.Order, payment *models.Payment) error {
	return d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		res, err := tx.NewUpdate().
			Model((*models.Order)(nil)).
			Set("paid = ?", true).
			Set("status = CASE WHEN status = ? THEN ? ELSE status END", models.OrderPending, models.OrderConfirmed).
			Set("updated_at = ?", order.UpdatedAt).
			Where("id = ?", order.ID).
			Where("paid = ?", false).
			Where("status NOT IN (?)", bun.In([]models.OrderStatus{models.OrderDelivered, models.OrderCancelled})).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to mark order paid: %w", err)
		}

		var current struct {
			Paid   bool               `bun:"paid"`
			Status models.OrderStatus `bun:"status"`
		}
		err = tx.NewSelect().
			Model((*models.Order)(nil)).
			Column("paid", "status").
			Where("id = ?", order.ID).
			Scan(ctx, &current)
		if database.IsNotFound(err) {
			return apperr.NotFound("order not found")
		}
		if err != nil {
			return fmt.Errorf("failed to reload order: %w", err)
		}

		if n, _ := res.RowsAffected(); n == 0 {
			if current.Paid {
				return apperr.Conflict("order %s has already been paid", order.OrderNumber)
			}
			return apperr.InvalidState("cannot pay an order that is %s", current.Status)
		}

		_, err = tx.NewInsert().Model(payment).Exec(ctx)
		if database.IsUniqueViolation(err) {
			return apperr.Conflict("transaction %s already recorded", payment.TransactionID)
		}
		if err != nil {
			return fmt.Errorf("failed to insert payment: %w", err)
		}
		order.Paid = true
		order.Status = current.Status
		return nil
	})
}

func (d *DB) GetPaymentByID(ctx context.Context, id string) (*models.Payment, error) {
	var payment models.Payment
	err := d.Bun.NewSelect().
		Model(&payment).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if database.IsNotFound(err) {
		return nil, apperr.NotFound("payment not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load payment: %w", err)
	}
	return &payment, nil
}

// ListPayments → newest first
func (d *DB) ListPayments(ctx context.Context, filter models.PaymentFilter) ([]models.Payment, error) {
	payments := make([]models.Payment, 0)
	q := d.Bun.NewSelect().Model(&payments)
	if filter.UserID != "" {
		q = q.Where("user_id = ?", filter.UserID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Method != "" {
		q = q.Where("method = ?", filter.Method)
	}
	if err := q.Order("created_at DESC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	return payments, nil
}

func (d *DB) UpdatePaymentStatus(ctx context.Context, payment *models.Payment) error {
	res, err := d.Bun.NewUpdate().
		Model(payment).
		Column("status", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to update payment: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("payment not found")
	}
	return nil
}

// CompletedByMethod aggregates completed payments per method.
func (d *DB) CompletedByMethod(ctx context.Context) ([]models.MethodBreakdown, error) {
	rows := make([]models.MethodBreakdown, 0)
	err := d.Bun.NewSelect().
		Model((*models.Payment)(nil)).
		Column("method").
		ColumnExpr("COUNT(*) AS count").
		ColumnExpr("COALESCE(SUM(amount), 0) AS total").
		Where("status = ?", models.PaymentCompleted).
		Group("method").
		Order("method ASC").
		Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate payments: %w", err)
	}
	return rows, nil
}

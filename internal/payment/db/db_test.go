package db

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"campus-cafeteria/internal/apperr"
	"campus-cafeteria/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func setupTestDB(t *testing.T) *DB {
	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)
	bunDB := bun.NewDB(sqldb, sqlitedialect.New())
	for _, model := range []interface{}{(*models.Order)(nil), (*models.Payment)(nil)} {
		_, err = bunDB.NewCreateTable().Model(model).Exec(context.Background())
		require.NoError(t, err)
	}
	t.Cleanup(func() { bunDB.Close() })
	return &DB{Bun: bunDB}
}

func insertOrder(t *testing.T, d *DB, total float64) *models.Order {
	now := time.Now().UTC()
	o := &models.Order{
		ID: uuid.New().String(), OrderNumber: "PED-" + uuid.New().String()[:8], UserID: "u1",
		Lines: []models.OrderLine{}, Total: total, Status: models.OrderPending,
		PaymentMethod: models.MethodCash, CreatedAt: now, UpdatedAt: now,
	}
	_, err := d.Bun.NewInsert().Model(o).Exec(context.Background())
	require.NoError(t, err)
	return o
}

func newPayment(o *models.Order, method models.PaymentMethod, status models.PaymentStatus, created time.Time) *models.Payment {
	return &models.Payment{
		ID: uuid.New().String(), OrderID: o.ID, UserID: o.UserID, Amount: o.Total,
		Method: method, Status: status, TransactionID: "TXN-" + uuid.New().String(),
		ReceiptID: "COMP-1", CreatedAt: created, UpdatedAt: created,
	}
}

func TestSettleOrderOnlyOnce(t *testing.T) {
	d := setupTestDB(t)
	ctx := context.Background()
	o := insertOrder(t, d, 75)

	first := newPayment(o, models.MethodCash, models.PaymentCompleted, time.Now().UTC())
	require.NoError(t, d.SettleOrder(ctx, o, first))
	assert.True(t, o.Paid)

	stored := new(models.Order)
	require.NoError(t, d.Bun.NewSelect().Model(stored).Where("id = ?", o.ID).Scan(ctx))
	assert.True(t, stored.Paid)
	assert.Equal(t, models.OrderConfirmed, stored.Status)

	second := newPayment(o, models.MethodCash, models.PaymentCompleted, time.Now().UTC())
	err := d.SettleOrder(ctx, o, second)
	assert.True(t, errors.Is(err, apperr.ErrConflict))

	payments, err := d.ListPayments(ctx, models.PaymentFilter{})
	require.NoError(t, err)
	assert.Len(t, payments, 1)
}

func TestSettleOrderKeepsConcurrentStatusChange(t *testing.T) {
	d := setupTestDB(t)
	ctx := context.Background()

	// the caller read the order while it was pending, then the kitchen moved it on
	o := insertOrder(t, d, 40)
	_, err := d.Bun.NewUpdate().Model((*models.Order)(nil)).
		Set("status = ?", models.OrderPreparing).Where("id = ?", o.ID).Exec(ctx)
	require.NoError(t, err)

	require.NoError(t, d.SettleOrder(ctx, o, newPayment(o, models.MethodCash, models.PaymentCompleted, time.Now().UTC())))
	assert.Equal(t, models.OrderPreparing, o.Status)

	stored := new(models.Order)
	require.NoError(t, d.Bun.NewSelect().Model(stored).Where("id = ?", o.ID).Scan(ctx))
	assert.True(t, stored.Paid)
	assert.Equal(t, models.OrderPreparing, stored.Status)
}

func TestSettleOrderRefusesConcurrentCancel(t *testing.T) {
	d := setupTestDB(t)
	ctx := context.Background()

	o := insertOrder(t, d, 40)
	_, err := d.Bun.NewUpdate().Model((*models.Order)(nil)).
		Set("status = ?", models.OrderCancelled).Where("id = ?", o.ID).Exec(ctx)
	require.NoError(t, err)

	err = d.SettleOrder(ctx, o, newPayment(o, models.MethodCash, models.PaymentCompleted, time.Now().UTC()))
	assert.ErrorIs(t, err, apperr.ErrInvalidState)
	assert.False(t, o.Paid)

	stored := new(models.Order)
	require.NoError(t, d.Bun.NewSelect().Model(stored).Where("id = ?", o.ID).Scan(ctx))
	assert.False(t, stored.Paid)
	assert.Equal(t, models.OrderCancelled, stored.Status)

	payments, err := d.ListPayments(ctx, models.PaymentFilter{})
	require.NoError(t, err)
	assert.Empty(t, payments)
}

func TestSettleOrderRollsBackOnDuplicateTransaction(t *testing.T) {
	d := setupTestDB(t)
	ctx := context.Background()
	a := insertOrder(t, d, 10)
	b := insertOrder(t, d, 20)

	p := newPayment(a, models.MethodCash, models.PaymentCompleted, time.Now().UTC())
	require.NoError(t, d.SettleOrder(ctx, a, p))

	dup := newPayment(b, models.MethodCash, models.PaymentCompleted, time.Now().UTC())
	dup.TransactionID = p.TransactionID
	err := d.SettleOrder(ctx, b, dup)
	assert.True(t, errors.Is(err, apperr.ErrConflict))

	stored := new(models.Order)
	require.NoError(t, d.Bun.NewSelect().Model(stored).Where("id = ?", b.ID).Scan(ctx))
	assert.False(t, stored.Paid)
}

func TestListPaymentsFiltersAndOrder(t *testing.T) {
	d := setupTestDB(t)
	ctx := context.Background()
	base := time.Date(2025, 3, 14, 12, 0, 0, 0, time.UTC)

	for i, method := range []models.PaymentMethod{models.MethodCash, models.MethodCard, models.MethodCash} {
		o := insertOrder(t, d, float64(10*(i+1)))
		require.NoError(t, d.SettleOrder(ctx, o, newPayment(o, method, models.PaymentCompleted, base.Add(time.Duration(i)*time.Minute))))
	}

	all, err := d.ListPayments(ctx, models.PaymentFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, 30.0, all[0].Amount)

	cash, err := d.ListPayments(ctx, models.PaymentFilter{Method: models.MethodCash})
	require.NoError(t, err)
	assert.Len(t, cash, 2)

	mine, err := d.ListPayments(ctx, models.PaymentFilter{UserID: "nobody"})
	require.NoError(t, err)
	assert.Empty(t, mine)
}

func TestCompletedByMethod(t *testing.T) {
	d := setupTestDB(t)
	ctx := context.Background()
	now := time.Now().UTC()

	for _, amount := range []float64{10.5, 20.25} {
		o := insertOrder(t, d, amount)
		require.NoError(t, d.SettleOrder(ctx, o, newPayment(o, models.MethodCash, models.PaymentCompleted, now)))
	}
	o := insertOrder(t, d, 40)
	refunded := newPayment(o, models.MethodCard, models.PaymentCompleted, now)
	require.NoError(t, d.SettleOrder(ctx, o, refunded))
	refunded.Status = models.PaymentRefunded
	require.NoError(t, d.UpdatePaymentStatus(ctx, refunded))

	rows, err := d.CompletedByMethod(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, models.MethodCash, rows[0].Method)
	assert.Equal(t, 2, rows[0].Count)
	assert.InDelta(t, 30.75, rows[0].Total, 0.001)
}

func TestGetAndUpdateMissingPayment(t *testing.T) {
	d := setupTestDB(t)
	ctx := context.Background()

	_, err := d.GetPaymentByID(ctx, "missing")
	assert.True(t, errors.Is(err, apperr.ErrNotFound))

	err = d.UpdatePaymentStatus(ctx, &models.Payment{ID: "missing", Status: models.PaymentFailed})
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

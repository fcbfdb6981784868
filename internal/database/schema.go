package database

import (
	"context"
	"fmt"

	"campus-cafeteria/internal/models"

	"github.com/uptrace/bun"
)

// Models lists every persisted table in creation order.
var Models = []interface{}{
	(*models.User)(nil),
	(*models.MenuItem)(nil),
	(*models.Order)(nil),
	(*models.Reservation)(nil),
	(*models.ReservationSlot)(nil),
	(*models.Payment)(nil),
}

// CreateSchema creates any missing table straight from the bun models.
// Postgres deployments use the versioned migrations instead.
func CreateSchema(ctx context.Context, db *bun.DB) error {
	for _, model := range Models {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("failed to create table for %T: %w", model, err)
		}
	}
	return nil
}

// DropSchema removes every table, newest dependency first.
func DropSchema(ctx context.Context, db *bun.DB) error {
	for i := len(Models) - 1; i >= 0; i-- {
		if _, err := db.NewDropTable().Model(Models[i]).IfExists().Exec(ctx); err != nil {
			return fmt.Errorf("failed to drop table for %T: %w", Models[i], err)
		}
	}
	return nil
}

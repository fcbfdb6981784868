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

// CreateUser → insert new user
func (d *DB) CreateUser(ctx context.Context, user *models.User) error {
	_, err := d.Bun.NewInsert().Model(user).Exec(ctx)
	if database.IsUniqueViolation(err) {
		return apperr.Conflict("a user with email %s already exists", user.Email)
	}
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// GetUserByID → fetch one user by its ID
func (d *DB) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := d.Bun.NewSelect().
		Model(&user).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if database.IsNotFound(err) {
		return nil, apperr.NotFound("user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &user, nil
}

func (d *DB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := d.Bun.NewSelect().
		Model(&user).
		Where("email = ?", email).
		Limit(1).
		Scan(ctx)
	if database.IsNotFound(err) {
		return nil, apperr.NotFound("user not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &user, nil
}

// ListUsers → every account, newest first
func (d *DB) ListUsers(ctx context.Context) ([]models.User, error) {
	users := make([]models.User, 0)
	err := d.Bun.NewSelect().
		Model(&users).
		Order("created_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// UpdateUser → overwrite the mutable profile columns
func (d *DB) UpdateUser(ctx context.Context, user *models.User) error {
	res, err := d.Bun.NewUpdate().
		Model(user).
		Column("name", "email", "password_hash", "role", "student_id", "phone", "updated_at").
		WherePK().
		Exec(ctx)
	if database.IsUniqueViolation(err) {
		return apperr.Conflict("a user with email %s already exists", user.Email)
	}
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("user not found")
	}
	return nil
}

// DeleteUser → hard delete by ID, refused while the user still owns orders, reservations or payments
func (d *DB) DeleteUser(ctx context.Context, id string) error {
	return d.Bun.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for _, owned := range []struct {
			model interface{}
			name  string
		}{
			{(*models.Order)(nil), "orders"},
			{(*models.Reservation)(nil), "reservations"},
			{(*models.Payment)(nil), "payments"},
		} {
			n, err := tx.NewSelect().Model(owned.model).Where("user_id = ?", id).Count(ctx)
			if err != nil {
				return fmt.Errorf("failed to count %s of user: %w", owned.name, err)
			}
			if n > 0 {
				return apperr.Conflict("user %s still has %d %s", id, n, owned.name)
			}
		}

		res, err := tx.NewDelete().
			Model((*models.User)(nil)).
			Where("id = ?", id).
			Exec(ctx)
		if database.IsForeignKeyViolation(err) {
			return apperr.Conflict("user %s still has orders or reservations", id)
		}
		if err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return apperr.NotFound("user not found")
		}
		return nil
	})
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"campus-cafeteria/internal/apperr"
	"campus-cafeteria/internal/auth"
	"campus-cafeteria/internal/config"
	"campus-cafeteria/internal/database"
	"campus-cafeteria/internal/database/migrations"
	"campus-cafeteria/internal/kafka"
	"campus-cafeteria/internal/logger"
	"campus-cafeteria/internal/menu"
	menudb "campus-cafeteria/internal/menu/db"
	"campus-cafeteria/internal/models"
	usersdb "campus-cafeteria/internal/users/db"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/uptrace/bun"
)

type starterItem struct {
	name, description string
	price             float64
	category          models.Category
	diet              models.DietTag
	ingredients       []string
}

var starterMenu = []starterItem{
	{"Chilaquiles verdes", "Totopos bathed in green salsa with cream and cheese", 55, models.CategoryBreakfast, models.DietVegetarian, []string{"tortilla", "salsa verde", "cream", "cheese"}},
	{"Molletes", "Bolillo with beans and melted cheese", 40, models.CategoryBreakfast, models.DietVegetarian, []string{"bolillo", "beans", "cheese"}},
	{"Tacos al pastor", "Three pork tacos with pineapple", 25, models.CategoryLunch, models.DietRegular, []string{"tortilla", "pork", "pineapple"}},
	{"Cochinita pibil", "Slow roasted pork in achiote", 70, models.CategoryLunch, models.DietRegular, []string{"pork", "achiote", "orange"}},
	{"Ensalada de nopales", "Cactus salad with tomato and onion", 45, models.CategoryLunch, models.DietVegan, []string{"nopal", "tomato", "onion"}},
	{"Agua de horchata", "Rice and cinnamon drink", 20, models.CategoryBeverage, models.DietVegan, []string{"rice", "cinnamon"}},
	{"Flan", "Vanilla custard", 30, models.CategoryDessert, models.DietGlutenFree, []string{"egg", "milk", "vanilla"}},
}

func main() {
	reset := flag.Bool("reset", false, "drop every table before seeding")
	flag.Parse()

	log := logger.NewLogger("cafeteria-seed")
	defer log.Close()

	if err := godotenv.Load(); err != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	}
	cfg := config.Load()
	ctx := context.Background()

	bunDB, err := database.Open(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal("DATABASE", err.Error())
	}
	defer bunDB.Close()

	if err := prepare(ctx, cfg.Database, bunDB, *reset, log); err != nil {
		log.Fatal("DATABASE", err.Error())
	}

	if err := seedAdmin(ctx, cfg, bunDB, log); err != nil {
		log.Fatal("SEED", err.Error())
	}
	if err := seedMenu(ctx, bunDB, log); err != nil {
		log.Fatal("SEED", err.Error())
	}
	log.Info("SEED", "✅ Done.")
}

func prepare(ctx context.Context, cfg config.DatabaseConfig, bunDB *bun.DB, reset bool, log *logger.Logger) error {
	if cfg.Driver == database.DriverPostgres && cfg.MigrationsEnabled {
		runner := migrations.NewRunner(bunDB, log)
		if reset {
			log.Info("SEED", "Rolling back migrations...")
			if err := runner.Down(); err != nil {
				return err
			}
		}
		return runner.Up()
	}

	if reset {
		log.Info("SEED", "Dropping tables...")
		if err := database.DropSchema(ctx, bunDB); err != nil {
			return err
		}
	}
	log.Info("SEED", "Creating tables...")
	return database.CreateSchema(ctx, bunDB)
}

func seedAdmin(ctx context.Context, cfg *config.Config, bunDB *bun.DB, log *logger.Logger) error {
	store := &usersdb.DB{Bun: bunDB}
	email := strings.ToLower(getEnv("SEED_ADMIN_EMAIL", "admin@cafeteria.local"))

	if _, err := store.GetUserByEmail(ctx, email); err == nil {
		log.Info("SEED", fmt.Sprintf("Admin %s already exists", email))
		return nil
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return err
	}

	hash, err := auth.HashPassword(getEnv("SEED_ADMIN_PASSWORD", "admin123"), cfg.Auth.BcryptCost)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	admin := &models.User{
		ID:           uuid.New().String(),
		Name:         "Administrator",
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := store.CreateUser(ctx, admin); err != nil {
		return err
	}
	log.Info("SEED", fmt.Sprintf("Created admin %s", email))
	return nil
}

func seedMenu(ctx context.Context, bunDB *bun.DB, log *logger.Logger) error {
	svc := menu.NewMenuService(&menudb.DB{Bun: bunDB}, kafka.NopPublisher{}, log)

	existing, err := svc.ListMenuItems(ctx, models.MenuFilter{})
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		log.Info("SEED", fmt.Sprintf("Menu already has %d items, skipping", len(existing)))
		return nil
	}

	for _, item := range starterMenu {
		price := item.price
		_, err := svc.CreateMenuItem(ctx, models.CreateMenuItemRequest{
			Name:        item.name,
			Description: item.description,
			Price:       &price,
			Category:    item.category,
			Diet:        item.diet,
			Ingredients: item.ingredients,
		})
		if err != nil {
			return fmt.Errorf("failed to seed %s: %w", item.name, err)
		}
	}
	log.Info("SEED", fmt.Sprintf("Seeded %d menu items", len(starterMenu)))
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

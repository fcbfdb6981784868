package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"campus-cafeteria/internal/auth"
	"campus-cafeteria/internal/config"
	"campus-cafeteria/internal/database"
	"campus-cafeteria/internal/database/migrations"
	"campus-cafeteria/internal/kafka"
	"campus-cafeteria/internal/logger"
	"campus-cafeteria/internal/menu"
	menudb "campus-cafeteria/internal/menu/db"
	"campus-cafeteria/internal/menu/menu_api"
	"campus-cafeteria/internal/models"
	"campus-cafeteria/internal/order"
	orderdb "campus-cafeteria/internal/order/db"
	"campus-cafeteria/internal/order/order_api"
	"campus-cafeteria/internal/payment"
	paymentdb "campus-cafeteria/internal/payment/db"
	"campus-cafeteria/internal/payment/payment_api"
	"campus-cafeteria/internal/payment/receipt"
	"campus-cafeteria/internal/refnum"
	"campus-cafeteria/internal/reservation"
	reservationdb "campus-cafeteria/internal/reservation/db"
	"campus-cafeteria/internal/reservation/reservation_api"
	"campus-cafeteria/internal/users"
	usersdb "campus-cafeteria/internal/users/db"
	"campus-cafeteria/internal/users/user_api"
	"campus-cafeteria/internal/utils"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/uptrace/bun"
)

// services bundles everything the router needs.
type services struct {
	Tokens       *auth.TokenManager
	Cache        auth.IdentityCache
	Users        *users.UserService
	Menu         *menu.MenuService
	Orders       *order.OrderService
	Reservations *reservation.ReservationService
	Payments     *payment.PaymentService
}

func buildServices(cfg *config.Config, bunDB *bun.DB, redisClient *redis.Client, events kafka.Publisher, log *logger.Logger) (*services, error) {
	loc := cfg.Business.Location()
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.JWTTTL)

	// a nil *RedisIdentityCache inside the interface would not compare equal to nil
	var cache auth.IdentityCache
	if redisClient != nil {
		cache = auth.NewRedisIdentityCache(redisClient, cfg.Redis.IdentityCacheTTL)
	}

	qr, err := receipt.NewQRGenerator(cfg.Auth.ReceiptSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to create receipt generator: %w", err)
	}

	numbers := refnum.NewGenerator(redisClient, loc, log)
	menuStore := &menudb.DB{Bun: bunDB}
	orderStore := &orderdb.DB{Bun: bunDB}

	return &services{
		Tokens:       tokens,
		Cache:        cache,
		Users:        users.NewUserService(&usersdb.DB{Bun: bunDB}, tokens, cache, events, log, cfg.Auth.BcryptCost),
		Menu:         menu.NewMenuService(menuStore, events, log),
		Orders:       order.NewOrderService(orderStore, menuStore, numbers, events, log),
		Reservations: reservation.NewReservationService(&reservationdb.DB{Bun: bunDB}, numbers, events, log, cfg.Business.SlotCapacity, loc),
		Payments:     payment.NewPaymentService(&paymentdb.DB{Bun: bunDB}, orderStore, qr, events, log),
	}, nil
}

// requestLogger reports every request through the API log category.
func requestLogger(log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			log.LogAPI(r.Method, r.URL.Path, ww.Status(), time.Since(start))
		})
	}
}

func buildRouter(cfg *config.Config, svc *services, log *logger.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.AllowOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	gate := auth.Middleware(svc.Tokens, svc.Users, svc.Cache, log)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteJSON(w, http.StatusOK, map[string]interface{}{
			"message": "Campus cafeteria API",
			"endpoints": map[string]string{
				"users":        "/api/users",
				"menu":         "/api/menus",
				"orders":       "/api/pedidos",
				"reservations": "/api/reservas",
				"payments":     "/api/pagos",
			},
		})
	})

	r.Mount("/api/users", user_api.NewHandler(svc.Users, log).Routes(gate))
	r.Mount("/api/menus", menu_api.NewHandler(svc.Menu, log).Routes(gate))
	r.Mount("/api/pedidos", order_api.NewHandler(svc.Orders, log).Routes(gate))
	r.Mount("/api/reservas", reservation_api.NewHandler(svc.Reservations, log).Routes(gate))
	r.Mount("/api/pagos", payment_api.NewHandler(svc.Payments, log).Routes(gate))
	log.Info("ROUTER", "Routes registered under /api/users, /api/menus, /api/pedidos, /api/reservas and /api/pagos")

	return r
}

func prepareSchema(ctx context.Context, cfg config.DatabaseConfig, bunDB *bun.DB, log *logger.Logger) error {
	if cfg.Driver == database.DriverPostgres && cfg.MigrationsEnabled {
		log.Info("MIGRATION", "Running migrations")
		return migrations.NewRunner(bunDB, log).Up()
	}
	if cfg.AutoMigrate {
		log.Info("DATABASE", "Creating schema from models")
		return database.CreateSchema(ctx, bunDB)
	}
	return nil
}

func main() {
	log := logger.NewLogger("cafeteria")
	defer log.Close()

	log.Info("APP", "Starting campus cafeteria initialization")

	if err := godotenv.Load(); err != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	} else {
		log.Info("CONFIG", "Loaded environment variables from .env file")
	}
	cfg := config.Load()
	ctx := context.Background()

	bunDB, err := database.Open(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal("DATABASE", err.Error())
	}
	defer bunDB.Close()

	if err := prepareSchema(ctx, cfg.Database, bunDB, log); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to prepare schema: %v", err))
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = auth.InitializeRedis(cfg.Redis, log)
		if err != nil {
			log.Warn("REDIS", fmt.Sprintf("Redis unavailable, continuing without identity cache and sequences: %v", err))
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	var events kafka.Publisher = kafka.NopPublisher{}
	if cfg.Kafka.Enabled {
		topics := kafka.Topics(cfg.Kafka.TopicPrefix, models.AllEventTypes)
		if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, topics, log); err != nil {
			log.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
		}
		events = kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicPrefix, log)
		log.Info("KAFKA", "Kafka producer initialized successfully")
	} else {
		log.Info("KAFKA", "Kafka disabled, domain events are dropped")
	}
	defer events.Close()

	svc, err := buildServices(cfg, bunDB, redisClient, events, log)
	if err != nil {
		log.Fatal("APP", err.Error())
	}

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      buildRouter(cfg, svc, log),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP", fmt.Sprintf("🚀 Campus cafeteria running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	log.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-stop

	log.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	ctxShutdown, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	} else {
		log.Info("HTTP", "✅ Campus cafeteria shutdown complete")
	}
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"reservation-backend/config"
	"reservation-backend/internal/api"
	"reservation-backend/internal/booking"
	"reservation-backend/internal/db"
	"reservation-backend/internal/model"
	"reservation-backend/internal/mw"
	"reservation-backend/internal/notify"
	"reservation-backend/internal/store"
)

func main() {
	// Setup logger
	logger := log.New(os.Stdout, "reservation-backend ", log.LstdFlags)

	// A .env file is optional; real environment variables win.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Printf("ignoring unreadable .env file: %v", err)
	}

	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}
	logger.Printf("configuration loaded successfully from %s", configPath)

	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		cfg.Auth.JWTSecret = secret
	}
	if hash := os.Getenv("ADMIN_PASSWORD_HASH"); hash != "" {
		cfg.Auth.AdminPasswordHash = hash
	}
	if err := cfg.Auth.Validate(); err != nil {
		logger.Fatalf("refusing to start with half-configured admin auth: %v", err)
	}

	if err := booking.ValidateConfig(shopDefaults(cfg.Shop)); err != nil {
		logger.Fatalf("invalid shop configuration: %v", err)
	}

	loc, err := time.LoadLocation(cfg.Sweeper.Timezone)
	if err != nil {
		logger.Fatalf("invalid sweeper timezone %q: %v", cfg.Sweeper.Timezone, err)
	}

	// Initialize database
	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		logger.Fatalf("failed to initialize database: %v", err)
	}
	logger.Println("database initialized successfully")

	// Create a context that can be cancelled
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	appStore := store.NewGormStore(gormDB)
	logger.Println("data store initialized")

	// Change notifications: every commit is pushed to WebSocket clients and,
	// when configured, to other instances.
	dispatcher := notify.NewDispatcher(uuid.NewString(), cfg.Notifier.Buffer)
	hub := notify.NewHub()
	dispatcher.AddSink(hub)

	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Printf("redis at %s is unreachable, continuing without cross-instance events: %v", cfg.Redis.Addr, err)
		} else {
			dispatcher.AddSink(notify.NewRedisSink(rdb, cfg.Redis.Channel))
			go notify.RelayFromRedis(ctx, rdb, cfg.Redis.Channel, dispatcher)
			logger.Printf("publishing change events to redis channel %s", cfg.Redis.Channel)
		}
	}
	dispatcher.Start(ctx)

	clock := booking.SystemClock{Location: loc}
	service := booking.NewService(appStore, shopDefaults(cfg.Shop),
		booking.WithClock(clock),
		booking.WithNotifier(dispatcher),
	)

	// Cached responses are keyed by the store version, so commits from other
	// instances retire them even when no event arrives. Local commits also
	// flush the cache before they return.
	responseCache := mw.NewResponseCache(time.Duration(cfg.Server.CacheTTLSeconds)*time.Second, service.Version)
	dispatcher.OnChange(responseCache.Invalidate)
	dispatcher.AddSink(responseCache)

	if cfg.Shop.SeedDefaultTables {
		if _, err := service.SeedTables(ctx, booking.DefaultTables()); err != nil {
			logger.Fatalf("failed to seed default tables: %v", err)
		}
	}

	if cfg.Sweeper.Enabled {
		sweeper := booking.NewSweeper(service, clock, cfg.Sweeper.Interval)
		go sweeper.Run(ctx)
	}

	auth := mw.NewAuth(cfg.Auth.JWTSecret, cfg.Auth.AdminPasswordHash, time.Duration(cfg.Auth.TokenTTLMinutes)*time.Minute)
	if !auth.Enabled() {
		logger.Println("WARNING: auth.jwt_secret and auth.admin_password_hash are empty; admin routes are unprotected")
	}

	// Initialize router
	handler := api.NewHandler(service, clock, auth, hub)
	router := api.NewRouter(handler, api.RouterOptions{
		RateLimitPerSec: cfg.Server.RateLimitPerSec,
		RateLimitBurst:  cfg.Server.RateLimitBurst,
		Cache:           responseCache,
	})
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	// Start the server in a goroutine
	go func() {
		logger.Printf("HTTP server starting on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()

	// Setup signal handling for graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	// Block until a signal is received.
	<-stop
	logger.Println("Shutdown signal received, stopping services...")
	cancel()
	hub.Close()

	// Create a deadline to wait for.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatalf("HTTP server Shutdown: %v", err)
	}

	logger.Println("Server gracefully stopped")
}

func shopDefaults(c config.ShopConfig) model.ShopConfig {
	return model.ShopConfig{
		ID:                        model.ShopConfigID,
		OpenTime:                  c.OpenTime,
		CloseTime:                 c.CloseTime,
		SlotDurationMinutes:       c.SlotDurationMinutes,
		GracePeriodMinutes:        c.GracePeriodMinutes,
		CleaningBufferMinutes:     c.CleaningBufferMinutes,
		MaxSessionDurationMinutes: c.MaxSessionDurationMinutes,
	}
}

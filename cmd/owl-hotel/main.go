package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"owl-hotel/common/database"
	"owl-hotel/common/logger"
	"owl-hotel/common/mqtt"
	commonredis "owl-hotel/common/redis"
	"owl-hotel/internal/config"
	"owl-hotel/internal/events"
	httpapi "owl-hotel/internal/http"
	"owl-hotel/internal/repository"
	"owl-hotel/internal/service"
	"owl-hotel/internal/store"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "owl-hotel")
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// Storage: Postgres when reachable, otherwise the in-memory store
	var db *sql.DB
	var inventoryRepo repository.InventoryRepository
	var bedTypesRepo repository.BedTypesRepository
	if cfg.DBEnabled {
		if d, err := database.NewPostgresDB(&cfg.Database); err == nil {
			db = d
			log.Info("DB enabled for owl-hotel")
		} else {
			log.Warn("DB enabled but connection failed, falling back to memory store", zap.Error(err))
		}
	}
	if db != nil {
		inventoryRepo = repository.NewPostgresInventoryRepository(db)
		bedTypesRepo = repository.NewPostgresBedTypesRepository(db)
	} else {
		inventoryRepo = repository.NewMemoryInventoryRepo()
		bedTypesRepo = repository.NewMemoryBedTypesRepo()
	}

	// Cache + event stream on Redis
	var redisClient *redis.Client
	var kv store.KV
	publishers := events.Multi{}
	if cfg.RedisEnabled {
		pingCtx, pingCancel := context.WithTimeout(context.Background(), 3*time.Second)
		c, err := commonredis.Connect(pingCtx, &cfg.Redis)
		pingCancel()
		if err == nil {
			redisClient = c
			kv = store.NewRedisKV(c)
			publishers = append(publishers, events.NewStreamPublisher(c, cfg.Events.Stream, cfg.Events.MaxLen))
			log.Info("Redis enabled for owl-hotel", zap.String("stream", cfg.Events.Stream))
		} else {
			log.Warn("Redis enabled but unreachable, caching and event stream disabled", zap.Error(err))
		}
	}

	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		c, err := mqtt.NewClient(&cfg.MQTT.MQTTConfig, log)
		if err == nil {
			mqttClient = c
			publishers = append(publishers, events.NewMQTTPublisher(c, cfg.MQTT.TopicPrefix, c.QoS()))
		} else {
			log.Warn("MQTT enabled but connection failed, notifications disabled", zap.Error(err))
		}
	}

	var cache *service.AvailabilityCache
	if kv != nil {
		cache = service.NewAvailabilityCache(kv, time.Duration(cfg.Inventory.CacheTTLSeconds)*time.Second, log)
	}

	resolver := service.NewCapacityResolver(bedTypesRepo, kv, cfg.Inventory.SharingRoomType, cfg.Inventory.DefaultRoomCapacity, log)
	if cfg.Inventory.SeedBedTypes {
		seedCtx, seedCancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := resolver.SeedDefaults(seedCtx); err != nil {
			log.Warn("Failed to seed bed types", zap.Error(err))
		}
		seedCancel()
	}

	inventory := service.NewInventoryService(inventoryRepo, resolver, cache, publishers, log)
	bookings := service.NewBookingService(inventoryRepo, cache, publishers, log)
	availability := service.NewAvailabilityService(inventoryRepo, cache, cfg.Inventory.ReadRetryAttempts, log)

	router := httpapi.NewRouter(httpapi.Handlers{
		Inventory:    httpapi.NewInventoryHandler(inventory, log),
		Bookings:     httpapi.NewBookingHandler(bookings, log),
		Availability: httpapi.NewAvailabilityHandler(availability, log),
	}, cfg.HTTP.CORSAllowedOrigins, log)

	// Background jobs
	scheduler := service.NewScheduler(log)
	if cfg.Booking.CompletionSchedule != "" {
		err := scheduler.AddJob("complete-due-bookings", cfg.Booking.CompletionSchedule, time.Minute, func(ctx context.Context) error {
			n, err := bookings.CompleteDueBookings(ctx, time.Now())
			if n > 0 {
				log.Info("Completed due bookings", zap.Int("count", n))
			}
			return err
		})
		if err != nil {
			log.Fatal("Invalid BOOKING_COMPLETION_SCHEDULE", zap.Error(err))
		}
	}
	if cfg.Directory.BaseURL != "" && cfg.Directory.SyncSchedule != "" {
		client := service.NewDirectoryClient(cfg.Directory.BaseURL, cfg.Directory.Token, time.Duration(cfg.Directory.TimeoutSeconds)*time.Second, log)
		dirSync := service.NewDirectorySync(client, inventory, cfg.Directory.OrganizationID, log)
		err := scheduler.AddJob("directory-sync", cfg.Directory.SyncSchedule, 5*time.Minute, func(ctx context.Context) error {
			res, err := dirSync.Run(ctx)
			if err != nil {
				return err
			}
			log.Info("Directory sync finished",
				zap.Int("hotels", res.Hotels),
				zap.Int("bed_types", res.BedTypes),
				zap.Int("skipped", res.Skipped),
			)
			return nil
		})
		if err != nil {
			log.Fatal("Invalid DIRECTORY_SYNC_SCHEDULE", zap.Error(err))
		}
	}
	scheduler.Start()

	srv := service.NewServer(cfg.HTTP.Addr, router, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		cancel()
	case err := <-errCh:
		if err != nil {
			log.Error("HTTP server stopped", zap.Error(err))
		}
		cancel()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer shutdownCancel()

	scheduler.Stop(shutdownCtx)
	_ = srv.Stop(shutdownCtx)
	if mqttClient != nil {
		mqttClient.Disconnect()
	}
	_ = commonredis.Close(redisClient)
	_ = database.Close(db)
}

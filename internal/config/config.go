package config

import (
	"os"
	"strconv"
	"strings"

	commoncfg "owl-hotel/common/config"
)

// Config owl-hotel (HTTP API) configuration
type Config struct {
	HTTP struct {
		Addr               string
		CORSAllowedOrigins []string
	}
	DBEnabled bool
	Database  commoncfg.DatabaseConfig

	RedisEnabled bool
	Redis        commoncfg.RedisConfig

	Log struct {
		Level  string
		Format string
	}

	MQTT MQTTConfig

	Events struct {
		Stream string
		MaxLen int64
	}

	Inventory InventoryConfig
	Booking   BookingConfig
	Directory DirectoryConfig
}

// MQTTConfig room status notifications (disabled by default)
type MQTTConfig struct {
	Enabled     bool
	TopicPrefix string
	commoncfg.MQTTConfig
}

// InventoryConfig capacity rules and availability cache
type InventoryConfig struct {
	DefaultRoomCapacity int
	SharingRoomType     string
	SeedBedTypes        bool
	CacheTTLSeconds     int
	ReadRetryAttempts   int
}

// BookingConfig booking lifecycle jobs
type BookingConfig struct {
	// cron spec, empty disables the job
	CompletionSchedule string
}

// DirectoryConfig upstream admin API that owns hotels and bed types
type DirectoryConfig struct {
	BaseURL        string
	Token          string
	OrganizationID string
	SyncSchedule   string
	TimeoutSeconds int
}

func Load() *Config {
	cfg := &Config{}
	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8080")
	cfg.HTTP.CORSAllowedOrigins = splitList(getEnv("CORS_ALLOWED_ORIGINS", "*"))

	// Without a reachable DB the service falls back to the in-memory store.
	cfg.DBEnabled = getEnv("DB_ENABLED", "true") == "true"
	cfg.Database = commoncfg.DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "postgres",
		Database: "owlhotel",
		SSLMode:  "disable",
		MaxConns: 20,
		MaxIdle:  5,
	}
	cfg.Database.LoadFromEnv("DB")

	cfg.RedisEnabled = getEnv("REDIS_ENABLED", "true") == "true"
	cfg.Redis = commoncfg.RedisConfig{Addr: "localhost:6379"}
	cfg.Redis.LoadFromEnv("REDIS")

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	cfg.MQTT.Enabled = getEnv("MQTT_ENABLED", "false") == "true"
	cfg.MQTT.MQTTConfig = commoncfg.MQTTConfig{Broker: "tcp://localhost:1883", ClientID: "owl-hotel", QoS: 1}
	cfg.MQTT.MQTTConfig.LoadFromEnv("MQTT")
	cfg.MQTT.TopicPrefix = strings.TrimSuffix(getEnv("MQTT_TOPIC_PREFIX", "owl-hotel"), "/")

	cfg.Events.Stream = getEnv("EVENTS_STREAM", "owl-hotel:inventory-events")
	cfg.Events.MaxLen = int64(parseInt(getEnv("EVENTS_STREAM_MAXLEN", "10000"), 10000))

	cfg.Inventory.DefaultRoomCapacity = parseInt(getEnv("DEFAULT_ROOM_CAPACITY", "2"), 2)
	if cfg.Inventory.DefaultRoomCapacity < 1 {
		cfg.Inventory.DefaultRoomCapacity = 2
	}
	cfg.Inventory.SharingRoomType = strings.ToLower(getEnv("SHARING_ROOM_TYPE", "sharing"))
	cfg.Inventory.SeedBedTypes = getEnv("SEED_BED_TYPES", "true") == "true"
	cfg.Inventory.CacheTTLSeconds = parseInt(getEnv("CACHE_TTL_SECONDS", "60"), 60)
	cfg.Inventory.ReadRetryAttempts = parseInt(getEnv("READ_RETRY_ATTEMPTS", "3"), 3)
	if cfg.Inventory.ReadRetryAttempts < 1 {
		cfg.Inventory.ReadRetryAttempts = 1
	}

	cfg.Booking.CompletionSchedule = getEnv("BOOKING_COMPLETION_SCHEDULE", "5 0 * * *")

	cfg.Directory.BaseURL = strings.TrimSuffix(getEnv("DIRECTORY_BASE_URL", ""), "/")
	cfg.Directory.Token = getEnv("DIRECTORY_TOKEN", "")
	cfg.Directory.OrganizationID = getEnv("DIRECTORY_ORGANIZATION_ID", "")
	cfg.Directory.SyncSchedule = getEnv("DIRECTORY_SYNC_SCHEDULE", "*/30 * * * *")
	cfg.Directory.TimeoutSeconds = parseInt(getEnv("DIRECTORY_TIMEOUT_SECONDS", "10"), 10)

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return i
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

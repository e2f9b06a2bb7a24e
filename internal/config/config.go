package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates all runtime settings required by the application.
type Config struct {
	AppName     string
	Environment string
	HTTP        HTTPConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Kafka       KafkaConfig
	Index       IndexConfig
	Search      SearchConfig
	Collector   CollectorConfig
	Feeds       FeedsConfig
	Detection   DetectionConfig
	Cache       CacheConfig
	Context     ContextConfig
	Logger      LoggerConfig
	Migrations  MigrationsConfig
}

type HTTPConfig struct {
	Host          string
	Port          string
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	IdleTimeout   time.Duration
	MaxConn       int
	EnablePprof   bool
	EnableMetrics bool
}

type DatabaseConfig struct {
	URL             string
	Host            string
	Port            string
	Name            string
	User            string
	Password        string
	MaxOpenConns    int
	MaxIdleConns    int
	MaxConnLifetime time.Duration
	SSLMode         string
}

type RedisConfig struct {
	URL      string
	Password string
	DB       int
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
	GroupID string
	Workers int
}

type IndexConfig struct {
	Path string
}

// SearchConfig selects the engine behind the result cache: "index" serves
// from the embedded projection, "store" straight from postgres.
type SearchConfig struct {
	Engine string
}

// CollectorConfig drives the scheduled feed collections. Schedules use the
// standard cron expression format.
type CollectorConfig struct {
	Enabled                 bool
	InitialRun              bool
	PageSize                int
	MaxPages                int
	CityParkingSchedule     string
	ParkingMetaSchedule     string
	ParkingRealtimeSchedule string
	ChargerMetaSchedule     string
	ChargerStatusSchedule   string
}

type FeedsConfig struct {
	CityParkingURL string
	CityAPIKey     string
	TSParkingURL   string
	TSAPIKey       string
	ChargerURL     string
	ChargerAPIKey  string
	RequestTimeout time.Duration
}

type DetectionConfig struct {
	IdentityTTL     time.Duration
	OperationTTL    time.Duration
	AvailabilityTTL time.Duration
}

type CacheConfig struct {
	TTL time.Duration
}

type ContextConfig struct {
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

type LoggerConfig struct {
	Level    string
	Encoding string
}

type MigrationsConfig struct {
	Enabled bool
	Path    string
}

// Load reads configuration from environment variables (optionally .env)
// and applies sane defaults so the service can boot in any environment.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := &Config{
		AppName:     getString("APP_NAME", "spotsync"),
		Environment: getString("APP_ENV", "development"),
		HTTP: HTTPConfig{
			Host:          getString("SERVER_HOST", "0.0.0.0"),
			Port:          getString("SERVER_PORT", "8080"),
			ReadTimeout:   getDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:  getDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
			IdleTimeout:   getDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
			MaxConn:       getInt("SERVER_MAX_CONN", 0),
			EnablePprof:   getBool("SERVER_ENABLE_PPROF", false),
			EnableMetrics: getBool("SERVER_ENABLE_METRICS", true),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			Host:            getString("DB_HOST", "localhost"),
			Port:            getString("DB_PORT", "5432"),
			Name:            getString("DB_NAME", "spotsync_db"),
			User:            getString("DB_USER", "spotsync_user"),
			Password:        os.Getenv("DB_PASSWORD"),
			MaxOpenConns:    getInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getInt("DB_MAX_IDLE_CONNS", 10),
			MaxConnLifetime: getDuration("DB_CONN_LIFETIME", time.Hour),
			SSLMode:         getString("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			URL:      getString("REDIS_URL", "redis://localhost:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getInt("REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Brokers: getStringSlice("KAFKA_BROKERS", []string{"localhost:9092"}),
			Topic:   getString("KAFKA_TOPIC", "facility-events"),
			GroupID: getString("KAFKA_GROUP_ID", "facility-reconciler"),
			Workers: getInt("KAFKA_WORKERS", 3),
		},
		Index: IndexConfig{
			Path: getString("INDEX_PATH", "./data/searchindex.db"),
		},
		Search: SearchConfig{
			Engine: getString("SEARCH_ENGINE", "index"),
		},
		Collector: CollectorConfig{
			Enabled:                 getBool("COLLECTOR_ENABLED", true),
			InitialRun:              getBool("COLLECTOR_INITIAL_RUN", true),
			PageSize:                getInt("COLLECTOR_PAGE_SIZE", 100),
			MaxPages:                getInt("COLLECTOR_MAX_PAGES", 100),
			CityParkingSchedule:     getString("CITY_PARKING_SCHEDULE", "*/10 * * * *"),
			ParkingMetaSchedule:     getString("PARKING_META_SCHEDULE", "0 4 * * *"),
			ParkingRealtimeSchedule: getString("PARKING_REALTIME_SCHEDULE", "*/5 * * * *"),
			ChargerMetaSchedule:     getString("CHARGER_META_SCHEDULE", "30 4 * * *"),
			ChargerStatusSchedule:   getString("CHARGER_STATUS_SCHEDULE", "*/2 * * * *"),
		},
		Feeds: FeedsConfig{
			CityParkingURL: os.Getenv("CITY_PARKING_URL"),
			CityAPIKey:     os.Getenv("CITY_PARKING_API_KEY"),
			TSParkingURL:   os.Getenv("TS_PARKING_URL"),
			TSAPIKey:       os.Getenv("TS_PARKING_API_KEY"),
			ChargerURL:     os.Getenv("CHARGER_URL"),
			ChargerAPIKey:  os.Getenv("CHARGER_API_KEY"),
			RequestTimeout: getDuration("FEED_REQUEST_TIMEOUT", 30*time.Second),
		},
		Detection: DetectionConfig{
			IdentityTTL:     getDuration("FP_IDENTITY_TTL", 7*24*time.Hour),
			OperationTTL:    getDuration("FP_OPERATION_TTL", 7*24*time.Hour),
			AvailabilityTTL: getDuration("FP_AVAILABILITY_TTL", 10*time.Minute),
		},
		Cache: CacheConfig{
			TTL: getDuration("SEARCH_CACHE_TTL", time.Minute),
		},
		Context: ContextConfig{
			RequestTimeout:  getDuration("REQUEST_TIMEOUT_SECONDS", 5*time.Second),
			ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT_SECONDS", 15*time.Second),
		},
		Logger: LoggerConfig{
			Level:    getString("LOG_LEVEL", "info"),
			Encoding: getString("LOG_ENCODING", "json"),
		},
		Migrations: MigrationsConfig{
			Enabled: getBool("RUN_MIGRATIONS", true),
			Path:    getString("MIGRATIONS_PATH", "./assets/migrations"),
		},
	}

	if cfg.Database.URL == "" {
		cfg.Database.URL = buildPostgresURL(cfg)
	}

	return cfg, nil
}

// MustLoad panics if configuration cannot be loaded.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

func buildPostgresURL(cfg *Config) string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.Name,
		cfg.Database.SSLMode,
	)
}

func getString(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getStringSlice(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parts := strings.Split(val, ",")
	out := parts[:0]
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

func getInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
		if seconds, err := strconv.Atoi(val); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return fallback
}

// Address returns the HTTP listen address for the fasthttp server.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%s", c.HTTP.Host, c.HTTP.Port)
}

package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Драйверы хранилища
const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

type Config struct {
	DBDSN           string
	Environment     string
	LogLevel        string
	HTTPAddr        string
	StoreDriver     string
	JWTSecret       string
	AdminGroup      string
	ReferenceDate   time.Time
	DefaultTimezone string
	MigrationsAuto  bool
	SeedFile        string
}

// Load читает .env (если есть) и переменные окружения
func Load() (*Config, error) {
	// Пытаемся загрузить .env файл (игнорируем ошибку, если файла нет)
	if err := godotenv.Load(".env"); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	return FromEnv(os.Getenv)
}

// FromEnv собирает конфиг из функции чтения переменных и проверяет его
func FromEnv(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		DBDSN:           getenv("DB_DSN"),
		Environment:     withDefault(getenv("ENV"), "development"),
		LogLevel:        withDefault(getenv("LOG_LEVEL"), "info"),
		HTTPAddr:        withDefault(getenv("HTTP_ADDR"), ":8080"),
		StoreDriver:     strings.ToLower(withDefault(getenv("STORE_DRIVER"), StoreDriverPostgres)),
		JWTSecret:       getenv("JWT_SECRET"),
		AdminGroup:      withDefault(getenv("ADMIN_GROUP"), "admin"),
		DefaultTimezone: withDefault(getenv("DEFAULT_TIMEZONE"), "UTC"),
		SeedFile:        getenv("SEED_FILE"),
	}

	ref, err := time.Parse("2006-01-02", withDefault(getenv("SCHEDULE_REFERENCE_DATE"), "2024-01-07"))
	if err != nil {
		return nil, fmt.Errorf("parse SCHEDULE_REFERENCE_DATE: %w", err)
	}
	cfg.ReferenceDate = ref

	cfg.MigrationsAuto = true
	if v := getenv("MIGRATIONS_AUTO"); v != "" {
		auto, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("parse MIGRATIONS_AUTO: %w", err)
		}
		cfg.MigrationsAuto = auto
	}

	// Проверяем обязательные поля
	switch cfg.StoreDriver {
	case StoreDriverPostgres:
		if cfg.DBDSN == "" {
			return nil, fmt.Errorf("DB_DSN is required but not set")
		}
	case StoreDriverMemory:
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}

	return cfg, nil
}

func withDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

package config

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata" // APP_TIMEZONE должен работать и в образах без системной tzdata

	"github.com/joho/godotenv"
)

// ServerConfig — настройки сервиса, отдающего снимок занятых слотов.
type ServerConfig struct {
	Env         string
	LogLevel    string
	HTTPAddr    string
	GRPCAddr    string
	HorizonDays int // на сколько дней вперёд отдаётся снимок
	Timezone    string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	ShutdownTimeout time.Duration

	// Origins, с которых виджет может читать снимок из браузера. "*" — любой.
	CORSAllowedOrigins []string
}

// LoadEnvFile подгружает .env, если он есть. Уже заданные переменные не перезаписываются.
func LoadEnvFile(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	var loaded []string
	for _, p := range paths {
		if err := godotenv.Load(p); err == nil {
			loaded = append(loaded, p)
		}
	}
	if len(loaded) == 0 {
		return fmt.Errorf("no env file found in %v", paths)
	}
	return nil
}

func LoadServerConfig() (*ServerConfig, error) {
	cfg := &ServerConfig{
		Env:             getEnv("APP_ENV", "development"),
		LogLevel:        getEnv("LOG_LEVEL", ""),
		HTTPAddr:        getEnv("HTTP_ADDR", ":8080"),
		GRPCAddr:        getEnv("GRPC_ADDR", ":50051"),
		HorizonDays:     getEnvInt("BOOKING_HORIZON_DAYS", 90),
		Timezone:        getEnv("APP_TIMEZONE", "Europe/Moscow"),
		RedisAddr:       getEnv("REDIS_ADDR", ""),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		RedisDB:         getEnvInt("REDIS_DB", 0),
		CacheTTL:        getEnvDuration("CACHE_TTL", 5*time.Minute),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),

		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "")),
	}

	if cfg.HorizonDays <= 0 {
		return nil, fmt.Errorf("invalid server config: BOOKING_HORIZON_DAYS must be positive, got %d", cfg.HorizonDays)
	}
	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		return nil, fmt.Errorf("invalid server config: APP_TIMEZONE: %w", err)
	}

	return cfg, nil
}

// Location возвращает часовой пояс сервиса (UTC при ошибке).
func (c *ServerConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

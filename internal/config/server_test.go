package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadServerConfig_Defaults(t *testing.T) {
	for _, key := range []string{"APP_ENV", "HTTP_ADDR", "GRPC_ADDR", "BOOKING_HORIZON_DAYS", "REDIS_ADDR", "CACHE_TTL", "APP_TIMEZONE"} {
		if err := os.Unsetenv(key); err != nil {
			t.Fatalf("failed to unset %s: %v", key, err)
		}
	}

	cfg, err := LoadServerConfig()
	if err != nil {
		t.Fatalf("LoadServerConfig returned error: %v", err)
	}
	if cfg.HTTPAddr != ":8080" || cfg.GRPCAddr != ":50051" {
		t.Fatalf("unexpected default addresses: %q %q", cfg.HTTPAddr, cfg.GRPCAddr)
	}
	if cfg.HorizonDays != 90 {
		t.Fatalf("expected default horizon 90, got %d", cfg.HorizonDays)
	}
	if cfg.CacheTTL != 5*time.Minute {
		t.Fatalf("expected default cache TTL 5m, got %s", cfg.CacheTTL)
	}
	if cfg.RedisAddr != "" {
		t.Fatalf("expected cache disabled by default, got %q", cfg.RedisAddr)
	}
}

func TestLoadServerConfig_InvalidValues(t *testing.T) {
	t.Run("horizon", func(t *testing.T) {
		t.Setenv("BOOKING_HORIZON_DAYS", "-3")
		if _, err := LoadServerConfig(); err == nil {
			t.Fatalf("expected error for negative horizon")
		}
	})

	t.Run("timezone", func(t *testing.T) {
		t.Setenv("APP_TIMEZONE", "Mars/Olympus")
		if _, err := LoadServerConfig(); err == nil {
			t.Fatalf("expected error for unknown timezone")
		}
	})

	t.Run("bad duration keeps default", func(t *testing.T) {
		t.Setenv("CACHE_TTL", "soon")
		cfg, err := LoadServerConfig()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.CacheTTL != 5*time.Minute {
			t.Fatalf("expected default TTL, got %s", cfg.CacheTTL)
		}
	})
}

func TestLoadServerConfig_CORSOrigins(t *testing.T) {
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.example, ,https://b.example ")
	cfg, err := LoadServerConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://b.example" {
		t.Fatalf("unexpected origins %q", cfg.CORSAllowedOrigins)
	}
}

func TestLoadDBConfig_Drivers(t *testing.T) {
	t.Run("sqlite", func(t *testing.T) {
		t.Setenv("DB_DRIVER", DriverSQLite)
		t.Setenv("DB_SQLITE_PATH", "file::memory:")
		cfg, err := LoadDBConfig()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.SQLitePath != "file::memory:" {
			t.Fatalf("unexpected sqlite path %q", cfg.SQLitePath)
		}
	})

	t.Run("unknown", func(t *testing.T) {
		t.Setenv("DB_DRIVER", "oracle")
		if _, err := LoadDBConfig(); err == nil {
			t.Fatalf("expected error for unknown driver")
		}
	})

	t.Run("postgres dsn", func(t *testing.T) {
		t.Setenv("DB_DRIVER", DriverPostgres)
		t.Setenv("DB_HOST", "db")
		t.Setenv("DB_PORT", "6543")
		cfg, err := LoadDBConfig()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := "host=db user=booking password=booking dbname=booking_db port=6543 sslmode=disable TimeZone=Europe/Moscow"
		if cfg.PostgresDSN() != want {
			t.Fatalf("unexpected DSN %q", cfg.PostgresDSN())
		}
	})
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("BOOKING_TEST_FROM_ENV_FILE=yes\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Cleanup(func() { os.Unsetenv("BOOKING_TEST_FROM_ENV_FILE") })

	if err := LoadEnvFile(path); err != nil {
		t.Fatalf("LoadEnvFile: %v", err)
	}
	if os.Getenv("BOOKING_TEST_FROM_ENV_FILE") != "yes" {
		t.Fatalf("expected variable from env file")
	}
	if err := LoadEnvFile(filepath.Join(dir, "missing.env")); err == nil {
		t.Fatalf("expected error for missing env file")
	}
}

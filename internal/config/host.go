package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	hostEnvPrefix        = "BOOKING_CALENDAR"
	keyRefreshInterval   = "refresh-interval"
	keyTimezone          = "timezone"
	keyEnv               = "env"
	keyLogLevel          = "log-level"
	defaultHostConfigDir = "."
)

// Host — настройки терминального хоста виджета: атрибуты и то, чего нет в атрибутах.
type Host struct {
	Attributes      map[string]string
	RefreshInterval time.Duration
	Timezone        string
	Env             string
	LogLevel        string
}

// LoadHost читает файл хоста (booking-calendar.yaml/json/toml в dir или явный path)
// и переменные окружения BOOKING_CALENDAR_*. Файл необязателен.
// Ключи файла совпадают с именами атрибутов: work-hours, slot-duration, ...
// Значения могут быть строками или структурами YAML: они приводятся к JSON.
func LoadHost(path string) (*Host, error) {
	v := viper.New()
	v.SetEnvPrefix(hostEnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault(keyRefreshInterval, "0s")
	v.SetDefault(keyEnv, "development")
	v.SetDefault(keyLogLevel, "")
	v.SetDefault(keyTimezone, "")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("booking-calendar")
		v.AddConfigPath(defaultHostConfigDir)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read host config: %w", err)
		}
	}

	h := &Host{
		Attributes: make(map[string]string, len(Attributes)),
		Timezone:   v.GetString(keyTimezone),
		Env:        v.GetString(keyEnv),
		LogLevel:   v.GetString(keyLogLevel),
	}
	for _, attr := range Attributes {
		raw := v.Get(attr)
		if raw == nil {
			continue
		}
		s, err := attributeString(raw)
		if err != nil {
			return nil, fmt.Errorf("host config %s: %w", attr, err)
		}
		h.Attributes[attr] = s
	}

	interval, err := time.ParseDuration(v.GetString(keyRefreshInterval))
	if err != nil || interval < 0 {
		return nil, fmt.Errorf("host config %s: invalid duration %q", keyRefreshInterval, v.GetString(keyRefreshInterval))
	}
	h.RefreshInterval = interval

	return h, nil
}

// Widget собирает конфигурацию виджета из атрибутов хоста.
func (h *Host) Widget(logger *zap.Logger) (Widget, error) {
	cfg := ParseWidgetAttributes(h.Attributes, logger)
	cfg.RefreshInterval = h.RefreshInterval
	if h.Timezone != "" {
		loc, err := time.LoadLocation(h.Timezone)
		if err != nil {
			return Widget{}, fmt.Errorf("host config %s: %w", keyTimezone, err)
		}
		cfg.Location = loc
	}
	return cfg, nil
}

func attributeString(raw any) (string, error) {
	if s, ok := raw.(string); ok {
		return s, nil
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

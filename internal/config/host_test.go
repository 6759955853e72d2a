package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/zaviruha/bookingcalendar/internal/calendar"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadHost_YAMLStructuredValues(t *testing.T) {
	path := writeFile(t, "booking-calendar.yaml", `
work-hours:
  start: 9
  end: 18
slot-duration: 45
locale: en-US
booked-slots:
  "2024-06-10": ["14:00", "15:30"]
refresh-interval: 30s
timezone: Europe/Moscow
`)

	host, err := LoadHost(path)
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, host.RefreshInterval)
	assert.Equal(t, "45", host.Attributes[AttrSlotDuration])

	cfg, err := host.Widget(zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, calendar.WorkingHours{Start: 9, End: 18}, cfg.WorkHours)
	assert.Equal(t, 45, cfg.SlotDuration)
	assert.Equal(t, "en-US", cfg.Locale)
	assert.Equal(t, calendar.BookedSlots{"2024-06-10": {"14:00", "15:30"}}, cfg.BookedSlots)
	assert.Equal(t, 30*time.Second, cfg.RefreshInterval)
	assert.Equal(t, "Europe/Moscow", cfg.Location.String())
}

func TestLoadHost_EnvOverridesFile(t *testing.T) {
	path := writeFile(t, "booking-calendar.json", `{"slot-duration": 20, "api-url": "http://file.example/slots"}`)
	t.Setenv("BOOKING_CALENDAR_SLOT_DURATION", "15")
	t.Setenv("BOOKING_CALENDAR_WORK_HOURS", `{"start":8,"end":12}`)

	host, err := LoadHost(path)
	require.NoError(t, err)

	cfg, err := host.Widget(nil)
	require.NoError(t, err)
	assert.Equal(t, 15, cfg.SlotDuration)
	assert.Equal(t, calendar.WorkingHours{Start: 8, End: 12}, cfg.WorkHours)
	assert.Equal(t, "http://file.example/slots", cfg.RemoteSource)
}

func TestLoadHost_Errors(t *testing.T) {
	_, err := LoadHost(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err, "explicit path must exist")

	bad := writeFile(t, "booking-calendar.yaml", "refresh-interval: soon\n")
	_, err = LoadHost(bad)
	assert.Error(t, err)

	tz := writeFile(t, "booking-calendar.yaml", "timezone: Mars/Olympus\n")
	host, err := LoadHost(tz)
	require.NoError(t, err)
	_, err = host.Widget(nil)
	assert.Error(t, err)
}

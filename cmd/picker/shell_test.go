package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zaviruha/bookingcalendar/internal/calendar"
	"github.com/zaviruha/bookingcalendar/internal/config"
	"github.com/zaviruha/bookingcalendar/internal/picker"
)

func newTestShell(t *testing.T, script string) (*shell, *bytes.Buffer) {
	t.Helper()
	cfg := config.DefaultWidget()
	cfg.Location = time.UTC
	cfg.BookedSlots = calendar.BookedSlots{"2024-06-10": {"14:30"}}

	now := time.Date(2024, time.June, 10, 9, 0, 0, 0, time.UTC)
	w := picker.New(cfg, picker.WithClock(func() time.Time { return now }))
	t.Cleanup(w.Teardown)

	var out bytes.Buffer
	sh := newShell(w, strings.NewReader(script), &out)
	w.OnEvent(sh.printEvent)
	w.Init(context.Background())
	return sh, &out
}

func TestShell_SelectAndGet(t *testing.T) {
	sh, out := newTestShell(t, "date 2024-06-10\ntime 14:30\ntime 14:00\nget\nquit\nshow\n")

	require.NoError(t, sh.run(context.Background()))

	got := out.String()
	assert.Contains(t, got, "event date-selected 2024-06-10")
	assert.Contains(t, got, "slot 14:30 is not available")
	assert.Contains(t, got, "event time-selected 2024-06-10T14:00")
	assert.Contains(t, got, `{"date":"2024-06-10","time":"14:00","datetime":"2024-06-10T14:00"}`)
	assert.Contains(t, got, "> понедельник, 10 июня в 14:00")
}

func TestShell_BadInputAndReset(t *testing.T) {
	sh, out := newTestShell(t, "date 10.06.2024\ntime 10:00\nfly\nreset\nget\n")

	require.NoError(t, sh.run(context.Background()), "EOF ends the session")

	got := out.String()
	assert.Contains(t, got, "invalid date")
	assert.Contains(t, got, "slot 10:00 is not available")
	assert.Contains(t, got, `unknown command "fly"`)
	assert.True(t, strings.HasSuffix(strings.TrimSuffix(got, "> "), "null\n"))
}

func TestShell_CancelledContextStops(t *testing.T) {
	sh, out := newTestShell(t, "next\n")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, sh.run(ctx))
	assert.NotContains(t, out.String(), "> ")
}

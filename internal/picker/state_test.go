package picker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/zaviruha/bookingcalendar/internal/calendar"
)

func TestState_Transitions(t *testing.T) {
	day := calendar.NewDate(2024, time.June, 10)
	slots := []calendar.TimeSlot{
		{Time: "13:00", Status: calendar.SlotPast},
		{Time: "14:00", Status: calendar.SlotAvailable},
		{Time: "14:30", Status: calendar.SlotBooked},
	}

	s := NewState(day)
	assert.Equal(t, PhaseIdle, s.Phase())
	assert.Equal(t, calendar.NewDate(2024, time.June, 1), s.Cursor)

	_, ok := s.WithTime("14:00", slots)
	assert.False(t, ok, "time without date")

	s, ok = s.WithDate(day)
	assert.True(t, ok)
	assert.Equal(t, PhaseDateChosen, s.Phase())

	for _, clock := range []string{"13:00", "14:30", "15:00"} {
		next, ok := s.WithTime(clock, slots)
		assert.False(t, ok, clock)
		assert.Equal(t, s, next)
	}

	s, ok = s.WithTime("14:00", slots)
	assert.True(t, ok)
	assert.Equal(t, PhaseTimeChosen, s.Phase())

	sel, ok := s.Selection()
	assert.True(t, ok)
	assert.Equal(t, "2024-06-10T14:00", sel.DateTime)

	s.Loading = true
	s = s.Reset(calendar.NewDate(2024, time.July, 2))
	assert.Equal(t, PhaseIdle, s.Phase())
	assert.Equal(t, calendar.NewDate(2024, time.July, 1), s.Cursor)
	assert.True(t, s.Loading)
}

func TestPhase_String(t *testing.T) {
	assert.Equal(t, "idle", PhaseIdle.String())
	assert.Equal(t, "date_chosen", PhaseDateChosen.String())
	assert.Equal(t, "time_chosen", PhaseTimeChosen.String())
}

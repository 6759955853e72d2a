package source

import (
	"context"

	"github.com/zaviruha/bookingcalendar/internal/calendar"
)

// Source — откуда виджет берёт снимок занятых слотов.
type Source interface {
	Fetch(ctx context.Context) (calendar.BookedSlots, error)
}

// Static отдаёт встроенный снимок, переданный хостом.
type Static struct {
	slots calendar.BookedSlots
}

func NewStatic(slots calendar.BookedSlots) *Static {
	return &Static{slots: slots.Clone()}
}

func (s *Static) Fetch(ctx context.Context) (calendar.BookedSlots, error) {
	return s.slots.Clone(), nil
}

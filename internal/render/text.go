// Package render рисует состояние виджета текстом для терминального хоста.
package render

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/zaviruha/bookingcalendar/internal/calendar"
	"github.com/zaviruha/bookingcalendar/internal/picker"
)

const (
	cellWidth    = 5
	slotsPerLine = 6
)

// View — то, что рендереру нужно от виджета. *picker.Widget его реализует.
type View interface {
	MonthTitle() string
	WeekdayHeaders() []string
	Cells() []calendar.Cell
	Slots() []calendar.TimeSlot
	State() picker.State
	SelectedLabel() string
}

// Text пишет месяц, слоты выбранной даты и подпись выбора.
// Легенда: [10] выбранный день, 10* сегодня, (10) прошедший;
// у слотов * выбран, x занят, - прошёл.
func Text(w io.Writer, v View) error {
	var b strings.Builder

	state := v.State()
	title := v.MonthTitle()
	if state.Loading {
		title += " …"
	}
	b.WriteString(center(title, cellWidth*7))
	b.WriteByte('\n')

	for _, h := range v.WeekdayHeaders() {
		b.WriteString(padLeft(h, cellWidth))
	}
	b.WriteByte('\n')

	cells := v.Cells()
	for i, c := range cells {
		b.WriteString(padLeft(dayCell(c), cellWidth))
		if i%7 == 6 || i == len(cells)-1 {
			b.WriteByte('\n')
		}
	}

	if slots := v.Slots(); slots != nil {
		b.WriteByte('\n')
		for i, s := range slots {
			b.WriteString(s.Time)
			b.WriteString(slotMarker(s.Status))
			if i%slotsPerLine == slotsPerLine-1 || i == len(slots)-1 {
				b.WriteByte('\n')
			} else {
				b.WriteByte(' ')
			}
		}
	}

	if label := v.SelectedLabel(); label != "" {
		b.WriteString("\n> ")
		b.WriteString(label)
		b.WriteByte('\n')
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func dayCell(c calendar.Cell) string {
	if c.Kind == calendar.CellBlank {
		return ""
	}
	switch {
	case c.IsSelected:
		return fmt.Sprintf("[%d]", c.Day)
	case c.IsToday:
		return fmt.Sprintf("%d*", c.Day)
	case c.IsPast:
		return fmt.Sprintf("(%d)", c.Day)
	default:
		return fmt.Sprintf("%d ", c.Day)
	}
}

func slotMarker(s calendar.SlotStatus) string {
	switch s {
	case calendar.SlotSelected:
		return "*"
	case calendar.SlotBooked:
		return "x"
	case calendar.SlotPast:
		return "-"
	default:
		return " "
	}
}

// padLeft выравнивает по числу рун: в подписях есть кириллица.
func padLeft(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n >= width {
		return s
	}
	return strings.Repeat(" ", width-n) + s
}

func center(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n >= width {
		return s
	}
	return strings.Repeat(" ", (width-n)/2) + s
}

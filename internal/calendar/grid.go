package calendar

import "time"

// CellKind различает пустые ячейки перед первым днём и ячейки дней.
type CellKind int

const (
	CellBlank CellKind = iota
	CellDay
)

// Cell — ячейка сетки месяца. Сетка пересчитывается целиком, по месту не меняется.
type Cell struct {
	Kind       CellKind `json:"kind"`
	Day        int      `json:"day,omitempty"`
	Date       Date     `json:"-"`
	IsToday    bool     `json:"is_today,omitempty"`
	IsPast     bool     `json:"is_past,omitempty"`
	IsSelected bool     `json:"is_selected,omitempty"`
}

// Clickable — ячейку можно предложить пользователю для выбора.
func (c Cell) Clickable() bool {
	return c.Kind == CellDay && !c.IsPast
}

// WeekdayIndex переводит день недели из нумерации с воскресенья (0)
// в нумерацию с понедельника: пн=0 … вс=6.
func WeekdayIndex(w time.Weekday) int {
	if w == time.Sunday {
		return 6
	}
	return int(w) - 1
}

// Layout строит сетку месяца курсора: 7 колонок, неделя с понедельника.
// Сначала пустые ячейки до первого числа, затем по ячейке на день.
// Хвостовые пустые ячейки не добавляются.
func Layout(cursor Date, selected Date, today Date) []Cell {
	first := cursor.FirstOfMonth()
	blanks := WeekdayIndex(first.Weekday())
	days := first.DaysInMonth()

	cells := make([]Cell, 0, blanks+days)
	for i := 0; i < blanks; i++ {
		cells = append(cells, Cell{Kind: CellBlank})
	}
	for day := 1; day <= days; day++ {
		d := Date{Year: first.Year, Month: first.Month, Day: day}
		cells = append(cells, Cell{
			Kind:       CellDay,
			Day:        day,
			Date:       d,
			IsToday:    d == today,
			IsPast:     d.Before(today),
			IsSelected: !selected.IsZero() && d == selected,
		})
	}
	return cells
}

package calendar

import "sort"

// BookedSlots — снимок занятых слотов: дата YYYY-MM-DD → список HH:MM.
// JSON-форма совпадает с ответом удалённого источника.
// Снимок принадлежит хосту и по месту не меняется: только целиком заменяется.
type BookedSlots map[string][]string

// Clone делает глубокую копию, чтобы не делить срезы с хостом.
func (b BookedSlots) Clone() BookedSlots {
	out := make(BookedSlots, len(b))
	for date, times := range b {
		cp := make([]string, len(times))
		copy(cp, times)
		out[date] = cp
	}
	return out
}

// Times возвращает занятые времена даты d (nil, если их нет).
func (b BookedSlots) Times(d Date) []string {
	if b == nil {
		return nil
	}
	return b[d.String()]
}

func (b BookedSlots) IsBooked(d Date, clock string) bool {
	for _, t := range b.Times(d) {
		if t == clock {
			return true
		}
	}
	return false
}

// Normalize возвращает копию без некорректных ключей и значений
// и список отброшенных записей в виде «дата» или «дата time».
func (b BookedSlots) Normalize() (BookedSlots, []string) {
	out := make(BookedSlots, len(b))
	var dropped []string

	dates := make([]string, 0, len(b))
	for date := range b {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	for _, date := range dates {
		if _, err := ParseDate(date); err != nil {
			dropped = append(dropped, date)
			continue
		}
		times := make([]string, 0, len(b[date]))
		for _, t := range b[date] {
			if _, _, err := ParseClock(t); err != nil {
				dropped = append(dropped, date+" "+t)
				continue
			}
			times = append(times, t)
		}
		out[date] = times
	}
	return out, dropped
}

// Add добавляет время clock к дате d, пропуская дубли.
func (b BookedSlots) Add(d Date, clock string) {
	key := d.String()
	for _, t := range b[key] {
		if t == clock {
			return
		}
	}
	b[key] = append(b[key], clock)
}

package picker

import "github.com/zaviruha/bookingcalendar/internal/calendar"

// Phase — этап выбора, определяется парой (дата, время).
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseDateChosen
	PhaseTimeChosen
)

func (p Phase) String() string {
	switch p {
	case PhaseDateChosen:
		return "date_chosen"
	case PhaseTimeChosen:
		return "time_chosen"
	default:
		return "idle"
	}
}

// State — состояние выбора. Нулевая дата и пустое время означают «не выбрано».
// Время задано только вместе с датой.
type State struct {
	Cursor       calendar.Date // важны только год и месяц
	SelectedDate calendar.Date
	SelectedTime string
	Loading      bool
}

// Selection — итог выбора, который хост забирает через SelectedDateTime.
type Selection struct {
	Date     string `json:"date"`
	Time     string `json:"time"`
	DateTime string `json:"datetime"`
}

// NewState возвращает начальное состояние: курсор на сегодняшнем месяце, ничего не выбрано.
func NewState(today calendar.Date) State {
	return State{Cursor: today.FirstOfMonth()}
}

func (s State) Phase() Phase {
	switch {
	case s.SelectedDate.IsZero():
		return PhaseIdle
	case s.SelectedTime == "":
		return PhaseDateChosen
	default:
		return PhaseTimeChosen
	}
}

// Navigate сдвигает курсор на delta месяцев. Выбор не трогает.
func (s State) Navigate(delta int) State {
	s.Cursor = s.Cursor.AddMonths(delta)
	return s
}

// WithDate выбирает дату и всегда сбрасывает время.
func (s State) WithDate(d calendar.Date) (State, bool) {
	if !d.Valid() {
		return s, false
	}
	s.SelectedDate = d
	s.SelectedTime = ""
	return s, true
}

// WithTime выбирает время среди slots выбранной даты. Занятые и прошедшие слоты
// и время вне сетки отклоняются.
func (s State) WithTime(clock string, slots []calendar.TimeSlot) (State, bool) {
	if s.SelectedDate.IsZero() {
		return s, false
	}
	slot, ok := calendar.FindSlot(slots, clock)
	if !ok || !slot.Status.Selectable() {
		return s, false
	}
	s.SelectedTime = clock
	return s, true
}

// Reset возвращает состояние к начальному относительно today. Флаг загрузки
// относится к запросу, а не к выбору, и сохраняется.
func (s State) Reset(today calendar.Date) State {
	next := NewState(today)
	next.Loading = s.Loading
	return next
}

// Selection возвращает выбор только на этапе PhaseTimeChosen.
func (s State) Selection() (Selection, bool) {
	if s.Phase() != PhaseTimeChosen {
		return Selection{}, false
	}
	return Selection{
		Date:     s.SelectedDate.String(),
		Time:     s.SelectedTime,
		DateTime: calendar.CombineDateTime(s.SelectedDate, s.SelectedTime),
	}, true
}

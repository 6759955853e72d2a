package calendar

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidDate  = errors.New("invalid date")
	ErrInvalidClock = errors.New("invalid time of day")
)

const (
	dateLayout  = "2006-01-02"
	clockLayout = "15:04"
)

// Date — календарная дата без времени суток и часового пояса.
// Нулевое значение означает «дата не выбрана».
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDate нормализует переполнения (31 февраля → 3 марта) так же, как time.Date.
func NewDate(year int, month time.Month, day int) Date {
	return DateOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// DateOf берёт гражданскую дату из t в его собственном часовом поясе.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate разбирает строку формата YYYY-MM-DD.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return DateOf(t), nil
}

func (d Date) IsZero() bool {
	return d == Date{}
}

// Valid сообщает, что дата существует в календаре.
func (d Date) Valid() bool {
	if d.IsZero() {
		return false
	}
	return NewDate(d.Year, d.Month, d.Day) == d
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// At возвращает абсолютный момент hour:minute этой даты в поясе loc.
func (d Date) At(hour, minute int, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return time.Date(d.Year, d.Month, d.Day, hour, minute, 0, 0, loc)
}

func (d Date) Before(other Date) bool {
	if d.Year != other.Year {
		return d.Year < other.Year
	}
	if d.Month != other.Month {
		return d.Month < other.Month
	}
	return d.Day < other.Day
}

func (d Date) Weekday() time.Weekday {
	return d.At(0, 0, time.UTC).Weekday()
}

func (d Date) FirstOfMonth() Date {
	return Date{Year: d.Year, Month: d.Month, Day: 1}
}

// AddMonths сдвигает курсор месяца на delta с переходом через год.
// Результат всегда первое число месяца: из 31 января +1 получается февраль, а не март.
func (d Date) AddMonths(delta int) Date {
	months := d.Year*12 + int(d.Month) - 1 + delta
	year := months / 12
	month := months % 12
	if month < 0 {
		month += 12
		year--
	}
	return Date{Year: year, Month: time.Month(month + 1), Day: 1}
}

// DaysInMonth возвращает число дней в месяце даты d.
func (d Date) DaysInMonth() int {
	return time.Date(d.Year, d.Month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// SameMonth сравнивает только год и месяц.
func (d Date) SameMonth(other Date) bool {
	return d.Year == other.Year && d.Month == other.Month
}

// FormatClock собирает строку HH:MM с ведущими нулями.
func FormatClock(hour, minute int) string {
	return fmt.Sprintf("%02d:%02d", hour, minute)
}

// ParseClock разбирает строку HH:MM (24 часа, с ведущими нулями).
func ParseClock(s string) (hour, minute int, err error) {
	t, err := time.Parse(clockLayout, s)
	if err != nil || len(s) != len(clockLayout) {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	return t.Hour(), t.Minute(), nil
}

// CombineDateTime — значение для скрытого поля формы: YYYY-MM-DDTHH:MM.
func CombineDateTime(d Date, clock string) string {
	return d.String() + "T" + clock
}

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

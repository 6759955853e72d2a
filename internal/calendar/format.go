package calendar

import (
	"fmt"
	"time"

	"golang.org/x/text/language"
)

const DefaultLocale = "ru-RU"

// Локаль влияет только на подписи, никогда на вычисления.
type labels struct {
	weekdaysShort [7]string // с понедельника
	weekdaysLong  map[time.Weekday]string
	months        [12]string // именительный падеж, для заголовка
	monthsOf      [12]string // родительный падеж, для «10 июня»
	title         func(month string, year int) string
	dateTime      func(weekday string, day int, month string, hour, minute int) string
}

var ruLabels = labels{
	weekdaysShort: [7]string{"Пн", "Вт", "Ср", "Чт", "Пт", "Сб", "Вс"},
	weekdaysLong: map[time.Weekday]string{
		time.Monday:    "понедельник",
		time.Tuesday:   "вторник",
		time.Wednesday: "среда",
		time.Thursday:  "четверг",
		time.Friday:    "пятница",
		time.Saturday:  "суббота",
		time.Sunday:    "воскресенье",
	},
	months: [12]string{
		"январь", "февраль", "март", "апрель", "май", "июнь",
		"июль", "август", "сентябрь", "октябрь", "ноябрь", "декабрь",
	},
	monthsOf: [12]string{
		"января", "февраля", "марта", "апреля", "мая", "июня",
		"июля", "августа", "сентября", "октября", "ноября", "декабря",
	},
	title: func(month string, year int) string {
		return fmt.Sprintf("%s %d г.", month, year)
	},
	dateTime: func(weekday string, day int, month string, hour, minute int) string {
		return fmt.Sprintf("%s, %d %s в %02d:%02d", weekday, day, month, hour, minute)
	},
}

var enLabels = labels{
	weekdaysShort: [7]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"},
	weekdaysLong: map[time.Weekday]string{
		time.Monday:    "Monday",
		time.Tuesday:   "Tuesday",
		time.Wednesday: "Wednesday",
		time.Thursday:  "Thursday",
		time.Friday:    "Friday",
		time.Saturday:  "Saturday",
		time.Sunday:    "Sunday",
	},
	months: [12]string{
		"January", "February", "March", "April", "May", "June",
		"July", "August", "September", "October", "November", "December",
	},
	monthsOf: [12]string{
		"January", "February", "March", "April", "May", "June",
		"July", "August", "September", "October", "November", "December",
	},
	title: func(month string, year int) string {
		return fmt.Sprintf("%s %d", month, year)
	},
	dateTime: func(weekday string, day int, month string, hour, minute int) string {
		suffix := "AM"
		h := hour % 12
		if hour >= 12 {
			suffix = "PM"
		}
		if h == 0 {
			h = 12
		}
		return fmt.Sprintf("%s, %s %d at %02d:%02d %s", weekday, month, day, h, minute, suffix)
	},
}

// ParseLocale проверяет BCP 47 тег локали.
func ParseLocale(locale string) (language.Tag, error) {
	return language.Parse(locale)
}

func labelsFor(locale string) labels {
	tag, err := language.Parse(locale)
	if err != nil {
		return ruLabels
	}
	base, _ := tag.Base()
	if base.String() == "ru" {
		return ruLabels
	}
	return enLabels
}

// WeekdayHeaders возвращает короткие названия дней недели для шапки сетки (с понедельника).
func WeekdayHeaders(locale string) []string {
	l := labelsFor(locale)
	out := make([]string, len(l.weekdaysShort))
	copy(out, l.weekdaysShort[:])
	return out
}

// MonthTitle собирает заголовок сетки, например «июнь 2024 г.».
func MonthTitle(cursor Date, locale string) string {
	l := labelsFor(locale)
	return l.title(l.months[cursor.Month-1], cursor.Year)
}

// FormatDateTime собирает подпись выбранного слота, например «понедельник, 10 июня в 14:00».
// Пустая строка, если время не разбирается.
func FormatDateTime(d Date, clock string, locale string) string {
	hour, minute, err := ParseClock(clock)
	if err != nil || !d.Valid() {
		return ""
	}
	l := labelsFor(locale)
	return l.dateTime(l.weekdaysLong[d.Weekday()], d.Day, l.monthsOf[d.Month-1], hour, minute)
}

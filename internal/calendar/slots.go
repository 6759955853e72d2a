package calendar

import (
	"errors"
	"time"
)

var (
	ErrInvalidWorkingHours = errors.New("invalid working hours")
	ErrSlotDuration        = errors.New("slot duration must be in (0, 60] minutes")
)

// MaxSlotDuration — при большей длительности почасовой цикл генерации теряет смысл.
const MaxSlotDuration = 60

// WorkingHours — рабочие часы дня [Start, End), целые часы 0–23.
type WorkingHours struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

func (w WorkingHours) Valid() bool {
	return w.Start >= 0 && w.End <= 23 && w.Start < w.End
}

// ValidSlotDuration проверяет 0 < minutes <= 60.
func ValidSlotDuration(minutes int) bool {
	return minutes > 0 && minutes <= MaxSlotDuration
}

// SlotStatus вычисляется при каждом чтении и отдельно не хранится.
type SlotStatus string

const (
	SlotAvailable SlotStatus = "available"
	SlotBooked    SlotStatus = "booked"
	SlotPast      SlotStatus = "past"
	SlotSelected  SlotStatus = "selected"
)

// Selectable сообщает, можно ли выбрать слот с таким статусом.
func (s SlotStatus) Selectable() bool {
	return s == SlotAvailable || s == SlotSelected
}

type TimeSlot struct {
	Time   string     `json:"time"`
	Status SlotStatus `json:"status"`
}

// GenerateSlots строит слоты дня day по рабочим часам и длительности слота.
//
// Минуты идут от 0 с шагом slotDuration, пока minute < 60. В последнем рабочем
// часе слот, который вылез бы за End:00, не генерируется. В остальных часах
// «хвост» через границу часа сохраняется как есть (25 минут → :00, :25, :50).
//
// Статус определяется в фиксированном порядке: прошедший, занятый, выбранный,
// свободный. Моменты слотов строятся в часовом поясе now.
// Функция чистая: одинаковые входы дают одинаковый результат.
func GenerateSlots(
	day Date,
	hours WorkingHours,
	slotDuration int,
	booked []string,
	selected string,
	now time.Time,
) []TimeSlot {
	if slotDuration <= 0 || hours.Start >= hours.End {
		return []TimeSlot{}
	}

	bookedSet := make(map[string]struct{}, len(booked))
	for _, t := range booked {
		bookedSet[t] = struct{}{}
	}

	slots := make([]TimeSlot, 0, (hours.End-hours.Start)*(60/min(slotDuration, 60)+1))
	for hour := hours.Start; hour < hours.End; hour++ {
		for minute := 0; minute < 60; minute += slotDuration {
			if hour == hours.End-1 && minute+slotDuration > 60 {
				break
			}
			clock := FormatClock(hour, minute)
			slots = append(slots, TimeSlot{
				Time:   clock,
				Status: slotStatus(day.At(hour, minute, now.Location()), clock, bookedSet, selected, now),
			})
		}
	}
	return slots
}

func slotStatus(at time.Time, clock string, booked map[string]struct{}, selected string, now time.Time) SlotStatus {
	if at.Before(now) {
		return SlotPast
	}
	if _, ok := booked[clock]; ok {
		return SlotBooked
	}
	if selected != "" && clock == selected {
		return SlotSelected
	}
	return SlotAvailable
}

// FindSlot ищет слот по строке времени.
func FindSlot(slots []TimeSlot, clock string) (TimeSlot, bool) {
	for _, s := range slots {
		if s.Time == clock {
			return s, true
		}
	}
	return TimeSlot{}, false
}

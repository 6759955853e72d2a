package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type BookedSlotStatus string

const (
	BookedSlotStatusActive    BookedSlotStatus = "active"
	BookedSlotStatusCancelled BookedSlotStatus = "cancelled"
)

// booked_slots — занятые слоты календаря. Отменённые строки остаются для истории
// и в снимок не попадают.
type BookedSlot struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	CalendarID string    `gorm:"type:varchar(64);not null;index:idx_booked_slots_lookup,priority:1"`

	// Чистая дата без времени, всегда полночь UTC.
	Day   datatypes.Date `gorm:"type:date;not null;index:idx_booked_slots_lookup,priority:2"`
	Clock string         `gorm:"type:varchar(5);not null"` // HH:MM
	// Абсолютный момент начала слота в поясе сервиса.
	StartsAt time.Time `gorm:"not null;index"`

	Status      BookedSlotStatus `gorm:"type:varchar(32);not null;default:'active';index"`
	Comment     string           `gorm:"type:text"`
	CancelledAt *time.Time

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// BeforeCreate проставляет ID: gen_random_uuid() есть не во всех драйверах.
func (s *BookedSlot) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// DayOf приводит момент к datatypes.Date по его гражданской дате.
func DayOf(t time.Time) datatypes.Date {
	y, m, d := t.Date()
	return datatypes.Date(time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
}

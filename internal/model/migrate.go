package model

import "gorm.io/gorm"

// AutoMigrate выполняет миграцию всех сущностей сервиса занятых слотов.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&BookedSlot{},
	); err != nil {
		return err
	}
	// Один активный слот на календарь, дату и время. Отменённые строки не мешают
	// повторной брони. Частичные индексы есть и в postgres, и в sqlite.
	return db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_booked_slots_active_unique
		ON booked_slots (calendar_id, day, clock) WHERE status = 'active'`).Error
}

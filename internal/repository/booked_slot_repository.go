package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/zaviruha/bookingcalendar/internal/model"
)

type BookedSlotRepository interface {
	// Создать занятый слот.
	Create(ctx context.Context, slot *model.BookedSlot) error
	// Найти слот по ID.
	GetByID(ctx context.Context, id string) (*model.BookedSlot, error)
	// Активный слот календаря на дату и время (gorm.ErrRecordNotFound, если нет).
	FindActive(ctx context.Context, calendarID string, day time.Time, clock string) (*model.BookedSlot, error)
	// Активные слоты календаря с from по to включительно, по дате и времени.
	ListActiveRange(ctx context.Context, calendarID string, from, to time.Time) ([]model.BookedSlot, error)
	// Все слоты календаря с пагинацией, новые первыми.
	ListByCalendar(ctx context.Context, calendarID string, limit, offset int) ([]model.BookedSlot, int64, error)
	// Обновить статус (например, при отмене).
	UpdateStatus(ctx context.Context, id string, status model.BookedSlotStatus, cancelledAt *time.Time) error
}

// Реализация на GORM.
type GormBookedSlotRepository struct {
	db *gorm.DB
}

func NewGormBookedSlotRepository(db *gorm.DB) *GormBookedSlotRepository {
	return &GormBookedSlotRepository{db: db}
}

func (r *GormBookedSlotRepository) Create(ctx context.Context, slot *model.BookedSlot) error {
	return r.db.WithContext(ctx).Create(slot).Error
}

func (r *GormBookedSlotRepository) GetByID(ctx context.Context, id string) (*model.BookedSlot, error) {
	var slot model.BookedSlot
	if err := r.db.WithContext(ctx).First(&slot, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &slot, nil
}

func (r *GormBookedSlotRepository) FindActive(
	ctx context.Context,
	calendarID string,
	day time.Time,
	clock string,
) (*model.BookedSlot, error) {
	var slot model.BookedSlot
	err := r.db.WithContext(ctx).
		Where("calendar_id = ?", calendarID).
		Where("day = ?", model.DayOf(day)).
		Where("clock = ?", clock).
		Where("status = ?", model.BookedSlotStatusActive).
		First(&slot).Error
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

func (r *GormBookedSlotRepository) ListActiveRange(
	ctx context.Context,
	calendarID string,
	from, to time.Time,
) ([]model.BookedSlot, error) {
	var slots []model.BookedSlot
	err := r.db.WithContext(ctx).
		Model(&model.BookedSlot{}).
		Where("calendar_id = ?", calendarID).
		Where("day >= ? AND day <= ?", model.DayOf(from), model.DayOf(to)).
		Where("status = ?", model.BookedSlotStatusActive).
		Order("day ASC").
		Order("clock ASC").
		Find(&slots).Error
	if err != nil {
		return nil, err
	}
	return slots, nil
}

func (r *GormBookedSlotRepository) ListByCalendar(
	ctx context.Context,
	calendarID string,
	limit, offset int,
) ([]model.BookedSlot, int64, error) {
	var (
		slots []model.BookedSlot
		total int64
	)

	q := r.db.WithContext(ctx).
		Model(&model.BookedSlot{}).
		Where("calendar_id = ?", calendarID)

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit > 0 {
		q = q.Limit(limit).Offset(offset)
	}

	if err := q.Order("starts_at DESC").Find(&slots).Error; err != nil {
		return nil, 0, err
	}

	return slots, total, nil
}

func (r *GormBookedSlotRepository) UpdateStatus(
	ctx context.Context,
	id string,
	status model.BookedSlotStatus,
	cancelledAt *time.Time,
) error {
	update := map[string]any{
		"status": status,
	}
	if cancelledAt != nil {
		update["cancelled_at"] = *cancelledAt
	}
	return r.db.WithContext(ctx).
		Model(&model.BookedSlot{}).
		Where("id = ?", id).
		Updates(update).
		Error
}

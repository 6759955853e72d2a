package service

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/zaviruha/bookingcalendar/internal/cache"
	"github.com/zaviruha/bookingcalendar/internal/calendar"
	"github.com/zaviruha/bookingcalendar/internal/metrics"
	"github.com/zaviruha/bookingcalendar/internal/model"
	"github.com/zaviruha/bookingcalendar/internal/repository"
)

var (
	ErrSlotTaken       = errors.New("slot already booked")
	ErrInvalidSlot     = errors.New("invalid slot")
	ErrInvalidCalendar = errors.New("invalid calendar id")
	ErrNotFound        = errors.New("booking not found")
)

const (
	maxCalendarIDLen = 64
	maxCommentLen    = 500
	maxPageSize      = 100
)

// SnapshotCache см. internal/cache.
// Get отдаёт поколение календаря, Set пишет только при неизменном поколении
// и возвращает cache.ErrStale, если между ними прошла инвалидация.
type SnapshotCache interface {
	Get(ctx context.Context, calendarID string, from calendar.Date) (calendar.BookedSlots, bool, int64, error)
	Set(ctx context.Context, calendarID string, from calendar.Date, gen int64, slots calendar.BookedSlots) error
	Invalidate(ctx context.Context, calendarID string) error
}

// Booking — бронь в том виде, в каком её отдаёт API.
type Booking struct {
	ID          string     `json:"id"`
	CalendarID  string     `json:"calendar_id"`
	Date        string     `json:"date"`
	Time        string     `json:"time"`
	DateTime    string     `json:"datetime"`
	Status      string     `json:"status"`
	Comment     string     `json:"comment,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`
}

type BookRequest struct {
	Date    string `json:"date"`
	Time    string `json:"time"`
	Comment string `json:"comment"`
}

type Option func(*BookedSlotsService)

// WithCache включает кэш снимков. nil — без кэша.
func WithCache(c SnapshotCache) Option {
	return func(s *BookedSlotsService) { s.cache = c }
}

func WithMetrics(m *metrics.APIMetrics) Option {
	return func(s *BookedSlotsService) { s.metrics = m }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *BookedSlotsService) { s.logger = l }
}

func WithClock(now func() time.Time) Option {
	return func(s *BookedSlotsService) { s.now = now }
}

// WithLocation задаёт пояс, в котором считаются «сегодня» и моменты слотов.
func WithLocation(loc *time.Location) Option {
	return func(s *BookedSlotsService) { s.loc = loc }
}

// WithHorizon задаёт, на сколько дней вперёд (включая сегодня) строится снимок.
func WithHorizon(days int) Option {
	return func(s *BookedSlotsService) { s.horizonDays = days }
}

// BookedSlotsService отдаёт снимок занятых слотов в формате, который
// виджет читает по api-url, и ведёт сами брони.
type BookedSlotsService struct {
	db   *gorm.DB
	repo repository.BookedSlotRepository

	cache   SnapshotCache
	metrics *metrics.APIMetrics
	logger  *zap.Logger

	now         func() time.Time
	loc         *time.Location
	horizonDays int
}

func NewBookedSlotsService(db *gorm.DB, repo repository.BookedSlotRepository, opts ...Option) *BookedSlotsService {
	s := &BookedSlotsService{
		db:          db,
		repo:        repo,
		logger:      zap.NewNop(),
		now:         time.Now,
		loc:         time.UTC,
		horizonDays: 90,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.horizonDays <= 0 {
		s.horizonDays = 90
	}
	return s
}

func (s *BookedSlotsService) today() calendar.Date {
	return calendar.DateOf(s.now().In(s.loc))
}

func (s *BookedSlotsService) lastDay(from calendar.Date) calendar.Date {
	t := from.At(0, 0, time.UTC).AddDate(0, 0, s.horizonDays-1)
	return calendar.DateOf(t)
}

// Snapshot возвращает активные занятые слоты календаря от сегодняшнего дня
// на горизонт вперёд. Пустой календарь — пустой объект, не nil.
func (s *BookedSlotsService) Snapshot(ctx context.Context, calendarID string) (calendar.BookedSlots, error) {
	if err := validateCalendarID(calendarID); err != nil {
		return nil, err
	}
	from := s.today()

	// поколение читается до запроса к БД: инвалидация после него отменит запись в кэш
	var gen int64
	if s.cache == nil {
		s.metrics.ObserveSnapshot("disabled")
	} else {
		cached, ok, g, err := s.cache.Get(ctx, calendarID, from)
		gen = g
		switch {
		case err != nil:
			s.logger.Warn("snapshot cache read failed", zap.String("calendar_id", calendarID), zap.Error(err))
		case ok:
			s.metrics.ObserveSnapshot("hit")
			return cached, nil
		}
		s.metrics.ObserveSnapshot("miss")
	}

	rows, err := s.repo.ListActiveRange(ctx, calendarID, from.At(0, 0, time.UTC), s.lastDay(from).At(0, 0, time.UTC))
	if err != nil {
		return nil, fmt.Errorf("list booked slots: %w", err)
	}

	snapshot := calendar.BookedSlots{}
	for _, row := range rows {
		snapshot.Add(calendar.DateOf(time.Time(row.Day)), row.Clock)
	}

	if s.cache != nil {
		err := s.cache.Set(ctx, calendarID, from, gen, snapshot)
		switch {
		case errors.Is(err, cache.ErrStale):
			s.logger.Debug("snapshot changed while loading, not cached", zap.String("calendar_id", calendarID))
		case err != nil:
			s.logger.Warn("snapshot cache write failed", zap.String("calendar_id", calendarID), zap.Error(err))
		}
	}
	return snapshot, nil
}

// Book занимает слот. Прошедшее время и даты за горизонтом отклоняются
// с ErrInvalidSlot, уже занятый слот — ErrSlotTaken.
func (s *BookedSlotsService) Book(ctx context.Context, calendarID string, req BookRequest) (*Booking, error) {
	b, err := s.book(ctx, calendarID, req)
	switch {
	case err == nil:
		s.metrics.ObserveMutation("create", "ok")
	case errors.Is(err, ErrSlotTaken):
		s.metrics.ObserveMutation("create", "conflict")
	case errors.Is(err, ErrInvalidSlot), errors.Is(err, ErrInvalidCalendar):
		s.metrics.ObserveMutation("create", "invalid")
	default:
		s.metrics.ObserveMutation("create", "error")
	}
	return b, err
}

func (s *BookedSlotsService) book(ctx context.Context, calendarID string, req BookRequest) (*Booking, error) {
	if err := validateCalendarID(calendarID); err != nil {
		return nil, err
	}
	day, err := calendar.ParseDate(req.Date)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSlot, err)
	}
	hour, minute, err := calendar.ParseClock(req.Time)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSlot, err)
	}
	if utf8.RuneCountInString(req.Comment) > maxCommentLen {
		return nil, fmt.Errorf("%w: comment longer than %d characters", ErrInvalidSlot, maxCommentLen)
	}

	now := s.now().In(s.loc)
	startsAt := day.At(hour, minute, s.loc)
	if startsAt.Before(now) {
		return nil, fmt.Errorf("%w: %s is in the past", ErrInvalidSlot, calendar.CombineDateTime(day, req.Time))
	}
	if last := s.lastDay(calendar.DateOf(now)); last.Before(day) {
		return nil, fmt.Errorf("%w: %s is beyond the booking horizon", ErrInvalidSlot, day)
	}

	slot := &model.BookedSlot{
		CalendarID: calendarID,
		Day:        model.DayOf(startsAt),
		Clock:      req.Time,
		StartsAt:   startsAt.UTC(),
		Status:     model.BookedSlotStatusActive,
		Comment:    req.Comment,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := repository.NewGormBookedSlotRepository(tx)

		_, err := repo.FindActive(ctx, calendarID, startsAt, req.Time)
		switch {
		case err == nil:
			return ErrSlotTaken
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return fmt.Errorf("find booked slot: %w", err)
		}

		if err := repo.Create(ctx, slot); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrSlotTaken
			}
			return fmt.Errorf("create booked slot: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, calendarID)
	s.logger.Info("slot booked",
		zap.String("calendar_id", calendarID),
		zap.String("booking_id", slot.ID.String()),
		zap.String("datetime", calendar.CombineDateTime(day, req.Time)),
	)
	return toBooking(slot), nil
}

// Cancel отменяет бронь. Повторная отмена ничего не меняет.
func (s *BookedSlotsService) Cancel(ctx context.Context, bookingID string) error {
	err := s.cancel(ctx, bookingID)
	switch {
	case err == nil:
		s.metrics.ObserveMutation("cancel", "ok")
	case errors.Is(err, ErrNotFound):
		s.metrics.ObserveMutation("cancel", "not_found")
	default:
		s.metrics.ObserveMutation("cancel", "error")
	}
	return err
}

func (s *BookedSlotsService) cancel(ctx context.Context, bookingID string) error {
	if _, err := uuid.Parse(bookingID); err != nil {
		return fmt.Errorf("%w: %s", ErrNotFound, bookingID)
	}

	slot, err := s.repo.GetByID(ctx, bookingID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, bookingID)
	}
	if err != nil {
		return fmt.Errorf("get booked slot: %w", err)
	}
	if slot.Status == model.BookedSlotStatusCancelled {
		return nil
	}

	now := s.now().UTC()
	if err := s.repo.UpdateStatus(ctx, bookingID, model.BookedSlotStatusCancelled, &now); err != nil {
		return fmt.Errorf("cancel booked slot: %w", err)
	}

	s.invalidate(ctx, slot.CalendarID)
	s.logger.Info("booking cancelled",
		zap.String("calendar_id", slot.CalendarID),
		zap.String("booking_id", bookingID),
	)
	return nil
}

// List возвращает брони календаря постранично, новые первыми.
func (s *BookedSlotsService) List(ctx context.Context, calendarID string, page, pageSize int) (calendar.Page[Booking], error) {
	if err := validateCalendarID(calendarID); err != nil {
		return calendar.Page[Booking]{}, err
	}
	page, pageSize = calendar.NormalizePage(page, pageSize)
	pageSize = min(pageSize, maxPageSize)

	rows, total, err := s.repo.ListByCalendar(ctx, calendarID, pageSize, calendar.Offset(page, pageSize))
	if err != nil {
		return calendar.Page[Booking]{}, fmt.Errorf("list bookings: %w", err)
	}

	items := make([]Booking, 0, len(rows))
	for i := range rows {
		items = append(items, *toBooking(&rows[i]))
	}
	return calendar.NewPage(items, int(total), page, pageSize), nil
}

func (s *BookedSlotsService) invalidate(ctx context.Context, calendarID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, calendarID); err != nil {
		s.logger.Warn("snapshot cache invalidation failed", zap.String("calendar_id", calendarID), zap.Error(err))
	}
}

func validateCalendarID(id string) error {
	if id == "" || len(id) > maxCalendarIDLen {
		return fmt.Errorf("%w: %q", ErrInvalidCalendar, id)
	}
	return nil
}

func toBooking(slot *model.BookedSlot) *Booking {
	day := calendar.DateOf(time.Time(slot.Day))
	return &Booking{
		ID:          slot.ID.String(),
		CalendarID:  slot.CalendarID,
		Date:        day.String(),
		Time:        slot.Clock,
		DateTime:    calendar.CombineDateTime(day, slot.Clock),
		Status:      string(slot.Status),
		Comment:     slot.Comment,
		CreatedAt:   slot.CreatedAt,
		CancelledAt: slot.CancelledAt,
	}
}

package service

import (
	"context"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/zaviruha/bookingcalendar/internal/cache"
	"github.com/zaviruha/bookingcalendar/internal/calendar"
	"github.com/zaviruha/bookingcalendar/internal/metrics"
	"github.com/zaviruha/bookingcalendar/internal/model"
	"github.com/zaviruha/bookingcalendar/internal/repository"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := model.AutoMigrate(db); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	return db
}

func newTestService(t *testing.T, now time.Time, opts ...Option) (*BookedSlotsService, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	opts = append([]Option{
		WithClock(func() time.Time { return now }),
		WithLocation(now.Location()),
		WithHorizon(30),
	}, opts...)
	return NewBookedSlotsService(db, repository.NewGormBookedSlotRepository(db), opts...), db
}

var june10 = time.Date(2024, time.June, 10, 9, 0, 0, 0, time.UTC)

func TestBook_AppearsInSnapshotAndConflicts(t *testing.T) {
	svc, _ := newTestService(t, june10)
	ctx := context.Background()

	b, err := svc.Book(ctx, "cal-1", BookRequest{Date: "2024-06-10", Time: "14:00", Comment: "first visit"})
	require.NoError(t, err)
	assert.Equal(t, "2024-06-10T14:00", b.DateTime)
	assert.Equal(t, string(model.BookedSlotStatusActive), b.Status)
	assert.NotEmpty(t, b.ID)

	snap, err := svc.Snapshot(ctx, "cal-1")
	require.NoError(t, err)
	assert.Equal(t, calendar.BookedSlots{"2024-06-10": {"14:00"}}, snap)

	_, err = svc.Book(ctx, "cal-1", BookRequest{Date: "2024-06-10", Time: "14:00"})
	require.ErrorIs(t, err, ErrSlotTaken)

	_, err = svc.Book(ctx, "cal-2", BookRequest{Date: "2024-06-10", Time: "14:00"})
	require.NoError(t, err, "other calendar is independent")
}

func TestBook_RejectsInvalidSlots(t *testing.T) {
	svc, _ := newTestService(t, june10)
	ctx := context.Background()

	cases := []struct {
		name string
		req  BookRequest
	}{
		{"bad date", BookRequest{Date: "2024-13-01", Time: "10:00"}},
		{"bad time", BookRequest{Date: "2024-06-11", Time: "9:00"}},
		{"past", BookRequest{Date: "2024-06-10", Time: "08:30"}},
		{"beyond horizon", BookRequest{Date: "2024-07-10", Time: "10:00"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Book(ctx, "cal-1", tc.req)
			require.ErrorIs(t, err, ErrInvalidSlot)
		})
	}

	_, err := svc.Book(ctx, "", BookRequest{Date: "2024-06-11", Time: "10:00"})
	require.ErrorIs(t, err, ErrInvalidCalendar)
}

func TestBook_LastHorizonDayAccepted(t *testing.T) {
	svc, _ := newTestService(t, june10)

	_, err := svc.Book(context.Background(), "cal-1", BookRequest{Date: "2024-07-09", Time: "10:00"})
	require.NoError(t, err)
}

func TestSnapshot_WindowAndStatus(t *testing.T) {
	svc, db := newTestService(t, june10)
	ctx := context.Background()
	repo := repository.NewGormBookedSlotRepository(db)

	seed := func(calendarID, date, clock string, status model.BookedSlotStatus) {
		t.Helper()
		d, err := calendar.ParseDate(date)
		require.NoError(t, err)
		h, m, err := calendar.ParseClock(clock)
		require.NoError(t, err)
		startsAt := d.At(h, m, time.UTC)
		require.NoError(t, repo.Create(ctx, &model.BookedSlot{
			CalendarID: calendarID,
			Day:        model.DayOf(startsAt),
			Clock:      clock,
			StartsAt:   startsAt,
			Status:     status,
		}))
	}

	seed("cal-1", "2024-06-09", "10:00", model.BookedSlotStatusActive) // вчера
	seed("cal-1", "2024-06-10", "10:00", model.BookedSlotStatusActive)
	seed("cal-1", "2024-06-12", "15:30", model.BookedSlotStatusActive)
	seed("cal-1", "2024-06-12", "11:00", model.BookedSlotStatusActive)
	seed("cal-1", "2024-06-13", "11:00", model.BookedSlotStatusCancelled)
	seed("cal-1", "2024-07-10", "11:00", model.BookedSlotStatusActive) // за горизонтом
	seed("cal-2", "2024-06-12", "12:00", model.BookedSlotStatusActive)

	snap, err := svc.Snapshot(ctx, "cal-1")
	require.NoError(t, err)
	assert.Equal(t, calendar.BookedSlots{
		"2024-06-10": {"10:00"},
		"2024-06-12": {"11:00", "15:30"},
	}, snap)

	empty, err := svc.Snapshot(ctx, "cal-empty")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestSnapshot_KeysUseServiceTimezone(t *testing.T) {
	moscow, err := time.LoadLocation("Europe/Moscow")
	require.NoError(t, err)
	now := time.Date(2024, time.June, 10, 23, 0, 0, 0, moscow)
	svc, _ := newTestService(t, now)
	ctx := context.Background()

	_, err = svc.Book(ctx, "cal-1", BookRequest{Date: "2024-06-11", Time: "01:00"})
	require.NoError(t, err)

	snap, err := svc.Snapshot(ctx, "cal-1")
	require.NoError(t, err)
	assert.Equal(t, calendar.BookedSlots{"2024-06-11": {"01:00"}}, snap)
}

func TestCancel_FreesSlot(t *testing.T) {
	svc, _ := newTestService(t, june10)
	ctx := context.Background()

	b, err := svc.Book(ctx, "cal-1", BookRequest{Date: "2024-06-11", Time: "10:00"})
	require.NoError(t, err)

	require.NoError(t, svc.Cancel(ctx, b.ID))
	require.NoError(t, svc.Cancel(ctx, b.ID), "second cancel is a no-op")

	snap, err := svc.Snapshot(ctx, "cal-1")
	require.NoError(t, err)
	assert.Empty(t, snap)

	_, err = svc.Book(ctx, "cal-1", BookRequest{Date: "2024-06-11", Time: "10:00"})
	require.NoError(t, err, "cancelled slot can be booked again")

	page, err := svc.List(ctx, "cal-1", 1, 10)
	require.NoError(t, err)
	require.Equal(t, 2, page.Total)
	var statuses []string
	for _, item := range page.Items {
		statuses = append(statuses, item.Status)
	}
	assert.ElementsMatch(t, []string{"active", "cancelled"}, statuses)
}

func TestCancel_NotFound(t *testing.T) {
	svc, _ := newTestService(t, june10)
	ctx := context.Background()

	require.ErrorIs(t, svc.Cancel(ctx, "not-a-uuid"), ErrNotFound)
	require.ErrorIs(t, svc.Cancel(ctx, "6f1c1f4e-52f4-4f3e-9c55-3f0a8c7b2a10"), ErrNotFound)
}

func TestList_Paginates(t *testing.T) {
	svc, _ := newTestService(t, june10)
	ctx := context.Background()

	for _, clock := range []string{"10:00", "11:00", "12:00"} {
		_, err := svc.Book(ctx, "cal-1", BookRequest{Date: "2024-06-11", Time: clock})
		require.NoError(t, err)
	}

	first, err := svc.List(ctx, "cal-1", 1, 2)
	require.NoError(t, err)
	assert.Len(t, first.Items, 2)
	assert.Equal(t, 3, first.Total)
	assert.True(t, first.HasNext)
	assert.Equal(t, "12:00", first.Items[0].Time)

	second, err := svc.List(ctx, "cal-1", 2, 2)
	require.NoError(t, err)
	assert.Len(t, second.Items, 1)
	assert.False(t, second.HasNext)
	assert.True(t, second.HasPrev)

	clamped, err := svc.List(ctx, "cal-1", 0, 1000)
	require.NoError(t, err)
	assert.Equal(t, 1, clamped.Page)
	assert.Equal(t, maxPageSize, clamped.PageSize)
}

func TestSnapshot_CacheHitAndInvalidation(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	reg := prometheus.NewRegistry()
	apiMetrics := metrics.NewAPIMetrics(reg)
	svc, _ := newTestService(t, june10,
		WithCache(cache.NewSnapshotStore(client, time.Minute)),
		WithMetrics(apiMetrics),
	)
	ctx := context.Background()

	_, err = svc.Snapshot(ctx, "cal-1")
	require.NoError(t, err)
	_, err = svc.Snapshot(ctx, "cal-1")
	require.NoError(t, err)

	_, err = svc.Book(ctx, "cal-1", BookRequest{Date: "2024-06-11", Time: "10:00"})
	require.NoError(t, err)

	snap, err := svc.Snapshot(ctx, "cal-1")
	require.NoError(t, err)
	assert.Equal(t, calendar.BookedSlots{"2024-06-11": {"10:00"}}, snap)

	assert.Equal(t, 2, testutil.CollectAndCount(reg, "booking_calendar_api_snapshot_requests_total"))
	assert.Equal(t, 1, testutil.CollectAndCount(reg, "booking_calendar_api_booking_mutations_total"))
}

// racingRepo сбрасывает кэш после чтения из БД, как это сделала бы бронь,
// закоммиченная в этот момент другим запросом.
type racingRepo struct {
	repository.BookedSlotRepository
	onList func()
}

func (r *racingRepo) ListActiveRange(ctx context.Context, calendarID string, from, to time.Time) ([]model.BookedSlot, error) {
	rows, err := r.BookedSlotRepository.ListActiveRange(ctx, calendarID, from, to)
	if r.onList != nil {
		r.onList()
		r.onList = nil
	}
	return rows, err
}

func TestSnapshot_NotCachedWhenInvalidatedDuringLoad(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	store := cache.NewSnapshotStore(client, time.Minute)

	db := newTestDB(t)
	ctx := context.Background()
	repo := &racingRepo{BookedSlotRepository: repository.NewGormBookedSlotRepository(db)}
	svc := NewBookedSlotsService(db, repo,
		WithClock(func() time.Time { return june10 }),
		WithHorizon(30),
		WithCache(store),
	)
	repo.onList = func() { require.NoError(t, store.Invalidate(ctx, "cal-1")) }

	stale, err := svc.Snapshot(ctx, "cal-1")
	require.NoError(t, err)
	assert.Empty(t, stale)
	assert.False(t, mr.Exists("booking-calendar:snapshot:cal-1"), "snapshot loaded before invalidation must not be cached")

	_, err = svc.Snapshot(ctx, "cal-1")
	require.NoError(t, err)
	assert.True(t, mr.Exists("booking-calendar:snapshot:cal-1"))
}

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/zaviruha/bookingcalendar/internal/calendar"
)

const (
	snapshotKeyPrefix   = "booking-calendar:snapshot:"
	generationKeyPrefix = "booking-calendar:snapshot-gen:"
)

// ErrStale: снимок построен до последней инвалидации и не записан.
var ErrStale = errors.New("snapshot cache: stale generation")

// SnapshotStore кэширует снимок занятых слотов календаря в Redis.
// Снимок привязан к дате, от которой он построен: на следующий день это промах.
// Каждая инвалидация увеличивает поколение календаря; Set пишет снимок, только
// если поколение не изменилось с момента Get.
type SnapshotStore struct {
	client *redis.Client
	ttl    time.Duration
}

type cachedSnapshot struct {
	From  string               `json:"from"`
	Slots calendar.BookedSlots `json:"slots"`
}

func NewSnapshotStore(client *redis.Client, ttl time.Duration) *SnapshotStore {
	return &SnapshotStore{client: client, ttl: ttl}
}

func (s *SnapshotStore) key(calendarID string) string {
	return snapshotKeyPrefix + calendarID
}

func (s *SnapshotStore) genKey(calendarID string) string {
	return generationKeyPrefix + calendarID
}

// Get возвращает снимок, построенный от from, и текущее поколение календаря.
// ok=false означает промах; поколение нужно передать в Set.
func (s *SnapshotStore) Get(ctx context.Context, calendarID string, from calendar.Date) (calendar.BookedSlots, bool, int64, error) {
	vals, err := s.client.MGet(ctx, s.key(calendarID), s.genKey(calendarID)).Result()
	if err != nil {
		return nil, false, 0, fmt.Errorf("snapshot cache: get: %w", err)
	}

	gen, err := parseGeneration(vals[1])
	if err != nil {
		return nil, false, 0, err
	}

	raw, found := vals[0].(string)
	if !found {
		return nil, false, gen, nil
	}

	var cached cachedSnapshot
	if err := json.Unmarshal([]byte(raw), &cached); err != nil {
		return nil, false, gen, fmt.Errorf("snapshot cache: unmarshal: %w", err)
	}
	if cached.From != from.String() {
		return nil, false, gen, nil
	}
	if cached.Slots == nil {
		cached.Slots = calendar.BookedSlots{}
	}
	return cached.Slots, true, gen, nil
}

// Set записывает снимок, если с момента Get поколения gen не было инвалидаций.
// Иначе возвращает ErrStale и ничего не пишет.
func (s *SnapshotStore) Set(ctx context.Context, calendarID string, from calendar.Date, gen int64, slots calendar.BookedSlots) error {
	data, err := json.Marshal(cachedSnapshot{From: from.String(), Slots: slots})
	if err != nil {
		return fmt.Errorf("snapshot cache: marshal: %w", err)
	}

	genKey := s.genKey(calendarID)
	err = s.client.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, genKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if cur != gen {
			return ErrStale
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, s.key(calendarID), data, s.ttl)
			return nil
		})
		return err
	}, genKey)

	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrStale), errors.Is(err, redis.TxFailedErr):
		return ErrStale
	default:
		return fmt.Errorf("snapshot cache: set: %w", err)
	}
}

// Invalidate сбрасывает снимок после создания или отмены брони и сдвигает поколение,
// чтобы параллельно построенный старый снимок не попал в кэш.
func (s *SnapshotStore) Invalidate(ctx context.Context, calendarID string) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, s.genKey(calendarID))
		pipe.Del(ctx, s.key(calendarID))
		return nil
	})
	if err != nil {
		return fmt.Errorf("snapshot cache: invalidate: %w", err)
	}
	return nil
}

func parseGeneration(v any) (int64, error) {
	raw, ok := v.(string)
	if !ok {
		return 0, nil
	}
	gen, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("snapshot cache: generation %q: %w", raw, err)
	}
	return gen, nil
}

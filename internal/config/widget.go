package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/zaviruha/bookingcalendar/internal/calendar"
)

// Имена атрибутов виджета.
const (
	AttrWorkHours    = "work-hours"
	AttrSlotDuration = "slot-duration"
	AttrLocale       = "locale"
	AttrAPIURL       = "api-url"
	AttrBookedSlots  = "booked-slots"
)

// Attributes перечисляет все атрибуты, которые читает виджет.
var Attributes = []string{AttrWorkHours, AttrSlotDuration, AttrLocale, AttrAPIURL, AttrBookedSlots}

var (
	errOutOfRange   = errors.New("value out of range")
	errInvalidURL   = errors.New("remote source must be an absolute http(s) URL")
	errBadBookedKey = errors.New("malformed booked-slots entries")
)

// ParseError — значение атрибута не разобрано; виджет остаётся на значении по умолчанию.
type ParseError struct {
	Attribute string
	Value     string
	Err       error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse attribute %s=%q: %v", e.Attribute, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Widget — типизированная конфигурация виджета выбора даты и времени.
type Widget struct {
	WorkHours    calendar.WorkingHours
	SlotDuration int // минуты
	Locale       string
	RemoteSource string // пусто — только встроенные занятые слоты
	BookedSlots  calendar.BookedSlots

	// RefreshInterval > 0 включает периодическую перезагрузку с RemoteSource.
	RefreshInterval time.Duration
	// Location — пояс, в котором считаются «сегодня» и прошедшие слоты.
	Location *time.Location
}

// DefaultWidget возвращает конфигурацию по умолчанию.
func DefaultWidget() Widget {
	return Widget{
		WorkHours:    calendar.WorkingHours{Start: 10, End: 21},
		SlotDuration: 30,
		Locale:       calendar.DefaultLocale,
		BookedSlots:  calendar.BookedSlots{},
		Location:     time.Local,
	}
}

// HasRemote сообщает, настроен ли удалённый источник.
func (w Widget) HasRemote() bool {
	return w.RemoteSource != ""
}

// ParseWidgetAttributes разбирает атрибуты поверх конфигурации по умолчанию.
// Каждое некорректное значение логируется и заменяется значением по умолчанию;
// ошибки наружу не пробрасываются.
func ParseWidgetAttributes(attrs map[string]string, logger *zap.Logger) Widget {
	return ApplyAttributes(DefaultWidget(), attrs, logger)
}

// ApplyAttributes накладывает атрибуты на base. Отсутствующие и пустые атрибуты
// оставляют значение base.
func ApplyAttributes(base Widget, attrs map[string]string, logger *zap.Logger) Widget {
	cfg := base
	cfg.BookedSlots = base.BookedSlots.Clone()

	for _, perr := range applyAttributes(&cfg, attrs) {
		if logger != nil {
			logger.Warn("widget attribute rejected, keeping default",
				zap.String("attribute", perr.Attribute),
				zap.String("value", perr.Value),
				zap.Error(perr.Err),
			)
		}
	}
	return cfg
}

func applyAttributes(cfg *Widget, attrs map[string]string) []*ParseError {
	var errs []*ParseError
	fail := func(attr, value string, err error) {
		errs = append(errs, &ParseError{Attribute: attr, Value: value, Err: err})
	}

	if v := strings.TrimSpace(attrs[AttrWorkHours]); v != "" {
		var wh calendar.WorkingHours
		if err := json.Unmarshal([]byte(v), &wh); err != nil {
			fail(AttrWorkHours, v, err)
		} else if !wh.Valid() {
			fail(AttrWorkHours, v, fmt.Errorf("%w: %w", errOutOfRange, calendar.ErrInvalidWorkingHours))
		} else {
			cfg.WorkHours = wh
		}
	}

	if v := strings.TrimSpace(attrs[AttrSlotDuration]); v != "" {
		d, err := strconv.Atoi(v)
		if err != nil {
			fail(AttrSlotDuration, v, err)
		} else if !calendar.ValidSlotDuration(d) {
			fail(AttrSlotDuration, v, fmt.Errorf("%w: %w", errOutOfRange, calendar.ErrSlotDuration))
		} else {
			cfg.SlotDuration = d
		}
	}

	if v := strings.TrimSpace(attrs[AttrLocale]); v != "" {
		if _, err := calendar.ParseLocale(v); err != nil {
			fail(AttrLocale, v, err)
		} else {
			cfg.Locale = v
		}
	}

	if v := strings.TrimSpace(attrs[AttrAPIURL]); v != "" {
		if err := validateRemoteURL(v); err != nil {
			fail(AttrAPIURL, v, err)
		} else {
			cfg.RemoteSource = v
		}
	}

	if v := strings.TrimSpace(attrs[AttrBookedSlots]); v != "" {
		slots, err := ParseBookedSlots(v)
		if slots != nil {
			cfg.BookedSlots = slots
		}
		if err != nil {
			fail(AttrBookedSlots, v, err)
		}
	}

	return errs
}

// ParseBookedSlots разбирает JSON снимка занятых слотов.
// Если JSON не разбирается, возвращает nil и ошибку. Если разбирается,
// но часть записей некорректна, возвращает очищенный снимок и ошибку со списком отброшенного.
func ParseBookedSlots(raw string) (calendar.BookedSlots, error) {
	var slots calendar.BookedSlots
	if err := json.Unmarshal([]byte(raw), &slots); err != nil {
		return nil, err
	}
	clean, dropped := slots.Normalize()
	if len(dropped) > 0 {
		return clean, fmt.Errorf("%w: %s", errBadBookedKey, strings.Join(dropped, ", "))
	}
	return clean, nil
}

func validateRemoteURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errInvalidURL
	}
	return nil
}

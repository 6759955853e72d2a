package picker

type EventType string

const (
	EventReady         EventType = "booking-calendar:ready"
	EventDateSelected  EventType = "date-selected"
	EventTimeSelected  EventType = "time-selected"
	EventSlotsUpdated  EventType = "slots-updated"
	EventLoadingChange EventType = "loading-changed"
)

// Event — уведомление с полезной нагрузкой. Для date-selected заполнен только Date,
// для time-selected — Date, Time и DateTime.
type Event struct {
	Type     EventType `json:"type"`
	Date     string    `json:"date,omitempty"`
	Time     string    `json:"time,omitempty"`
	DateTime string    `json:"datetime,omitempty"`
	Loading  bool      `json:"loading,omitempty"`
}

// Listener вызывается вне блокировки виджета и может обращаться к нему.
type Listener func(Event)

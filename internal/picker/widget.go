package picker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/zaviruha/bookingcalendar/internal/calendar"
	"github.com/zaviruha/bookingcalendar/internal/config"
	"github.com/zaviruha/bookingcalendar/internal/metrics"
	"github.com/zaviruha/bookingcalendar/internal/source"
)

// Clock возвращает текущее время; подменяется в тестах.
type Clock func() time.Time

type Option func(*Widget)

func WithClock(c Clock) Option {
	return func(w *Widget) { w.now = c }
}

// WithSource задаёт источник занятых слотов вместо построенного из конфигурации.
func WithSource(src source.Source) Option {
	return func(w *Widget) {
		w.src = src
		w.customSource = src != nil
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(w *Widget) { w.logger = l }
}

func WithFetchMetrics(m *metrics.FetchMetrics) Option {
	return func(w *Widget) { w.fetchMetrics = m }
}

type subscription struct {
	id int
	fn Listener
}

// Widget — виджет выбора даты и времени. Все переходы выполняются под одной
// блокировкой, загрузка с удалённого источника идёт вне её, слушатели
// вызываются после снятия блокировки.
type Widget struct {
	mu     sync.Mutex
	cfg    config.Widget
	state  State
	booked calendar.BookedSlots

	listeners []subscription
	nextSubID int

	src          source.Source
	customSource bool
	inflight     int

	now          Clock
	logger       *zap.Logger
	fetchMetrics *metrics.FetchMetrics

	ready       bool
	stopRefresh context.CancelFunc
}

// New создаёт виджет в состоянии Idle с курсором на текущем месяце.
// Некорректные поля cfg заменяются значениями по умолчанию.
func New(cfg config.Widget, opts ...Option) *Widget {
	w := &Widget{
		now:    time.Now,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = zap.NewNop()
	}

	w.cfg = w.sanitize(cfg)
	w.booked = w.cfg.BookedSlots.Clone()
	if !w.customSource {
		w.src = w.sourceFor(w.cfg)
	}
	w.state = NewState(calendar.DateOf(w.nowLocked()))
	return w
}

func (w *Widget) sanitize(cfg config.Widget) config.Widget {
	def := config.DefaultWidget()
	if !cfg.WorkHours.Valid() {
		w.logger.Warn("invalid working hours, using default",
			zap.Int("start", cfg.WorkHours.Start),
			zap.Int("end", cfg.WorkHours.End),
		)
		cfg.WorkHours = def.WorkHours
	}
	if !calendar.ValidSlotDuration(cfg.SlotDuration) {
		w.logger.Warn("invalid slot duration, using default", zap.Int("slot_duration", cfg.SlotDuration))
		cfg.SlotDuration = def.SlotDuration
	}
	if cfg.Locale == "" {
		cfg.Locale = def.Locale
	}
	if cfg.Location == nil {
		cfg.Location = def.Location
	}
	if cfg.RefreshInterval < 0 {
		cfg.RefreshInterval = 0
	}
	cfg.BookedSlots = cfg.BookedSlots.Clone()
	return cfg
}

func (w *Widget) sourceFor(cfg config.Widget) source.Source {
	if !cfg.HasRemote() {
		return nil
	}
	return source.NewRemote(cfg.RemoteSource,
		source.WithMetrics(w.fetchMetrics),
		source.WithLogger(w.logger),
	)
}

// OnEvent подписывает l на уведомления виджета. Возвращает функцию отписки.
func (w *Widget) OnEvent(l Listener) func() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.nextSubID++
	id := w.nextSubID
	w.listeners = append(w.listeners, subscription{id: id, fn: l})

	return func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		for i, s := range w.listeners {
			if s.id == id {
				w.listeners = append(w.listeners[:i:i], w.listeners[i+1:]...)
				return
			}
		}
	}
}

// Init загружает снимок (если настроен источник), запускает периодическое
// обновление и один раз отправляет booking-calendar:ready.
// Ошибка загрузки логируется, виджет остаётся на встроенном снимке.
func (w *Widget) Init(ctx context.Context) {
	w.mu.Lock()
	if w.ready {
		w.mu.Unlock()
		return
	}
	w.ready = true
	w.mu.Unlock()

	_ = w.Refresh(ctx)
	w.startRefreshLoop(ctx)
	w.dispatch([]Event{{Type: EventReady}})
}

// Update применяет новую конфигурацию. Непустой cfg.BookedSlots заменяет снимок;
// пустой заменяет его только у виджета без источника, иначе загруженный снимок
// сохраняется. При смене api-url снимок перезагружается в фоне.
// Выбранное время сбрасывается, если его больше нет в сетке слотов.
func (w *Widget) Update(cfg config.Widget) {
	w.mu.Lock()
	prev := w.cfg
	w.cfg = w.sanitize(cfg)
	urlChanged := prev.RemoteSource != w.cfg.RemoteSource
	if !w.customSource && urlChanged {
		w.src = w.sourceFor(w.cfg)
	}
	if len(w.cfg.BookedSlots) > 0 || w.src == nil {
		w.booked = w.cfg.BookedSlots.Clone()
	}
	refetch := w.ready && urlChanged && w.src != nil

	var events []Event
	if !w.state.SelectedDate.IsZero() {
		if w.state.SelectedTime != "" {
			if _, ok := calendar.FindSlot(w.slotsLocked(), w.state.SelectedTime); !ok {
				w.logger.Debug("selected time dropped after config update",
					zap.String("time", w.state.SelectedTime))
				w.state.SelectedTime = ""
			}
		}
		events = append(events, Event{Type: EventSlotsUpdated, Date: w.state.SelectedDate.String()})
	}
	restart := w.ready && (prev.RefreshInterval != w.cfg.RefreshInterval || prev.RemoteSource != w.cfg.RemoteSource)
	w.mu.Unlock()

	if restart {
		w.stopRefreshLoop()
		w.startRefreshLoop(context.Background())
	}
	w.dispatch(events)
	if refetch {
		go func() { _ = w.Refresh(context.Background()) }()
	}
}

// Teardown останавливает периодическое обновление и отписывает слушателей.
// Загрузка, которая уже идёт, не отменяется: её результат применится к снимку.
func (w *Widget) Teardown() {
	w.stopRefreshLoop()

	w.mu.Lock()
	w.listeners = nil
	w.ready = false
	w.mu.Unlock()
}

func (w *Widget) startRefreshLoop(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.cfg.RefreshInterval <= 0 || w.src == nil || w.stopRefresh != nil {
		return
	}
	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	w.stopRefresh = cancel
	go w.refreshLoop(loopCtx, w.cfg.RefreshInterval)
}

func (w *Widget) refreshLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = w.Refresh(ctx)
		}
	}
}

func (w *Widget) stopRefreshLoop() {
	w.mu.Lock()
	cancel := w.stopRefresh
	w.stopRefresh = nil
	w.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// Refresh перезагружает снимок из источника. Без источника ничего не делает.
// При ошибке снимок не меняется, флаг загрузки снимается, ошибка логируется
// и возвращается.
func (w *Widget) Refresh(ctx context.Context) error {
	w.mu.Lock()
	src := w.src
	if src == nil {
		w.mu.Unlock()
		return nil
	}
	w.inflight++
	events := w.setLoadingLocked(true)
	w.mu.Unlock()
	w.dispatch(events)

	slots, err := src.Fetch(ctx)

	w.mu.Lock()
	w.inflight--
	var done []Event
	if err == nil {
		w.booked = slots.Clone()
		if !w.state.SelectedDate.IsZero() {
			done = append(done, Event{Type: EventSlotsUpdated, Date: w.state.SelectedDate.String()})
		}
	}
	done = append(done, w.setLoadingLocked(w.inflight > 0)...)
	w.mu.Unlock()

	if err != nil {
		w.logger.Error("booked slots refresh failed, keeping previous snapshot", zap.Error(err))
	}
	w.dispatch(done)
	return err
}

// NavigateMonth сдвигает отображаемый месяц на delta. Выбор не меняется.
func (w *Widget) NavigateMonth(delta int) {
	w.mu.Lock()
	w.state = w.state.Navigate(delta)
	w.mu.Unlock()
}

// SelectDate выбирает дату и сбрасывает время. Несуществующая дата отклоняется.
func (w *Widget) SelectDate(d calendar.Date) bool {
	w.mu.Lock()
	next, ok := w.state.WithDate(d)
	if !ok {
		w.mu.Unlock()
		w.logger.Debug("date selection rejected", zap.Stringer("date", d))
		return false
	}
	w.state = next
	w.mu.Unlock()

	w.dispatch([]Event{{Type: EventDateSelected, Date: d.String()}})
	return true
}

// SelectTime выбирает время на выбранную дату. Занятые, прошедшие и
// отсутствующие в сетке слоты отклоняются без изменения состояния.
func (w *Widget) SelectTime(clock string) bool {
	w.mu.Lock()
	next, ok := w.state.WithTime(clock, w.slotsLocked())
	if !ok {
		date := w.state.SelectedDate.String()
		w.mu.Unlock()
		w.logger.Debug("time selection rejected", zap.String("date", date), zap.String("time", clock))
		return false
	}
	w.state = next
	sel, _ := w.state.Selection()
	w.mu.Unlock()

	w.dispatch([]Event{{Type: EventTimeSelected, Date: sel.Date, Time: sel.Time, DateTime: sel.DateTime}})
	return true
}

// SetLoading переключает индикатор загрузки. Больше ни на что не влияет.
func (w *Widget) SetLoading(loading bool) {
	w.mu.Lock()
	events := w.setLoadingLocked(loading)
	w.mu.Unlock()
	w.dispatch(events)
}

func (w *Widget) setLoadingLocked(loading bool) []Event {
	if w.state.Loading == loading {
		return nil
	}
	w.state.Loading = loading
	return []Event{{Type: EventLoadingChange, Loading: loading}}
}

// ReplaceBookedSlots целиком заменяет снимок копией slots. Если дата выбрана,
// отправляет slots-updated: статусы слотов пересчитываются при следующем чтении.
// Безопасно вызывать в любой момент, в том числе после Reset и Teardown.
func (w *Widget) ReplaceBookedSlots(slots calendar.BookedSlots) {
	w.mu.Lock()
	w.booked = slots.Clone()
	var events []Event
	if !w.state.SelectedDate.IsZero() {
		events = append(events, Event{Type: EventSlotsUpdated, Date: w.state.SelectedDate.String()})
	}
	w.mu.Unlock()
	w.dispatch(events)
}

func (w *Widget) SetBookedSlots(slots calendar.BookedSlots) {
	w.ReplaceBookedSlots(slots)
}

// Reset возвращает виджет в Idle, курсор — на текущий месяц.
func (w *Widget) Reset() {
	w.mu.Lock()
	w.state = w.state.Reset(calendar.DateOf(w.nowLocked()))
	w.mu.Unlock()
}

// SelectedDateTime возвращает выбор, если выбраны и дата, и время.
func (w *Widget) SelectedDateTime() (Selection, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state.Selection()
}

func (w *Widget) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Config возвращает текущую конфигурацию с актуальным снимком занятых слотов.
func (w *Widget) Config() config.Widget {
	w.mu.Lock()
	defer w.mu.Unlock()
	cfg := w.cfg
	cfg.BookedSlots = w.booked.Clone()
	return cfg
}

func (w *Widget) BookedSlots() calendar.BookedSlots {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.booked.Clone()
}

func (w *Widget) Cells() []calendar.Cell {
	w.mu.Lock()
	defer w.mu.Unlock()
	return calendar.Layout(w.state.Cursor, w.state.SelectedDate, calendar.DateOf(w.nowLocked()))
}

// Slots возвращает nil, пока дата не выбрана.
func (w *Widget) Slots() []calendar.TimeSlot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.slotsLocked()
}

func (w *Widget) MonthTitle() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return calendar.MonthTitle(w.state.Cursor, w.cfg.Locale)
}

func (w *Widget) WeekdayHeaders() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return calendar.WeekdayHeaders(w.cfg.Locale)
}

// SelectedLabel пустая, пока не выбраны и дата, и время.
func (w *Widget) SelectedLabel() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state.Phase() != PhaseTimeChosen {
		return ""
	}
	return calendar.FormatDateTime(w.state.SelectedDate, w.state.SelectedTime, w.cfg.Locale)
}

func (w *Widget) slotsLocked() []calendar.TimeSlot {
	if w.state.SelectedDate.IsZero() {
		return nil
	}
	return calendar.GenerateSlots(
		w.state.SelectedDate,
		w.cfg.WorkHours,
		w.cfg.SlotDuration,
		w.booked.Times(w.state.SelectedDate),
		w.state.SelectedTime,
		w.nowLocked(),
	)
}

func (w *Widget) nowLocked() time.Time {
	return w.now().In(w.cfg.Location)
}

func (w *Widget) dispatch(events []Event) {
	if len(events) == 0 {
		return
	}
	w.mu.Lock()
	listeners := make([]Listener, 0, len(w.listeners))
	for _, s := range w.listeners {
		listeners = append(listeners, s.fn)
	}
	w.mu.Unlock()

	for _, ev := range events {
		for _, l := range listeners {
			l(ev)
		}
	}
}

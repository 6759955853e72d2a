package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/zaviruha/bookingcalendar/internal/calendar"
	"github.com/zaviruha/bookingcalendar/internal/metrics"
)

const (
	defaultTimeout = 10 * time.Second
	maxBodyBytes   = 1 << 20
)

var ErrThrottled = errors.New("booked slots fetch throttled")

// FetchError — сетевая ошибка или неуспешный ответ удалённого источника.
// Снимок виджета при этом не меняется.
type FetchError struct {
	URL        string
	StatusCode int // 0, если ответа не было
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch booked slots from %s: status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch booked slots from %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Remote загружает снимок GET-запросом: тело — JSON вида {"YYYY-MM-DD": ["HH:MM", ...]}.
type Remote struct {
	url     string
	client  *http.Client
	limiter *rate.Limiter
	metrics *metrics.FetchMetrics
	logger  *zap.Logger
}

type RemoteOption func(*Remote)

func WithHTTPClient(c *http.Client) RemoteOption {
	return func(r *Remote) { r.client = c }
}

// WithRateLimit ограничивает частоту запросов (refresh от хоста может приходить пачками).
func WithRateLimit(every time.Duration, burst int) RemoteOption {
	return func(r *Remote) { r.limiter = rate.NewLimiter(rate.Every(every), burst) }
}

func WithMetrics(m *metrics.FetchMetrics) RemoteOption {
	return func(r *Remote) { r.metrics = m }
}

func WithLogger(l *zap.Logger) RemoteOption {
	return func(r *Remote) { r.logger = l }
}

func NewRemote(url string, opts ...RemoteOption) *Remote {
	r := &Remote{
		url:     url,
		client:  &http.Client{Timeout: defaultTimeout},
		limiter: rate.NewLimiter(rate.Every(time.Second), 3),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Remote) URL() string { return r.url }

// Fetch ждёт токен лимитера и выполняет запрос. Некорректные записи в ответе
// отбрасываются с предупреждением, остальные принимаются.
func (r *Remote) Fetch(ctx context.Context) (calendar.BookedSlots, error) {
	start := time.Now()

	if err := r.limiter.Wait(ctx); err != nil {
		r.observe("throttled", start)
		return nil, &FetchError{URL: r.url, Err: fmt.Errorf("%w: %v", ErrThrottled, err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.url, nil)
	if err != nil {
		r.observe("transport_error", start)
		return nil, &FetchError{URL: r.url, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		r.observe("transport_error", start)
		return nil, &FetchError{URL: r.url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		r.observe("http_error", start)
		return nil, &FetchError{URL: r.url, StatusCode: resp.StatusCode}
	}

	var slots calendar.BookedSlots
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&slots); err != nil {
		r.observe("decode_error", start)
		return nil, &FetchError{URL: r.url, Err: fmt.Errorf("decode body: %w", err)}
	}

	clean, dropped := slots.Normalize()
	if len(dropped) > 0 {
		r.logger.Warn("remote booked slots contain malformed entries",
			zap.String("url", r.url),
			zap.Strings("dropped", dropped),
		)
	}

	r.observe("ok", start)
	return clean, nil
}

func (r *Remote) observe(outcome string, start time.Time) {
	r.metrics.ObserveFetch(outcome, time.Since(start).Seconds())
}

package httpapi

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Config — зависимости HTTP-роутера.
type Config struct {
	Bookings       BookingService
	Logger         *zap.Logger
	MetricsHandler http.Handler // nil — без /metrics
	// Ready проверяет хранилище для /healthz. nil — всегда готов.
	Ready              func(ctx context.Context) error
	CORSAllowedOrigins []string
}

// New собирает chi-роутер со всеми маршрутами сервиса.
func New(cfg *Config) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	h := NewHandler(cfg.Bookings, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(cors(cfg.CORSAllowedOrigins))
	}

	r.Get("/healthz", healthz(cfg.Ready))
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Route("/api", func(api chi.Router) {
		api.Route("/calendars/{calendarID}", func(cal chi.Router) {
			cal.Get("/booked-slots", h.Snapshot)
			cal.Get("/bookings", h.ListBookings)
			cal.Post("/bookings", h.CreateBooking)
		})
		api.Delete("/bookings/{bookingID}", h.CancelBooking)
	})

	return r
}

func healthz(ready func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ready != nil {
			if err := ready(r.Context()); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/zaviruha/bookingcalendar/internal/calendar"
	"github.com/zaviruha/bookingcalendar/internal/service"
)

const maxRequestBody = 16 << 10

// BookingService — операции над бронями, которые нужны HTTP-слою.
type BookingService interface {
	Snapshot(ctx context.Context, calendarID string) (calendar.BookedSlots, error)
	Book(ctx context.Context, calendarID string, req service.BookRequest) (*service.Booking, error)
	Cancel(ctx context.Context, bookingID string) error
	List(ctx context.Context, calendarID string, page, pageSize int) (calendar.Page[service.Booking], error)
}

type Handler struct {
	svc    BookingService
	logger *zap.Logger
}

func NewHandler(svc BookingService, logger *zap.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Snapshot handles GET /api/calendars/{calendarID}/booked-slots.
// Тело ответа — тот самый JSON, который виджет читает по api-url.
func (h *Handler) Snapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := h.svc.Snapshot(r.Context(), chi.URLParam(r, "calendarID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// ListBookings handles GET /api/calendars/{calendarID}/bookings?page=&page_size=.
func (h *Handler) ListBookings(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page")
	pageSize := queryInt(r, "page_size")

	result, err := h.svc.List(r.Context(), chi.URLParam(r, "calendarID"), page, pageSize)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// CreateBooking handles POST /api/calendars/{calendarID}/bookings.
func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req service.BookRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}

	booking, err := h.svc.Book(r.Context(), chi.URLParam(r, "calendarID"), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, booking)
}

// CancelBooking handles DELETE /api/bookings/{bookingID}.
func (h *Handler) CancelBooking(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Cancel(r.Context(), chi.URLParam(r, "bookingID")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type errorBody struct {
	Error string `json:"error"`
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidSlot), errors.Is(err, service.ErrInvalidCalendar):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
	case errors.Is(err, service.ErrSlotTaken):
		writeJSON(w, http.StatusConflict, errorBody{Error: err.Error()})
	case errors.Is(err, service.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
	default:
		h.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// queryInt возвращает 0 для пустого или нечислового значения: сервис подставит дефолт.
func queryInt(r *http.Request, key string) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil {
		return 0
	}
	return v
}

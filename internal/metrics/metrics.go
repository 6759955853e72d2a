package metrics

import "github.com/prometheus/client_golang/prometheus"

// FetchMetrics считает загрузки занятых слотов с удалённого источника.
type FetchMetrics struct {
	fetchTotal   *prometheus.CounterVec
	fetchLatency prometheus.Histogram
}

func NewFetchMetrics(reg prometheus.Registerer) *FetchMetrics {
	m := &FetchMetrics{
		fetchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "booking_calendar",
			Subsystem: "picker",
			Name:      "booked_slots_fetch_total",
			Help:      "Booked-slots fetches from the remote source by outcome",
		}, []string{"outcome"}),
		fetchLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "booking_calendar",
			Subsystem: "picker",
			Name:      "booked_slots_fetch_seconds",
			Help:      "Latency of booked-slots fetches",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.fetchTotal, m.fetchLatency)
	return m
}

// ObserveFetch: outcome = ok | http_error | decode_error | transport_error | throttled.
func (m *FetchMetrics) ObserveFetch(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.fetchTotal.WithLabelValues(outcome).Inc()
	m.fetchLatency.Observe(seconds)
}

// APIMetrics — метрики сервиса, отдающего снимок занятых слотов.
type APIMetrics struct {
	snapshotTotal *prometheus.CounterVec
	bookingsTotal *prometheus.CounterVec
}

func NewAPIMetrics(reg prometheus.Registerer) *APIMetrics {
	m := &APIMetrics{
		snapshotTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "booking_calendar",
			Subsystem: "api",
			Name:      "snapshot_requests_total",
			Help:      "Booked-slots snapshot requests by cache result",
		}, []string{"cache"}),
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "booking_calendar",
			Subsystem: "api",
			Name:      "booking_mutations_total",
			Help:      "Booking create/cancel operations by result",
		}, []string{"operation", "result"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.snapshotTotal, m.bookingsTotal)
	return m
}

// ObserveSnapshot: cache = hit | miss | disabled.
func (m *APIMetrics) ObserveSnapshot(cache string) {
	if m == nil {
		return
	}
	m.snapshotTotal.WithLabelValues(cache).Inc()
}

func (m *APIMetrics) ObserveMutation(operation, result string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(operation, result).Inc()
}

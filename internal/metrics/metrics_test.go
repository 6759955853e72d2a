package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestFetchMetrics_CustomRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewFetchMetrics(reg)

	m.ObserveFetch("ok", 0.1)
	m.ObserveFetch("ok", 0.2)
	m.ObserveFetch("http_error", 0.05)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.fetchTotal.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.fetchTotal.WithLabelValues("http_error")))
}

func TestAPIMetrics_CustomRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewAPIMetrics(reg)

	m.ObserveSnapshot("hit")
	m.ObserveMutation("create", "ok")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.snapshotTotal.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.bookingsTotal.WithLabelValues("create", "ok")))
}

func TestNilMetricsAreSafe(t *testing.T) {
	var f *FetchMetrics
	var a *APIMetrics
	f.ObserveFetch("ok", 1)
	a.ObserveSnapshot("miss")
	a.ObserveMutation("cancel", "error")
}

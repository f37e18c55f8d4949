package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slotwise/internal/modules/scheduling"
)

func TestRecorder_ObserveSuggestion(t *testing.T) {
	reg := prometheus.NewRegistry()
	r, err := NewRecorder(reg)
	require.NoError(t, err)

	r.ObserveSuggestion(scheduling.RiskLow, scheduling.OriginBase, 3, 4)
	r.ObserveSuggestion(scheduling.RiskLow, scheduling.OriginBase, 3, 0)
	r.ObserveSuggestion(scheduling.RiskHigh, scheduling.OriginUnknown, 45, 2)

	assert.Equal(t, 1.0, testutil.ToFloat64(r.suggestions.WithLabelValues("low", "base", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.suggestions.WithLabelValues("low", "base", "false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.suggestions.WithLabelValues("high", "unknown", "true")))
	assert.Equal(t, 2, testutil.CollectAndCount(r.candidates))
}

func TestRecorder_ObserveBooking(t *testing.T) {
	reg := prometheus.NewRegistry()
	r, err := NewRecorder(reg)
	require.NoError(t, err)

	r.ObserveBooking("confirm", "ok")
	r.ObserveBooking("confirm", "ok")
	r.ObserveBooking("confirm", "overlap")
	assert.Equal(t, 2.0, testutil.ToFloat64(r.bookings.WithLabelValues("confirm", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.bookings.WithLabelValues("confirm", "overlap")))
}

func TestNewRecorder_ReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	a, err := NewRecorder(reg)
	require.NoError(t, err)
	b, err := NewRecorder(reg)
	require.NoError(t, err)

	a.ObserveBooking("cancel", "ok")
	assert.Equal(t, 1.0, testutil.ToFloat64(b.bookings.WithLabelValues("cancel", "ok")))
}

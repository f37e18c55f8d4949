// README: Prometheus collectors for slot suggestions and bookings.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"slotwise/internal/modules/scheduling"
)

// Recorder implements scheduling.Observer and records booking outcomes.
type Recorder struct {
	suggestions *prometheus.CounterVec
	candidates  *prometheus.HistogramVec
	buffer      *prometheus.HistogramVec
	bookings    *prometheus.CounterVec
}

// NewRecorder registers the collectors on reg; nil means the default registerer.
func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	suggestions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "slotwise_suggestions_total",
		Help: "Slot suggestion requests by risk tier, origin source and outcome",
	}, []string{"risk", "origin", "feasible"})
	candidates := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "slotwise_candidates_per_suggestion",
		Help:    "Number of candidates returned per suggestion",
		Buckets: []float64{0, 1, 2, 3, 4, 6, 8},
	}, []string{"risk"})
	buffer := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "slotwise_buffer_minutes",
		Help:    "Buffer minutes applied per suggestion",
		Buckets: []float64{0, 5, 10, 15, 20, 30, 45, 60},
	}, []string{"risk"})
	bookings := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "slotwise_bookings_total",
		Help: "Booking operations by action and result",
	}, []string{"action", "result"})

	var err error
	if suggestions, err = register(reg, suggestions); err != nil {
		return nil, err
	}
	if candidates, err = register(reg, candidates); err != nil {
		return nil, err
	}
	if buffer, err = register(reg, buffer); err != nil {
		return nil, err
	}
	if bookings, err = register(reg, bookings); err != nil {
		return nil, err
	}
	return &Recorder{suggestions: suggestions, candidates: candidates, buffer: buffer, bookings: bookings}, nil
}

// register returns the already registered collector when one exists.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func (r *Recorder) ObserveSuggestion(risk scheduling.RiskTier, source scheduling.OriginSource, bufferMinutes, candidates int) {
	r.suggestions.WithLabelValues(string(risk), string(source), strconv.FormatBool(candidates > 0)).Inc()
	r.candidates.WithLabelValues(string(risk)).Observe(float64(candidates))
	r.buffer.WithLabelValues(string(risk)).Observe(float64(bufferMinutes))
}

// ObserveBooking counts a booking action ("confirm", "cancel") with its result
// ("ok", "overlap", "conflict", "invalid", "error").
func (r *Recorder) ObserveBooking(action, result string) {
	r.bookings.WithLabelValues(action, result).Inc()
}

package recognizer

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the upstream call collectors.
type Metrics struct {
	callDuration *prometheus.HistogramVec
	detections   prometheus.Counter
}

// NewMetrics creates and registers the recognizer collectors on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		callDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "plate_recognizer_request_duration_seconds",
				Help:    "Latency of calls to the plate recognition API.",
				Buckets: []float64{.1, .25, .5, 1, 2, 5, 10},
			},
			[]string{"outcome"},
		),
		detections: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "plate_recognizer_detections_total",
			Help: "Total number of plates returned by the plate recognition API.",
		}),
	}

	for _, c := range []prometheus.Collector{m.callDuration, m.detections} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// observe is nil-safe so clients built without metrics skip recording.
func (m *Metrics) observe(d time.Duration, plates int, err error) {
	if m == nil {
		return
	}
	m.callDuration.WithLabelValues(outcome(err)).Observe(d.Seconds())
	if err == nil {
		m.detections.Add(float64(plates))
	}
}

func outcome(err error) string {
	var se *StatusError
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrMissingToken):
		return "unconfigured"
	case errors.As(err, &se):
		return "upstream_status"
	default:
		return "error"
	}
}

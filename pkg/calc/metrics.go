package calc

import (
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// metrics are the Prometheus collectors updated by a Runtime.
type metrics struct {
	evaluations *prometheus.CounterVec
	duration    prometheus.Histogram
	cacheHits   prometheus.Counter
}

func newMetrics(reg prometheus.Registerer) (*metrics, error) {
	m := &metrics{
		evaluations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "calc",
			Name:      "evaluations_total",
			Help:      "Expressions evaluated, by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "calc",
			Name:      "evaluation_duration_seconds",
			Help:      "Time spent evaluating a single expression.",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 10),
		}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "calc",
			Name:      "cache_hits_total",
			Help:      "Evaluations answered from the result cache.",
		}),
	}
	for _, c := range []prometheus.Collector{m.evaluations, m.duration, m.cacheHits} {
		if err := reg.Register(c); err != nil {
			return nil, errors.Wrap(err, "registering metrics")
		}
	}
	return m, nil
}

// outcome returns the label for an evaluation result.
func outcome(kind string) string {
	if kind == "" {
		return "ok"
	}
	return kind
}

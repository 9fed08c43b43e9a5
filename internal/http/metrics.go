package httpx

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/santosh0705/proxngin/internal/domain"
)

var histogramBuckets = []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10}

func (o *Observer) initMetrics() {
	o.metricsOnce.Do(func() {
		o.passesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "proxngin",
			Name:      "passes_total",
			Help:      "Count of reconciliation passes by result",
		}, []string{"result"})

		o.passDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "proxngin",
			Name:      "pass_duration_seconds",
			Help:      "Latency distribution of reconciliation passes",
			Buckets:   histogramBuckets,
		})

		o.eventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "proxngin",
			Name:      "container_events_total",
			Help:      "Count of container lifecycle events by action",
		}, []string{"action"})

		o.streamRetries = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "proxngin",
			Name:      "stream_retries_total",
			Help:      "Number of event stream reconnect attempts",
		})

		collectors := []prometheus.Collector{o.passesTotal, o.passDuration, o.eventsTotal, o.streamRetries}
		for _, collector := range collectors {
			if err := prometheus.Register(collector); err != nil {
				if already, ok := err.(prometheus.AlreadyRegisteredError); ok {
					switch existing := already.ExistingCollector.(type) {
					case *prometheus.CounterVec:
						if collector == o.passesTotal {
							o.passesTotal = existing
						} else {
							o.eventsTotal = existing
						}
					case prometheus.Histogram:
						o.passDuration = existing
					case prometheus.Counter:
						o.streamRetries = existing
					}
				}
			}
		}
		o.metricsInitialized = true
	})
}

func (o *Observer) recordPass(result domain.PassResult) {
	if !o.metricsInitialized {
		return
	}
	outcome := "success"
	if !result.OK() {
		outcome = "failure"
	}
	o.passesTotal.With(prometheus.Labels{"result": outcome}).Inc()
	o.passDuration.Observe(result.Duration.Seconds())
}

func (o *Observer) recordEvent(action string) {
	if !o.metricsInitialized {
		return
	}
	o.eventsTotal.With(prometheus.Labels{"action": action}).Inc()
}

func (o *Observer) recordRetry() {
	if !o.metricsInitialized {
		return
	}
	o.streamRetries.Inc()
}

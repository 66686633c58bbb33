package redrain

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusConfig is a config of the Prometheus metrics provided by the
// drain decorators.
//
// An instance can be created only by the [Prometheus] function. The zero value is invalid.
type PrometheusConfig struct {
	// Namespace of the metrics.
	Namespace string
	// Subsystem of the metrics.
	Subsystem string
	// Options for the delivery attempts counter.
	Attempts prometheus.CounterOpts
	// Options for the successful deliveries counter.
	Deliveries prometheus.CounterOpts
	// Options for the terminal failures counter.
	Failures prometheus.CounterOpts
	// Options for the stored dead letters counter.
	DeadLetters prometheus.CounterOpts
	// Options for the emit duration histogram.
	EmitDuration prometheus.HistogramOpts

	registerer prometheus.Registerer
}

// Prometheus returns a [PrometheusConfig] with the provided registerer. If registerer is nil,
// metrics will not be registered. Many default parameters can be configured by passing
// configuration functions.
func Prometheus(
	registerer prometheus.Registerer,
	configFuncs ...func(c *PrometheusConfig),
) *PrometheusConfig {
	const (
		namespace = "redrain"
		subsystem = ""
	)

	c := PrometheusConfig{
		registerer: registerer,
		Namespace:  namespace,
		Subsystem:  subsystem,
		Attempts: prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "attempts",
			Help:      "Number of delivery attempts made against the inner drain",
		},
		Deliveries: prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "deliveries",
			Help:      "Number of records delivered successfully",
		},
		Failures: prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "failures",
			Help:      "Number of records that failed delivery terminally",
		},
		DeadLetters: prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "dead_letters",
			Help:      "Number of records stored in the dead-letter storage",
		},
		EmitDuration: prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "emit_duration_seconds",
			Help:      "Duration of a full emit call including retries",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 14),
		},
	}

	for _, cf := range configFuncs {
		if cf != nil {
			cf(&c)
		}
	}

	return &c
}

func (c *PrometheusConfig) metrics() *metrics {
	m := metrics{
		attempts:     prometheus.NewCounter(c.Attempts),
		deliveries:   prometheus.NewCounter(c.Deliveries),
		failures:     prometheus.NewCounterVec(c.Failures, []string{"kind"}),
		deadLetters:  prometheus.NewCounter(c.DeadLetters),
		emitDuration: prometheus.NewHistogram(c.EmitDuration),
	}

	if c.registerer != nil {
		c.registerer.MustRegister(
			m.attempts,
			m.deliveries,
			m.failures,
			m.deadLetters,
			m.emitDuration,
		)
	}

	return &m
}

type metrics struct {
	attempts     prometheus.Counter
	deliveries   prometheus.Counter
	failures     *prometheus.CounterVec
	deadLetters  prometheus.Counter
	emitDuration prometheus.Histogram
}

package telemetry

import (
	"errors"

	"github.com/hashicorp/go-multierror"
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "agentops"

// Flush triggers, used as the "trigger" label.
const (
	triggerSize   = "size"
	triggerTimer  = "timer"
	triggerManual = "manual"
	triggerFinal  = "final"
)

// Metrics instruments the event pipeline. Build it with a nil registerer to
// keep the collectors private to one client.
type Metrics struct {
	EventsEnqueued prometheus.Counter
	EventsRejected *prometheus.CounterVec
	EventsFlushed  prometheus.Counter
	EventsDropped  prometheus.Counter
	Flushes        *prometheus.CounterVec
	FlushDuration  prometheus.Histogram
	QueueLength    prometheus.Gauge
}

// NewMetrics builds the collectors and registers them with reg. Collectors
// already registered by an earlier client are reused. Any other registration
// failure is returned, and the affected collectors stay unregistered but
// usable.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	r := registrar{reg: reg}

	m := &Metrics{
		EventsEnqueued: register(&r, prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "events_enqueued_total",
			Help:      "Events accepted into the queue.",
		})),
		EventsRejected: register(&r, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "events_rejected_total",
			Help:      "Events refused before reaching the queue.",
		}, []string{"reason"})),
		EventsFlushed: register(&r, prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "events_flushed_total",
			Help:      "Events delivered to the collector.",
		})),
		EventsDropped: register(&r, prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "events_dropped_total",
			Help:      "Events discarded after a failed delivery or a full queue.",
		})),
		Flushes: register(&r, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "flushes_total",
			Help:      "Non-empty flushes by trigger.",
		}, []string{"trigger"})),
		FlushDuration: register(&r, prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "flush_duration_seconds",
			Help:      "Time spent posting one batch.",
			Buckets:   prometheus.DefBuckets,
		})),
		QueueLength: register(&r, prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "queue_length",
			Help:      "Events waiting to be flushed.",
		})),
	}

	return m, r.errs.ErrorOrNil()
}

// unregisteredMetrics returns collectors private to their owner.
func unregisteredMetrics() *Metrics {
	m, _ := NewMetrics(nil)
	return m
}

type registrar struct {
	reg  prometheus.Registerer
	errs *multierror.Error
}

func register[T prometheus.Collector](r *registrar, c T) T {
	if r.reg == nil {
		return c
	}
	err := r.reg.Register(c)
	if err == nil {
		return c
	}
	if are, ok := errors.AsType[prometheus.AlreadyRegisteredError](err); ok {
		if existing, ok := are.ExistingCollector.(T); ok {
			return existing
		}
	}
	r.errs = multierror.Append(r.errs, err)
	return c
}

package telemetry

import (
	"github.com/agentops-ai/agentops-go/pkg/concurrent"
	"github.com/agentops-ai/agentops-go/pkg/event"
)

// capacityFactor sets the hard limit of a queue as a multiple of the size
// that triggers a flush.
const capacityFactor = 10

// EventQueue buffers events of one session until the flusher drains them.
// Enqueue never blocks and is safe to call from any goroutine. Events
// arriving while the queue holds its hard limit are dropped.
type EventQueue struct {
	events   *concurrent.Slice[*event.Event]
	maxSize  int
	capacity int
	full     chan struct{}
	metrics  *Metrics
}

func NewEventQueue(maxSize int, metrics *Metrics) *EventQueue {
	if metrics == nil {
		metrics = unregisteredMetrics()
	}
	maxSize = max(maxSize, 1)
	return &EventQueue{
		events:   concurrent.NewSlice[*event.Event](),
		maxSize:  maxSize,
		capacity: maxSize * capacityFactor,
		full:     make(chan struct{}, 1),
		metrics:  metrics,
	}
}

// Enqueue validates ev and appends a private copy of it. Reaching the size
// limit wakes the flusher without waiting for it.
func (q *EventQueue) Enqueue(ev *event.Event) error {
	if err := ev.Validate(); err != nil {
		q.metrics.EventsRejected.WithLabelValues("invalid").Inc()
		return err
	}

	n, ok := q.events.AppendBounded(ev.Clone(), q.capacity)
	if !ok {
		q.metrics.EventsDropped.Inc()
		q.signalFull()
		return ErrQueueFull
	}
	q.metrics.EventsEnqueued.Inc()
	q.metrics.QueueLength.Set(float64(n))

	if n >= q.maxSize {
		q.signalFull()
	}
	return nil
}

func (q *EventQueue) signalFull() {
	select {
	case q.full <- struct{}{}:
	default:
	}
}

// DrainAll removes every queued event in enqueue order. Events enqueued
// concurrently either make this batch or the next one, never both.
func (q *EventQueue) DrainAll() []*event.Event {
	batch := q.events.Drain()
	q.metrics.QueueLength.Set(float64(q.events.Length()))
	return batch
}

func (q *EventQueue) Len() int {
	return q.events.Length()
}

// Full fires after the queue reached its size limit.
func (q *EventQueue) Full() <-chan struct{} {
	return q.full
}

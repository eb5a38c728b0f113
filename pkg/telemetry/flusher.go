package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/agentops-ai/agentops-go/pkg/event"
)

type postFunc func(ctx context.Context, events []*event.Event) error

// Flusher drains one session's queue in the background, either when the
// queue fills up or when maxWait has passed since the previous flush.
// A batch that fails to post is dropped.
type Flusher struct {
	queue          *EventQueue
	post           postFunc
	maxWait        time.Duration
	requestTimeout time.Duration
	logger         *prefixLogger
	metrics        *Metrics

	// postMu keeps batches leaving in drain order.
	postMu sync.Mutex

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func newFlusher(queue *EventQueue, post postFunc, maxWait, requestTimeout time.Duration, logger *prefixLogger, metrics *Metrics) *Flusher {
	return &Flusher{
		queue:          queue,
		post:           post,
		maxWait:        maxWait,
		requestTimeout: requestTimeout,
		logger:         logger,
		metrics:        metrics,
		stop:           make(chan struct{}),
		done:           make(chan struct{}),
	}
}

func (f *Flusher) start() {
	go f.run()
}

func (f *Flusher) run() {
	defer close(f.done)

	timer := time.NewTimer(f.maxWait)
	defer timer.Stop()

	for {
		select {
		case <-f.stop:
			return
		case <-timer.C:
			_ = f.flush(context.Background(), triggerTimer)
		case <-f.queue.Full():
			_ = f.flush(context.Background(), triggerSize)
		}
		timer.Reset(f.maxWait)
	}
}

// Flush sends whatever is queued right now.
func (f *Flusher) Flush(ctx context.Context) error {
	return f.flush(ctx, triggerManual)
}

// Stop ends the background loop and performs the final flush. ctx bounds
// the whole sequence; events still queued when it expires are lost.
func (f *Flusher) Stop(ctx context.Context) error {
	f.stopOnce.Do(func() { close(f.stop) })

	select {
	case <-f.done:
	case <-ctx.Done():
		f.logger.Warn("Timed out waiting for the event flusher", "pending", f.queue.Len())
		return ctx.Err()
	}

	return f.flush(ctx, triggerFinal)
}

func (f *Flusher) flush(ctx context.Context, trigger string) error {
	f.postMu.Lock()
	defer f.postMu.Unlock()

	batch := f.queue.DrainAll()
	if len(batch) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, f.requestTimeout)
	defer cancel()

	start := time.Now()
	err := f.post(ctx, batch)
	f.metrics.FlushDuration.Observe(time.Since(start).Seconds())
	f.metrics.Flushes.WithLabelValues(trigger).Inc()

	if err != nil {
		f.metrics.EventsDropped.Add(float64(len(batch)))
		f.logger.Warn("Could not deliver events, dropping batch", "events", len(batch), "trigger", trigger, "error", err)
		return err
	}

	f.metrics.EventsFlushed.Add(float64(len(batch)))
	f.logger.Debug("Flushed events", "events", len(batch), "trigger", trigger)
	return nil
}

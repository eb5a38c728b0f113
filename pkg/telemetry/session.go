package telemetry

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/agentops-ai/agentops-go/pkg/event"
	"github.com/agentops-ai/agentops-go/pkg/session"
)

// Transport is the collector API the session manager drives.
// *transport.Client implements it.
type Transport interface {
	CreateSession(ctx context.Context, s *session.Session) error
	PostEvents(ctx context.Context, s *session.Session, events []*event.Event) error
	UpdateSession(ctx context.Context, s *session.Session) error
	EndSession(ctx context.Context, s *session.Session) error
	CreateAgent(ctx context.Context, s *session.Session, id, name string) error
}

type sessionState int

const (
	stateUninitialized sessionState = iota
	stateStarting
	stateStarted
	stateEnded
)

func (s sessionState) String() string {
	switch s {
	case stateStarting:
		return "starting"
	case stateStarted:
		return "started"
	case stateEnded:
		return "ended"
	default:
		return "uninitialized"
	}
}

// SessionManager owns the lifecycle of at most one active session and the
// queue and flusher that belong to it.
type SessionManager struct {
	transport      Transport
	maxWait        time.Duration
	maxQueueSize   int
	requestTimeout time.Duration
	logger         *prefixLogger
	metrics        *Metrics

	mu      sync.RWMutex
	state   sessionState
	current *session.Session
	queue   *EventQueue
	flusher *Flusher
	stats   *sessionStats
	// ending is closed once the last End has finished its network calls.
	ending chan struct{}
}

type sessionManagerOptions struct {
	maxWait        time.Duration
	maxQueueSize   int
	requestTimeout time.Duration
}

func newSessionManager(transport Transport, opts sessionManagerOptions, logger *prefixLogger, metrics *Metrics) *SessionManager {
	return &SessionManager{
		transport:      transport,
		maxWait:        opts.maxWait,
		maxQueueSize:   opts.maxQueueSize,
		requestTimeout: opts.requestTimeout,
		logger:         logger,
		metrics:        metrics,
	}
}

// Start opens a new session. It fails while another session is starting
// or started. A session the collector did not accept is never marked
// started.
func (m *SessionManager) Start(ctx context.Context, tags []string) (*session.Session, error) {
	m.mu.Lock()
	if m.state == stateStarting || m.state == stateStarted {
		m.mu.Unlock()
		m.logger.Warn("Cannot start a session while another one is active")
		return nil, &LocalValidationError{Op: "start_session", Err: ErrSessionActive}
	}
	previous := m.state
	m.state = stateStarting
	m.mu.Unlock()

	s := session.New(tags)
	if err := m.transport.CreateSession(ctx, s); err != nil {
		m.mu.Lock()
		m.state = previous
		m.mu.Unlock()
		m.logger.Warn("Could not start session, events will not be recorded", "error", err)
		return nil, fmt.Errorf("starting session: %w", err)
	}

	queue := NewEventQueue(m.maxQueueSize, m.metrics)
	flusher := newFlusher(queue, func(ctx context.Context, events []*event.Event) error {
		return m.transport.PostEvents(ctx, s, events)
	}, m.maxWait, m.requestTimeout, m.logger, m.metrics)

	m.mu.Lock()
	m.state = stateStarted
	m.current = s
	m.queue = queue
	m.flusher = flusher
	m.stats = newSessionStats()
	m.ending = nil
	snapshot := s.Clone()
	m.mu.Unlock()

	flusher.start()
	return snapshot, nil
}

// Enqueue hands ev to the active session's queue. It never does I/O.
func (m *SessionManager) Enqueue(ev *event.Event) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.state != stateStarted {
		m.metrics.EventsRejected.WithLabelValues("no_session").Inc()
		m.logger.Warn("Cannot record event: no session is active", "event_type", ev.EventType, "state", m.state)
		return &LocalValidationError{Op: "record", Err: ErrNoActiveSession}
	}

	if err := m.queue.Enqueue(ev); errors.Is(err, ErrQueueFull) {
		m.logger.Warn("Dropping event: queue is full", "event_type", ev.EventType)
		return err
	} else if err != nil {
		m.logger.Warn("Dropping malformed event", "error", err)
		return &LocalValidationError{Op: "record", Err: err}
	}
	m.stats.add(ev)
	return nil
}

// AddTags appends tags not already present and pushes the result.
func (m *SessionManager) AddTags(ctx context.Context, tags []string) error {
	return m.update(ctx, func(s *session.Session) {
		for _, tag := range tags {
			if !slices.Contains(s.Tags, tag) {
				s.Tags = append(s.Tags, tag)
			}
		}
	})
}

// SetTags replaces the session tags and pushes the result.
func (m *SessionManager) SetTags(ctx context.Context, tags []string) error {
	return m.update(ctx, func(s *session.Session) {
		s.Tags = slices.Clone(tags)
	})
}

// update applies mutate to a copy of the session and keeps the new tags only
// once the collector has accepted them.
func (m *SessionManager) update(ctx context.Context, mutate func(*session.Session)) error {
	m.mu.Lock()
	if m.state != stateStarted {
		m.mu.Unlock()
		m.logger.Warn("Cannot update tags: no session is active")
		return &LocalValidationError{Op: "update_session", Err: ErrNoActiveSession}
	}
	current := m.current
	snapshot := current.Clone()
	mutate(snapshot)
	m.mu.Unlock()

	if err := m.transport.UpdateSession(ctx, snapshot); err != nil {
		m.logger.Warn("Could not update session", "session_id", snapshot.ID, "error", err)
		return err
	}

	m.mu.Lock()
	if m.current == current {
		current.Tags = slices.Clone(snapshot.Tags)
	}
	m.mu.Unlock()
	return nil
}

// End moves the active session to its terminal state, flushes what is left
// in its queue and reports the end to the collector. The session counts as
// ended even when the network calls fail. Ending twice is a no-op, but the
// second call waits for the first one to finish.
func (m *SessionManager) End(ctx context.Context, opts session.EndOptions) error {
	if !opts.State.Valid() {
		m.logger.Warn("Invalid end state", "end_state", opts.State)
		return &LocalValidationError{Op: "end_session", Err: fmt.Errorf("invalid end state %q", opts.State)}
	}

	m.mu.Lock()
	switch m.state {
	case stateEnded:
		m.mu.Unlock()
		m.logger.Warn("Session already ended")
		return m.WaitEnded(ctx)
	case stateStarted:
	default:
		m.mu.Unlock()
		m.logger.Warn("Cannot end session: no session is active")
		return &LocalValidationError{Op: "end_session", Err: ErrNoActiveSession}
	}

	m.state = stateEnded
	m.current.End(opts)
	snapshot := m.current.Clone()
	flusher := m.flusher
	stats := m.stats
	ending := make(chan struct{})
	m.ending = ending
	m.mu.Unlock()
	defer close(ending)

	var result *multierror.Error
	if err := flusher.Stop(ctx); err != nil {
		result = multierror.Append(result, fmt.Errorf("flushing events: %w", err))
	}
	if err := m.transport.EndSession(ctx, snapshot); err != nil {
		result = multierror.Append(result, fmt.Errorf("ending session: %w", err))
	}

	m.logger.Info("Session ended", append([]any{"session_id", snapshot.ID, "end_state", snapshot.EndState}, stats.logArgs()...)...)
	if err := result.ErrorOrNil(); err != nil {
		m.logger.Warn("Session ended locally but the collector may not know", "session_id", snapshot.ID, "error", err)
		return err
	}
	return nil
}

// WaitEnded blocks until an End in progress has reported to the collector,
// or ctx is done.
func (m *SessionManager) WaitEnded(ctx context.Context) error {
	m.mu.RLock()
	ending := m.ending
	m.mu.RUnlock()
	if ending == nil {
		return nil
	}

	select {
	case <-ending:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// CreateAgent registers an agent within the active session.
func (m *SessionManager) CreateAgent(ctx context.Context, id, name string) error {
	m.mu.RLock()
	if m.state != stateStarted {
		m.mu.RUnlock()
		m.logger.Warn("Cannot create agent: no session is active", "agent_id", id)
		return &LocalValidationError{Op: "create_agent", Err: ErrNoActiveSession}
	}
	s := m.current
	m.mu.RUnlock()

	if err := m.transport.CreateAgent(ctx, s, id, name); err != nil {
		m.logger.Warn("Could not create agent", "agent_id", id, "error", err)
		return err
	}
	return nil
}

// Flush sends the active session's queued events now.
func (m *SessionManager) Flush(ctx context.Context) error {
	m.mu.RLock()
	if m.state != stateStarted {
		m.mu.RUnlock()
		return &LocalValidationError{Op: "flush", Err: ErrNoActiveSession}
	}
	flusher := m.flusher
	m.mu.RUnlock()

	return flusher.Flush(ctx)
}

// Active reports whether a session is started.
func (m *SessionManager) Active() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state == stateStarted
}

// Current returns a copy of the most recent session, ended or not.
func (m *SessionManager) Current() *session.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return nil
	}
	return m.current.Clone()
}

// sessionStats counts what a session recorded, for the summary logged when
// it ends.
type sessionStats struct {
	mu      sync.Mutex
	started time.Time
	counts  map[event.ActionType]int
	cost    float64
}

func newSessionStats() *sessionStats {
	return &sessionStats{
		started: time.Now(),
		counts:  map[event.ActionType]int{},
	}
}

func (s *sessionStats) add(ev *event.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts[ev.ActionType]++
	s.cost += ev.Cost
}

func (s *sessionStats) logArgs() []any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return []any{
		"duration", time.Since(s.started).Round(time.Millisecond),
		"cost", fmt.Sprintf("$%.6f", s.cost),
		"llms", s.counts[event.ActionTypeLLM],
		"tools", s.counts[event.ActionTypeTool],
		"actions", s.counts[event.ActionTypeAction] + s.counts[event.ActionTypeAPI],
		"errors", s.counts[event.ActionTypeError],
	}
}

package telemetry

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/agentops-ai/agentops-go/pkg/config"
	"github.com/agentops-ai/agentops-go/pkg/event"
	"github.com/agentops-ai/agentops-go/pkg/session"
)

// fakeTransport records every collector call in memory.
type fakeTransport struct {
	mu sync.Mutex

	created []*session.Session
	batches [][]*event.Event
	updates []*session.Session
	ends    []*session.Session
	agents  []string

	createErr error
	postErr   error
	updateErr error
	endErr    error
	// postHook runs before a batch is recorded.
	postHook func(ctx context.Context) error
	// endHook runs before an end is recorded.
	endHook func(ctx context.Context) error
}

func (f *fakeTransport) CreateSession(_ context.Context, s *session.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, s.Clone())
	s.Token.Set("jwt")
	return nil
}

func (f *fakeTransport) PostEvents(ctx context.Context, _ *session.Session, events []*event.Event) error {
	f.mu.Lock()
	hook := f.postHook
	f.mu.Unlock()
	if hook != nil {
		if err := hook(ctx); err != nil {
			return err
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.postErr != nil {
		return f.postErr
	}
	f.batches = append(f.batches, events)
	return nil
}

func (f *fakeTransport) UpdateSession(_ context.Context, s *session.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updates = append(f.updates, s.Clone())
	return nil
}

func (f *fakeTransport) EndSession(ctx context.Context, s *session.Session) error {
	f.mu.Lock()
	hook := f.endHook
	f.mu.Unlock()
	if hook != nil {
		if err := hook(ctx); err != nil {
			return err
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.ends = append(f.ends, s.Clone())
	return f.endErr
}

func (f *fakeTransport) CreateAgent(_ context.Context, _ *session.Session, id, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.agents = append(f.agents, id+"="+name)
	return nil
}

func (f *fakeTransport) set(fn func(f *fakeTransport)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(f)
}

func (f *fakeTransport) getBatches() [][]*event.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]*event.Event(nil), f.batches...)
}

func (f *fakeTransport) getEnds() []*session.Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*session.Session(nil), f.ends...)
}

func (f *fakeTransport) getUpdates() []*session.Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*session.Session(nil), f.updates...)
}

func (f *fakeTransport) eventCount() int {
	n := 0
	for _, batch := range f.getBatches() {
		n += len(batch)
	}
	return n
}

// syncBuffer is a bytes.Buffer safe for the concurrent writes of a logger.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.APIKey = "test-key"
	cfg.AutoStartSession = false
	cfg.MaxWaitTime = time.Hour
	cfg.ShutdownTimeout = time.Second
	return cfg
}

func newTestClient(t *testing.T, ft *fakeTransport, cfg config.Config, opts ...Option) (*Client, *syncBuffer) {
	t.Helper()

	logs := &syncBuffer{}
	opts = append([]Option{
		WithTransport(ft),
		WithSignalHandling(false),
		WithLogger(slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug}))),
	}, opts...)

	c, err := New(t.Context(), cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Shutdown(context.Background()) })
	return c, logs
}

func testLogger() *prefixLogger {
	return newPrefixLogger(slog.New(slog.DiscardHandler))
}

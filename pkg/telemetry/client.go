// Package telemetry is the AgentOps client: it records events into the
// active session, ships them to the collector in the background and closes
// the session when the process exits, panics or is signalled.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"

	"github.com/agentops-ai/agentops-go/pkg/config"
	"github.com/agentops-ai/agentops-go/pkg/event"
	"github.com/agentops-ai/agentops-go/pkg/httpclient"
	"github.com/agentops-ai/agentops-go/pkg/logging"
	"github.com/agentops-ai/agentops-go/pkg/session"
	"github.com/agentops-ai/agentops-go/pkg/transport"
)

// Recorder accepts finished events.
type Recorder interface {
	Record(ctx context.Context, ev event.Event) error
}

type clientOptions struct {
	logger     *slog.Logger
	httpClient *http.Client
	transport  Transport
	registerer prometheus.Registerer
	tracer     trace.Tracer
	signals    bool
	exit       func(code int)
}

type Option func(*clientOptions)

// WithLogger sets the logger. Without it the client logs through
// slog.Default, or to agentops.log when logging to file is configured.
func WithLogger(logger *slog.Logger) Option {
	return func(o *clientOptions) {
		o.logger = logger
	}
}

func WithHTTPClient(client *http.Client) Option {
	return func(o *clientOptions) {
		o.httpClient = client
	}
}

// WithTransport replaces the HTTP collector client.
func WithTransport(t Transport) Option {
	return func(o *clientOptions) {
		o.transport = t
	}
}

// WithRegisterer registers the pipeline metrics with reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *clientOptions) {
		o.registerer = reg
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(o *clientOptions) {
		o.tracer = tracer
	}
}

// WithSignalHandling controls whether SIGINT and SIGTERM end the session
// and exit the process. It is on by default.
func WithSignalHandling(enabled bool) Option {
	return func(o *clientOptions) {
		o.signals = enabled
	}
}

// WithExitFunc replaces os.Exit on the signal path.
func WithExitFunc(exit func(code int)) Option {
	return func(o *clientOptions) {
		o.exit = exit
	}
}

// Client records events for one session at a time.
type Client struct {
	cfg      config.Config
	logger   *prefixLogger
	metrics  *Metrics
	sessions *SessionManager
	exit     func(code int)
	logFile  io.Closer

	shutdownOnce sync.Once
	shutdownErr  error
	closed       atomic.Bool
	stopSignals  func()
}

// New builds a client from cfg. Without an API key the client is inert and
// every operation returns ErrDisabled. When cfg.AutoStartSession is set a
// session is started right away; failing to start it is logged, not
// returned.
func New(ctx context.Context, cfg config.Config, opts ...Option) (*Client, error) {
	o := clientOptions{
		signals: true,
		exit:    os.Exit,
	}
	for _, opt := range opts {
		opt(&o)
	}

	c := &Client{
		cfg:  cfg,
		exit: o.exit,
	}

	if o.logger == nil && cfg.LoggingToFile {
		logger, logFile, err := logging.New(logging.Options{ToFile: true})
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		o.logger = logger
		c.logFile = logFile
	}
	c.logger = newPrefixLogger(o.logger)

	if !cfg.Enabled() {
		c.logger.Warn("API key not set, events will not be recorded", "env", config.EnvAPIKey)
		return c, nil
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	metrics, err := NewMetrics(o.registerer)
	if err != nil {
		c.logger.Warn("Failed to register metrics", "error", err)
	}
	c.metrics = metrics

	t := o.transport
	if t == nil {
		httpClient := o.httpClient
		if httpClient == nil {
			httpClient = httpclient.NewHTTPClient()
		}
		t = transport.New(transport.Options{
			Endpoint:       cfg.Endpoint,
			APIKey:         cfg.APIKey,
			HTTPClient:     httpClient,
			RequestTimeout: cfg.RequestTimeout,
			MaxRetries:     cfg.MaxRetries,
			Tracer:         o.tracer,
			Logger:         o.logger,
		})
	}

	c.sessions = newSessionManager(t, sessionManagerOptions{
		maxWait:        cfg.MaxWaitTime,
		maxQueueSize:   cfg.MaxQueueSize,
		requestTimeout: cfg.RequestTimeout,
	}, c.logger, c.metrics)

	if o.signals {
		c.watchSignals()
	}

	if cfg.AutoStartSession {
		_, _ = c.StartSession(ctx, cfg.Tags...)
	}

	return c, nil
}

func (c *Client) enabled() bool {
	return c != nil && c.sessions != nil
}

// Record queues ev for the active session. The agent id attached to ctx
// with event.WithAgent is used when ev has none. Record never blocks on
// the network; a rejected event is logged and reported, never panics.
func (c *Client) Record(ctx context.Context, ev event.Event) error {
	if !c.enabled() {
		return ErrDisabled
	}
	if ev.AgentID == "" {
		ev.AgentID = event.AgentFromContext(ctx)
	}
	return c.sessions.Enqueue(&ev)
}

// StartSession opens a session with the given tags, merged after the
// configured default tags.
func (c *Client) StartSession(ctx context.Context, tags ...string) (*session.Session, error) {
	if !c.enabled() {
		return nil, ErrDisabled
	}
	if c.closed.Load() {
		return nil, ErrClosed
	}

	all := slices.Clone(c.cfg.Tags)
	for _, tag := range tags {
		if !slices.Contains(all, tag) {
			all = append(all, tag)
		}
	}

	s, err := c.sessions.Start(ctx, all)
	if err != nil {
		return nil, err
	}
	c.logger.Info("Session started", "session_id", s.ID, "replay", c.SessionURL())
	return s, nil
}

// EndSession ends the active session. Ending an already ended session is a
// no-op.
func (c *Client) EndSession(ctx context.Context, opts session.EndOptions) error {
	if !c.enabled() {
		return ErrDisabled
	}
	return c.sessions.End(ctx, opts)
}

func (c *Client) AddTags(ctx context.Context, tags ...string) error {
	if !c.enabled() {
		return ErrDisabled
	}
	return c.sessions.AddTags(ctx, tags)
}

func (c *Client) SetTags(ctx context.Context, tags ...string) error {
	if !c.enabled() {
		return ErrDisabled
	}
	return c.sessions.SetTags(ctx, tags)
}

// CreateAgent registers an agent so events carrying its id are grouped
// under name on the dashboard.
func (c *Client) CreateAgent(ctx context.Context, id, name string) error {
	if !c.enabled() {
		return ErrDisabled
	}
	return c.sessions.CreateAgent(ctx, id, name)
}

// Flush sends queued events without waiting for a flush trigger.
func (c *Client) Flush(ctx context.Context) error {
	if !c.enabled() {
		return ErrDisabled
	}
	return c.sessions.Flush(ctx)
}

// SessionID returns the id of the current or most recent session, or "".
func (c *Client) SessionID() string {
	if !c.enabled() {
		return ""
	}
	if s := c.sessions.Current(); s != nil {
		return s.ID
	}
	return ""
}

// SessionURL links to the dashboard view of the current session.
func (c *Client) SessionURL() string {
	id := c.SessionID()
	if id == "" {
		return ""
	}
	return c.cfg.DashboardURL + "?session_id=" + url.QueryEscape(id)
}

// Metrics exposes the pipeline collectors, nil when disabled.
func (c *Client) Metrics() *Metrics {
	if !c.enabled() {
		return nil
	}
	return c.metrics
}

// Shutdown ends a session still active with Indeterminate and flushes its
// events, bounded by the configured shutdown timeout. Only the first of
// Shutdown, a handled signal or HandlePanic does any work; later calls
// return the first result.
func (c *Client) Shutdown(ctx context.Context) error {
	return c.shutdown(ctx, session.EndOptions{
		State:  event.ResultIndeterminate,
		Reason: "N/A (process exited without ending the session)",
	})
}

func (c *Client) shutdown(ctx context.Context, opts session.EndOptions) error {
	if c == nil {
		return nil
	}

	c.shutdownOnce.Do(func() {
		c.closed.Store(true)
		if c.logFile != nil {
			defer c.logFile.Close()
		}
		if !c.enabled() {
			return
		}
		if c.stopSignals != nil {
			c.stopSignals()
		}
		ctx, cancel := context.WithTimeout(ctx, c.cfg.ShutdownTimeout)
		defer cancel()

		if !c.sessions.Active() {
			if err := c.sessions.WaitEnded(ctx); err != nil {
				c.logger.Warn("Session end did not complete before shutdown", "error", err)
			}
			return
		}

		err := c.sessions.End(ctx, opts)
		var validation *LocalValidationError
		if errors.As(err, &validation) {
			err = nil
		}
		c.shutdownErr = err
	})
	return c.shutdownErr
}

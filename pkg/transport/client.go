// Package transport talks to the AgentOps collector over HTTP. Every call is
// bounded by a total timeout, retried with exponential backoff when the
// failure is transient, and re-authenticated once when the session JWT is
// rejected.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/agentops-ai/agentops-go/pkg/event"
	"github.com/agentops-ai/agentops-go/pkg/httpclient"
	"github.com/agentops-ai/agentops-go/pkg/session"
)

const (
	PathCreateSession  = "/v2/create_session"
	PathCreateEvents   = "/v2/create_events"
	PathUpdateSession  = "/v2/update_session"
	PathReauthorizeJWT = "/v2/reauthorize_jwt"
	PathCreateAgent    = "/v2/create_agent"

	// APIKeyHeader carries the project key on calls not bound to a
	// session JWT.
	APIKeyHeader = "X-Agentops-Api-Key"

	maxResponseBody = 1 << 20
)

// Options configure a Client. Zero values fall back to sensible defaults.
type Options struct {
	Endpoint string
	APIKey   string

	HTTPClient *http.Client

	// RequestTimeout bounds a whole call, all attempts included.
	RequestTimeout time.Duration
	// MaxRetries is the number of attempts for a retryable failure.
	MaxRetries int
	// InitialBackoff is the wait before the second attempt.
	InitialBackoff time.Duration

	Tracer trace.Tracer
	Logger *slog.Logger
}

// Client issues authenticated requests to the collector. It is safe for
// concurrent use.
type Client struct {
	endpoint       string
	apiKey         string
	httpClient     *http.Client
	requestTimeout time.Duration
	maxRetries     int
	initialBackoff time.Duration
	tracer         trace.Tracer
	logger         *slog.Logger

	refreshes singleflight.Group
}

func New(opts Options) *Client {
	c := &Client{
		endpoint:       strings.TrimRight(opts.Endpoint, "/"),
		apiKey:         opts.APIKey,
		httpClient:     opts.HTTPClient,
		requestTimeout: opts.RequestTimeout,
		maxRetries:     opts.MaxRetries,
		initialBackoff: opts.InitialBackoff,
		tracer:         opts.Tracer,
		logger:         opts.Logger,
	}
	if c.httpClient == nil {
		c.httpClient = httpclient.NewHTTPClient()
	}
	if c.requestTimeout <= 0 {
		c.requestTimeout = 10 * time.Second
	}
	if c.maxRetries <= 0 {
		c.maxRetries = 3
	}
	if c.initialBackoff <= 0 {
		c.initialBackoff = 200 * time.Millisecond
	}
	if c.tracer == nil {
		c.tracer = otel.Tracer("github.com/agentops-ai/agentops-go/pkg/transport")
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

type createSessionResponse struct {
	Status string `json:"status"`
	JWT    string `json:"jwt"`
	Token  string `json:"token"`
}

// CreateSession registers s with the collector and stores the returned JWT
// in s.Token.
func (c *Client) CreateSession(ctx context.Context, s *session.Session) error {
	var resp createSessionResponse
	err := c.call(ctx, "create_session", PathCreateSession, nil, map[string]any{"session": s}, &resp)
	if err != nil {
		return err
	}

	jwt := resp.JWT
	if jwt == "" {
		jwt = resp.Token
	}
	if jwt == "" {
		return &AuthError{Op: "create_session", StatusCode: http.StatusOK, Body: "response carried no jwt"}
	}
	s.Token.Set(jwt)
	return nil
}

// PostEvents sends one batch for s. The batch is serialized once and the
// same bytes are resent on every attempt.
func (c *Client) PostEvents(ctx context.Context, s *session.Session, events []*event.Event) error {
	if len(events) == 0 {
		return nil
	}
	body := map[string]any{
		"session_id": s.ID,
		"events":     events,
	}
	return c.call(ctx, "create_events", PathCreateEvents, s, body, nil)
}

// UpdateSession pushes the current tags and metadata of s.
func (c *Client) UpdateSession(ctx context.Context, s *session.Session) error {
	return c.call(ctx, "update_session", PathUpdateSession, s, map[string]any{"session": s}, nil)
}

// EndSession sends the terminal state of s. s must already carry its end
// fields.
func (c *Client) EndSession(ctx context.Context, s *session.Session) error {
	return c.call(ctx, "end_session", PathUpdateSession, s, map[string]any{"session": s}, nil)
}

// CreateAgent registers an agent id and display name within s.
func (c *Client) CreateAgent(ctx context.Context, s *session.Session, id, name string) error {
	body := map[string]any{
		"id":   id,
		"name": name,
	}
	return c.call(ctx, "create_agent", PathCreateAgent, s, body, nil)
}

// call runs one collector operation. s is nil for calls authenticated with
// the API key only.
func (c *Client) call(ctx context.Context, op, path string, s *session.Session, payload, out any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%s: encoding request: %w", op, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	attrs := []attribute.KeyValue{
		attribute.String("http.path", path),
		attribute.Int("http.request.body.size", len(data)),
	}
	if s != nil {
		attrs = append(attrs, attribute.String("session.id", s.ID))
	}
	ctx, span := c.tracer.Start(ctx, "agentops.transport/"+op, trace.WithAttributes(attrs...))
	defer span.End()

	if s != nil && s.Token.Expired(time.Now()) {
		if err := c.refresh(ctx, s); err != nil {
			c.logger.Debug("Proactive JWT refresh failed", "op", op, "error", err)
		}
	}

	attempts := 0
	refreshed := false
	operation := func() (int, error) {
		attempts++

		status, respBody, err := c.send(ctx, path, data, s)
		if err != nil {
			return 0, &TransientNetworkError{Op: op, Err: err}
		}

		if status == http.StatusUnauthorized && s != nil && !refreshed {
			refreshed = true
			if err := c.refresh(ctx, s); err != nil {
				return status, backoff.Permanent(fmt.Errorf("%s: %w", op, err))
			}
			status, respBody, err = c.send(ctx, path, data, s)
			if err != nil {
				return 0, &TransientNetworkError{Op: op, Err: err}
			}
		}

		switch {
		case status >= 200 && status < 300:
			if out != nil && len(respBody) > 0 {
				if err := json.Unmarshal(respBody, out); err != nil {
					return status, backoff.Permanent(fmt.Errorf("%s: decoding response: %w", op, err))
				}
			}
			return status, nil
		case status == http.StatusUnauthorized:
			authErr := &AuthError{Op: op, StatusCode: status, Body: string(respBody)}
			if s == nil {
				return status, backoff.Permanent(authErr)
			}
			return status, &TransientNetworkError{Op: op, Err: authErr}
		case status >= 400 && status < 500:
			return status, backoff.Permanent(&ClientError{Op: op, StatusCode: status, Body: string(respBody)})
		default:
			return status, &ServerError{Op: op, StatusCode: status, Body: string(respBody)}
		}
	}

	status, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(c.newBackOff()),
		backoff.WithMaxTries(uint(c.maxRetries)),
		backoff.WithMaxElapsedTime(c.requestTimeout),
		backoff.WithNotify(func(err error, next time.Duration) {
			c.logger.Debug("Retrying collector request", "op", op, "attempt", attempts, "next", next, "error", err)
		}),
	)

	span.SetAttributes(attribute.Int("http.response.status_code", status), attribute.Int("agentops.attempts", attempts))
	if err != nil {
		err = classify(op, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "collector request failed")
		return err
	}
	span.SetStatus(codes.Ok, "")
	return nil
}

// classify makes sure every failure leaving call is one of the typed errors
// of this package, so context expiry surfaces as a transient failure.
func classify(op string, err error) error {
	var permanent *backoff.PermanentError
	if errors.As(err, &permanent) {
		err = permanent.Unwrap()
	}

	var (
		transient *TransientNetworkError
		auth      *AuthError
		client    *ClientError
		server    *ServerError
	)
	if errors.As(err, &transient) || errors.As(err, &auth) || errors.As(err, &client) || errors.As(err, &server) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &TransientNetworkError{Op: op, Err: err}
	}
	return err
}

func (c *Client) newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.initialBackoff
	b.MaxInterval = c.requestTimeout
	return b
}

// refresh exchanges the API key for a new session JWT. Concurrent refreshes
// for the same session share one request.
func (c *Client) refresh(ctx context.Context, s *session.Session) error {
	_, err, _ := c.refreshes.Do(s.ID, func() (any, error) {
		data, err := json.Marshal(map[string]string{"session_id": s.ID})
		if err != nil {
			return nil, err
		}

		status, respBody, err := c.send(ctx, PathReauthorizeJWT, data, nil)
		if err != nil {
			return nil, &TransientNetworkError{Op: "reauthorize_jwt", Err: err}
		}
		if status < 200 || status >= 300 {
			return nil, &AuthError{Op: "reauthorize_jwt", StatusCode: status, Body: string(respBody)}
		}

		var resp createSessionResponse
		if err := json.Unmarshal(respBody, &resp); err != nil || resp.JWT == "" {
			return nil, &AuthError{Op: "reauthorize_jwt", StatusCode: status, Body: "response carried no jwt"}
		}
		s.Token.Set(resp.JWT)
		c.logger.Debug("Refreshed session JWT", "session_id", s.ID)
		return nil, nil
	})
	return err
}

// send performs a single POST. When s is nil the request is authenticated
// with the API key, otherwise with the session JWT.
func (c *Client) send(ctx context.Context, path string, body []byte, s *session.Session) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, bytes.NewReader(body))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if s == nil {
		req.Header.Set(APIKeyHeader, c.apiKey)
	} else if jwt := s.Token.Get(); jwt != "" {
		req.Header.Set("Authorization", "Bearer "+jwt)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return 0, nil, err
	}

	c.logger.Debug("Collector response", "path", path, "status", resp.StatusCode, "request_size", len(body))
	return resp.StatusCode, respBody, nil
}

package session

import (
	"slices"

	"github.com/google/uuid"

	"github.com/agentops-ai/agentops-go/pkg/event"
)

// Session is one logical run of a monitored program, bounded by an explicit
// start and end.
type Session struct {
	// ID is the unique identifier for the session
	ID string `json:"session_id"`

	// Tags group and filter sessions on the dashboard
	Tags []string `json:"tags,omitempty"`

	// HostEnv is captured once when the session is created
	HostEnv *HostEnv `json:"host_env,omitempty"`

	InitTimestamp string `json:"init_timestamp"`
	EndTimestamp  string `json:"end_timestamp,omitempty"`

	// End fields are only set by End
	EndState       event.Result `json:"end_state,omitempty"`
	EndStateReason string       `json:"end_state_reason,omitempty"`
	Rating         string       `json:"rating,omitempty"`
	Video          string       `json:"video,omitempty"`

	HasEnded bool `json:"-"`

	// Token is the collector credential for this session. Copies made with
	// Clone share it.
	Token *Token `json:"-"`
}

// New creates a session with a fresh id and a host environment snapshot.
func New(tags []string) *Session {
	return &Session{
		ID:            uuid.NewString(),
		Tags:          slices.Clone(tags),
		HostEnv:       CaptureHostEnv(),
		InitTimestamp: event.Now(),
		Token:         &Token{},
	}
}

// EndOptions describe how a session finished.
type EndOptions struct {
	State  event.Result
	Reason string
	Rating string
	Video  string
}

// End records the terminal state of the session.
func (s *Session) End(opts EndOptions) {
	s.EndState = opts.State
	s.EndStateReason = opts.Reason
	s.Rating = opts.Rating
	s.Video = opts.Video
	s.EndTimestamp = event.Now()
	s.HasEnded = true
}

// Clone returns a copy safe to serialize while the original keeps changing.
func (s *Session) Clone() *Session {
	c := *s
	c.Tags = slices.Clone(s.Tags)
	return &c
}

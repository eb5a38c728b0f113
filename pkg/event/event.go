package event

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// TimestampFormat is the ISO-8601 layout used for every timestamp sent to
// the collector.
const TimestampFormat = "2006-01-02T15:04:05.000Z07:00"

// Event types used by the typed constructors.
const (
	TypeLLM   = "llms"
	TypeTool  = "tools"
	TypeError = "errors"
)

// Result is the outcome of a recorded occurrence.
type Result string

const (
	ResultSuccess       Result = "Success"
	ResultFail          Result = "Fail"
	ResultIndeterminate Result = "Indeterminate"
)

func (r Result) Valid() bool {
	switch r {
	case ResultSuccess, ResultFail, ResultIndeterminate:
		return true
	}
	return false
}

// ActionType classifies what produced an event.
type ActionType string

const (
	ActionTypeAction ActionType = "action"
	ActionTypeAPI    ActionType = "api"
	ActionTypeLLM    ActionType = "llm"
	ActionTypeError  ActionType = "error"
	ActionTypeTool   ActionType = "tool"
)

func (a ActionType) Valid() bool {
	switch a {
	case ActionTypeAction, ActionTypeAPI, ActionTypeLLM, ActionTypeError, ActionTypeTool:
		return true
	}
	return false
}

// Params is an insertion-ordered mapping of parameter names to
// JSON-serializable values.
type Params = orderedmap.OrderedMap[string, any]

// NewParams returns an empty Params.
func NewParams() *Params {
	return orderedmap.New[string, any]()
}

// Event is one recorded occurrence. Once handed to a recorder it must not be
// mutated by the producer; the recorder keeps its own copy.
type Event struct {
	ID            string     `json:"id"`
	EventType     string     `json:"event_type"`
	Params        *Params    `json:"params,omitempty"`
	Returns       any        `json:"returns,omitempty"`
	Result        Result     `json:"result"`
	ActionType    ActionType `json:"action_type"`
	InitTimestamp string     `json:"init_timestamp"`
	EndTimestamp  string     `json:"end_timestamp"`
	AgentID       string     `json:"agent_id,omitempty"`
	Tags          []string   `json:"tags,omitempty"`

	// LLM calls
	Model            string  `json:"model,omitempty"`
	Prompt           any     `json:"prompt,omitempty"`
	Completion       any     `json:"completion,omitempty"`
	PromptTokens     int64   `json:"prompt_tokens,omitempty"`
	CompletionTokens int64   `json:"completion_tokens,omitempty"`
	Cost             float64 `json:"cost,omitempty"`

	// Tool calls
	Name string `json:"name,omitempty"`
	Logs string `json:"logs,omitempty"`

	// Errors
	ErrorType      string `json:"error_type,omitempty"`
	Code           string `json:"code,omitempty"`
	Details        string `json:"details,omitempty"`
	TriggerEventID string `json:"trigger_event_id,omitempty"`
}

// Now returns the current time formatted with TimestampFormat.
func Now() string {
	return FormatTime(time.Now())
}

// FormatTime formats t in UTC with TimestampFormat.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimestampFormat)
}

// New creates a generic action event of the given type. Both timestamps
// default to now; the result defaults to Indeterminate.
func New(eventType string, opts ...Option) Event {
	now := Now()
	e := Event{
		ID:            uuid.NewString(),
		EventType:     eventType,
		Result:        ResultIndeterminate,
		ActionType:    ActionTypeAction,
		InitTimestamp: now,
		EndTimestamp:  now,
	}
	for _, opt := range opts {
		opt(&e)
	}
	return e
}

// NewAction creates an event for a named agent action.
func NewAction(action string, opts ...Option) Event {
	return New(action, opts...)
}

// NewLLM creates an event describing one call to a language model.
func NewLLM(model string, opts ...Option) Event {
	e := New(TypeLLM, opts...)
	e.ActionType = ActionTypeLLM
	if e.Model == "" {
		e.Model = model
	}
	return e
}

// NewTool creates an event for a tool invocation.
func NewTool(name string, opts ...Option) Event {
	e := New(TypeTool, opts...)
	e.ActionType = ActionTypeTool
	if e.Name == "" {
		e.Name = name
	}
	return e
}

// NewError creates an error event. The result is always Fail.
func NewError(errorType string, err error, opts ...Option) Event {
	e := New(TypeError, opts...)
	e.ActionType = ActionTypeError
	e.Result = ResultFail
	e.ErrorType = errorType
	if err != nil && e.Details == "" {
		e.Details = err.Error()
	}
	return e
}

// Validate reports whether e carries every field the collector requires.
func (e *Event) Validate() error {
	switch {
	case e.EventType == "":
		return &ValidationError{Field: "event_type", Reason: "is required"}
	case e.ID == "":
		return &ValidationError{Field: "id", Reason: "is required"}
	case e.InitTimestamp == "":
		return &ValidationError{Field: "init_timestamp", Reason: "is required"}
	case !e.Result.Valid():
		return &ValidationError{Field: "result", Reason: fmt.Sprintf("has unknown value %q", e.Result)}
	case !e.ActionType.Valid():
		return &ValidationError{Field: "action_type", Reason: fmt.Sprintf("has unknown value %q", e.ActionType)}
	}
	return nil
}

// Clone returns a copy of e that shares no tags or params with it. Returns,
// prompt and completion values are copied by reference.
func (e *Event) Clone() *Event {
	c := *e
	c.Tags = slices.Clone(e.Tags)
	if e.Params != nil {
		c.Params = NewParams()
		for pair := e.Params.Oldest(); pair != nil; pair = pair.Next() {
			c.Params.Set(pair.Key, pair.Value)
		}
	}
	return &c
}

// ErrorReturns builds the returns value recorded for a failed call: a
// single entry keyed by the error's type name.
func ErrorReturns(err error) map[string]string {
	if err == nil {
		return nil
	}
	name := strings.TrimPrefix(fmt.Sprintf("%T", err), "*")
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	return map[string]string{name: err.Error()}
}

package llms

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentops-ai/agentops-go/pkg/event"
)

func TestCallEventsSuccess(t *testing.T) {
	call := Call{
		Model:            "gpt-4o",
		Prompt:           []string{"hi"},
		Completion:       "hello",
		PromptTokens:     3,
		CompletionTokens: 1,
		RawResponse:      `{"id":"cmpl-1"}`,
		Start:            time.Now().Add(-time.Second),
	}

	events := call.Events()
	require.Len(t, events, 1)

	ev := events[0]
	assert.Equal(t, event.ActionTypeLLM, ev.ActionType)
	assert.Equal(t, event.ResultSuccess, ev.Result)
	assert.Equal(t, "gpt-4o", ev.Model)
	assert.Equal(t, "hello", ev.Completion)
	assert.Equal(t, int64(3), ev.PromptTokens)
	assert.Equal(t, int64(1), ev.CompletionTokens)
	assert.Equal(t, json.RawMessage(`{"id":"cmpl-1"}`), ev.Returns)
	assert.Less(t, ev.InitTimestamp, ev.EndTimestamp)
	require.NoError(t, ev.Validate())
}

func TestCallEventsFailure(t *testing.T) {
	call := Call{Model: "gpt-4o", Start: time.Now(), Err: errors.New("429 too many requests")}

	events := call.Events()
	require.Len(t, events, 2)

	assert.Equal(t, event.ResultFail, events[0].Result)
	assert.Equal(t, map[string]string{"errorString": "429 too many requests"}, events[0].Returns)
	assert.Equal(t, event.ActionTypeError, events[1].ActionType)
	assert.Equal(t, events[0].ID, events[1].TriggerEventID)
	assert.Equal(t, "LLMError", events[1].ErrorType)
}

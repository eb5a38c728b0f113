// Package llms holds adapters that record LLM calls made through provider
// SDKs. Each adapter wraps the SDK service the host program already uses and
// exposes the same method, so swapping it in is a one-line change at the
// call site.
package llms

import (
	"encoding/json"
	"time"

	"github.com/agentops-ai/agentops-go/pkg/event"
)

// Call describes one finished request to a model.
type Call struct {
	Model            string
	Prompt           any
	Completion       any
	PromptTokens     int64
	CompletionTokens int64
	RawResponse      string
	Start            time.Time
	Err              error
}

// Events turns c into the LLM event to record and, when the call failed, the
// error event that points at it.
func (c Call) Events() []event.Event {
	opts := []event.Option{
		event.WithTimestamps(c.Start, time.Now()),
		event.WithPrompt(c.Prompt),
	}

	if c.Err != nil {
		llm := event.NewLLM(c.Model, append(opts,
			event.WithResult(event.ResultFail),
			event.WithReturns(event.ErrorReturns(c.Err)),
		)...)
		return []event.Event{llm, event.NewError("LLMError", c.Err, event.WithTrigger(llm))}
	}

	opts = append(opts,
		event.WithResult(event.ResultSuccess),
		event.WithCompletion(c.Completion),
		event.WithTokens(c.PromptTokens, c.CompletionTokens),
	)
	if c.RawResponse != "" {
		opts = append(opts, event.WithReturns(json.RawMessage(c.RawResponse)))
	}
	return []event.Event{event.NewLLM(c.Model, opts...)}
}

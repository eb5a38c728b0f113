// Package openai records chat completions made with the official OpenAI Go
// SDK.
package openai

import (
	"context"
	"log/slog"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/agentops-ai/agentops-go/pkg/llms"
	"github.com/agentops-ai/agentops-go/pkg/telemetry"
)

// ChatCompletionsAPI is the part of *openai.ChatCompletionService the
// adapter needs.
type ChatCompletionsAPI interface {
	New(ctx context.Context, body openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

var _ ChatCompletionsAPI = (*openai.ChatCompletionService)(nil)

// ChatCompletions records every completion created through it.
type ChatCompletions struct {
	next ChatCompletionsAPI
	rec  telemetry.Recorder
}

// Wrap returns a ChatCompletionsAPI that forwards to next and records each
// call with rec:
//
//	completions := openai.Wrap(&client.Chat.Completions, agentops)
func Wrap(next ChatCompletionsAPI, rec telemetry.Recorder) *ChatCompletions {
	return &ChatCompletions{next: next, rec: rec}
}

// New creates a completion. The SDK's response and error are returned
// untouched.
func (c *ChatCompletions) New(ctx context.Context, body openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error) {
	call := llms.Call{
		Model:  body.Model,
		Prompt: body.Messages,
		Start:  time.Now(),
	}

	resp, err := c.next.New(ctx, body, opts...)
	call.Err = err
	if err == nil && resp != nil {
		if resp.Model != "" {
			call.Model = resp.Model
		}
		if len(resp.Choices) > 0 {
			msg := resp.Choices[0].Message
			call.Completion = map[string]any{
				"role":    "assistant",
				"content": msg.Content,
			}
		}
		call.PromptTokens = resp.Usage.PromptTokens
		call.CompletionTokens = resp.Usage.CompletionTokens
		call.RawResponse = resp.RawJSON()
	}

	for _, ev := range call.Events() {
		if recErr := c.rec.Record(ctx, ev); recErr != nil {
			slog.Debug("Could not record OpenAI completion", "error", recErr)
		}
	}
	return resp, err
}

// Package anthropic records messages created with the Anthropic Go SDK.
package anthropic

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/agentops-ai/agentops-go/pkg/llms"
	"github.com/agentops-ai/agentops-go/pkg/telemetry"
)

// MessagesAPI is the part of *anthropic.MessageService the adapter needs.
type MessagesAPI interface {
	New(ctx context.Context, body anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

var _ MessagesAPI = (*anthropic.MessageService)(nil)

type Messages struct {
	next MessagesAPI
	rec  telemetry.Recorder
}

// Wrap returns a MessagesAPI that forwards to next and records each call
// with rec:
//
//	messages := anthropic.Wrap(&client.Messages, agentops)
func Wrap(next MessagesAPI, rec telemetry.Recorder) *Messages {
	return &Messages{next: next, rec: rec}
}

func (m *Messages) New(ctx context.Context, body anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error) {
	call := llms.Call{
		Model:  string(body.Model),
		Prompt: body.Messages,
		Start:  time.Now(),
	}

	resp, err := m.next.New(ctx, body, opts...)
	call.Err = err
	if err == nil && resp != nil {
		if resp.Model != "" {
			call.Model = string(resp.Model)
		}
		call.Completion = map[string]any{
			"role":    "assistant",
			"content": text(resp.Content),
		}
		call.PromptTokens = resp.Usage.InputTokens
		call.CompletionTokens = resp.Usage.OutputTokens
		call.RawResponse = resp.RawJSON()
	}

	for _, ev := range call.Events() {
		if recErr := m.rec.Record(ctx, ev); recErr != nil {
			slog.Debug("Could not record Anthropic message", "error", recErr)
		}
	}
	return resp, err
}

func text(blocks []anthropic.ContentBlockUnion) string {
	var sb strings.Builder
	for _, block := range blocks {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return sb.String()
}

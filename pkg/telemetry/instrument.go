package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/agentops-ai/agentops-go/pkg/event"
)

// Instrument wraps fn so every call records an event of eventType with the
// input as params, the output as returns, and the call's timing. A failed
// call is recorded with Fail plus an error event pointing at it. Errors
// are returned unchanged and panics are re-raised after recording.
func Instrument[In, Out any](rec Recorder, eventType string, fn func(context.Context, In) (Out, error), opts ...event.Option) func(context.Context, In) (Out, error) {
	return func(ctx context.Context, in In) (out Out, err error) {
		start := time.Now()

		record := func(result event.Result, returns any, cause error) {
			ev := event.New(eventType, opts...)
			ev.Params = toParams(in)
			ev.Returns = returns
			ev.Result = result
			ev.InitTimestamp = event.FormatTime(start)
			ev.EndTimestamp = event.Now()
			_ = rec.Record(ctx, ev)

			if cause != nil {
				_ = rec.Record(ctx, event.NewError(fmt.Sprintf("%T", cause), cause, event.WithTrigger(ev)))
			}
		}

		defer func() {
			if r := recover(); r != nil {
				cause := fmt.Errorf("panic: %v", r)
				record(event.ResultFail, event.ErrorReturns(cause), cause)
				panic(r)
			}
		}()

		out, err = fn(ctx, in)
		if err != nil {
			record(event.ResultFail, event.ErrorReturns(err), err)
			return out, err
		}
		record(event.ResultSuccess, out, nil)
		return out, nil
	}
}

// toParams turns a call input into ordered params. Structs and maps keep
// their JSON field order; anything else lands under "input".
func toParams(in any) *event.Params {
	params := event.NewParams()

	data, err := json.Marshal(in)
	if err != nil {
		params.Set("input", fmt.Sprint(in))
		return params
	}
	if err := json.Unmarshal(data, params); err != nil {
		params = event.NewParams()
		params.Set("input", json.RawMessage(data))
	}
	return params
}

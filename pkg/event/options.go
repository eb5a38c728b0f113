package event

import "time"

// Option customizes an Event built by one of the constructors.
type Option func(*Event)

// WithParams replaces the event params.
func WithParams(params *Params) Option {
	return func(e *Event) {
		e.Params = params
	}
}

// WithParam appends a single param, keeping insertion order.
func WithParam(key string, value any) Option {
	return func(e *Event) {
		if e.Params == nil {
			e.Params = NewParams()
		}
		e.Params.Set(key, value)
	}
}

func WithReturns(returns any) Option {
	return func(e *Event) {
		e.Returns = returns
	}
}

func WithResult(result Result) Option {
	return func(e *Event) {
		e.Result = result
	}
}

func WithTags(tags ...string) Option {
	return func(e *Event) {
		e.Tags = append(e.Tags, tags...)
	}
}

func WithAgentID(agentID string) Option {
	return func(e *Event) {
		e.AgentID = agentID
	}
}

// WithTimestamps sets the init and end timestamps from wall-clock times.
func WithTimestamps(start, end time.Time) Option {
	return func(e *Event) {
		e.InitTimestamp = FormatTime(start)
		e.EndTimestamp = FormatTime(end)
	}
}

func WithModel(model string) Option {
	return func(e *Event) {
		e.Model = model
	}
}

func WithPrompt(prompt any) Option {
	return func(e *Event) {
		e.Prompt = prompt
	}
}

func WithCompletion(completion any) Option {
	return func(e *Event) {
		e.Completion = completion
	}
}

// WithTokens records token usage of an LLM call.
func WithTokens(prompt, completion int64) Option {
	return func(e *Event) {
		e.PromptTokens = prompt
		e.CompletionTokens = completion
	}
}

func WithCost(cost float64) Option {
	return func(e *Event) {
		e.Cost = cost
	}
}

func WithLogs(logs string) Option {
	return func(e *Event) {
		e.Logs = logs
	}
}

func WithCode(code string) Option {
	return func(e *Event) {
		e.Code = code
	}
}

// WithTrigger links an error event to the event that caused it.
func WithTrigger(trigger Event) Option {
	return func(e *Event) {
		e.TriggerEventID = trigger.ID
	}
}

package ollama

import (
	"github.com/rhuss/ollagate/pkg/api"
	"github.com/rhuss/ollagate/pkg/provider"
)

// TranslateRequest converts an OpenAI chat request to the native format.
// Roles and contents are copied in order; max_tokens becomes num_predict.
// The Stream flag is copied as is.
//
// Only sampling parameters the client set are forwarded. When temperature,
// top_p or any other option is omitted, no value is sent for it and the
// model's own defaults (from its Modelfile) apply. When none is set, the
// options object is left out entirely.
func TranslateRequest(req *api.ChatRequest) *ChatRequest {
	out := &ChatRequest{
		Model:    req.Model,
		Messages: make([]Message, 0, len(req.Messages)),
		Stream:   req.Stream,
	}

	for _, m := range req.Messages {
		out.Messages = append(out.Messages, Message{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}

	opts := Options{
		Temperature:      req.Temperature,
		TopP:             req.TopP,
		NumPredict:       req.MaxTokens,
		Seed:             req.Seed,
		PresencePenalty:  req.PresencePenalty,
		FrequencyPenalty: req.FrequencyPenalty,
	}
	if len(req.Stop) > 0 {
		opts.Stop = append([]string(nil), req.Stop...)
	}
	if opts.set() {
		out.Options = &opts
	}

	return out
}

// TranslateResponse converts a complete native response to a Completion.
// A missing role defaults to assistant.
func TranslateResponse(resp *ChatResponse) *provider.Completion {
	role := api.MessageRole(resp.Message.Role)
	if role == "" {
		role = api.RoleAssistant
	}

	return &provider.Completion{
		Model:           resp.Model,
		Role:            role,
		Content:         resp.Message.Content,
		FinishReason:    MapFinishReason(resp.Done, resp.DoneReason),
		PromptEvalCount: resp.PromptEvalCount,
		EvalCount:       resp.EvalCount,
	}
}

// set reports whether any option is present.
func (o *Options) set() bool {
	return o.Temperature != nil || o.TopP != nil || o.NumPredict != nil ||
		len(o.Stop) > 0 || o.Seed != nil || o.PresencePenalty != nil || o.FrequencyPenalty != nil
}

// MapFinishReason maps the native completion signal to an OpenAI finish
// reason: "length" when generation hit the token limit, "stop" otherwise.
// An unfinished response (done=false) also maps to "stop"; the gateway
// never reports a choice without a finish reason.
func MapFinishReason(done bool, doneReason string) api.FinishReason {
	if done && doneReason == "length" {
		return api.FinishReasonLength
	}
	return api.FinishReasonStop
}

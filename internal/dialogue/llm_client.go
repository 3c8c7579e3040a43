package dialogue

import "context"

const (
	ChatRoleSystem    = "system"
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
)

// ChatMessage is one turn of an LLM conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// TokenUsage reports the token accounting of one completion.
type TokenUsage struct {
	InputTokens  int32
	OutputTokens int32
	TotalTokens  int32
}

// LLMRequest is a provider-agnostic completion request.
type LLMRequest struct {
	Model       string
	System      []string
	Messages    []ChatMessage
	MaxTokens   int32
	Temperature float32
	TopP        float32
}

// LLMResponse is a provider-agnostic completion response. Model names the
// model that actually answered, which can differ from the requested one when
// a fallback provider served the call.
type LLMResponse struct {
	Text       string
	Model      string
	Usage      TokenUsage
	StopReason string
}

// LLMClient abstracts the model provider behind the Layer-2 extractor.
// Implementations must honor ctx cancellation and deadlines.
type LLMClient interface {
	Complete(ctx context.Context, req LLMRequest) (LLMResponse, error)
}

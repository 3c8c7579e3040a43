package dialogue

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	brtypes "github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
)

type mockConverseAPI struct {
	lastInput *bedrockruntime.ConverseInput
	output    *bedrockruntime.ConverseOutput
	err       error
}

func (m *mockConverseAPI) Converse(_ context.Context, params *bedrockruntime.ConverseInput, _ ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error) {
	m.lastInput = params
	return m.output, m.err
}

func TestBedrockComplete(t *testing.T) {
	api := &mockConverseAPI{output: &bedrockruntime.ConverseOutput{
		Output: &brtypes.ConverseOutputMemberMessage{Value: brtypes.Message{
			Role:    brtypes.ConversationRoleAssistant,
			Content: []brtypes.ContentBlock{&brtypes.ContentBlockMemberText{Value: `{"ok": true}`}},
		}},
		StopReason: brtypes.StopReasonEndTurn,
		Usage: &brtypes.TokenUsage{
			InputTokens:  aws.Int32(150),
			OutputTokens: aws.Int32(20),
			TotalTokens:  aws.Int32(170),
		},
	}}
	client := NewBedrockLLMClient(api)

	resp, err := client.Complete(context.Background(), LLMRequest{
		Model:     "anthropic.claude-3-haiku-20240307-v1:0",
		System:    []string{"extract the name"},
		Messages:  []ChatMessage{{Role: ChatRoleUser, Content: "Meu nome é Ana"}},
		MaxTokens: 120,
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}

	if resp.Text != `{"ok": true}` {
		t.Errorf("Text = %q", resp.Text)
	}
	if resp.Usage.TotalTokens != 170 {
		t.Errorf("TotalTokens = %d", resp.Usage.TotalTokens)
	}
	if resp.StopReason != string(brtypes.StopReasonEndTurn) {
		t.Errorf("StopReason = %q", resp.StopReason)
	}
	if resp.Model != "anthropic.claude-3-haiku-20240307-v1:0" {
		t.Errorf("Model = %q, want the answering model", resp.Model)
	}

	if got := aws.ToString(api.lastInput.ModelId); got != "anthropic.claude-3-haiku-20240307-v1:0" {
		t.Errorf("ModelId = %q", got)
	}
	if len(api.lastInput.System) != 1 {
		t.Errorf("system blocks = %d, want 1", len(api.lastInput.System))
	}
	if len(api.lastInput.Messages) != 1 {
		t.Errorf("messages = %d, want 1", len(api.lastInput.Messages))
	}
	if api.lastInput.InferenceConfig == nil || aws.ToInt32(api.lastInput.InferenceConfig.MaxTokens) != 120 {
		t.Error("MaxTokens not forwarded")
	}
}

func TestBedrockCompleteRequiresModel(t *testing.T) {
	client := NewBedrockLLMClient(&mockConverseAPI{})
	if _, err := client.Complete(context.Background(), LLMRequest{}); err == nil {
		t.Fatal("expected error for missing model id")
	}
}

func TestBedrockCompleteEmptyOutput(t *testing.T) {
	api := &mockConverseAPI{output: &bedrockruntime.ConverseOutput{}}
	client := NewBedrockLLMClient(api)

	_, err := client.Complete(context.Background(), LLMRequest{
		Model:    "anthropic.claude-3-haiku-20240307-v1:0",
		Messages: []ChatMessage{{Role: ChatRoleUser, Content: "oi"}},
	})
	if err == nil {
		t.Fatal("expected error for empty output")
	}
}

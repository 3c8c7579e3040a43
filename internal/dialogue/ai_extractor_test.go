package dialogue

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// mockLLMClient returns a canned completion and captures the last request.
type mockLLMClient struct {
	response LLMResponse
	err      error
	lastReq  LLMRequest
}

func (m *mockLLMClient) Complete(_ context.Context, req LLMRequest) (LLMResponse, error) {
	m.lastReq = req
	return m.response, m.err
}

func TestExtractNameAndGender(t *testing.T) {
	client := &mockLLMClient{response: LLMResponse{
		Text:  `{"nome_completo": "Ana Carolina", "genero": "feminino", "confianca": 0.92, "intencao": "informou_nome"}`,
		Usage: TokenUsage{InputTokens: 150, OutputTokens: 50, TotalTokens: 200},
	}}
	extractor := NewLLMNameGenderExtractor(client, "gemini-2.5-flash", 0, nil)

	result, err := extractor.ExtractNameAndGender(context.Background(), "Meu nome é Ana Carolina e o seu?")
	if err != nil {
		t.Fatalf("ExtractNameAndGender: %v", err)
	}

	if result.Name != "Ana Carolina" {
		t.Errorf("Name = %q", result.Name)
	}
	if result.Gender != GenderFemale {
		t.Errorf("Gender = %q", result.Gender)
	}
	if result.Confidence != 0.92 {
		t.Errorf("Confidence = %v", result.Confidence)
	}
	if result.Intention != IntentionProvidedName {
		t.Errorf("Intention = %q", result.Intention)
	}
	if result.Metrics.ModelUsed != "gemini-2.5-flash" {
		t.Errorf("ModelUsed = %q", result.Metrics.ModelUsed)
	}
	if result.Metrics.Tokens != 200 {
		t.Errorf("Tokens = %d", result.Metrics.Tokens)
	}
	if result.Metrics.APICostUSD <= 0 {
		t.Errorf("APICostUSD = %v, want > 0", result.Metrics.APICostUSD)
	}
	if !strings.Contains(client.lastReq.Messages[0].Content, "Meu nome é Ana Carolina") {
		t.Error("prompt does not embed the user message")
	}
}

func TestExtractNameAndGenderToleratesProse(t *testing.T) {
	client := &mockLLMClient{response: LLMResponse{
		Text: "Claro! Aqui está o resultado:\n" +
			`{"nome_completo": null, "genero": "nao_informado", "confianca": 0.2, "intencao": "recusou"}` +
			"\nEspero ter ajudado.",
	}}
	extractor := NewLLMNameGenderExtractor(client, "gemini-2.5-flash", 0, nil)

	result, err := extractor.ExtractNameAndGender(context.Background(), "prefiro não dizer")
	if err != nil {
		t.Fatalf("ExtractNameAndGender: %v", err)
	}
	if result.Name != "" {
		t.Errorf("Name = %q, want empty", result.Name)
	}
	if result.Intention != IntentionRefused {
		t.Errorf("Intention = %q, want %q", result.Intention, IntentionRefused)
	}
	if result.Gender != GenderUnknown {
		t.Errorf("Gender = %q", result.Gender)
	}
}

// When a fallback provider answers, billing must follow the responding model,
// not the one the extractor was configured with.
func TestExtractNameAndGenderBillsRespondingModel(t *testing.T) {
	client := &mockLLMClient{response: LLMResponse{
		Text:  `{"nome_completo": "Ana", "genero": "feminino", "confianca": 0.9, "intencao": "informou_nome"}`,
		Model: "gemini-2.5-flash",
		Usage: TokenUsage{TotalTokens: 100},
	}}
	extractor := NewLLMNameGenderExtractor(client, "anthropic.claude-3-haiku-20240307-v1:0", 0, nil)

	result, err := extractor.ExtractNameAndGender(context.Background(), "Meu nome é Ana e o seu?")
	if err != nil {
		t.Fatalf("ExtractNameAndGender: %v", err)
	}

	if result.Metrics.ModelUsed != "gemini-2.5-flash" {
		t.Errorf("ModelUsed = %q, want the responding model", result.Metrics.ModelUsed)
	}
	want := 100 * modelCostPerToken["gemini-2.5-flash"]
	if result.Metrics.APICostUSD != want {
		t.Errorf("APICostUSD = %v, want %v", result.Metrics.APICostUSD, want)
	}
}

func TestExtractNameAndGenderClientError(t *testing.T) {
	client := &mockLLMClient{err: errors.New("throttled")}
	extractor := NewLLMNameGenderExtractor(client, "gemini-2.5-flash", 0, nil)

	_, err := extractor.ExtractNameAndGender(context.Background(), "Ana")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "dialogue:") {
		t.Errorf("error %q missing package prefix", err.Error())
	}
}

func TestExtractNameAndGenderNoJSON(t *testing.T) {
	client := &mockLLMClient{response: LLMResponse{Text: "não consegui entender a mensagem"}}
	extractor := NewLLMNameGenderExtractor(client, "gemini-2.5-flash", 0, nil)

	if _, err := extractor.ExtractNameAndGender(context.Background(), "Ana"); err == nil {
		t.Fatal("expected error for a reply without JSON")
	}
}

func TestMapGenero(t *testing.T) {
	tests := []struct{ in, want string }{
		{"masculino", GenderMale},
		{"FEMININO", GenderFemale},
		{"nao_informado", GenderUnknown},
		{"", GenderUnknown},
	}
	for _, tt := range tests {
		if got := mapGenero(tt.in); got != tt.want {
			t.Errorf("mapGenero(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMapIntencao(t *testing.T) {
	tests := []struct{ in, want string }{
		{"informou_nome", IntentionProvidedName},
		{"recusou", IntentionRefused},
		{"perguntou_de_volta", IntentionAskedBack},
		{"ambigua", IntentionAmbiguous},
		{"whatever", IntentionAmbiguous},
	}
	for _, tt := range tests {
		if got := mapIntencao(tt.in); got != tt.want {
			t.Errorf("mapIntencao(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

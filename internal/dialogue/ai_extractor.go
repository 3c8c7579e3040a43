package dialogue

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/atendezap/dialogue-engine/pkg/logging"
)

// AIExtractor is the Layer-2 collaborator: an LLM-backed structured extractor
// of name, gender and intention from one raw message.
type AIExtractor interface {
	ExtractNameAndGender(ctx context.Context, message string) (ExtractionResult, error)
}

const extractorPrompt = `Você extrai o nome do usuário de UMA mensagem de WhatsApp em português.

Responda SOMENTE com JSON neste formato exato:
{"nome_completo": "<nome ou null>", "genero": "masculino|feminino|nao_informado", "confianca": <0.0-1.0>, "intencao": "informou_nome|recusou|perguntou_de_volta|ambigua"}

Regras:
1) "nome_completo" é apenas o nome da pessoa, sem saudações nem perguntas.
2) "intencao" = "recusou" quando o usuário não quer informar o nome.
3) "intencao" = "perguntou_de_volta" quando o usuário devolve a pergunta ("e o seu?").
4) "intencao" = "ambigua" quando não dá para extrair com segurança.
5) Não explique. Não inclua texto extra.

Mensagem do usuário:
---
%s
---`

// modelCostPerToken gives the blended USD price per token used for billing
// telemetry. Unknown models cost zero rather than guessing.
var modelCostPerToken = map[string]float64{
	"gemini-2.5-flash":                          0.000000375,
	"gemini-2.0-flash":                          0.00000025,
	"anthropic.claude-3-haiku-20240307-v1:0":    0.00000075,
	"anthropic.claude-3-5-sonnet-20240620-v1:0": 0.000006,
	"gpt-4o-mini":                               0.000000375,
}

// LLMNameGenderExtractor implements AIExtractor over any LLMClient.
type LLMNameGenderExtractor struct {
	client  LLMClient
	modelID string
	timeout time.Duration
	logger  *logging.Logger
}

// NewLLMNameGenderExtractor builds the extractor. timeout bounds each call;
// zero means 10s.
func NewLLMNameGenderExtractor(client LLMClient, modelID string, timeout time.Duration, logger *logging.Logger) *LLMNameGenderExtractor {
	if client == nil {
		panic("dialogue: llm client cannot be nil")
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &LLMNameGenderExtractor{client: client, modelID: modelID, timeout: timeout, logger: logger}
}

// rawExtraction mirrors the JSON contract the model is asked to honor.
type rawExtraction struct {
	NomeCompleto *string `json:"nome_completo"`
	Genero       string  `json:"genero"`
	Confianca    float64 `json:"confianca"`
	Intencao     string  `json:"intencao"`
}

// ExtractNameAndGender sends the raw message to the LLM and maps the
// structured answer to the engine's common ExtractionResult shape. Usage
// metrics are always populated on success so billing telemetry never loses a
// call.
func (e *LLMNameGenderExtractor) ExtractNameAndGender(ctx context.Context, message string) (ExtractionResult, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	start := time.Now()
	resp, err := e.client.Complete(ctx, LLMRequest{
		Model:       e.modelID,
		Messages:    []ChatMessage{{Role: ChatRoleUser, Content: fmt.Sprintf(extractorPrompt, message)}},
		MaxTokens:   120,
		Temperature: 0,
		TopP:        0,
	})
	elapsed := time.Since(start)
	if err != nil {
		return ExtractionResult{}, fmt.Errorf("dialogue: ai extraction failed: %w", err)
	}

	raw, err := parseExtractionJSON(resp.Text)
	if err != nil {
		return ExtractionResult{}, err
	}

	// Bill the model that actually answered, not the requested one; a fallback
	// provider may have served the call.
	modelUsed := resp.Model
	if modelUsed == "" {
		modelUsed = e.modelID
	}

	result := ExtractionResult{
		Gender:     mapGenero(raw.Genero),
		Confidence: raw.Confianca,
		Intention:  mapIntencao(raw.Intencao),
		Metrics: AIMetrics{
			ModelUsed:        modelUsed,
			Tokens:           int(resp.Usage.TotalTokens),
			APICostUSD:       float64(resp.Usage.TotalTokens) * modelCostPerToken[modelUsed],
			ProcessingTimeMS: elapsed.Milliseconds(),
		},
	}
	if raw.NomeCompleto != nil {
		result.Name = strings.TrimSpace(*raw.NomeCompleto)
	}

	e.logger.Info("ai name extraction completed",
		"service", "ai-name-gender-extractor",
		"method", "ExtractNameAndGender",
		"operation_type", "ai_extraction",
		"intention", result.Intention,
		"confidence", result.Confidence,
		"tokens", result.Metrics.Tokens,
		"latency_ms", result.Metrics.ProcessingTimeMS,
	)
	return result, nil
}

// parseExtractionJSON tolerates prose around the JSON object by slicing
// between the first '{' and last '}'.
func parseExtractionJSON(text string) (rawExtraction, error) {
	content := strings.TrimSpace(text)
	startIdx := strings.Index(content, "{")
	endIdx := strings.LastIndex(content, "}")
	if startIdx < 0 || endIdx <= startIdx {
		return rawExtraction{}, fmt.Errorf("dialogue: extractor returned no JSON object: %q", text)
	}
	var raw rawExtraction
	if err := json.Unmarshal([]byte(content[startIdx:endIdx+1]), &raw); err != nil {
		return rawExtraction{}, fmt.Errorf("dialogue: failed to decode extractor JSON: %w", err)
	}
	return raw, nil
}

func mapGenero(genero string) string {
	switch strings.ToLower(strings.TrimSpace(genero)) {
	case "masculino":
		return GenderMale
	case "feminino":
		return GenderFemale
	default:
		return GenderUnknown
	}
}

func mapIntencao(intencao string) string {
	switch strings.ToLower(strings.TrimSpace(intencao)) {
	case "informou_nome":
		return IntentionProvidedName
	case "recusou":
		return IntentionRefused
	case "perguntou_de_volta":
		return IntentionAskedBack
	default:
		return IntentionAmbiguous
	}
}

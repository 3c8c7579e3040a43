package dialogue

import (
	"context"
	"regexp"
	"strings"

	"github.com/atendezap/dialogue-engine/internal/observability/metrics"
	"github.com/atendezap/dialogue-engine/pkg/logging"
)

// Layer-1 acceptance threshold: below this the deterministic result is
// considered insufficient and the extractor escalates to Layer 2.
const layer1AcceptThreshold = 0.8

// Decision thresholds applied uniformly to either layer's result.
const (
	// AdoptThreshold: at or above, adopt name+gender and skip the
	// gender-confirmation turn.
	AdoptThreshold = 0.85
	// ConfirmThreshold: in [ConfirmThreshold, AdoptThreshold) adopt the name
	// but ask a tailored gender-confirmation question.
	ConfirmThreshold = 0.5
)

// compoundConnectiveREs signal an "X e Y" clause around a name ("Meu nome é
// Ana e ...", "Sou Ana e você?") that a plain regex cannot safely decompose.
var compoundConnectiveREs = []*regexp.Regexp{
	regexp.MustCompile(`(?i)meu nome [eé] .+ e `),
	regexp.MustCompile(`(?i)sou .+ e voc[eê]`),
}

const titleToken = `[A-ZÀÁÂÃÄÅÇÈÉÊËÌÍÎÏÑÒÓÔÕÖÙÚÛÜÝ][a-zàáâãäåçèéêëìíîïñòóôõöùúûüý]+`

// layer1NameREs match whole messages that are exactly a 2- or 3-token
// Title-Case name. Single tokens stay out: too ambiguous without AI.
var layer1NameREs = []*regexp.Regexp{
	regexp.MustCompile(`^(` + titleToken + `\s+` + titleToken + `)$`),
	regexp.MustCompile(`^(` + titleToken + `\s+` + titleToken + `\s+` + titleToken + `)$`),
}

// HybridExtractor runs the two-layer name/gender extraction pipeline:
// Layer 1 is deterministic regex plus dictionary gender inference and costs
// nothing; Layer 2 escalates to the AI extractor only after Layer 1 is
// confirmed insufficient. Layer-2 faults degrade to an ambiguous result,
// never an error.
type HybridExtractor struct {
	ai      AIExtractor
	logger  *logging.Logger
	metrics *metrics.EngineMetrics
}

// NewHybridExtractor creates the pipeline. ai may be nil, in which case every
// escalation degrades to an ambiguous result. logger and m may be nil.
func NewHybridExtractor(ai AIExtractor, logger *logging.Logger, m *metrics.EngineMetrics) *HybridExtractor {
	if logger == nil {
		logger = logging.Default()
	}
	return &HybridExtractor{ai: ai, logger: logger, metrics: m}
}

// needsEscalation reports whether the message carries a combined intent that
// Layer 1 must not try to decompose.
func needsEscalation(message string) bool {
	if hasBotQuestion(message) {
		return true
	}
	for _, pat := range compoundConnectiveREs {
		if pat.MatchString(message) {
			return true
		}
	}
	return false
}

// extractLayer1 attempts the deterministic extraction. ok is false when the
// message must escalate to Layer 2.
func (h *HybridExtractor) extractLayer1(message string) (ExtractionResult, bool) {
	trimmed := strings.TrimSpace(message)
	if needsEscalation(trimmed) {
		return ExtractionResult{}, false
	}

	for _, pat := range layer1NameREs {
		match := pat.FindStringSubmatch(trimmed)
		if match == nil {
			continue
		}
		name := strings.TrimSpace(match[1])
		if len(name) < 2 || len(name) > 100 {
			continue
		}

		inference := InferGenderFromName(name)
		confidence := inference.Confidence
		if confidence > 0.9 {
			confidence = 0.9
		}
		if confidence < layer1AcceptThreshold {
			// A name matched but gender inference is too weak; the AI layer
			// handles it with full context.
			return ExtractionResult{}, false
		}
		return ExtractionResult{
			Name:       name,
			Gender:     inference.Gender,
			Confidence: confidence,
			Intention:  IntentionProvidedName,
			Metrics:    AIMetrics{ModelUsed: "deterministic"},
		}, true
	}
	return ExtractionResult{}, false
}

// Extract runs Layer 1 and, if insufficient, Layer 2. The result always has
// populated Metrics: zero-cost for Layer 1, zeroed with ModelUsed="error" on
// Layer-2 failure.
func (h *HybridExtractor) Extract(ctx context.Context, message string) ExtractionResult {
	if result, ok := h.extractLayer1(message); ok {
		h.metrics.ObserveExtraction("layer1", result.Intention)
		h.logger.Info("layer-1 extraction succeeded",
			"service", "hybrid-extractor",
			"method", "Extract",
			"operation_type", "name_extraction",
			"layer", "layer1",
			"confidence", result.Confidence,
		)
		return result
	}
	return h.ExtractWithAI(ctx, message)
}

// ExtractWithAI forces Layer-2 extraction, used when the classifier tagged
// the message ai_required. All faults are converted to an ambiguous result
// with zeroed metrics; this method never returns an error.
func (h *HybridExtractor) ExtractWithAI(ctx context.Context, message string) ExtractionResult {
	if h.ai == nil {
		h.metrics.ObserveExtraction("layer2", "unavailable")
		return ambiguousResult()
	}

	result, err := h.ai.ExtractNameAndGender(ctx, message)
	if err != nil {
		h.logger.Warn("layer-2 extraction failed, degrading to ambiguous",
			"service", "hybrid-extractor",
			"method", "ExtractWithAI",
			"operation_type", "name_extraction",
			"error", err.Error(),
		)
		h.metrics.ObserveExtraction("layer2", "error")
		return ambiguousResult()
	}

	h.metrics.ObserveExtraction("layer2", result.Intention)
	h.metrics.ObserveAICall(result.Metrics.ModelUsed, result.Metrics.APICostUSD,
		float64(result.Metrics.ProcessingTimeMS)/1000.0)
	return result
}

// ambiguousResult is the degraded shape used for every Layer-2 fault: the
// conversation re-asks instead of failing, and billing still receives a
// (zeroed) metrics record.
func ambiguousResult() ExtractionResult {
	return ExtractionResult{
		Gender:     GenderUnknown,
		Confidence: 0,
		Intention:  IntentionAmbiguous,
		Metrics:    AIMetrics{ModelUsed: "error"},
	}
}

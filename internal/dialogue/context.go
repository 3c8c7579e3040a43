package dialogue

// Stage identifies how far a booking conversation has progressed.
// Stages only move forward; error branches re-prompt without changing stage.
type Stage string

const (
	StageOnboarding       Stage = "onboarding"
	StageServiceSelection Stage = "service_selection"
	StageScheduling       Stage = "scheduling"
	StageConfirmation     Stage = "confirmation"
)

// stageOrder maps each stage to its position in the forward-only progression.
var stageOrder = map[Stage]int{
	StageOnboarding:       0,
	StageServiceSelection: 1,
	StageScheduling:       2,
	StageConfirmation:     3,
}

// Before reports whether s comes strictly before other in the stage progression.
func (s Stage) Before(other Stage) bool {
	return stageOrder[s] < stageOrder[other]
}

// ConversationContext is the per-session state owned by the orchestrator.
// The engine never mutates it directly; it returns ContextUpdate deltas.
type ConversationContext struct {
	HasName   bool   `json:"has_name"`
	HasEmail  bool   `json:"has_email"`
	HasGender bool   `json:"has_gender"`
	UserName  string `json:"user_name,omitempty"`
	UserEmail string `json:"user_email,omitempty"`
	// UserGender is "male", "female" or "other".
	UserGender       string   `json:"user_gender,omitempty"`
	CurrentStage     Stage    `json:"current_stage"`
	PreviousMessages []string `json:"previous_messages,omitempty"`
	TenantName       string   `json:"tenant_name,omitempty"`
	BusinessType     string   `json:"business_type,omitempty"`
}

// ContextUpdate is a partial delta to a ConversationContext. Only fields with
// their Set* flag true are applied, so callers can distinguish "leave alone"
// from "clear".
type ContextUpdate struct {
	SetName    bool   `json:"set_name,omitempty"`
	HasName    bool   `json:"has_name,omitempty"`
	UserName   string `json:"user_name,omitempty"`
	SetEmail   bool   `json:"set_email,omitempty"`
	HasEmail   bool   `json:"has_email,omitempty"`
	UserEmail  string `json:"user_email,omitempty"`
	SetGender  bool   `json:"set_gender,omitempty"`
	HasGender  bool   `json:"has_gender,omitempty"`
	UserGender string `json:"user_gender,omitempty"`
}

// IsZero reports whether the update carries no changes.
func (u ContextUpdate) IsZero() bool {
	return !u.SetName && !u.SetEmail && !u.SetGender
}

// Apply merges the delta into ctx in place.
func (u ContextUpdate) Apply(ctx *ConversationContext) {
	if ctx == nil {
		return
	}
	if u.SetName {
		ctx.HasName = u.HasName
		ctx.UserName = u.UserName
	}
	if u.SetEmail {
		ctx.HasEmail = u.HasEmail
		ctx.UserEmail = u.UserEmail
	}
	if u.SetGender {
		ctx.HasGender = u.HasGender
		ctx.UserGender = u.UserGender
	}
}

// AIMetrics carries the operational cost of one LLM call, forwarded upward
// for billing telemetry even when the call failed.
type AIMetrics struct {
	ModelUsed        string  `json:"model_used"`
	Tokens           int     `json:"tokens"`
	APICostUSD       float64 `json:"api_cost_usd"`
	ProcessingTimeMS int64   `json:"processing_time_ms"`
}

// ContextualResponse is the engine's unit of output: the bot reply, the stage
// transition, the context delta and the observability fields.
type ContextualResponse struct {
	Message string `json:"message"`
	// ShouldContinueFlow false means the orchestrator's scripted stage logic
	// must not also reply this turn.
	ShouldContinueFlow bool           `json:"should_continue_flow"`
	NextStage          Stage          `json:"next_stage,omitempty"`
	ContextUpdate      *ContextUpdate `json:"context_update,omitempty"`
	// DetectedIntent is a free-form label naming the branch that fired,
	// distinct from the business IntentKey.
	DetectedIntent string     `json:"detected_intent"`
	Confidence     float64    `json:"confidence"`
	AIMetrics      *AIMetrics `json:"ai_metrics,omitempty"`
}

// Gender values used across inference and extraction.
const (
	GenderMale    = "male"
	GenderFemale  = "female"
	GenderOther   = "other"
	GenderUnknown = "unknown"
)

// Extraction intentions, shared by Layer 1 and Layer 2.
const (
	IntentionProvidedName = "provided_name"
	IntentionRefused      = "refused"
	IntentionAskedBack    = "asked_back"
	IntentionAmbiguous    = "ambiguous"
)

// ExtractionResult is the common shape produced by either extraction layer.
// Created fresh per message, never cached.
type ExtractionResult struct {
	Name       string // empty when no name was adopted
	Gender     string // male, female or unknown
	Confidence float64
	Intention  string
	Metrics    AIMetrics
}

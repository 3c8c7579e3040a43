package dialogue

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/atendezap/dialogue-engine/internal/observability/metrics"
	"github.com/atendezap/dialogue-engine/pkg/logging"
)

var responderTracer = otel.Tracer("atendezap/responder")

// Responder merges the classifier and extractor signals into one
// ContextualResponse and drives the onboarding stage machine. It is stateless
// across calls: all session state lives in the caller-supplied context.
type Responder struct {
	classifier *MessageClassifier
	extractor  *HybridExtractor
	logger     *logging.Logger
	metrics    *metrics.EngineMetrics
}

// NewResponder wires the response generator. logger and m may be nil.
func NewResponder(classifier *MessageClassifier, extractor *HybridExtractor, logger *logging.Logger, m *metrics.EngineMetrics) *Responder {
	if classifier == nil {
		panic("dialogue: classifier cannot be nil")
	}
	if extractor == nil {
		panic("dialogue: extractor cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Responder{classifier: classifier, extractor: extractor, logger: logger, metrics: m}
}

// ProcessContextualMessage is the engine's public entry point: one raw
// inbound message plus the session context in, one ContextualResponse out.
// It never panics past this boundary; any internal fault degrades to a
// generic apology so the conversation can always continue.
func (r *Responder) ProcessContextualMessage(ctx context.Context, message string, convCtx ConversationContext) (resp ContextualResponse) {
	ctx, span := responderTracer.Start(ctx, "dialogue.process_message")
	defer span.End()
	start := time.Now()

	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("recovered from processing fault",
				"service", "responder",
				"method", "ProcessContextualMessage",
				"operation_type", "process_error",
				"panic", fmt.Sprint(rec),
			)
			resp = ContextualResponse{
				Message:            "Desculpe, ocorreu um erro. Como posso te ajudar?",
				ShouldContinueFlow: true,
				DetectedIntent:     "error_fallback",
				Confidence:         0.1,
			}
		}
		r.metrics.ObserveResponse(resp.DetectedIntent)
		r.metrics.ObserveProcessing(string(convCtx.CurrentStage), time.Since(start).Seconds())
		r.logger.Info("contextual response generated",
			"service", "responder",
			"method", "ProcessContextualMessage",
			"operation_type", "response_generated",
			"intent", resp.DetectedIntent,
			"confidence", resp.Confidence,
			"should_continue_flow", resp.ShouldContinueFlow,
			"next_stage", string(resp.NextStage),
		)
	}()

	intent := r.classifier.Classify(message)
	r.metrics.ObserveClassification(string(intent.Type))
	r.logger.Info("message intent detected",
		"service", "responder",
		"method", "ProcessContextualMessage",
		"operation_type", "intent_detection",
		"intent", string(intent.Type),
		"confidence", intent.Confidence,
		"keywords", strings.Join(intent.Keywords, ","),
	)

	switch intent.Type {
	case MessageIntentBotInfo:
		if intent.HasKeyword(KeywordCompoundQuestion) {
			resp = r.handleNameWithBotQuestion(ctx, message, convCtx)
		} else {
			resp = r.handleBotInfoRequest(convCtx)
		}
	case MessageIntentCasual:
		resp = r.handleCasualConversation(message, convCtx)
	case MessageIntentDataCollection:
		resp = r.handleDataCollection(ctx, message, convCtx, intent)
	case MessageIntentAppointment:
		resp = r.handleAppointmentRequest(convCtx)
	default:
		resp = r.handleDefault(convCtx)
	}

	resp.NextStage = clampStage(convCtx, resp.NextStage)
	return resp
}

// clampStage enforces stage monotonicity: stages never move backward, and a
// fully onboarded session is never sent back to onboarding.
func clampStage(convCtx ConversationContext, proposed Stage) Stage {
	if proposed == "" {
		return ""
	}
	if proposed.Before(convCtx.CurrentStage) {
		proposed = convCtx.CurrentStage
	}
	if proposed == StageOnboarding && convCtx.HasName && convCtx.HasEmail && convCtx.HasGender {
		proposed = StageServiceSelection
		if proposed.Before(convCtx.CurrentStage) {
			proposed = convCtx.CurrentStage
		}
	}
	return proposed
}

func businessNameOf(convCtx ConversationContext) string {
	if convCtx.TenantName != "" {
		return convCtx.TenantName
	}
	return "nosso negócio"
}

// handleBotInfoRequest answers a simple question about the assistant's
// identity, then steers back to the next missing onboarding field.
func (r *Responder) handleBotInfoRequest(convCtx ConversationContext) ContextualResponse {
	response := fmt.Sprintf("Sou o assistente inteligente do %s! 🤖", businessNameOf(convCtx))

	if convCtx.HasName && convCtx.UserName != "" {
		if convCtx.HasEmail {
			return ContextualResponse{
				Message:            response + fmt.Sprintf(" Agora que já tenho seus dados, %s, como posso te ajudar com seu agendamento?", convCtx.UserName),
				ShouldContinueFlow: false,
				NextStage:          StageServiceSelection,
				DetectedIntent:     "bot_info_with_transition",
				Confidence:         0.9,
			}
		}
		return ContextualResponse{
			Message:            response + fmt.Sprintf(" %s, para finalizar seu cadastro, preciso do seu email:", convCtx.UserName),
			ShouldContinueFlow: false,
			NextStage:          StageOnboarding,
			DetectedIntent:     "bot_info_continue_onboarding",
			Confidence:         0.9,
		}
	}

	return ContextualResponse{
		Message:            response + " Para começar, preciso de algumas informações. Qual é o seu nome completo?",
		ShouldContinueFlow: false,
		NextStage:          StageOnboarding,
		DetectedIntent:     "bot_info_start_onboarding",
		Confidence:         0.9,
	}
}

// handleNameWithBotQuestion handles the compound "Ana, e o seu?" case: the
// message embeds both the user's name and a question about the bot, so it is
// always decomposed by the AI layer, then the identity explanation is
// appended to whichever extraction outcome fired.
func (r *Responder) handleNameWithBotQuestion(ctx context.Context, message string, convCtx ConversationContext) ContextualResponse {
	result := r.extractor.ExtractWithAI(ctx, message)
	businessName := businessNameOf(convCtx)
	identity := fmt.Sprintf("Sou o assistente inteligente do %s! 🤖", businessName)

	switch {
	case result.Intention == IntentionRefused:
		return ContextualResponse{
			Message:            fmt.Sprintf("Sem problemas! %s Quando quiser compartilhar seu nome, estarei aqui. Como posso te ajudar hoje?", identity),
			ShouldContinueFlow: false,
			NextStage:          StageServiceSelection,
			DetectedIntent:     "name_refused_but_answered_bot_question",
			Confidence:         result.Confidence,
			AIMetrics:          &result.Metrics,
		}
	case result.Intention == IntentionAmbiguous || result.Name == "" || result.Confidence < ConfirmThreshold:
		return ContextualResponse{
			Message:            identity + " Para começar, qual é o seu nome completo?",
			ShouldContinueFlow: false,
			NextStage:          StageOnboarding,
			DetectedIntent:     "bot_info_with_name_request",
			Confidence:         result.Confidence,
			AIMetrics:          &result.Metrics,
		}
	}

	adopted := r.adoptExtractedName(result)
	return ContextualResponse{
		Message:            fmt.Sprintf("Prazer em te conhecer, %s! %s %s", adopted.greetingName, identity, adopted.continuation),
		ShouldContinueFlow: false,
		NextStage:          StageOnboarding,
		ContextUpdate:      adopted.Update,
		DetectedIntent:     adopted.DetectedIntent,
		Confidence:         adopted.Confidence,
		AIMetrics:          &result.Metrics,
	}
}

// handleCasualConversation replies to courtesy phrases and then steers back
// to the next missing onboarding field.
func (r *Responder) handleCasualConversation(message string, convCtx ConversationContext) ContextualResponse {
	normalized := Normalize(message)
	var response string
	switch {
	case strings.Contains(normalized, "prazer"):
		response = "O prazer é meu! ✨"
	case strings.Contains(normalized, "obrigad"):
		response = "De nada! Estou aqui para ajudar! 😊"
	default:
		response = "Fico feliz em ajudar! 🙂"
	}

	nextStage := StageOnboarding
	switch {
	case convCtx.HasName && !convCtx.HasEmail:
		response += fmt.Sprintf(" %s, agora preciso do seu email para continuar:", convCtx.UserName)
	case convCtx.HasName && convCtx.HasEmail:
		response += fmt.Sprintf(" %s, como posso te ajudar hoje?", convCtx.UserName)
		nextStage = StageServiceSelection
	default:
		response += " Para começar, qual é o seu nome completo?"
	}

	return ContextualResponse{
		Message:            response,
		ShouldContinueFlow: true,
		NextStage:          nextStage,
		DetectedIntent:     "casual_with_transition",
		Confidence:         0.8,
	}
}

// handleDataCollection routes a data-collection reply to the matching
// sub-handler: gender adoption, email adoption or name extraction.
func (r *Responder) handleDataCollection(ctx context.Context, message string, convCtx ConversationContext, intent MessageIntent) ContextualResponse {
	trimmed := strings.TrimSpace(message)

	if genderRE.MatchString(trimmed) {
		return r.handleGenderReply(trimmed)
	}

	if email := emailRE.FindString(message); email != "" {
		return r.handleEmailReply(email, convCtx)
	}

	if intent.HasKeyword(KeywordAIRequired) {
		result := r.extractor.ExtractWithAI(ctx, message)
		return r.extractionResponse(result, convCtx)
	}

	if !strings.Contains(message, "@") && (strings.Contains(message, " ") || len(trimmed) > 3) {
		result := r.extractor.Extract(ctx, message)
		return r.extractionResponse(result, convCtx)
	}

	return ContextualResponse{
		Message:            "Não consegui entender. Pode repetir por favor?",
		ShouldContinueFlow: true,
		DetectedIntent:     "data_collection_unclear",
		Confidence:         0.3,
	}
}

// handleGenderReply adopts an explicit gender answer; this is always terminal
// for onboarding.
func (r *Responder) handleGenderReply(reply string) ContextualResponse {
	normalized := strings.ToLower(reply)
	gender := GenderOther
	switch normalized {
	case "m", "masculino":
		gender = GenderMale
	case "f", "feminino":
		gender = GenderFemale
	}

	return ContextualResponse{
		Message:            "Perfeito! Cadastro finalizado com sucesso. ✅ Agora vamos ao seu agendamento. Qual serviço você precisa?",
		ShouldContinueFlow: true,
		NextStage:          StageServiceSelection,
		ContextUpdate:      &ContextUpdate{SetGender: true, HasGender: true, UserGender: gender},
		DetectedIntent:     "gender_collected",
		Confidence:         0.95,
	}
}

// handleEmailReply adopts an email address, short-circuiting the gender
// question when the name already settled it.
func (r *Responder) handleEmailReply(email string, convCtx ConversationContext) ContextualResponse {
	if convCtx.HasGender && convCtx.HasName {
		treatment := Honorific(convCtx.UserGender)
		return ContextualResponse{
			Message:            fmt.Sprintf("Email registrado com sucesso, %s %s! ✅ Cadastro finalizado. Agora vamos ao seu agendamento. Qual serviço você precisa?", treatment, convCtx.UserName),
			ShouldContinueFlow: true,
			NextStage:          StageServiceSelection,
			ContextUpdate:      &ContextUpdate{SetEmail: true, HasEmail: true, UserEmail: email},
			DetectedIntent:     "email_collected_onboarding_complete",
			Confidence:         0.98,
		}
	}

	if convCtx.HasName && convCtx.UserName != "" {
		inference := InferGenderFromName(convCtx.UserName)
		if ShouldSkipGenderQuestion(inference) {
			treatment := Honorific(inference.Gender)
			return ContextualResponse{
				Message:            fmt.Sprintf("Email registrado com sucesso, %s %s! ✅ Cadastro finalizado. Agora vamos ao seu agendamento. Qual serviço você precisa?", treatment, convCtx.UserName),
				ShouldContinueFlow: true,
				NextStage:          StageServiceSelection,
				ContextUpdate: &ContextUpdate{
					SetEmail: true, HasEmail: true, UserEmail: email,
					SetGender: true, HasGender: true, UserGender: inference.Gender,
				},
				DetectedIntent: "email_and_gender_inferred",
				Confidence:     0.98,
			}
		}
		return ContextualResponse{
			Message:            fmt.Sprintf("Email registrado com sucesso! ✅ %s", GenderConfirmationMessage(inference, convCtx.UserName)),
			ShouldContinueFlow: true,
			NextStage:          StageOnboarding,
			ContextUpdate:      &ContextUpdate{SetEmail: true, HasEmail: true, UserEmail: email},
			DetectedIntent:     "email_collected_with_smart_gender_question",
			Confidence:         0.95,
		}
	}

	return ContextualResponse{
		Message:            "Email registrado com sucesso! ✅ Para finalizar seu cadastro, você poderia me informar como gostaria de ser tratado(a)? (masculino/feminino/outro)",
		ShouldContinueFlow: true,
		NextStage:          StageOnboarding,
		ContextUpdate:      &ContextUpdate{SetEmail: true, HasEmail: true, UserEmail: email},
		DetectedIntent:     "email_collected",
		Confidence:         0.95,
	}
}

// adoptedName is the intermediate shape shared by the plain and compound
// name-adoption paths.
type adoptedName struct {
	greetingName   string
	continuation   string
	Update         *ContextUpdate
	DetectedIntent string
	Confidence     float64
}

// adoptExtractedName applies the uniform decision thresholds to an extraction
// that did produce a name with confidence >= ConfirmThreshold.
func (r *Responder) adoptExtractedName(result ExtractionResult) adoptedName {
	deterministic := result.Metrics.ModelUsed == "deterministic"
	labelSuffix := "by_ai"
	if deterministic {
		labelSuffix = "by_regex"
	}

	// High confidence with a known gender: adopt both, address with honorific,
	// skip the confirmation turn.
	if result.Gender != GenderUnknown && result.Confidence >= AdoptThreshold {
		treatment := Honorific(result.Gender)
		return adoptedName{
			greetingName: treatment + " " + result.Name,
			continuation: "Para finalizar seu cadastro, preciso do seu email:",
			Update: &ContextUpdate{
				SetName: true, HasName: true, UserName: result.Name,
				SetGender: true, HasGender: true, UserGender: result.Gender,
			},
			DetectedIntent: "name_and_gender_extracted_" + labelSuffix,
			Confidence:     result.Confidence,
		}
	}

	// The extractor was unsure about gender; the name dictionary may still
	// settle it.
	inference := InferGenderFromName(result.Name)
	if ShouldSkipGenderQuestion(inference) {
		treatment := Honorific(inference.Gender)
		confidence := result.Confidence
		if inference.Confidence > confidence {
			confidence = inference.Confidence
		}
		return adoptedName{
			greetingName: treatment + " " + result.Name,
			continuation: "Para finalizar seu cadastro, preciso do seu email:",
			Update: &ContextUpdate{
				SetName: true, HasName: true, UserName: result.Name,
				SetGender: true, HasGender: true, UserGender: inference.Gender,
			},
			DetectedIntent: "name_extracted_" + labelSuffix + "_gender_by_inference",
			Confidence:     confidence,
		}
	}

	// Medium confidence: adopt the name but confirm gender before using an
	// honorific.
	return adoptedName{
		greetingName:   result.Name,
		continuation:   GenderConfirmationMessage(inference, result.Name),
		Update:         &ContextUpdate{SetName: true, HasName: true, UserName: result.Name},
		DetectedIntent: "name_extracted_" + labelSuffix + "_needs_gender",
		Confidence:     result.Confidence,
	}
}

// extractionResponse converts an extraction result into the full contextual
// response for the plain (non-compound) name-collection path.
func (r *Responder) extractionResponse(result ExtractionResult, convCtx ConversationContext) ContextualResponse {
	aiMetrics := &result.Metrics

	switch {
	case result.Intention == IntentionRefused:
		// Never re-prompt a refused name; continue to the next required step.
		if !convCtx.HasEmail {
			return ContextualResponse{
				Message:            "Sem problemas! Para continuar, preciso do seu email:",
				ShouldContinueFlow: false,
				NextStage:          StageOnboarding,
				DetectedIntent:     "name_refused",
				Confidence:         result.Confidence,
				AIMetrics:          aiMetrics,
			}
		}
		return ContextualResponse{
			Message:            "Sem problemas! Como posso te ajudar hoje?",
			ShouldContinueFlow: false,
			NextStage:          StageServiceSelection,
			DetectedIntent:     "name_refused",
			Confidence:         result.Confidence,
			AIMetrics:          aiMetrics,
		}
	case result.Intention == IntentionAskedBack:
		return ContextualResponse{
			Message:            fmt.Sprintf("Sou o assistente inteligente do %s! 🤖 Para começar, qual é o seu nome completo?", businessNameOf(convCtx)),
			ShouldContinueFlow: false,
			NextStage:          StageOnboarding,
			DetectedIntent:     "name_asked_back",
			Confidence:         result.Confidence,
			AIMetrics:          aiMetrics,
		}
	case result.Intention == IntentionAmbiguous || result.Name == "" || result.Confidence < ConfirmThreshold:
		return ContextualResponse{
			Message:            "Para te ajudar melhor, preciso do seu nome completo. Pode me dizer qual é?",
			ShouldContinueFlow: true,
			NextStage:          StageOnboarding,
			DetectedIntent:     "name_ambiguous_need_clarification",
			Confidence:         result.Confidence,
			AIMetrics:          aiMetrics,
		}
	}

	adopted := r.adoptExtractedName(result)
	return ContextualResponse{
		Message:            fmt.Sprintf("Prazer em te conhecer, %s! %s", adopted.greetingName, adopted.continuation),
		ShouldContinueFlow: true,
		NextStage:          StageOnboarding,
		ContextUpdate:      adopted.Update,
		DetectedIntent:     adopted.DetectedIntent,
		Confidence:         adopted.Confidence,
		AIMetrics:          aiMetrics,
	}
}

// handleAppointmentRequest redirects to onboarding when mandatory data is
// missing, otherwise moves to service selection.
func (r *Responder) handleAppointmentRequest(convCtx ConversationContext) ContextualResponse {
	if !convCtx.HasName || !convCtx.HasEmail {
		return ContextualResponse{
			Message:            "Para agendar, preciso primeiro de algumas informações. Qual é o seu nome completo?",
			ShouldContinueFlow: true,
			NextStage:          StageOnboarding,
			DetectedIntent:     "appointment_need_data",
			Confidence:         0.9,
		}
	}
	return ContextualResponse{
		Message:            fmt.Sprintf("%s, vou ajudar com seu agendamento! Qual serviço você precisa?", convCtx.UserName),
		ShouldContinueFlow: true,
		NextStage:          StageServiceSelection,
		DetectedIntent:     "appointment_ready",
		Confidence:         0.9,
	}
}

// handleDefault reiterates the next missing field, or offers service
// selection when onboarding is complete.
func (r *Responder) handleDefault(convCtx ConversationContext) ContextualResponse {
	response := "Entendi! "
	nextStage := StageOnboarding
	switch {
	case !convCtx.HasName:
		response += "Para começar, qual é o seu nome completo?"
	case !convCtx.HasEmail:
		response += fmt.Sprintf("%s, agora preciso do seu email:", convCtx.UserName)
	default:
		response += fmt.Sprintf("%s, como posso te ajudar com seu agendamento?", convCtx.UserName)
		nextStage = StageServiceSelection
	}

	return ContextualResponse{
		Message:            response,
		ShouldContinueFlow: true,
		NextStage:          nextStage,
		DetectedIntent:     "default_continue_flow",
		Confidence:         0.6,
	}
}

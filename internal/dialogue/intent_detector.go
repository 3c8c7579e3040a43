package dialogue

import (
	"context"
	"regexp"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/atendezap/dialogue-engine/internal/observability/metrics"
	"github.com/atendezap/dialogue-engine/pkg/logging"
)

var intentTracer = otel.Tracer("atendezap/intent-detector")

// IntentKey is one of the closed set of business-routing intents.
type IntentKey string

const (
	IntentGreeting          IntentKey = "greeting"
	IntentServices          IntentKey = "services"
	IntentPricing           IntentKey = "pricing"
	IntentAvailability      IntentKey = "availability"
	IntentMyAppointments    IntentKey = "my_appointments"
	IntentAddress           IntentKey = "address"
	IntentPayments          IntentKey = "payments"
	IntentBusinessHours     IntentKey = "business_hours"
	IntentCancel            IntentKey = "cancel"
	IntentReschedule        IntentKey = "reschedule"
	IntentConfirm           IntentKey = "confirm"
	IntentModifyAppointment IntentKey = "modify_appointment"
	IntentPolicies          IntentKey = "policies"
	IntentHandoff           IntentKey = "handoff"
	IntentWrongNumber       IntentKey = "wrong_number"
	IntentTestMessage       IntentKey = "test_message"
	IntentBookingAbandoned  IntentKey = "booking_abandoned"
	IntentNoshowFollowup    IntentKey = "noshow_followup"
)

// intentPriority is the total tie-break order over intent keys: when a message
// matches several intents, the earliest entry here wins. Confirmation outranks
// cancellation so "confirmo o cancelamento" resolves to confirm.
var intentPriority = []IntentKey{
	IntentGreeting,
	IntentServices,
	IntentPricing,
	IntentAvailability,
	IntentMyAppointments,
	IntentAddress,
	IntentPayments,
	IntentBusinessHours,
	IntentConfirm,
	IntentCancel,
	IntentReschedule,
	IntentModifyAppointment,
	IntentPolicies,
	IntentHandoff,
	IntentWrongNumber,
	IntentTestMessage,
	IntentBookingAbandoned,
	IntentNoshowFollowup,
}

// IntentKeys returns the priority ordering. The slice is a copy; callers may
// not mutate the detector's configuration.
func IntentKeys() []IntentKey {
	keys := make([]IntentKey, len(intentPriority))
	copy(keys, intentPriority)
	return keys
}

// structuredTarget matches the trailing identifier of structured commands like
// "cancelar 0b6a.... " or "remarcar 12/04": a UUID or a dd/mm[/yyyy] date.
const structuredTarget = `([0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}|\d{1,2}/\d{1,2}(/\d{2,4})?)`

// intentPatterns maps each intent to its pattern set. An intent matches when
// any one of its patterns matches the normalized text; order inside a set has
// no observable effect. Patterns are applied to Normalize(text), so they are
// written without diacritics. Compiled once at init and never mutated.
var intentPatterns = map[IntentKey][]*regexp.Regexp{
	IntentGreeting: {
		regexp.MustCompile(`^\s*(oi+|ola+|hey|eai|e ai)\b`),
		regexp.MustCompile(`\b(bom dia|boa tarde|boa noite)\b`),
		regexp.MustCompile(`\btudo bem\b`),
	},
	IntentServices: {
		regexp.MustCompile(`\bservicos?\b`),
		regexp.MustCompile(`\b(tratamentos?|procedimentos?) (que )?(fazem|oferecem|disponiveis)\b`),
		regexp.MustCompile(`\bo que (voces )?(fazem|oferecem)\b`),
		regexp.MustCompile(`\btipos de (corte|consulta|aula|treino|sessao)\b`),
	},
	IntentPricing: {
		regexp.MustCompile(`\b(precos?|valor(es)?|tabela de preco)\b`),
		regexp.MustCompile(`\bquanto (custa|cobra|sai|fica)\b`),
		regexp.MustCompile(`\borcamento\b`),
	},
	IntentAvailability: {
		regexp.MustCompile(`\b(disponivel|disponibilidade)\b`),
		regexp.MustCompile(`\btem (algum |alguma )?(horario|vaga|agenda)\b`),
		regexp.MustCompile(`\bquando (voce |o senhor |a senhora )?pode\b`),
		regexp.MustCompile(`\bhorario livre\b`),
	},
	IntentMyAppointments: {
		regexp.MustCompile(`\bmeus? (agendamentos?|horarios? marcados?)\b`),
		regexp.MustCompile(`\bminhas? consultas?\b`),
		regexp.MustCompile(`\bo que (eu )?tenho marcado\b`),
		regexp.MustCompile(`\b(esta|ta) marcado\b`),
	},
	IntentAddress: {
		regexp.MustCompile(`\bendereco\b`),
		regexp.MustCompile(`\bonde (fica|voces ficam|e o local)\b`),
		regexp.MustCompile(`\b(localizacao|como chegar)\b`),
	},
	IntentPayments: {
		regexp.MustCompile(`\b(formas? de pagamento|pagamentos?)\b`),
		regexp.MustCompile(`\b(aceitam?|posso pagar com) (pix|cartao|dinheiro|boleto)\b`),
		regexp.MustCompile(`\bparcel(ar|amento|a)\b`),
	},
	IntentBusinessHours: {
		regexp.MustCompile(`\bhorario de (funcionamento|atendimento)\b`),
		regexp.MustCompile(`\bque horas? (abre|fecha|funciona)\b`),
		regexp.MustCompile(`\b(abrem?|fecham?|aberto|fechado) (hoje|amanha|no sabado|no domingo|aos sabados|aos domingos)\b`),
	},
	IntentConfirm: {
		regexp.MustCompile(`\bconfirm(o|a|ar|ado|ada)\b`),
		regexp.MustCompile(`\b(pode confirmar|ta confirmado|esta confirmado)\b`),
		regexp.MustCompile(`\bconfirmar\s+` + structuredTarget + `\b`),
	},
	IntentCancel: {
		// Generic keyword pattern for the bare intent.
		regexp.MustCompile(`\b(cancel(ar|a|o|amento)|desmarcar|desmarca)\b`),
		regexp.MustCompile(`\bnao vou (mais )?(poder )?(ir|comparecer)\b`),
		// Compound pattern for structured "cancelar <uuid|data>" commands.
		regexp.MustCompile(`\bcancelar\s+` + structuredTarget + `\b`),
	},
	IntentReschedule: {
		regexp.MustCompile(`\b(remarcar|remarca|reagendar|reagenda)\b`),
		regexp.MustCompile(`\b(mudar|trocar|alterar) (o |a )?(horario|data|dia)\b`),
		regexp.MustCompile(`\b(remarcar|reagendar)\s+` + structuredTarget + `\b`),
	},
	IntentModifyAppointment: {
		regexp.MustCompile(`\b(alterar|modificar|mudar) (o |a |meu |minha )?(agendamento|consulta|reserva)\b`),
		regexp.MustCompile(`\b(incluir|adicionar|tirar) (um |uma )?servico\b`),
	},
	IntentPolicies: {
		regexp.MustCompile(`\bpoliticas?( de (cancelamento|reembolso|atraso))?\b`),
		regexp.MustCompile(`\b(reembolso|multa por cancelamento|taxa de cancelamento)\b`),
		regexp.MustCompile(`\bregras? (de|do|da) (cancelamento|atendimento|casa)\b`),
	},
	IntentHandoff: {
		regexp.MustCompile(`\bfalar com (um |uma )?(atendente|humano|pessoa|gerente|responsavel)\b`),
		regexp.MustCompile(`\b(atendente|atendimento) humano\b`),
		regexp.MustCompile(`\bcade o gerente\b`),
	},
	IntentWrongNumber: {
		regexp.MustCompile(`\bnumero errado\b`),
		regexp.MustCompile(`\b(foi )?engano\b`),
		regexp.MustCompile(`\bmensagem errada\b`),
		regexp.MustCompile(`\bnao era pra (voce|esse numero)\b`),
	},
	IntentTestMessage: {
		regexp.MustCompile(`\b(teste|testando)\b`),
		regexp.MustCompile(`\bmensagem de teste\b`),
		regexp.MustCompile(`^\s*test\s*$`),
	},
	IntentBookingAbandoned: {
		regexp.MustCompile(`\b(deixa pra la|esquece|desisti)\b`),
		regexp.MustCompile(`\bnao quero mais (agendar|marcar)\b`),
		regexp.MustCompile(`\bdepois eu (vejo|marco|falo)\b`),
	},
	IntentNoshowFollowup: {
		regexp.MustCompile(`\b(nao compareci|faltei)\b`),
		regexp.MustCompile(`\bperdi (o|meu) horario\b`),
		regexp.MustCompile(`\bnao consegui (ir|comparecer)\b`),
	},
}

// IntentDetector is the deterministic, priority-ordered business intent
// classifier. It holds no mutable state: identical input always yields
// identical output.
type IntentDetector struct {
	logger  *logging.Logger
	metrics *metrics.EngineMetrics
}

// NewIntentDetector creates a detector. logger and m may be nil.
func NewIntentDetector(logger *logging.Logger, m *metrics.EngineMetrics) *IntentDetector {
	if logger == nil {
		logger = logging.Default()
	}
	return &IntentDetector{logger: logger, metrics: m}
}

// DetectIntents returns every matched intent in PRIORITY order, each at most
// once. An empty slice is a legitimate terminal result, not an error.
func (d *IntentDetector) DetectIntents(ctx context.Context, text string) []IntentKey {
	_, span := intentTracer.Start(ctx, "intent.detect")
	defer span.End()

	normalized := Normalize(text)
	var matched []IntentKey
	for _, key := range intentPriority {
		for _, pat := range intentPatterns[key] {
			if pat.MatchString(normalized) {
				matched = append(matched, key)
				break
			}
		}
	}

	span.SetAttributes(attribute.Int("intent.match_count", len(matched)))
	for _, key := range matched {
		d.metrics.ObserveIntentDetection(string(key))
	}
	d.logger.Debug("intents detected",
		"service", "intent-detector",
		"method", "DetectIntents",
		"operation_type", "intent_detection",
		"match_count", len(matched),
	)
	return matched
}

// DetectPrimaryIntent returns the highest-priority matched intent. The second
// result is false when no intent matched; no fallback intent is synthesized.
func (d *IntentDetector) DetectPrimaryIntent(ctx context.Context, text string) (IntentKey, bool) {
	intents := d.DetectIntents(ctx, text)
	if len(intents) == 0 {
		return "", false
	}
	d.logger.Info("primary intent detected",
		"service", "intent-detector",
		"method", "DetectPrimaryIntent",
		"operation_type", "intent_detection",
		"intent", string(intents[0]),
	)
	return intents[0], true
}

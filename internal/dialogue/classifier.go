package dialogue

import (
	"regexp"
	"strings"

	"github.com/atendezap/dialogue-engine/pkg/logging"
)

// MessageIntentType is the conversational-layer classification of a message,
// orthogonal to the business IntentKey.
type MessageIntentType string

const (
	MessageIntentBotInfo        MessageIntentType = "bot_info_request"
	MessageIntentCasual         MessageIntentType = "casual_conversation"
	MessageIntentDataCollection MessageIntentType = "data_collection_response"
	MessageIntentAppointment    MessageIntentType = "appointment_request"
	MessageIntentOther          MessageIntentType = "other"
)

// MessageIntent is the classifier's verdict: exactly one type per message,
// plus the keywords that explain which detector fired.
type MessageIntent struct {
	Type       MessageIntentType
	Confidence float64
	Keywords   []string
}

// Keyword tags consumed downstream.
const (
	// KeywordCompoundQuestion marks a name followed by a question about the
	// bot ("Ana, e o seu?"), which needs AI decomposition.
	KeywordCompoundQuestion = "pergunta_dupla"
	// KeywordAIRequired forces Layer-2 extraction for explicit
	// name-introduction phrases that often embed compound clauses.
	KeywordAIRequired = "ai_required"
	KeywordEmail      = "email"
	KeywordGender     = "gender"
	KeywordName       = "nome"
)

// HasKeyword reports whether the classifier tagged the message with kw.
func (m MessageIntent) HasKeyword(kw string) bool {
	for _, k := range m.Keywords {
		if k == kw {
			return true
		}
	}
	return false
}

// botQuestionFragments signal the user turned the question back at the bot
// ("e o seu?", "e você?"). Matched case-insensitively on the raw message.
var botQuestionFragments = []*regexp.Regexp{
	regexp.MustCompile(`(?i)e\s*o\s*seu\??`),
	regexp.MustCompile(`(?i)e\s*voc[eê]\??`),
	regexp.MustCompile(`(?i)e\s*vc\??`),
	regexp.MustCompile(`(?i)qual.*o.*seu`),
	regexp.MustCompile(`(?i)como.*se\s*chama`),
}

// botQuestionStrip removes bot-question fragments, leaving whatever preceded
// them (usually the user's own name).
var botQuestionStrip = []*regexp.Regexp{
	regexp.MustCompile(`(?i)e\s*o\s*seu\??`),
	regexp.MustCompile(`(?i)e\s*voc[eê]\??`),
	regexp.MustCompile(`(?i)e\s*vc\??`),
	regexp.MustCompile(`(?i)qual.*o.*seu`),
	regexp.MustCompile(`(?i)como.*se\s*chama`),
}

var botInfoPatterns = []*regexp.Regexp{
	regexp.MustCompile(`qual.*seu nome`),
	regexp.MustCompile(`como.*se chama`),
	regexp.MustCompile(`quem.*(e|eh) voce`),
	regexp.MustCompile(`\bseu nome\b`),
	regexp.MustCompile(`nome do assistente`),
	regexp.MustCompile(`\bbot\b.*\bnome\b`),
	regexp.MustCompile(`\be o seu\b`),
	regexp.MustCompile(`\be voce\b`),
	regexp.MustCompile(`qual.*o.*seu`),
}

var casualPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\bprazer\b`),
	regexp.MustCompile(`\bobrigad`),
	regexp.MustCompile(`\blegal\b`),
	regexp.MustCompile(`\botimo\b`),
	regexp.MustCompile(`\bperfeito\b`),
	regexp.MustCompile(`\btudo bem\b`),
	regexp.MustCompile(`\bcomo vai\b`),
}

var appointmentPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\bagendar\b`),
	regexp.MustCompile(`\bmarcar\b.*\b(consulta|horario)\b`),
	regexp.MustCompile(`\bquero\b.*\bhorario\b`),
	regexp.MustCompile(`\bdisponivel\b`),
	regexp.MustCompile(`\bquando\b.*\bpode\b`),
}

var (
	emailRE  = regexp.MustCompile(`\S+@\S+\.\S+`)
	genderRE = regexp.MustCompile(`(?i)^(masculino|feminino|outro|m|f|o)$`)
)

// nameIntroPatterns match explicit name-introduction phrases on the raw
// (case-preserved) message. "sou <Capitalized>" deliberately requires an
// uppercase letter so "sou cliente" doesn't count.
var nameIntroPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)meu nome [eé]`),
	regexp.MustCompile(`(?i)me chamo`),
	regexp.MustCompile(`sou [A-ZÀÁÂÃÄÅÇÈÉÊËÌÍÎÏÑÒÓÔÕÖÙÚÛÜÝ]`),
	regexp.MustCompile(`(?i)meu nome`),
}

// simpleNameRE matches a whole message made of Title-Case tokens, optionally
// joined by the Portuguese name particles de/da/do/dos/das.
var simpleNameRE = regexp.MustCompile(`^[A-ZÀÁÂÃÄÅÇÈÉÊËÌÍÎÏÑÒÓÔÕÖÙÚÛÜÝ][a-zàáâãäåçèéêëìíîïñòóôõöùúûüý]+(?:\s+(?:[A-ZÀÁÂÃÄÅÇÈÉÊËÌÍÎÏÑÒÓÔÕÖÙÚÛÜÝ][a-zàáâãäåçèéêëìíîïñòóôõöùúûüý]+|de|da|do|dos|das))*$`)

// MessageClassifier is the conversational-layer intent classifier: an ordered
// detector chain where the first hit wins, letting the bot answer asides
// without derailing onboarding.
type MessageClassifier struct {
	logger *logging.Logger
}

// NewMessageClassifier creates a classifier. logger may be nil.
func NewMessageClassifier(logger *logging.Logger) *MessageClassifier {
	if logger == nil {
		logger = logging.Default()
	}
	return &MessageClassifier{logger: logger}
}

// hasBotQuestion reports whether any bot-question fragment appears in message.
func hasBotQuestion(message string) bool {
	for _, pat := range botQuestionFragments {
		if pat.MatchString(message) {
			return true
		}
	}
	return false
}

// textBeforeBotQuestion strips every bot-question fragment and returns what
// remains, trimmed.
func textBeforeBotQuestion(message string) string {
	cleaned := message
	for _, pat := range botQuestionStrip {
		cleaned = pat.ReplaceAllString(cleaned, "")
	}
	return strings.TrimSpace(cleaned)
}

// isNameWithBotQuestion detects "Ana, e o seu?" style messages: a bot-directed
// question with non-trivial text left over once the question fragments are
// stripped. The residue is not required to look like a name here; deciding
// what it actually contains is the AI layer's job.
func isNameWithBotQuestion(message string) bool {
	if !hasBotQuestion(message) {
		return false
	}
	residue := strings.Trim(textBeforeBotQuestion(message), " ,.!?")
	return len(residue) > 2
}

// Classify runs the detector chain top to bottom and returns the first hit.
// The chain order is load-bearing: the compound name+question check must come
// before the simple bot-info check or the leading name would be discarded.
func (c *MessageClassifier) Classify(message string) MessageIntent {
	normalized := Normalize(message)
	trimmed := strings.TrimSpace(message)

	if isNameWithBotQuestion(message) {
		return c.classified(MessageIntent{
			Type:       MessageIntentBotInfo,
			Confidence: 0.9,
			Keywords:   []string{KeywordName, KeywordCompoundQuestion},
		})
	}

	for _, pat := range botInfoPatterns {
		if pat.MatchString(normalized) {
			return c.classified(MessageIntent{
				Type:       MessageIntentBotInfo,
				Confidence: 0.8,
				Keywords:   []string{KeywordName, "assistente", "bot"},
			})
		}
	}

	for _, pat := range casualPatterns {
		if pat.MatchString(normalized) {
			return c.classified(MessageIntent{
				Type:       MessageIntentCasual,
				Confidence: 0.8,
				Keywords:   []string{"prazer", "obrigado", "cortesia"},
			})
		}
	}

	for _, pat := range appointmentPatterns {
		if pat.MatchString(normalized) {
			return c.classified(MessageIntent{
				Type:       MessageIntentAppointment,
				Confidence: 0.85,
				Keywords:   []string{"agendar", "consulta", "horario"},
			})
		}
	}

	if emailRE.MatchString(message) {
		return c.classified(MessageIntent{
			Type:       MessageIntentDataCollection,
			Confidence: 0.95,
			Keywords:   []string{KeywordEmail, "dados"},
		})
	}

	if genderRE.MatchString(trimmed) {
		return c.classified(MessageIntent{
			Type:       MessageIntentDataCollection,
			Confidence: 0.95,
			Keywords:   []string{KeywordGender, "dados"},
		})
	}

	for _, pat := range nameIntroPatterns {
		if pat.MatchString(message) {
			return c.classified(MessageIntent{
				Type:       MessageIntentDataCollection,
				Confidence: 0.95,
				Keywords:   []string{"nome_complexo", KeywordAIRequired},
			})
		}
	}

	if simpleNameRE.MatchString(trimmed) && len(trimmed) >= 4 {
		return c.classified(MessageIntent{
			Type:       MessageIntentDataCollection,
			Confidence: 0.9,
			Keywords:   []string{KeywordName, "dados"},
		})
	}

	return c.classified(MessageIntent{
		Type:       MessageIntentOther,
		Confidence: 0.5,
		Keywords:   []string{},
	})
}

func (c *MessageClassifier) classified(intent MessageIntent) MessageIntent {
	c.logger.Debug("message classified",
		"service", "message-classifier",
		"method", "Classify",
		"operation_type", "message_classification",
		"intent", string(intent.Type),
		"confidence", intent.Confidence,
		"keywords", strings.Join(intent.Keywords, ","),
	)
	return intent
}

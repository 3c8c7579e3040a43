package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/atendezap/dialogue-engine/internal/dialogue"
	"github.com/atendezap/dialogue-engine/internal/session"
	"github.com/atendezap/dialogue-engine/pkg/logging"
)

// WhatsAppWebhookHandler receives inbound WhatsApp messages, runs them
// through the dialogue engine and returns the reply the channel adapter
// should send back.
type WhatsAppWebhookHandler struct {
	responder   *dialogue.Responder
	intents     *dialogue.IntentDetector
	sessions    session.Store
	archive     session.Store
	verifyToken string
	tenantName  string
	logger      *logging.Logger
}

// NewWhatsAppWebhookHandler wires the webhook. archive may be nil when no
// durable store is configured.
func NewWhatsAppWebhookHandler(responder *dialogue.Responder, intents *dialogue.IntentDetector, sessions session.Store, archive session.Store, verifyToken, tenantName string, logger *logging.Logger) *WhatsAppWebhookHandler {
	if responder == nil {
		panic("handlers: responder cannot be nil")
	}
	if intents == nil {
		panic("handlers: intent detector cannot be nil")
	}
	if sessions == nil {
		panic("handlers: session store cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &WhatsAppWebhookHandler{
		responder:   responder,
		intents:     intents,
		sessions:    sessions,
		archive:     archive,
		verifyToken: strings.TrimSpace(verifyToken),
		tenantName:  tenantName,
		logger:      logger,
	}
}

type inboundMessage struct {
	TenantID     string `json:"tenant_id"`
	TenantName   string `json:"tenant_name,omitempty"`
	BusinessType string `json:"business_type,omitempty"`
	From         string `json:"from"`
	Text         string `json:"text"`
}

type webhookReply struct {
	Reply              string              `json:"reply"`
	ShouldContinueFlow bool                `json:"should_continue_flow"`
	Stage              string              `json:"stage"`
	DetectedIntent     string              `json:"detected_intent"`
	BusinessIntent     string              `json:"business_intent,omitempty"`
	Confidence         float64             `json:"confidence"`
	AIMetrics          *dialogue.AIMetrics `json:"ai_metrics,omitempty"`
}

// Verify answers the channel's GET verification handshake.
func (h *WhatsAppWebhookHandler) Verify(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("hub.mode") == "subscribe" && h.verifyToken != "" && q.Get("hub.verify_token") == h.verifyToken {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(q.Get("hub.challenge")))
		return
	}
	h.logger.Warn("webhook verification rejected", "mode", q.Get("hub.mode"))
	http.Error(w, "verification failed", http.StatusForbidden)
}

// Handle processes one inbound message and replies with the engine output.
func (h *WhatsAppWebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	var msg inboundMessage
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		http.Error(w, "invalid JSON payload", http.StatusBadRequest)
		return
	}
	if msg.TenantID == "" || msg.From == "" {
		http.Error(w, "tenant_id and from are required", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(msg.Text) == "" {
		http.Error(w, "text is required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()

	sess, err := h.sessions.Load(ctx, msg.TenantID, msg.From)
	switch {
	case errors.Is(err, session.ErrNotFound):
		sess = session.NewSession(msg.TenantID, msg.From)
	case err != nil:
		h.logger.Error("failed to load session",
			"tenant_id", msg.TenantID,
			"error", err.Error(),
		)
		http.Error(w, "session store unavailable", http.StatusInternalServerError)
		return
	}

	if msg.TenantName != "" {
		sess.Context.TenantName = msg.TenantName
	} else if sess.Context.TenantName == "" {
		sess.Context.TenantName = h.tenantName
	}
	if msg.BusinessType != "" {
		sess.Context.BusinessType = msg.BusinessType
	}

	resp := h.responder.ProcessContextualMessage(ctx, msg.Text, sess.Context)

	// Business routing hint for the caller; absence is a legitimate outcome.
	var businessIntent string
	if key, ok := h.intents.DetectPrimaryIntent(ctx, msg.Text); ok {
		businessIntent = string(key)
	}

	if resp.ContextUpdate != nil {
		resp.ContextUpdate.Apply(&sess.Context)
	}
	if resp.NextStage != "" {
		sess.Context.CurrentStage = resp.NextStage
	}
	sess.Context.PreviousMessages = appendBounded(sess.Context.PreviousMessages, msg.Text, 20)

	if err := h.sessions.Save(ctx, sess); err != nil {
		h.logger.Error("failed to persist session",
			"tenant_id", msg.TenantID,
			"error", err.Error(),
		)
		http.Error(w, "session store unavailable", http.StatusInternalServerError)
		return
	}
	if h.archive != nil {
		// Archive failures must not lose the reply.
		if err := h.archive.Save(ctx, sess); err != nil {
			h.logger.Warn("failed to archive session",
				"tenant_id", msg.TenantID,
				"error", err.Error(),
			)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(webhookReply{
		Reply:              resp.Message,
		ShouldContinueFlow: resp.ShouldContinueFlow,
		Stage:              string(sess.Context.CurrentStage),
		DetectedIntent:     resp.DetectedIntent,
		BusinessIntent:     businessIntent,
		Confidence:         resp.Confidence,
		AIMetrics:          resp.AIMetrics,
	})
}

// HealthCheck reports liveness.
func (h *WhatsAppWebhookHandler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func appendBounded(history []string, message string, limit int) []string {
	history = append(history, message)
	if len(history) > limit {
		history = history[len(history)-limit:]
	}
	return history
}

// Package session persists per-contact conversation state between webhook
// deliveries. Redis is the hot store with a sliding TTL; Postgres keeps a
// durable archive of completed onboardings.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/atendezap/dialogue-engine/internal/dialogue"
)

// ErrNotFound is returned when no session exists for a tenant/phone pair.
var ErrNotFound = errors.New("session: not found")

// Session is one contact's conversation state within a tenant.
type Session struct {
	ID        uuid.UUID                   `json:"id"`
	TenantID  string                      `json:"tenant_id"`
	Phone     string                      `json:"phone"`
	Context   dialogue.ConversationContext `json:"context"`
	UpdatedAt time.Time                   `json:"updated_at"`
}

// NewSession creates a fresh session for a contact on its first message.
func NewSession(tenantID, phone string) *Session {
	return &Session{
		ID:       uuid.New(),
		TenantID: tenantID,
		Phone:    phone,
		Context: dialogue.ConversationContext{
			CurrentStage: dialogue.StageOnboarding,
		},
		UpdatedAt: time.Now().UTC(),
	}
}

// Store is the session persistence contract.
type Store interface {
	Save(ctx context.Context, s *Session) error
	Load(ctx context.Context, tenantID, phone string) (*Session, error)
	Delete(ctx context.Context, tenantID, phone string) error
}

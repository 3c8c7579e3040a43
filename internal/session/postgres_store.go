package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// PgxPool is the subset of pgxpool.Pool the archive needs; pgxmock satisfies
// it in tests.
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore is the durable session archive. Unlike the Redis store it has
// no TTL: rows stay until deleted, surviving Redis eviction and restarts.
//
// Expected schema:
//
//	CREATE TABLE dialogue_sessions (
//	    id         UUID PRIMARY KEY,
//	    tenant_id  TEXT NOT NULL,
//	    phone      TEXT NOT NULL,
//	    context    JSONB NOT NULL,
//	    updated_at TIMESTAMPTZ NOT NULL,
//	    UNIQUE (tenant_id, phone)
//	);
type PostgresStore struct {
	db     PgxPool
	tracer trace.Tracer
}

func NewPostgresStore(db PgxPool) *PostgresStore {
	if db == nil {
		panic("session: db pool cannot be nil")
	}
	return &PostgresStore{
		db:     db,
		tracer: otel.Tracer("atendezap.internal.session.archive"),
	}
}

const upsertSessionSQL = `
INSERT INTO dialogue_sessions (id, tenant_id, phone, context, updated_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (tenant_id, phone)
DO UPDATE SET context = EXCLUDED.context, updated_at = EXCLUDED.updated_at`

const selectSessionSQL = `
SELECT id, context, updated_at FROM dialogue_sessions
WHERE tenant_id = $1 AND phone = $2`

const deleteSessionSQL = `
DELETE FROM dialogue_sessions WHERE tenant_id = $1 AND phone = $2`

func (s *PostgresStore) Save(ctx context.Context, sess *Session) error {
	ctx, span := s.tracer.Start(ctx, "session.archive_save")
	defer span.End()

	sess.UpdatedAt = time.Now().UTC()
	data, err := json.Marshal(sess.Context)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("session: failed to marshal context: %w", err)
	}
	if _, err := s.db.Exec(ctx, upsertSessionSQL, sess.ID, sess.TenantID, sess.Phone, data, sess.UpdatedAt); err != nil {
		span.RecordError(err)
		return fmt.Errorf("session: failed to archive session: %w", err)
	}
	return nil
}

func (s *PostgresStore) Load(ctx context.Context, tenantID, phone string) (*Session, error) {
	ctx, span := s.tracer.Start(ctx, "session.archive_load")
	defer span.End()

	sess := Session{TenantID: tenantID, Phone: phone}
	var data []byte
	err := s.db.QueryRow(ctx, selectSessionSQL, tenantID, phone).Scan(&sess.ID, &data, &sess.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		span.RecordError(err)
		return nil, fmt.Errorf("session: failed to load archived session: %w", err)
	}
	if err := json.Unmarshal(data, &sess.Context); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("session: failed to decode archived context: %w", err)
	}
	return &sess, nil
}

func (s *PostgresStore) Delete(ctx context.Context, tenantID, phone string) error {
	ctx, span := s.tracer.Start(ctx, "session.archive_delete")
	defer span.End()

	if _, err := s.db.Exec(ctx, deleteSessionSQL, tenantID, phone); err != nil {
		span.RecordError(err)
		return fmt.Errorf("session: failed to delete archived session: %w", err)
	}
	return nil
}

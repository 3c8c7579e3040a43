package session

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"

	"github.com/atendezap/dialogue-engine/internal/dialogue"
)

func TestPostgresStoreSave(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	sess := NewSession("tenant-1", "+5511999990000")
	sess.Context.HasName = true
	sess.Context.UserName = "Ana"

	mock.ExpectExec("INSERT INTO dialogue_sessions").
		WithArgs(sess.ID, "tenant-1", "+5511999990000", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	store := NewPostgresStore(mock)
	if err := store.Save(context.Background(), sess); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestPostgresStoreLoad(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	sess := NewSession("tenant-1", "+5511999990000")
	sess.Context.HasName = true
	sess.Context.UserName = "Ana"
	sess.Context.CurrentStage = dialogue.StageScheduling
	data, err := json.Marshal(sess.Context)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	mock.ExpectQuery("SELECT id, context, updated_at FROM dialogue_sessions").
		WithArgs("tenant-1", "+5511999990000").
		WillReturnRows(pgxmock.NewRows([]string{"id", "context", "updated_at"}).
			AddRow(sess.ID, data, time.Now().UTC()))

	store := NewPostgresStore(mock)
	loaded, err := store.Load(context.Background(), "tenant-1", "+5511999990000")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.ID != sess.ID {
		t.Errorf("ID = %s, want %s", loaded.ID, sess.ID)
	}
	if loaded.Context.UserName != "Ana" {
		t.Errorf("UserName = %q", loaded.Context.UserName)
	}
	if loaded.Context.CurrentStage != dialogue.StageScheduling {
		t.Errorf("CurrentStage = %s", loaded.Context.CurrentStage)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestPostgresStoreLoadMissing(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	mock.ExpectQuery("SELECT id, context, updated_at FROM dialogue_sessions").
		WithArgs("tenant-1", "unknown").
		WillReturnError(pgx.ErrNoRows)

	store := NewPostgresStore(mock)
	if _, err := store.Load(context.Background(), "tenant-1", "unknown"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestPostgresStoreDelete(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	mock.ExpectExec("DELETE FROM dialogue_sessions").
		WithArgs("tenant-1", "+5511999990000").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	store := NewPostgresStore(mock)
	if err := store.Delete(context.Background(), "tenant-1", "+5511999990000"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

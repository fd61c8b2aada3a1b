package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"pigment/internal/domain"
	"pigment/internal/sqlinline"
)

type stubExecutor struct {
	value string
	err   error
	exec  struct {
		query string
		args  []any
	}
	queryArgs []any
}

func (s *stubExecutor) Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	s.exec.query = query
	s.exec.args = args
	return pgconn.CommandTag{}, s.err
}

func (s *stubExecutor) QueryRow(ctx context.Context, query string, args ...any) pgx.Row {
	s.queryArgs = args
	return stubRow{value: s.value, err: s.err}
}

func (s *stubExecutor) Query(ctx context.Context, query string, args ...any) (pgx.Rows, error) {
	return nil, errors.New("not implemented")
}

type stubRow struct {
	value string
	err   error
}

func (r stubRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) == 0 {
		return errors.New("no dest")
	}
	ptr, ok := dest[0].(*string)
	if !ok {
		return errors.New("invalid dest")
	}
	*ptr = r.value
	return nil
}

func TestLoadSettings(t *testing.T) {
	exec := &stubExecutor{value: `{"theme":"light"}`}
	raw, err := NewSettingsRepository(exec).LoadSettings(context.Background())
	if err != nil {
		t.Fatalf("LoadSettings error: %v", err)
	}
	if string(raw) != `{"theme":"light"}` {
		t.Fatalf("unexpected settings %q", raw)
	}
	if len(exec.queryArgs) != 1 || exec.queryArgs[0] != SettingsKey {
		t.Fatalf("unexpected args %#v", exec.queryArgs)
	}
}

func TestLoadSettings_NoRows(t *testing.T) {
	_, err := NewSettingsRepository(&stubExecutor{err: pgx.ErrNoRows}).LoadSettings(context.Background())
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSaveSettings(t *testing.T) {
	exec := &stubExecutor{}
	if err := NewSettingsRepository(exec).SaveSettings(context.Background(), []byte(`{}`)); err != nil {
		t.Fatalf("SaveSettings error: %v", err)
	}
	if exec.exec.query != sqlinline.QUpsertSettings {
		t.Fatalf("unexpected query %q", exec.exec.query)
	}
	if len(exec.exec.args) != 2 || exec.exec.args[1] != "{}" {
		t.Fatalf("unexpected args %#v", exec.exec.args)
	}
}

func TestTouchPromptHistory(t *testing.T) {
	exec := &stubExecutor{}
	used := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	entry := domain.PromptEntry{ID: "id-1", Prompt: "castle", UsedAt: used}
	if err := NewPromptHistoryRepository(exec).Touch(context.Background(), entry); err != nil {
		t.Fatalf("Touch error: %v", err)
	}
	if exec.exec.query != sqlinline.QTouchPromptHistory {
		t.Fatalf("unexpected query %q", exec.exec.query)
	}
	if exec.exec.args[0] != "id-1" || exec.exec.args[1] != "castle" || exec.exec.args[2] != used {
		t.Fatalf("unexpected args %#v", exec.exec.args)
	}
}

func TestTrimPromptHistoryPropagatesError(t *testing.T) {
	exec := &stubExecutor{err: errors.New("boom")}
	if err := NewPromptHistoryRepository(exec).Trim(context.Background(), 20); err == nil {
		t.Fatalf("expected error")
	}
	if exec.exec.args[0] != 20 {
		t.Fatalf("unexpected args %#v", exec.exec.args)
	}
}

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/kirillkom/ul-rag-assistant/internal/core/domain"
)

func newRepoWithMock(t *testing.T) (*TurnRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &TurnRepository{db: db}, mock, func() { _ = db.Close() }
}

func TestEnsureSessionInsertsOnce(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectExec("INSERT INTO chat_sessions").
		WithArgs("s-1", "student", "IE", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.EnsureSession(context.Background(), "s-1", domain.ModeStudent, "IE"); err != nil {
		t.Fatalf("EnsureSession() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestAppendTurnMarshalsCitationsAndMeta(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	mock.ExpectExec("INSERT INTO chat_turns").
		WithArgs("s-1", "assistant", "See the exam page.",
			[]byte(`[{"n":1,"source":"ul.ie/exams"}]`),
			[]byte(`{"intent":"admin_process"}`),
			sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	turn := domain.ChatTurn{
		Role:      domain.RoleAssistant,
		Content:   "See the exam page.",
		Citations: []domain.Citation{{N: 1, Source: "ul.ie/exams"}},
		Meta:      map[string]any{"intent": "admin_process"},
	}
	if err := repo.AppendTurn(context.Background(), "s-1", turn); err != nil {
		t.Fatalf("AppendTurn() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestListTurnsReturnsChronologicalOrder(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	older := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	newer := older.Add(time.Minute)

	rows := sqlmock.NewRows([]string{"role", "content", "citations", "meta", "created_at"}).
		AddRow("assistant", "second", []byte(`[]`), []byte(`{}`), newer).
		AddRow("user", "first", []byte(`[]`), []byte(`{}`), older)

	mock.ExpectQuery("SELECT role, content, citations, meta").
		WithArgs("s-1", 10).
		WillReturnRows(rows)

	turns, err := repo.ListTurns(context.Background(), "s-1", 10)
	if err != nil {
		t.Fatalf("ListTurns() error = %v", err)
	}
	if len(turns) != 2 {
		t.Fatalf("len(turns) = %d, want 2", len(turns))
	}
	if turns[0].Content != "first" || turns[1].Content != "second" {
		t.Fatalf("turns out of order: %q then %q", turns[0].Content, turns[1].Content)
	}
	if turns[0].Role != domain.RoleUser {
		t.Fatalf("turns[0].Role = %q, want user", turns[0].Role)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestEnsureSessionRejectsEmptyID(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	err := repo.EnsureSession(context.Background(), "  ", domain.ModeStudent, "IE")
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("EnsureSession() error = %v, want ErrInvalidInput", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestListTurnsZeroLimitSkipsQuery(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	turns, err := repo.ListTurns(context.Background(), "s-1", 0)
	if err != nil {
		t.Fatalf("ListTurns() error = %v", err)
	}
	if turns != nil {
		t.Fatalf("turns = %v, want nil", turns)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

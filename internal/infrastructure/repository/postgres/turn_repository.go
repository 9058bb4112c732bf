// Package postgres persists chat sessions and their turns through the
// database/sql interface over the pgx stdlib driver.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/kirillkom/ul-rag-assistant/internal/core/domain"
)

var errEmptySessionID = errors.New("empty session id")

type TurnRepository struct {
	db *sql.DB
}

func NewTurnRepository(db *sql.DB) *TurnRepository {
	return &TurnRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *TurnRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across concurrent process startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026083101)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS chat_sessions (
	id TEXT PRIMARY KEY,
	mode TEXT NOT NULL,
	locale TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS chat_turns (
	id BIGSERIAL PRIMARY KEY,
	session_id TEXT NOT NULL REFERENCES chat_sessions(id),
	role TEXT NOT NULL,
	content TEXT NOT NULL,
	citations JSONB NOT NULL DEFAULT '[]'::jsonb,
	meta JSONB NOT NULL DEFAULT '{}'::jsonb,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_chat_turns_session ON chat_turns(session_id, created_at);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *TurnRepository) EnsureSession(ctx context.Context, sessionID string, mode domain.Mode, locale string) error {
	if strings.TrimSpace(sessionID) == "" {
		return domain.WrapError(domain.ErrInvalidInput, "ensure session", errEmptySessionID)
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO chat_sessions (id, mode, locale, created_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (id) DO NOTHING
`, sessionID, string(mode), locale, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("ensure session: %w", err)
	}
	return nil
}

func (r *TurnRepository) AppendTurn(ctx context.Context, sessionID string, turn domain.ChatTurn) error {
	if strings.TrimSpace(sessionID) == "" {
		return domain.WrapError(domain.ErrInvalidInput, "append turn", errEmptySessionID)
	}
	citations := turn.Citations
	if citations == nil {
		citations = []domain.Citation{}
	}
	citationsJSON, err := json.Marshal(citations)
	if err != nil {
		return fmt.Errorf("marshal citations: %w", err)
	}

	meta := turn.Meta
	if meta == nil {
		meta = map[string]any{}
	}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("marshal meta: %w", err)
	}

	createdAt := turn.Timestamp
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO chat_turns (session_id, role, content, citations, meta, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
`, sessionID, string(turn.Role), turn.Content, citationsJSON, metaJSON, createdAt)
	if err != nil {
		return fmt.Errorf("append turn: %w", err)
	}
	return nil
}

func (r *TurnRepository) ListTurns(ctx context.Context, sessionID string, limit int) ([]domain.ChatTurn, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT role, content, citations, meta, created_at
FROM chat_turns
WHERE session_id = $1
ORDER BY created_at DESC, id DESC
LIMIT $2
`, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("list turns: %w", err)
	}
	defer rows.Close()

	out := make([]domain.ChatTurn, 0, limit)
	for rows.Next() {
		var turn domain.ChatTurn
		var role string
		var citationsRaw, metaRaw []byte
		if err := rows.Scan(&role, &turn.Content, &citationsRaw, &metaRaw, &turn.Timestamp); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		if err := json.Unmarshal(citationsRaw, &turn.Citations); err != nil {
			return nil, fmt.Errorf("unmarshal citations: %w", err)
		}
		if err := json.Unmarshal(metaRaw, &turn.Meta); err != nil {
			return nil, fmt.Errorf("unmarshal meta: %w", err)
		}
		turn.Role = domain.Role(role)
		out = append(out, turn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate turns: %w", err)
	}

	// Rows come back newest first; callers expect chronological order.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/corpusjuris/interrogator/internal/core/domain"
)

type SessionRepository struct {
	db *sql.DB
}

func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
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

func (r *SessionRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026083001)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS interrogation_sessions (
	id TEXT PRIMARY KEY,
	user_query TEXT NOT NULL,
	user_context TEXT NOT NULL DEFAULT '',
	user_instructions TEXT NOT NULL DEFAULT '',
	turn_budget INTEGER NOT NULL,
	turns_used INTEGER NOT NULL DEFAULT 0,
	transcript JSONB NOT NULL DEFAULT '[]'::jsonb,
	report TEXT NOT NULL DEFAULT '',
	conclusion TEXT NOT NULL DEFAULT '',
	interrogation TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL,
	error_message TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sessions_status ON interrogation_sessions(status);
CREATE INDEX IF NOT EXISTS idx_sessions_created_at ON interrogation_sessions(created_at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *SessionRepository) Create(ctx context.Context, s *domain.Session) error {
	transcriptJSON, err := marshalTranscript(s.Transcript)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO interrogation_sessions (
	id, user_query, user_context, user_instructions, turn_budget, turns_used, transcript, report, conclusion, interrogation, status, error_message, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
`,
		s.ID, s.UserQuery, s.UserContext, s.UserInstructions, s.TurnBudget, s.TurnsUsed, transcriptJSON,
		s.Report, s.Conclusion, s.Interrogation, string(s.Status), s.Error, s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (r *SessionRepository) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, user_query, user_context, user_instructions, turn_budget, turns_used, transcript, report, conclusion, interrogation, status, error_message, created_at, updated_at
FROM interrogation_sessions
WHERE id = $1
`, id)

	var s domain.Session
	var transcriptRaw []byte
	var status string

	err := row.Scan(
		&s.ID, &s.UserQuery, &s.UserContext, &s.UserInstructions, &s.TurnBudget, &s.TurnsUsed,
		&transcriptRaw, &s.Report, &s.Conclusion, &s.Interrogation, &status, &s.Error, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrSessionNotFound, "get session", fmt.Errorf("id %s", id))
		}
		return nil, fmt.Errorf("scan session: %w", err)
	}

	if err := json.Unmarshal(transcriptRaw, &s.Transcript); err != nil {
		return nil, fmt.Errorf("unmarshal transcript: %w", err)
	}
	s.Status = domain.SessionStatus(status)
	return &s, nil
}

func (r *SessionRepository) UpdateStatus(ctx context.Context, id string, status domain.SessionStatus, errMessage string) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE interrogation_sessions
SET status = $2, error_message = $3, updated_at = $4
WHERE id = $1
`, id, string(status), errMessage, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update session status: %w", err)
	}
	return requireRowAffected(res, id)
}

func (r *SessionRepository) SaveOutcome(ctx context.Context, s *domain.Session) error {
	transcriptJSON, err := marshalTranscript(s.Transcript)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, `
UPDATE interrogation_sessions
SET turns_used = $2, transcript = $3, report = $4, conclusion = $5, interrogation = $6, status = $7, error_message = $8, updated_at = $9
WHERE id = $1
`,
		s.ID, s.TurnsUsed, transcriptJSON, s.Report, s.Conclusion, s.Interrogation, string(s.Status), s.Error, s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save session outcome: %w", err)
	}
	return requireRowAffected(res, s.ID)
}

func requireRowAffected(res sql.Result, id string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrSessionNotFound, "update session", fmt.Errorf("id %s", id))
	}
	return nil
}

func marshalTranscript(turns []domain.Turn) ([]byte, error) {
	if turns == nil {
		turns = []domain.Turn{}
	}
	raw, err := json.Marshal(turns)
	if err != nil {
		return nil, fmt.Errorf("marshal transcript: %w", err)
	}
	return raw, nil
}

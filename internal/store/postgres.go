package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/antoniostano/haven/internal/agents"
)

// PostgresStore persists sessions in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := initSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{pool: pool}, nil
}

func initSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE TABLE IF NOT EXISTS messages (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL REFERENCES sessions(id),
			role TEXT NOT NULL,
			content TEXT NOT NULL,
			approach TEXT,
			confidence DOUBLE PRECISION,
			reasoning TEXT,
			created_at TIMESTAMPTZ NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS insights (
			id TEXT PRIMARY KEY,
			session_id TEXT NOT NULL REFERENCES sessions(id),
			insight TEXT NOT NULL,
			kind TEXT NOT NULL,
			approach TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_messages_session_created ON messages (session_id, created_at);`,
		`CREATE INDEX IF NOT EXISTS idx_insights_session_created ON insights (session_id, created_at);`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

func (s *PostgresStore) CreateSession(ctx context.Context, userID string) (Session, error) {
	sess := Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO sessions (id, user_id, created_at) VALUES ($1, $2, $3)`,
		sess.ID, sess.UserID, sess.CreatedAt,
	)
	if err != nil {
		return Session{}, fmt.Errorf("create session: %w", err)
	}
	return sess, nil
}

// SaveInteraction writes the user row, the assistant row and all insight
// rows in one transaction so the turn is visible as a unit or not at all.
func (s *PostgresStore) SaveInteraction(ctx context.Context, sessionID string, in Interaction) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin save interaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	at := time.Now().UTC()
	_, err = tx.Exec(ctx,
		`INSERT INTO messages (id, session_id, role, content, approach, confidence, reasoning, created_at)
		 VALUES ($1, $2, 'user', $3, NULL, NULL, NULL, $4)`,
		uuid.NewString(), sessionID, in.UserMessage, at,
	)
	if err != nil {
		return fmt.Errorf("save user message: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO messages (id, session_id, role, content, approach, confidence, reasoning, created_at)
		 VALUES ($1, $2, 'assistant', $3, $4, $5, $6, $7)`,
		uuid.NewString(), sessionID, in.Reply, in.Approach, in.Confidence, in.Rationale, at.Add(time.Microsecond),
	)
	if err != nil {
		return fmt.Errorf("save assistant message: %w", err)
	}

	at = at.Add(2 * time.Microsecond)
	if err := insertInsights(ctx, tx, sessionID, in.Approach, in.Insights, at); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit save interaction: %w", err)
	}
	return nil
}

func insertInsights(ctx context.Context, tx pgx.Tx, sessionID, approach string, ins agents.Insights, at time.Time) error {
	for _, group := range []struct {
		kind  string
		items []string
	}{
		{KindInsight, ins.Insights},
		{KindPattern, ins.Patterns},
		{KindTrigger, ins.Triggers},
	} {
		for _, text := range group.items {
			_, err := tx.Exec(ctx,
				`INSERT INTO insights (id, session_id, insight, kind, approach, created_at)
				 VALUES ($1, $2, $3, $4, $5, $6)`,
				uuid.NewString(), sessionID, text, group.kind, approach, at,
			)
			if err != nil {
				return fmt.Errorf("save %s row: %w", group.kind, err)
			}
			at = at.Add(time.Microsecond)
		}
	}
	return nil
}

func (s *PostgresStore) History(ctx context.Context, sessionID string) ([]StoredMessage, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, session_id, role, content, COALESCE(approach,''), COALESCE(confidence,0), COALESCE(reasoning,''), created_at
		 FROM messages WHERE session_id=$1 ORDER BY created_at`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var items []StoredMessage
	for rows.Next() {
		var m StoredMessage
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Role, &m.Content, &m.Approach, &m.Confidence, &m.Rationale, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message row: %w", err)
		}
		items = append(items, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate message rows: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) Insights(ctx context.Context, sessionID string) ([]StoredInsight, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, session_id, insight, kind, approach, created_at
		 FROM insights WHERE session_id=$1 ORDER BY created_at DESC`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("query insights: %w", err)
	}
	defer rows.Close()

	var items []StoredInsight
	for rows.Next() {
		var i StoredInsight
		if err := rows.Scan(&i.ID, &i.SessionID, &i.Text, &i.Kind, &i.Approach, &i.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan insight row: %w", err)
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate insight rows: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

package conversation

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ArchiveStore persists per-turn messages to PostgreSQL for long-term
// history, independent of the Redis-backed session state.
type ArchiveStore struct {
	db *sql.DB
}

// NewArchiveStore creates an archive store. Returns nil when no database is
// configured; callers treat a nil store as disabled.
func NewArchiveStore(db *sql.DB) *ArchiveStore {
	if db == nil {
		return nil
	}
	return &ArchiveStore{db: db}
}

// ArchivedMessage is one stored transcript row.
type ArchivedMessage struct {
	ID        uuid.UUID
	SessionID string
	Role      string
	Text      string
	CreatedAt time.Time
}

// SaveTurn records the user message and the assistant reply for one turn.
func (s *ArchiveStore) SaveTurn(ctx context.Context, sessionID, userText, assistantText string) error {
	if s == nil || s.db == nil {
		return nil
	}
	const query = `
		INSERT INTO conversation_messages (id, session_id, role, text, created_at)
		VALUES ($1, $2, $3, $4, $5), ($6, $7, $8, $9, $10)`

	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, query,
		uuid.New(), sessionID, ChatRoleUser, userText, now,
		uuid.New(), sessionID, ChatRoleAssistant, assistantText, now,
	)
	if err != nil {
		return fmt.Errorf("conversation: archive turn: %w", err)
	}
	return nil
}

// Recent returns the latest archived messages for a session, oldest first.
func (s *ArchiveStore) Recent(ctx context.Context, sessionID string, limit int) ([]ArchivedMessage, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 50
	}
	const query = `
		SELECT id, session_id, role, text, created_at FROM (
			SELECT id, session_id, role, text, created_at
			FROM conversation_messages
			WHERE session_id = $1
			ORDER BY created_at DESC
			LIMIT $2
		) latest ORDER BY created_at ASC`

	rows, err := s.db.QueryContext(ctx, query, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("conversation: list archived messages: %w", err)
	}
	defer rows.Close()

	var out []ArchivedMessage
	for rows.Next() {
		var m ArchivedMessage
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Role, &m.Text, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("conversation: scan archived message: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

package sqlite

import (
	"context"
	"fmt"

	"github.com/paperdeck/paperdeck/internal/domain"
)

// MessageRepository implements domain.MessageRepository over per-user
// sqlite databases.
type MessageRepository struct {
	store *Store
}

// NewMessageRepository creates a message repository backed by the store.
func NewMessageRepository(store *Store) *MessageRepository {
	return &MessageRepository{store: store}
}

// Append inserts one message at the end of the session.
func (r *MessageRepository) Append(ctx context.Context, username string, sessionID int64, role domain.MessageRole, content string) error {
	db, err := r.store.db(ctx, username)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx,
		`INSERT INTO chat_messages (session_id, role, content) VALUES (?, ?, ?)`,
		sessionID, string(role), content)
	if err != nil {
		return fmt.Errorf("failed to append message: %w", err)
	}
	return nil
}

// BulkAppend inserts messages in order inside one transaction. Entries with
// an empty role or content are skipped.
func (r *MessageRepository) BulkAppend(ctx context.Context, username string, sessionID int64, messages []domain.NewMessage) error {
	db, err := r.store.db(ctx, username)
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, m := range messages {
		if m.Role == "" || m.Content == "" {
			continue
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO chat_messages (session_id, role, content) VALUES (?, ?, ?)`,
			sessionID, string(m.Role), m.Content)
		if err != nil {
			return fmt.Errorf("failed to append message: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit messages: %w", err)
	}
	return nil
}

// ListBySession returns the session's messages in insertion order.
func (r *MessageRepository) ListBySession(ctx context.Context, username string, sessionID int64) ([]domain.Message, error) {
	db, err := r.store.db(ctx, username)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx,
		`SELECT id, session_id, role, content, created_at FROM chat_messages
		 WHERE session_id = ? ORDER BY id ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	var messages []domain.Message
	for rows.Next() {
		var m domain.Message
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

var _ domain.MessageRepository = (*MessageRepository)(nil)

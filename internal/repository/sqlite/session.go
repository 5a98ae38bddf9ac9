package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/paperdeck/paperdeck/internal/domain"
)

// SessionRepository implements domain.SessionRepository over per-user
// sqlite databases.
type SessionRepository struct {
	store *Store
}

// NewSessionRepository creates a session repository backed by the store.
func NewSessionRepository(store *Store) *SessionRepository {
	return &SessionRepository{store: store}
}

// Create inserts a session for the directory. When the directory already
// holds the maximum number of sessions, the oldest ones are evicted inside
// the same transaction so the count never exceeds the cap.
func (r *SessionRepository) Create(ctx context.Context, username, dirName string) (int64, error) {
	db, err := r.store.db(ctx, username)
	if err != nil {
		return 0, err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx,
		`SELECT id FROM chat_sessions WHERE dir_name = ? ORDER BY created_at ASC, id ASC`, dirName)
	if err != nil {
		return 0, fmt.Errorf("failed to list sessions: %w", err)
	}
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, fmt.Errorf("failed to scan session id: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("failed to list sessions: %w", err)
	}

	if excess := len(ids) - domain.MaxSessionsPerDirectory + 1; excess > 0 {
		for _, id := range ids[:excess] {
			if err := deleteSession(ctx, tx, id); err != nil {
				return 0, err
			}
		}
	}

	res, err := tx.ExecContext(ctx, `INSERT INTO chat_sessions (dir_name) VALUES (?)`, dirName)
	if err != nil {
		return 0, fmt.Errorf("failed to create session: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read session id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit session: %w", err)
	}
	return id, nil
}

// ListByDirectory returns the directory's sessions, newest first.
func (r *SessionRepository) ListByDirectory(ctx context.Context, username, dirName string) ([]domain.ChatSession, error) {
	db, err := r.store.db(ctx, username)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx,
		`SELECT id, dir_name, created_at FROM chat_sessions
		 WHERE dir_name = ? ORDER BY created_at DESC, id DESC`, dirName)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []domain.ChatSession
	for rows.Next() {
		var s domain.ChatSession
		if err := rows.Scan(&s.ID, &s.DirName, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// Delete removes the session and its messages.
func (r *SessionRepository) Delete(ctx context.Context, username string, sessionID int64) error {
	db, err := r.store.db(ctx, username)
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM chat_sessions WHERE id = ?`, sessionID).Scan(&exists)
	if err == sql.ErrNoRows {
		return domain.NotFoundf("session not found: %d", sessionID)
	}
	if err != nil {
		return fmt.Errorf("failed to look up session: %w", err)
	}

	if err := deleteSession(ctx, tx, sessionID); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit delete: %w", err)
	}
	return nil
}

// deleteSession removes a session and its messages explicitly rather than
// relying on cascade, so deletes behave the same on handles opened without
// the foreign_keys pragma.
func deleteSession(ctx context.Context, tx *sql.Tx, sessionID int64) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM chat_messages WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("failed to delete session messages: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM chat_sessions WHERE id = ?`, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

var _ domain.SessionRepository = (*SessionRepository)(nil)

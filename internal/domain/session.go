package domain

import "context"

// MaxSessionsPerDirectory bounds how many chat sessions one document
// directory can hold. Creating a session at the cap evicts the oldest.
const MaxSessionsPerDirectory = 30

// ChatSession represents one conversation thread scoped to a document directory.
type ChatSession struct {
	ID        int64  `json:"id"`
	DirName   string `json:"dir_name"`
	CreatedAt string `json:"created_at"`
}

// SessionRepository defines the interface for session storage. All operations
// are scoped to one user's chat store.
type SessionRepository interface {
	// Create inserts a new session for the directory, evicting the oldest
	// session (and its messages) first when the directory is at the cap.
	Create(ctx context.Context, username, dirName string) (int64, error)

	// ListByDirectory returns the directory's sessions, newest first.
	ListByDirectory(ctx context.Context, username, dirName string) ([]ChatSession, error)

	// Delete removes the session and all of its messages.
	Delete(ctx context.Context, username string, sessionID int64) error
}

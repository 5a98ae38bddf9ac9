package domain

import (
	"context"
	"encoding/json"
)

// MessageRole represents the sender of a message.
type MessageRole string

const (
	RoleSystem    MessageRole = "system"
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// Message is one persisted chat message. Content is stored verbatim: either
// plain text or a serialized list of typed parts.
type Message struct {
	ID        int64       `json:"id"`
	SessionID int64       `json:"session_id"`
	Role      MessageRole `json:"role"`
	Content   string      `json:"content"`
	CreatedAt string      `json:"created_at"`
}

// NewMessage is the insert form used by append operations.
type NewMessage struct {
	Role    MessageRole `json:"role"`
	Content string      `json:"content"`
}

// ContentPart is one element of a typed-parts message body.
type ContentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageRef `json:"image_url,omitempty"`
}

// ImageRef wraps an image location inside a typed part.
type ImageRef struct {
	URL string `json:"url"`
}

// HistoryMessage is the decoded, client-facing form of a stored message.
// A typed-parts row expands into several of these, one per part.
type HistoryMessage struct {
	Role    MessageRole `json:"role"`
	Type    string      `json:"type"`
	Content string      `json:"content"`
}

// DecodeContent expands a stored content string into logical messages. When
// the content parses as a typed-parts list each part becomes its own entry;
// anything else comes back as a single text message with the raw content.
func DecodeContent(role MessageRole, raw string) []HistoryMessage {
	var parts []ContentPart
	if err := json.Unmarshal([]byte(raw), &parts); err == nil {
		var out []HistoryMessage
		for _, p := range parts {
			switch p.Type {
			case "text":
				out = append(out, HistoryMessage{Role: role, Type: "text", Content: p.Text})
			case "image_url":
				if p.ImageURL != nil {
					out = append(out, HistoryMessage{Role: role, Type: "image", Content: p.ImageURL.URL})
				}
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return []HistoryMessage{{Role: role, Type: "text", Content: raw}}
}

// MessageRepository defines the interface for message storage. Ordering is
// entirely determined by insertion order.
type MessageRepository interface {
	Append(ctx context.Context, username string, sessionID int64, role MessageRole, content string) error
	BulkAppend(ctx context.Context, username string, sessionID int64, messages []NewMessage) error
	ListBySession(ctx context.Context, username string, sessionID int64) ([]Message, error)
}

package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/paperdeck/paperdeck/internal/api/response"
	"github.com/paperdeck/paperdeck/internal/domain"
	"github.com/paperdeck/paperdeck/internal/service"
)

// SessionHandler handles chat session CRUD and history retrieval.
type SessionHandler struct {
	sessions domain.SessionRepository
	messages domain.MessageRepository
	users    *service.UserService
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessions domain.SessionRepository, messages domain.MessageRepository, users *service.UserService) *SessionHandler {
	return &SessionHandler{sessions: sessions, messages: messages, users: users}
}

// Create inserts a new session for a directory, evicting the oldest when the
// directory is at its session cap.
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")
	dirName := r.URL.Query().Get("dir_name")
	if dirName == "" {
		response.BadRequest(w, "dir_name is required")
		return
	}

	id, err := h.sessions.Create(r.Context(), username, dirName)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.Created(w, map[string]int64{"session_id": id})
}

// List returns a directory's sessions, newest first.
func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")
	dirName := r.URL.Query().Get("dir_name")
	if dirName == "" {
		response.BadRequest(w, "dir_name is required")
		return
	}

	sessions, err := h.sessions.ListByDirectory(r.Context(), username, dirName)
	if err != nil {
		response.FromError(w, err)
		return
	}
	if sessions == nil {
		sessions = []domain.ChatSession{}
	}
	response.OK(w, map[string]any{"sessions": sessions})
}

// History returns a session's messages in insertion order, with typed-parts
// content expanded into per-part entries.
func (h *SessionHandler) History(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")
	sessionID, err := strconv.ParseInt(chi.URLParam(r, "sessionID"), 10, 64)
	if err != nil {
		response.BadRequest(w, "invalid session id")
		return
	}

	messages, err := h.messages.ListBySession(r.Context(), username, sessionID)
	if err != nil {
		response.FromError(w, err)
		return
	}

	history := []domain.HistoryMessage{}
	for _, m := range messages {
		history = append(history, domain.DecodeContent(m.Role, m.Content)...)
	}
	response.OK(w, map[string]any{"messages": history})
}

type saveMessagesRequest struct {
	Username string              `json:"username" validate:"required"`
	Messages []domain.NewMessage `json:"messages" validate:"required,min=1"`
}

// SaveMessages bulk-appends messages to a session.
func (h *SessionHandler) SaveMessages(w http.ResponseWriter, r *http.Request) {
	sessionID, err := strconv.ParseInt(chi.URLParam(r, "sessionID"), 10, 64)
	if err != nil {
		response.BadRequest(w, "invalid session id")
		return
	}

	var input saveMessagesRequest
	if !decodeAndValidate(w, r, &input) {
		return
	}
	if err := h.users.EnsureAllowed(input.Username); err != nil {
		response.FromError(w, err)
		return
	}

	if err := h.messages.BulkAppend(r.Context(), input.Username, sessionID, input.Messages); err != nil {
		response.FromError(w, err)
		return
	}
	response.OK(w, map[string]string{"message": "messages saved"})
}

type deleteSessionRequest struct {
	Username  string `json:"username" validate:"required"`
	SessionID int64  `json:"session_id" validate:"required"`
}

// Delete removes a session and its messages.
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var input deleteSessionRequest
	if !decodeAndValidate(w, r, &input) {
		return
	}
	if err := h.users.EnsureAllowed(input.Username); err != nil {
		response.FromError(w, err)
		return
	}

	if err := h.sessions.Delete(r.Context(), input.Username, input.SessionID); err != nil {
		response.FromError(w, err)
		return
	}
	response.OK(w, map[string]string{"message": "session deleted"})
}

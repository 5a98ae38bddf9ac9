package handler

import (
	"encoding/json"
	"net/http"

	"github.com/paperdeck/paperdeck/internal/api/response"
	"github.com/paperdeck/paperdeck/internal/service"
)

// ChatHandler seeds conversation state and answers chat turns.
type ChatHandler struct {
	chat  *service.ChatService
	users *service.UserService
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chat *service.ChatService, users *service.UserService) *ChatHandler {
	return &ChatHandler{chat: chat, users: users}
}

// Seed builds the initial conversation state for a directory.
func (h *ChatHandler) Seed(w http.ResponseWriter, r *http.Request) {
	inputDir := r.URL.Query().Get("input_dir")
	if inputDir == "" {
		response.BadRequest(w, "input_dir is required")
		return
	}

	state, err := h.chat.Seed(r.Context(), inputDir)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.OK(w, state)
}

type askRequest struct {
	Username  string            `json:"username" validate:"required"`
	SessionID int64             `json:"session_id" validate:"required"`
	State     service.ChatState `json:"state"`
	UserInput json.RawMessage   `json:"user_input" validate:"required"`
	Provider  string            `json:"provider"`
}

// Ask runs one conversational turn.
func (h *ChatHandler) Ask(w http.ResponseWriter, r *http.Request) {
	var input askRequest
	if !decodeAndValidate(w, r, &input) {
		return
	}
	if len(input.State.Messages) == 0 {
		response.BadRequest(w, "state is required")
		return
	}
	if err := h.users.EnsureAllowed(input.Username); err != nil {
		response.FromError(w, err)
		return
	}

	result, err := h.chat.Ask(r.Context(), service.AskInput{
		Username:  input.Username,
		SessionID: input.SessionID,
		State:     input.State,
		UserInput: input.UserInput,
		Provider:  input.Provider,
	})
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.OK(w, result)
}

package handler

import (
	"net/http"

	"github.com/paperdeck/paperdeck/internal/api/response"
	"github.com/paperdeck/paperdeck/internal/service"
)

// UserHandler handles user existence checks and creation.
type UserHandler struct {
	users *service.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(users *service.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// Check reports whether the user's directory exists.
func (h *UserHandler) Check(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")

	exists, err := h.users.Check(username)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.OK(w, map[string]bool{"exists": exists})
}

type createUserRequest struct {
	Username string `json:"username" validate:"required"`
}

// Create makes the user's directory.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input createUserRequest
	if !decodeAndValidate(w, r, &input) {
		return
	}

	if err := h.users.Create(input.Username); err != nil {
		response.FromError(w, err)
		return
	}
	response.Created(w, map[string]string{"username": input.Username})
}

package handler

import (
	"net/http"

	"github.com/paperdeck/paperdeck/internal/service"
)

// TransformHandler runs the derived-artifact jobs over SSE.
type TransformHandler struct {
	transforms *service.TransformService
}

// NewTransformHandler creates a new transform handler
func NewTransformHandler(transforms *service.TransformService) *TransformHandler {
	return &TransformHandler{transforms: transforms}
}

type transformRequest struct {
	DirName  string `json:"dir_name" validate:"required"`
	Provider string `json:"provider"`
}

func (h *TransformHandler) run(kind service.TransformKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input transformRequest
		if !decodeAndValidate(w, r, &input) {
			return
		}
		streamEvents(w, r, h.transforms.Run(r.Context(), kind, input.DirName, input.Provider))
	}
}

// Translate streams the Japanese translation job.
func (h *TransformHandler) Translate(w http.ResponseWriter, r *http.Request) {
	h.run(service.TransformTranslate)(w, r)
}

// Explain streams the structured-summary job.
func (h *TransformHandler) Explain(w http.ResponseWriter, r *http.Request) {
	h.run(service.TransformExplain)(w, r)
}

// Thread streams the forum-thread dramatization job.
func (h *TransformHandler) Thread(w http.ResponseWriter, r *http.Request) {
	h.run(service.TransformThread)(w, r)
}

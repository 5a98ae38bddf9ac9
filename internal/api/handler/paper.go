package handler

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/paperdeck/paperdeck/internal/api/response"
	"github.com/paperdeck/paperdeck/internal/service"
)

// PaperHandler handles directory browsing, ingestion and artifact management.
type PaperHandler struct {
	papers         *service.PaperService
	ingest         *service.IngestService
	maxUploadBytes int64
}

// NewPaperHandler creates a new paper handler
func NewPaperHandler(papers *service.PaperService, ingest *service.IngestService, maxUploadMB int64) *PaperHandler {
	if maxUploadMB <= 0 {
		maxUploadMB = 100
	}
	return &PaperHandler{
		papers:         papers,
		ingest:         ingest,
		maxUploadBytes: maxUploadMB << 20,
	}
}

// List returns the user's document directories, newest first.
func (h *PaperHandler) List(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")

	dirs, err := h.papers.ListDirectories(r.Context(), username)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.OK(w, map[string]any{"directories": dirs})
}

// Files returns the markdown artifacts and source PDF of one directory.
func (h *PaperHandler) Files(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")
	dirName := r.URL.Query().Get("dir_name")
	if dirName == "" {
		response.BadRequest(w, "dir_name is required")
		return
	}

	mdFiles, pdfFile, err := h.papers.ListFiles(r.Context(), username, dirName)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.OK(w, map[string]any{
		"markdown_files": mdFiles,
		"pdf_file":       pdfFile,
	})
}

type ingestURLRequest struct {
	URL      string `json:"url" validate:"required,url"`
	Provider string `json:"provider"`
}

// Ingest runs the PDF pipeline and streams progress as SSE. The PDF arrives
// either as a multipart "file" field or as a JSON body naming a URL.
func (h *PaperHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")
	in := service.IngestInput{Username: username}

	contentType := r.Header.Get("Content-Type")
	switch {
	case strings.HasPrefix(contentType, "multipart/form-data"):
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
		file, header, err := r.FormFile("file")
		if err != nil {
			response.BadRequest(w, "no valid PDF file or URL provided")
			return
		}
		defer file.Close()
		in.File = file
		in.FileName = header.Filename
		in.Provider = r.FormValue("provider")

	default:
		var input ingestURLRequest
		if !decodeAndValidate(w, r, &input) {
			return
		}
		in.URL = input.URL
		in.Provider = input.Provider
	}

	streamEvents(w, r, h.ingest.Run(r.Context(), in))
}

type saveMarkdownRequest struct {
	DirName  string  `json:"dir_name" validate:"required"`
	FileName string  `json:"file_name" validate:"required"`
	Content  *string `json:"content" validate:"required"`
}

// SaveMarkdown overwrites one markdown artifact from the editor.
func (h *PaperHandler) SaveMarkdown(w http.ResponseWriter, r *http.Request) {
	var input saveMarkdownRequest
	if !decodeAndValidate(w, r, &input) {
		return
	}

	if err := h.papers.SaveMarkdown(r.Context(), input.DirName, input.FileName, *input.Content); err != nil {
		response.FromError(w, err)
		return
	}
	response.OK(w, map[string]string{"message": fmt.Sprintf("%s saved", input.FileName)})
}

type deleteFileRequest struct {
	Username string `json:"username" validate:"required"`
	DirName  string `json:"dir_name" validate:"required"`
	Suffix   string `json:"suffix" validate:"required"`
}

// DeleteFile removes the one artifact matching a suffix.
func (h *PaperHandler) DeleteFile(w http.ResponseWriter, r *http.Request) {
	var input deleteFileRequest
	if !decodeAndValidate(w, r, &input) {
		return
	}

	name, err := h.papers.DeleteArtifact(r.Context(), input.Username, input.DirName, input.Suffix)
	if err != nil {
		response.FromError(w, err)
		return
	}
	response.OK(w, map[string]string{"deleted": name})
}

type deleteDirectoryRequest struct {
	Username string `json:"username" validate:"required"`
	DirName  string `json:"dir_name" validate:"required"`
}

// Delete removes one whole document directory.
func (h *PaperHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var input deleteDirectoryRequest
	if !decodeAndValidate(w, r, &input) {
		return
	}

	if err := h.papers.DeleteDirectory(r.Context(), input.Username, input.DirName); err != nil {
		response.FromError(w, err)
		return
	}
	response.OK(w, map[string]string{"deleted": input.DirName})
}

// Archive streams a directory as a zip download.
func (h *PaperHandler) Archive(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")
	dirName := r.URL.Query().Get("dir_name")
	if dirName == "" {
		response.BadRequest(w, "dir_name is required")
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", dirName+".zip"))
	if err := h.papers.WriteArchive(r.Context(), username, dirName, w); err != nil {
		// Validation happens before any archive bytes are written, so an
		// error response here still reaches the client intact.
		response.FromError(w, err)
	}
}

// Content serves one stored file (PDF, image or markdown) by its path under
// the asset root.
func (h *PaperHandler) Content(w http.ResponseWriter, r *http.Request) {
	rel := chi.URLParam(r, "*")

	path, err := h.papers.ContentPath(rel)
	if err != nil {
		response.FromError(w, err)
		return
	}
	http.ServeFile(w, r, path)
}

package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shuoxuer/shuoxuer-website/internal/api/response"
	"github.com/shuoxuer/shuoxuer-website/internal/domain"
)

// DocumentationHandler serves the curated technique documents
type DocumentationHandler struct {
	docs domain.DocumentationRepository
}

func NewDocumentationHandler(docs domain.DocumentationRepository) *DocumentationHandler {
	return &DocumentationHandler{docs: docs}
}

// List returns all docs, or those matching ?q=
func (h *DocumentationHandler) List(w http.ResponseWriter, r *http.Request) {
	docs, err := h.docs.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, err)
		return
	}

	response.OK(w, docs)
}

func (h *DocumentationHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "docID")
	doc, ok, err := h.docs.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if !ok {
		response.NotFound(w, "documentation "+id+" not found")
		return
	}

	response.OK(w, doc)
}

type updateSectionRequest struct {
	Title   string `json:"title" validate:"required"`
	Content string `json:"content"`
	Append  bool   `json:"append"`
}

// UpdateSection sets or appends to a section of a doc
func (h *DocumentationHandler) UpdateSection(w http.ResponseWriter, r *http.Request) {
	var req updateSectionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	id := chi.URLParam(r, "docID")
	found, err := h.docs.UpdateSection(r.Context(), id, req.Title, req.Content, req.Append)
	if err != nil {
		writeError(w, err)
		return
	}
	if !found {
		response.NotFound(w, "documentation "+id+" not found")
		return
	}

	response.OK(w, map[string]string{"message": "Section updated"})
}

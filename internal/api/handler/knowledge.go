package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shuoxuer/shuoxuer-website/internal/api/middleware"
	"github.com/shuoxuer/shuoxuer-website/internal/api/response"
	"github.com/shuoxuer/shuoxuer-website/internal/domain"
	"github.com/shuoxuer/shuoxuer-website/internal/knowledge"
)

// KnowledgeHandler moderates and searches the knowledge base
type KnowledgeHandler struct {
	knowledgeService *knowledge.Service
	topK             int
}

func NewKnowledgeHandler(knowledgeService *knowledge.Service, topK int) *KnowledgeHandler {
	return &KnowledgeHandler{knowledgeService: knowledgeService, topK: topK}
}

type addKnowledgeRequest struct {
	Content string   `json:"content" validate:"required"`
	Tags    []string `json:"tags"`
	Source  string   `json:"source"`
}

// Add stores a pending candidate
func (h *KnowledgeHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req addKnowledgeRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	if req.Source == "" {
		req.Source = domain.SourceUser
	}

	entry, err := h.knowledgeService.Add(r.Context(), req.Content, req.Tags, req.Source)
	if err != nil {
		writeError(w, err)
		return
	}

	response.Created(w, map[string]string{"id": entry.ID})
}

// List returns entries, optionally filtered by ?status=
func (h *KnowledgeHandler) List(w http.ResponseWriter, r *http.Request) {
	status := domain.KnowledgeStatus(r.URL.Query().Get("status"))
	if status != "" && !status.Valid() {
		response.BadRequest(w, "status must be one of: pending approved rejected")
		return
	}

	entries, err := h.knowledgeService.List(r.Context(), status)
	if err != nil {
		writeError(w, err)
		return
	}

	response.OK(w, entries)
}

type approveRequest struct {
	Reviewer string `json:"reviewer"`
}

// Approve publishes an entry for retrieval. A reviewer token takes
// precedence over the reviewer named in the body.
func (h *KnowledgeHandler) Approve(w http.ResponseWriter, r *http.Request) {
	var req approveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		response.BadRequest(w, "invalid request body")
		return
	}
	if reviewer, ok := middleware.GetReviewer(r.Context()); ok {
		req.Reviewer = reviewer
	}

	entry, err := h.knowledgeService.Approve(r.Context(), chi.URLParam(r, "knowledgeID"), req.Reviewer)
	if err != nil {
		writeError(w, err)
		return
	}

	response.OK(w, entry)
}

func (h *KnowledgeHandler) Reject(w http.ResponseWriter, r *http.Request) {
	entry, err := h.knowledgeService.Reject(r.Context(), chi.URLParam(r, "knowledgeID"))
	if err != nil {
		writeError(w, err)
		return
	}

	response.OK(w, entry)
}

type updateKnowledgeRequest struct {
	Content *string  `json:"content"`
	Tags    []string `json:"tags"`
	Status  *string  `json:"status" validate:"omitempty,oneof=pending approved rejected"`
}

// Update edits content, tags or status
func (h *KnowledgeHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateKnowledgeRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	in := knowledge.UpdateInput{Content: req.Content, Tags: req.Tags}
	if req.Status != nil {
		status := domain.KnowledgeStatus(*req.Status)
		in.Status = &status
	}

	entry, err := h.knowledgeService.Update(r.Context(), chi.URLParam(r, "knowledgeID"), in)
	if err != nil {
		writeError(w, err)
		return
	}

	response.OK(w, entry)
}

func (h *KnowledgeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.knowledgeService.Delete(r.Context(), chi.URLParam(r, "knowledgeID")); err != nil {
		writeError(w, err)
		return
	}

	response.OK(w, map[string]string{"message": "Knowledge entry deleted"})
}

type searchRequest struct {
	Query string `json:"query" validate:"required"`
	TopK  int    `json:"top_k" validate:"omitempty,min=1,max=50"`
}

// Search ranks approved entries against a free-text query
func (h *KnowledgeHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	if req.TopK == 0 {
		req.TopK = h.topK
	}

	hits, err := h.knowledgeService.Search(r.Context(), req.Query, req.TopK)
	if err != nil {
		writeError(w, err)
		return
	}

	response.OK(w, map[string]any{
		"query":   req.Query,
		"results": hits,
	})
}

package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shuoxuer/shuoxuer-website/internal/api/response"
	"github.com/shuoxuer/shuoxuer-website/internal/service"
)

type ArchiveHandler struct {
	archiveService *service.ArchiveService
}

func NewArchiveHandler(archiveService *service.ArchiveService) *ArchiveHandler {
	return &ArchiveHandler{archiveService: archiveService}
}

// List returns all archives, newest first
func (h *ArchiveHandler) List(w http.ResponseWriter, r *http.Request) {
	archives, err := h.archiveService.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	response.OK(w, archives)
}

func (h *ArchiveHandler) Get(w http.ResponseWriter, r *http.Request) {
	archive, err := h.archiveService.Get(r.Context(), chi.URLParam(r, "archiveID"))
	if err != nil {
		writeError(w, err)
		return
	}

	response.OK(w, archive)
}

func (h *ArchiveHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.archiveService.Delete(r.Context(), chi.URLParam(r, "archiveID")); err != nil {
		writeError(w, err)
		return
	}

	response.OK(w, map[string]string{"message": "Archive deleted"})
}

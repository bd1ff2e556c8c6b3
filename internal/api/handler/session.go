package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shuoxuer/shuoxuer-website/internal/api/response"
	"github.com/shuoxuer/shuoxuer-website/internal/service"
)

type SessionHandler struct {
	chatService *service.ChatService
}

func NewSessionHandler(chatService *service.ChatService) *SessionHandler {
	return &SessionHandler{chatService: chatService}
}

// List returns all chat sessions, newest first
func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.chatService.Sessions(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	response.OK(w, sessions)
}

// Get returns a session with its messages
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	sess, err := h.chatService.Session(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, err)
		return
	}

	response.OK(w, sess)
}

// Delete deletes a session
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.chatService.DeleteSession(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		writeError(w, err)
		return
	}

	response.OK(w, map[string]string{"message": "Session deleted"})
}

package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/shuoxuer/shuoxuer-website/internal/api/response"
	"github.com/shuoxuer/shuoxuer-website/internal/service"
)

// ChatHandler serves the pocket assistant
type ChatHandler struct {
	chatService *service.ChatService
	maxUpload   int64
}

func NewChatHandler(chatService *service.ChatService, maxUpload int64) *ChatHandler {
	return &ChatHandler{chatService: chatService, maxUpload: maxUpload}
}

type chatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
	Provider  string `json:"provider"`
}

// Send answers one chat turn. The body is multipart (message, file,
// session_id) or JSON without an attachment.
func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	var in service.ChatInput

	if h.maxUpload > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	}

	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, "invalid request body")
			return
		}
		in = service.ChatInput{SessionID: req.SessionID, Message: req.Message, Provider: req.Provider}
	} else {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			response.BadRequest(w, "invalid multipart form: "+err.Error())
			return
		}
		in = service.ChatInput{
			SessionID: r.FormValue("session_id"),
			Message:   r.FormValue("message"),
			Provider:  providerParam(r),
		}
		if len(r.MultipartForm.File["file"]) > 0 {
			upload, ok := readUpload(w, r, "file", 0)
			if !ok {
				return
			}
			in.File = upload
		}
	}

	reply, err := h.chatService.Send(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}

	response.OK(w, reply)
}

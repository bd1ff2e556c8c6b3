package handler

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/shuoxuer/shuoxuer-website/internal/api/response"
	"github.com/shuoxuer/shuoxuer-website/internal/prompt"
	"github.com/shuoxuer/shuoxuer-website/internal/service"
)

// AnalysisHandler handles the video and style analysis endpoints
type AnalysisHandler struct {
	analysisService *service.AnalysisService
	maxUpload       int64
}

// NewAnalysisHandler creates a new analysis handler. maxUpload is in bytes.
func NewAnalysisHandler(analysisService *service.AnalysisService, maxUpload int64) *AnalysisHandler {
	return &AnalysisHandler{analysisService: analysisService, maxUpload: maxUpload}
}

// Video analyzes an uploaded training video
func (h *AnalysisHandler) Video(w http.ResponseWriter, r *http.Request) {
	upload, ok := readUpload(w, r, "video", h.maxUpload)
	if !ok {
		return
	}

	strictness := prompt.DefaultParams().Strictness
	if s := r.FormValue("severity"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			response.BadRequest(w, "severity must be an integer")
			return
		}
		strictness = v
	}

	style := r.FormValue("style")
	if style == "" {
		style = prompt.DefaultParams().Style
	}
	coach := r.FormValue("coach")
	if coach == "" {
		coach = "hu"
	}

	result, err := h.analysisService.AnalyzeVideo(r.Context(), service.VideoInput{
		Upload:     *upload,
		Coach:      coach,
		Strictness: strictness,
		Style:      style,
		Provider:   providerParam(r),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	response.OK(w, result)
}

// Style rates an uploaded outfit photo
func (h *AnalysisHandler) Style(w http.ResponseWriter, r *http.Request) {
	upload, ok := readUpload(w, r, "photo", h.maxUpload)
	if !ok {
		return
	}

	result, err := h.analysisService.AnalyzePhoto(r.Context(), service.PhotoInput{
		Upload:   *upload,
		Provider: providerParam(r),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	response.OK(w, result)
}

// readUpload parses the multipart form and reads the named file. It writes
// the error response itself.
func readUpload(w http.ResponseWriter, r *http.Request, field string, maxUpload int64) (*service.Upload, bool) {
	if maxUpload > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxUpload)
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		response.BadRequest(w, "invalid multipart form: "+err.Error())
		return nil, false
	}

	file, header, err := r.FormFile(field)
	if err != nil {
		response.BadRequest(w, fmt.Sprintf("no %s uploaded", field))
		return nil, false
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		response.BadRequest(w, "failed to read upload")
		return nil, false
	}

	return &service.Upload{
		Data:        data,
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
	}, true
}

// providerParam selects an LLM provider per request; empty uses the default
func providerParam(r *http.Request) string {
	if p := r.URL.Query().Get("provider"); p != "" {
		return p
	}
	return r.FormValue("provider")
}

package handler

import (
	"net/http"

	"github.com/shuoxuer/shuoxuer-website/internal/api/response"
	"github.com/shuoxuer/shuoxuer-website/internal/service"
)

type DashboardHandler struct {
	statsService *service.StatsService
}

func NewDashboardHandler(statsService *service.StatsService) *DashboardHandler {
	return &DashboardHandler{statsService: statsService}
}

// Stats returns the training dashboard figures
func (h *DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.statsService.Dashboard(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	response.OK(w, stats)
}

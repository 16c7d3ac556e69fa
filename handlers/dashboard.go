package handlers

import (
	"net/http"

	"github.com/Dosada05/spormatch/services"
)

type DashboardHandler struct {
	eventService services.EventService
}

func NewDashboardHandler(s services.EventService) *DashboardHandler {
	return &DashboardHandler{eventService: s}
}

// Dashboard godoc
// @Summary Home screen data
// @Tags events
// @Produce json
// @Success 200 {object} models.Dashboard
// @Security BearerAuth
// @Router /events/dashboard [get]
func (h *DashboardHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	dashboard, err := h.eventService.Dashboard(r.Context(), userID)
	if err != nil {
		serverErrorResponse(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, dashboard)
}

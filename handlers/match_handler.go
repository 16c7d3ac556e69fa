package handlers

import (
	"net/http"

	"github.com/Dosada05/spormatch/services"
)

// MatchHandler serves match results and the per-user match lists.
type MatchHandler struct {
	eventService services.EventService
}

func NewMatchHandler(es services.EventService) *MatchHandler {
	return &MatchHandler{eventService: es}
}

// RecordResult godoc
// @Summary Record the result of an event
// @Description Organizer only. Moves the event to past.
// @Tags matches
// @Accept json
// @Produce json
// @Param eventID path int true "Event ID"
// @Param body body services.RecordResultInput true "Score, result and details"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} map[string]string "Not the organizer"
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /events/{eventID}/result [post]
func (h *MatchHandler) RecordResult(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	eventID, err := getIDFromURL(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.RecordResultInput
	if !decodeAndValidate(w, r, &input) {
		return
	}

	result, err := h.eventService.RecordResult(r.Context(), eventID, userID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"result": result})
}

// ListMatches godoc
// @Summary Upcoming and past matches of the current user
// @Tags matches
// @Produce json
// @Success 200 {object} models.Matches
// @Security BearerAuth
// @Router /events/matches [get]
func (h *MatchHandler) ListMatches(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	matches, err := h.eventService.Matches(r.Context(), userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, matches)
}

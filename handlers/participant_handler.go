package handlers

import (
	"net/http"

	"github.com/Dosada05/spormatch/services"
)

type ParticipantHandler struct {
	participantService services.ParticipantService
}

func NewParticipantHandler(ps services.ParticipantService) *ParticipantHandler {
	return &ParticipantHandler{participantService: ps}
}

type joinEventInput struct {
	Position *string `json:"position" validate:"omitempty,max=32"`
}

// Join godoc
// @Summary Join an event
// @Description Joining again only updates the position.
// @Tags events
// @Accept json
// @Produce json
// @Param eventID path int true "Event ID"
// @Param body body joinEventInput false "Preferred position"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string "Event full or no longer upcoming"
// @Security BearerAuth
// @Router /events/{eventID}/join [post]
func (h *ParticipantHandler) Join(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	eventID, err := getIDFromURL(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input joinEventInput
	if r.ContentLength != 0 && !decodeAndValidate(w, r, &input) {
		return
	}

	participant, err := h.participantService.Join(r.Context(), eventID, userID, input.Position)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"participant": participant})
}

// Leave godoc
// @Summary Leave an event
// @Tags events
// @Param eventID path int true "Event ID"
// @Success 204
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /events/{eventID}/leave [post]
func (h *ParticipantHandler) Leave(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	eventID, err := getIDFromURL(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.participantService.Leave(r.Context(), eventID, userID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListParticipants godoc
// @Summary Participants of an event
// @Tags events
// @Produce json
// @Param eventID path int true "Event ID"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /events/{eventID}/participants [get]
func (h *ParticipantHandler) ListParticipants(w http.ResponseWriter, r *http.Request) {
	eventID, err := getIDFromURL(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	participants, err := h.participantService.ListParticipants(r.Context(), eventID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"participants": participants})
}

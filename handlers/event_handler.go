package handlers

import (
	"net/http"

	"github.com/Dosada05/spormatch/services"
)

type EventHandler struct {
	eventService services.EventService
}

func NewEventHandler(es services.EventService) *EventHandler {
	return &EventHandler{eventService: es}
}

// CreateEvent godoc
// @Summary Create an event
// @Description The organizer joins the event automatically.
// @Tags events
// @Accept json
// @Produce json
// @Param body body services.CreateEventInput true "Event data"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Failure 422 {object} map[string]interface{}
// @Security BearerAuth
// @Router /events [post]
func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var input services.CreateEventInput
	if !decodeAndValidate(w, r, &input) {
		return
	}

	event, err := h.eventService.CreateEvent(r.Context(), userID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusCreated, jsonResponse{"event": event})
}

// GetEvent godoc
// @Summary Event details
// @Tags events
// @Produce json
// @Param eventID path int true "Event ID"
// @Success 200 {object} models.EventDetails
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /events/{eventID} [get]
func (h *EventHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	eventID, err := getIDFromURL(r, "eventID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	details, err := h.eventService.GetEvent(r.Context(), eventID, userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, details)
}

// Explore godoc
// @Summary Upcoming events
// @Tags events
// @Produce json
// @Param category query string false "Category filter; empty or 'all' for every category"
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /events/explore [get]
func (h *EventHandler) Explore(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	events, err := h.eventService.Explore(r.Context(), userID, r.URL.Query().Get("category"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"events": events})
}

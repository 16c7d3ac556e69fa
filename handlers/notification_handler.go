package handlers

import (
	"net/http"

	"github.com/Dosada05/spormatch/services"
)

type NotificationHandler struct {
	notificationService services.NotificationService
}

func NewNotificationHandler(ns services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: ns}
}

// ListNotifications godoc
// @Summary Notifications of the current user
// @Tags notifications
// @Produce json
// @Param filter query string false "all, invites or system"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string "Unknown filter"
// @Security BearerAuth
// @Router /notifications [get]
func (h *NotificationHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	notifications, err := h.notificationService.ListNotifications(r.Context(), userID, r.URL.Query().Get("filter"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"notifications": notifications})
}

// SendInvite godoc
// @Summary Invite a user, optionally to an event
// @Tags notifications
// @Accept json
// @Produce json
// @Param body body services.SendInviteInput true "Target username, event and message"
// @Success 201 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /notifications/invites [post]
func (h *NotificationHandler) SendInvite(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var input services.SendInviteInput
	if !decodeAndValidate(w, r, &input) {
		return
	}

	notification, err := h.notificationService.SendInvite(r.Context(), userID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusCreated, jsonResponse{"notification": notification})
}

// AcceptInvite godoc
// @Summary Accept an invite
// @Description Joins the invited event and marks the notification read, atomically.
// @Tags notifications
// @Produce json
// @Param notificationID path int true "Notification ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string "Event full or finished"
// @Security BearerAuth
// @Router /notifications/{notificationID}/accept [post]
func (h *NotificationHandler) AcceptInvite(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	notificationID, err := getIDFromURL(r, "notificationID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	participant, err := h.notificationService.AcceptInvite(r.Context(), notificationID, userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"participant": participant})
}

func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	notificationID, err := getIDFromURL(r, "notificationID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.notificationService.MarkRead(r.Context(), notificationID, userID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

package handlers

import (
	"net/http"

	"github.com/Dosada05/spormatch/services"
)

type MessageHandler struct {
	conversationService services.ConversationService
}

func NewMessageHandler(cs services.ConversationService) *MessageHandler {
	return &MessageHandler{conversationService: cs}
}

// ListMessages godoc
// @Summary Message history
// @Description Also marks every message of the conversation as read for the caller.
// @Tags messages
// @Produce json
// @Param conversationID path int true "Conversation ID"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} map[string]string
// @Security BearerAuth
// @Router /conversations/{conversationID}/messages [get]
func (h *MessageHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	conversationID, err := getIDFromURL(r, "conversationID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	messages, err := h.conversationService.ListMessages(r.Context(), conversationID, userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"messages": messages})
}

// SendMessage godoc
// @Summary Send a message
// @Description Retrying with the same client_token returns the stored message with 200.
// @Tags messages
// @Accept json
// @Produce json
// @Param conversationID path int true "Conversation ID"
// @Param body body services.SendMessageInput true "Content and optional client token"
// @Success 201 {object} map[string]interface{}
// @Failure 403 {object} map[string]string
// @Security BearerAuth
// @Router /conversations/{conversationID}/messages [post]
func (h *MessageHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	conversationID, err := getIDFromURL(r, "conversationID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input services.SendMessageInput
	if !decodeAndValidate(w, r, &input) {
		return
	}

	msg, created, err := h.conversationService.SendMessage(r.Context(), conversationID, userID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	status := http.StatusCreated
	if !created {
		status = http.StatusOK
	}
	respond(w, r, status, jsonResponse{"message": msg})
}

// MarkRead godoc
// @Summary Mark the conversation read
// @Tags messages
// @Param conversationID path int true "Conversation ID"
// @Success 204
// @Security BearerAuth
// @Router /conversations/{conversationID}/read [post]
func (h *MessageHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	conversationID, err := getIDFromURL(r, "conversationID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.conversationService.MarkRead(r.Context(), conversationID, userID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

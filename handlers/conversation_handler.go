package handlers

import (
	"net/http"

	"github.com/Dosada05/spormatch/services"
)

type ConversationHandler struct {
	conversationService services.ConversationService
}

func NewConversationHandler(cs services.ConversationService) *ConversationHandler {
	return &ConversationHandler{conversationService: cs}
}

// ListConversations godoc
// @Summary Inbox of the current user
// @Tags conversations
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Security BearerAuth
// @Router /conversations [get]
func (h *ConversationHandler) ListConversations(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	conversations, err := h.conversationService.ListConversations(r.Context(), userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"conversations": conversations})
}

// CreateConversation godoc
// @Summary Start a direct or group conversation
// @Description Two distinct participants make a direct conversation, which is reused if it already exists.
// @Tags conversations
// @Accept json
// @Produce json
// @Param body body services.CreateConversationInput true "Participants, optional group name and image"
// @Success 201 {object} map[string]interface{} "Created"
// @Success 200 {object} map[string]interface{} "Existing direct conversation"
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string "Unknown participant"
// @Security BearerAuth
// @Router /conversations [post]
func (h *ConversationHandler) CreateConversation(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var input services.CreateConversationInput
	if !decodeAndValidate(w, r, &input) {
		return
	}

	conv, created, err := h.conversationService.CreateConversation(r.Context(), userID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	respond(w, r, status, jsonResponse{"conversation": conv, "created": created})
}

// GetConversation godoc
// @Summary Conversation info and participants
// @Tags conversations
// @Produce json
// @Param conversationID path int true "Conversation ID"
// @Success 200 {object} models.ConversationDetails
// @Failure 403 {object} map[string]string
// @Security BearerAuth
// @Router /conversations/{conversationID} [get]
func (h *ConversationHandler) GetConversation(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	conversationID, err := getIDFromURL(r, "conversationID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	details, err := h.conversationService.GetConversation(r.Context(), conversationID, userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, details)
}

type renameConversationInput struct {
	Name string `json:"name" validate:"required,max=128"`
}

// UpdateConversation godoc
// @Summary Rename a group
// @Tags conversations
// @Accept json
// @Param conversationID path int true "Conversation ID"
// @Param body body renameConversationInput true "New name"
// @Success 204
// @Security BearerAuth
// @Router /conversations/{conversationID} [patch]
func (h *ConversationHandler) UpdateConversation(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	conversationID, err := getIDFromURL(r, "conversationID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input renameConversationInput
	if !decodeAndValidate(w, r, &input) {
		return
	}

	if err := h.conversationService.UpdateName(r.Context(), conversationID, userID, input.Name); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type addMemberInput struct {
	Username string `json:"username" validate:"required"`
}

// AddMember godoc
// @Summary Add a user to a group by username
// @Tags conversations
// @Accept json
// @Produce json
// @Param conversationID path int true "Conversation ID"
// @Param body body addMemberInput true "Username"
// @Success 201 {object} map[string]interface{}
// @Failure 409 {object} map[string]string "Already a member"
// @Security BearerAuth
// @Router /conversations/{conversationID}/members [post]
func (h *ConversationHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	conversationID, err := getIDFromURL(r, "conversationID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input addMemberInput
	if !decodeAndValidate(w, r, &input) {
		return
	}

	member, err := h.conversationService.AddMember(r.Context(), conversationID, userID, input.Username)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusCreated, jsonResponse{"member": member})
}

// RemoveMember godoc
// @Summary Remove a member from a group
// @Description Anyone may leave; removing others is reserved to the group creator.
// @Tags conversations
// @Param conversationID path int true "Conversation ID"
// @Param userID path int true "Member user ID"
// @Success 204
// @Failure 403 {object} map[string]string
// @Security BearerAuth
// @Router /conversations/{conversationID}/members/{userID} [delete]
func (h *ConversationHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	conversationID, err := getIDFromURL(r, "conversationID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	memberID, err := getIDFromURL(r, "userID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.conversationService.RemoveMember(r.Context(), conversationID, userID, memberID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

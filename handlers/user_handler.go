package handlers

import (
	"net/http"

	"github.com/Dosada05/spormatch/models"
	"github.com/Dosada05/spormatch/services"
)

type UserHandler struct {
	userService services.UserService
}

func NewUserHandler(us services.UserService) *UserHandler {
	return &UserHandler{userService: us}
}

// GetMe godoc
// @Summary Current user's profile
// @Tags users
// @Produce json
// @Success 200 {object} models.Profile
// @Failure 401 {object} map[string]string
// @Security BearerAuth
// @Router /users/me [get]
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	h.writeProfile(w, r, userID, userID)
}

// GetUserByID godoc
// @Summary Public profile of a user
// @Tags users
// @Produce json
// @Param userID path int true "User ID"
// @Success 200 {object} models.Profile
// @Failure 404 {object} map[string]string
// @Security BearerAuth
// @Router /users/{userID} [get]
func (h *UserHandler) GetUserByID(w http.ResponseWriter, r *http.Request) {
	viewerID, ok := currentUser(w, r)
	if !ok {
		return
	}
	userID, err := getIDFromURL(r, "userID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	h.writeProfile(w, r, viewerID, userID)
}

func (h *UserHandler) writeProfile(w http.ResponseWriter, r *http.Request, viewerID, userID int) {
	profile, err := h.userService.GetProfile(r.Context(), viewerID, userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"user": profile.User, "history": profile.History})
}

// UpdateMe godoc
// @Summary Update own profile
// @Description Only the provided fields change.
// @Tags users
// @Accept json
// @Produce json
// @Param body body models.ProfileUpdate true "Fields to change"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string "Username taken"
// @Security BearerAuth
// @Router /users/me [put]
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var input models.ProfileUpdate
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	user, err := h.userService.UpdateProfile(r.Context(), userID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	respond(w, r, http.StatusOK, jsonResponse{"user": user})
}

type pushTokenInput struct {
	Token string `json:"token" validate:"required"`
}

// UpdatePushToken godoc
// @Summary Store the device push token
// @Tags users
// @Accept json
// @Param body body pushTokenInput true "Push token"
// @Success 204
// @Security BearerAuth
// @Router /users/me/push-token [put]
func (h *UserHandler) UpdatePushToken(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var input pushTokenInput
	if !decodeAndValidate(w, r, &input) {
		return
	}

	if err := h.userService.UpdatePushToken(r.Context(), userID, input.Token); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

package handlers

import (
	"net/http"
	"time"

	"github.com/Dosada05/spormatch/middleware"
	"github.com/Dosada05/spormatch/models"
	"github.com/Dosada05/spormatch/services"
)

type AuthHandler struct {
	authService services.AuthService
	jwtSecret   []byte
	tokenTTL    time.Duration
}

func NewAuthHandler(authService services.AuthService, jwtSecret string, tokenTTL time.Duration) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		jwtSecret:   []byte(jwtSecret),
		tokenTTL:    tokenTTL,
	}
}

// sessionResponse подписывает токен для пользователя и пишет ответ.
func (h *AuthHandler) sessionResponse(w http.ResponseWriter, r *http.Request, status int, user *models.User) {
	token, expiresAt, err := middleware.IssueToken(h.jwtSecret, user.ID, h.tokenTTL)
	if err != nil {
		serverErrorResponse(w, r, err)
		return
	}
	respond(w, r, status, jsonResponse{
		"token":      token,
		"expires_at": expiresAt,
		"user":       user,
	})
}

// Register godoc
// @Summary Register a new user
// @Tags auth
// @Accept json
// @Produce json
// @Param body body services.RegisterInput true "Email, password and full name"
// @Success 201 {object} map[string]interface{} "token, expires_at and user"
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string "Email or username taken"
// @Failure 422 {object} map[string]interface{}
// @Router /auth/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input services.RegisterInput
	if !decodeAndValidate(w, r, &input) {
		return
	}

	user, err := h.authService.Register(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	h.sessionResponse(w, r, http.StatusCreated, user)
}

// Login godoc
// @Summary Log in with email or username
// @Tags auth
// @Accept json
// @Produce json
// @Param body body services.LoginInput true "Login and password"
// @Success 200 {object} map[string]interface{} "token, expires_at and user"
// @Failure 401 {object} map[string]string "Invalid credentials"
// @Router /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input services.LoginInput
	if !decodeAndValidate(w, r, &input) {
		return
	}

	user, err := h.authService.Login(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	h.sessionResponse(w, r, http.StatusOK, user)
}

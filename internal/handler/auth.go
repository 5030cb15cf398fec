package handler

import (
	"net/http"

	"github.com/tallyhq/tally/internal/auth"
	"github.com/tallyhq/tally/internal/middleware"
	"github.com/tallyhq/tally/internal/models"
)

type userResponse struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	ImageURL    string `json:"image_url,omitempty"`
	CreatedAt   int64  `json:"created_at"`
}

func toUserResponse(u *models.User) userResponse {
	return userResponse{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		ImageURL:    u.ImageURL,
		CreatedAt:   u.CreatedAt,
	}
}

type sessionResponse struct {
	User  userResponse `json:"user"`
	Token string       `json:"token"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email       string `json:"email"`
		DisplayName string `json:"display_name"`
		ImageURL    string `json:"image_url"`
		Password    string `json:"password"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	if req.Email == "" || req.DisplayName == "" {
		h.writeError(w, auth.ErrInvalidCredentials)
		return
	}

	user, err := h.authenticator.Register(r.Context(), req.Email, req.DisplayName, req.ImageURL, req.Password)
	if err != nil {
		h.writeError(w, err)
		return
	}

	token, err := h.jwtManager.Generate(user)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.logger.Info("User registered", "user_id", user.ID, "email", user.Email)
	h.respond(w, http.StatusCreated, sessionResponse{User: toUserResponse(user), Token: token})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	if req.Email == "" || req.Password == "" {
		h.writeError(w, auth.ErrInvalidCredentials)
		return
	}

	user, err := h.authenticator.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(w, auth.ErrInvalidCredentials)
		return
	}

	token, err := h.jwtManager.Generate(user)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.logger.Info("User logged in", "user_id", user.ID)
	h.respond(w, http.StatusOK, sessionResponse{User: toUserResponse(user), Token: token})
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	user, err := h.store.GetUserByID(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.respond(w, http.StatusOK, toUserResponse(user))
}
